package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/daniacca/rxnsim/internal/kinetics"
)

// SQLiteStore implements Store on a SQLite database. Event histories are
// stored as a JSON column on the run row; runs are keyed by ULID so a
// plain ORDER BY id gives creation order.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS networks (
		name       TEXT PRIMARY KEY,
		config     TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS runs (
		id           TEXT PRIMARY KEY,
		label        TEXT,
		network_name TEXT NOT NULL,
		seed         INTEGER NOT NULL,
		steps        INTEGER NOT NULL,
		volume       REAL NOT NULL,
		initial      TEXT NOT NULL,
		status       TEXT NOT NULL,
		history      TEXT NOT NULL,
		stats        TEXT NOT NULL,
		wall_seconds REAL NOT NULL,
		created_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_network ON runs(network_name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveNetwork stores a network config under its name.
func (s *SQLiteStore) SaveNetwork(ctx context.Context, cfg kinetics.NetworkConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("network name is required")
	}
	data, err := kinetics.EncodeNetworkJSON(cfg)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO networks (name, config, created_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET config = excluded.config
	`, cfg.Name, string(data), time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetNetwork loads a network config by name.
func (s *SQLiteStore) GetNetwork(ctx context.Context, name string) (kinetics.NetworkConfig, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT config FROM networks WHERE name = ?`, name).Scan(&raw)
	if err == sql.ErrNoRows {
		return kinetics.NetworkConfig{}, false, nil
	}
	if err != nil {
		return kinetics.NetworkConfig{}, false, err
	}
	cfg, err := kinetics.DecodeNetworkJSON([]byte(raw))
	if err != nil {
		return kinetics.NetworkConfig{}, false, err
	}
	return cfg, true, nil
}

// ListNetworks returns the stored network names.
func (s *SQLiteStore) ListNetworks(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM networks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SaveRun stores a run record, assigning a ULID when the record has no id.
func (s *SQLiteStore) SaveRun(ctx context.Context, rec kinetics.RunRecord) (kinetics.RunRecord, error) {
	if rec.RunID == "" {
		rec.RunID = s.newID()
	}
	history, err := json.Marshal(rec.History)
	if err != nil {
		return kinetics.RunRecord{}, fmt.Errorf("encode history: %w", err)
	}
	stats, err := json.Marshal(rec.Stats)
	if err != nil {
		return kinetics.RunRecord{}, fmt.Errorf("encode stats: %w", err)
	}
	initial, err := json.Marshal(rec.Initial)
	if err != nil {
		return kinetics.RunRecord{}, fmt.Errorf("encode initial condition: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, label, network_name, seed, steps, volume, initial, status, history, stats, wall_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label,
			status = excluded.status,
			history = excluded.history,
			stats = excluded.stats,
			wall_seconds = excluded.wall_seconds
	`, rec.RunID, rec.Label, rec.NetworkName, rec.Seed, rec.Steps, rec.Volume,
		string(initial), rec.Status, string(history), string(stats), rec.WallSeconds,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return kinetics.RunRecord{}, err
	}
	return rec, nil
}

// GetRun loads a full run record, event history included.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (kinetics.RunRecord, bool, error) {
	var (
		rec                     kinetics.RunRecord
		initial, history, stats string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label, network_name, seed, steps, volume, initial, status, history, stats, wall_seconds
		FROM runs WHERE id = ?
	`, id).Scan(&rec.RunID, &rec.Label, &rec.NetworkName, &rec.Seed, &rec.Steps,
		&rec.Volume, &initial, &rec.Status, &history, &stats, &rec.WallSeconds)
	if err == sql.ErrNoRows {
		return kinetics.RunRecord{}, false, nil
	}
	if err != nil {
		return kinetics.RunRecord{}, false, err
	}

	if err := json.Unmarshal([]byte(initial), &rec.Initial); err != nil {
		return kinetics.RunRecord{}, false, fmt.Errorf("decode initial condition: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &rec.History); err != nil {
		return kinetics.RunRecord{}, false, fmt.Errorf("decode history: %w", err)
	}
	if err := json.Unmarshal([]byte(stats), &rec.Stats); err != nil {
		return kinetics.RunRecord{}, false, fmt.Errorf("decode stats: %w", err)
	}
	return rec, true, nil
}

// ListRuns returns run records newest first, without event histories.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]kinetics.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, network_name, seed, steps, volume, status, stats, wall_seconds
		FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []kinetics.RunRecord
	for rows.Next() {
		var (
			rec   kinetics.RunRecord
			stats string
		)
		if err := rows.Scan(&rec.RunID, &rec.Label, &rec.NetworkName, &rec.Seed,
			&rec.Steps, &rec.Volume, &rec.Status, &stats, &rec.WallSeconds); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(stats), &rec.Stats); err != nil {
			return nil, fmt.Errorf("decode stats for run %s: %w", rec.RunID, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// DeleteRun removes a run record.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
