package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/daniacca/rxnsim/internal/kinetics"
	"github.com/daniacca/rxnsim/internal/kinetics/notifiers"
	"github.com/daniacca/rxnsim/internal/store"
)

// wsNotifierID is the fixed id of the server's built-in websocket stream.
const wsNotifierID = "ws"

// Server manages compiled networks and the runs launched against them.
// Runs execute in their own goroutines; every run owns its mutable state,
// the server only tracks records.
type Server struct {
	logger   *Logger
	notifMgr *kinetics.NotificationManager
	ws       *notifiers.WebSocketNotifier
	store    store.Store // nil when persistence is disabled

	mu       sync.RWMutex
	networks map[string]*compiledNetwork
	runs     map[string]*kinetics.RunRecord
}

type compiledNetwork struct {
	cfg kinetics.NetworkConfig
	net *kinetics.Network
}

// NewServer creates a server. The store may be nil.
func NewServer(logger *Logger, st store.Store) *Server {
	notifMgr := kinetics.NewNotificationManagerWithLogger(logger)
	ws := notifiers.NewWebSocketNotifier(wsNotifierID)
	if err := notifMgr.RegisterNotifier(ws); err != nil {
		logger.Fatalf("registering websocket notifier: %v", err)
	}
	return &Server{
		logger:   logger,
		notifMgr: notifMgr,
		ws:       ws,
		store:    st,
		networks: make(map[string]*compiledNetwork),
		runs:     make(map[string]*kinetics.RunRecord),
	}
}

// LoadNetwork compiles and registers a network config, persisting it when
// a store is configured.
func (s *Server) LoadNetwork(ctx context.Context, cfg kinetics.NetworkConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("network name is required")
	}
	net, err := kinetics.CompileNetwork(cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.networks[cfg.Name] = &compiledNetwork{cfg: cfg, net: net}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SaveNetwork(ctx, cfg); err != nil {
			s.logger.Warnf("failed to persist network %s: %v", cfg.Name, err)
		}
	}
	s.logger.Infof("network loaded: name=%s species=%d reactions=%d",
		cfg.Name, cfg.NumSpecies, len(cfg.Reactions))
	return nil
}

// NetworkNames returns the registered network names.
func (s *Server) NetworkNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.networks))
	for name := range s.networks {
		names = append(names, name)
	}
	return names
}

// startRunRequest are the launch parameters of one run.
type startRunRequest struct {
	Network        string             `json:"network"`
	Steps          int                `json:"steps"`
	Seed           int64              `json:"seed"`
	Label          string             `json:"label,omitempty"`
	Volume         float64            `json:"volume"`
	Concentrations map[string]float64 `json:"concentrations"`
	Notifiers      []string           `json:"notifiers,omitempty"`
}

// StartRun launches a run asynchronously and returns its record in the
// "running" state. Step events stream to the websocket notifier plus any
// extra notifiers named in the request.
func (s *Server) StartRun(req startRunRequest, ic kinetics.InitialCondition) (kinetics.RunRecord, error) {
	s.mu.RLock()
	cn, ok := s.networks[req.Network]
	s.mu.RUnlock()
	if !ok {
		return kinetics.RunRecord{}, fmt.Errorf("unknown network %q", req.Network)
	}
	if req.Steps <= 0 {
		return kinetics.RunRecord{}, fmt.Errorf("steps must be positive, got %d", req.Steps)
	}

	initial, err := cn.net.InitialState(ic)
	if err != nil {
		return kinetics.RunRecord{}, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	runID := ulid.Make().String()
	notifierIDs := append([]string{wsNotifierID}, req.Notifiers...)

	sim, err := kinetics.NewSimulation(cn.net, initial,
		kinetics.WithSeed(seed),
		kinetics.WithLogger(s.logger),
		kinetics.WithObserver(s.notifMgr.Observer(runID, req.Label, cn.cfg.Name, notifierIDs)),
	)
	if err != nil {
		return kinetics.RunRecord{}, err
	}

	rec := kinetics.RunRecord{
		RunID:       runID,
		Label:       req.Label,
		NetworkName: cn.cfg.Name,
		Seed:        seed,
		Steps:       req.Steps,
		Volume:      ic.Volume,
		Initial:     ic,
		Status:      kinetics.StatusRunning.String(),
	}

	s.mu.Lock()
	s.runs[runID] = &rec
	s.mu.Unlock()

	go s.executeRun(sim, runID, req.Steps)
	return rec, nil
}

func (s *Server) executeRun(sim *kinetics.Simulation, runID string, steps int) {
	started := time.Now()
	history, err := sim.Run(steps)
	wall := time.Since(started).Seconds()
	if err != nil {
		s.logger.Errorf("run %s failed: %v", runID, err)
	}

	s.mu.Lock()
	rec := s.runs[runID]
	rec.Status = sim.Status().String()
	rec.History = history
	rec.Stats = kinetics.AnalyzeWaitingTimes(history)
	rec.WallSeconds = wall
	saved := *rec
	s.mu.Unlock()

	if s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.store.SaveRun(ctx, saved); err != nil {
			s.logger.Errorf("failed to persist run %s: %v", runID, err)
		}
	}
}

// GetRun returns the record for a run id.
func (s *Server) GetRun(id string) (kinetics.RunRecord, bool) {
	s.mu.RLock()
	rec, ok := s.runs[id]
	s.mu.RUnlock()
	if ok {
		return *rec, true
	}
	if s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		stored, found, err := s.store.GetRun(ctx, id)
		if err != nil {
			s.logger.Warnf("failed to load run %s from store: %v", id, err)
			return kinetics.RunRecord{}, false
		}
		return stored, found
	}
	return kinetics.RunRecord{}, false
}

// ListRuns returns every known run record, histories omitted.
func (s *Server) ListRuns() []kinetics.RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]kinetics.RunRecord, 0, len(s.runs))
	for _, rec := range s.runs {
		summary := *rec
		summary.History = nil
		recs = append(recs, summary)
	}
	return recs
}

// Close shuts down notifications and the store.
func (s *Server) Close() error {
	if err := s.notifMgr.Close(); err != nil {
		s.logger.Warnf("closing notification manager: %v", err)
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
