// Package store persists reaction networks and simulation run records.
package store

import (
	"context"

	"github.com/daniacca/rxnsim/internal/kinetics"
)

// Store is the persistence interface for networks and run records.
type Store interface {
	// SaveNetwork stores a network config under its name, replacing any
	// previous config with the same name.
	SaveNetwork(ctx context.Context, cfg kinetics.NetworkConfig) error

	// GetNetwork loads a network config by name.
	GetNetwork(ctx context.Context, name string) (kinetics.NetworkConfig, bool, error)

	// ListNetworks returns the stored network names.
	ListNetworks(ctx context.Context) ([]string, error)

	// SaveRun stores a run record. An empty RunID is assigned a fresh ULID;
	// the stored record (with its id) is returned.
	SaveRun(ctx context.Context, rec kinetics.RunRecord) (kinetics.RunRecord, error)

	// GetRun loads a run record by id.
	GetRun(ctx context.Context, id string) (kinetics.RunRecord, bool, error)

	// ListRuns returns run records, newest first, without their event
	// histories (History is nil on the returned records).
	ListRuns(ctx context.Context, limit int) ([]kinetics.RunRecord, error)

	// DeleteRun removes a run record.
	DeleteRun(ctx context.Context, id string) error

	// Close releases the store's resources.
	Close() error
}
