// Package sweep runs a reaction network across a grid of conditions:
// every combination of volume and step count, repeated for a number of
// iterations. Runs are independent and share only the immutable compiled
// network, so they execute fully in parallel.
package sweep

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/daniacca/rxnsim/internal/kinetics"
	"github.com/daniacca/rxnsim/internal/store"
)

// Config describes a sweep. Concentrations apply to every run; each
// (volume, steps) pair is repeated Iterations times with seeds derived
// from Seed, so the whole sweep is reproducible.
type Config struct {
	NetworkFile    string          `yaml:"network_file"`
	Volumes        []float64       `yaml:"volumes"`
	StepCounts     []int           `yaml:"step_counts"`
	Iterations     int             `yaml:"iterations"`
	Concentrations map[int]float64 `yaml:"concentrations"`
	Seed           int64           `yaml:"seed"`
	MaxParallel    int             `yaml:"max_parallel,omitempty"`
}

// LoadConfig reads and validates a sweep config from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading sweep config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing sweep config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the sweep grid makes sense before any run starts.
func (c Config) Validate() error {
	if c.NetworkFile == "" {
		return fmt.Errorf("sweep config: network_file is required")
	}
	if len(c.Volumes) == 0 {
		return fmt.Errorf("sweep config: at least one volume is required")
	}
	if len(c.StepCounts) == 0 {
		return fmt.Errorf("sweep config: at least one step count is required")
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("sweep config: iterations must be positive, got %d", c.Iterations)
	}
	for _, v := range c.Volumes {
		if v <= 0 {
			return fmt.Errorf("sweep config: volume must be positive, got %g", v)
		}
	}
	for _, n := range c.StepCounts {
		if n <= 0 {
			return fmt.Errorf("sweep config: step count must be positive, got %d", n)
		}
	}
	return nil
}

// Result is the outcome of one run of the sweep.
type Result struct {
	Record kinetics.RunRecord
	Err    error
}

// Runner executes sweeps over a compiled network.
type Runner struct {
	net    *kinetics.Network
	store  store.Store // optional; nil disables persistence
	logger kinetics.Logger
}

// NewRunner builds a sweep runner. The store may be nil; results are then
// only returned, not persisted.
func NewRunner(net *kinetics.Network, st store.Store, logger kinetics.Logger) *Runner {
	if logger == nil {
		logger = kinetics.NoOpLogger{}
	}
	return &Runner{net: net, store: st, logger: logger}
}

// Run executes the full grid and returns one result per run, in no
// particular order. Run-level failures (degenerate state, invariant
// violations) are captured per result so the rest of the sweep continues;
// only setup failures abort the sweep.
func (r *Runner) Run(ctx context.Context, cfg Config) ([]Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	type job struct {
		volume float64
		steps  int
		iter   int
		seed   int64
	}

	var jobs []job
	seed := cfg.Seed
	for _, volume := range cfg.Volumes {
		for _, steps := range cfg.StepCounts {
			for iter := 0; iter < cfg.Iterations; iter++ {
				seed++
				jobs = append(jobs, job{volume: volume, steps: steps, iter: iter, seed: seed})
			}
		}
	}

	maxParallel := cfg.MaxParallel
	if maxParallel <= 0 {
		maxParallel = len(jobs)
	}
	sem := make(chan struct{}, maxParallel)

	results := make([]Result, len(jobs))
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = r.runOne(ctx, cfg, j.volume, j.steps, j.iter, j.seed)
		}(i, j)
	}
	wg.Wait()

	return results, nil
}

func (r *Runner) runOne(ctx context.Context, cfg Config, volume float64, steps, iter int, seed int64) Result {
	ic := kinetics.InitialCondition{
		Volume:         volume,
		Concentrations: make(map[kinetics.SpeciesID]float64, len(cfg.Concentrations)),
	}
	for id, conc := range cfg.Concentrations {
		ic.Concentrations[kinetics.SpeciesID(id)] = conc
	}

	initial, err := r.net.InitialState(ic)
	if err != nil {
		return Result{Err: fmt.Errorf("initial state (V=%g): %w", volume, err)}
	}

	sim, err := kinetics.NewSimulation(r.net, initial,
		kinetics.WithSeed(seed),
		kinetics.WithLogger(r.logger),
	)
	if err != nil {
		return Result{Err: fmt.Errorf("simulation setup (V=%g): %w", volume, err)}
	}

	label := fmt.Sprintf("V_%g_t_%d_run%d", volume, steps, iter+1)
	started := time.Now()
	history, runErr := sim.Run(steps)
	wall := time.Since(started).Seconds()

	rec := kinetics.RunRecord{
		Label:       label,
		NetworkName: r.net.Name,
		Seed:        seed,
		Steps:       steps,
		Volume:      volume,
		Initial:     ic,
		Status:      sim.Status().String(),
		History:     history,
		Stats:       kinetics.AnalyzeWaitingTimes(history),
		WallSeconds: wall,
	}

	if r.store != nil {
		saved, saveErr := r.store.SaveRun(ctx, rec)
		if saveErr != nil {
			r.logger.Errorf("sweep: failed to persist run %s: %v", label, saveErr)
		} else {
			rec = saved
		}
	}

	if runErr != nil {
		r.logger.Warnf("sweep: run %s aborted: %v", label, runErr)
		return Result{Record: rec, Err: runErr}
	}
	r.logger.Infof("sweep: run %s complete: steps=%d sim_time=%g wall=%gs",
		label, rec.Stats.Steps, rec.Stats.Total, wall)
	return Result{Record: rec}
}

// Summary aggregates a sweep's results the way the original analysis
// sheets did: average and standard deviation of wall time and simulated
// end time over the completed runs.
type Summary struct {
	Completed   int
	Failed      int
	MeanWall    float64
	StdWall     float64
	MeanSimTime float64
	StdSimTime  float64
}

// Summarize computes a Summary over sweep results.
func Summarize(results []Result) Summary {
	var s Summary
	var walls, simTimes []float64
	for _, res := range results {
		if res.Err != nil {
			s.Failed++
			continue
		}
		s.Completed++
		walls = append(walls, res.Record.WallSeconds)
		simTimes = append(simTimes, res.Record.Stats.Total)
	}
	s.MeanWall, s.StdWall = meanStd(walls)
	s.MeanSimTime, s.StdSimTime = meanStd(simTimes)
	return s
}

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}
