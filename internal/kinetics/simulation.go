package kinetics

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a simulation run.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusComplete
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusComplete:
		return "complete"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one entry of the run history: the channel that fired and the
// exponential waiting time drawn for it.
type Event struct {
	Channel ChannelIndex `json:"channel"`
	Tau     float64      `json:"tau"`
}

// StepEvent is the per-step observation handed to an observer callback.
// It carries enough to follow a run live without replaying it.
type StepEvent struct {
	Step     int          `json:"step"`
	Channel  ChannelIndex `json:"channel"`
	Reaction int          `json:"reaction"`
	Reverse  bool         `json:"reverse"`
	Tau      float64      `json:"tau"`
	Time     float64      `json:"time"`
	Total    float64      `json:"total_propensity"`
}

// Observer receives every step of a run as it happens. Observers run
// synchronously inside the step loop; anything slow should hand off to its
// own goroutine (the notification manager does).
type Observer func(StepEvent)

// Option configures a Simulation.
type Option func(*Simulation)

// WithRandomSource injects the uniform source used for the two per-step draws.
func WithRandomSource(rng RandomSource) Option {
	return func(s *Simulation) { s.rng = rng }
}

// WithSeed is shorthand for WithRandomSource(NewSeededSource(seed)).
func WithSeed(seed int64) Option {
	return func(s *Simulation) { s.rng = NewSeededSource(seed) }
}

// WithLogger injects a logger for run lifecycle messages.
func WithLogger(l Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// WithObserver attaches a per-step observer.
func WithObserver(obs Observer) Option {
	return func(s *Simulation) { s.observer = obs }
}

// WithMaxTime stops a run early once cumulative simulated time exceeds the
// bound. Zero means no time bound; the run is then exactly the requested
// number of steps.
func WithMaxTime(t float64) Option {
	return func(s *Simulation) { s.maxTime = t }
}

// Simulation owns all mutable state of one run: the population array, the
// coordination and propensity vectors, and the event history. The compiled
// network is shared read-only. A Simulation is single-use: one call to Run,
// then the history is read out.
type Simulation struct {
	net   *Network
	state []int64
	coord []float64
	props *propensityVector
	ref   *refresher

	rng      RandomSource
	logger   Logger
	observer Observer
	maxTime  float64

	status  Status
	history []Event
	simTime float64
}

// NewSimulation builds a run context over a compiled network and an initial
// population array. The initial array is copied; the caller's slice is not
// mutated. Coordination numbers and propensities are computed here, with
// the same rules the refresher applies per step.
func NewSimulation(net *Network, initial []int64, opts ...Option) (*Simulation, error) {
	if len(initial) != net.NumSpecies {
		return nil, fmt.Errorf("initial state length %d does not match network species count %d",
			len(initial), net.NumSpecies)
	}

	s := &Simulation{
		net:    net,
		state:  append([]int64(nil), initial...),
		props:  newPropensityVector(net.NumChannels()),
		ref:    newRefresher(net.NumChannels()),
		logger: NoOpLogger{},
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = NewSeededSource(time.Now().UnixNano())
	}

	coord, err := net.InitialCoordination(s.state)
	if err != nil {
		return nil, err
	}
	s.coord = coord
	s.props.rebuildAll(net.rateConstants, s.coord)
	return s, nil
}

// Status returns the run's lifecycle state.
func (s *Simulation) Status() Status {
	return s.status
}

// History returns the events fired so far, in order. The returned slice is
// owned by the simulation.
func (s *Simulation) History() []Event {
	return s.history
}

// State returns the current population array. Owned by the simulation.
func (s *Simulation) State() []int64 {
	return s.state
}

// SimulatedTime returns the cumulative simulated time of the run so far.
func (s *Simulation) SimulatedTime() float64 {
	return s.simTime
}

// TotalPropensity returns the cached A0 for the current state.
func (s *Simulation) TotalPropensity() float64 {
	return s.props.total
}

// Run executes exactly steps sequential steps and returns the event
// history. A Simulation runs once: calling Run again after completion or
// failure is an error. Any step error (degenerate propensity, negative
// count) terminates the run immediately with no retry; the partial history
// up to the failed step is returned alongside the error.
func (s *Simulation) Run(steps int) ([]Event, error) {
	if s.status != StatusIdle {
		return s.history, fmt.Errorf("simulation already %s, runs are single-use", s.status)
	}
	if steps < 0 {
		return nil, fmt.Errorf("negative step count %d", steps)
	}

	s.status = StatusRunning
	s.history = make([]Event, 0, steps)
	s.logger.Infof("run started: network=%s steps=%d initial A0=%g", s.net.Name, steps, s.props.total)

	for i := 0; i < steps; i++ {
		ev, err := s.step(i)
		if err != nil {
			s.status = StatusFailed
			s.logger.Errorf("run aborted at step %d: %v", i, err)
			return s.history, err
		}
		s.history = append(s.history, Event{Channel: ev.Channel, Tau: ev.Tau})
		if s.observer != nil {
			s.observer(ev)
		}
		if s.maxTime > 0 && s.simTime > s.maxTime {
			s.logger.Infof("run reached time bound %g after %d steps", s.maxTime, i+1)
			break
		}
	}

	s.status = StatusComplete
	s.logger.Infof("run complete: steps=%d simulated time=%g", len(s.history), s.simTime)
	return s.history, nil
}

// step performs one select/update/refresh cycle.
func (s *Simulation) step(i int) (StepEvent, error) {
	c, tau, err := selectEvent(s.rng, s.props)
	if err != nil {
		return StepEvent{}, err
	}

	if err := applyChannel(s.net, s.state, c); err != nil {
		return StepEvent{}, err
	}

	affected := s.ref.affectedChannels(s.net, c)
	recompute(s.net, s.state, s.coord, affected)
	s.props.refresh(affected, s.net.rateConstants, s.coord)

	s.simTime += tau
	return StepEvent{
		Step:     i,
		Channel:  c,
		Reaction: c.Reaction(),
		Reverse:  c.Reverse(),
		Tau:      tau,
		Time:     s.simTime,
		Total:    s.props.total,
	}, nil
}
