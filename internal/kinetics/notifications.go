package kinetics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// RunNotification is the payload delivered to notifiers for each simulated
// step of an observed run.
type RunNotification struct {
	RunID     string    `json:"run_id"`
	Label     string    `json:"label,omitempty"`
	Network   string    `json:"network"`
	Timestamp int64     `json:"timestamp"`
	Step      StepEvent `json:"step"`
}

// JSON returns the notification as JSON bytes.
func (n RunNotification) JSON() ([]byte, error) {
	return json.Marshal(n)
}

// Notifier is a delivery channel for run notifications.
type Notifier interface {
	// ID returns a unique identifier for this notifier.
	ID() string

	// Type returns the kind of notifier (e.g. "webhook", "websocket").
	Type() string

	// Notify delivers one notification. The context bounds the attempt.
	Notify(ctx context.Context, n RunNotification) error

	// Close releases the notifier's resources.
	Close() error
}

type notificationJob struct {
	note        RunNotification
	notifierIDs []string
}

// NotificationManager owns the registered notifiers and delivers run
// notifications to them asynchronously. Delivery is best effort: a full
// queue drops, a failing notifier is retried with exponential backoff and
// then given up on. The step loop never blocks on delivery.
type NotificationManager struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	jobs      chan notificationJob
	closed    bool
	wg        sync.WaitGroup
	logger    Logger
}

// NewNotificationManager creates a manager with a single delivery worker
// and a no-op logger.
func NewNotificationManager() *NotificationManager {
	return NewNotificationManagerWithLogger(NoOpLogger{})
}

// NewNotificationManagerWithLogger creates a manager that logs delivery
// failures through the given logger.
func NewNotificationManagerWithLogger(logger Logger) *NotificationManager {
	mgr := &NotificationManager{
		notifiers: make(map[string]Notifier),
		jobs:      make(chan notificationJob, 1024),
		logger:    logger,
	}
	mgr.wg.Add(1)
	go mgr.worker()
	return mgr
}

// RegisterNotifier adds a notifier. IDs must be unique and non-empty.
func (nm *NotificationManager) RegisterNotifier(n Notifier) error {
	if n == nil {
		return fmt.Errorf("notifier cannot be nil")
	}
	id := n.ID()
	if id == "" {
		return fmt.Errorf("notifier ID cannot be empty")
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()
	if _, exists := nm.notifiers[id]; exists {
		return fmt.Errorf("notifier with ID %s already exists", id)
	}
	nm.notifiers[id] = n
	return nil
}

// UnregisterNotifier closes and removes a notifier.
func (nm *NotificationManager) UnregisterNotifier(id string) error {
	nm.mu.Lock()
	n, exists := nm.notifiers[id]
	if exists {
		delete(nm.notifiers, id)
	}
	nm.mu.Unlock()

	if !exists {
		return fmt.Errorf("notifier with ID %s not found", id)
	}
	if err := n.Close(); err != nil {
		return fmt.Errorf("error closing notifier %s: %w", id, err)
	}
	return nil
}

// GetNotifier retrieves a notifier by ID.
func (nm *NotificationManager) GetNotifier(id string) (Notifier, bool) {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	n, exists := nm.notifiers[id]
	return n, exists
}

// ListNotifiers returns the registered notifier IDs.
func (nm *NotificationManager) ListNotifiers() []string {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	ids := make([]string, 0, len(nm.notifiers))
	for id := range nm.notifiers {
		ids = append(ids, id)
	}
	return ids
}

// Enqueue hands a notification to the delivery worker without blocking.
// A full queue drops the notification and logs it.
func (nm *NotificationManager) Enqueue(note RunNotification, notifierIDs []string) {
	if len(notifierIDs) == 0 {
		return
	}

	nm.mu.RLock()
	closed := nm.closed
	nm.mu.RUnlock()
	if closed {
		return
	}

	select {
	case nm.jobs <- notificationJob{note: note, notifierIDs: notifierIDs}:
	default:
		nm.logger.Warnf("notification queue full, dropping step %d of run %s", note.Step.Step, note.RunID)
	}
}

// Observer returns a step observer that forwards every step of a run to
// the listed notifiers. This is how a Simulation is wired to the manager.
func (nm *NotificationManager) Observer(runID, label, network string, notifierIDs []string) Observer {
	return func(ev StepEvent) {
		nm.Enqueue(RunNotification{
			RunID:     runID,
			Label:     label,
			Network:   network,
			Timestamp: time.Now().Unix(),
			Step:      ev,
		}, notifierIDs)
	}
}

func (nm *NotificationManager) worker() {
	defer nm.wg.Done()
	for job := range nm.jobs {
		nm.dispatch(job)
	}
}

func (nm *NotificationManager) dispatch(job notificationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, id := range job.notifierIDs {
		nm.notifyWithRetry(ctx, id, job.note)
	}
}

func (nm *NotificationManager) notifyWithRetry(ctx context.Context, id string, note RunNotification) {
	nm.mu.RLock()
	n, ok := nm.notifiers[id]
	nm.mu.RUnlock()
	if !ok {
		nm.logger.Warnf("notification failed: notifier=%s error=notifier not found", id)
		return
	}

	const maxRetries = 3
	backoff := 100 * time.Millisecond
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := n.Notify(ctx, note)
		if err == nil {
			return
		}
		nm.logger.Warnf("notification failed: notifier=%s attempt=%d error=%v", id, attempt+1, err)
		if attempt == maxRetries {
			nm.logger.Errorf("notification dropped after %d attempts: notifier=%s", maxRetries+1, id)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// Close shuts down the worker and closes every registered notifier.
func (nm *NotificationManager) Close() error {
	nm.mu.Lock()
	if nm.closed {
		nm.mu.Unlock()
		return nil
	}
	nm.closed = true
	close(nm.jobs)
	nm.mu.Unlock()

	nm.wg.Wait()

	nm.mu.Lock()
	defer nm.mu.Unlock()
	var errs []error
	for id, n := range nm.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing notifier %s: %w", id, err))
		}
	}
	nm.notifiers = make(map[string]Notifier)
	if len(errs) > 0 {
		return fmt.Errorf("errors closing notifiers: %v", errs)
	}
	return nil
}
