package webhook

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultEventTimeout bounds a single downstream action
const DefaultEventTimeout = 10 * time.Second

// Action performs the downstream work for one event
type Action func(ctx context.Context, event Event) error

// DispatchReport summarizes one batch
type DispatchReport struct {
	Total      int
	Dispatched int
	Skipped    int // events of a kind with no registered action
	Failed     int
	Err        error // every *DispatchError, combined with multierr
}

// Failures returns the individual dispatch errors in event order
func (r DispatchReport) Failures() []error {
	return multierr.Errors(r.Err)
}

// Dispatcher routes events to the action registered for their kind.
// Actions must be registered before the first Dispatch call.
type Dispatcher struct {
	actions map[string]Action
	timeout time.Duration
	logger  *zap.Logger
}

// NewDispatcher creates a Dispatcher. A non-positive timeout falls back to
// DefaultEventTimeout.
func NewDispatcher(timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultEventTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		actions: make(map[string]Action),
		timeout: timeout,
		logger:  logger,
	}
}

// Register binds an action to an event kind, replacing any previous one
func (d *Dispatcher) Register(kind string, action Action) {
	d.actions[kind] = action
}

// Kinds returns the number of registered event kinds
func (d *Dispatcher) Kinds() int {
	return len(d.actions)
}

// Dispatch runs the action for each event in order. Each action gets its
// own deadline; a failure, panic or timeout is recorded and the next event
// is processed regardless.
func (d *Dispatcher) Dispatch(ctx context.Context, events []Event) DispatchReport {
	report := DispatchReport{Total: len(events)}

	for i, event := range events {
		action, ok := d.actions[event.Type]
		if !ok {
			report.Skipped++
			d.logger.Debug("no action for webhook event kind",
				zap.Int("index", i),
				zap.String("kind", event.Type))
			continue
		}

		if err := d.run(ctx, action, event); err != nil {
			report.Failed++
			report.Err = multierr.Append(report.Err, &DispatchError{
				Index:      i,
				Kind:       event.Type,
				DocumentID: event.DocumentID(),
				Err:        err,
			})
			continue
		}
		report.Dispatched++
	}

	return report
}

// run waits for the action or its deadline, whichever comes first. An
// action that ignores its context keeps running in the background but no
// longer holds up the batch.
func (d *Dispatcher) run(ctx context.Context, action Action, event Event) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("action panicked: %v", r)
			}
		}()
		done <- action(ctx, event)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrDispatchTimeout, ctx.Err())
	}
}
