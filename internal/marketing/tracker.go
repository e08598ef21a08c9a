package marketing

import (
	"context"

	"github.com/drawcard/drawcard/internal/logger"
	"github.com/sourcegraph/conc"
)

// Tracker delivers marketing events. Implementations must be fire-and-forget:
// Track returns immediately and failures are logged, never propagated.
type Tracker interface {
	Track(ctx context.Context, event *Event)
	// Close flushes in-flight deliveries; call on shutdown.
	Close() error
}

// fanoutTracker delivers each event to every configured sink concurrently.
type fanoutTracker struct {
	sinks []Sink
	log   *logger.Logger
	wg    conc.WaitGroup
}

// Sink is a single delivery target (kafka topic, CRM HTTP endpoint).
type Sink interface {
	Deliver(ctx context.Context, event *Event) error
	Name() string
}

// NewTracker builds a tracker fanning out to the given sinks.
func NewTracker(log *logger.Logger, sinks ...Sink) Tracker {
	return &fanoutTracker{sinks: sinks, log: log}
}

func (t *fanoutTracker) Track(ctx context.Context, event *Event) {
	// Detach from the request context: the caller must not wait on delivery
	// and a cancelled request must not abort it.
	deliveryCtx := context.WithoutCancel(ctx)

	for _, sink := range t.sinks {
		sink := sink
		t.wg.Go(func() {
			if err := sink.Deliver(deliveryCtx, event); err != nil {
				t.log.Warnw("marketing event delivery failed",
					"sink", sink.Name(),
					"event", event.Name,
					"event_id", event.ID,
					"account_id", event.AccountID,
					"error", err,
				)
			}
		})
	}
}

func (t *fanoutTracker) Close() error {
	t.wg.Wait()
	return nil
}

// NoopTracker discards all events. Used in tests and when marketing is
// disabled.
type NoopTracker struct{}

func (NoopTracker) Track(ctx context.Context, event *Event) {}
func (NoopTracker) Close() error                            { return nil }
