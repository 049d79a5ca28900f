package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "tokenscope/pkg/platform/audit"
)

// Publisher stores audit events and forwards them to optional sinks.
//
// In sync mode Emit returns the store error. In async mode Emit enqueues and
// a single worker goroutine persists events in order; Close drains the queue.
// Sink failures are logged, never returned: the store is the record of truth.
type Publisher struct {
	store  audit.Store
	sinks  []audit.Sink
	logger *slog.Logger

	queue     chan audit.Event
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with a queue of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.queue = make(chan audit.Event, n)
		}
	}
}

func WithSink(sink audit.Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit records an event, filling in the timestamp and category when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if p.queue != nil {
		select {
		case p.queue <- event:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.persist(ctx, event)
}

func (p *Publisher) List(ctx context.Context, subject string) ([]audit.Event, error) {
	return p.store.ListBySubject(ctx, subject)
}

// Close stops the async worker after draining queued events.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.queue != nil {
			close(p.queue)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.queue {
		if err := p.persist(context.Background(), event); err != nil {
			p.logger.Error("failed to persist audit event",
				"action", event.Action,
				"subject", event.Subject,
				"error", err,
			)
		}
	}
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range p.sinks {
		if err := sink.Send(ctx, event); err != nil {
			p.logger.WarnContext(ctx, "audit sink failed",
				"action", event.Action,
				"subject", event.Subject,
				"error", err,
			)
		}
	}
	return nil
}
