package realtime

import (
	"context"
	"fmt"
	"sync"
)

// Snapshot is one delivery of a live query: the complete current result
// set, or the error that prevented loading it.
type Snapshot[T any] struct {
	Items []T
	Err   error
}

// Loader runs the query behind a subscription.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Subscription streams snapshots of a query, reloading it whenever one of
// its topics is notified. Consumers replace their whole view with each
// snapshot; when a consumer falls behind it only ever sees the latest.
type Subscription[T any] struct {
	snapshots chan Snapshot[T]
	listener  Listener
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once
}

// Watch opens a listener on topics and starts delivering snapshots,
// beginning with the current state. The subscription ends when ctx is
// done or Close is called; either way the snapshot channel is closed.
func Watch[T any](ctx context.Context, bus Bus, load Loader[T], topics ...string) (*Subscription[T], error) {
	listener, err := bus.Listen(ctx, topics...)
	if err != nil {
		return nil, fmt.Errorf("listen %v: %w", topics, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription[T]{
		snapshots: make(chan Snapshot[T], 1),
		listener:  listener,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go s.run(ctx, load)
	return s, nil
}

func (s *Subscription[T]) run(ctx context.Context, load Loader[T]) {
	defer close(s.done)
	defer close(s.snapshots)
	defer s.listener.Close()

	for {
		items, err := load(ctx)
		if ctx.Err() != nil {
			return
		}
		s.deliver(Snapshot[T]{Items: items, Err: err})

		select {
		case <-ctx.Done():
			return
		case <-s.listener.C():
		}
	}
}

// deliver replaces an undelivered snapshot with snap. run is the only
// sender, so after the drain the send cannot block.
func (s *Subscription[T]) deliver(snap Snapshot[T]) {
	select {
	case <-s.snapshots:
	default:
	}
	s.snapshots <- snap
}

// Snapshots returns the delivery channel. It is closed when the
// subscription ends.
func (s *Subscription[T]) Snapshots() <-chan Snapshot[T] {
	return s.snapshots
}

// Close stops the subscription and waits for its listener to be
// released. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}
