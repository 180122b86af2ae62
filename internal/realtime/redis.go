package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "questboard:"

// RedisBus publishes notifications over Redis pub/sub so every API
// instance's streams see writes made through any other instance.
type RedisBus struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBus connects to redisURL ("redis://host:6379/0") and pings it.
func NewRedisBus(ctx context.Context, redisURL string, logger *zap.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("redis connection established", zap.String("addr", opts.Addr))
	return &RedisBus{client: client, logger: logger}, nil
}

func (b *RedisBus) Publish(ctx context.Context, topics ...string) error {
	if len(topics) == 0 {
		return nil
	}
	pipe := b.client.Pipeline()
	for _, topic := range topics {
		pipe.Publish(ctx, channelPrefix+topic, "")
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Listen subscribes to every topic and returns once Redis has confirmed
// each channel, so nothing published after Listen returns can be missed.
// A notification that arrives while confirmations are still coming in is
// delivered as soon as the listener starts.
func (b *RedisBus) Listen(ctx context.Context, topics ...string) (Listener, error) {
	channels := make([]string, len(topics))
	for i, topic := range topics {
		channels[i] = channelPrefix + topic
	}

	pubsub := b.client.Subscribe(ctx, channels...)

	// Redis answers a multi-channel SUBSCRIBE with one confirmation per
	// channel, and messages for already-confirmed channels may interleave.
	pending := false
	for confirmed := 0; confirmed < len(channels); {
		msg, err := pubsub.Receive(ctx)
		if err != nil {
			_ = pubsub.Close()
			return nil, fmt.Errorf("subscribe: %w", err)
		}
		switch msg.(type) {
		case *redis.Subscription:
			confirmed++
		case *redis.Message:
			pending = true
		}
	}

	l := &redisListener{
		pubsub: pubsub,
		ch:     make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if pending {
		notify(l.ch)
	}
	go l.forward()
	return l, nil
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}

func (b *RedisBus) Health(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

type redisListener struct {
	pubsub *redis.PubSub
	ch     chan struct{}
	done   chan struct{}
	once   sync.Once
}

// forward coalesces Redis messages into the notification channel until
// the pubsub is closed.
func (l *redisListener) forward() {
	defer close(l.done)
	for range l.pubsub.Channel() {
		notify(l.ch)
	}
}

func (l *redisListener) C() <-chan struct{} {
	return l.ch
}

func (l *redisListener) Close() error {
	var err error
	l.once.Do(func() {
		err = l.pubsub.Close()
		<-l.done
	})
	return err
}
