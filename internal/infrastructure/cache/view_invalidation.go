package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/kouden/backend/internal/domain/kouden"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultInvalidationChannel is the Pub/Sub channel view invalidations travel on
	DefaultInvalidationChannel = "kouden:view-invalidation"
	// DefaultSummaryTTL bounds how stale a cached summary list may get
	DefaultSummaryTTL = 5 * time.Minute

	defaultCloseTimeout   = 5 * time.Second
	defaultPublishTimeout = 2 * time.Second
)

// InvalidationMessage is the payload published for every invalidated view
type InvalidationMessage struct {
	Key       string `json:"key"`
	Timestamp int64  `json:"timestamp"`
}

// RedisViewInvalidator publishes view invalidation keys over Redis Pub/Sub
// and lets other instances subscribe to them.
type RedisViewInvalidator struct {
	client   *redis.Client
	channel  string
	logger   *zap.Logger
	inflight sync.WaitGroup

	mu        sync.Mutex
	cancelFn  context.CancelFunc
	doneCh    chan struct{}
	doneOnce  sync.Once
	isRunning bool
}

// RedisViewInvalidatorOption is a functional option for the invalidator
type RedisViewInvalidatorOption func(*RedisViewInvalidator)

// WithInvalidatorChannel sets the Pub/Sub channel name
func WithInvalidatorChannel(channel string) RedisViewInvalidatorOption {
	return func(i *RedisViewInvalidator) {
		if channel != "" {
			i.channel = channel
		}
	}
}

// WithInvalidatorLogger sets the logger for the invalidator
func WithInvalidatorLogger(logger *zap.Logger) RedisViewInvalidatorOption {
	return func(i *RedisViewInvalidator) {
		i.logger = logger
	}
}

// NewRedisViewInvalidator creates an invalidator on an existing client.
// The caller retains ownership of the client.
func NewRedisViewInvalidator(client *redis.Client, opts ...RedisViewInvalidatorOption) *RedisViewInvalidator {
	i := &RedisViewInvalidator{
		client:  client,
		channel: DefaultInvalidationChannel,
		logger:  zap.NewNop(),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Invalidate publishes key in the background. Delivery failures are logged.
func (i *RedisViewInvalidator) Invalidate(ctx context.Context, key string) {
	i.inflight.Add(1)
	go func() {
		defer i.inflight.Done()
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultPublishTimeout)
		defer cancel()
		if err := i.Publish(pubCtx, key); err != nil {
			i.logger.Warn("View invalidation not delivered",
				zap.String("key", key), zap.Error(err))
		}
	}()
}

// Publish sends one invalidation message and waits for Redis to accept it
func (i *RedisViewInvalidator) Publish(ctx context.Context, key string) error {
	data, err := json.Marshal(InvalidationMessage{Key: key, Timestamp: time.Now().UnixNano()})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := i.client.Publish(ctx, i.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	i.logger.Debug("Published view invalidation",
		zap.String("key", key), zap.String("channel", i.channel))
	return nil
}

// Subscribe delivers every received key to callback until ctx is done or
// Close is called. It blocks; run it in a goroutine.
func (i *RedisViewInvalidator) Subscribe(ctx context.Context, callback func(key string)) error {
	i.mu.Lock()
	if i.isRunning {
		i.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	i.isRunning = true
	subCtx, cancel := context.WithCancel(ctx)
	i.cancelFn = cancel
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.isRunning = false
		i.mu.Unlock()
		i.markDone()
	}()

	pubsub := i.client.Subscribe(subCtx, i.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}
	i.logger.Info("Subscribed to view invalidation channel", zap.String("channel", i.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			i.logger.Info("View invalidation subscription stopped")
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				i.logger.Warn("View invalidation channel closed")
				return nil
			}
			key, err := DecodeInvalidation(msg.Payload)
			if err != nil {
				i.logger.Error("Failed to decode view invalidation",
					zap.String("payload", msg.Payload), zap.Error(err))
				continue
			}
			i.dispatch(callback, key)
		}
	}
}

func (i *RedisViewInvalidator) dispatch(callback func(string), key string) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Error("Panic in view invalidation callback",
				zap.String("key", key), zap.Any("panic", r))
		}
	}()
	callback(key)
}

// DecodeInvalidation extracts the key from a published payload
func DecodeInvalidation(payload string) (string, error) {
	var msg InvalidationMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return "", err
	}
	if msg.Key == "" {
		return "", fmt.Errorf("invalidation message without key")
	}
	return msg.Key, nil
}

func (i *RedisViewInvalidator) markDone() {
	i.doneOnce.Do(func() {
		close(i.doneCh)
	})
}

// Close stops the subscription and waits for pending publishes
func (i *RedisViewInvalidator) Close() error {
	i.mu.Lock()
	cancelFn := i.cancelFn
	i.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-i.doneCh:
		case <-time.After(defaultCloseTimeout):
			i.logger.Warn("Timeout waiting for subscription to stop")
		}
	}
	i.inflight.Wait()
	return nil
}

var _ kouden.ViewCacheInvalidator = (*RedisViewInvalidator)(nil)
