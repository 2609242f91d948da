package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/totegamma/aquamind/internal/domain"
	"github.com/totegamma/aquamind/internal/usecase"
)

const DefaultSignalChannel = "aquamind:events"

var errSubscriptionClosed = errors.New("subscription channel closed")

// SignalService relays events between server instances over redis
// pub/sub. Publish sends to redis; Run feeds what arrives from redis,
// including this instance's own events, into the local publisher.
type SignalService struct {
	rdb     *redis.Client
	channel string
	local   usecase.EventPublisher

	ready     chan struct{}
	readyOnce sync.Once

	retryMin time.Duration
	retryMax time.Duration
}

func NewSignalService(redisClient *redis.Client, channel string, local usecase.EventPublisher) *SignalService {
	if channel == "" {
		channel = DefaultSignalChannel
	}
	return &SignalService{
		rdb:     redisClient,
		channel: channel,
		local:   local,
		ready:   make(chan struct{}),

		retryMin: 250 * time.Millisecond,
		retryMax: 10 * time.Second,
	}
}

func (s *SignalService) Publish(ctx context.Context, event domain.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, s.channel, jsonstr).Err()
	if err != nil {
		return err

	}

	return nil
}

// Ready is closed once the first subscription is confirmed by redis.
func (s *SignalService) Ready() <-chan struct{} {
	return s.ready
}

// Run relays until ctx is cancelled. A failed or broken subscription is
// retried with exponential backoff, so redis being down at startup only
// delays delivery.
func (s *SignalService) Run(ctx context.Context) error {
	backoff := s.retryMin
	for {
		subscribed, err := s.relay(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if subscribed {
			backoff = s.retryMin
		}

		slog.WarnContext(
			ctx, "Signal subscription lost, retrying",
			slog.String("error", err.Error()),
			slog.Duration("backoff", backoff),
			slog.String("module", "signal"),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		backoff *= 2
		if backoff > s.retryMax {
			backoff = s.retryMax
		}
	}
}

func (s *SignalService) relay(ctx context.Context) (bool, error) {
	sub := s.rdb.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return false, err
	}
	s.readyOnce.Do(func() { close(s.ready) })

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return true, errSubscriptionClosed
			}

			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.ErrorContext(
					ctx, "Malformed event on signal channel",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}

			if err := s.local.Publish(ctx, event); err != nil {
				slog.ErrorContext(
					ctx, "Failed to relay event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
			}
		}
	}
}
