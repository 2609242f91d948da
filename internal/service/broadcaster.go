package service

import (
	"context"
	"errors"

	"github.com/totegamma/aquamind/internal/domain"
	"github.com/totegamma/aquamind/internal/usecase"
)

// Broadcaster hands every event to each sink in turn. A failing sink does
// not stop the others; all failures are returned together.
type Broadcaster struct {
	sinks []usecase.EventPublisher
}

func NewBroadcaster(sinks ...usecase.EventPublisher) *Broadcaster {
	return &Broadcaster{sinks: sinks}
}

func (b *Broadcaster) Publish(ctx context.Context, event domain.Event) error {
	var errs []error
	for _, sink := range b.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
