package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/totegamma/aquamind/internal/domain"
)

// bound applies the request-level timeout, if one is configured.
func bound(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// expired maps an exceeded deadline onto the Timeout kind. Errors that
// already carry a kind are returned untouched.
func expired(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrTimeout) || errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return err
}
