package usecase

import (
	"context"
	"time"

	"github.com/totegamma/aquamind/internal/domain"
)

// UserRepository defines persistence/lookup for accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
}

// PostRepository owns posts and their like-sets. Create and ToggleLike
// must be atomic with respect to concurrent callers.
type PostRepository interface {
	Create(ctx context.Context, authorID, content string) (domain.PostSummary, error)
	ToggleLike(ctx context.Context, postID, userID string) (int, error)
	// List returns up to limit posts newest first. When viewerID is not
	// empty each summary carries LikedByViewer.
	List(ctx context.Context, limit int, viewerID string) ([]domain.PostSummary, error)
}

// ScoreRepository stores scoreboard entries.
type ScoreRepository interface {
	Create(ctx context.Context, userID string, score int) (domain.ScoreEntry, error)
	Top(ctx context.Context, limit int) ([]domain.ScoreEntry, error)
}

// RateGate bounds request volume per client key.
type RateGate interface {
	Admit(ctx context.Context, key string) (bool, error)
}

// EventPublisher delivers change events to observers, best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// TokenIssuer signs and verifies stateless session tokens.
type TokenIssuer interface {
	Issue(userID string, ttl time.Duration) (string, error)
	Verify(token string) (string, error)
}
