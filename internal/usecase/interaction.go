package usecase

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/aquamind/internal/domain"
)

// Caller identifies who is asking: the bearer token, if any, and the
// client key the rate gate counts against.
type Caller struct {
	Token     string
	ClientKey string
}

func (c Caller) gateKey() string {
	if c.ClientKey != "" {
		return c.ClientKey
	}
	if c.Token != "" {
		return "token:" + c.Token
	}
	return "anonymous"
}

// InteractionUsecase orchestrates every client-facing operation:
// admit, authenticate, mutate, publish.
type InteractionUsecase struct {
	gate   RateGate
	auth   *AuthUsecase
	posts  PostRepository
	scores ScoreRepository
	events EventPublisher
	config domain.Config
}

func NewInteractionUsecase(
	gate RateGate,
	auth *AuthUsecase,
	posts PostRepository,
	scores ScoreRepository,
	events EventPublisher,
	config domain.Config,
) *InteractionUsecase {
	return &InteractionUsecase{
		gate:   gate,
		auth:   auth,
		posts:  posts,
		scores: scores,
		events: events,
		config: config,
	}
}

func (uc *InteractionUsecase) Register(ctx context.Context, caller Caller, input RegisterInput) (Session, error) {
	if err := uc.admit(ctx, caller); err != nil {
		return Session{}, err
	}
	return uc.auth.Register(ctx, input)
}

func (uc *InteractionUsecase) Login(ctx context.Context, caller Caller, email, password string) (Session, error) {
	if err := uc.admit(ctx, caller); err != nil {
		return Session{}, err
	}
	return uc.auth.Login(ctx, email, password)
}

func (uc *InteractionUsecase) Profile(ctx context.Context, caller Caller) (domain.User, error) {
	if err := uc.admit(ctx, caller); err != nil {
		return domain.User{}, err
	}
	userID, err := uc.auth.Verify(ctx, caller.Token)
	if err != nil {
		return domain.User{}, err
	}
	return uc.auth.Profile(ctx, userID)
}

func (uc *InteractionUsecase) CreatePost(ctx context.Context, caller Caller, content string) (domain.PostSummary, error) {
	ctx, span := tracer.Start(ctx, "Interaction.Usecase.CreatePost")
	defer span.End()

	if err := uc.admit(ctx, caller); err != nil {
		return domain.PostSummary{}, err
	}
	userID, err := uc.auth.Verify(ctx, caller.Token)
	if err != nil {
		return domain.PostSummary{}, err
	}
	span.SetAttributes(attribute.String("RequesterId", userID))

	if strings.TrimSpace(content) == "" {
		return domain.PostSummary{}, domain.InvalidInputError{Field: "content", Reason: "must not be empty"}
	}
	if uc.config.MaxContentLength > 0 && utf8.RuneCountInString(content) > uc.config.MaxContentLength {
		return domain.PostSummary{}, domain.InvalidInputError{Field: "content", Reason: "too long"}
	}

	bctx, cancel := bound(ctx, uc.config.RequestTimeout)
	defer cancel()

	post, err := uc.posts.Create(bctx, userID, content)
	if err != nil {
		span.RecordError(err)
		return domain.PostSummary{}, expired(bctx, errors.Wrap(err, "InteractionUsecase.CreatePost: posts.Create failed"))
	}

	uc.publish(ctx, domain.NewPostCreatedEvent(post))
	return post, nil
}

func (uc *InteractionUsecase) ToggleLike(ctx context.Context, caller Caller, postID string) (int, error) {
	ctx, span := tracer.Start(ctx, "Interaction.Usecase.ToggleLike")
	defer span.End()

	if err := uc.admit(ctx, caller); err != nil {
		return 0, err
	}
	userID, err := uc.auth.Verify(ctx, caller.Token)
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.String("RequesterId", userID), attribute.String("PostId", postID))

	if postID == "" {
		return 0, domain.InvalidInputError{Field: "postId", Reason: "must not be empty"}
	}

	bctx, cancel := bound(ctx, uc.config.RequestTimeout)
	defer cancel()

	likes, err := uc.posts.ToggleLike(bctx, postID, userID)
	if err != nil {
		span.RecordError(err)
		return 0, expired(bctx, errors.Wrap(err, "InteractionUsecase.ToggleLike: posts.ToggleLike failed"))
	}

	uc.publish(ctx, domain.NewPostLikedEvent(postID, likes))
	return likes, nil
}

func (uc *InteractionUsecase) SubmitScore(ctx context.Context, caller Caller, score int) (domain.ScoreEntry, error) {
	ctx, span := tracer.Start(ctx, "Interaction.Usecase.SubmitScore")
	defer span.End()

	if err := uc.admit(ctx, caller); err != nil {
		return domain.ScoreEntry{}, err
	}
	userID, err := uc.auth.Verify(ctx, caller.Token)
	if err != nil {
		return domain.ScoreEntry{}, err
	}
	if score < 0 {
		return domain.ScoreEntry{}, domain.InvalidInputError{Field: "score", Reason: "must be a non-negative integer"}
	}

	bctx, cancel := bound(ctx, uc.config.RequestTimeout)
	defer cancel()

	entry, err := uc.scores.Create(bctx, userID, score)
	if err != nil {
		span.RecordError(err)
		return domain.ScoreEntry{}, expired(bctx, errors.Wrap(err, "InteractionUsecase.SubmitScore: scores.Create failed"))
	}

	uc.publish(ctx, domain.NewScoreSubmittedEvent(entry))
	return entry, nil
}

// ListPosts needs no authentication. A valid token only adds the
// caller's own like state to each summary; an invalid one is ignored.
func (uc *InteractionUsecase) ListPosts(ctx context.Context, caller Caller, limit int) ([]domain.PostSummary, error) {
	ctx, span := tracer.Start(ctx, "Interaction.Usecase.ListPosts")
	defer span.End()

	if err := uc.admit(ctx, caller); err != nil {
		return nil, err
	}

	var viewerID string
	if caller.Token != "" {
		if id, err := uc.auth.Verify(ctx, caller.Token); err == nil {
			viewerID = id
		}
	}

	bctx, cancel := bound(ctx, uc.config.RequestTimeout)
	defer cancel()

	posts, err := uc.posts.List(bctx, uc.clamp(limit, uc.config.DefaultListLimit), viewerID)
	if err != nil {
		span.RecordError(err)
		return nil, expired(bctx, errors.Wrap(err, "InteractionUsecase.ListPosts: posts.List failed"))
	}
	return posts, nil
}

func (uc *InteractionUsecase) ListTopScores(ctx context.Context, caller Caller, limit int) ([]domain.ScoreEntry, error) {
	ctx, span := tracer.Start(ctx, "Interaction.Usecase.ListTopScores")
	defer span.End()

	if err := uc.admit(ctx, caller); err != nil {
		return nil, err
	}

	bctx, cancel := bound(ctx, uc.config.RequestTimeout)
	defer cancel()

	scores, err := uc.scores.Top(bctx, uc.clamp(limit, uc.config.DefaultScoreLimit))
	if err != nil {
		span.RecordError(err)
		return nil, expired(bctx, errors.Wrap(err, "InteractionUsecase.ListTopScores: scores.Top failed"))
	}
	return scores, nil
}

// admit fails open when the gate itself is unreachable.
func (uc *InteractionUsecase) admit(ctx context.Context, caller Caller) error {
	ok, err := uc.gate.Admit(ctx, caller.gateKey())
	if err != nil {
		slog.WarnContext(
			ctx, "rate gate unavailable",
			slog.String("error", err.Error()),
			slog.String("module", "interaction"),
		)
		return nil
	}
	if !ok {
		return domain.ErrRateLimited
	}
	return nil
}

// publish never fails the caller: the mutation has already been applied.
func (uc *InteractionUsecase) publish(ctx context.Context, event domain.Event) {
	err := uc.events.Publish(context.WithoutCancel(ctx), event)
	if err != nil {
		slog.ErrorContext(
			ctx, "failed to publish event",
			slog.String("error", err.Error()),
			slog.String("type", string(event.Type)),
			slog.String("module", "interaction"),
		)
	}
}

func (uc *InteractionUsecase) clamp(limit, def int) int {
	if limit <= 0 {
		limit = def
	}
	if uc.config.MaxListLimit > 0 && limit > uc.config.MaxListLimit {
		limit = uc.config.MaxListLimit
	}
	return limit
}
