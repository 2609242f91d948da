package usecase

import (
	"context"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"

	"github.com/totegamma/aquamind/internal/domain"
)

var tracer = otel.Tracer("usecase")

// RegisterInput is the unvalidated registration request.
type RegisterInput struct {
	Email       string
	DisplayName string
	Password    string
}

// Session is what a client receives after register or login.
type Session struct {
	Token       string    `json:"token"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"username"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

const maxPasswordBytes = 72

type AuthUsecase struct {
	users    UserRepository
	tokens   TokenIssuer
	config   domain.Config
	hashCost int
	// compared against on unknown emails so both failure paths cost a hash
	dummyHash []byte
}

type AuthOption func(*AuthUsecase)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) AuthOption {
	return func(uc *AuthUsecase) {
		uc.hashCost = cost
	}
}

func NewAuthUsecase(users UserRepository, tokens TokenIssuer, config domain.Config, opts ...AuthOption) *AuthUsecase {
	uc := &AuthUsecase{
		users:    users,
		tokens:   tokens,
		config:   config,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(uc)
	}
	uc.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("aquamind-dummy-password"), uc.hashCost)
	return uc
}

func (uc *AuthUsecase) Register(ctx context.Context, input RegisterInput) (Session, error) {
	ctx, span := tracer.Start(ctx, "Auth.Usecase.Register")
	defer span.End()

	email, err := normalizeEmail(input.Email)
	if err != nil {
		return Session{}, err
	}
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return Session{}, domain.InvalidInputError{Field: "username", Reason: "must not be empty"}
	}
	if len(input.Password) < uc.config.MinPasswordLength {
		return Session{}, domain.InvalidInputError{
			Field:  "password",
			Reason: "must be at least " + strconv.Itoa(uc.config.MinPasswordLength) + " characters",
		}
	}
	// bcrypt only reads the first 72 bytes
	if len(input.Password) > maxPasswordBytes {
		return Session{}, domain.InvalidInputError{
			Field:  "password",
			Reason: "must be at most " + strconv.Itoa(maxPasswordBytes) + " bytes",
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), uc.hashCost)
	if err != nil {
		span.RecordError(err)
		return Session{}, errors.Wrap(err, "hash password")
	}

	ctx, cancel := bound(ctx, uc.config.RequestTimeout)
	defer cancel()

	user, err := uc.users.Create(ctx, domain.User{
		Email:        email,
		DisplayName:  name,
		PasswordHash: string(hash),
	})
	if err != nil {
		span.RecordError(err)
		return Session{}, expired(ctx, errors.Wrap(err, "AuthUsecase.Register: users.Create failed"))
	}

	return uc.session(user)
}

func (uc *AuthUsecase) Login(ctx context.Context, email, password string) (Session, error) {
	ctx, span := tracer.Start(ctx, "Auth.Usecase.Login")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, domain.InvalidInputError{Field: "credentials", Reason: "email and password are required"}
	}

	ctx, cancel := bound(ctx, uc.config.RequestTimeout)
	defer cancel()

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(uc.dummyHash, []byte(password))
			return Session{}, domain.ErrInvalidCredentials
		}
		span.RecordError(err)
		return Session{}, expired(ctx, errors.Wrap(err, "AuthUsecase.Login: users.GetByEmail failed"))
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, domain.ErrInvalidCredentials
	}

	return uc.session(user)
}

// Verify resolves a token to a user id without touching storage.
func (uc *AuthUsecase) Verify(ctx context.Context, token string) (string, error) {
	_, span := tracer.Start(ctx, "Auth.Usecase.Verify")
	defer span.End()

	if token == "" {
		return "", errors.Wrap(domain.ErrInvalidToken, "missing token")
	}
	userID, err := uc.tokens.Verify(token)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return userID, nil
}

// Profile loads the account behind a verified identity.
func (uc *AuthUsecase) Profile(ctx context.Context, userID string) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "Auth.Usecase.Profile")
	defer span.End()

	ctx, cancel := bound(ctx, uc.config.RequestTimeout)
	defer cancel()

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, expired(ctx, err)
	}
	return user, nil
}

func (uc *AuthUsecase) session(user domain.User) (Session, error) {
	token, err := uc.tokens.Issue(user.ID, uc.config.TokenTTL)
	if err != nil {
		return Session{}, errors.Wrap(err, "issue token")
	}
	return Session{
		Token:       token,
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		ExpiresAt:   time.Now().Add(uc.config.TokenTTL).UTC(),
	}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.InvalidInputError{Field: "email", Reason: "malformed address"}
	}
	return email, nil
}
