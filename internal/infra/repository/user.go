package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/totegamma/aquamind/internal/domain"
	"github.com/totegamma/aquamind/internal/infra/database/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	model := models.User{
		ID:           uuid.NewString(),
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: user.PasswordHash,
		CDate:        time.Now().UTC(),
	}

	err := r.db.WithContext(ctx).Create(&model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.User{}, domain.ErrDuplicateEmail
	}
	if err != nil {
		return domain.User{}, translate("user", err)
	}
	return userFromModel(model), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var model models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).Take(&model).Error
	if err != nil {
		return domain.User{}, translate("user", err)
	}
	return userFromModel(model), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	var model models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error
	if err != nil {
		return domain.User{}, translate("user", err)
	}
	return userFromModel(model), nil
}

func userFromModel(m models.User) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		DisplayName:  m.DisplayName,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CDate,
	}
}

// displayName resolves the name shown next to a post or score. The row it
// decorates is already stored, so a failed lookup is logged and yields "".
func displayName(ctx context.Context, db *gorm.DB, userID string) string {
	var user models.User
	err := db.WithContext(ctx).Select("display_name").Where("id = ?", userID).Take(&user).Error
	if err != nil {
		slog.WarnContext(
			ctx, "display name lookup failed",
			slog.String("error", err.Error()),
			slog.String("userID", userID),
			slog.String("module", "repository"),
		)
		return ""
	}
	return user.DisplayName
}
