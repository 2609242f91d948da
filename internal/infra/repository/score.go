package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/totegamma/aquamind/internal/domain"
	"github.com/totegamma/aquamind/internal/infra/database/models"
)

type ScoreRepository struct {
	db *gorm.DB
}

func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func (r *ScoreRepository) Create(ctx context.Context, userID string, score int) (domain.ScoreEntry, error) {
	if score < 0 {
		return domain.ScoreEntry{}, domain.InvalidInputError{Field: "score", Reason: "must be a non-negative integer"}
	}

	entry := models.HighScore{
		UserID: userID,
		Score:  score,
		CDate:  time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return domain.ScoreEntry{}, translate("score", err)
	}

	return domain.ScoreEntry{
		Username: displayName(ctx, r.db, userID),
		Score:    entry.Score,
		Date:     entry.CDate,
	}, nil
}

func (r *ScoreRepository) Top(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	var rows []struct {
		Score       int
		CDate       time.Time
		DisplayName string
	}
	err := r.db.WithContext(ctx).
		Table("high_scores").
		Select("high_scores.score, high_scores.c_date, users.display_name").
		Joins("LEFT JOIN users ON users.id = high_scores.user_id").
		Order("high_scores.score DESC").
		Order("high_scores.c_date ASC").
		Order("high_scores.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, translate("score", err)
	}

	out := make([]domain.ScoreEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ScoreEntry{
			Username: row.DisplayName,
			Score:    row.Score,
			Date:     row.CDate,
		})
	}
	return out, nil
}
