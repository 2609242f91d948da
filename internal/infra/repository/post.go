package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/aquamind/internal/domain"
	"github.com/totegamma/aquamind/internal/infra/database/models"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

type postRow struct {
	ID          string
	AuthorID    string
	Content     string
	LikeCount   int
	CDate       time.Time
	DisplayName string
}

func (r *PostRepository) Create(ctx context.Context, authorID, content string) (domain.PostSummary, error) {
	if strings.TrimSpace(content) == "" {
		return domain.PostSummary{}, domain.InvalidInputError{Field: "content", Reason: "must not be empty"}
	}

	post := models.Post{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Content:  content,
		CDate:    time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&post).Error; err != nil {
		return domain.PostSummary{}, translate("post", err)
	}

	return domain.PostSummary{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Username:  displayName(ctx, r.db, authorID),
		Content:   post.Content,
		Likes:     0,
		CreatedAt: post.CDate,
	}, nil
}

// ToggleLike flips membership of userID under a row lock on the post, so
// the stored count always equals the size of the like set.
func (r *PostRepository) ToggleLike(ctx context.Context, postID, userID string) (int, error) {
	var count int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", postID).
			Take(&post).Error
		if err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}

		count = post.LikeCount - 1
		if res.RowsAffected == 0 {
			like := models.PostLike{
				PostID: postID,
				UserID: userID,
				CDate:  time.Now().UTC(),
			}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			count = post.LikeCount + 1
		}

		return tx.Model(&models.Post{}).Where("id = ?", postID).Update("like_count", count).Error
	})
	if err != nil {
		return 0, translate("post", err)
	}

	return count, nil
}

func (r *PostRepository) List(ctx context.Context, limit int, viewerID string) ([]domain.PostSummary, error) {
	var rows []postRow
	err := r.db.WithContext(ctx).
		Table("posts").
		Select("posts.id, posts.author_id, posts.content, posts.like_count, posts.c_date, users.display_name").
		Joins("LEFT JOIN users ON users.id = posts.author_id").
		Order("posts.c_date DESC").
		Order("posts.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, translate("post", err)
	}

	var liked map[string]bool
	if viewerID != "" && len(rows) > 0 {
		ids := make([]string, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
		}

		var likedIDs []string
		err := r.db.WithContext(ctx).
			Model(&models.PostLike{}).
			Where("user_id = ? AND post_id IN ?", viewerID, ids).
			Pluck("post_id", &likedIDs).Error
		if err != nil {
			return nil, translate("post", err)
		}

		liked = make(map[string]bool, len(likedIDs))
		for _, id := range likedIDs {
			liked[id] = true
		}
	}

	out := make([]domain.PostSummary, 0, len(rows))
	for _, row := range rows {
		summary := domain.PostSummary{
			ID:        row.ID,
			AuthorID:  row.AuthorID,
			Username:  row.DisplayName,
			Content:   row.Content,
			Likes:     row.LikeCount,
			CreatedAt: row.CDate,
		}
		if viewerID != "" {
			v := liked[row.ID]
			summary.LikedByViewer = &v
		}
		out = append(out, summary)
	}
	return out, nil
}
