package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/totegamma/aquamind/internal/domain"
)

type scoreRow struct {
	userID string
	score  int
	date   time.Time
}

type ScoreStore struct {
	mu    sync.RWMutex
	rows  []scoreRow
	users UserLookup
}

func NewScoreStore(users UserLookup) *ScoreStore {
	return &ScoreStore{users: users}
}

func (s *ScoreStore) Create(ctx context.Context, userID string, score int) (domain.ScoreEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.ScoreEntry{}, err
	}
	if score < 0 {
		return domain.ScoreEntry{}, domain.InvalidInputError{Field: "score", Reason: "must be a non-negative integer"}
	}

	row := scoreRow{userID: userID, score: score, date: time.Now().UTC()}
	s.mu.Lock()
	s.rows = append(s.rows, row)
	s.mu.Unlock()

	return domain.ScoreEntry{
		Username: s.username(ctx, userID),
		Score:    score,
		Date:     row.date,
	}, nil
}

// Top orders by score descending; earlier submissions win ties.
func (s *ScoreStore) Top(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	rows := make([]scoreRow, len(s.rows))
	copy(rows, s.rows)
	s.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].score > rows[j].score
	})
	if limit >= 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	out := make([]domain.ScoreEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.ScoreEntry{
			Username: s.username(ctx, r.userID),
			Score:    r.score,
			Date:     r.date,
		})
	}
	return out, nil
}

func (s *ScoreStore) username(ctx context.Context, id string) string {
	if s.users == nil {
		return ""
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	return user.DisplayName
}
