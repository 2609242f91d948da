package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"github.com/totegamma/aquamind/internal/domain"
)

const shardCount = 32

// UserLookup resolves author display names.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
}

type entry struct {
	mu   sync.Mutex
	post domain.Post
}

type shard struct {
	mu    sync.RWMutex
	posts map[string]*entry
}

type PostStore struct {
	shards [shardCount]shard

	orderMu sync.RWMutex
	order   []*entry // creation order
	last    time.Time

	users UserLookup
}

func NewPostStore(users UserLookup) *PostStore {
	s := &PostStore{users: users}
	for i := range s.shards {
		s.shards[i].posts = map[string]*entry{}
	}
	return s
}

func (s *PostStore) shardFor(id string) *shard {
	return &s.shards[xxh3.HashString(id)%shardCount]
}

func (s *PostStore) Create(ctx context.Context, authorID, content string) (domain.PostSummary, error) {
	if err := ctx.Err(); err != nil {
		return domain.PostSummary{}, err
	}
	if strings.TrimSpace(content) == "" {
		return domain.PostSummary{}, domain.InvalidInputError{Field: "content", Reason: "must not be empty"}
	}

	e := &entry{post: domain.Post{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Content:  content,
		Likes:    domain.LikeSet{},
	}}

	s.orderMu.Lock()
	now := time.Now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Nanosecond)
	}
	s.last = now
	e.post.CreatedAt = now
	s.order = append(s.order, e)
	s.orderMu.Unlock()

	sh := s.shardFor(e.post.ID)
	sh.mu.Lock()
	sh.posts[e.post.ID] = e
	sh.mu.Unlock()

	return domain.PostSummary{
		ID:        e.post.ID,
		AuthorID:  authorID,
		Username:  s.username(ctx, authorID, nil),
		Content:   content,
		Likes:     0,
		CreatedAt: now,
	}, nil
}

func (s *PostStore) ToggleLike(ctx context.Context, postID, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	sh := s.shardFor(postID)
	sh.mu.RLock()
	e, ok := sh.posts[postID]
	sh.mu.RUnlock()
	if !ok {
		return 0, domain.NotFoundError{Resource: "post"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.post.Likes.Toggle(userID)
	return e.post.Likes.Len(), nil
}

func (s *PostStore) List(ctx context.Context, limit int, viewerID string) ([]domain.PostSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.orderMu.RLock()
	n := len(s.order)
	if limit > n {
		limit = n
	}
	if limit < 0 {
		limit = 0
	}
	picked := make([]*entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		picked = append(picked, s.order[i])
	}
	s.orderMu.RUnlock()

	names := map[string]string{}
	out := make([]domain.PostSummary, 0, len(picked))
	for _, e := range picked {
		e.mu.Lock()
		summary := domain.PostSummary{
			ID:        e.post.ID,
			AuthorID:  e.post.AuthorID,
			Content:   e.post.Content,
			Likes:     e.post.Likes.Len(),
			CreatedAt: e.post.CreatedAt,
		}
		if viewerID != "" {
			liked := e.post.Likes.Has(viewerID)
			summary.LikedByViewer = &liked
		}
		e.mu.Unlock()

		summary.Username = s.username(ctx, summary.AuthorID, names)
		out = append(out, summary)
	}
	return out, nil
}

// Len returns the number of stored posts.
func (s *PostStore) Len() int {
	s.orderMu.RLock()
	defer s.orderMu.RUnlock()
	return len(s.order)
}

func (s *PostStore) username(ctx context.Context, id string, memo map[string]string) string {
	if name, ok := memo[id]; ok {
		return name
	}
	var name string
	if s.users != nil {
		if user, err := s.users.GetByID(ctx, id); err == nil {
			name = user.DisplayName
		}
	}
	if memo != nil {
		memo[id] = name
	}
	return name
}
