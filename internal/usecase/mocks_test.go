package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/totegamma/aquamind/internal/domain"
)

type mockUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]domain.User
	block   bool
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byEmail: map[string]domain.User{}}
}

func (m *mockUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	if m.block {
		<-ctx.Done()
		return domain.User{}, ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return domain.User{}, domain.ErrDuplicateEmail
	}
	u.ID = fmt.Sprintf("user-%d", len(m.byEmail)+1)
	u.CreatedAt = time.Now()
	m.byEmail[u.Email] = u
	return u, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return domain.User{}, domain.NotFoundError{Resource: "user"}
	}
	return u, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.NotFoundError{Resource: "user"}
}

// mockTokens issues "tok:<id>" and rejects anything else.
type mockTokens struct {
	verified int
}

func (m *mockTokens) Issue(userID string, ttl time.Duration) (string, error) {
	return "tok:" + userID, nil
}

func (m *mockTokens) Verify(token string) (string, error) {
	m.verified++
	if !strings.HasPrefix(token, "tok:") {
		return "", domain.ErrInvalidToken
	}
	return strings.TrimPrefix(token, "tok:"), nil
}

type mockGate struct {
	deny  bool
	err   error
	calls []string
}

func (m *mockGate) Admit(ctx context.Context, key string) (bool, error) {
	m.calls = append(m.calls, key)
	if m.err != nil {
		return false, m.err
	}
	return !m.deny, nil
}

type mockPostRepo struct {
	created []domain.PostSummary
	toggled []string
	likes   map[string]int
	viewer  string
	limit   int
	err     error
}

func (m *mockPostRepo) Create(ctx context.Context, authorID, content string) (domain.PostSummary, error) {
	if m.err != nil {
		return domain.PostSummary{}, m.err
	}
	p := domain.PostSummary{
		ID:        fmt.Sprintf("post-%d", len(m.created)+1),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	m.created = append(m.created, p)
	return p, nil
}

func (m *mockPostRepo) ToggleLike(ctx context.Context, postID, userID string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.toggled = append(m.toggled, postID+"/"+userID)
	n, ok := m.likes[postID]
	if !ok {
		return 0, domain.NotFoundError{Resource: "post"}
	}
	m.likes[postID] = n + 1
	return n + 1, nil
}

func (m *mockPostRepo) List(ctx context.Context, limit int, viewerID string) ([]domain.PostSummary, error) {
	m.limit = limit
	m.viewer = viewerID
	return m.created, m.err
}

type mockScoreRepo struct {
	entries []domain.ScoreEntry
	limit   int
}

func (m *mockScoreRepo) Create(ctx context.Context, userID string, score int) (domain.ScoreEntry, error) {
	e := domain.ScoreEntry{Username: userID, Score: score, Date: time.Now()}
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *mockScoreRepo) Top(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	m.limit = limit
	return m.entries, nil
}

type recordingPublisher struct {
	events []domain.Event
	err    error
}

func (m *recordingPublisher) Publish(ctx context.Context, event domain.Event) error {
	m.events = append(m.events, event)
	return m.err
}

var testConfig = domain.Config{
	TokenTTL:          time.Hour,
	MinPasswordLength: 6,
	RequestTimeout:    time.Second,
	DefaultListLimit:  20,
	MaxListLimit:      100,
	DefaultScoreLimit: 10,
	MaxContentLength:  280,
}
