// Package client talks to an aquamind server over HTTP and the realtime
// websocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/patrickmn/go-cache"

	"github.com/totegamma/aquamind/internal/domain"
	"github.com/totegamma/aquamind/internal/usecase"
)

const (
	defaultTimeout    = 3 * time.Second
	heartbeatInterval = 15 * time.Second
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("aquamind: %d %s", e.Status, e.Message)
}

type Client struct {
	client    *http.Client
	cache     *cache.Cache
	userAgent string
	baseURL   string

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:    &httpClient,
		cache:     cache.New(10*time.Minute, 15*time.Minute),
		userAgent: "aquamind-client",
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) HttpRequest(ctx context.Context, method, path string, body, response any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&failure)
		return &APIError{Status: resp.StatusCode, Message: failure.Error}
	}

	if response == nil {
		return nil
	}
	err = json.NewDecoder(resp.Body).Decode(response)
	if err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}
	return nil
}

// Register creates an account and keeps the returned token for later calls.
func (c *Client) Register(ctx context.Context, email, username, password string) (usecase.Session, error) {
	var session usecase.Session
	err := c.HttpRequest(ctx, http.MethodPost, "/api/register", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}, &session)
	if err != nil {
		return usecase.Session{}, err
	}
	c.SetToken(session.Token)
	return session, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (usecase.Session, error) {
	var session usecase.Session
	err := c.HttpRequest(ctx, http.MethodPost, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	if err != nil {
		return usecase.Session{}, err
	}
	c.SetToken(session.Token)
	return session, nil
}

// Profile is cached per token; accounts do not change after registration.
func (c *Client) Profile(ctx context.Context) (domain.User, error) {
	cacheKey := "profile:" + c.Token()
	if x, found := c.cache.Get(cacheKey); found {
		return x.(domain.User), nil
	}

	var user domain.User
	if err := c.HttpRequest(ctx, http.MethodGet, "/api/profile", nil, &user); err != nil {
		return domain.User{}, err
	}

	c.cache.Set(cacheKey, user, cache.DefaultExpiration)
	return user, nil
}

func (c *Client) CreatePost(ctx context.Context, content string) (domain.PostSummary, error) {
	var post domain.PostSummary
	err := c.HttpRequest(ctx, http.MethodPost, "/api/community-posts", map[string]string{"content": content}, &post)
	return post, err
}

func (c *Client) ListPosts(ctx context.Context, limit int) ([]domain.PostSummary, error) {
	var posts []domain.PostSummary
	err := c.HttpRequest(ctx, http.MethodGet, "/api/community-posts"+limitQuery(limit), nil, &posts)
	return posts, err
}

// ToggleLike returns the post's like count after the toggle.
func (c *Client) ToggleLike(ctx context.Context, postID string) (int, error) {
	var change domain.LikeChange
	err := c.HttpRequest(ctx, http.MethodPost, "/api/community-posts/"+url.PathEscape(postID)+"/like", nil, &change)
	return change.Likes, err
}

func (c *Client) SubmitScore(ctx context.Context, score int) (domain.ScoreEntry, error) {
	var entry domain.ScoreEntry
	err := c.HttpRequest(ctx, http.MethodPost, "/api/high-scores", map[string]int{"score": score}, &entry)
	return entry, err
}

func (c *Client) TopScores(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	var scores []domain.ScoreEntry
	err := c.HttpRequest(ctx, http.MethodGet, "/api/high-scores"+limitQuery(limit), nil, &scores)
	return scores, err
}

func limitQuery(limit int) string {
	if limit <= 0 {
		return ""
	}
	return "?limit=" + strconv.Itoa(limit)
}

// Subscribe opens the realtime channel and calls fn for every event until
// ctx is done, the connection drops or fn returns an error. ready, when not
// nil, is closed once the socket is open.
func (c *Client) Subscribe(ctx context.Context, ready chan<- struct{}, fn func(domain.Event) error) error {
	endpoint, err := url.Parse(c.baseURL + "/api/realtime")
	if err != nil {
		return err
	}
	switch endpoint.Scheme {
	case "https":
		endpoint.Scheme = "wss"
	default:
		endpoint.Scheme = "ws"
	}

	header := http.Header{}
	header.Set("User-Agent", c.userAgent)
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), header)
	if err != nil {
		return fmt.Errorf("failed to dial realtime: %v", err)
	}
	defer ws.Close()

	if ready != nil {
		close(ready)
	}

	stop := make(chan struct{})
	defer close(stop)

	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				ws.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second),
				)
				ws.Close()
				return
			case <-ticker.C:
				if err := ws.WriteJSON(map[string]string{"type": "h"}); err != nil {
					return
				}
			}
		}
	}()

	for {
		var event domain.Event
		if err := ws.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}
