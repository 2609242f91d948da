package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/totegamma/aquamind/internal/config"
	"github.com/totegamma/aquamind/internal/domain"
	"github.com/totegamma/aquamind/internal/infra/memory"
	"github.com/totegamma/aquamind/internal/infra/ratelimit"
	"github.com/totegamma/aquamind/internal/service"
	"github.com/totegamma/aquamind/internal/usecase"
)

type testEnv struct {
	e   *echo.Echo
	hub *service.Hub
}

func newTestEnv(t *testing.T, maxRequests int) *testEnv {
	t.Helper()

	conf := config.Default()
	conf.Hub.PingInterval = time.Second

	users := memory.NewUserStore()
	hub := service.NewHub(conf.Hub.QueueSize)
	t.Cleanup(hub.Close)

	auth := usecase.NewAuthUsecase(users, service.NewTokenService("test-secret"), conf.Domain(), usecase.WithHashCost(bcrypt.MinCost))
	interaction := usecase.NewInteractionUsecase(
		ratelimit.NewWindowGate(time.Minute, maxRequests),
		auth,
		memory.NewPostStore(users),
		memory.NewScoreStore(users),
		hub,
		conf.Domain(),
	)

	return &testEnv{
		e:   NewServer(NewHandler(interaction, hub, conf.Hub), "aquamind-test"),
		hub: hub,
	}
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (env *testEnv) register(t *testing.T, name string) usecase.Session {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/register", "", echo.Map{
		"email":    name + "@example.com",
		"username": name,
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[usecase.Session](t, rec)
}

func TestAnnLikesAndUnlikes(t *testing.T) {
	env := newTestEnv(t, 100)
	ann := env.register(t, "ann")
	assert.Equal(t, "ann", ann.DisplayName)

	rec := env.do(t, http.MethodPost, "/api/community-posts", ann.Token, echo.Map{"content": "Hello"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[domain.PostSummary](t, rec)
	assert.Equal(t, 0, post.Likes)
	assert.Equal(t, "ann", post.Username)

	rec = env.do(t, http.MethodPost, "/api/community-posts/"+post.ID+"/like", ann.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[domain.LikeChange](t, rec).Likes)

	rec = env.do(t, http.MethodGet, "/api/community-posts", ann.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	posts := decode[[]domain.PostSummary](t, rec)
	require.Len(t, posts, 1)
	assert.Equal(t, 1, posts[0].Likes)
	require.NotNil(t, posts[0].LikedByViewer)
	assert.True(t, *posts[0].LikedByViewer)

	rec = env.do(t, http.MethodPost, "/api/community-posts/"+post.ID+"/like", ann.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[domain.LikeChange](t, rec).Likes)

	// anonymous readers see counts but no like state
	rec = env.do(t, http.MethodGet, "/api/community-posts", "", nil)
	posts = decode[[]domain.PostSummary](t, rec)
	assert.Equal(t, 0, posts[0].Likes)
	assert.Nil(t, posts[0].LikedByViewer)
}

func TestAuthFailures(t *testing.T) {
	env := newTestEnv(t, 100)
	env.register(t, "ann")

	rec := env.do(t, http.MethodPost, "/api/register", "", echo.Map{
		"email": "ANN@example.com", "username": "other", "password": "hunter22",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/register", "", echo.Map{
		"email": "bob@example.com", "username": "bob", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	wrongPassword := env.do(t, http.MethodPost, "/api/login", "", echo.Map{"email": "ann@example.com", "password": "nope-nope"})
	unknownEmail := env.do(t, http.MethodPost, "/api/login", "", echo.Map{"email": "who@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())

	rec = env.do(t, http.MethodPost, "/api/community-posts", "", echo.Map{"content": "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/community-posts", "garbage", echo.Map{"content": "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginAndProfile(t *testing.T) {
	env := newTestEnv(t, 100)
	env.register(t, "ann")

	rec := env.do(t, http.MethodPost, "/api/login", "", echo.Map{"email": "ann@example.com", "password": "hunter22"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session := decode[usecase.Session](t, rec)

	rec = env.do(t, http.MethodGet, "/api/profile", session.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter22")
	user := decode[domain.User](t, rec)
	assert.Equal(t, "ann", user.DisplayName)
	assert.Equal(t, "ann@example.com", user.Email)
}

func TestPostValidationAndMissing(t *testing.T) {
	env := newTestEnv(t, 100)
	ann := env.register(t, "ann")

	rec := env.do(t, http.MethodPost, "/api/community-posts", ann.Token, echo.Map{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/community-posts/does-not-exist/like", ann.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/community-posts?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListLimitParameter(t *testing.T) {
	env := newTestEnv(t, 100)
	ann := env.register(t, "ann")
	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/api/community-posts", ann.Token, echo.Map{"content": "post"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	for _, path := range []string{
		"/api/community-posts?limit=0",
		"/api/community-posts?limit=-2",
		"/api/high-scores?limit=0",
	} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}

	rec := env.do(t, http.MethodGet, "/api/community-posts?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.PostSummary](t, rec), 2)

	rec = env.do(t, http.MethodGet, "/api/community-posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.PostSummary](t, rec), 3)
}

func TestHighScores(t *testing.T) {
	env := newTestEnv(t, 100)
	ann := env.register(t, "ann")
	bob := env.register(t, "bob")

	for _, s := range []struct {
		token string
		score int
	}{{ann.Token, 40}, {bob.Token, 90}, {ann.Token, 70}} {
		rec := env.do(t, http.MethodPost, "/api/high-scores", s.token, echo.Map{"score": s.score})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodPost, "/api/high-scores", ann.Token, echo.Map{"score": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/high-scores", ann.Token, echo.Map{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/high-scores?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	top := decode[[]domain.ScoreEntry](t, rec)
	require.Len(t, top, 2)
	assert.Equal(t, 90, top[0].Score)
	assert.Equal(t, "bob", top[0].Username)
	assert.Equal(t, 70, top[1].Score)
}

func TestRateLimited(t *testing.T) {
	env := newTestEnv(t, 3)

	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodGet, "/api/community-posts", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/api/community-posts", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, 100)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aquamind_hub_observers")
}

func TestRealtimeDeliversEvents(t *testing.T) {
	env := newTestEnv(t, 100)
	srv := httptest.NewServer(env.e)
	defer srv.Close()

	ann := env.register(t, "ann")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/realtime"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool { return env.hub.Len() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, ws.WriteJSON(Request{Type: "h"}))

	rec := env.do(t, http.MethodPost, "/api/community-posts", ann.Token, echo.Map{"content": "live"})
	require.Equal(t, http.StatusCreated, rec.Code)
	post := decode[domain.PostSummary](t, rec)

	rec = env.do(t, http.MethodPost, "/api/community-posts/"+post.ID+"/like", ann.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	var created domain.Event
	require.NoError(t, ws.ReadJSON(&created))
	assert.Equal(t, domain.EventPostCreated, created.Type)
	require.NotNil(t, created.Post)
	assert.Equal(t, post.ID, created.Post.ID)

	var liked domain.Event
	require.NoError(t, ws.ReadJSON(&liked))
	assert.Equal(t, domain.EventPostLiked, liked.Type)
	assert.Equal(t, post.ID, liked.Like.PostID)
	assert.Equal(t, 1, liked.Like.Likes)

	ws.Close()
	require.Eventually(t, func() bool { return env.hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
