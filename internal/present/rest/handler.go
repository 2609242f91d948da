package rest

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/totegamma/aquamind/internal/config"
	"github.com/totegamma/aquamind/internal/domain"
	"github.com/totegamma/aquamind/internal/present/rest/presenter"
	"github.com/totegamma/aquamind/internal/service"
	"github.com/totegamma/aquamind/internal/usecase"
)

type Handler struct {
	interaction *usecase.InteractionUsecase
	hub         *service.Hub
	socket      config.Hub
}

func NewHandler(
	interaction *usecase.InteractionUsecase,
	hub *service.Hub,
	socket config.Hub,
) *Handler {
	return &Handler{
		interaction: interaction,
		hub:         hub,
		socket:      socket,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/register", h.handleRegister)
	api.POST("/login", h.handleLogin)
	api.GET("/profile", h.handleProfile)
	api.GET("/community-posts", h.handleListPosts)
	api.POST("/community-posts", h.handleCreatePost)
	api.POST("/community-posts/:id/like", h.handleToggleLike)
	api.GET("/high-scores", h.handleTopScores)
	api.POST("/high-scores", h.handleSubmitScore)
	api.GET("/realtime", h.handleRealtime)
}

func callerOf(c echo.Context) usecase.Caller {
	ctx := c.Request().Context()
	token, _ := ctx.Value(domain.RequesterTokenCtxKey).(string)
	key, _ := ctx.Value(domain.ClientKeyCtxKey).(string)
	return usecase.Caller{Token: token, ClientKey: key}
}

// limitParam returns 0 when the parameter is absent, which selects the
// configured default. An explicit limit must be positive.
func limitParam(c echo.Context) (int, bool) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, false
	}
	return limit, true
}

func (h *Handler) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(c echo.Context) error {
	ctx := c.Request().Context()

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequestMessage(c, "malformed request body")
	}

	session, err := h.interaction.Register(ctx, callerOf(c), usecase.RegisterInput{
		Email:       req.Email,
		DisplayName: req.Username,
		Password:    req.Password,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, session)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequestMessage(c, "malformed request body")
	}

	session, err := h.interaction.Login(ctx, callerOf(c), req.Email, req.Password)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, session)
}

func (h *Handler) handleProfile(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.interaction.Profile(ctx, callerOf(c))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, user)
}

func (h *Handler) handleListPosts(c echo.Context) error {
	ctx := c.Request().Context()

	limit, ok := limitParam(c)
	if !ok {
		return presenter.BadRequestMessage(c, "invalid limit parameter")
	}

	posts, err := h.interaction.ListPosts(ctx, callerOf(c), limit)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, posts)
}

type createPostRequest struct {
	Content string `json:"content"`
}

func (h *Handler) handleCreatePost(c echo.Context) error {
	ctx := c.Request().Context()

	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequestMessage(c, "malformed request body")
	}

	post, err := h.interaction.CreatePost(ctx, callerOf(c), req.Content)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, post)
}

func (h *Handler) handleToggleLike(c echo.Context) error {
	ctx := c.Request().Context()
	postID := c.Param("id")

	likes, err := h.interaction.ToggleLike(ctx, callerOf(c), postID)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, domain.LikeChange{PostID: postID, Likes: likes})
}

func (h *Handler) handleTopScores(c echo.Context) error {
	ctx := c.Request().Context()

	limit, ok := limitParam(c)
	if !ok {
		return presenter.BadRequestMessage(c, "invalid limit parameter")
	}

	scores, err := h.interaction.ListTopScores(ctx, callerOf(c), limit)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, scores)
}

type submitScoreRequest struct {
	Score *int `json:"score"`
}

func (h *Handler) handleSubmitScore(c echo.Context) error {
	ctx := c.Request().Context()

	var req submitScoreRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequestMessage(c, "malformed request body")
	}
	if req.Score == nil {
		return presenter.Error(c, domain.InvalidInputError{Field: "score", Reason: "is required"})
	}

	entry, err := h.interaction.SubmitScore(ctx, callerOf(c), *req.Score)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, entry)
}
