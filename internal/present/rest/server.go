package rest

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/totegamma/aquamind/internal/present/rest/middleware"
)

// NewServer builds the echo instance with the standard middleware chain.
func NewServer(h *Handler, serviceName string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(otelecho.Middleware(serviceName, otelecho.WithSkipper(func(c echo.Context) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	e.Use(middleware.IdentifyCaller)

	h.RegisterRoutes(e)
	return e
}
