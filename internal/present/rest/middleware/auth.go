package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/aquamind/internal/domain"
)

var tracer = otel.Tracer("auth")

// IdentifyCaller stores the bearer token and the client key on the request
// context. Tokens are verified later, after the rate gate has admitted the
// request, so a flood of forged tokens still counts against the gate.
func IdentifyCaller(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyCaller")
		defer span.End()

		ctx = context.WithValue(ctx, domain.ClientKeyCtxKey, c.RealIP())

		authHeader := c.Request().Header.Get("authorization")
		if authHeader != "" {
			authType, token, ok := strings.Cut(authHeader, " ")
			switch {
			case !ok || token == "":
				span.RecordError(fmt.Errorf("invalid authentication header"))
			case !strings.EqualFold(authType, "Bearer"):
				span.RecordError(fmt.Errorf("only Bearer is acceptable"))
			default:
				ctx = context.WithValue(ctx, domain.RequesterTokenCtxKey, token)
				span.SetAttributes(attribute.Bool("HasToken", true))
			}
		}

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
