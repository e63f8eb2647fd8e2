package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"userAuthService/internal/auth"
	"userAuthService/internal/service"
)

const msgInternal = "Internal server error"

// AuthFlow is the subset of the auth service the REST handlers call.
type AuthFlow interface {
	SignUp(ctx context.Context, req service.SignUpRequest) (*service.MessageResponse, error)
	SignIn(ctx context.Context, req service.SignInRequest) (*service.SignInResponse, error)
	DeleteByUsername(ctx context.Context, username string) error
}

// AuthHandler serves the /api/auth endpoints.
type AuthHandler struct {
	flow AuthFlow
	log  zerolog.Logger
}

// NewAuthHandler creates a new instance of AuthHandler
func NewAuthHandler(flow AuthFlow, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{flow: flow, log: logger.With().Str("component", "http").Logger()}
}

// SignIn authenticates a user --> POST /api/auth/signin
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req service.SignInRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, service.MessageResponse{Message: "Invalid request payload"})
	}
	resp, err := h.flow.SignIn(c.Request().Context(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// SignUp registers a user --> POST /api/auth/signup
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req service.SignUpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, service.MessageResponse{Message: "Invalid request payload"})
	}
	resp, err := h.flow.SignUp(c.Request().Context(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteByUsername removes a user --> DELETE /api/auth/delete/:username
func (h *AuthHandler) DeleteByUsername(c echo.Context) error {
	if err := h.flow.DeleteByUsername(c.Request().Context(), c.Param("username")); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// Me returns the identity asserted by the bearer token --> GET /api/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, service.MessageResponse{Message: msgUnauthorized})
	}
	return c.JSON(http.StatusOK, id)
}

// Health reports liveness --> GET /health
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "user-auth",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// writeError maps service errors to status codes. Only conflict,
// authentication and validation messages reach the client.
func (h *AuthHandler) writeError(c echo.Context, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	case service.IsConflict(err):
		return c.JSON(http.StatusBadRequest, service.MessageResponse{Message: err.Error()})
	case service.IsAuthentication(err):
		return c.JSON(http.StatusUnauthorized, service.MessageResponse{Message: err.Error()})
	case service.IsConfiguration(err):
		h.log.Error().Err(err).Str("path", c.Path()).Msg("configuration error")
	default:
		h.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.JSON(http.StatusInternalServerError, service.MessageResponse{Message: msgInternal})
}
