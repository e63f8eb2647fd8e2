package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"userAuthService/internal/auth"
	"userAuthService/internal/service"
)

const (
	identityKey     = "identity"
	msgUnauthorized = "Error: Unauthorized"
)

// NewRouter builds the Echo instance with middleware and routes.
func NewRouter(flow AuthFlow, issuer *auth.TokenIssuer, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		MaxAge:       3600,
	}))

	h := NewAuthHandler(flow, logger)

	// Routes
	g := e.Group("/api/auth")
	g.POST("/signin", h.SignIn)
	g.POST("/signup", h.SignUp)
	g.DELETE("/delete/:username", h.DeleteByUsername)
	g.GET("/me", h.Me, bearerAuth(issuer), identityToContext)

	e.GET("/health", Health)
	return e
}

// bearerAuth validates "Authorization: Bearer <token>" with the issuer and
// stores the resulting auth.Identity under identityKey.
func bearerAuth(issuer *auth.TokenIssuer) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: identityKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return issuer.Parse(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, service.MessageResponse{Message: msgUnauthorized})
		},
	})
}

// identityToContext moves the identity from the echo context into the request
// context so downstream code receives it through context.Context.
func identityToContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := c.Get(identityKey).(auth.Identity)
		if !ok {
			return c.JSON(http.StatusUnauthorized, service.MessageResponse{Message: msgUnauthorized})
		}
		c.SetRequest(c.Request().WithContext(auth.WithIdentity(c.Request().Context(), id)))
		return next(c)
	}
}

func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	log := logger.With().Str("component", "http").Logger()
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// StartHTTP serves e on addr and returns the bound address and a shutdown
// function.
func StartHTTP(e *echo.Echo, addr string, logger zerolog.Logger) (net.Addr, func(context.Context) error, error) {
	if addr == "" {
		addr = ":8080"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	// StartServer serves e.Listener when it is set.
	e.Listener = lis

	go func() {
		if err := e.StartServer(e.Server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	return lis.Addr(), e.Shutdown, nil
}
