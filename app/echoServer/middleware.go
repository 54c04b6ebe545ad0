// app/echoServer/middleware.go
package echoServer

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/deivisson-souza-84lab/libManager/app/echoServer/jwtx"
	tokenrepo "github.com/deivisson-souza-84lab/libManager/repository/token"
)

func RegisterMiddlewares(e *echo.Echo) {

	e.Use(middleware.Recover())

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))

	e.Use(Slog())
}

func Slog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			lat := time.Since(start).Milliseconds()

			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			slog.Info("http",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"latency_ms", lat,
				"req_id", rid,
				"ip", c.RealIP(),
				"ua", c.Request().UserAgent(),
			)
			return err
		}
	}
}

// Claims runs after the echo-jwt middleware. It rejects revoked
// tokens and copies the identity claims into the request context.
func Claims(tokens tokenrepo.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, err := jwtx.UserIDFromContext(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			role, err := jwtx.RoleFromContext(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}

			if jti, err := jwtx.JTIFromContext(c); err == nil {
				revoked, err := tokens.IsRevoked(c.Request().Context(), jti)
				if err != nil {
					slog.Error("token revocation check", "err", err)
					return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
				}
				if revoked {
					return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
				}
			}

			c.Set("user_id", uid)
			c.Set("role", role)
			return next(c)
		}
	}
}

// RequireAdmin gates the mutating routes the way the admin middleware
// of the original API does.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if role, _ := c.Get("role").(string); role != "admin" {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
			}
			return next(c)
		}
	}
}
