package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/chatdesk-team/chatdesk/pkg/jwt"
)

// SubjectContextKey and RoleContextKey are the Echo context keys the
// auth middleware populates for downstream handlers.
const (
	SubjectContextKey = "subject"
	RoleContextKey    = "role"
)

// EchoAuth returns an Echo middleware that validates the Bearer JWT and
// sets the token subject and role into the Echo context.
func EchoAuth(manager *jwt.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization token")
			}

			claims, err := manager.ValidateAccessToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(SubjectContextKey, claims.Subject)
			c.Set(RoleContextKey, claims.Role)

			return next(c)
		}
	}
}

func extractToken(c echo.Context) string {
	// Authorization header first, "Bearer <token>"
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// Cookie as fallback
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie.Value
	}

	return ""
}
