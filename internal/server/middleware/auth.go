package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tranbn/slackline/internal/models"
	"github.com/tranbn/slackline/pkg/ctxval"
)

const userContextKey = "user"

type userIDKey struct{}

// TokenValidator resolves a bearer token to its user. Implemented by the
// auth usecase.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.User, error)
}

func JWTAuth(validator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := BearerToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			ctx := ctxval.Wrap(c.Request().Context())
			c.SetRequest(c.Request().WithContext(ctx))

			user, err := validator.ValidateToken(ctx, token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(userContextKey, user)
			ctxval.Set(ctx, userIDKey{}, user.ID.Hex())
			return next(c)
		}
	}
}

// BearerToken extracts the bearer token from the Authorization header, or
// returns "".
func BearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return ""
	}
	return token
}

// CurrentUser returns the authenticated user set by JWTAuth; nil outside
// protected routes.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}

// GetUserID reports the authenticated user id for request logging.
func GetUserID(c echo.Context) string {
	if user := CurrentUser(c); user != nil {
		return user.ID.Hex()
	}
	if id, ok := ctxval.Get[userIDKey, string](c.Request().Context(), userIDKey{}); ok {
		return id
	}
	return ""
}
