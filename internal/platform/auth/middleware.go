package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

type JWTConfig struct {
	Issuer     string
	Audience   string
	SigningKey []byte
}

// JWTMiddleware validates a bearer token and attaches a Session to the
// request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}

			opts := []jwt.ParserOption{
				jwt.WithValidMethods([]string{"HS256"}),
			}
			if cfg.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.Issuer))
			}
			if cfg.Audience != "" {
				opts = append(opts, jwt.WithAudience(cfg.Audience))
			}

			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return cfg.SigningKey, nil
			}, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sess := &Session{
				UserID:  claims.Subject,
				Subject: claims.Subject,
				Roles:   ParseRoles(claims.Roles),
			}
			c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), sess)))

			return next(c)
		}
	}
}

// DevAuthMiddleware grants unauthenticated requests an admin session so the
// API is usable without a token issuer during local development.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if SessionFromContext(c.Request().Context()) == nil {
				sess := &Session{
					UserID:  "dev-user",
					Subject: "dev-user",
					Roles:   []Role{RoleAdmin},
				}
				c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), sess)))
			}
			return next(c)
		}
	}
}

// RequireRole returns middleware that rejects requests whose session lacks
// all of the given roles.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := SessionFromContext(c.Request().Context())
			if sess == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !sess.HasAnyRole(roles...) {
				names := make([]string, len(roles))
				for i, r := range roles {
					names[i] = r.String()
				}
				return echo.NewHTTPError(http.StatusForbidden,
					"required role: "+strings.Join(names, " or "))
			}
			return next(c)
		}
	}
}
