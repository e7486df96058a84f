package middleware

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/visa-portal/internal/apperr"
	"github.com/iliyamo/visa-portal/internal/response"
)

// RequirePurpose rejects tokens minted for another purpose, e.g. a refresh
// token presented as a bearer. Must run after JWTAuth.
func RequirePurpose(log *zap.Logger, purposes ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(purposes))
	for _, p := range purposes {
		allowed[p] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok || !allowed[id.Purpose] {
				return response.Fail(c, log, apperr.ErrTokenInvalid)
			}
			return next(c)
		}
	}
}

// RequireAdmin lets only administrators through. Must run after JWTAuth.
func RequireAdmin(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok || !id.IsAdmin {
				return response.Fail(c, log, apperr.ErrAdminOnly)
			}
			return next(c)
		}
	}
}
