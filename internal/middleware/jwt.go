package middleware

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/visa-portal/internal/apperr"
	"github.com/iliyamo/visa-portal/internal/response"
	"github.com/iliyamo/visa-portal/internal/utils"
)

// JWTAuth validates the Authorization header and stores the caller's
// Identity in the context. The header may carry the raw token or a
// "Bearer "-prefixed one.
func JWTAuth(secret string, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" {
				return response.Fail(c, log, apperr.ErrAuthTokenRequired)
			}

			claims, err := utils.ParseToken(secret, raw)
			if err != nil {
				return response.Fail(c, log, classify(err))
			}
			if claims.UserID == 0 || claims.Purpose == "" {
				return response.Fail(c, log, apperr.ErrTokenInvalid)
			}

			SetIdentity(c, Identity{
				UserID:  claims.UserID,
				IsAdmin: claims.IsAdmin,
				Purpose: claims.Purpose,
			})
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	h := strings.TrimSpace(header)
	if len(h) >= 7 && strings.EqualFold(h[:7], "bearer ") {
		h = strings.TrimSpace(h[7:])
	}
	return h
}

// classify maps jwt parse failures onto the guard's error keys.
func classify(err error) *apperr.Error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.ErrTokenExpired.Wrap(err)
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperr.ErrTokenMalformed.Wrap(err)
	default:
		return apperr.ErrTokenInvalid.Wrap(err)
	}
}
