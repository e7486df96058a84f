package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/visa-portal/internal/config"
	"github.com/iliyamo/visa-portal/internal/response"
	"github.com/iliyamo/visa-portal/internal/utils"
)

const testSecret = "test-secret"

func mustToken(t *testing.T, secret string, id uint64, admin bool, purpose string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.NewToken(secret, id, admin, purpose, ttl)
	require.NoError(t, err)
	return tok.Token
}

// serve runs a single request through mws and a handler echoing the identity.
func serve(t *testing.T, header string, mws ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	e := echo.New()
	e.GET("/probe", func(c echo.Context) error {
		id, _ := IdentityFrom(c)
		return response.Success(c, "SUCCESS", map[string]any{"user_id": id.UserID, "purpose": id.Purpose})
	}, mws...)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestJWTAuth(t *testing.T) {
	log := zap.NewNop()
	valid := mustToken(t, testSecret, 7, false, utils.PurposeAccess, time.Hour)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{"missing header", "", http.StatusUnauthorized, "Authorization token is required"},
		{"raw token", valid, http.StatusOK, "Success"},
		{"bearer token", "Bearer " + valid, http.StatusOK, "Success"},
		{"lowercase bearer", "bearer " + valid, http.StatusOK, "Success"},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized, "Authorization token is malformed"},
		{"wrong secret", mustToken(t, "other", 7, false, utils.PurposeAccess, time.Hour), http.StatusUnauthorized, "Authorization token is malformed"},
		{"expired", mustToken(t, testSecret, 7, false, utils.PurposeAccess, -time.Minute), http.StatusUnauthorized, "Authorization token has expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := serve(t, tt.header, JWTAuth(testSecret, log))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, env.Message)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, 1, env.Code)
			} else {
				assert.Equal(t, 0, env.Code)
				assert.Equal(t, response.StatusFail, env.Status)
			}
		})
	}
}

func TestJWTAuth_StoresIdentity(t *testing.T) {
	tok := mustToken(t, testSecret, 42, true, utils.PurposeOTP, time.Hour)
	rec, env := serve(t, "Bearer "+tok, JWTAuth(testSecret, zap.NewNop()))
	require.Equal(t, http.StatusOK, rec.Code)

	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 42, data["user_id"])
	assert.Equal(t, utils.PurposeOTP, data["purpose"])
}

func TestRequirePurpose(t *testing.T) {
	log := zap.NewNop()
	guard := []echo.MiddlewareFunc{JWTAuth(testSecret, log), RequirePurpose(log, utils.PurposeAccess)}

	rec, _ := serve(t, mustToken(t, testSecret, 1, false, utils.PurposeAccess, time.Hour), guard...)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := serve(t, mustToken(t, testSecret, 1, false, utils.PurposeRefresh, time.Hour), guard...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, env.Code)
}

func TestRequireAdmin(t *testing.T) {
	log := zap.NewNop()
	guard := []echo.MiddlewareFunc{JWTAuth(testSecret, log), RequireAdmin(log)}

	rec, _ := serve(t, mustToken(t, testSecret, 1, true, utils.PurposeAccess, time.Hour), guard...)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = serve(t, mustToken(t, testSecret, 2, false, utils.PurposeAccess, time.Hour), guard...)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTokenBucket_LocalFallback(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		KeyStrategy:    "ip_route",
		Prefix:         "test",
	}
	mw := NewTokenBucket(cfg, nil, zap.NewNop())

	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return response.Success(c, "SUCCESS", nil) }, mw)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestTokenBucket_Disabled(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil, zap.NewNop())
	for i := 0; i < 5; i++ {
		rec, _ := serve(t, "", mw)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/api/admin/login", nil)
	req.RemoteAddr = "192.0.2.1:5000"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/api/admin/login")
	SetIdentity(c, Identity{UserID: 9})

	cfg := config.RateLimitConfig{Prefix: "rl"}
	cfg.KeyStrategy = "ip_route"
	assert.Equal(t, "rl:ip:192.0.2.1:route:POST /v1/api/admin/login", buildRateKey(cfg, c))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:9", buildRateKey(cfg, c))
}
