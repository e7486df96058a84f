package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/visa-portal/internal/apperr"
	"github.com/iliyamo/visa-portal/internal/middleware"
	"github.com/iliyamo/visa-portal/internal/model"
	"github.com/iliyamo/visa-portal/internal/response"
	"github.com/iliyamo/visa-portal/internal/service"
	"github.com/iliyamo/visa-portal/internal/upload"
)

type fakeAuth struct {
	LoginFunc          func(ctx context.Context, username, password string) (service.LoginResult, error)
	RegisterFunc       func(ctx context.Context, in service.RegisterInput, documentURL *string) (service.RegisterResult, error)
	RefreshTokenFunc   func(ctx context.Context, presented string, userID uint64) (string, error)
	ForgotPasswordFunc func(ctx context.Context, username string) (service.ForgotResult, error)
	ResendOTPFunc      func(ctx context.Context, userID uint64) error
	VerifyOTPFunc      func(ctx context.Context, userID uint64, otp int) error
	ResetPasswordFunc  func(ctx context.Context, userID uint64, password string) error
	LogoutFunc         func(ctx context.Context, userID uint64) error
}

func (f *fakeAuth) Login(ctx context.Context, u, p string) (service.LoginResult, error) {
	return f.LoginFunc(ctx, u, p)
}

func (f *fakeAuth) Register(ctx context.Context, in service.RegisterInput, doc *string) (service.RegisterResult, error) {
	return f.RegisterFunc(ctx, in, doc)
}

func (f *fakeAuth) RefreshToken(ctx context.Context, presented string, userID uint64) (string, error) {
	return f.RefreshTokenFunc(ctx, presented, userID)
}

func (f *fakeAuth) ForgotPassword(ctx context.Context, username string) (service.ForgotResult, error) {
	return f.ForgotPasswordFunc(ctx, username)
}

func (f *fakeAuth) ResendOTP(ctx context.Context, userID uint64) error {
	return f.ResendOTPFunc(ctx, userID)
}

func (f *fakeAuth) VerifyOTP(ctx context.Context, userID uint64, otp int) error {
	return f.VerifyOTPFunc(ctx, userID, otp)
}

func (f *fakeAuth) ResetPassword(ctx context.Context, userID uint64, password string) error {
	return f.ResetPasswordFunc(ctx, userID, password)
}

func (f *fakeAuth) Logout(ctx context.Context, userID uint64) error {
	return f.LogoutFunc(ctx, userID)
}

type fakeApps struct {
	SaveFunc func(ctx context.Context, caller service.Caller, app model.Application, files service.ApplicationFiles) (model.Application, error)
	ListFunc func(ctx context.Context, caller service.Caller, page, limit int) (service.ApplicationPage, error)
	GetFunc  func(ctx context.Context, caller service.Caller, id uint64) (model.Application, error)
}

func (f *fakeApps) CreateOrUpdateApplication(ctx context.Context, c service.Caller, a model.Application, files service.ApplicationFiles) (model.Application, error) {
	return f.SaveFunc(ctx, c, a, files)
}

func (f *fakeApps) ListApplications(ctx context.Context, c service.Caller, page, limit int) (service.ApplicationPage, error) {
	return f.ListFunc(ctx, c, page, limit)
}

func (f *fakeApps) GetApplication(ctx context.Context, c service.Caller, id uint64) (model.Application, error) {
	return f.GetFunc(ctx, c, id)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// withIdentity stands in for the JWT guard.
func withIdentity(id middleware.Identity) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			middleware.SetIdentity(c, id)
			return next(c)
		}
	}
}

func doJSON(e *echo.Echo, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, response.Envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env response.Envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestAuthHandler_Login(t *testing.T) {
	auth := &fakeAuth{
		LoginFunc: func(_ context.Context, u, p string) (service.LoginResult, error) {
			if p != "secret" {
				return service.LoginResult{}, apperr.ErrInvalidPassword
			}
			return service.LoginResult{UserDetails: model.User{ID: 1, Username: u}, AuthToken: "a", RefreshToken: "r"}, nil
		},
	}
	e := newEcho()
	h := NewAuthHandler(auth, nil, zap.NewNop())
	e.POST("/login", h.Login)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   int
		wantMsg    string
	}{
		{"ok", `{"username":"a@b.c","password":"secret"}`, http.StatusOK, 1, "Logged in successfully"},
		{"wrong password", `{"username":"a@b.c","password":"nope"}`, http.StatusUnauthorized, 0, "The password is incorrect"},
		{"missing username", `{"password":"secret"}`, http.StatusBadRequest, 0, "Username is required"},
		{"missing password", `{"username":"a@b.c"}`, http.StatusBadRequest, 0, "Password is required"},
		{"broken json", `{`, http.StatusBadRequest, 0, "The request could not be understood"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doJSON(e, http.MethodPost, "/login", tt.body, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, env.Code)
			assert.Equal(t, tt.wantMsg, env.Message)
		})
	}
}

func TestAuthHandler_LoginResponseShape(t *testing.T) {
	auth := &fakeAuth{
		LoginFunc: func(context.Context, string, string) (service.LoginResult, error) {
			return service.LoginResult{UserDetails: model.User{ID: 3, PasswordHash: "hash"}, AuthToken: "a", RefreshToken: "r"}, nil
		},
	}
	e := newEcho()
	e.POST("/login", NewAuthHandler(auth, nil, zap.NewNop()).Login)

	rec, _ := doJSON(e, http.MethodPost, "/login", `{"username":"x@y.z","password":"p"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"auth_token":"a"`)
	assert.Contains(t, body, `"userDetails"`)
	assert.NotContains(t, body, "hash")
	assert.Contains(t, body, `"status":"SUCCESS"`)
}

func TestAuthHandler_RegisterMultipart(t *testing.T) {
	var got service.RegisterInput
	var gotDoc *string
	auth := &fakeAuth{
		RegisterFunc: func(_ context.Context, in service.RegisterInput, doc *string) (service.RegisterResult, error) {
			got, gotDoc = in, doc
			return service.RegisterResult{Saved: model.User{ID: 9}, AuthToken: "a", RefreshToken: "r"}, nil
		},
	}
	e := newEcho()
	store := upload.NewStore(t.TempDir(), "http://localhost:8080")
	e.POST("/register", NewAuthHandler(auth, store, zap.NewNop()).Register)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"username": "alice@example.com", "password": "Abcd1234!", "confirmPassword": "Abcd1234!",
		"firstName": "Alice", "foreignReg": "true", "terms": "true", "autoRead": "false",
	} {
		require.NoError(t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile("document", "passport.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/register", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "alice@example.com", got.Username)
	assert.Equal(t, "Alice", got.FirstName)
	assert.True(t, got.ForeignReg)
	assert.True(t, got.Terms)
	require.NotNil(t, got.AutoRead)
	assert.False(t, *got.AutoRead)
	require.NotNil(t, gotDoc)
	assert.True(t, strings.HasPrefix(*gotDoc, "http://localhost:8080/public/document-"))
}

func TestAuthHandler_RegisterPasswordMismatch(t *testing.T) {
	e := newEcho()
	e.POST("/register", NewAuthHandler(&fakeAuth{}, nil, zap.NewNop()).Register)

	rec, env := doJSON(e, http.MethodPost, "/register",
		`{"username":"alice@example.com","password":"one","confirmPassword":"two"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Passwords do not match", env.Message)
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	auth := &fakeAuth{
		RefreshTokenFunc: func(_ context.Context, presented string, userID uint64) (string, error) {
			if presented != "refresh.jwt.sig" || userID != 4 {
				return "", apperr.ErrRefreshMalformed
			}
			return "new-access", nil
		},
	}
	e := newEcho()
	e.POST("/refresh_token", NewAuthHandler(auth, nil, zap.NewNop()).RefreshToken)

	rec, env := doJSON(e, http.MethodPost, "/refresh_token", `{"user_id":4}`,
		map[string]string{"refresh_token": "refresh.jwt.sig"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new-access", env.Data.(map[string]any)["auth_token"])

	rec, env = doJSON(e, http.MethodPost, "/refresh_token", `{"user_id":4}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh token is required", env.Message)

	rec, _ = doJSON(e, http.MethodPost, "/refresh_token", `{"user_id":5}`,
		map[string]string{"refresh_token": "refresh.jwt.sig"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_OTPVerifyUsesTokenIdentity(t *testing.T) {
	var gotUser uint64
	var gotOTP int
	auth := &fakeAuth{
		VerifyOTPFunc: func(_ context.Context, userID uint64, otp int) error {
			gotUser, gotOTP = userID, otp
			return nil
		},
	}
	e := newEcho()
	e.POST("/otp_verify", NewAuthHandler(auth, nil, zap.NewNop()).OTPVerify,
		withIdentity(middleware.Identity{UserID: 12, Purpose: "otp"}))

	rec, env := doJSON(e, http.MethodPost, "/otp_verify", `{"user_id":99,"otp":4821}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OTP verified successfully", env.Message)
	assert.Equal(t, uint64(12), gotUser)
	assert.Equal(t, 4821, gotOTP)

	rec, env = doJSON(e, http.MethodPost, "/otp_verify", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "OTP is required", env.Message)
}

func TestAuthHandler_LogoutWithoutIdentity(t *testing.T) {
	e := newEcho()
	e.POST("/logout", NewAuthHandler(&fakeAuth{}, nil, zap.NewNop()).Logout)

	rec, env := doJSON(e, http.MethodPost, "/logout", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, env.Code)
}

func TestApplicationHandler_SubmitIgnoresBodyOwner(t *testing.T) {
	var gotCaller service.Caller
	var gotApp model.Application
	var gotFiles service.ApplicationFiles
	apps := &fakeApps{
		SaveFunc: func(_ context.Context, c service.Caller, a model.Application, f service.ApplicationFiles) (model.Application, error) {
			gotCaller, gotApp, gotFiles = c, a, f
			a.ID = 7
			owner := c.UserID
			a.UserID = &owner
			return a, nil
		},
	}
	e := newEcho()
	store := upload.NewStore(t.TempDir(), "http://localhost:8080")
	e.POST("/application", NewApplicationHandler(apps, store, zap.NewNop()).Submit,
		withIdentity(middleware.Identity{UserID: 5, Purpose: "access"}))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("user_id", "999")
	_ = w.WriteField("purpose", "study")
	_ = w.WriteField("specific_purpose", "study_degree")
	_ = w.WriteField("is_consent_provided", "true")
	fw, _ := w.CreateFormFile("face_photo", "me.jpg")
	_, _ = fw.Write([]byte("jpeg"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/application", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(5), gotCaller.UserID)
	assert.Equal(t, "study_degree", gotApp.SpecificPurpose)
	assert.True(t, gotApp.IsConsentProvided)
	require.NotNil(t, gotFiles.FacePhoto)
	assert.Nil(t, gotFiles.PassportPage)
	assert.Contains(t, rec.Body.String(), `"id":7`)
}

func TestApplicationHandler_SubmitRejectsFileType(t *testing.T) {
	e := newEcho()
	store := upload.NewStore(t.TempDir(), "http://x")
	e.POST("/application", NewApplicationHandler(&fakeApps{}, store, zap.NewNop()).Submit,
		withIdentity(middleware.Identity{UserID: 5}))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, _ := w.CreateFormFile("letter", "letter.docx")
	_, _ = fw.Write([]byte("doc"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/application", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "File type is not allowed")
}

func TestAuthHandler_RegisterFailureRemovesDocument(t *testing.T) {
	auth := &fakeAuth{
		RegisterFunc: func(context.Context, service.RegisterInput, *string) (service.RegisterResult, error) {
			return service.RegisterResult{}, apperr.ErrEmailAlreadyExists
		},
	}
	dir := t.TempDir()
	e := newEcho()
	e.POST("/register", NewAuthHandler(auth, upload.NewStore(dir, "http://x"), zap.NewNop()).Register)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"username": "alice@example.com", "password": "Abcd1234!", "confirmPassword": "Abcd1234!",
		"firstName": "Alice", "terms": "true",
	} {
		require.NoError(t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile("document", "passport.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/register", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestApplicationHandler_SubmitFailureRemovesUploads(t *testing.T) {
	tests := []struct {
		name   string
		letter string
		save   error
		code   int
	}{
		{"service error", "letter.pdf", apperr.ErrSomethingWentWrong, http.StatusInternalServerError},
		{"later file rejected", "letter.docx", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apps := &fakeApps{
				SaveFunc: func(_ context.Context, _ service.Caller, a model.Application, _ service.ApplicationFiles) (model.Application, error) {
					return a, tt.save
				},
			}
			dir := t.TempDir()
			e := newEcho()
			e.POST("/application", NewApplicationHandler(apps, upload.NewStore(dir, "http://x"), zap.NewNop()).Submit,
				withIdentity(middleware.Identity{UserID: 5}))

			var body bytes.Buffer
			w := multipart.NewWriter(&body)
			_ = w.WriteField("purpose", "study")
			for field, name := range map[string]string{"face_photo": "me.jpg", "passport_page": "page.png", "letter": tt.letter} {
				fw, _ := w.CreateFormFile(field, name)
				_, _ = fw.Write([]byte("bytes"))
			}
			require.NoError(t, w.Close())

			req := httptest.NewRequest(http.MethodPost, "/application", &body)
			req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestApplicationHandler_ListPagination(t *testing.T) {
	var gotPage, gotLimit int
	apps := &fakeApps{
		ListFunc: func(_ context.Context, _ service.Caller, page, limit int) (service.ApplicationPage, error) {
			gotPage, gotLimit = page, limit
			return service.ApplicationPage{Applications: []model.Application{}, Total: 0}, nil
		},
	}
	e := newEcho()
	e.GET("/applications", NewApplicationHandler(apps, nil, zap.NewNop()).List,
		withIdentity(middleware.Identity{UserID: 1}))

	tests := []struct {
		query     string
		page, lim int
	}{
		{"", 1, 10},
		{"?page=3&limit=25", 3, 25},
		{"?page=abc&limit=-4", 1, 10},
		{"?page=0", 1, 10},
		{"?limit=1125899906842624", 1, maxLimit},
	}
	for _, tt := range tests {
		rec, _ := doJSON(e, http.MethodGet, "/applications"+tt.query, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tt.page, gotPage, tt.query)
		assert.Equal(t, tt.lim, gotLimit, tt.query)
	}
}

func TestApplicationHandler_GetNotFound(t *testing.T) {
	apps := &fakeApps{
		GetFunc: func(context.Context, service.Caller, uint64) (model.Application, error) {
			return model.Application{}, apperr.ErrApplicationNotFound
		},
	}
	e := newEcho()
	e.GET("/application/:id", NewApplicationHandler(apps, nil, zap.NewNop()).Get,
		withIdentity(middleware.Identity{UserID: 1}))

	rec, env := doJSON(e, http.MethodGet, "/application/8", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Application not found", env.Message)

	rec, _ = doJSON(e, http.MethodGet, "/application/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlexInt(t *testing.T) {
	var req listUsersReq
	require.NoError(t, json.Unmarshal([]byte(`{"page":"2","limit":25}`), &req))
	assert.Equal(t, 2, req.Page.orDefault(1))
	assert.Equal(t, 25, req.Limit.orDefault(10))

	req = listUsersReq{}
	require.NoError(t, json.Unmarshal([]byte(`{"page":"x","limit":null}`), &req))
	assert.Equal(t, 1, req.Page.orDefault(1))
	assert.Equal(t, 10, req.Limit.orDefault(10))
}
