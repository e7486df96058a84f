package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	code, st := 1, "SUCCESS"
	if status >= 300 {
		code, st = 0, "FAIL"
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "status": st, "message": "msg", "data": data})
}

func TestNew_NormalizesBaseURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"localhost:8080/", "http://localhost:8080"},
		{"https://api.example.com", "https://api.example.com"},
		{"HTTP://host/", "HTTP://host"},
		{" 10.0.0.1:3000 ", "http://10.0.0.1:3000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, New(tt.in).BaseURL(), tt.in)
	}
}

func TestLogin_StoresTokensAndSendsBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case apiPrefix + "/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "alice@example.com", body["username"])
			writeEnvelope(w, http.StatusOK, map[string]any{"auth_token": "A1", "refresh_token": "R1"})
		case apiPrefix + "/applications":
			gotAuth = r.Header.Get("Authorization")
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			writeEnvelope(w, http.StatusOK, map[string]any{"applications": []any{}, "total": 0})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Login(context.Background(), "alice@example.com", "Abcd1234!")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "A1", c.Tokens().AuthToken())
	assert.Equal(t, "R1", c.Tokens().RefreshToken())

	_, err = c.ListApplications(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.Equal(t, "Bearer A1", gotAuth)
}

func TestLogin_FailureKeepsTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, nil)
	}))
	defer srv.Close()

	store := &MemoryTokenStore{}
	store.Save("old", "oldR")
	c := New(srv.URL, WithTokenStore(store))
	res, err := c.Login(context.Background(), "a@b.c", "bad")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "msg", res.Message())
	assert.Equal(t, "old", store.AuthToken())
}

func TestForgotPassword_KeepsRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"auth_token": "OTP1"})
	}))
	defer srv.Close()

	store := &MemoryTokenStore{}
	store.Save("A", "R")
	c := New(srv.URL, WithTokenStore(store))
	_, err := c.ForgotPassword(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "OTP1", store.AuthToken())
	assert.Equal(t, "R", store.RefreshToken())
}

func TestOTPVerify_SendsNumericOTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiPrefix+"/otp_verify", r.URL.Path)
		assert.Equal(t, "Bearer OTP1", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"otp":4821}`, string(b))
		writeEnvelope(w, http.StatusOK, nil)
	}))
	defer srv.Close()

	store := &MemoryTokenStore{}
	store.Save("OTP1", "")
	res, err := New(srv.URL, WithTokenStore(store)).OTPVerify(context.Background(), 4821)
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestRefreshToken_SendsHeaderAndUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "R1", r.Header.Get("refresh_token"))
		assert.Empty(t, r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"user_id":7}`, string(b))
		writeEnvelope(w, http.StatusOK, map[string]any{"auth_token": "A2"})
	}))
	defer srv.Close()

	store := &MemoryTokenStore{}
	store.Save("A1", "R1")
	_, err := New(srv.URL, WithTokenStore(store)).RefreshToken(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "A2", store.AuthToken())
	assert.Equal(t, "R1", store.RefreshToken())
}

func TestLogout_ClearsTokensEvenOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, nil)
	}))
	defer srv.Close()

	store := &MemoryTokenStore{}
	store.Save("A", "R")
	res, err := New(srv.URL, WithTokenStore(store)).Logout(context.Background())
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Empty(t, store.AuthToken())
	assert.Empty(t, store.RefreshToken())
}

func TestSubmitApplication_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "study", r.FormValue("purpose"))
		assert.Equal(t, "7", r.FormValue("id"))
		f, fh, err := r.FormFile("face_photo")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "me.png", fh.Filename)
		b, _ := io.ReadAll(f)
		assert.Equal(t, "png-bytes", string(b))
		writeEnvelope(w, http.StatusOK, map[string]any{"id": 7})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.SubmitApplication(context.Background(),
		map[string]string{"purpose": "study", "id": "7"},
		[]File{{Field: "face_photo", Name: "me.png", Data: strings.NewReader("png-bytes")}, {Field: "letter"}})
	require.NoError(t, err)
	var got struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, res.Decode(&got))
	assert.Equal(t, uint64(7), got.ID)
}

func TestDo_NonJSONBodyKeptRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	res, err := New(srv.URL).GetApplication(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Nil(t, res.Envelope)
	assert.Equal(t, "upstream down", res.Message())
	assert.Error(t, res.Decode(&struct{}{}))
}

func TestDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).Login(context.Background(), "a", "b")
	assert.Error(t, err)
}
