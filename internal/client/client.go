// Package client is a Go client for the portal's HTTP API. It keeps the
// session tokens returned by login, register and forgot_password and sends
// them on guarded calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const apiPrefix = "/v1/api/admin"

var schemeRE = regexp.MustCompile(`(?i)^https?://`)

// Envelope mirrors the server's response body. Data is left raw so callers
// decode it into the shape they expect.
type Envelope struct {
	Code    int             `json:"code"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Response is the outcome of a call that reached the server. Envelope is
// nil when the body was empty or not JSON; the body is then kept in Raw.
type Response struct {
	OK       bool
	Status   int
	Envelope *Envelope
	Raw      []byte
}

// Decode unmarshals the envelope's data into v.
func (r *Response) Decode(v any) error {
	if r.Envelope == nil || len(r.Envelope.Data) == 0 {
		return fmt.Errorf("response %d has no data", r.Status)
	}
	return json.Unmarshal(r.Envelope.Data, v)
}

// Message returns the envelope message, or the raw body when there is none.
func (r *Response) Message() string {
	if r.Envelope != nil {
		return r.Envelope.Message
	}
	return string(r.Raw)
}

// File is one multipart upload.
type File struct {
	Field string
	Name  string
	Data  io.Reader
}

// Client talks to one portal server.
type Client struct {
	base   string
	hc     *http.Client
	tokens TokenStore
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.hc = h }
}

func WithTokenStore(s TokenStore) Option {
	return func(c *Client) { c.tokens = s }
}

// New returns a client for baseURL. A missing scheme defaults to http and a
// trailing slash is dropped.
func New(baseURL string, opts ...Option) *Client {
	base := strings.TrimSpace(baseURL)
	if !schemeRE.MatchString(base) {
		base = "http://" + base
	}
	c := &Client{
		base:   strings.TrimSuffix(base, "/"),
		hc:     &http.Client{Timeout: 10 * time.Second},
		tokens: &MemoryTokenStore{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL is the normalized server address.
func (c *Client) BaseURL() string { return c.base }

// Tokens exposes the store holding the current session.
func (c *Client) Tokens() TokenStore { return c.tokens }

type tokenData struct {
	AuthToken    string `json:"auth_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register signs up with multipart profile fields and optional documents.
func (c *Client) Register(ctx context.Context, fields map[string]string, files []File) (*Response, error) {
	res, err := c.postMultipart(ctx, "/register", fields, files, false)
	if err != nil {
		return nil, err
	}
	c.keepTokens(res)
	return res, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*Response, error) {
	res, err := c.postJSON(ctx, "/login", map[string]string{"username": username, "password": password}, false)
	if err != nil {
		return nil, err
	}
	c.keepTokens(res)
	return res, nil
}

// ForgotPassword requests an OTP. The returned OTP-session token replaces
// the auth token; it authorizes OTPVerify, ResendOTP and ResetPassword.
func (c *Client) ForgotPassword(ctx context.Context, username string) (*Response, error) {
	res, err := c.postJSON(ctx, "/forgot_password", map[string]string{"username": username}, false)
	if err != nil {
		return nil, err
	}
	c.keepTokens(res)
	return res, nil
}

func (c *Client) OTPVerify(ctx context.Context, otp int) (*Response, error) {
	return c.postJSON(ctx, "/otp_verify", map[string]int{"otp": otp}, true)
}

func (c *Client) ResendOTP(ctx context.Context) (*Response, error) {
	return c.postJSON(ctx, "/resend_otp", struct{}{}, true)
}

func (c *Client) ResetPassword(ctx context.Context, password string) (*Response, error) {
	return c.postJSON(ctx, "/reset_password", map[string]string{"password": password}, true)
}

// Logout ends the server session. Local tokens are dropped once the server
// has answered, whatever it said.
func (c *Client) Logout(ctx context.Context) (*Response, error) {
	res, err := c.postJSON(ctx, "/logout", struct{}{}, true)
	if err != nil {
		return nil, err
	}
	c.tokens.Clear()
	return res, nil
}

// RefreshToken trades the stored refresh token for a new auth token.
func (c *Client) RefreshToken(ctx context.Context, userID uint64) (*Response, error) {
	body, err := json.Marshal(map[string]uint64{"user_id": userID})
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/refresh_token", bytes.NewReader(body), false)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("refresh_token", c.tokens.RefreshToken())
	res, err := c.do(req)
	if err != nil {
		return nil, err
	}
	c.keepTokens(res)
	return res, nil
}

// SubmitApplication creates an application, or updates one when fields
// carries an "id".
func (c *Client) SubmitApplication(ctx context.Context, fields map[string]string, files []File) (*Response, error) {
	return c.postMultipart(ctx, "/application", fields, files, true)
}

func (c *Client) ListApplications(ctx context.Context, page, limit int) (*Response, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/applications"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) GetApplication(ctx context.Context, id uint64) (*Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/application/"+strconv.FormatUint(id, 10), nil, true)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// keepTokens stores whatever tokens a successful response carried.
func (c *Client) keepTokens(res *Response) {
	if !res.OK {
		return
	}
	var t tokenData
	if err := res.Decode(&t); err != nil || t.AuthToken == "" {
		return
	}
	c.tokens.Save(t.AuthToken, t.RefreshToken)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, guarded bool) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body), guarded)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) postMultipart(ctx context.Context, path string, fields map[string]string, files []File, guarded bool) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		if f.Data == nil {
			continue
		}
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, f.Data); err != nil {
			return nil, fmt.Errorf("copy %s: %w", f.Field, err)
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, &buf, guarded)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, guarded bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+apiPrefix+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if guarded {
		if tok := c.tokens.AuthToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	res := &Response{
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status: resp.StatusCode,
	}
	var env Envelope
	if len(raw) > 0 && json.Unmarshal(raw, &env) == nil {
		res.Envelope = &env
	} else {
		res.Raw = raw
	}
	return res, nil
}
