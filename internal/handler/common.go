package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/visa-portal/internal/apperr"
	"github.com/iliyamo/visa-portal/internal/middleware"
	"github.com/iliyamo/visa-portal/internal/service"
	"github.com/iliyamo/visa-portal/internal/upload"
)

const (
	callTimeout   = 5 * time.Second
	uploadTimeout = 15 * time.Second

	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Uploader persists an uploaded file and returns its public URL. Remove
// deletes a file previously returned by Save.
type Uploader interface {
	Save(fh *multipart.FileHeader, r upload.Rule) (string, error)
	Remove(url string) error
}

func timeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), d)
}

// caller reads the identity stored by the JWT guard.
func caller(c echo.Context) (service.Caller, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return service.Caller{}, apperr.ErrAuthTokenRequired
	}
	return service.Caller{UserID: id.UserID, IsAdmin: id.IsAdmin}, nil
}

// limitParam is pageParam for page sizes, capped at maxLimit.
func limitParam(s string) int {
	return min(pageParam(s, defaultLimit), maxLimit)
}

// pageParam parses a page or limit value, falling back to def when it is
// absent, not a number or below one.
func pageParam(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// flexInt decodes a JSON number or numeric string. Anything else decodes
// to zero, which pageParam-style callers treat as absent.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*f = 0
			return nil
		}
		n = json.Number(s)
	}
	v, err := n.Int64()
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(v)
	return nil
}

func (f flexInt) orDefault(def int) int {
	if f < 1 {
		return def
	}
	return int(f)
}

// saveOptional stores the file under r.Field when the request carries one.
func saveOptional(c echo.Context, up Uploader, r upload.Rule) (*string, error) {
	fh, err := c.FormFile(r.Field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.ErrBadRequest.Wrap(err)
	}
	url, err := up.Save(fh, r)
	if err != nil {
		return nil, err
	}
	return &url, nil
}

// discardUploads removes files saved for a request that then failed.
func discardUploads(up Uploader, log *zap.Logger, urls ...*string) {
	for _, u := range urls {
		if u == nil {
			continue
		}
		if err := up.Remove(*u); err != nil {
			log.Warn("upload: remove orphaned file", zap.String("url", *u), zap.Error(err))
		}
	}
}
