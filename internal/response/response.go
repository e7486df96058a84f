// Package response writes the uniform JSON envelope every endpoint uses:
//
//	{"code":1,"status":"SUCCESS","message":"...","data":{...}}
//	{"code":0,"status":"FAIL","message":"..."}
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/visa-portal/internal/apperr"
)

const (
	StatusSuccess = "SUCCESS"
	StatusFail    = "FAIL"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success writes a 200 envelope. key is resolved through the message
// dictionary; nil data is sent as an empty object.
func Success(c echo.Context, key string, data any) error {
	if data == nil {
		data = struct{}{}
	}
	return c.JSON(http.StatusOK, Envelope{
		Code:    1,
		Status:  StatusSuccess,
		Message: apperr.Message(key),
		Data:    data,
	})
}

// Fail renders err as a failure envelope with its mapped HTTP status and
// logs it with the request line.
func Fail(c echo.Context, log *zap.Logger, err error) error {
	ae := apperr.From(err)
	if log != nil {
		fields := []zap.Field{
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.String("key", ae.Key),
			zap.Int("status", ae.Status),
		}
		if ae.Err != nil {
			fields = append(fields, zap.Error(ae.Err))
		}
		if ae.Status >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
		} else {
			log.Info("request rejected", fields...)
		}
	}
	return c.JSON(ae.Status, Envelope{
		Code:    0,
		Status:  StatusFail,
		Message: apperr.Message(ae.Key),
	})
}
