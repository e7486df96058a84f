// Package apperr is the portal's error taxonomy. Services return *Error
// values carrying a message key and an HTTP status; the HTTP layer renders
// them through the response envelope.
package apperr

import (
	"errors"
	"net/http"
)

// Error is a keyed application error.
type Error struct {
	Key    string // message dictionary key, e.g. INVALID_EMAIL
	Status int    // HTTP status the key maps to
	Err    error  // optional cause, never shown to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Key + ": " + e.Err.Error()
	}
	return e.Key
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same key, so wrapped copies produced by
// Wrap still compare equal to the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Key == e.Key
}

// New declares a keyed error.
func New(key string, status int) *Error {
	return &Error{Key: key, Status: status}
}

// Wrap attaches a cause to a copy of e.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Key: e.Key, Status: e.Status, Err: cause}
}

// From extracts the *Error in err's chain. Anything else becomes a 500
// SOMETHING_WENT_WRONG carrying err as its cause.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Status == 0 {
			return &Error{Key: ae.Key, Status: http.StatusInternalServerError, Err: ae.Err}
		}
		return ae
	}
	return ErrSomethingWentWrong.Wrap(err)
}

var (
	ErrSomethingWentWrong = New("SOMETHING_WENT_WRONG", http.StatusInternalServerError)
	ErrBadRequest         = New("BAD_REQUEST", http.StatusBadRequest)

	// credentials and tokens
	ErrInvalidEmail      = New("INVALID_EMAIL", http.StatusUnauthorized)
	ErrInvalidPassword   = New("INVALID_PASSWORD", http.StatusUnauthorized)
	ErrAuthTokenRequired = New("AUTH_TOKEN_REQUIRED", http.StatusUnauthorized)
	ErrTokenMalformed    = New("TOKEN_MALFORMED", http.StatusUnauthorized)
	ErrTokenExpired      = New("TOKEN_EXPIRED", http.StatusUnauthorized)
	ErrTokenInvalid      = New("TOKEN_INVALID", http.StatusUnauthorized)
	ErrRefreshMalformed  = New("REFRESH_MALFORMED", http.StatusUnauthorized)
	ErrRefreshRequired   = New("REFRESH_TOKEN_REQUIRED", http.StatusUnauthorized)
	ErrAdminOnly         = New("ADMIN_ONLY", http.StatusForbidden)

	// otp and password reset
	ErrIncorrectOTP        = New("INCORRECT_OTP", http.StatusUnauthorized)
	ErrOTPExpired          = New("OTP_EXPIRED", http.StatusUnauthorized)
	ErrOTPNotVerified      = New("OTP_NOT_VERIFIED", http.StatusForbidden)
	ErrOldNewPasswordSame  = New("OLD_NEW_PASSWORD_SAME", http.StatusUnauthorized)
	ErrEmailSendFailed     = New("EMAIL_SEND_FAILED", http.StatusInternalServerError)
	ErrIDNotFound          = New("ID_NOT_FOUND", http.StatusNotFound)
	ErrUserIDNotFound      = New("USER_ID_NOT_FOUND", http.StatusNotFound)
	ErrTooManyRequests     = New("TOO_MANY_REQUESTS", http.StatusTooManyRequests)
	ErrUsernameRequired    = New("USERNAME_REQUIRED", http.StatusBadRequest)
	ErrPasswordRequired    = New("PASSWORD_REQUIRED", http.StatusBadRequest)
	ErrPasswordMismatch    = New("PASSWORD_MISMATCH", http.StatusBadRequest)
	ErrEmailAlreadyExists  = New("EMAIL_ALREADY_EXISTS", http.StatusConflict)
	ErrUserNotFound        = New("USER_NOT_FOUND", http.StatusNotFound)
	ErrApplicationNotFound = New("APPLICATION_NOT_FOUND", http.StatusNotFound)
	ErrInvalidFileType     = New("INVALID_FILE_TYPE", http.StatusBadRequest)
	ErrFileTooLarge        = New("FILE_TOO_LARGE", http.StatusBadRequest)
)
