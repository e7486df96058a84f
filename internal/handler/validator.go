package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/visa-portal/internal/apperr"
)

// RequestValidator plugs validator/v10 into echo. Field names in errors are
// the json (or form) names so they can be turned into message keys.
type RequestValidator struct {
	v *validator.Validate
}

func NewValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}

// bind decodes and validates req, returning a keyed 400 on failure.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperr.ErrBadRequest.Wrap(err)
	}
	if err := c.Validate(req); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError turns the first field error into USERNAME_REQUIRED,
// PASSWORD_MISMATCH or INVALID_<FIELD>.
func validationError(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return apperr.ErrBadRequest.Wrap(err)
	}
	fe := ves[0]
	field := strings.ToUpper(fe.Field())
	switch fe.Tag() {
	case "required":
		return apperr.New(field+"_REQUIRED", http.StatusBadRequest).Wrap(err)
	case "eqfield":
		return apperr.ErrPasswordMismatch.Wrap(err)
	default:
		return apperr.New("INVALID_"+field, http.StatusBadRequest).Wrap(err)
	}
}
