package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/visa-portal/internal/apperr"
	"github.com/iliyamo/visa-portal/internal/response"
	"github.com/iliyamo/visa-portal/internal/service"
	"github.com/iliyamo/visa-portal/internal/upload"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (service.LoginResult, error)
	Register(ctx context.Context, in service.RegisterInput, documentURL *string) (service.RegisterResult, error)
	RefreshToken(ctx context.Context, presented string, userID uint64) (string, error)
	ForgotPassword(ctx context.Context, username string) (service.ForgotResult, error)
	ResendOTP(ctx context.Context, userID uint64) error
	VerifyOTP(ctx context.Context, userID uint64, otp int) error
	ResetPassword(ctx context.Context, userID uint64, password string) error
	Logout(ctx context.Context, userID uint64) error
}

// AuthHandler serves login, registration and the password-reset flow.
type AuthHandler struct {
	Auth    AuthService
	Uploads Uploader
	Log     *zap.Logger
}

func NewAuthHandler(auth AuthService, uploads Uploader, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Uploads: uploads, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerReq struct {
	Username        string `form:"username" json:"username" validate:"required,email"`
	Password        string `form:"password" json:"password" validate:"required"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword" validate:"eqfield=Password"`
	FirstName       string `form:"firstName" json:"firstName"`
	LastName        string `form:"lastName" json:"lastName"`
	DocumentType    string `form:"documentType" json:"documentType"`
	Country         string `form:"country" json:"country"`
	DocumentNumber  string `form:"documentNumber" json:"documentNumber"`
	DocExpiry       string `form:"docExpiry" json:"docExpiry"`
	DOB             string `form:"dob" json:"dob"`
	Gender          string `form:"gender" json:"gender"`
	ForeignReg      string `form:"foreignReg" json:"foreignReg"`
	ForeignerNumber string `form:"foreignerNumber" json:"foreignerNumber"`
	Terms           string `form:"terms" json:"terms"`
	AutoRead        string `form:"autoRead" json:"autoRead"`
}

type refreshReq struct {
	UserID uint64 `json:"user_id" validate:"required"`
}

type forgotReq struct {
	Username string `json:"username" validate:"required"`
}

type otpVerifyReq struct {
	OTP int `json:"otp" validate:"required,min=1000,max=9999"`
}

type resetReq struct {
	Password string `json:"password" validate:"required"`
}

// formBool reads the "true"/"false" strings multipart forms carry.
func formBool(s string) (bool, bool) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return b, err == nil
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return response.Fail(c, h.Log, err)
	}
	ctx, cancel := timeout(c, callTimeout)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	return response.Success(c, "LOGIN_SUCCESS", res)
}

// Register accepts a multipart form with an optional "document" scan.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return response.Fail(c, h.Log, err)
	}
	ctx, cancel := timeout(c, uploadTimeout)
	defer cancel()

	docURL, err := saveOptional(c, h.Uploads, upload.Document)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}

	in := service.RegisterInput{
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		DocumentType:    req.DocumentType,
		Country:         req.Country,
		DocumentNumber:  req.DocumentNumber,
		DocExpiry:       req.DocExpiry,
		DOB:             req.DOB,
		Gender:          req.Gender,
		ForeignerNumber: req.ForeignerNumber,
	}
	in.ForeignReg, _ = formBool(req.ForeignReg)
	in.Terms, _ = formBool(req.Terms)
	if b, ok := formBool(req.AutoRead); ok {
		in.AutoRead = &b
	}

	res, err := h.Auth.Register(ctx, in, docURL)
	if err != nil {
		discardUploads(h.Uploads, h.Log, docURL)
		return response.Fail(c, h.Log, err)
	}
	return response.Success(c, "REGISTER_SUCCESS", res)
}

// RefreshToken reads the refresh token from the "refresh_token" header.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	presented := strings.TrimSpace(c.Request().Header.Get("refresh_token"))
	if presented == "" {
		return response.Fail(c, h.Log, apperr.ErrRefreshRequired)
	}
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return response.Fail(c, h.Log, err)
	}
	ctx, cancel := timeout(c, callTimeout)
	defer cancel()

	token, err := h.Auth.RefreshToken(ctx, presented, req.UserID)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	return response.Success(c, "TOKEN_REFRESHED", echo.Map{"auth_token": token})
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := bind(c, &req); err != nil {
		return response.Fail(c, h.Log, err)
	}
	ctx, cancel := timeout(c, callTimeout)
	defer cancel()

	res, err := h.Auth.ForgotPassword(ctx, req.Username)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	return response.Success(c, "FORGOT_EMAIL_SENT", res)
}

// The handlers below act on the caller from the bearer token; a user_id
// in the body is ignored.

func (h *AuthHandler) ResendOTP(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	ctx, cancel := timeout(c, callTimeout)
	defer cancel()

	if err := h.Auth.ResendOTP(ctx, who.UserID); err != nil {
		return response.Fail(c, h.Log, err)
	}
	return response.Success(c, "OTP_RESEND", echo.Map{"message": "OTP_RESEND"})
}

func (h *AuthHandler) OTPVerify(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	var req otpVerifyReq
	if err := bind(c, &req); err != nil {
		return response.Fail(c, h.Log, err)
	}
	ctx, cancel := timeout(c, callTimeout)
	defer cancel()

	if err := h.Auth.VerifyOTP(ctx, who.UserID, req.OTP); err != nil {
		return response.Fail(c, h.Log, err)
	}
	return response.Success(c, "OTP_VERIFY", nil)
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	var req resetReq
	if err := bind(c, &req); err != nil {
		return response.Fail(c, h.Log, err)
	}
	ctx, cancel := timeout(c, callTimeout)
	defer cancel()

	if err := h.Auth.ResetPassword(ctx, who.UserID, req.Password); err != nil {
		return response.Fail(c, h.Log, err)
	}
	return response.Success(c, "RESET_SUCCESS", nil)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	ctx, cancel := timeout(c, callTimeout)
	defer cancel()

	if err := h.Auth.Logout(ctx, who.UserID); err != nil {
		return response.Fail(c, h.Log, err)
	}
	return response.Success(c, "LOGOUT_SUCCESS", nil)
}
