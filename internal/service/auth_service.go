package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/visa-portal/internal/apperr"
	"github.com/iliyamo/visa-portal/internal/model"
	"github.com/iliyamo/visa-portal/internal/repository"
	"github.com/iliyamo/visa-portal/internal/utils"
)

// AuthConfig carries the token and OTP settings AuthService needs.
type AuthConfig struct {
	Secret             string
	AccessTTL          time.Duration
	RefreshTTL         time.Duration
	OTPTokenTTL        time.Duration
	OTPTTL             time.Duration
	BcryptCost         int
	ExposeOTP          bool // return the OTP in the forgot-password response (local development only)
	RequireOTPVerified bool // refuse a password reset until the OTP was confirmed
}

// AuthService implements login, registration, token refresh and the
// OTP-gated password reset.
type AuthService struct {
	users  UserStore
	tokens TokenStore
	sender OTPSender
	cfg    AuthConfig
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(users UserStore, tokens TokenStore, sender OTPSender, cfg AuthConfig, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, tokens: tokens, sender: sender, cfg: cfg, log: log, now: time.Now}
}

type LoginResult struct {
	UserDetails  model.User `json:"userDetails"`
	AuthToken    string     `json:"auth_token"`
	RefreshToken string     `json:"refresh_token"`
}

type RegisterResult struct {
	Saved        model.User `json:"saved"`
	AuthToken    string     `json:"auth_token"`
	RefreshToken string     `json:"refresh_token"`
}

type ForgotResult struct {
	AuthToken string `json:"auth_token"`
	OTP       *int   `json:"otp,omitempty"`
}

// RegisterInput is a self-service sign-up. AutoRead defaults to true when nil.
type RegisterInput struct {
	Username        string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
	DocumentType    string
	Country         string
	DocumentNumber  string
	DocExpiry       string
	DOB             string
	Gender          string
	ForeignReg      bool
	ForeignerNumber string
	Terms           bool
	AutoRead        *bool
}

// Login checks the credentials of a live user and issues a fresh
// access/refresh pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	u, err := s.users.GetActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, apperr.ErrInvalidEmail
		}
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return LoginResult{}, apperr.ErrInvalidPassword
	}

	access, refresh, err := s.issuePair(ctx, u)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{UserDetails: u, AuthToken: access, RefreshToken: refresh}, nil
}

// Register creates an applicant account and logs it in. documentURL is the
// public URL of the uploaded ID scan, or nil.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, documentURL *string) (RegisterResult, error) {
	switch {
	case in.Username == "":
		return RegisterResult{}, apperr.ErrUsernameRequired
	case in.Password == "":
		return RegisterResult{}, apperr.ErrPasswordRequired
	case in.Password != in.ConfirmPassword:
		return RegisterResult{}, apperr.ErrPasswordMismatch
	}

	taken, err := s.users.UsernameTaken(ctx, in.Username, 0)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return RegisterResult{}, apperr.ErrEmailAlreadyExists
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("hash password: %w", err)
	}
	autoRead := true
	if in.AutoRead != nil {
		autoRead = *in.AutoRead
	}
	u := model.User{
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		DocumentType:    in.DocumentType,
		Country:         in.Country,
		DocumentNumber:  in.DocumentNumber,
		DocExpiry:       in.DocExpiry,
		DOB:             in.DOB,
		Gender:          in.Gender,
		ForeignReg:      in.ForeignReg,
		ForeignerNumber: in.ForeignerNumber,
		Username:        repository.NormalizeUsername(in.Username),
		PasswordHash:    hash,
		Terms:           in.Terms,
		AutoRead:        autoRead,
		IsActive:        true,
		DocumentFile:    documentURL,
	}

	id, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return RegisterResult{}, apperr.ErrEmailAlreadyExists
		}
		return RegisterResult{}, fmt.Errorf("create user: %w", err)
	}
	saved, err := s.users.GetActiveByID(ctx, id)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("reload user: %w", err)
	}

	access, refresh, err := s.issuePair(ctx, saved)
	if err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{Saved: saved, AuthToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) issuePair(ctx context.Context, u model.User) (string, string, error) {
	access, err := utils.NewToken(s.cfg.Secret, u.ID, u.IsAdmin, utils.PurposeAccess, s.cfg.AccessTTL)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := utils.NewToken(s.cfg.Secret, u.ID, u.IsAdmin, utils.PurposeRefresh, s.cfg.RefreshTTL)
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}
	if err := s.tokens.UpsertPair(ctx, u.ID, access.Token, refresh.Token); err != nil {
		return "", "", fmt.Errorf("store tokens: %w", err)
	}
	return access.Token, refresh.Token, nil
}

// RefreshToken mints a new access token from a presented refresh token. The
// token must verify, carry the refresh purpose, belong to userID and match
// the refresh token stored for that user.
func (s *AuthService) RefreshToken(ctx context.Context, presented string, userID uint64) (string, error) {
	claims, err := utils.ParseToken(s.cfg.Secret, presented)
	if err != nil {
		return "", apperr.ErrRefreshMalformed.Wrap(err)
	}
	if claims.Purpose != utils.PurposeRefresh || claims.UserID != userID {
		return "", apperr.ErrRefreshMalformed
	}

	stored, err := s.tokens.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.ErrRefreshMalformed
		}
		return "", fmt.Errorf("load tokens: %w", err)
	}
	if !utils.SameSignature(presented, stored.RefreshToken) {
		return "", apperr.ErrRefreshMalformed
	}

	access, err := utils.NewToken(s.cfg.Secret, claims.UserID, claims.IsAdmin, utils.PurposeAccess, s.cfg.AccessTTL)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	if err := s.tokens.UpsertAuth(ctx, userID, access.Token); err != nil {
		return "", fmt.Errorf("store access token: %w", err)
	}
	return access.Token, nil
}

// ForgotPassword issues an OTP for username, mails it and returns an
// OTP-session token for the verify/reset calls. The OTP is stored before it
// is sent; a failed send leaves it in place and resend is the way out.
func (s *AuthService) ForgotPassword(ctx context.Context, username string) (ForgotResult, error) {
	u, err := s.users.GetActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ForgotResult{}, apperr.ErrInvalidEmail
		}
		return ForgotResult{}, fmt.Errorf("load user: %w", err)
	}

	otp, err := s.issueOTP(ctx, u)
	if err != nil {
		return ForgotResult{}, err
	}

	tok, err := utils.NewToken(s.cfg.Secret, u.ID, u.IsAdmin, utils.PurposeOTP, s.cfg.OTPTokenTTL)
	if err != nil {
		return ForgotResult{}, fmt.Errorf("sign otp token: %w", err)
	}
	if err := s.tokens.UpsertAuth(ctx, u.ID, tok.Token); err != nil {
		return ForgotResult{}, fmt.Errorf("store otp token: %w", err)
	}

	res := ForgotResult{AuthToken: tok.Token}
	if s.cfg.ExposeOTP {
		res.OTP = &otp
	}
	return res, nil
}

// ResendOTP replaces the user's OTP with a fresh one and mails it.
func (s *AuthService) ResendOTP(ctx context.Context, userID uint64) error {
	u, err := s.users.GetActiveByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrIDNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}
	_, err = s.issueOTP(ctx, u)
	return err
}

func (s *AuthService) issueOTP(ctx context.Context, u model.User) (int, error) {
	otp, err := utils.NewOTP()
	if err != nil {
		return 0, fmt.Errorf("generate otp: %w", err)
	}
	if err := s.users.SetOTP(ctx, u.ID, otp, s.now().Add(s.cfg.OTPTTL)); err != nil {
		return 0, fmt.Errorf("store otp: %w", err)
	}
	if err := s.sender.SendOTP(ctx, u.Username, otp); err != nil {
		s.log.Error("otp dispatch failed", zap.Uint64("user_id", u.ID), zap.Error(err))
		return 0, apperr.ErrEmailSendFailed.Wrap(err)
	}
	return otp, nil
}

// VerifyOTP confirms otp for userID. The flag is set with a conditional
// write so a code replaced in the meantime cannot be confirmed.
func (s *AuthService) VerifyOTP(ctx context.Context, userID uint64, otp int) error {
	u, err := s.users.GetActiveByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrIncorrectOTP
		}
		return fmt.Errorf("load user: %w", err)
	}
	if u.OTP == nil || *u.OTP != otp {
		return apperr.ErrIncorrectOTP
	}
	if u.OTPExpiresAt != nil && s.now().After(*u.OTPExpiresAt) {
		return apperr.ErrOTPExpired
	}
	if err := s.users.MarkOTPVerified(ctx, userID, otp); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrIncorrectOTP
		}
		return fmt.Errorf("mark otp verified: %w", err)
	}
	return nil
}

// ResetPassword sets a new password for userID and consumes the OTP state.
func (s *AuthService) ResetPassword(ctx context.Context, userID uint64, password string) error {
	if password == "" {
		return apperr.ErrPasswordRequired
	}
	u, err := s.users.GetActiveByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrIDNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}
	if s.cfg.RequireOTPVerified && !u.OTPVerified {
		return apperr.ErrOTPNotVerified
	}
	if utils.VerifyPassword(u.PasswordHash, password) {
		return apperr.ErrOldNewPasswordSame
	}

	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.ResetPassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrIDNotFound
		}
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// Logout drops the user's token row.
func (s *AuthService) Logout(ctx context.Context, userID uint64) error {
	if err := s.tokens.DeleteByUserID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrUserIDNotFound
		}
		return fmt.Errorf("delete tokens: %w", err)
	}
	return nil
}
