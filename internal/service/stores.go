// Package service holds the portal's business operations. Services depend
// on the narrow store interfaces below so tests can swap in fakes; the
// production implementations live in internal/repository.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/visa-portal/internal/model"
)

type UserStore interface {
	Create(ctx context.Context, u model.User) (uint64, error)
	Update(ctx context.Context, u model.User) error
	GetActiveByUsername(ctx context.Context, username string) (model.User, error)
	GetActiveByID(ctx context.Context, id uint64) (model.User, error)
	UsernameTaken(ctx context.Context, username string, excludeID uint64) (bool, error)
	SetOTP(ctx context.Context, id uint64, otp int, expiresAt time.Time) error
	MarkOTPVerified(ctx context.Context, id uint64, otp int) error
	ResetPassword(ctx context.Context, id uint64, hash string) error
	List(ctx context.Context, page, limit int) ([]model.UserSummary, int64, error)
	SoftDelete(ctx context.Context, id uint64) error
}

type TokenStore interface {
	UpsertPair(ctx context.Context, userID uint64, authToken, refreshToken string) error
	UpsertAuth(ctx context.Context, userID uint64, authToken string) error
	GetByUserID(ctx context.Context, userID uint64) (model.UserToken, error)
	DeleteByUserID(ctx context.Context, userID uint64) error
}

type ApplicationStore interface {
	Create(ctx context.Context, ownerID uint64, a *model.Application) (uint64, error)
	Update(ctx context.Context, a *model.Application) error
	GetByID(ctx context.Context, id uint64) (model.Application, error)
	GetByIDForOwner(ctx context.Context, id, ownerID uint64) (model.Application, error)
	List(ctx context.Context, owner *uint64, page, limit int) ([]model.Application, int64, error)
}

// OTPSender delivers a one-time password to an e-mail address. Implemented
// by mail.SMTPSender, mail.LogSender and queue.Publisher.
type OTPSender interface {
	SendOTP(ctx context.Context, to string, otp int) error
}

// Caller is the authenticated user on whose behalf an operation runs.
type Caller struct {
	UserID  uint64
	IsAdmin bool
}
