package service

import (
	"context"
	"time"

	"github.com/iliyamo/visa-portal/internal/model"
	"github.com/iliyamo/visa-portal/internal/repository"
)

type fakeUsers struct {
	CreateFunc              func(ctx context.Context, u model.User) (uint64, error)
	UpdateFunc              func(ctx context.Context, u model.User) error
	GetActiveByUsernameFunc func(ctx context.Context, username string) (model.User, error)
	GetActiveByIDFunc       func(ctx context.Context, id uint64) (model.User, error)
	UsernameTakenFunc       func(ctx context.Context, username string, excludeID uint64) (bool, error)
	SetOTPFunc              func(ctx context.Context, id uint64, otp int, expiresAt time.Time) error
	MarkOTPVerifiedFunc     func(ctx context.Context, id uint64, otp int) error
	ResetPasswordFunc       func(ctx context.Context, id uint64, hash string) error
	ListFunc                func(ctx context.Context, page, limit int) ([]model.UserSummary, int64, error)
	SoftDeleteFunc          func(ctx context.Context, id uint64) error
}

func (f *fakeUsers) Create(ctx context.Context, u model.User) (uint64, error) {
	return f.CreateFunc(ctx, u)
}

func (f *fakeUsers) Update(ctx context.Context, u model.User) error {
	return f.UpdateFunc(ctx, u)
}

func (f *fakeUsers) GetActiveByUsername(ctx context.Context, username string) (model.User, error) {
	if f.GetActiveByUsernameFunc == nil {
		return model.User{}, repository.ErrNotFound
	}
	return f.GetActiveByUsernameFunc(ctx, username)
}

func (f *fakeUsers) GetActiveByID(ctx context.Context, id uint64) (model.User, error) {
	if f.GetActiveByIDFunc == nil {
		return model.User{}, repository.ErrNotFound
	}
	return f.GetActiveByIDFunc(ctx, id)
}

func (f *fakeUsers) UsernameTaken(ctx context.Context, username string, excludeID uint64) (bool, error) {
	if f.UsernameTakenFunc == nil {
		return false, nil
	}
	return f.UsernameTakenFunc(ctx, username, excludeID)
}

func (f *fakeUsers) SetOTP(ctx context.Context, id uint64, otp int, expiresAt time.Time) error {
	return f.SetOTPFunc(ctx, id, otp, expiresAt)
}

func (f *fakeUsers) MarkOTPVerified(ctx context.Context, id uint64, otp int) error {
	return f.MarkOTPVerifiedFunc(ctx, id, otp)
}

func (f *fakeUsers) ResetPassword(ctx context.Context, id uint64, hash string) error {
	return f.ResetPasswordFunc(ctx, id, hash)
}

func (f *fakeUsers) List(ctx context.Context, page, limit int) ([]model.UserSummary, int64, error) {
	return f.ListFunc(ctx, page, limit)
}

func (f *fakeUsers) SoftDelete(ctx context.Context, id uint64) error {
	return f.SoftDeleteFunc(ctx, id)
}

// memTokens is an in-memory TokenStore keyed by user id.
type memTokens struct {
	rows map[uint64]model.UserToken
}

func newMemTokens() *memTokens { return &memTokens{rows: map[uint64]model.UserToken{}} }

func (m *memTokens) UpsertPair(_ context.Context, userID uint64, authToken, refreshToken string) error {
	m.rows[userID] = model.UserToken{UserID: userID, AuthToken: authToken, RefreshToken: refreshToken}
	return nil
}

func (m *memTokens) UpsertAuth(_ context.Context, userID uint64, authToken string) error {
	t := m.rows[userID]
	t.UserID = userID
	t.AuthToken = authToken
	m.rows[userID] = t
	return nil
}

func (m *memTokens) GetByUserID(_ context.Context, userID uint64) (model.UserToken, error) {
	t, ok := m.rows[userID]
	if !ok {
		return model.UserToken{}, repository.ErrNotFound
	}
	return t, nil
}

func (m *memTokens) DeleteByUserID(_ context.Context, userID uint64) error {
	if _, ok := m.rows[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, userID)
	return nil
}

type fakeSender struct {
	to   []string
	otps []int
	err  error
}

func (f *fakeSender) SendOTP(_ context.Context, to string, otp int) error {
	f.to = append(f.to, to)
	f.otps = append(f.otps, otp)
	return f.err
}

type fakeApps struct {
	CreateFunc          func(ctx context.Context, ownerID uint64, a *model.Application) (uint64, error)
	UpdateFunc          func(ctx context.Context, a *model.Application) error
	GetByIDFunc         func(ctx context.Context, id uint64) (model.Application, error)
	GetByIDForOwnerFunc func(ctx context.Context, id, ownerID uint64) (model.Application, error)
	ListFunc            func(ctx context.Context, owner *uint64, page, limit int) ([]model.Application, int64, error)
}

func (f *fakeApps) Create(ctx context.Context, ownerID uint64, a *model.Application) (uint64, error) {
	return f.CreateFunc(ctx, ownerID, a)
}

func (f *fakeApps) Update(ctx context.Context, a *model.Application) error {
	return f.UpdateFunc(ctx, a)
}

func (f *fakeApps) GetByID(ctx context.Context, id uint64) (model.Application, error) {
	return f.GetByIDFunc(ctx, id)
}

func (f *fakeApps) GetByIDForOwner(ctx context.Context, id, ownerID uint64) (model.Application, error) {
	return f.GetByIDForOwnerFunc(ctx, id, ownerID)
}

func (f *fakeApps) List(ctx context.Context, owner *uint64, page, limit int) ([]model.Application, int64, error) {
	return f.ListFunc(ctx, owner, page, limit)
}
