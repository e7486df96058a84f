package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/visa-portal/internal/apperr"
	"github.com/iliyamo/visa-portal/internal/model"
	"github.com/iliyamo/visa-portal/internal/repository"
	"github.com/iliyamo/visa-portal/internal/utils"
)

// UserService is the admin side of account management.
type UserService struct {
	users      UserStore
	bcryptCost int
}

func NewUserService(users UserStore, bcryptCost int) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost}
}

// UserInput creates a user when ID is zero and updates user ID otherwise.
type UserInput struct {
	ID              uint64
	Username        string
	Password        string
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
	IsAdmin         bool
}

type UserPage struct {
	Users []model.UserSummary `json:"users"`
	Total int64               `json:"total"`
}

func (s *UserService) ListUsers(ctx context.Context, page, limit int) (UserPage, error) {
	users, total, err := s.users.List(ctx, page, limit)
	if err != nil {
		return UserPage{}, fmt.Errorf("list users: %w", err)
	}
	return UserPage{Users: users, Total: total}, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.users.GetActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, apperr.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// CreateOrUpdateUser saves in on behalf of caller. The password is required
// on create and left untouched on update when empty.
func (s *UserService) CreateOrUpdateUser(ctx context.Context, caller Caller, in UserInput) (model.User, error) {
	if in.Username == "" {
		return model.User{}, apperr.ErrUsernameRequired
	}
	if in.Password == "" && in.ID == 0 {
		return model.User{}, apperr.ErrPasswordRequired
	}

	taken, err := s.users.UsernameTaken(ctx, in.Username, in.ID)
	if err != nil {
		return model.User{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return model.User{}, apperr.ErrEmailAlreadyExists
	}

	var u model.User
	if in.ID != 0 {
		if u, err = s.GetUser(ctx, in.ID); err != nil {
			return model.User{}, err
		}
	} else {
		createdBy := caller.UserID
		u.CreatedBy = &createdBy
		u.IsActive = true
	}

	u.Username = repository.NormalizeUsername(in.Username)
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.DocumentType = in.DocumentType
	u.Country = in.Country
	u.DocumentNumber = in.DocumentNumber
	u.DocExpiry = in.DocExpiry
	u.DOB = in.DOB
	u.Gender = in.Gender
	u.ForeignReg = in.ForeignReg
	u.ForeignerNumber = in.ForeignerNumber
	u.IsAdmin = in.IsAdmin
	u.Terms = true
	u.AutoRead = true
	if in.Password != "" {
		hash, err := utils.HashPassword(in.Password, s.bcryptCost)
		if err != nil {
			return model.User{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	id := in.ID
	if id != 0 {
		err = s.users.Update(ctx, u)
	} else {
		id, err = s.users.Create(ctx, u)
	}
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return model.User{}, apperr.ErrEmailAlreadyExists
	case errors.Is(err, repository.ErrNotFound):
		return model.User{}, apperr.ErrUserNotFound
	case err != nil:
		return model.User{}, fmt.Errorf("save user: %w", err)
	}
	return s.GetUser(ctx, id)
}

// DeleteUser soft-deletes user id and returns the row as it was before.
func (s *UserService) DeleteUser(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if err := s.users.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, apperr.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("delete user: %w", err)
	}
	return u, nil
}
