package handler

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/visa-portal/internal/apperr"
	"github.com/iliyamo/visa-portal/internal/model"
	"github.com/iliyamo/visa-portal/internal/response"
	"github.com/iliyamo/visa-portal/internal/service"
)

type UserService interface {
	ListUsers(ctx context.Context, page, limit int) (service.UserPage, error)
	GetUser(ctx context.Context, id uint64) (model.User, error)
	CreateOrUpdateUser(ctx context.Context, caller service.Caller, in service.UserInput) (model.User, error)
	DeleteUser(ctx context.Context, id uint64) (model.User, error)
}

// UserHandler is the admin user-management surface.
type UserHandler struct {
	Users UserService
	Log   *zap.Logger
}

func NewUserHandler(users UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{Users: users, Log: log}
}

type listUsersReq struct {
	Page  flexInt `json:"page"`
	Limit flexInt `json:"limit"`
}

type saveUserReq struct {
	ID              uint64 `json:"id"`
	Username        string `json:"username" validate:"required,email"`
	Password        string `json:"password"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	DocumentType    string `json:"documentType"`
	Country         string `json:"country"`
	DocumentNumber  string `json:"documentNumber"`
	DocExpiry       string `json:"docExpiry"`
	DOB             string `json:"dob"`
	Gender          string `json:"gender"`
	ForeignReg      bool   `json:"foreignReg"`
	ForeignerNumber string `json:"foreignerNumber"`
	IsAdmin         bool   `json:"is_admin"`
}

type deleteUserReq struct {
	ID uint64 `json:"id" validate:"required"`
}

// GetAllUsers is a POST taking {page, limit} in the body.
func (h *UserHandler) GetAllUsers(c echo.Context) error {
	var req listUsersReq
	if err := bind(c, &req); err != nil {
		return response.Fail(c, h.Log, err)
	}
	ctx, cancel := timeout(c, callTimeout)
	defer cancel()

	page, err := h.Users.ListUsers(ctx, req.Page.orDefault(defaultPage), min(req.Limit.orDefault(defaultLimit), maxLimit))
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	return response.Success(c, "USERS_FETCHED", page)
}

// GetUserByID reads the id from the query string.
func (h *UserHandler) GetUserByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.QueryParam("id"), 10, 64)
	if err != nil || id == 0 {
		return response.Fail(c, h.Log, apperr.ErrUserNotFound)
	}
	ctx, cancel := timeout(c, callTimeout)
	defer cancel()

	u, err := h.Users.GetUser(ctx, id)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	return response.Success(c, "USER_FETCHED", u)
}

// CreateUser creates a user, or updates one when the body carries an id.
func (h *UserHandler) CreateUser(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	var req saveUserReq
	if err := bind(c, &req); err != nil {
		return response.Fail(c, h.Log, err)
	}
	ctx, cancel := timeout(c, callTimeout)
	defer cancel()

	u, err := h.Users.CreateOrUpdateUser(ctx, who, service.UserInput{
		ID:              req.ID,
		Username:        req.Username,
		Password:        req.Password,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		DocumentType:    req.DocumentType,
		Country:         req.Country,
		DocumentNumber:  req.DocumentNumber,
		DocExpiry:       req.DocExpiry,
		DOB:             req.DOB,
		Gender:          req.Gender,
		ForeignReg:      req.ForeignReg,
		ForeignerNumber: req.ForeignerNumber,
		IsAdmin:         req.IsAdmin,
	})
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	return response.Success(c, "USER_CREATED", u)
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	var req deleteUserReq
	if err := bind(c, &req); err != nil {
		return response.Fail(c, h.Log, err)
	}
	ctx, cancel := timeout(c, callTimeout)
	defer cancel()

	u, err := h.Users.DeleteUser(ctx, req.ID)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	return response.Success(c, "USER_DELETED", u)
}
