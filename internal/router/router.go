// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/visa-portal/internal/handler"
	"github.com/iliyamo/visa-portal/internal/middleware"
	"github.com/iliyamo/visa-portal/internal/utils"
)

// Prefix is the path every API route lives under.
const Prefix = "/v1/api/admin"

// Deps bundles what RegisterRoutes needs.
type Deps struct {
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Applications *handler.ApplicationHandler
	JWTSecret    string
	RateLimit    echo.MiddlewareFunc // wraps the unauthenticated and OTP routes; may be nil
	UploadDir    string
	Log          *zap.Logger
}

// RegisterRoutes mounts the API under Prefix and serves uploads at /public.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.Static("/public", d.UploadDir)

	api := e.Group(Prefix)
	api.GET("/health", handler.Health)

	limit := d.RateLimit
	if limit == nil {
		limit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	// no session required
	api.POST("/login", d.Auth.Login, limit)
	api.POST("/register", d.Auth.Register, limit)
	api.POST("/forgot_password", d.Auth.ForgotPassword, limit)
	api.POST("/refresh_token", d.Auth.RefreshToken, limit)

	guard := middleware.JWTAuth(d.JWTSecret, d.Log)
	// password reset takes the OTP-session token from forgot_password or a normal session
	otp := []echo.MiddlewareFunc{guard, middleware.RequirePurpose(d.Log, utils.PurposeOTP, utils.PurposeAccess)}
	session := []echo.MiddlewareFunc{guard, middleware.RequirePurpose(d.Log, utils.PurposeAccess)}
	admin := append(session[:len(session):len(session)], middleware.RequireAdmin(d.Log))

	// Per-route middleware: groups sharing this prefix would overwrite each
	// other's not-found routes.
	api.POST("/resend_otp", d.Auth.ResendOTP, append(otp, limit)...)
	api.POST("/otp_verify", d.Auth.OTPVerify, append(otp, limit)...)
	api.POST("/reset_password", d.Auth.ResetPassword, otp...)

	api.POST("/logout", d.Auth.Logout, session...)
	api.POST("/application", d.Applications.Submit, session...)
	api.GET("/applications", d.Applications.List, session...)
	api.GET("/application/:id", d.Applications.Get, session...)

	api.POST("/getAllUsers", d.Users.GetAllUsers, admin...)
	api.GET("/getUserById", d.Users.GetUserByID, admin...)
	api.POST("/createUser", d.Users.CreateUser, admin...)
	api.POST("/deleteUser", d.Users.DeleteUser, admin...)
}
