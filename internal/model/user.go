package model

import "time"

// User represents a row of the `users` table. Password and OTP fields are
// never serialized; handlers that need a narrower view use UserSummary.
type User struct {
	ID              uint64     `json:"id"`               // users.id
	FirstName       string     `json:"first_name"`       // users.first_name
	LastName        string     `json:"last_name"`        // users.last_name
	DocumentType    string     `json:"document_type"`    // users.document_type
	Country         string     `json:"country"`          // users.country
	DocumentNumber  string     `json:"document_number"`  // users.document_number
	DocExpiry       string     `json:"doc_expiry"`       // users.doc_expiry (ISO date)
	DOB             string     `json:"dob"`              // users.dob (ISO date)
	Gender          string     `json:"gender"`           // users.gender
	ForeignReg      bool       `json:"foreign_reg"`      // users.foreign_reg
	ForeignerNumber string     `json:"foreigner_number"` // users.foreigner_number
	Username        string     `json:"username"`         // users.username, an e-mail address
	PasswordHash    string     `json:"-"`                // users.password (bcrypt)
	Terms           bool       `json:"terms"`            // users.terms
	AutoRead        bool       `json:"auto_read"`        // users.auto_read
	OTP             *int       `json:"-"`                // users.otp (nullable)
	OTPExpiresAt    *time.Time `json:"-"`                // users.otp_expires_at (nullable)
	OTPVerified     bool       `json:"-"`                // users.otp_verify
	IsActive        bool       `json:"is_active"`        // users.is_active
	IsDeleted       bool       `json:"is_deleted"`       // users.is_deleted
	IsAdmin         bool       `json:"is_admin"`         // users.is_admin
	DocumentFile    *string    `json:"document_file"`    // users.document_file (public URL)
	CreatedBy       *uint64    `json:"created_by"`       // users.created_by (nullable, admin id)
	CreatedAt       time.Time  `json:"created_at"`       // users.created_at
	UpdatedAt       time.Time  `json:"updated_at"`       // users.updated_at
}

// UserSummary is the projection returned by the admin user listing.
type UserSummary struct {
	ID        uint64    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}

// UserToken models the single `user_tokens` row a user may own. Either
// token may be empty: forgot-password only writes the auth token.
type UserToken struct {
	ID           uint64    // user_tokens.id
	UserID       uint64    // user_tokens.user_id (unique)
	AuthToken    string    // user_tokens.auth_token
	RefreshToken string    // user_tokens.refresh_token
	CreatedAt    time.Time // user_tokens.created_at
	UpdatedAt    time.Time // user_tokens.updated_at
}
