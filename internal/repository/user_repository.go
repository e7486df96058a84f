package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/visa-portal/internal/model"
)

const userColumns = "id,first_name,last_name,document_type,country,document_number,doc_expiry,dob,gender," +
	"foreign_reg,foreigner_number,username,password,terms,auto_read,otp,otp_expires_at,otp_verify," +
	"is_active,is_deleted,is_admin,document_file,created_by,created_at,updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.DocumentType, &u.Country, &u.DocumentNumber,
		&u.DocExpiry, &u.DOB, &u.Gender, &u.ForeignReg, &u.ForeignerNumber, &u.Username, &u.PasswordHash,
		&u.Terms, &u.AutoRead, &u.OTP, &u.OTPExpiresAt, &u.OTPVerified, &u.IsActive, &u.IsDeleted,
		&u.IsAdmin, &u.DocumentFile, &u.CreatedBy, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// NormalizeUsername lower-cases and trims a username so lookups and the
// uniqueness check agree.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Create inserts a user and returns its ID. PasswordHash must already be
// hashed.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (first_name,last_name,document_type,country,document_number,doc_expiry,dob,gender,
			foreign_reg,foreigner_number,username,password,terms,auto_read,is_active,is_admin,document_file,created_by)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		u.FirstName, u.LastName, u.DocumentType, u.Country, u.DocumentNumber, u.DocExpiry, u.DOB, u.Gender,
		u.ForeignReg, u.ForeignerNumber, NormalizeUsername(u.Username), u.PasswordHash, u.Terms, u.AutoRead,
		u.IsActive, u.IsAdmin, u.DocumentFile, u.CreatedBy)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update overwrites the editable columns of a live user, password included.
func (r *UserRepo) Update(ctx context.Context, u model.User) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET first_name=?,last_name=?,document_type=?,country=?,document_number=?,doc_expiry=?,dob=?,
			gender=?,foreign_reg=?,foreigner_number=?,username=?,password=?,terms=?,auto_read=?,is_active=?,is_admin=?
		WHERE id=? AND is_deleted=0`,
		u.FirstName, u.LastName, u.DocumentType, u.Country, u.DocumentNumber, u.DocExpiry, u.DOB,
		u.Gender, u.ForeignReg, u.ForeignerNumber, NormalizeUsername(u.Username), u.PasswordHash, u.Terms,
		u.AutoRead, u.IsActive, u.IsAdmin, u.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return expectOne(res)
}

// GetActiveByUsername fetches a non-deleted user by normalized username.
func (r *UserRepo) GetActiveByUsername(ctx context.Context, username string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? AND is_deleted=0 ORDER BY id DESC LIMIT 1",
		NormalizeUsername(username))
	return scanUser(row)
}

// GetActiveByID fetches a non-deleted user by id.
func (r *UserRepo) GetActiveByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND is_deleted=0 LIMIT 1", id)
	return scanUser(row)
}

// UsernameTaken reports whether another live user already holds username.
// Pass excludeID=0 when creating.
func (r *UserRepo) UsernameTaken(ctx context.Context, username string, excludeID uint64) (bool, error) {
	var taken bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE username=? AND is_deleted=0 AND id<>?)",
		NormalizeUsername(username), excludeID).Scan(&taken)
	return taken, err
}

// SetOTP stores a fresh OTP and clears the verified flag in one statement.
func (r *UserRepo) SetOTP(ctx context.Context, id uint64, otp int, expiresAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET otp=?, otp_expires_at=?, otp_verify=0 WHERE id=? AND is_deleted=0",
		otp, expiresAt.UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// MarkOTPVerified flips otp_verify only while the stored OTP still equals
// otp, so a concurrently reissued code is never confirmed by a stale one.
func (r *UserRepo) MarkOTPVerified(ctx context.Context, id uint64, otp int) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET otp_verify=1 WHERE id=? AND otp=? AND is_deleted=0", id, otp)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// ResetPassword stores the new hash and consumes the OTP state.
func (r *UserRepo) ResetPassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password=?, otp=NULL, otp_expires_at=NULL, otp_verify=0 WHERE id=? AND is_deleted=0",
		hash, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// List returns one page of live users, newest first, with the total count.
func (r *UserRepo) List(ctx context.Context, page, limit int) ([]model.UserSummary, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE is_deleted=0").Scan(&total); err != nil {
		return nil, 0, err
	}

	lim, off := pageOffset(page, limit)
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,first_name,last_name,username,is_admin,is_active,country,created_at
		FROM users WHERE is_deleted=0 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, lim, off)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.UserSummary, 0, lim)
	for rows.Next() {
		var s model.UserSummary
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Username, &s.IsAdmin, &s.IsActive,
			&s.Country, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// SoftDelete marks a live user deleted. Deleting twice yields ErrNotFound.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_deleted=1 WHERE id=? AND is_deleted=0", id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
