package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/visa-portal/internal/model"
)

// applicationFields are the columns a caller may write, in the order used
// by applicationValues. user_id is deliberately absent.
var applicationFields = []string{
	"purpose", "specific_purpose", "des_purpose", "last_name", "address", "last_name_at_birth",
	"telephone", "first_name", "passport_issue_country", "gender", "citizenship", "dob",
	"marital_status", "country_of_birth", "father_first_name", "place_of_birth", "mother_first_name",
	"email", "type_of_doc", "date_of_issue", "doc_number", "doc_valid_date", "doc_issue_country",
	"place_of_issue", "representation_office", "first_entry", "date_of_arrival", "means_of_transport",
	"date_of_departure", "face_photo_url", "passport_page", "letter", "is_consent_provided",
}

var applicationSelect = "SELECT id,user_id," + strings.Join(applicationFields, ",") +
	",created_at,updated_at FROM applications"

func applicationValues(a *model.Application) []any {
	return []any{
		a.Purpose, a.SpecificPurpose, a.DesPurpose, a.LastName, a.Address, a.LastNameAtBirth,
		a.Telephone, a.FirstName, a.PassportIssueCountry, a.Gender, a.Citizenship, a.DOB,
		a.MaritalStatus, a.CountryOfBirth, a.FatherFirstName, a.PlaceOfBirth, a.MotherFirstName,
		a.Email, a.TypeOfDoc, a.DateOfIssue, a.DocNumber, a.DocValidDate, a.DocIssueCountry,
		a.PlaceOfIssue, a.RepresentationOffice, a.FirstEntry, a.DateOfArrival, a.MeansOfTransport,
		a.DateOfDeparture, a.FacePhotoURL, a.PassportPage, a.Letter, a.IsConsentProvided,
	}
}

func scanApplication(row rowScanner) (model.Application, error) {
	var a model.Application
	dest := []any{&a.ID, &a.UserID,
		&a.Purpose, &a.SpecificPurpose, &a.DesPurpose, &a.LastName, &a.Address, &a.LastNameAtBirth,
		&a.Telephone, &a.FirstName, &a.PassportIssueCountry, &a.Gender, &a.Citizenship, &a.DOB,
		&a.MaritalStatus, &a.CountryOfBirth, &a.FatherFirstName, &a.PlaceOfBirth, &a.MotherFirstName,
		&a.Email, &a.TypeOfDoc, &a.DateOfIssue, &a.DocNumber, &a.DocValidDate, &a.DocIssueCountry,
		&a.PlaceOfIssue, &a.RepresentationOffice, &a.FirstEntry, &a.DateOfArrival, &a.MeansOfTransport,
		&a.DateOfDeparture, &a.FacePhotoURL, &a.PassportPage, &a.Letter, &a.IsConsentProvided,
		&a.CreatedAt, &a.UpdatedAt,
	}
	err := row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

type ApplicationRepo struct{ DB *sql.DB }

func NewApplicationRepo(db *sql.DB) *ApplicationRepo { return &ApplicationRepo{DB: db} }

// Create inserts an application owned by ownerID and returns its id.
func (r *ApplicationRepo) Create(ctx context.Context, ownerID uint64, a *model.Application) (uint64, error) {
	q := "INSERT INTO applications (user_id," + strings.Join(applicationFields, ",") + ") VALUES (?" +
		strings.Repeat(",?", len(applicationFields)) + ")"
	args := append([]any{ownerID}, applicationValues(a)...)
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites every caller-writable column of application a.ID. The
// owner is never changed.
func (r *ApplicationRepo) Update(ctx context.Context, a *model.Application) error {
	q := "UPDATE applications SET " + strings.Join(applicationFields, "=?,") + "=? WHERE id=?"
	args := append(applicationValues(a), a.ID)
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// GetByID fetches an application regardless of owner.
func (r *ApplicationRepo) GetByID(ctx context.Context, id uint64) (model.Application, error) {
	return scanApplication(r.DB.QueryRowContext(ctx, applicationSelect+" WHERE id=? LIMIT 1", id))
}

// GetByIDForOwner fetches an application only when ownerID owns it.
func (r *ApplicationRepo) GetByIDForOwner(ctx context.Context, id, ownerID uint64) (model.Application, error) {
	return scanApplication(r.DB.QueryRowContext(ctx,
		applicationSelect+" WHERE id=? AND user_id=? LIMIT 1", id, ownerID))
}

// List returns a page of applications, newest first. A nil owner lists
// across all users.
func (r *ApplicationRepo) List(ctx context.Context, owner *uint64, page, limit int) ([]model.Application, int64, error) {
	cond := "1=1"
	var args []any
	if owner != nil {
		cond = "user_id=?"
		args = append(args, *owner)
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM applications WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	lim, off := pageOffset(page, limit)
	rows, err := r.DB.QueryContext(ctx,
		applicationSelect+" WHERE "+cond+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		append(args, lim, off)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Application, 0, lim)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}
