package wizard

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/iliyamo/visa-portal/internal/client"
)

// ClientSubmitter posts the aggregate to POST /application through the API
// client, translating the form's field names to the server's.
type ClientSubmitter struct {
	Client *client.Client
}

// Submit uploads every chosen document on each call since the server
// clears file columns that are not re-sent.
func (s ClientSubmitter) Submit(ctx context.Context, d Steps, applicationID uint64) (uint64, error) {
	fields := ApplicationFields(d)
	if applicationID != 0 {
		fields["id"] = strconv.FormatUint(applicationID, 10)
	}

	var files []client.File
	for _, f := range []struct {
		field string
		ref   FileRef
	}{
		{"face_photo", d.Documents.FacePhoto},
		{"passport_page", d.Documents.PassportPage},
		{"letter", d.Documents.InvitationLetter},
	} {
		if f.ref.empty() || f.ref.Path == "" {
			continue
		}
		fh, err := os.Open(f.ref.Path)
		if err != nil {
			return 0, fmt.Errorf("open %s: %w", f.field, err)
		}
		defer fh.Close()
		files = append(files, client.File{Field: f.field, Name: f.ref.Name, Data: fh})
	}

	res, err := s.Client.SubmitApplication(ctx, fields, files)
	if err != nil {
		return 0, err
	}
	if !res.OK {
		return 0, fmt.Errorf("server rejected application (%d): %s", res.Status, res.Message())
	}
	var saved struct {
		ID uint64 `json:"id"`
	}
	if err := res.Decode(&saved); err != nil {
		return 0, fmt.Errorf("decode application: %w", err)
	}
	return saved.ID, nil
}

// ApplicationFields maps the aggregate onto the server's application form.
func ApplicationFields(d Steps) map[string]string {
	p, pd, td, v := d.Purpose, d.Personal, d.Travel, d.Visa
	return map[string]string{
		"purpose":                p.TravelPurpose,
		"specific_purpose":       p.SpecificPurpose,
		"des_purpose":            p.OtherPurposeText,
		"last_name":              pd.LastName,
		"last_name_at_birth":     pd.LastNameAtBirth,
		"first_name":             pd.FirstName,
		"gender":                 pd.Gender,
		"dob":                    pd.DOB,
		"country_of_birth":       pd.CountryOfBirth,
		"place_of_birth":         pd.PlaceOfBirth,
		"address":                pd.Address,
		"telephone":              pd.Telephone,
		"passport_issue_country": pd.PassportIssuingCountry,
		"citizenship":            pd.OriginalCitizenship,
		"marital_status":         pd.MaritalStatus,
		"father_first_name":      pd.FatherFirstName,
		"mother_first_name":      pd.MotherFirstName,
		"email":                  pd.Email,
		"type_of_doc":            td.TravelDocumentType,
		"doc_number":             td.TravelDocumentNumber,
		"doc_issue_country":      td.CountryOfIssue,
		"place_of_issue":         td.PlaceOfIssue,
		"date_of_issue":          td.DateOfIssue,
		"doc_valid_date":         td.ValidUntil,
		"representation_office":  v.Consulate,
		"date_of_arrival":        v.ArrivalDate,
		"date_of_departure":      v.DepartureDate,
		"first_entry":            v.BorderCrossing,
		"means_of_transport":     v.Transport,
		"is_consent_provided":    strconv.FormatBool(d.Consent.Consent),
	}
}
