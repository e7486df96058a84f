package model

import "time"

// Application is a visa application as stored in `applications`. UserID is
// nil once the owning user has been physically removed.
type Application struct {
	ID                   uint64    `json:"id"`
	UserID               *uint64   `json:"user_id"`
	Purpose              string    `json:"purpose"`
	SpecificPurpose      string    `json:"specific_purpose"`
	DesPurpose           string    `json:"des_purpose"`
	LastName             string    `json:"last_name"`
	Address              string    `json:"address"`
	LastNameAtBirth      string    `json:"last_name_at_birth"`
	Telephone            string    `json:"telephone"`
	FirstName            string    `json:"first_name"`
	PassportIssueCountry string    `json:"passport_issue_country"`
	Gender               string    `json:"gender"`
	Citizenship          string    `json:"citizenship"`
	DOB                  string    `json:"dob"`
	MaritalStatus        string    `json:"marital_status"`
	CountryOfBirth       string    `json:"country_of_birth"`
	FatherFirstName      string    `json:"father_first_name"`
	PlaceOfBirth         string    `json:"place_of_birth"`
	MotherFirstName      string    `json:"mother_first_name"`
	Email                string    `json:"email"`
	TypeOfDoc            string    `json:"type_of_doc"`
	DateOfIssue          string    `json:"date_of_issue"`
	DocNumber            string    `json:"doc_number"`
	DocValidDate         string    `json:"doc_valid_date"`
	DocIssueCountry      string    `json:"doc_issue_country"`
	PlaceOfIssue         string    `json:"place_of_issue"`
	RepresentationOffice string    `json:"representation_office"`
	FirstEntry           string    `json:"first_entry"`
	DateOfArrival        string    `json:"date_of_arrival"`
	MeansOfTransport     string    `json:"means_of_transport"`
	DateOfDeparture      string    `json:"date_of_departure"`
	FacePhotoURL         *string   `json:"face_photo_url"`
	PassportPage         *string   `json:"passport_page"`
	Letter               *string   `json:"letter"`
	IsConsentProvided    bool      `json:"is_consent_provided"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
