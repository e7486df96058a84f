package wizard

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/now"

	"github.com/iliyamo/visa-portal/internal/apperr"
	"github.com/iliyamo/visa-portal/internal/upload"
)

// StepCount is the number of wizard steps.
const StepCount = 6

// Step is the data one wizard page edits.
type Step interface {
	Index() int
	check() map[string]string
	mergeInto(*Steps)
}

// Steps is the aggregate draft, keyed like the browser form.
type Steps struct {
	Purpose   Purpose        `json:"step1"`
	Personal  PersonalData   `json:"step2"`
	Travel    TravelDocument `json:"step3"`
	Visa      VisaInfo       `json:"step4"`
	Documents Documents      `json:"step5"`
	Consent   Consent        `json:"step6"`
}

// At returns the aggregate's data for step i.
func (s Steps) At(i int) Step {
	switch i {
	case 0:
		return s.Purpose
	case 1:
		return s.Personal
	case 2:
		return s.Travel
	case 3:
		return s.Visa
	case 4:
		return s.Documents
	case 5:
		return s.Consent
	}
	return nil
}

type Purpose struct {
	TravelPurpose    string `json:"travelPurpose" validate:"required,oneof=study employment family research other"`
	SpecificPurpose  string `json:"specificPurpose" validate:"required"`
	OtherPurposeText string `json:"otherPurposeText,omitempty"`
}

// specificPurposes lists the sub-purposes offered for each travel purpose.
var specificPurposes = map[string][]string{
	"study":      {"study_degree", "study_training", "study_other"},
	"employment": {"employment_contract", "self_employment", "business_agreement", "movement_within_company", "independent_professional", "employment_other"},
	"family":     {"family_reunification_spouse", "family_reunification_children", "family_other"},
	"research":   {"research_academic", "research_project", "research_other"},
	"other":      {"other_general"},
}

func (Purpose) Index() int { return 0 }

func (p Purpose) check() map[string]string {
	errs := structErrors(p)
	if p.SpecificPurpose != "" && p.TravelPurpose != "" {
		found := false
		for _, v := range specificPurposes[strings.ToLower(p.TravelPurpose)] {
			if v == p.SpecificPurpose {
				found = true
				break
			}
		}
		if !found {
			errs = addErr(errs, "specificPurpose", "does not match the selected travel purpose")
		}
	}
	if (strings.HasSuffix(p.SpecificPurpose, "_other") || p.SpecificPurpose == "other_general") &&
		strings.TrimSpace(p.OtherPurposeText) == "" {
		errs = addErr(errs, "otherPurposeText", "please specify the purpose")
	}
	return errs
}

func (p Purpose) mergeInto(s *Steps) { s.Purpose = p }

type PersonalData struct {
	LastName               string `json:"lastName" validate:"required"`
	LastNameAtBirth        string `json:"lastNameAtBirth,omitempty"`
	FirstName              string `json:"firstName" validate:"required"`
	Gender                 string `json:"gender" validate:"required"`
	DOB                    string `json:"dob" validate:"required,datetime=2006-01-02"`
	CountryOfBirth         string `json:"countryOfBirth" validate:"required"`
	PlaceOfBirth           string `json:"placeOfBirth,omitempty"`
	Address                string `json:"address" validate:"required"`
	Telephone              string `json:"telephone" validate:"required,e164"`
	PassportIssuingCountry string `json:"passportIssuingCountry" validate:"required"`
	OriginalCitizenship    string `json:"originalCitizenship" validate:"required"`
	MaritalStatus          string `json:"maritalStatus" validate:"required"`
	FatherFirstName        string `json:"fatherFirstName,omitempty"`
	MotherFirstName        string `json:"motherFirstName,omitempty"`
	Email                  string `json:"email" validate:"required,email"`
}

func (PersonalData) Index() int                 { return 1 }
func (p PersonalData) check() map[string]string { return structErrors(p) }
func (p PersonalData) mergeInto(s *Steps)       { s.Personal = p }

type TravelDocument struct {
	TravelDocumentType   string `json:"travelDocumentType" validate:"required"`
	TravelDocumentNumber string `json:"travelDocumentNumber" validate:"required"`
	CountryOfIssue       string `json:"countryOfIssue" validate:"required"`
	PlaceOfIssue         string `json:"placeOfIssue,omitempty"`
	DateOfIssue          string `json:"dateOfIssue" validate:"required,datetime=2006-01-02"`
	ValidUntil           string `json:"validUntil" validate:"required,datetime=2006-01-02"`
	LiveOutsideOrigin    string `json:"liveOutsideOrigin,omitempty"`
}

func (TravelDocument) Index() int                 { return 2 }
func (t TravelDocument) check() map[string]string { return structErrors(t) }
func (t TravelDocument) mergeInto(s *Steps)       { s.Travel = t }

type VisaInfo struct {
	Consulate      string `json:"consulate" validate:"required"`
	ArrivalDate    string `json:"arrivalDate" validate:"required,datetime=2006-01-02"`
	DepartureDate  string `json:"departureDate" validate:"required,datetime=2006-01-02"`
	BorderCrossing string `json:"borderCrossing,omitempty"`
	Transport      string `json:"transport" validate:"required"`
	VisaType       string `json:"visaType,omitempty"`
	DaysOfStay     int    `json:"daysOfStay" validate:"required,gt=0"`
	HostName       string `json:"hostName" validate:"required"`
	HostTelephone  string `json:"hostTelephone" validate:"required"`
	HostAddress    string `json:"hostAddress" validate:"required"`
	HostEmail      string `json:"hostEmail" validate:"required,email"`
}

func (VisaInfo) Index() int { return 3 }

func (v VisaInfo) check() map[string]string {
	errs := structErrors(v)
	if _, bad := errs["arrivalDate"]; bad {
		return errs
	}
	if _, bad := errs["departureDate"]; bad {
		return errs
	}
	arrival, err := now.Parse(v.ArrivalDate)
	if err != nil {
		return addErr(errs, "arrivalDate", "must be a date (YYYY-MM-DD)")
	}
	departure, err := now.Parse(v.DepartureDate)
	if err != nil {
		return addErr(errs, "departureDate", "must be a date (YYYY-MM-DD)")
	}
	if !departure.After(arrival) {
		return addErr(errs, "departureDate", "must be after arrival date")
	}
	if v.DaysOfStay > 0 {
		if days := StayDays(arrival, departure); v.DaysOfStay != days {
			errs = addErr(errs, "daysOfStay", fmt.Sprintf("must equal the date difference (%d days)", days))
		}
	}
	return errs
}

func (v VisaInfo) mergeInto(s *Steps) { s.Visa = v }

// StayDays counts whole calendar days between arrival and departure.
func StayDays(arrival, departure time.Time) int {
	a := now.With(arrival).BeginningOfDay()
	b := now.With(departure).BeginningOfDay()
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// FileRef points at a local file chosen for upload.
type FileRef struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Path string `json:"path"`
}

func (f FileRef) empty() bool { return f.Name == "" }

type Documents struct {
	FacePhoto        FileRef `json:"facePhoto"`
	PassportPage     FileRef `json:"passportPage"`
	InvitationLetter FileRef `json:"invitationLetter"`
}

func (Documents) Index() int { return 4 }

func (d Documents) check() map[string]string {
	var errs map[string]string
	for _, f := range []struct {
		key      string
		ref      FileRef
		rule     upload.Rule
		required bool
	}{
		{"facePhoto", d.FacePhoto, upload.FacePhoto, true},
		{"passportPage", d.PassportPage, upload.PassportPage, true},
		{"invitationLetter", d.InvitationLetter, upload.Letter, false},
	} {
		if f.ref.empty() {
			if f.required {
				errs = addErr(errs, f.key, "is required")
			}
			continue
		}
		if err := f.rule.Check(f.ref.Name, f.ref.Size); err != nil {
			errs = addErr(errs, f.key, apperr.Message(apperr.From(err).Key))
		}
	}
	return errs
}

func (d Documents) mergeInto(s *Steps) { s.Documents = d }

type Consent struct {
	Consent bool `json:"consent" validate:"required"`
}

func (Consent) Index() int                 { return 5 }
func (c Consent) check() map[string]string { return structErrors(c) }
func (c Consent) mergeInto(s *Steps)       { s.Consent = c }

// ValidationError lists the fields of one step that failed, keyed by their
// JSON name.
type ValidationError struct {
	Step   int
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.Fields[k]
	}
	return fmt.Sprintf("step %d: %s", e.Step+1, strings.Join(parts, "; "))
}

// Validate runs the step's field and cross-field rules.
func Validate(s Step) error {
	if errs := s.check(); len(errs) > 0 {
		return &ValidationError{Step: s.Index(), Fields: errs}
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var tagMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid e-mail",
	"e164":     "must be in E.164 format (e.g. +441632960960)",
	"datetime": "must be a date (YYYY-MM-DD)",
	"oneof":    "is not a valid option",
	"gt":       "must be a positive number",
}

func structErrors(s any) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(ves))
	for _, fe := range ves {
		msg, ok := tagMessages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		out[fe.Field()] = msg
	}
	return out
}

// addErr records msg for key unless the field already has an error.
func addErr(errs map[string]string, key, msg string) map[string]string {
	if errs == nil {
		errs = map[string]string{}
	}
	if _, ok := errs[key]; !ok {
		errs[key] = msg
	}
	return errs
}
