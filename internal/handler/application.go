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
	"github.com/iliyamo/visa-portal/internal/upload"
)

type ApplicationService interface {
	CreateOrUpdateApplication(ctx context.Context, caller service.Caller, app model.Application, files service.ApplicationFiles) (model.Application, error)
	ListApplications(ctx context.Context, caller service.Caller, page, limit int) (service.ApplicationPage, error)
	GetApplication(ctx context.Context, caller service.Caller, id uint64) (model.Application, error)
}

type ApplicationHandler struct {
	Apps    ApplicationService
	Uploads Uploader
	Log     *zap.Logger
}

func NewApplicationHandler(apps ApplicationService, uploads Uploader, log *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{Apps: apps, Uploads: uploads, Log: log}
}

// applicationReq is the multipart (or JSON) body of POST /application. It
// has no user_id field; the owner always comes from the token.
type applicationReq struct {
	ID                   uint64 `form:"id" json:"id"`
	Purpose              string `form:"purpose" json:"purpose"`
	SpecificPurpose      string `form:"specific_purpose" json:"specific_purpose"`
	DesPurpose           string `form:"des_purpose" json:"des_purpose"`
	LastName             string `form:"last_name" json:"last_name"`
	Address              string `form:"address" json:"address"`
	LastNameAtBirth      string `form:"last_name_at_birth" json:"last_name_at_birth"`
	Telephone            string `form:"telephone" json:"telephone"`
	FirstName            string `form:"first_name" json:"first_name"`
	PassportIssueCountry string `form:"passport_issue_country" json:"passport_issue_country"`
	Gender               string `form:"gender" json:"gender"`
	Citizenship          string `form:"citizenship" json:"citizenship"`
	DOB                  string `form:"dob" json:"dob"`
	MaritalStatus        string `form:"marital_status" json:"marital_status"`
	CountryOfBirth       string `form:"country_of_birth" json:"country_of_birth"`
	FatherFirstName      string `form:"father_first_name" json:"father_first_name"`
	PlaceOfBirth         string `form:"place_of_birth" json:"place_of_birth"`
	MotherFirstName      string `form:"mother_first_name" json:"mother_first_name"`
	Email                string `form:"email" json:"email"`
	TypeOfDoc            string `form:"type_of_doc" json:"type_of_doc"`
	DateOfIssue          string `form:"date_of_issue" json:"date_of_issue"`
	DocNumber            string `form:"doc_number" json:"doc_number"`
	DocValidDate         string `form:"doc_valid_date" json:"doc_valid_date"`
	DocIssueCountry      string `form:"doc_issue_country" json:"doc_issue_country"`
	PlaceOfIssue         string `form:"place_of_issue" json:"place_of_issue"`
	RepresentationOffice string `form:"representation_office" json:"representation_office"`
	FirstEntry           string `form:"first_entry" json:"first_entry"`
	DateOfArrival        string `form:"date_of_arrival" json:"date_of_arrival"`
	MeansOfTransport     string `form:"means_of_transport" json:"means_of_transport"`
	DateOfDeparture      string `form:"date_of_departure" json:"date_of_departure"`
	IsConsentProvided    bool   `form:"is_consent_provided" json:"is_consent_provided"`
}

func (r applicationReq) model() model.Application {
	return model.Application{
		ID:                   r.ID,
		Purpose:              r.Purpose,
		SpecificPurpose:      r.SpecificPurpose,
		DesPurpose:           r.DesPurpose,
		LastName:             r.LastName,
		Address:              r.Address,
		LastNameAtBirth:      r.LastNameAtBirth,
		Telephone:            r.Telephone,
		FirstName:            r.FirstName,
		PassportIssueCountry: r.PassportIssueCountry,
		Gender:               r.Gender,
		Citizenship:          r.Citizenship,
		DOB:                  r.DOB,
		MaritalStatus:        r.MaritalStatus,
		CountryOfBirth:       r.CountryOfBirth,
		FatherFirstName:      r.FatherFirstName,
		PlaceOfBirth:         r.PlaceOfBirth,
		MotherFirstName:      r.MotherFirstName,
		Email:                r.Email,
		TypeOfDoc:            r.TypeOfDoc,
		DateOfIssue:          r.DateOfIssue,
		DocNumber:            r.DocNumber,
		DocValidDate:         r.DocValidDate,
		DocIssueCountry:      r.DocIssueCountry,
		PlaceOfIssue:         r.PlaceOfIssue,
		RepresentationOffice: r.RepresentationOffice,
		FirstEntry:           r.FirstEntry,
		DateOfArrival:        r.DateOfArrival,
		MeansOfTransport:     r.MeansOfTransport,
		DateOfDeparture:      r.DateOfDeparture,
		IsConsentProvided:    r.IsConsentProvided,
	}
}

// Submit creates the caller's application, or updates it when the form
// carries an id.
func (h *ApplicationHandler) Submit(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	var req applicationReq
	if err := bind(c, &req); err != nil {
		return response.Fail(c, h.Log, err)
	}
	ctx, cancel := timeout(c, uploadTimeout)
	defer cancel()

	var files service.ApplicationFiles
	for _, f := range []struct {
		rule upload.Rule
		dst  **string
	}{
		{upload.FacePhoto, &files.FacePhoto},
		{upload.PassportPage, &files.PassportPage},
		{upload.Letter, &files.Letter},
	} {
		if *f.dst, err = saveOptional(c, h.Uploads, f.rule); err != nil {
			discardUploads(h.Uploads, h.Log, files.FacePhoto, files.PassportPage, files.Letter)
			return response.Fail(c, h.Log, err)
		}
	}

	app, err := h.Apps.CreateOrUpdateApplication(ctx, who, req.model(), files)
	if err != nil {
		discardUploads(h.Uploads, h.Log, files.FacePhoto, files.PassportPage, files.Letter)
		return response.Fail(c, h.Log, err)
	}
	return response.Success(c, "APPLICATION_SUBMITTED", app)
}

// List serves GET /applications?page&limit.
func (h *ApplicationHandler) List(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	page := pageParam(c.QueryParam("page"), defaultPage)
	limit := limitParam(c.QueryParam("limit"))

	ctx, cancel := timeout(c, callTimeout)
	defer cancel()

	res, err := h.Apps.ListApplications(ctx, who, page, limit)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	return response.Success(c, "APPLICATIONS_FETCHED", res)
}

func (h *ApplicationHandler) Get(c echo.Context) error {
	who, err := caller(c)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return response.Fail(c, h.Log, apperr.ErrApplicationNotFound)
	}
	ctx, cancel := timeout(c, callTimeout)
	defer cancel()

	app, err := h.Apps.GetApplication(ctx, who, id)
	if err != nil {
		return response.Fail(c, h.Log, err)
	}
	return response.Success(c, "APPLICATION_FETCHED", app)
}
