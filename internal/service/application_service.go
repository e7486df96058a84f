package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/visa-portal/internal/apperr"
	"github.com/iliyamo/visa-portal/internal/model"
	"github.com/iliyamo/visa-portal/internal/repository"
)

type ApplicationService struct {
	apps ApplicationStore
}

func NewApplicationService(apps ApplicationStore) *ApplicationService {
	return &ApplicationService{apps: apps}
}

// ApplicationFiles are the public URLs of the files uploaded with a
// submission. A nil URL clears the column.
type ApplicationFiles struct {
	FacePhoto    *string
	PassportPage *string
	Letter       *string
}

type ApplicationPage struct {
	Applications []model.Application `json:"applications"`
	Total        int64               `json:"total"`
}

// CreateOrUpdateApplication inserts app for the caller when app.ID is zero
// and updates it otherwise. The owner of an existing row never changes, and
// a non-admin may only update rows they own.
func (s *ApplicationService) CreateOrUpdateApplication(ctx context.Context, caller Caller, app model.Application, files ApplicationFiles) (model.Application, error) {
	app.FacePhotoURL = files.FacePhoto
	app.PassportPage = files.PassportPage
	app.Letter = files.Letter

	id := app.ID
	if id != 0 {
		if _, err := s.GetApplication(ctx, caller, id); err != nil {
			return model.Application{}, err
		}
		if err := s.apps.Update(ctx, &app); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.Application{}, apperr.ErrApplicationNotFound
			}
			return model.Application{}, fmt.Errorf("update application: %w", err)
		}
	} else {
		var err error
		if id, err = s.apps.Create(ctx, caller.UserID, &app); err != nil {
			return model.Application{}, fmt.Errorf("create application: %w", err)
		}
	}

	saved, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return model.Application{}, fmt.Errorf("reload application: %w", err)
	}
	return saved, nil
}

// ListApplications returns a page across all owners for admins and the
// caller's own rows otherwise.
func (s *ApplicationService) ListApplications(ctx context.Context, caller Caller, page, limit int) (ApplicationPage, error) {
	var owner *uint64
	if !caller.IsAdmin {
		owner = &caller.UserID
	}
	apps, total, err := s.apps.List(ctx, owner, page, limit)
	if err != nil {
		return ApplicationPage{}, fmt.Errorf("list applications: %w", err)
	}
	return ApplicationPage{Applications: apps, Total: total}, nil
}

// GetApplication fetches application id. Admins may read any row.
func (s *ApplicationService) GetApplication(ctx context.Context, caller Caller, id uint64) (model.Application, error) {
	var (
		app model.Application
		err error
	)
	if caller.IsAdmin {
		app, err = s.apps.GetByID(ctx, id)
	} else {
		app, err = s.apps.GetByIDForOwner(ctx, id, caller.UserID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Application{}, apperr.ErrApplicationNotFound
		}
		return model.Application{}, fmt.Errorf("load application: %w", err)
	}
	return app, nil
}
