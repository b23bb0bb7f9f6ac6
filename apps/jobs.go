package apps

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"fmt"

	"github.com/brainwave-labs/bci-shell-api/errors"
	"github.com/brainwave-labs/bci-shell-api/jobs"
	"gorm.io/datatypes"
)

const (
	InstallAppJobType      = "install_app"
	CheckAppUpdatesJobType = "check_app_updates"
)

type installAttributes struct {
	BundlePath string `json:"bundlePath"`
}

func (a installAttributes) toJSON() (datatypes.JSON, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func (s *Service) executeInstallAppJob(ctx context.Context, j *jobs.Job) error {
	if j.Type != InstallAppJobType {
		return jobs.ErrInvalidJobType
	}

	j.ShouldSendNotification = true

	var attrs installAttributes
	if err := json.Unmarshal(j.Attributes, &attrs); err != nil {
		return jobs.PermanentFailure(err)
	}

	app, err := s.install(ctx, attrs.BundlePath)
	if err != nil {
		// Validation failures won't resolve themselves on retry.
		var reqErr *errors.RequestError
		if goerrors.As(err, &reqErr) {
			return jobs.PermanentFailure(err)
		}
		return err
	}

	j.EntityID = app.ID
	j.Result = fmt.Sprintf("app %s %s installed", app.ID, app.Version)

	return nil
}

func (s *Service) executeCheckAppUpdatesJob(ctx context.Context, j *jobs.Job) error {
	if j.Type != CheckAppUpdatesJobType {
		return jobs.ErrInvalidJobType
	}

	if err := s.checkUpdates(ctx); err != nil {
		return err
	}

	j.Result = "app update check complete"

	return nil
}
