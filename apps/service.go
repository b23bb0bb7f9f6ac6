package apps

import (
	"archive/zip"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/brainwave-labs/bci-shell-api/configs"
	"github.com/brainwave-labs/bci-shell-api/datastore"
	"github.com/brainwave-labs/bci-shell-api/errors"
	"github.com/brainwave-labs/bci-shell-api/jobs"
)

// VersionSource resolves the latest published version for a set of app
// ids, scoped to a platform target version. A "Dev" platform passes an
// empty target.
type VersionSource interface {
	LatestAppVersions(ctx context.Context, appIDs []string, target string) (map[string]string, error)
}

// EventSink receives app lifecycle notifications.
type EventSink interface {
	Publish(eventType string, payload interface{})
}

// Service defines the API for app registry HTTP handlers.
type Service struct {
	cfg      *configs.Config
	store    Store
	wp       jobs.WorkerPool
	versions VersionSource
	events   EventSink
}

type ServiceOption func(*Service)

func WithVersionSource(vs VersionSource) ServiceOption {
	return func(svc *Service) {
		svc.versions = vs
	}
}

func WithEventSink(sink EventSink) ServiceOption {
	return func(svc *Service) {
		svc.events = sink
	}
}

// NewService initiates a new app registry service.
func NewService(cfg *configs.Config, store Store, wp jobs.WorkerPool, opts ...ServiceOption) *Service {
	svc := &Service{cfg: cfg, store: store, wp: wp}

	for _, opt := range opts {
		opt(svc)
	}

	if wp != nil {
		wp.RegisterExecutor(InstallAppJobType, svc.executeInstallAppJob)
		wp.RegisterExecutor(CheckAppUpdatesJobType, svc.executeCheckAppUpdatesJob)
	}

	return svc
}

// List returns all installed apps.
func (s *Service) List(limit, offset int) ([]App, error) {
	o := datastore.ParseListOptions(limit, offset)
	return s.store.Apps(o)
}

// Details returns a specific app.
func (s *Service) Details(appID string) (App, error) {
	app, err := s.store.App(appID)
	if err != nil {
		if errors.IsNotFound(err) {
			err = &errors.RequestError{
				StatusCode: http.StatusNotFound,
				Err:        fmt.Errorf("app not found"),
			}
		}
		return App{}, err
	}
	return app, nil
}

// Install installs an app bundle. The heavy lifting happens in an async
// job by default; `sync` waits for the result in-request.
func (s *Service) Install(ctx context.Context, bundlePath string, sync bool) (*jobs.Job, *App, error) {
	if sync {
		app, err := s.install(ctx, bundlePath)
		return nil, app, err
	}

	attrs, err := installAttributes{BundlePath: bundlePath}.toJSON()
	if err != nil {
		return nil, nil, err
	}

	job, err := s.wp.CreateJob(InstallAppJobType, "", jobs.WithAttributes(attrs))
	if err != nil {
		return nil, nil, err
	}

	if err := s.wp.Schedule(job); err != nil {
		return nil, nil, err
	}

	return job, nil, nil
}

// install runs the actual bundle installation: manifest validation,
// extraction and registry insert. Partial extractions are cleaned up.
func (s *Service) install(_ context.Context, bundlePath string) (*App, error) {
	bundle, err := zip.OpenReader(bundlePath)
	if err != nil {
		return nil, &errors.RequestError{
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("could not open app bundle: %w", err),
		}
	}
	defer bundle.Close()

	info, err := readBundleInfo(&bundle.Reader)
	if err != nil {
		return nil, &errors.RequestError{StatusCode: http.StatusBadRequest, Err: err}
	}

	if _, err := s.store.App(info.ID); err == nil {
		return nil, &errors.RequestError{
			StatusCode: http.StatusConflict,
			Err:        fmt.Errorf("app %s is already installed", info.ID),
		}
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	// Bundles compiled against another platform release are rejected.
	// A development platform accepts everything.
	if s.cfg.PlatformVersion != "Dev" && info.Target != s.cfg.PlatformVersion {
		return nil, &errors.RequestError{
			StatusCode: http.StatusBadRequest,
			Err: fmt.Errorf("app %s targets platform version %q, this platform is %q",
				info.ID, info.Target, s.cfg.PlatformVersion),
		}
	}

	destDir := filepath.Join(s.cfg.AppsDir, info.ID)
	if err := extractBundle(&bundle.Reader, destDir); err != nil {
		if rmErr := os.RemoveAll(destDir); rmErr != nil {
			log.WithFields(log.Fields{"error": rmErr, "appID": info.ID}).
				Warn("Could not clean up partial app install")
		}
		return nil, err
	}

	app := &App{
		ID:               info.ID,
		Name:             info.Name,
		Description:      info.Description,
		Extension:        info.Extension,
		Version:          info.Version,
		Target:           info.Target,
		CompilationDate:  info.CompilationDate,
		InstallationDate: time.Now(),
	}

	if err := s.store.InsertApp(app); err != nil {
		if rmErr := os.RemoveAll(destDir); rmErr != nil {
			log.WithFields(log.Fields{"error": rmErr, "appID": info.ID}).
				Warn("Could not clean up app install after failed insert")
		}
		return nil, err
	}

	log.WithFields(log.Fields{"appID": app.ID, "version": app.Version}).
		Info("App installed")

	s.publish("app_installed", app)

	return app, nil
}

// InstallTemplate scaffolds a new development app from a bundled
// template directory.
func (s *Service) InstallTemplate(appID, name, extension string) (*App, error) {
	if _, err := s.store.App(appID); err == nil {
		return nil, &errors.RequestError{
			StatusCode: http.StatusConflict,
			Err:        fmt.Errorf("app %s is already installed", appID),
		}
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	templateDir := filepath.Join(s.cfg.InstallBaseDir, "templates", fmt.Sprintf("%s_template", extension))
	if _, err := os.Stat(templateDir); err != nil {
		return nil, &errors.RequestError{
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("no app template for extension %q", extension),
		}
	}

	destDir := filepath.Join(s.cfg.AppsDir, appID)
	if err := copyTree(templateDir, destDir); err != nil {
		if rmErr := os.RemoveAll(destDir); rmErr != nil {
			log.WithFields(log.Fields{"error": rmErr, "appID": appID}).
				Warn("Could not clean up partial app scaffold")
		}
		return nil, err
	}

	app := &App{
		ID:               appID,
		Name:             name,
		Description:      "Development version",
		Extension:        extension,
		Version:          "0.0.0",
		CompilationDate:  DevelopmentCompilationDate,
		InstallationDate: time.Now(),
	}

	if err := s.store.InsertApp(app); err != nil {
		return nil, err
	}

	s.publish("app_installed", app)

	return app, nil
}

// Uninstall removes the app's install directory and its registry row.
func (s *Service) Uninstall(appID string) error {
	app, err := s.Details(appID)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(filepath.Join(s.cfg.AppsDir, app.ID)); err != nil {
		return err
	}

	if err := s.store.RemoveApp(app.ID); err != nil {
		return err
	}

	log.WithFields(log.Fields{"appID": app.ID}).Info("App uninstalled")

	s.publish("app_uninstalled", app)

	return nil
}

// CheckUpdates schedules an async market query flagging apps that have
// a newer published version.
func (s *Service) CheckUpdates(ctx context.Context) (*jobs.Job, error) {
	job, err := s.wp.CreateJob(CheckAppUpdatesJobType, "")
	if err != nil {
		return nil, err
	}

	if err := s.wp.Schedule(job); err != nil {
		return nil, err
	}

	return job, nil
}

// checkUpdates flags UpdateAvailable/UpdateVersion for every non
// development app with a newer market version.
func (s *Service) checkUpdates(ctx context.Context) error {
	if s.versions == nil {
		return fmt.Errorf("no market version source configured")
	}

	apps, err := s.store.Apps(datastore.ListOptions{})
	if err != nil {
		return err
	}

	var appIDs []string
	for i := range apps {
		if !apps[i].IsDevelopment() {
			appIDs = append(appIDs, apps[i].ID)
		}
	}

	if len(appIDs) == 0 {
		return nil
	}

	target := s.cfg.PlatformVersion
	if target == "Dev" {
		target = ""
	}

	latest, err := s.versions.LatestAppVersions(ctx, appIDs, target)
	if err != nil {
		return err
	}

	for i := range apps {
		app := &apps[i]

		latestVersion, ok := latest[app.ID]
		updateAvailable := ok && versionLess(app.Version, latestVersion)

		updateVersion := ""
		if updateAvailable {
			updateVersion = latestVersion
		}

		if app.UpdateAvailable == updateAvailable && app.UpdateVersion == updateVersion {
			continue
		}

		app.UpdateAvailable = updateAvailable
		app.UpdateVersion = updateVersion
		if err := s.store.UpdateApp(app); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) publish(eventType string, payload interface{}) {
	if s.events != nil {
		s.events.Publish(eventType, payload)
	}
}

// versionLess compares dotted version strings numerically component by
// component, falling back to string comparison for non-numeric parts.
func versionLess(current, latest string) bool {
	cc := strings.Split(current, ".")
	ll := strings.Split(latest, ".")

	for i := 0; i < len(cc) && i < len(ll); i++ {
		cn, cErr := strconv.Atoi(cc[i])
		ln, lErr := strconv.Atoi(ll[i])
		if cErr != nil || lErr != nil {
			if cc[i] != ll[i] {
				return cc[i] < ll[i]
			}
			continue
		}
		if cn != ln {
			return cn < ln
		}
	}

	return len(cc) < len(ll)
}
