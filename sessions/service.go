package sessions

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/brainwave-labs/bci-shell-api/appcontrol"
	"github.com/brainwave-labs/bci-shell-api/apps"
	"github.com/brainwave-labs/bci-shell-api/configs"
	"github.com/brainwave-labs/bci-shell-api/datastore"
	"github.com/brainwave-labs/bci-shell-api/errors"
	"github.com/brainwave-labs/bci-shell-api/launcher"
	"github.com/brainwave-labs/bci-shell-api/settings"
	"github.com/brainwave-labs/bci-shell-api/system"
	"github.com/google/uuid"
)

// AppSource resolves installed apps.
type AppSource interface {
	Details(appID string) (apps.App, error)
}

// SettingsSource resolves the stored settings for an app.
type SettingsSource interface {
	Settings(appID string) (*settings.Settings, error)
}

// EventSink receives session lifecycle notifications.
type EventSink interface {
	Publish(eventType string, payload interface{})
}

// commander is the control channel to a running companion app.
// *appcontrol.Controller implements it; tests substitute a fake.
type commander interface {
	SendParameters(updatesPerMin int) error
	Play() error
	Pause() error
	Resume() error
	Stop() error
	Close()
}

// stopper covers the part of *launcher.Process the service needs.
type stopper interface {
	Stop() error
}

type activeRun struct {
	sessionID     uuid.UUID
	ctrl          commander
	proc          stopper
	updatesPerMin int
}

// Service drives app run sessions: it launches the companion
// executable, handles the control protocol handshake and exposes the
// play/pause/resume/stop commands.
type Service struct {
	cfg         *configs.Config
	store       Store
	appSource   AppSource
	settingsSrc SettingsSource
	system      *system.Service
	events      EventSink

	mu     sync.Mutex
	active map[uuid.UUID]*activeRun
}

type ServiceOption func(*Service)

func WithSystemService(svc *system.Service) ServiceOption {
	return func(s *Service) {
		s.system = svc
	}
}

func WithEventSink(sink EventSink) ServiceOption {
	return func(s *Service) {
		s.events = sink
	}
}

// NewService initiates a new session service.
func NewService(cfg *configs.Config, store Store, appSource AppSource, settingsSrc SettingsSource, opts ...ServiceOption) *Service {
	svc := &Service{
		cfg:         cfg,
		store:       store,
		appSource:   appSource,
		settingsSrc: settingsSrc,
		active:      make(map[uuid.UUID]*activeRun),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

// List returns all sessions.
func (s *Service) List(limit, offset int) ([]Session, error) {
	o := datastore.ParseListOptions(limit, offset)
	return s.store.Sessions(o)
}

// Details returns a specific session.
func (s *Service) Details(sessionID string) (Session, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return Session{}, &errors.RequestError{
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("invalid session id"),
		}
	}

	session, err := s.store.Session(id)
	if err != nil {
		if errors.IsNotFound(err) {
			err = &errors.RequestError{
				StatusCode: http.StatusNotFound,
				Err:        fmt.Errorf("session not found"),
			}
		}
		return Session{}, err
	}

	return session, nil
}

// Start creates a session for an installed app: it opens the control
// server on the app's configured address, launches the executable and
// waits for the protocol handshake to flip the session to READY.
func (s *Service) Start(ctx context.Context, appID string) (Session, error) {
	if s.system != nil {
		halted, err := s.system.IsHalted()
		if err != nil {
			return Session{}, err
		}
		if halted {
			return Session{}, &errors.RequestError{
				StatusCode: http.StatusServiceUnavailable,
				Err:        fmt.Errorf("system is halted, new sessions are not accepted"),
			}
		}
	}

	app, err := s.appSource.Details(appID)
	if err != nil {
		return Session{}, err
	}

	stgs, err := s.settingsSrc.Settings(app.ID)
	if err != nil {
		return Session{}, err
	}

	session := &Session{AppID: app.ID, State: PoweringOn}
	if err := s.store.InsertSession(session); err != nil {
		return Session{}, err
	}

	sessionID := session.ID
	conn := stgs.ConnectionSettings

	srv, err := appcontrol.NewServer(conn.IP, conn.Port,
		appcontrol.WithMessageHandler(func(clientAddr string, msg appcontrol.Message) {
			s.handleClientEvent(sessionID, msg)
		}),
		appcontrol.WithDisconnectHandler(func(clientAddr string) {
			s.handleClientClose(sessionID)
		}),
	)
	if err != nil {
		s.abortStart(session)
		return Session{}, err
	}

	// The companion connects and sends its first event as soon as it is
	// up, which can happen before the launch call returns. Register the
	// run first so that event is not dropped; the process handle is
	// attached once the launch has succeeded.
	run := &activeRun{
		sessionID:     sessionID,
		ctrl:          appcontrol.NewController(srv),
		updatesPerMin: stgs.RunSettings.UpdatesPerMin,
	}
	s.mu.Lock()
	s.active[sessionID] = run
	s.mu.Unlock()

	proc, err := launcher.Start(ctx, conn.PathToExe, conn.IP, conn.Port)
	if err != nil {
		s.takeRun(sessionID)
		srv.Stop()
		s.abortStart(session)
		return Session{}, &errors.RequestError{
			StatusCode: http.StatusBadRequest,
			Err:        err,
		}
	}

	s.mu.Lock()
	launching := s.active[sessionID] == run
	if launching {
		run.proc = proc
	}
	s.mu.Unlock()

	if !launching {
		// The companion came and went while the executable was still
		// starting, the run has already been torn down.
		if err := proc.Stop(); err != nil {
			log.WithFields(log.Fields{"error": err, "sessionID": sessionID}).
				Debug("App process exited with error")
		}
		return s.Details(sessionID.String())
	}

	log.WithFields(log.Fields{"sessionID": sessionID, "appID": app.ID}).
		Info("Session started")

	s.publish("session_started", session)

	return *session, nil
}

// Play flips a READY session to RUNNING.
func (s *Service) Play(sessionID string) (Session, error) {
	return s.command(sessionID, Running, func(c commander) error { return c.Play() })
}

// Pause flips a RUNNING session to PAUSED.
func (s *Service) Pause(sessionID string) (Session, error) {
	return s.command(sessionID, Paused, func(c commander) error { return c.Pause() })
}

// Resume flips a PAUSED session back to RUNNING.
func (s *Service) Resume(sessionID string) (Session, error) {
	return s.command(sessionID, Running, func(c commander) error { return c.Resume() })
}

// Stop ends a session: the companion app is told to stop, the process
// is killed if it lingers and the control server is shut down.
func (s *Service) Stop(sessionID string) (Session, error) {
	session, err := s.Details(sessionID)
	if err != nil {
		return Session{}, err
	}

	if !session.State.CanTransition(Stopped) {
		return Session{}, s.invalidTransition(session.State, Stopped)
	}

	run := s.takeRun(session.ID)
	if run != nil {
		if err := run.ctrl.Stop(); err != nil {
			log.WithFields(log.Fields{"error": err, "sessionID": session.ID}).
				Warn("Could not deliver stop command")
		}
		s.teardown(run)
	}

	session.State = Stopped
	if err := s.store.UpdateSession(&session); err != nil {
		return Session{}, err
	}

	log.WithFields(log.Fields{"sessionID": session.ID}).Info("Session stopped")

	s.publish("session_stopped", session)

	return session, nil
}

// command validates the state transition, delivers the control message
// and persists the new state.
func (s *Service) command(sessionID string, to RunState, send func(commander) error) (Session, error) {
	session, err := s.Details(sessionID)
	if err != nil {
		return Session{}, err
	}

	if !session.State.CanTransition(to) {
		return Session{}, s.invalidTransition(session.State, to)
	}

	s.mu.Lock()
	run := s.active[session.ID]
	s.mu.Unlock()

	if run == nil {
		return Session{}, &errors.RequestError{
			StatusCode: http.StatusConflict,
			Err:        fmt.Errorf("session %s has no running app", session.ID),
		}
	}

	if err := send(run.ctrl); err != nil {
		return Session{}, err
	}

	session.State = to
	if err := s.store.UpdateSession(&session); err != nil {
		return Session{}, err
	}

	s.publish("session_state_changed", session)

	return session, nil
}

// handleClientEvent reacts to messages from the companion app.
func (s *Service) handleClientEvent(sessionID uuid.UUID, msg appcontrol.Message) {
	switch msg.EventType() {
	case appcontrol.EventWaiting:
		// App is up and waiting for its run parameters.
		s.mu.Lock()
		run := s.active[sessionID]
		s.mu.Unlock()
		if run == nil {
			return
		}
		if err := run.ctrl.SendParameters(run.updatesPerMin); err != nil {
			log.WithFields(log.Fields{"error": err, "sessionID": sessionID}).
				Warn("Could not send run parameters")
		}

	case appcontrol.EventReady:
		if err := s.transition(sessionID, Ready); err != nil {
			log.WithFields(log.Fields{"error": err, "sessionID": sessionID}).
				Warn("Could not mark session ready")
		}

	case appcontrol.EventClose:
		s.handleClientClose(sessionID)

	case appcontrol.EventRequestSamples:
		s.publish("samples_requested", map[string]interface{}{
			"sessionId": sessionID.String(),
		})

	default:
		log.WithFields(log.Fields{"sessionID": sessionID, "eventType": msg.EventType()}).
			Warn("Unknown app control event")
	}
}

// handleClientClose finishes a session whose app went away. Teardown
// happens on a fresh goroutine: this is called from the control
// server's read loop, which Stop waits on.
func (s *Service) handleClientClose(sessionID uuid.UUID) {
	run := s.takeRun(sessionID)
	if run == nil {
		return
	}

	go func() {
		s.teardown(run)

		if err := s.transition(sessionID, Finished); err != nil {
			log.WithFields(log.Fields{"error": err, "sessionID": sessionID}).
				Warn("Could not mark session finished")
		}
	}()
}

// transition persists a client driven state change.
func (s *Service) transition(sessionID uuid.UUID, to RunState) error {
	session, err := s.store.Session(sessionID)
	if err != nil {
		return err
	}

	if session.State == to {
		return nil
	}
	if !session.State.CanTransition(to) {
		return s.invalidTransition(session.State, to)
	}

	session.State = to
	if err := s.store.UpdateSession(&session); err != nil {
		return err
	}

	s.publish("session_state_changed", session)

	return nil
}

// takeRun removes and returns the active run for a session, if any.
func (s *Service) takeRun(sessionID uuid.UUID) *activeRun {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := s.active[sessionID]
	delete(s.active, sessionID)

	return run
}

func (s *Service) teardown(run *activeRun) {
	if run.proc != nil {
		if err := run.proc.Stop(); err != nil {
			log.WithFields(log.Fields{"error": err, "sessionID": run.sessionID}).
				Debug("App process exited with error")
		}
	}
	run.ctrl.Close()
}

// abortStart marks a just-created session stopped after a failed
// launch.
func (s *Service) abortStart(session *Session) {
	session.State = Stopped
	if err := s.store.UpdateSession(session); err != nil {
		log.WithFields(log.Fields{"error": err, "sessionID": session.ID}).
			Warn("Could not mark session stopped after failed start")
	}
}

func (s *Service) invalidTransition(from, to RunState) error {
	return &errors.RequestError{
		StatusCode: http.StatusConflict,
		Err:        fmt.Errorf("invalid session state transition %s -> %s", from, to),
	}
}

func (s *Service) publish(eventType string, payload interface{}) {
	if s.events != nil {
		s.events.Publish(eventType, payload)
	}
}
