package appcontrol

// Controller exposes the shell's control commands over a running
// server. Commands are broadcast; a session has exactly one companion
// app connected.
type Controller struct {
	srv *Server
}

func NewController(srv *Server) *Controller {
	return &Controller{srv: srv}
}

func (c *Controller) Server() *Server {
	return c.srv
}

// SendParameters pushes the run parameters to the companion app. The
// app answers with a "ready" event once it has applied them.
func (c *Controller) SendParameters(updatesPerMin int) error {
	return c.srv.SendToAll(NewMessage(EventSetParameters, map[string]interface{}{
		"updates_per_min": updatesPerMin,
	}))
}

func (c *Controller) Play() error {
	return c.srv.SendToAll(NewMessage(EventPlay, nil))
}

func (c *Controller) Pause() error {
	return c.srv.SendToAll(NewMessage(EventPause, nil))
}

func (c *Controller) Resume() error {
	return c.srv.SendToAll(NewMessage(EventResume, nil))
}

func (c *Controller) Stop() error {
	return c.srv.SendToAll(NewMessage(EventStop, nil))
}

// Close shuts the underlying server down.
func (c *Controller) Close() {
	c.srv.Stop()
}
