// Package launcher starts and supervises companion app executables.
// The executable receives the control server's IP and port as argv,
// connects back over TCP and is driven through the appcontrol protocol.
package launcher

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"
)

// State of a supervised process.
type State string

const (
	Off         State = "OFF"
	PoweringOn  State = "POWERING_ON"
	On          State = "ON"
	PoweringOff State = "POWERING_OFF"
)

// Process is one running companion executable.
type Process struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc

	mu    sync.Mutex
	state State

	done    chan struct{}
	waitErr error
}

// Start launches the executable with the control server address as
// arguments. The returned Process is in state On once the command has
// started; Wait and Stop manage the rest of its lifecycle.
func Start(ctx context.Context, exePath, ip string, port int) (*Process, error) {
	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, exePath, ip, strconv.Itoa(port))

	p := &Process{
		cmd:    cmd,
		cancel: cancel,
		state:  PoweringOn,
		done:   make(chan struct{}),
	}

	if err := cmd.Start(); err != nil {
		cancel()
		p.setState(Off)
		return nil, fmt.Errorf("could not start app executable %q: %w", exePath, err)
	}

	p.setState(On)

	log.WithFields(log.Fields{"exe": exePath, "pid": cmd.Process.Pid}).
		Debug("App executable started")

	go func() {
		p.waitErr = cmd.Wait()
		p.setState(Off)
		close(p.done)
	}()

	return p, nil
}

func (p *Process) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// State reports the current process state.
func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Done is closed once the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process exits or the context is cancelled.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.waitErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop kills the process if it is still running and waits for it to
// exit.
func (p *Process) Stop() error {
	p.mu.Lock()
	if p.state == On || p.state == PoweringOn {
		p.state = PoweringOff
	}
	p.mu.Unlock()

	p.cancel()
	<-p.done

	return p.waitErr
}
