package appcontrol

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// MessageHandler receives every message a connected client sends,
// keyed by the client's remote address.
type MessageHandler func(clientAddr string, msg Message)

// Server is the TCP side of the app control protocol. The shell runs
// one server per active session; the companion executable connects to
// it as a client.
type Server struct {
	listener net.Listener
	logger   *log.Logger

	onMessage    MessageHandler
	onDisconnect func(clientAddr string)

	mu      sync.Mutex
	clients map[string]net.Conn

	wg       sync.WaitGroup
	stopChan chan struct{}
}

type ServerOption func(*Server)

func WithMessageHandler(h MessageHandler) ServerOption {
	return func(s *Server) {
		s.onMessage = h
	}
}

func WithDisconnectHandler(h func(clientAddr string)) ServerOption {
	return func(s *Server) {
		s.onDisconnect = h
	}
}

func WithServerLogger(logger *log.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer starts listening on the given address. Port 0 picks a free
// port; Addr reports the actual one.
func NewServer(ip string, port int, opts ...ServerOption) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", ip, port))
	if err != nil {
		return nil, fmt.Errorf("could not open app control server: %w", err)
	}

	srv := &Server{
		listener: listener,
		clients:  make(map[string]net.Conn),
		stopChan: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(srv)
	}

	if srv.logger == nil {
		srv.logger = log.StandardLogger()
	}

	srv.wg.Add(1)
	go srv.acceptLoop()

	srv.logger.
		WithFields(log.Fields{"address": listener.Addr().String()}).
		Debug("App control server up")

	return srv, nil
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// SendTo sends a message to a specific connected client.
func (s *Server) SendTo(clientAddr string, msg Message) error {
	s.mu.Lock()
	conn, ok := s.clients[clientAddr]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("unknown client %s", clientAddr)
	}

	return WriteMessage(conn, msg)
}

// SendToAll sends a message to every connected client.
func (s *Server) SendToAll(msg Message) error {
	s.mu.Lock()
	conns := make([]net.Conn, 0, len(s.clients))
	for _, conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		if err := WriteMessage(conn, msg); err != nil {
			return err
		}
	}

	return nil
}

// ClientCount reports the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Stop closes the listener and all client connections and waits for
// the connection goroutines to drain.
func (s *Server) Stop() {
	close(s.stopChan)
	s.listener.Close()

	s.mu.Lock()
	for _, conn := range s.clients {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()

	s.logger.Debug("App control server closed")
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopChan:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}

			// A single aborted connection must not take the whole
			// session down, keep accepting.
			s.logger.
				WithFields(log.Fields{"error": err}).
				Warn("App control server could not accept a connection")
			select {
			case <-time.After(100 * time.Millisecond):
			case <-s.stopChan:
				return
			}
			continue
		}

		clientAddr := conn.RemoteAddr().String()

		s.mu.Lock()
		s.clients[clientAddr] = conn
		s.mu.Unlock()

		s.logger.
			WithFields(log.Fields{"client": clientAddr}).
			Debug("App control client connected")

		s.wg.Add(1)
		go s.readLoop(clientAddr, conn)
	}
}

func (s *Server) readLoop(clientAddr string, conn net.Conn) {
	defer s.wg.Done()
	defer s.closeClient(clientAddr, conn)

	for {
		msg, err := ReadMessage(conn)
		if err != nil {
			select {
			case <-s.stopChan:
			default:
				s.logger.
					WithFields(log.Fields{"client": clientAddr}).
					Debug("App control client disconnected")
			}
			return
		}

		if s.onMessage != nil {
			s.onMessage(clientAddr, msg)
		}
	}
}

func (s *Server) closeClient(clientAddr string, conn net.Conn) {
	conn.Close()

	s.mu.Lock()
	_, known := s.clients[clientAddr]
	delete(s.clients, clientAddr)
	s.mu.Unlock()

	if known && s.onDisconnect != nil {
		select {
		case <-s.stopChan:
		default:
			s.onDisconnect(clientAddr)
		}
	}
}
