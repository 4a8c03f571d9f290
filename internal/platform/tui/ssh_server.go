package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/stairwalk/internal/config"
	"github.com/vovakirdan/stairwalk/internal/core"
	"github.com/vovakirdan/stairwalk/internal/metrics"
	"github.com/vovakirdan/stairwalk/internal/render"
	"github.com/vovakirdan/stairwalk/internal/session"
	"github.com/vovakirdan/stairwalk/internal/storage"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23235").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.stairwalk/host_key.
	HostKeyPath string

	// DBPath is the path to the reports database. Empty disables reports.
	DBPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// Sim is the simulation every connection gets its own copy of.
	Sim config.Config

	// TickRate is the viewer refresh rate in frames per second.
	TickRate int

	// Logger, when nil, logs to stderr with timestamps.
	Logger *log.Logger

	// Metrics, when set, is shared by all sessions.
	Metrics *metrics.Metrics
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23235",
		DBPath:      "~/.stairwalk/reports.db",
		IdleTimeout: 30 * time.Minute,
		Sim:         config.Default(),
		TickRate:    30,
	}
}

// SSHServer serves one independent simulation viewer per SSH session.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	store  *storage.Store
	logger *log.Logger
}

// viewerKey stores the session holder in the SSH context.
type viewerKey struct{}

// viewerHolder tracks the latest session built for one connection so it
// can be reported when the connection ends.
type viewerHolder struct {
	mu   sync.Mutex
	sess *session.Session
}

func (h *viewerHolder) set(s *session.Session) {
	h.mu.Lock()
	h.sess = s
	h.mu.Unlock()
}

func (h *viewerHolder) get() *session.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sess
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "stairwalk-ssh",
		})
	}

	if err := cfg.Sim.Validate(); err != nil {
		return nil, err
	}

	// Open storage
	var store *storage.Store
	if cfg.DBPath != "" {
		var err error
		store, err = storage.Open(cfg.DBPath)
		if err != nil {
			logger.Warn("could not open reports database", "error", err)
			// Continue without storage
		}
	}

	srv := &SSHServer{
		config: cfg,
		store:  store,
		logger: logger,
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".stairwalk", "host_key")
	}

	// Ensure host key directory exists
	hostKeyDir := filepath.Dir(hostKeyPath)
	if mkdirErr := os.MkdirAll(hostKeyDir, 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	// Middlewares run last to first: logging wraps reporting wraps the viewer.
	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.reportMiddleware,
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// builder returns a session builder for one connection.
func (s *SSHServer) builder(user string, holder *viewerHolder) Builder {
	return func(r render.Renderer) (*session.Session, error) {
		sess, err := session.New(s.config.Sim,
			session.WithRenderer(r),
			session.WithLogger(s.logger.With("user", user)),
			session.WithMetrics(s.config.Metrics),
		)
		if err != nil {
			return nil, err
		}
		holder.set(sess)
		return sess, nil
	}
}

// teaHandler creates a viewer with its own simulation for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	// Create runtime config from PTY size
	cfg := core.RuntimeConfig{
		ScreenW:  pty.Window.Width,
		ScreenH:  pty.Window.Height,
		TickRate: s.config.TickRate,
	}

	holder := &viewerHolder{}
	sshSession.Context().SetValue(viewerKey{}, holder)

	// The kinematics thread ends with the connection.
	model, err := NewModel(sshSession.Context(), s.builder(sshSession.User(), holder), cfg)
	if err != nil {
		s.logger.Error("cannot start simulation", "user", sshSession.User(), "error", err)
		return nil, nil
	}

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// reportMiddleware stops the connection's simulation once the viewer has
// exited and stores its timing report.
func (s *SSHServer) reportMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		next(sshSession)

		holder, ok := sshSession.Context().Value(viewerKey{}).(*viewerHolder)
		if !ok {
			return
		}
		sess := holder.get()
		if sess == nil {
			return
		}
		sess.Close()
		if s.store == nil {
			return
		}
		runID, err := s.store.SaveReport(sess.Report())
		if err != nil {
			s.logger.Warn("could not save report", "user", sshSession.User(), "error", err)
			return
		}
		s.logger.Info("report saved", "user", sshSession.User(), "run", runID, "ticks", sess.Sim.Clock().Ticks)
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until shutdown.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	// Setup signal handling for graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-done
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.server.Shutdown(ctx)
	if s.store != nil {
		s.store.Close()
	}
	return err
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
