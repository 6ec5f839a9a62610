package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/xxSusel/flitify/internal/config"
	"github.com/xxSusel/flitify/internal/housekeeping"
	"github.com/xxSusel/flitify/internal/logger"
	"github.com/xxSusel/flitify/internal/observability"
	"github.com/xxSusel/flitify/internal/tracing"
	"github.com/xxSusel/flitify/pkg/client"
	"github.com/xxSusel/flitify/pkg/osagent"
	"github.com/xxSusel/flitify/pkg/transport"
)

// Daemon supervises one client process: the server connection, the action
// session and the supporting services (config watcher, housekeeping, optional
// metrics listener). Start brings everything up, Wait blocks until the
// session ends or a signal arrives, Stop tears everything down.
type Daemon struct {
	config  *config.Config
	logger  *logger.Logger
	version string

	// Core modules
	agent   osagent.Agent
	conn    transport.Conn
	session *client.Session

	// Services
	housekeeping *housekeeping.Service
	configWatch  *config.Watcher
	metrics      *observability.Server

	// Internal
	lifecycle *LifecycleManager

	// sessionDone receives the action loop's outcome exactly once.
	sessionDone chan error

	startTime time.Time
	running   bool
	mu        sync.RWMutex

	tracingEnabled bool
}

// Options carries the few inputs that are not part of the config file.
type Options struct {
	// Version is reported to the server in the hello announce.
	Version string

	// ConfigPath is the config file to watch for runtime changes. Empty
	// selects the default path.
	ConfigPath string
}

// New creates a new client daemon instance
func New(cfg *config.Config, log *logger.Logger, opts Options) (*Daemon, error) {
	observability.EnsureRegistered()

	tracingEnabled := true
	if err := tracing.InitOpenTelemetry("flitify-client"); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracing, continuing without spans")
		tracingEnabled = false
	}

	d := &Daemon{
		config:         cfg,
		logger:         log,
		version:        opts.Version,
		sessionDone:    make(chan error, 1),
		tracingEnabled: tracingEnabled,
	}

	if err := d.initializeModules(opts.ConfigPath); err != nil {
		if d.tracingEnabled {
			_ = tracing.ShutdownOpenTelemetry(context.Background())
			d.tracingEnabled = false
		}
		return nil, fmt.Errorf("failed to initialize client modules: %w", err)
	}

	d.lifecycle = NewLifecycleManager(d)

	return d, nil
}

// initializeModules builds every subsystem that does not need the network.
// Dialing the server happens in Start.
func (d *Daemon) initializeModules(configPath string) error {
	agent, err := osagent.New()
	if err != nil {
		return fmt.Errorf("failed to create system agent: %w", err)
	}
	d.agent = agent
	d.logger.Info().Msg("System agent initialized")

	// Audit trail lives next to the logs in the data directory.
	if d.config.DataDir != "" {
		auditPath := filepath.Join(d.config.DataDir, "audit.log")
		if err := observability.InitAuditLogger(auditPath); err != nil {
			d.logger.Warn().Err(err).Msg("Failed to initialize audit logger, using default stderr")
		} else {
			d.logger.Info().Str("path", auditPath).Msg("Audit logger initialized")
		}
	}

	hk, err := housekeeping.New(housekeeping.Options{
		LogSweepSchedule: d.config.Housekeeping.LogSweepSchedule,
		StatsInterval:    d.config.Housekeeping.StatsInterval,
		SweepLogs:        d.logger.Sweep,
		CollectStats:     d.collectStats,
	}, d.logger.GetZerolog())
	if err != nil {
		return fmt.Errorf("failed to create housekeeping service: %w", err)
	}
	d.housekeeping = hk
	d.logger.Info().Msg("Housekeeping service initialized")

	watcher, err := config.NewWatcher(config.NewLoader(configPath), d.applyConfigChange)
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	d.configWatch = watcher

	if d.config.Metrics.Enabled {
		d.metrics = observability.NewServer(d.config.Metrics.ListenAddr, d.logger.GetZerolog())
		d.logger.Info().Str("addr", d.config.Metrics.ListenAddr).Msg("Metrics server initialized")
	}

	return nil
}

// Start connects to the server and launches the action loop
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("client is already running")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	traceID := tracing.NewTraceID()
	logger := d.logger.GetZerolog().With().Str("trace_id", traceID).Logger()
	logger.Info().Str("version", d.version).Msg("Starting flitify client")

	// Start lifecycle manager
	if err := d.lifecycle.Start(); err != nil {
		return fmt.Errorf("failed to start lifecycle manager: %w", err)
	}

	// Start metrics listener if enabled
	if d.metrics != nil {
		if err := d.metrics.Start(); err != nil {
			logger.Warn().Err(err).Msg("Failed to start metrics listener")
		} else {
			logger.Info().Msg("Metrics listener started")
		}
	}

	// Start config watcher. The config file may not exist yet; running on
	// defaults without live reload is fine.
	if err := d.configWatch.Start(); err != nil {
		logger.Warn().Err(err).Msg("Failed to start config watcher, continuing without live reload")
	}

	// Connect to the server
	conn, err := transport.Dial(transport.Config{
		Address:            d.config.Server.Address,
		Kind:               d.config.Server.Transport,
		DialTimeout:        time.Duration(d.config.Server.DialTimeoutSeconds) * time.Second,
		ActionsPerSecond:   d.config.Limits.ActionsPerSecond,
		Burst:              d.config.Limits.Burst,
		InsecureSkipVerify: d.config.Server.InsecureSkipVerify,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}

	agentID, err := transport.LoadOrCreateAgentID(d.config.DataDir)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to load agent identity: %w", err)
	}

	if err := conn.Announce(transport.CollectHello(agentID, d.version)); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to announce to server: %w", err)
	}
	logger.Info().
		Str("agent_id", agentID).
		Str("server", conn.PeerAddr()).
		Msg("Connected to server")

	session, err := client.NewSession(conn, d.agent, client.Options{
		ShellTimeout: time.Duration(d.config.Shell.TimeoutSeconds) * time.Second,
		ShellPath:    d.config.Shell.Path,
		MaxFileBytes: d.config.Transfer.MaxFileBytes,
	}, d.logger.GetZerolog())
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to create session: %w", err)
	}

	d.mu.Lock()
	d.conn = conn
	d.session = session
	d.mu.Unlock()

	// Start housekeeping
	d.housekeeping.Start()

	// Launch the action loop
	go func() {
		d.sessionDone <- session.Run(context.Background())
	}()

	logger.Info().Msg("Client started successfully - action loop running")

	return nil
}

// Stop stops the client gracefully
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("client is not running")
	}
	d.running = false
	conn := d.conn
	d.mu.Unlock()

	traceID := tracing.NewTraceID()
	logger := d.logger.GetZerolog().With().Str("trace_id", traceID).Logger()
	logger.Info().Msg("Stopping flitify client")

	// Closing the connection unblocks the action loop; the session treats a
	// closed connection as an orderly exit.
	if conn != nil {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Error().Err(err).Msg("Failed to close server connection")
		}
	}

	// Stop housekeeping
	d.housekeeping.Stop()

	// Stop config watcher
	if err := d.configWatch.Stop(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop config watcher")
	}

	// Stop metrics listener
	if d.metrics != nil {
		if err := d.metrics.Stop(); err != nil {
			logger.Error().Err(err).Msg("Failed to stop metrics listener")
		}
	}

	// Stop lifecycle manager
	if err := d.lifecycle.Stop(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop lifecycle manager")
	}

	if d.tracingEnabled {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := tracing.ShutdownOpenTelemetry(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to shutdown tracing")
		}
		cancel()
		d.tracingEnabled = false
	}

	// Close audit logger
	if err := observability.GetAuditLogger().Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close audit logger")
	}

	logger.Info().Msg("Client stopped")

	return nil
}

// Wait blocks until the session ends on its own or the process receives
// SIGINT/SIGTERM, then stops the client. It returns the session outcome: nil
// for an orderly close, *client.KickedError when the server terminated the
// session, or the propagated failure.
func (d *Daemon) Wait() error {
	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var result error
	select {
	case sig := <-sigChan:
		d.logger.Info().Str("signal", sig.String()).Msg("Received signal")
		if err := d.Stop(); err != nil {
			d.logger.Error().Err(err).Msg("Failed to stop client")
		}
		// Stop closed the connection, which ends the loop. Collect the
		// outcome so a failure already in flight is not lost.
		result = <-d.sessionDone
	case result = <-d.sessionDone:
		if err := d.Stop(); err != nil {
			d.logger.Error().Err(err).Msg("Failed to stop client")
		}
	}

	return result
}

// applyConfigChange applies the reloadable subset of a config change. Only
// the log level can change at runtime; everything else needs a restart.
func (d *Daemon) applyConfigChange(cfg *config.Config) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		d.logger.Warn().
			Err(err).
			Str("level", cfg.Logging.Level).
			Msg("Ignoring invalid log level from config change")
		return
	}
	d.logger.Info().Str("level", cfg.Logging.Level).Msg("Log level updated")
	observability.RecordConfigAudit(context.Background(), "config_reloaded", "daemon", map[string]any{
		"level": cfg.Logging.Level,
	})
}

// collectStats snapshots the session for the periodic housekeeping log line.
func (d *Daemon) collectStats() housekeeping.Snapshot {
	d.mu.RLock()
	sess, conn := d.session, d.conn
	d.mu.RUnlock()

	snap := housekeeping.Snapshot{}
	if sess != nil {
		snap.SessionID = sess.ID()
		snap.ActionsHandled = sess.ActionsHandled()
	}
	if conn != nil {
		snap.Connected = conn.Connected()
	}
	return snap
}

// Status is a point-in-time view of the running client.
type Status struct {
	Running        bool
	Connected      bool
	SessionID      string
	ActionsHandled uint64
	Uptime         time.Duration
	StartTime      time.Time
}

// Status returns the daemon status
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	status := Status{
		Running: d.running,
	}

	if d.session != nil {
		status.SessionID = d.session.ID()
		status.ActionsHandled = d.session.ActionsHandled()
	}
	if d.conn != nil {
		status.Connected = d.conn.Connected()
	}
	if d.running {
		status.Uptime = time.Since(d.startTime)
		status.StartTime = d.startTime
	}

	return status
}

// GetConfig returns the daemon configuration
func (d *Daemon) GetConfig() *config.Config {
	return d.config
}

// GetLogger returns the daemon logger
func (d *Daemon) GetLogger() *logger.Logger {
	return d.logger
}
