// Package housekeeping runs scheduled maintenance for the client: sweeping
// rotated log files and logging periodic runtime snapshots. Jobs run on
// their own goroutines and never touch the control connection.
package housekeeping

import (
	"fmt"
	"runtime"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Snapshot carries the session-level counters included in the periodic
// stats log line.
type Snapshot struct {
	SessionID      string
	Connected      bool
	ActionsHandled uint64
}

// Options configures the housekeeping service
type Options struct {
	// LogSweepSchedule is a cron expression for the rotated-log sweep.
	// Defaults to @daily.
	LogSweepSchedule string

	// StatsInterval is a cron expression for the stats snapshot.
	// Defaults to @every 1m.
	StatsInterval string

	// SweepLogs removes expired rotated log files
	SweepLogs func()

	// CollectStats returns the current session counters
	CollectStats func() Snapshot
}

// Service schedules and runs maintenance jobs
type Service struct {
	cron      *cron.Cron
	logger    zerolog.Logger
	opts      Options
	startedAt time.Time
}

// New creates a new housekeeping service
func New(opts Options, logger zerolog.Logger) (*Service, error) {
	if opts.SweepLogs == nil {
		return nil, fmt.Errorf("sweep logs callback is required")
	}
	if opts.CollectStats == nil {
		return nil, fmt.Errorf("collect stats callback is required")
	}

	if opts.LogSweepSchedule == "" {
		opts.LogSweepSchedule = "@daily"
	}
	if opts.StatsInterval == "" {
		opts.StatsInterval = "@every 1m"
	}

	s := &Service{
		cron:   cron.New(),
		logger: logger.With().Str("component", "housekeeping").Logger(),
		opts:   opts,
	}

	if _, err := s.cron.AddFunc(opts.LogSweepSchedule, s.runLogSweep); err != nil {
		return nil, fmt.Errorf("invalid log sweep schedule: %w", err)
	}
	if _, err := s.cron.AddFunc(opts.StatsInterval, s.runStatsSnapshot); err != nil {
		return nil, fmt.Errorf("invalid stats schedule: %w", err)
	}

	return s, nil
}

// Start begins running scheduled jobs
func (s *Service) Start() {
	s.startedAt = time.Now()
	s.cron.Start()

	s.logger.Info().
		Str("log_sweep_schedule", s.opts.LogSweepSchedule).
		Str("stats_interval", s.opts.StatsInterval).
		Msg("Housekeeping started")
}

// Stop halts scheduling and waits for running jobs to finish
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info().Msg("Housekeeping stopped")
}

// runLogSweep removes rotated log files past their retention age
func (s *Service) runLogSweep() {
	s.logger.Debug().Msg("Sweeping rotated logs")
	s.opts.SweepLogs()
}

// runStatsSnapshot logs a point-in-time view of the session and runtime
func (s *Service) runStatsSnapshot() {
	snap := s.opts.CollectStats()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s.logger.Info().
		Str("session_id", snap.SessionID).
		Bool("connected", snap.Connected).
		Uint64("actions_handled", snap.ActionsHandled).
		Int("goroutines", runtime.NumGoroutine()).
		Uint64("heap_alloc_bytes", mem.HeapAlloc).
		Dur("uptime", time.Since(s.startedAt)).
		Msg("Stats snapshot")
}
