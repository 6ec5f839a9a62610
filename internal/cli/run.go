package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xxSusel/flitify/internal/config"
	"github.com/xxSusel/flitify/internal/daemon"
	"github.com/xxSusel/flitify/internal/logger"
	"github.com/xxSusel/flitify/pkg/client"
)

var runServerAddr string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the server and serve actions",
	Long: `Connect to the configured flitify server and serve actions in the
foreground until the server closes the connection, kicks this client, or the
process receives SIGINT/SIGTERM.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runServerAddr, "server", "", "server address, overrides the configured one")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if runServerAddr != "" {
		cfg.Server.Address = runServerAddr
	}
	if cmd.Root().PersistentFlags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Refuse to double-run against the same data directory
	pidFile := getPIDFilePath(cfg)
	if isRunning(pidFile) {
		return fmt.Errorf("client is already running (PID file: %s)", pidFile)
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	d, err := daemon.New(cfg, log, daemon.Options{
		Version:    version,
		ConfigPath: cfgFile,
	})
	if err != nil {
		return err
	}

	if err := d.Start(); err != nil {
		_ = d.Stop()
		return err
	}

	err = d.Wait()

	// A kick is a deliberate termination, not a failure.
	var kicked *client.KickedError
	if errors.As(err, &kicked) {
		log.Info().Str("reason", kicked.Reason).Msg("Server terminated the session")
		return nil
	}
	return err
}

func getPIDFilePath(cfg *config.Config) string {
	if cfg != nil && cfg.DataDir != "" {
		return filepath.Join(cfg.DataDir, "flitify-client.pid")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/flitify-client.pid"
	}
	return filepath.Join(home, ".flitify", "flitify-client.pid")
}

func isRunning(pidFile string) bool {
	if _, err := os.Stat(pidFile); os.IsNotExist(err) {
		return false
	}

	// Read PID and check if process exists
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return false
	}

	var pid int
	_, err = fmt.Sscanf(string(data), "%d", &pid)
	if err != nil {
		return false
	}

	// Check if process exists
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// On Unix, FindProcess always succeeds, so we need to send signal 0
	err = process.Signal(syscall.Signal(0))
	return err == nil
}
