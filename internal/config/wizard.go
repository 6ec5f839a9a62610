package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Wizard provides an interactive configuration wizard
type Wizard struct {
	reader *bufio.Reader
}

// NewWizard creates a new configuration wizard
func NewWizard() *Wizard {
	return &Wizard{
		reader: bufio.NewReader(os.Stdin),
	}
}

// Run runs the interactive configuration wizard
func (w *Wizard) Run() (*Config, error) {
	fmt.Println("=== Flitify Client Configuration Wizard ===")
	fmt.Println()

	cfg := DefaultConfig()
	validator := NewValidator()

	// Transport
	fmt.Println("Controller connection:")
	fmt.Println()
	fmt.Println("Transport options:")
	fmt.Println("  tcp       - newline-delimited JSON over TCP (default)")
	fmt.Println("  websocket - JSON messages over a WebSocket connection")
	fmt.Print("Transport [tcp]: ")
	transport, err := w.readLine()
	if err != nil {
		return nil, err
	}

	if transport == "" {
		transport = "tcp"
	}

	if err := validator.ValidateTransport(transport); err != nil {
		fmt.Printf("Warning: %v, using default (tcp)\n", err)
		transport = "tcp"
	}

	cfg.Server.Transport = transport

	// Server address
	fmt.Println()
	prompt := "Server address (host:port): "
	if transport == "websocket" {
		prompt = "Server address (host:port or ws:// URL): "
	}

	for {
		fmt.Print(prompt)
		address, err := w.readLine()
		if err != nil {
			return nil, err
		}

		if address == "" {
			fmt.Println("Error: Server address is required")
			continue
		}

		if err := validator.ValidateServerAddress(address, transport); err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		cfg.Server.Address = address
		break
	}

	fmt.Println()

	// Metrics
	fmt.Print("Enable local metrics endpoint? (y/n) [n]: ")
	enable, err := w.readLine()
	if err != nil {
		return nil, err
	}

	if strings.ToLower(enable) == "y" {
		cfg.Metrics.Enabled = true

		fmt.Printf("Metrics listen address [%s]: ", cfg.Metrics.ListenAddr)
		addr, err := w.readLine()
		if err != nil {
			return nil, err
		}

		if addr != "" {
			if err := validator.ValidateAddress(addr); err != nil {
				fmt.Printf("Warning: %v, using default (%s)\n", err, cfg.Metrics.ListenAddr)
			} else {
				cfg.Metrics.ListenAddr = addr
			}
		}
	}

	fmt.Println()

	// Log Level
	fmt.Println("Logging:")
	fmt.Print("Log level (debug/info/warn/error) [info]: ")
	level, err := w.readLine()
	if err != nil {
		return nil, err
	}

	if level != "" {
		if err := validator.ValidateLogLevel(level); err != nil {
			fmt.Printf("Warning: %v, using default (info)\n", err)
		} else {
			cfg.Logging.Level = level
		}
	}

	fmt.Println()
	fmt.Println("Configuration complete!")

	return cfg, nil
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
