// Package config loads the HCL configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/eric7237cire/poker-eval/internal/engine"
	"github.com/eric7237cire/poker-eval/internal/narrow"
)

// Config represents the complete configuration.
type Config struct {
	Server     ServerSettings     `hcl:"server,block"`
	Simulation SimulationSettings `hcl:"simulation,block"`
	Narrowing  NarrowingSettings  `hcl:"narrowing,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// SimulationSettings controls trial batches.
type SimulationSettings struct {
	Workers   int   `hcl:"workers,optional"`
	BatchSize int   `hcl:"batch_size,optional"`
	Seed      int64 `hcl:"seed,optional"`
	Seats     int   `hcl:"seats,optional"`
}

// NarrowingSettings controls range narrowing.
type NarrowingSettings struct {
	TrialsPerCombo int                `hcl:"trials_per_combo,optional"`
	Workers        int                `hcl:"workers,optional"`
	Thresholds     *ThresholdSettings `hcl:"thresholds,block"`
}

// ThresholdSettings overrides the heads-up equity bar of each preference level.
type ThresholdSettings struct {
	CallSmallBet float64 `hcl:"call_small_bet,optional"`
	SmallBet     float64 `hcl:"small_bet,optional"`
	LargeBet     float64 `hcl:"large_bet,optional"`
	AllIn        float64 `hcl:"all_in,optional"`
}

const (
	defaultAddress   = "localhost"
	defaultPort      = 8080
	defaultLogLevel  = "info"
	defaultBatchSize = 10000
	defaultSeats     = engine.MaxSeats
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	th := narrow.DefaultThresholds()
	return &Config{
		Server: ServerSettings{
			Address:  defaultAddress,
			Port:     defaultPort,
			LogLevel: defaultLogLevel,
		},
		Simulation: SimulationSettings{
			BatchSize: defaultBatchSize,
			Seats:     defaultSeats,
		},
		Narrowing: NarrowingSettings{
			TrialsPerCombo: narrow.DefaultTrialsPerCombo,
			Thresholds: &ThresholdSettings{
				CallSmallBet: th.CallSmallBet,
				SmallBet:     th.SmallBet,
				LargeBet:     th.LargeBet,
				AllIn:        th.AllIn,
			},
		},
	}
}

// Load reads an HCL file. A missing file yields Default.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Server.Address == "" {
		c.Server.Address = def.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = def.Server.LogLevel
	}
	if c.Simulation.BatchSize == 0 {
		c.Simulation.BatchSize = def.Simulation.BatchSize
	}
	if c.Simulation.Seats == 0 {
		c.Simulation.Seats = def.Simulation.Seats
	}
	if c.Narrowing.TrialsPerCombo == 0 {
		c.Narrowing.TrialsPerCombo = def.Narrowing.TrialsPerCombo
	}
	if c.Narrowing.Thresholds == nil {
		c.Narrowing.Thresholds = def.Narrowing.Thresholds
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Server.LogLevel, err)
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("simulation workers must not be negative")
	}
	if c.Simulation.BatchSize <= 0 {
		return fmt.Errorf("simulation batch size must be positive")
	}
	if c.Simulation.Seats < 2 || c.Simulation.Seats > engine.MaxSeats {
		return fmt.Errorf("seats must be between 2 and %d", engine.MaxSeats)
	}
	if c.Narrowing.TrialsPerCombo <= 0 {
		return fmt.Errorf("narrowing trials per combo must be positive")
	}
	if c.Narrowing.Workers < 0 {
		return fmt.Errorf("narrowing workers must not be negative")
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("narrowing thresholds: %w", err)
	}
	return nil
}

// Thresholds returns the configured preference bars.
func (c *Config) Thresholds() narrow.Thresholds {
	t := c.Narrowing.Thresholds
	if t == nil {
		return narrow.DefaultThresholds()
	}
	return narrow.Thresholds{
		CallSmallBet: t.CallSmallBet,
		SmallBet:     t.SmallBet,
		LargeBet:     t.LargeBet,
		AllIn:        t.AllIn,
	}
}

// ServerAddress returns the full listen address.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
