// Package config loads and validates ledger configuration from a plain
// key=value file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the static parameters of one ledger instance. Schedule
// parameters configured here are starting values; later changes go through
// the ledger's admin operations so they checkpoint first.
type Config struct {
	// DataDir is where the ledger database and signer key live.
	DataDir string

	// LedgerName, LedgerVersion, ChainID and Instance form the claim
	// domain separator. Two instances must never share all four.
	LedgerName    string
	LedgerVersion string
	ChainID       uint64
	Instance      string

	// InitialRatePerPeriod is the emission per period at setup.
	InitialRatePerPeriod uint64
	// FinalRatePerPeriod is the saturation bound the rate steps toward.
	FinalRatePerPeriod uint64
	// ChangeBasisPoints is the signed per-period rate step, in basis points.
	ChangeBasisPoints int64
	// PeriodLengthTicks is the number of ticks between rate steps.
	PeriodLengthTicks uint64
	// TicksPerPeriod is the divisor deriving the per-tick rate.
	TicksPerPeriod uint64
}

// DefaultConfig returns a configuration with conservative defaults. The
// caller must still fill in Instance before use.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		DataDir:              filepath.Join(home, ".vestry"),
		LedgerName:           "vestry",
		LedgerVersion:        "1",
		ChainID:              1,
		InitialRatePerPeriod: 100000,
		FinalRatePerPeriod:   100000,
		ChangeBasisPoints:    0,
		PeriodLengthTicks:    1200,
		TicksPerPeriod:       1200,
	}
}

// ConfigPath returns the conventional config file location under dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// LoadConfig reads a key=value config file. Missing keys keep their
// DefaultConfig values; unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, ErrConfigNotFound
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, i+1, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if err := cfg.set(key, value); err != nil {
			return cfg, fmt.Errorf("%w: line %d: %w", ErrInvalidConfigLine, i+1, err)
		}
	}
	return cfg, nil
}

func (c *Config) set(key, value string) error {
	switch key {
	case "data_dir":
		c.DataDir = value
	case "ledger_name":
		c.LedgerName = value
	case "ledger_version":
		c.LedgerVersion = value
	case "chain_id":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("chain_id: %w", err)
		}
		c.ChainID = v
	case "instance":
		c.Instance = value
	case "initial_rate_per_period":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("initial_rate_per_period: %w", err)
		}
		c.InitialRatePerPeriod = v
	case "final_rate_per_period":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("final_rate_per_period: %w", err)
		}
		c.FinalRatePerPeriod = v
	case "change_basis_points":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("change_basis_points: %w", err)
		}
		c.ChangeBasisPoints = v
	case "period_length_ticks":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("period_length_ticks: %w", err)
		}
		c.PeriodLengthTicks = v
	case "ticks_per_period":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("ticks_per_period: %w", err)
		}
		c.TicksPerPeriod = v
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

// SaveConfig writes the configuration as a key=value file, creating the
// parent directory if needed.
func SaveConfig(path string, cfg Config) error {
	var b strings.Builder
	fmt.Fprintf(&b, "data_dir=%s\n", cfg.DataDir)
	fmt.Fprintf(&b, "ledger_name=%s\n", cfg.LedgerName)
	fmt.Fprintf(&b, "ledger_version=%s\n", cfg.LedgerVersion)
	fmt.Fprintf(&b, "chain_id=%d\n", cfg.ChainID)
	fmt.Fprintf(&b, "instance=%s\n", cfg.Instance)
	fmt.Fprintf(&b, "initial_rate_per_period=%d\n", cfg.InitialRatePerPeriod)
	fmt.Fprintf(&b, "final_rate_per_period=%d\n", cfg.FinalRatePerPeriod)
	fmt.Fprintf(&b, "change_basis_points=%d\n", cfg.ChangeBasisPoints)
	fmt.Fprintf(&b, "period_length_ticks=%d\n", cfg.PeriodLengthTicks)
	fmt.Fprintf(&b, "ticks_per_period=%d\n", cfg.TicksPerPeriod)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
