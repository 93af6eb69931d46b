package config

import "fmt"

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}
	if cfg.LedgerName == "" || cfg.LedgerVersion == "" || cfg.Instance == "" {
		return ErrEmptyDomain
	}
	if cfg.PeriodLengthTicks == 0 {
		return fmt.Errorf("%w: period_length_ticks must be positive", ErrInvalidSchedule)
	}
	if cfg.TicksPerPeriod == 0 {
		return fmt.Errorf("%w: ticks_per_period must be positive", ErrInvalidSchedule)
	}
	if cfg.ChangeBasisPoints < -10000 || cfg.ChangeBasisPoints > 10000 {
		return fmt.Errorf("%w: change_basis_points must be within [-10000, 10000]", ErrInvalidSchedule)
	}
	return nil
}
