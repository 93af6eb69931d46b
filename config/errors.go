package config

import "errors"

var (
	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrEmptyDomain indicates a missing ledger name, version, or instance.
	ErrEmptyDomain = errors.New("config: ledger name, version and instance must all be set")

	// ErrInvalidSchedule indicates schedule parameters outside acceptable ranges.
	ErrInvalidSchedule = errors.New("config: invalid schedule parameters")
)
