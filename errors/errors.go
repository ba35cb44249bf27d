// Package errors holds the sentinel errors of the collector CLI and helpers
// for enriching, formatting and mapping them to exit codes.
package errors

import (
	"github.com/cockroachdb/errors"
)

var (
	ErrConfigLoad          = errors.New("failed to load configuration")
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrWriteOutput         = errors.New("failed to write output")
	ErrOpenLogFile         = errors.New("failed to open log file")
	ErrInvalidArguments    = errors.New("invalid arguments")
	ErrReadEnvFile         = errors.New("failed to read env file")
)
