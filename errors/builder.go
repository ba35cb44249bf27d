package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorBuilder provides a fluent API for constructing enriched errors.
type ErrorBuilder struct {
	err       error
	hints     []string
	exitCode  *int
	sentinels []error
}

// Build creates a new ErrorBuilder from a base error.
// A leaf error (no wrapped cause) is marked as a sentinel so errors.Is() keeps
// matching it after enrichment.
func Build(err error) *ErrorBuilder {
	builder := &ErrorBuilder{err: err}

	if err != nil && errors.UnwrapOnce(err) == nil {
		builder.sentinels = append(builder.sentinels, err)
	}

	return builder
}

// WithCause joins cause under the builder's error as "err: cause".
// Both errors stay reachable by the standard errors.Is and errors.As.
func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	if cause != nil && b.err != nil {
		b.err = fmt.Errorf("%w: %w", b.err, cause)
	}
	return b
}

// WithHint adds a user-facing hint to the error.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.hints = append(b.hints, hint)
	return b
}

// WithHintf adds a formatted user-facing hint to the error.
func (b *ErrorBuilder) WithHintf(format string, args ...interface{}) *ErrorBuilder {
	b.hints = append(b.hints, fmt.Sprintf(format, args...))
	return b
}

// WithExplanation adds a detailed explanation shown in verbose output.
func (b *ErrorBuilder) WithExplanation(explanation string) *ErrorBuilder {
	if b.err != nil {
		b.err = errors.WithDetail(b.err, explanation)
	}
	return b
}

// WithExitCode attaches an exit code to the error.
func (b *ErrorBuilder) WithExitCode(code int) *ErrorBuilder {
	b.exitCode = &code
	return b
}

// WithSentinel marks the error with a sentinel error for errors.Is() checks.
func (b *ErrorBuilder) WithSentinel(sentinel error) *ErrorBuilder {
	b.sentinels = append(b.sentinels, sentinel)
	return b
}

// Err finalizes and returns the enriched error.
func (b *ErrorBuilder) Err() error {
	if b.err == nil {
		return nil
	}

	err := b.err

	for _, hint := range b.hints {
		err = errors.WithHint(err, hint)
	}

	// Marks go on after all other wrapping so they sit at the top of the chain.
	for _, sentinel := range b.sentinels {
		err = errors.Mark(err, sentinel)
		if !stderrors.Is(err, sentinel) {
			err = &sentinelError{cause: err, sentinel: sentinel}
		}
	}

	if b.exitCode != nil {
		err = WithExitCode(err, *b.exitCode)
	}

	return err
}

// sentinelError exposes a sentinel to the standard errors.Is, which cannot see
// cockroach marks.
type sentinelError struct {
	cause    error
	sentinel error
}

func (e *sentinelError) Error() string { return e.cause.Error() }

func (e *sentinelError) Unwrap() error { return e.cause }

func (e *sentinelError) Cause() error { return e.cause }

func (e *sentinelError) Is(target error) bool { return target == e.sentinel }
