package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration signals an operator or programmer mistake (invalid clause, missing index name,
	// unknown aggregation path). Never retried and never sent to the engine.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransport signals a network or engine failure.
	ErrTransport = errors.New("transport error")
	// ErrConflict signals an optimistic concurrency failure on a merge-update.
	ErrConflict = errors.New("version conflict")
	// ErrResolution signals a search hit that cannot be mapped back to a content node.
	ErrResolution = errors.New("hit resolution failed")
	// ErrNotFound signals a missing node, workspace or document.
	ErrNotFound = errors.New("not found")
)

// ConfigurationError wraps ErrConfiguration with a reason.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return ErrConfiguration.Error() + ": " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NewConfigurationError creates a configuration error with a formatted reason.
func NewConfigurationError(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// ConflictError wraps ErrConflict with the number of attempts made.
type ConflictError struct {
	DocumentID string
	Attempts   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: document %s after %d attempts", ErrConflict.Error(), e.DocumentID, e.Attempts)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
