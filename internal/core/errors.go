package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by services when a keyed lookup misses.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput marks caller mistakes; adapters map it to 400.
var ErrInvalidInput = errors.New("invalid input")

// ErrConflict is returned when a create would overwrite an existing key.
var ErrConflict = errors.New("already exists")

// Authentication failures. Callers should not reveal which one occurred.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user is inactive")
	ErrUserLocked         = errors.New("user is locked")
)

// ErrDelegateDisabled is wrapped by every call made to a DISABLED delegate.
var ErrDelegateDisabled = errors.New("reasoning delegate disabled")

// ConfigurationError records why the reasoning delegate could not be made ready.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// ValidationError is a reasoning-service payload that does not match the plan contract.
// Raw holds the offending payload for diagnosis.
type ValidationError struct {
	Reason string
	Raw    string
}

func (e *ValidationError) Error() string {
	return "invalid plan payload: " + e.Reason
}

// DataError describes a stock record rejected at the store boundary.
type DataError struct {
	Code   string
	Index  int
	Reason string
}

func (e *DataError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("record #%d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("record %q: %s", e.Code, e.Reason)
}
