// Package fault defines the engine-wide error taxonomy. Each category is a
// sentinel; packages wrap them with detail so callers can branch with
// errors.Is while logs keep the specific cause.
package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation covers length, range, and empty-field violations.
	ErrValidation = errors.New("validation error")
	// ErrAuthorization covers missing capability, not-owner, and
	// not-assigned-verifier failures.
	ErrAuthorization = errors.New("not authorized")
	// ErrState covers illegal lifecycle transitions.
	ErrState = errors.New("invalid state")
	// ErrCapacity covers per-entity cap violations.
	ErrCapacity = errors.New("capacity exceeded")
	// ErrReplay covers signature or nonce reuse.
	ErrReplay = errors.New("replay detected")
	// ErrEconomic covers insufficient stake/balance and unmet cooldowns.
	// A cooldown-caused ErrEconomic is the only retryable category.
	ErrEconomic = errors.New("economic constraint")
	// ErrNotFound covers lookups of unknown entities.
	ErrNotFound = errors.New("not found")
)

func Validationf(format string, args ...interface{}) error {
	return wrap(ErrValidation, format, args...)
}

func Authorizationf(format string, args ...interface{}) error {
	return wrap(ErrAuthorization, format, args...)
}

func Statef(format string, args ...interface{}) error {
	return wrap(ErrState, format, args...)
}

func Capacityf(format string, args ...interface{}) error {
	return wrap(ErrCapacity, format, args...)
}

func Replayf(format string, args ...interface{}) error {
	return wrap(ErrReplay, format, args...)
}

func Economicf(format string, args ...interface{}) error {
	return wrap(ErrEconomic, format, args...)
}

func NotFoundf(format string, args ...interface{}) error {
	return wrap(ErrNotFound, format, args...)
}

func wrap(category error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", category, fmt.Sprintf(format, args...))
}
