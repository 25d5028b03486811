package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the service reports a missing entity.
var ErrNotFound = errors.New("not found")

// AuthKind distinguishes authentication failures.
type AuthKind string

const (
	AuthInvalidCredentials AuthKind = "invalid_credentials"
	AuthSessionExpired     AuthKind = "session_expired"
	AuthValidationFailed   AuthKind = "validation_failed"
)

// FieldError is a field-level message from the service's request validation.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// AuthError reports a failed authentication exchange. Message carries the
// service's text unchanged; Fields is populated for signup validation
// rejections.
type AuthError struct {
	Kind    AuthKind
	Message string
	Fields  []FieldError
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("auth: %s", e.Kind)
}

// ValidationKind distinguishes locally detectable invalid wager input.
type ValidationKind string

const (
	ValidationInsufficientBalance ValidationKind = "insufficient_balance"
	ValidationBelowMinimum        ValidationKind = "below_minimum"
	ValidationMarketNotTradable   ValidationKind = "market_not_tradable"
)

// ValidationError reports invalid input caught before any network call.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Kind, e.Message)
}

// InvalidTransitionError reports a market state change attempted out of
// order. Recoverable by re-fetching the current snapshot.
type InvalidTransitionError struct {
	Action string       // "lock" or "resolve"
	Status MarketStatus // status the market was in when the action was attempted
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s market in status %s", e.Action, e.Status)
}

// NetworkError reports an unexpected response from the remote service. The
// server message is surfaced verbatim and the call is never retried by the
// core.
type NetworkError struct {
	StatusCode int
	Message    string
}

func (e *NetworkError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("service: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("service: HTTP %d: %s", e.StatusCode, e.Message)
}
