// Package sniperr provides structured error handling for trenchsniperd.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors, matching the taxonomy
// of kinds the control plane must surface (§7).
package sniperr

import (
	"errors"
	"fmt"
	"sort"
)

// Process exit codes.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error, fatal configuration error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Authentication/vault access failed
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Permission denied or insufficient funds
)

// SniperError is the structured error type for trenchsniperd.
type SniperError struct {
	Code       string            // Machine-readable error code (the "kind")
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for the operator
	Cause      error             // Underlying error
	ExitCode   int               // Exit code when surfaced by a CLI entry point
}

func (e *SniperError) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap allows errors.Is/As/Unwrap to reach the underlying cause.
func (e *SniperError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for SniperError: two SniperErrors match if their
// Code matches, regardless of Details/Cause/Suggestion.
func (e *SniperError) Is(target error) bool {
	var t *SniperError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors, one per kind named in §7.
var (
	// Vault access (§4.1, §7).
	ErrLocked         = &SniperError{Code: "LOCKED", Message: "vault is locked", ExitCode: ExitAuth}
	ErrInvalidPassword = &SniperError{Code: "INVALID_PASSWORD", Message: "invalid vault password", ExitCode: ExitAuth}
	ErrCorruptVault    = &SniperError{Code: "CORRUPT_VAULT", Message: "vault file is corrupt", ExitCode: ExitGeneral}

	// Vault mutation (§4.1, §7).
	ErrUnknownWallet  = &SniperError{Code: "UNKNOWN_WALLET", Message: "unknown wallet", ExitCode: ExitNotFound}
	ErrWalletExists   = &SniperError{Code: "WALLET_EXISTS", Message: "wallet already exists", ExitCode: ExitInput}
	ErrProtectedWallet = &SniperError{Code: "PROTECTED_WALLET", Message: "wallet is protected by a launch record", ExitCode: ExitPermission}

	// Pre-flight failures (§4.5, §7).
	ErrInsufficientFunds    = &SniperError{Code: "INSUFFICIENT_FUNDS", Message: "insufficient funds", ExitCode: ExitPermission}
	ErrInsufficientTreasury = &SniperError{Code: "INSUFFICIENT_TREASURY", Message: "insufficient treasury balance", ExitCode: ExitPermission}

	// Router validation (§4.3, §7).
	ErrNoRoute              = &SniperError{Code: "NO_ROUTE", Message: "no venue available for token", ExitCode: ExitGeneral}
	ErrStaleQuote           = &SniperError{Code: "STALE_QUOTE", Message: "quote is stale", ExitCode: ExitGeneral}
	ErrExcessivePriceImpact = &SniperError{Code: "EXCESSIVE_PRICE_IMPACT", Message: "price impact exceeds policy", ExitCode: ExitGeneral}

	// Venue client failures (§4.2, §7).
	ErrSubmissionFailed = &SniperError{Code: "SUBMISSION_FAILED", Message: "transaction submission failed", ExitCode: ExitGeneral}
	ErrOnChainReject    = &SniperError{Code: "ON_CHAIN_REJECT", Message: "transaction rejected on-chain", ExitCode: ExitGeneral}
	ErrNotConfirmed     = &SniperError{Code: "NOT_CONFIRMED", Message: "transaction not confirmed within the polling window", ExitCode: ExitGeneral}

	// Orchestrator invariants (§4.6, §7).
	ErrAlreadyRunning = &SniperError{Code: "ALREADY_RUNNING", Message: "a session of this kind is already running", ExitCode: ExitInput}
	ErrGroupLimit     = &SniperError{Code: "GROUP_LIMIT", Message: "maximum number of running bot sessions reached", ExitCode: ExitInput}
	ErrDuplicateName  = &SniperError{Code: "DUPLICATE_NAME", Message: "a running bot session already uses this name", ExitCode: ExitInput}

	// Idempotent benign outcome (§4.6, §7).
	ErrNotFound = &SniperError{Code: "NOT_FOUND", Message: "session not found", ExitCode: ExitNotFound}

	// Configuration (§7).
	ErrConfiguration = &SniperError{Code: "CONFIGURATION_ERROR", Message: "invalid or missing configuration", ExitCode: ExitGeneral}

	// General.
	ErrGeneral = &SniperError{Code: "GENERAL_ERROR", Message: "an error occurred", ExitCode: ExitGeneral}
)

// New creates a new SniperError with the given code and message.
func New(code, message string) *SniperError {
	return &SniperError{Code: code, Message: message, ExitCode: ExitGeneral}
}

// Wrap wraps an error with additional context, preserving the kind (Code)
// and exit code of a SniperError cause when present.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var se *SniperError
	if errors.As(err, &se) {
		return &SniperError{
			Code:       se.Code,
			Message:    fmt.Sprintf("%s: %s", msg, se.Message),
			Details:    se.Details,
			Suggestion: se.Suggestion,
			Cause:      err,
			ExitCode:   se.ExitCode,
		}
	}

	return &SniperError{Code: "GENERAL_ERROR", Message: msg, Cause: err, ExitCode: ExitGeneral}
}

// WithDetails returns a copy of err (or a new general error) carrying details.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var se *SniperError
	if errors.As(err, &se) {
		return &SniperError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    details,
			Suggestion: se.Suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &SniperError{Code: "GENERAL_ERROR", Message: err.Error(), Details: details, Cause: err, ExitCode: ExitGeneral}
}

// WithSuggestion returns a copy of err carrying an actionable suggestion.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var se *SniperError
	if errors.As(err, &se) {
		return &SniperError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    se.Details,
			Suggestion: suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &SniperError{Code: "GENERAL_ERROR", Message: err.Error(), Suggestion: suggestion, Cause: err, ExitCode: ExitGeneral}
}

// ExitCode returns the process exit code appropriate for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var se *SniperError
	if errors.As(err, &se) {
		return se.ExitCode
	}
	return ExitGeneral
}

// Kind returns the machine-readable code of err, or "" if err is not (or
// does not wrap) a SniperError.
func Kind(err error) string {
	var se *SniperError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
