/*
errors.go - Centralized error types for the compensation engine

PURPOSE:
  All error kinds in one place. Every failure is a typed result returned to
  the immediate caller; nothing panics for control flow.

ERROR CATEGORIES:
  1. Routing id errors - EmptyAccount, InvalidFormat, InternalLength
  2. Registry errors - DuplicateAccount, InvalidName, InvalidAccount
  3. Encoder errors - InvalidTreasuryAccount, NoValidRecords, MalformedRecord
  4. Restore errors - InvalidBackupFormat

USAGE:
  if errors.Is(err, compensation.ErrDuplicateAccount) {
      // tell the operator the CCP is already registered
  }

SEE ALSO:
  - rip.go, registry.go, snapshot.go: Produce these errors
  - payment/encoder.go: Produces the encoder errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package compensation

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmptyAccount is returned when the account is blank after trimming.
	ErrEmptyAccount = errors.New("empty account")

	// ErrInvalidFormat is returned when the account contains a non-digit.
	ErrInvalidFormat = errors.New("invalid account format")

	// ErrInternalLength is returned when an assembled routing id is not 20 digits.
	ErrInternalLength = errors.New("routing id length mismatch")

	// ErrDuplicateAccount is returned when the account belongs to another beneficiary.
	ErrDuplicateAccount = errors.New("duplicate account")

	// ErrInvalidName is returned when the name is empty or not Latin letters.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidAccount is returned when the account cannot produce a routing id.
	ErrInvalidAccount = errors.New("invalid account")

	// ErrBeneficiaryNotFound is returned when a referenced beneficiary doesn't exist.
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")

	// ErrInvalidTreasuryAccount is returned when the institution's treasury
	// account cannot produce a routing id. No batch is produced.
	ErrInvalidTreasuryAccount = errors.New("invalid treasury account")

	// ErrNoValidRecords is returned when every candidate record was excluded.
	ErrNoValidRecords = errors.New("no valid records")

	// ErrMalformedRecord is returned when an assembled line is not 62 characters.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrInvalidBackupFormat is returned when a backup misses a top-level key
	// or cannot be decoded.
	ErrInvalidBackupFormat = errors.New("invalid backup format")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// AccountError describes why an account could not produce a routing id.
type AccountError struct {
	Account string
	Err     error // ErrEmptyAccount, ErrInvalidFormat or ErrInternalLength
}

func (e *AccountError) Error() string {
	return fmt.Sprintf("account %q: %v", e.Account, e.Err)
}

func (e *AccountError) Unwrap() error { return e.Err }

// ValidationError rejects a registry mutation. State is left unchanged.
type ValidationError struct {
	Field  string
	Value  string
	Kind   error // ErrInvalidName, ErrInvalidAccount or ErrDuplicateAccount
	Reason error // underlying cause, if any
}

func (e *ValidationError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("%v: %s %q: %v", e.Kind, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%v: %s %q", e.Kind, e.Field, e.Value)
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *ValidationError) Unwrap() []error {
	if e.Reason != nil {
		return []error{e.Kind, e.Reason}
	}
	return []error{e.Kind}
}

// DuplicateAccountError names the beneficiary already holding the account.
type DuplicateAccountError struct {
	Account string
	OwnerID BeneficiaryID
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("account %q already registered to beneficiary %d", e.Account, e.OwnerID)
}

func (e *DuplicateAccountError) Unwrap() error { return ErrDuplicateAccount }

// BackupError explains why a backup document was rejected.
type BackupError struct {
	MissingKey string
	Err        error
}

func (e *BackupError) Error() string {
	if e.MissingKey != "" {
		return fmt.Sprintf("invalid backup format: missing %q", e.MissingKey)
	}
	return fmt.Sprintf("invalid backup format: %v", e.Err)
}

func (e *BackupError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidBackupFormat, e.Err}
	}
	return []error{ErrInvalidBackupFormat}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidAccount) ||
		errors.Is(err, ErrDuplicateAccount) ||
		errors.Is(err, ErrEmptyAccount) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrInvalidBackupFormat)
}

// IsNotFound returns true if the error indicates a missing beneficiary.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBeneficiaryNotFound)
}

// IsBatchFailure returns true if the error aborted payment batch production.
func IsBatchFailure(err error) bool {
	return errors.Is(err, ErrInvalidTreasuryAccount) ||
		errors.Is(err, ErrNoValidRecords) ||
		errors.Is(err, ErrMalformedRecord)
}
