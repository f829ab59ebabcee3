package account

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors - Lookup
var (
	// ErrAccountNotFound is returned when no account exists under a name.
	ErrAccountNotFound = errors.New("account: not found")
	// ErrInvalidName is returned for names that cannot map to an account.
	ErrInvalidName = errors.New("account: invalid name")
)

// Sentinel errors - Signing
var (
	// ErrBadPassphrase is returned when a keystore file cannot be decrypted.
	ErrBadPassphrase = errors.New("account: could not decrypt key with given passphrase")
	// ErrSignerMismatch is returned when a signature recovers to another address.
	ErrSignerMismatch = errors.New("account: signed transaction sender mismatch")
	// ErrSignerUnauthorized is returned when the remote signer rejects the API key.
	ErrSignerUnauthorized = errors.New("account: remote signer rejected credentials")
)

// SignerError is a non-retryable HTTP error from the remote signer.
type SignerError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *SignerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("client error: %d", e.StatusCode)
	}
	return fmt.Sprintf("client error: %d %s", e.StatusCode, e.Body)
}

// Is maps HTTP status codes onto the package sentinels.
func (e *SignerError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return target == ErrSignerUnauthorized
	case http.StatusNotFound:
		return target == ErrAccountNotFound
	default:
		return false
	}
}

// RetryableError marks a signer failure that may succeed on retry.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

func isRetryableError(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}
