package xerrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ParsePGErrorCode returns the SQLSTATE of a postgres error, e.g. 23505 for unique_violation.
func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return "unknown"
}

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrNotFound       = errors.New("not found")
)

// Reconciliation
var (
	ErrProviderUnavailable = errors.New("external data source unavailable")
	ErrAlreadyInProgress   = errors.New("reconciliation already in progress")
	ErrPersistence         = errors.New("persistence failure")
	ErrRender              = errors.New("summary render failed")
)

// Read-back validation
var ErrValidationFailed = errors.New("invalid country data")

// ValidationError lists the fields of a stored record that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s: %s", ErrValidationFailed.Error(), strings.Join(keys, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// ProviderError wraps an upstream failure with the URL that failed.
type ProviderError struct {
	Source string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("could not fetch data from %s: %v", e.Source, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderUnavailable
}
