package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// Error codes for authentication and tenant-isolation denials. Each kind is
// surfaced to callers distinctly; they are never collapsed into a generic
// failure.
const (
	CodeInvalidCredential  = "INVALID_CREDENTIAL"
	CodeExpiredCredential  = "EXPIRED_CREDENTIAL"
	CodeIssuerUnreachable  = "ISSUER_UNREACHABLE"
	CodePrincipalInactive  = "PRINCIPAL_INACTIVE"
	CodeProvisioningDenied = "PROVISIONING_DENIED"
	CodeCrossTenantWrite   = "CROSS_TENANT_WRITE"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewInvalidCredential rejects a malformed or incorrectly signed credential.
func NewInvalidCredential(message string) error {
	return NewDomainError(CodeInvalidCredential, message, http.StatusUnauthorized, nil)
}

// NewExpiredCredential rejects an expired credential. Distinct from
// INVALID_CREDENTIAL: the caller can re-authenticate rather than investigate.
func NewExpiredCredential() error {
	return NewDomainError(CodeExpiredCredential, "credential expired", http.StatusUnauthorized, nil)
}

// NewIssuerUnreachable reports a transient failure fetching issuer key
// material. Callers may retry with backoff.
func NewIssuerUnreachable(err error) error {
	return &DomainError{
		Code:       CodeIssuerUnreachable,
		Message:    "identity provider unreachable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewPrincipalInactive rejects a deactivated principal regardless of
// credential validity.
func NewPrincipalInactive() error {
	return NewDomainError(CodePrincipalInactive, "principal is deactivated", http.StatusForbidden, nil)
}

// NewProvisioningDenied rejects first-sight resolution when auto-provisioning
// is disabled.
func NewProvisioningDenied() error {
	return NewDomainError(CodeProvisioningDenied, "principal provisioning is disabled", http.StatusForbidden, nil)
}

// NewCrossTenantWrite rejects an operation that crosses the tenant boundary or,
// for managed subjects, addresses a sibling's record inside the tenant.
func NewCrossTenantWrite(message string) error {
	if message == "" {
		message = "operation crosses tenant boundary"
	}
	return NewDomainError(CodeCrossTenantWrite, message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}
