package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"userAuthService/models"
)

const (
	msgUsernameTaken      = "Error: Username is already taken!"
	msgEmailInUse         = "Error: Email is already in use!"
	msgInvalidCredentials = "Error: Invalid credentials"
	msgRegistered         = "User registered successfully!"
)

// ConflictError reports a username or email that already exists. It is
// user-correctable and its message is safe to return to the caller.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// AuthenticationError reports rejected credentials. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// ErrInvalidCredentials is the only error sign-in returns for bad credentials.
var ErrInvalidCredentials error = &AuthenticationError{Message: msgInvalidCredentials}

// ConfigurationError reports a deployment defect, such as a role missing from
// the catalog. Its details must not reach API callers.
type ConfigurationError struct {
	Role models.RoleName
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("role catalog: %s: %v", e.Role, e.Err)
	}
	return fmt.Sprintf("role catalog: %s is not found", e.Role)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ValidationError carries per-field request validation failures.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// newValidationError converts ozzo-validation output. Errors that are not
// field errors are returned unchanged.
func newValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for k, v := range verrs {
		if v != nil {
			fields[k] = v.Error()
		}
	}
	return &ValidationError{Fields: fields}
}

// IsConflict, IsAuthentication, IsValidation and IsConfiguration classify
// errors for the transports.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsAuthentication(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
