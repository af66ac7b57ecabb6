package shared

import (
	"errors"
	"fmt"
)

// Error type tags carried in SamplerError.Type and in API responses
const (
	ErrTypeValidation    = "validation_error"
	ErrTypeProver        = "prover_error"
	ErrTypeConfiguration = "configuration_error"
	ErrTypeDecoding      = "decoding_error"
)

// SamplerError is the base error type for all structured errors
type SamplerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *SamplerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *SamplerError) Unwrap() error {
	return e.Cause
}

// ValidationError is returned for inputs rejected before or at pipeline entry
type ValidationError struct {
	*SamplerError
	Field string      `json:"field"` // Field that failed validation
	Value interface{} `json:"value"` // Invalid value
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		SamplerError: &SamplerError{
			Type:    ErrTypeValidation,
			Message: fmt.Sprintf("Validation error for field '%s': %s", field, message),
		},
		Field: field,
		Value: value,
	}
}

// WrapValidationError attaches the underlying parse error as cause
func WrapValidationError(field string, value interface{}, message string, cause error) *ValidationError {
	err := NewValidationError(field, value, message)
	err.Cause = cause
	return err
}

// ProverError represents a failure reported by (or while reaching) a proof host
type ProverError struct {
	*SamplerError
	Host string `json:"host"` // Which proof host failed
}

// NewProverError creates a new prover error
func NewProverError(host string, message string, cause error) *ProverError {
	return &ProverError{
		SamplerError: &SamplerError{
			Type:    ErrTypeProver,
			Message: fmt.Sprintf("Prover %s failed: %s", host, message),
			Cause:   cause,
		},
		Host: host,
	}
}

// ConfigurationError represents configuration-related errors
type ConfigurationError struct {
	*SamplerError
	Field string `json:"field"` // Which configuration field is invalid
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(field string, message string) *ConfigurationError {
	return &ConfigurationError{
		SamplerError: &SamplerError{
			Type:    ErrTypeConfiguration,
			Message: fmt.Sprintf("Configuration error in field '%s': %s", field, message),
		},
		Field: field,
	}
}

// DecodingError represents a malformed serialized input record or public record
type DecodingError struct {
	*SamplerError
	Format string `json:"format"`
}

// NewDecodingError creates a new decoding error
func NewDecodingError(format string, message string, cause error) *DecodingError {
	return &DecodingError{
		SamplerError: &SamplerError{
			Type:    ErrTypeDecoding,
			Message: fmt.Sprintf("Failed to decode %s: %s", format, message),
			Cause:   cause,
		},
		Format: format,
	}
}

// IsValidationError reports whether err (or anything it wraps) is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsProverError reports whether err (or anything it wraps) is a ProverError
func IsProverError(err error) bool {
	var pe *ProverError
	return errors.As(err, &pe)
}

// ErrorTypeOf returns the class of err, or "" if it is not a SamplerError
func ErrorTypeOf(err error) string {
	var (
		ve *ValidationError
		pe *ProverError
		ce *ConfigurationError
		de *DecodingError
	)
	switch {
	case errors.As(err, &ve):
		return ErrTypeValidation
	case errors.As(err, &de):
		return ErrTypeDecoding
	case errors.As(err, &ce):
		return ErrTypeConfiguration
	case errors.As(err, &pe):
		return ErrTypeProver
	}
	return ""
}
