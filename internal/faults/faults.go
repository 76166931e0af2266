package faults

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for the domain error taxonomy. Callers branch on these
// with errors.Is; Code maps them to stable string codes for JSON surfaces.
var (
	ErrNameConflict   = errors.New("name conflict")
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrMediaMissing   = errors.New("media missing")
	ErrMediaConflict  = errors.New("media conflict")
	ErrIOWrite        = errors.New("io write failed")
	ErrIORead         = errors.New("io read failed")
	ErrPolicyNotFound = errors.New("policy not found")
	ErrRangeInvalid   = errors.New("range invalid")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIOWrite
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Code returns the stable string code for an error's taxonomy kind, or
// "internal" when the error carries no marker.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNameConflict):
		return "name_conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "validation_failed"
	case errors.Is(err, ErrMediaMissing):
		return "media_missing"
	case errors.Is(err, ErrMediaConflict):
		return "media_conflict"
	case errors.Is(err, ErrIOWrite):
		return "io_write_failed"
	case errors.Is(err, ErrIORead):
		return "io_read_failed"
	case errors.Is(err, ErrPolicyNotFound):
		return "policy_not_found"
	case errors.Is(err, ErrRangeInvalid):
		return "range_invalid"
	default:
		return "internal"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}
