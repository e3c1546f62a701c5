package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// ErrorKind is a coarse classification used by outer surfaces (CLI, HTTP)
// to decide how a failure is presented.
type ErrorKind string

const (
	KindInternal      ErrorKind = "internal"
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindNotFound      ErrorKind = "not_found"
	KindExternal      ErrorKind = "external"
	KindTimeout       ErrorKind = "timeout"
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above or a package-level sentinel owned by
// the caller.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error chain onto an ErrorKind.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrExternalTool):
		return KindExternal
	default:
		return KindInternal
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
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
