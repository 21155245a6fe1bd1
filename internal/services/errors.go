package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks bad or empty local input. It never reaches the network.
	ErrValidation = errors.New("validation error")
	// ErrTransport marks timeouts and connection failures.
	ErrTransport = errors.New("transport error")
	// ErrServer marks non-2xx responses from the generation backend.
	ErrServer = errors.New("server error")
	// ErrFormat marks responses that cannot be mapped onto the expected shape.
	ErrFormat = errors.New("format error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the marker that classifies err, or nil when err carries none.
func Kind(err error) error {
	for _, marker := range []error{ErrValidation, ErrTransport, ErrServer, ErrFormat} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

// IsRetryable reports whether the user can reasonably retry the same action.
// Validation failures need corrected input first.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrValidation)
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
		return "client failure"
	}
	return strings.Join(parts, ": ")
}
