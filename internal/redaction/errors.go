package redaction

import (
	"errors"
	"fmt"
)

// ErrIntrospection is matched by every IntrospectionError.
var ErrIntrospection = errors.New("object introspection failed")

// ConfigError reports a rule table or setting rejected at construction time.
type ConfigError struct {
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid redaction config at %q: %s", e.Path, e.Message)
	}
	return "invalid redaction config: " + e.Message
}

func newConfigError(path, format string, args ...any) *ConfigError {
	return &ConfigError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// IntrospectionError reports a foreign object whose members could not be
// enumerated. It aborts the Transform call that hit it and nothing else.
type IntrospectionError struct {
	Type string
	Err  error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("introspect %s: %v", e.Type, e.Err)
}

func (e *IntrospectionError) Unwrap() error {
	return e.Err
}

func (e *IntrospectionError) Is(target error) bool {
	return target == ErrIntrospection
}
