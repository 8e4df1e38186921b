package core

import (
	"errors"
	"fmt"
)

var (
	ErrSwapchainBooting  = errors.New("swapchain resized or recreated, booting")
	ErrIncompleteTarget  = errors.New("render target incomplete")
	ErrUnsupportedFormat = errors.New("unsupported attachment format")
	ErrNilArgument       = errors.New("nil argument")
	ErrCycle             = errors.New("node would become its own ancestor")
	ErrNotFound          = errors.New("not found")
	ErrNameTaken         = errors.New("name already in use")
)

// BackendError reports a GPU resource creation or validation failure.
type BackendError struct {
	Op  string
	Err error
}

func NewBackendError(op string, err error) *BackendError {
	return &BackendError{Op: op, Err: err}
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend: %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports an invalid call sequence or argument.
type ConfigurationError struct {
	Op  string
	Msg string
	Err error
}

func NewConfigurationError(op string, err error, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("configuration: %s: %s", e.Op, e.Msg)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
