// Package errs defines the error kinds surfaced by benchkeep. Each kind wraps
// an underlying cause so callers can branch with the Is* helpers while the
// message keeps the full context.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParseError reports an undecodable artifact or benchmark output.
type ParseError struct {
	Source string // Where the bytes came from (file path, ref, tool name)
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parse error: %v", e.Err)
	}
	return fmt.Sprintf("parse error in %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotFoundError reports a missing suite, file, or ref that the caller required.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string { return e.What + " not found" }

// VcsError reports a failed version-control operation.
type VcsError struct {
	Op  string // The operation that failed, e.g. "checkout gh-pages"
	Err error
}

func (e *VcsError) Error() string { return fmt.Sprintf("vcs: %s: %v", e.Op, e.Err) }

func (e *VcsError) Unwrap() error { return e.Err }

// RemoteError reports a failed call to a remote annotation service. It is
// logged by callers and never fails the process.
type RemoteError struct {
	Op         string
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote: %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// ConfigError reports an invalid setting detected at startup.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Parse wraps err as a ParseError. A nil err yields nil.
func Parse(source string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Source: source, Err: err}
}

// NotFound returns a NotFoundError for the given subject, e.g. `suite "cargo"`.
func NotFound(format string, args ...interface{}) error {
	return &NotFoundError{What: fmt.Sprintf(format, args...)}
}

// Vcs wraps err as a VcsError. A nil err yields nil.
func Vcs(op string, err error) error {
	if err == nil {
		return nil
	}
	return &VcsError{Op: op, Err: err}
}

// Remote wraps err as a RemoteError. A nil err yields nil.
func Remote(op string, status int, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Op: op, StatusCode: status, Err: err}
}

// Config wraps err as a ConfigError. A nil err yields nil.
func Config(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ConfigError{Field: field, Err: err}
}

func IsParse(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsVcs(err error) bool {
	var target *VcsError
	return errors.As(err, &target)
}

func IsRemote(err error) bool {
	var target *RemoteError
	return errors.As(err, &target)
}

func IsConfig(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}
