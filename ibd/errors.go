package ibd

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// ConfigError is returned for invalid CLI parameters: out-of-range values,
// a missing required parameter, out= colliding with an input path, or out=
// naming a directory.
type ConfigError struct{ err error }

func (e *ConfigError) Error() string { return e.err.Error() }
func (e *ConfigError) Unwrap() error { return e.err }

// ConfigErrorf builds a ConfigError from a format string, in the style of
// github.com/grailbio/base/errors.E's context-chaining.
func ConfigErrorf(format string, args ...interface{}) error {
	return &ConfigError{errors.E(fmt.Sprintf(format, args...))}
}

// InputError is returned for malformed VCF/map input: unparsable fields,
// unphased or missing genotypes, or non-increasing positions. Marker and
// map row counts are not compared: every marker's cM position is
// interpolated or extrapolated from the map.
type InputError struct{ err error }

func (e *InputError) Error() string { return e.err.Error() }
func (e *InputError) Unwrap() error { return e.err }

// InputErrorf builds an InputError, optionally wrapping a lower-level cause.
func InputErrorf(cause error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		return &InputError{errors.E(cause, msg)}
	}
	return &InputError{errors.E(msg)}
}

// IOError is returned for read/write failures against gt=, map=, or out=.
type IOError struct{ err error }

func (e *IOError) Error() string { return e.err.Error() }
func (e *IOError) Unwrap() error { return e.err }

// IOErrorf wraps a lower-level I/O error with the path that produced it.
func IOErrorf(cause error, path string) error {
	return &IOError{errors.E(cause, path)}
}

// WorkerFailure wraps a panic or error propagated out of one worker
// goroutine. A single WorkerFailure terminates the whole computation: see
// Dispatcher.Run.
type WorkerFailure struct{ err error }

func (e *WorkerFailure) Error() string { return e.err.Error() }
func (e *WorkerFailure) Unwrap() error { return e.err }

func workerFailuref(format string, args ...interface{}) error {
	return &WorkerFailure{errors.E(fmt.Sprintf(format, args...))}
}
