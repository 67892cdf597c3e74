// Package battstatserrors contains the typed errors returned by the battstats library packages.
// Callers should match on them with errors.As, which looks through the chain of wrapped errors,
// and decide for themselves whether a failure is worth retrying.
//
// If multiple problems are found at once (e.g., several database credentials are missing), the
// error message lists all of them; the individual problems are aggregated with
// github.com/hashicorp/go-multierror before being wrapped.
package battstatserrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrConfig is returned when the test configuration file is missing, unreadable, malformed
// or lacks a required key.
type ErrConfig struct {
	// Path of the configuration file, if known
	Path string
	// Name of the missing or invalid key, if any
	Key string
	// Optional message included with the error message
	Message string
}

func (err *ErrConfig) Error() (s string) {
	switch {
	case err.Key != "" && err.Path != "":
		s = fmt.Sprintf("invalid key %q in config file %q", err.Key, err.Path)
	case err.Key != "":
		s = fmt.Sprintf("invalid key %q in config", err.Key)
	case err.Path != "":
		s = fmt.Sprintf("invalid config file %q", err.Path)
	default:
		s = "invalid config"
	}
	if err.Message != "" {
		s = s + fmt.Sprintf("; %s", err.Message)
	}
	return
}

// ErrConnection is returned when the store credentials are missing or the store can't be reached.
type ErrConnection struct {
	// Host and port of the store, if known
	Address string
	// Optional message included with the error message
	Message string
}

func (err *ErrConnection) Error() (s string) {
	if err.Address != "" {
		s = fmt.Sprintf("could not connect to database at %s", err.Address)
	} else {
		s = "could not connect to database"
	}
	if err.Message != "" {
		s = s + fmt.Sprintf("; %s", err.Message)
	}
	return
}

// ErrNotFound is returned whenever a lookup that expects exactly one row finds none.
// Type and Message are optional and are omitted from the error message if not provided.
type ErrNotFound struct {
	Type    string // Table searched, e.g., "testdata_meta"
	Value   string // Value filtered on, e.g., "bg_ambatt2_cell7_ict"
	Message string // An optional message to include in the error message
}

func (err *ErrNotFound) Error() (s string) {
	if err.Type != "" {
		s = fmt.Sprintf("resource %q of type %q does not exist", err.Value, err.Type)
	} else {
		s = fmt.Sprintf("resource %q does not exist", err.Value)
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	} else {
		return s
	}
}

// ErrAmbiguousResult is returned whenever a lookup that expects exactly one row finds several.
type ErrAmbiguousResult struct {
	Type    string
	Value   string
	Rows    int // Number of rows found; a lookup stops counting at two
	Message string
}

func (err *ErrAmbiguousResult) Error() (s string) {
	if err.Type != "" {
		s = fmt.Sprintf("resource %q of type %q is not unique", err.Value, err.Type)
	} else {
		s = fmt.Sprintf("resource %q is not unique", err.Value)
	}
	if err.Rows > 0 {
		s = s + fmt.Sprintf(" (found at least %d rows)", err.Rows)
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	} else {
		return s
	}
}

// ErrInvalidArgument is a generic error to be returned on invalid argument.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the argument referred to, e.g., "table"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message to include with the error message, e.g., explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for argument %q", fmt.Sprint(err.Value), err.Name)
	} else {
		return fmt.Sprintf("value %q is invalid for argument %q; %s", fmt.Sprint(err.Value), err.Name, err.Message)
	}
}

// Kind returns a short label for the type of the first known error in the chain.
// It is used to label metrics and log entries.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}

	// Using {} scopes just to re-use the "e" variable name for each case.
	{
		var e *ErrConfig
		if errors.As(err, &e) {
			return "config"
		}
	}
	{
		var e *ErrConnection
		if errors.As(err, &e) {
			return "connection"
		}
	}
	{
		var e *ErrNotFound
		if errors.As(err, &e) {
			return "not_found"
		}
	}
	{
		var e *ErrAmbiguousResult
		if errors.As(err, &e) {
			return "ambiguous"
		}
	}
	{
		var e *ErrInvalidArgument
		if errors.As(err, &e) {
			return "invalid_argument"
		}
	}

	return "unknown"
}

// IsConnection reports whether err, or any error it wraps, is an *ErrConnection.
func IsConnection(err error) bool {
	var e *ErrConnection
	return errors.As(err, &e)
}
