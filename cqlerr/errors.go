// Package cqlerr defines the typed error taxonomy surfaced by this library
// and translates raw driver errors into it. Callers test categories with
// errors.Is against the sentinel values, or unwrap the concrete types for
// detail.
package cqlerr

import (
	stderrors "errors"
	"fmt"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/pkg/errors"
)

// Sentinel categories. Translate wraps driver errors so that errors.Is
// matches these.
var (
	// ErrNotFound reports that a read by primary key matched no row.
	ErrNotFound = stderrors.New("casmap: not found")
	// ErrAlreadyExists reports a failed compare-and-set insert.
	ErrAlreadyExists = stderrors.New("casmap: already exists")
	// ErrReadTimeout reports a coordinator-side read timeout.
	ErrReadTimeout = stderrors.New("casmap: read timeout")
	// ErrWriteTimeout reports a coordinator-side write timeout.
	ErrWriteTimeout = stderrors.New("casmap: write timeout")
	// ErrReadFailure reports replica read failures.
	ErrReadFailure = stderrors.New("casmap: read failure")
	// ErrWriteFailure reports replica write failures.
	ErrWriteFailure = stderrors.New("casmap: write failure")
	// ErrUnavailable reports insufficient live replicas.
	ErrUnavailable = stderrors.New("casmap: unavailable")
	// ErrInvalidQuery reports a syntactically or semantically rejected
	// statement.
	ErrInvalidQuery = stderrors.New("casmap: invalid query")
	// ErrUnauthorized reports authentication or authorization rejection.
	ErrUnauthorized = stderrors.New("casmap: unauthorized")
	// ErrUnsupported reports an operation the driver declined.
	ErrUnsupported = stderrors.New("casmap: unsupported")
)

// MappingError reports a value or type the mapping layer cannot handle.
type MappingError struct {
	Table  string
	Column string
	Reason string
}

func (e *MappingError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("casmap: mapping %s.%s: %s", e.Table, e.Column, e.Reason)
	}
	return fmt.Sprintf("casmap: mapping %s: %s", e.Table, e.Reason)
}

// NewMappingError builds a MappingError with a formatted reason.
func NewMappingError(table, column, format string, args ...interface{}) error {
	return &MappingError{Table: table, Column: column, Reason: fmt.Sprintf(format, args...)}
}

// Translate wraps a driver error with the matching sentinel category.
// Unrecognized errors pass through unchanged; nil stays nil.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if sentinel := classify(err); sentinel != nil {
		return wrapped{cause: err, sentinel: sentinel}
	}
	return err
}

func classify(err error) error {
	if stderrors.Is(err, gocql.ErrNotFound) {
		return ErrNotFound
	}
	var (
		readTimeout  *gocql.RequestErrReadTimeout
		writeTimeout *gocql.RequestErrWriteTimeout
		readFailure  *gocql.RequestErrReadFailure
		writeFailure *gocql.RequestErrWriteFailure
		unavailable  *gocql.RequestErrUnavailable
		alreadyExist *gocql.RequestErrAlreadyExists
	)
	switch {
	case stderrors.As(err, &readTimeout):
		return ErrReadTimeout
	case stderrors.As(err, &writeTimeout):
		return ErrWriteTimeout
	case stderrors.As(err, &readFailure):
		return ErrReadFailure
	case stderrors.As(err, &writeFailure):
		return ErrWriteFailure
	case stderrors.As(err, &unavailable):
		return ErrUnavailable
	case stderrors.As(err, &alreadyExist):
		return ErrAlreadyExists
	}
	if reqErr, ok := err.(gocql.RequestError); ok {
		switch reqErr.Code() {
		case gocql.ErrCodeSyntax, gocql.ErrCodeInvalid:
			return ErrInvalidQuery
		case gocql.ErrCodeUnauthorized, gocql.ErrCodeCredentials:
			return ErrUnauthorized
		case gocql.ErrCodeUnavailable:
			return ErrUnavailable
		case gocql.ErrCodeProtocol:
			return ErrUnsupported
		}
	}
	return nil
}

type wrapped struct {
	cause    error
	sentinel error
}

func (w wrapped) Error() string { return w.sentinel.Error() + ": " + w.cause.Error() }

func (w wrapped) Unwrap() []error { return []error{w.sentinel, w.cause} }

// Wrapf annotates err with context, preserving the translated category.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(Translate(err), format, args...)
}

// Tag returns a metric-safe tag for an error. Error text itself is not
// usable as a tag value because it may contain '=' or ':' characters.
func Tag(err error) string {
	switch {
	case err == nil:
		return "none"
	case stderrors.Is(err, ErrNotFound):
		return "not_found"
	case stderrors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case stderrors.Is(err, ErrReadTimeout):
		return "read_timeout"
	case stderrors.Is(err, ErrWriteTimeout):
		return "write_timeout"
	case stderrors.Is(err, ErrReadFailure):
		return "read_failure"
	case stderrors.Is(err, ErrWriteFailure):
		return "write_failure"
	case stderrors.Is(err, ErrUnavailable):
		return "unavailable"
	case stderrors.Is(err, ErrInvalidQuery):
		return "invalid_query"
	case stderrors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case stderrors.Is(err, ErrUnsupported):
		return "unsupported"
	default:
		var mapErr *MappingError
		if stderrors.As(err, &mapErr) {
			return "mapping"
		}
		return "unknown"
	}
}
