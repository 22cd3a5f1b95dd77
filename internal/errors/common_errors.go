package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind identifies the class of an ingestion failure
type Kind string

const (
	KindConfigNotFound  Kind = "CONFIG_NOT_FOUND"
	KindConfigParse     Kind = "CONFIG_PARSE"
	KindConfigLoad      Kind = "CONFIG_LOAD"
	KindSourceNotFound  Kind = "SOURCE_NOT_FOUND"
	KindMalformedSource Kind = "MALFORMED_SOURCE"
	KindRead            Kind = "READ"
	KindSplit           Kind = "SPLIT"
	KindPersist         Kind = "PERSIST"
	// KindInternal is reserved for failures no step anticipated, such as a recovered panic.
	KindInternal Kind = "INTERNAL"
)

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrConfigNotFound  = &IngestError{Kind: KindConfigNotFound}
	ErrConfigParse     = &IngestError{Kind: KindConfigParse}
	ErrConfigLoad      = &IngestError{Kind: KindConfigLoad}
	ErrSourceNotFound  = &IngestError{Kind: KindSourceNotFound}
	ErrMalformedSource = &IngestError{Kind: KindMalformedSource}
	ErrRead            = &IngestError{Kind: KindRead}
	ErrSplit           = &IngestError{Kind: KindSplit}
	ErrPersist         = &IngestError{Kind: KindPersist}
	ErrInternal        = &IngestError{Kind: KindInternal}
)

// IngestError represents a failure raised by one of the ingestion components
type IngestError struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *IngestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the underlying cause
func (e *IngestError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an IngestError of the same kind
func (e *IngestError) Is(target error) bool {
	t, ok := target.(*IngestError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithContext adds context to the error
func (e *IngestError) WithContext(key string, value interface{}) *IngestError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new ingestion error
func New(kind Kind, message string, cause error) *IngestError {
	return &IngestError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// KindOf returns the kind of the first IngestError in err's chain, or "" if there is none
func KindOf(err error) Kind {
	var ie *IngestError
	if stderrors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

// Helper functions for each kind

func NewConfigNotFoundError(path string, cause error) *IngestError {
	return New(KindConfigNotFound, fmt.Sprintf("config file not found at %s", path), cause).
		WithContext("path", path)
}

func NewConfigParseError(path string, cause error) *IngestError {
	return New(KindConfigParse, fmt.Sprintf("failed to parse config file %s", path), cause).
		WithContext("path", path)
}

func NewConfigLoadError(path, message string, cause error) *IngestError {
	return New(KindConfigLoad, message, cause).WithContext("path", path)
}

func NewSourceNotFoundError(path string, cause error) *IngestError {
	return New(KindSourceNotFound, fmt.Sprintf("data file not found at %s", path), cause).
		WithContext("path", path)
}

func NewMalformedSourceError(path string, cause error) *IngestError {
	return New(KindMalformedSource, fmt.Sprintf("failed to parse delimited file %s", path), cause).
		WithContext("path", path)
}

func NewReadError(path string, cause error) *IngestError {
	return New(KindRead, fmt.Sprintf("unexpected error while reading %s", path), cause).
		WithContext("path", path)
}

func NewSplitError(message string, cause error) *IngestError {
	return New(KindSplit, message, cause)
}

func NewPersistError(path string, cause error) *IngestError {
	return New(KindPersist, fmt.Sprintf("failed to persist data to %s", path), cause).
		WithContext("path", path)
}

// NewInternalError wraps an unanticipated failure while keeping its detail
func NewInternalError(message string, cause error) *IngestError {
	return New(KindInternal, message, cause)
}
