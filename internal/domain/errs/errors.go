// Package errs defines the error taxonomy shared by usecases and adapters.
//
// Callers match on kind with errors.Is against the exported sentinels:
//
//	if errors.Is(err, errs.ErrRetrieval) { ... }
package errs

import (
	"context"
	"errors"
	"strings"
)

// Kind categorizes a failure.
type Kind string

const (
	// KindIngestion: the source document is unreadable or has no text.
	KindIngestion Kind = "ingestion"

	// KindEmbeddingService: the embedding API failed, including auth and quota.
	KindEmbeddingService Kind = "embedding_service"

	// KindGeneration: the chat API failed or returned no usable choice.
	KindGeneration Kind = "generation"

	// KindRetrieval: the vector store query failed.
	KindRetrieval Kind = "retrieval"

	// KindNotInitialized: a query was attempted with no active store.
	KindNotInitialized Kind = "not_initialized"

	// KindTimeout: an external call exceeded its deadline.
	KindTimeout Kind = "timeout"

	// KindConfiguration: invalid or missing configuration.
	KindConfiguration Kind = "configuration"
)

// Error is a classified error.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "ingest.embed"
	Err  error
}

// Sentinels for errors.Is matching.
var (
	ErrIngestion        = &Error{Kind: KindIngestion}
	ErrEmbeddingService = &Error{Kind: KindEmbeddingService}
	ErrGeneration       = &Error{Kind: KindGeneration}
	ErrRetrieval        = &Error{Kind: KindRetrieval}
	ErrNotInitialized   = &Error{Kind: KindNotInitialized}
	ErrTimeout          = &Error{Kind: KindTimeout}
	ErrConfiguration    = &Error{Kind: KindConfiguration}
)

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(string(e.Kind))
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// E classifies err under kind. Errors that are already classified pass
// through untouched, and deadline errors become KindTimeout.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// New creates a classified error from a message.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// KindOf returns the kind of err, or "" if it is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
