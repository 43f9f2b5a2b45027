// Package apperr defines the error taxonomy shared by every component and a
// bounded reporter that keeps the most recent failures for inspection.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per Kind. Use errors.Is to classify an *Error.
var (
	ErrResolution = errors.New("keyword could not be resolved")
	ErrDuplicate  = errors.New("duplicate title")
	ErrCache      = errors.New("cache failure")
	ErrParse      = errors.New("malformed content")
	ErrNotFound   = errors.New("not found")
	ErrInternal   = errors.New("internal error")
	ErrBadRequest = errors.New("bad request")
)

// Kind classifies an error for reporting.
type Kind string

// Error kinds.
const (
	KindResolution Kind = "resolution"
	KindDuplicate  Kind = "duplicate"
	KindCache      Kind = "cache"
	KindParse      Kind = "parse"
	KindNotFound   Kind = "not_found"
	KindInternal   Kind = "internal"
)

var kindSentinels = map[Kind]error{
	KindResolution: ErrResolution,
	KindDuplicate:  ErrDuplicate,
	KindCache:      ErrCache,
	KindParse:      ErrParse,
	KindNotFound:   ErrNotFound,
	KindInternal:   ErrInternal,
}

// kindOrder is the precedence KindOf applies when an error wraps several
// sentinels.
var kindOrder = []Kind{
	KindNotFound,
	KindResolution,
	KindDuplicate,
	KindParse,
	KindCache,
	KindInternal,
}

// Error is a classified failure. Op names the operation that failed
// (e.g. "cache.save"), Message is human readable.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	cause   error
}

// New creates a classified error.
func New(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, cause: cause}
}

// Newf is New with a formatted message and no cause.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Op != "" {
		prefix = e.Op
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the kind of err. An *Error in the chain decides; otherwise
// the first sentinel in kindOrder that err wraps. Unclassified errors are
// KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	for _, k := range kindOrder {
		if errors.Is(err, kindSentinels[k]) {
			return k
		}
	}
	return KindInternal
}
