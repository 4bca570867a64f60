// Package apperr classifies failures of a report run.
//
// Every error that crosses a component boundary carries a Kind, which decides
// whether the run degrades (IO, Network) or aborts (Config, Data, Template).
package apperr

import (
	"errors"
	"strings"
)

// Kind categorizes an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindIO
	KindNetwork
	KindData
	KindTemplate
)

// String returns the log-friendly category name.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration_error"
	case KindIO:
		return "io_error"
	case KindNetwork:
		return "network_error"
	case KindData:
		return "data_error"
	case KindTemplate:
		return "template_error"
	default:
		return "internal_error"
	}
}

// Error is a classified error.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "read archive"
	Path string // file, directory or URL involved, if any
	Err  error
}

// Sentinels for errors.Is checks against a kind.
var (
	ErrConfig   = &Error{Kind: KindConfig}
	ErrIO       = &Error{Kind: KindIO}
	ErrNetwork  = &Error{Kind: KindNetwork}
	ErrData     = &Error{Kind: KindData}
	ErrTemplate = &Error{Kind: KindTemplate}
)

// New creates a classified error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithPath creates a classified error bound to a path.
func WithPath(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Op != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Op)
	}
	if e.Path != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Path)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels (an Error with only Kind set).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Path == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
