package classifier

import (
	"errors"
	"fmt"
)

// Kind tags why a remote classification attempt was abandoned.
type Kind int

const (
	KindTimeout Kind = iota + 1
	KindNetwork
	KindParse
)

var (
	ErrTimeout = errors.New("classification timeout")
	ErrNetwork = errors.New("classification network error")
	ErrParse   = errors.New("classification parse error")
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	}
	return "unknown"
}

// Failure wraps the underlying cause of a failed remote classification.
// It matches ErrTimeout, ErrNetwork or ErrParse with errors.Is.
type Failure struct {
	Kind Kind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("classification %s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func (f *Failure) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return f.Kind == KindTimeout
	case ErrNetwork:
		return f.Kind == KindNetwork
	case ErrParse:
		return f.Kind == KindParse
	}
	return false
}

// ParseError reports a response that was JSON but did not fit the schema.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return "invalid response: " + e.Reason
	}
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}
