package castleos

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindDecode
	KindUnauthorized
	KindNotFound
	KindCapabilityUnsupported
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindCapabilityUnsupported:
		return "capability_unsupported"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Sentinel errors. Every *Error matches the sentinel of its kind via errors.Is.
var (
	ErrTransport             = errors.New("castleos: controller unreachable")
	ErrDecode                = errors.New("castleos: unexpected response shape")
	ErrUnauthorized          = errors.New("castleos: unauthorized")
	ErrNoToken               = errors.New("castleos: no security token obtained")
	ErrNotFound              = errors.New("castleos: not found")
	ErrCapabilityUnsupported = errors.New("castleos: device does not support this command")
	ErrRejected              = errors.New("castleos: command not acknowledged")
)

var kindSentinels = map[Kind]error{
	KindTransport:             ErrTransport,
	KindDecode:                ErrDecode,
	KindUnauthorized:          ErrUnauthorized,
	KindNotFound:              ErrNotFound,
	KindCapabilityUnsupported: ErrCapabilityUnsupported,
	KindRejected:              ErrRejected,
}

// Error is returned by every client and entity operation.
type Error struct {
	Kind Kind
	Op   string // endpoint or operation name
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("castleos: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("castleos: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrNoToken) {
		return KindUnauthorized
	}
	return KindUnknown
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
