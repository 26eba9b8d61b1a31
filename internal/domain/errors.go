package domain

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindDecode
	KindNotFound
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindNotFound:
		return "not_found"
	case KindSink:
		return "sink"
	default:
		return "unknown"
	}
}

// Error carries a failure kind alongside the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s failure: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transport wraps a network or HTTP-layer failure.
func Transport(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// Decode wraps a payload that did not match the expected shape.
func Decode(op string, err error) error {
	return &Error{Kind: KindDecode, Op: op, Err: err}
}

// NotFound reports an expected pattern or field missing from a successful response.
func NotFound(op, what string) error {
	return &Error{Kind: KindNotFound, Op: op, Err: errors.New(what + " not found")}
}

// Sink wraps a failure to append an output row.
func Sink(op string, err error) error {
	return &Error{Kind: KindSink, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
