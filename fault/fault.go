// Package fault classifies download errors so the pipeline can decide which ones
// are isolated to an item, which ones only degrade a completion and which ones stop a batch.
package fault

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Class is the error category of a failure.
type Class int

const (
	// Unknown is the class of errors nobody classified.
	Unknown Class = iota
	// Connection covers network, extraction and transfer failures. Isolated to one item.
	Connection
	// Processing covers postprocessing failures. The item still completes, flagged with errors.
	Processing
	// Template marks an invalid output template. Fatal to the whole batch.
	Template
	// Contract marks violated expectations such as a media item with no usable formats. Never retried.
	Contract
	// Interrupted marks work stopped by cancellation.
	Interrupted
)

func (c Class) String() string {
	switch c {
	case Connection:
		return "connection"
	case Processing:
		return "processing"
	case Template:
		return "template"
	case Contract:
		return "contract"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

var (
	// ErrInterrupted is returned once a batch has shut down after an interrupt.
	ErrInterrupted = errors.New("interrupted")

	// ErrIncompatible marks a processor failure caused by a codec that the target container cannot hold.
	ErrIncompatible = errors.New("codec incompatible with container")
)

// Error is a classified error. Op names the step that failed, e.g. "resolve" or "merge".
type Error struct {
	Class Class
	Op    string
	Err   error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap classifies err. A nil err stays nil, and an already classified error keeps its class
// unless it is Unknown.
func Wrap(class Class, op string, err error) error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) && existing.Class != Unknown {
		if op == "" || op == existing.Op {
			return err
		}
		return &Error{Class: existing.Class, Op: op, Err: err}
	}

	return &Error{Class: class, Op: op, Err: err}
}

// Wrapf is Wrap with a formatted error.
func Wrapf(class Class, op, format string, args ...any) error {
	return Wrap(class, op, fmt.Errorf(format, args...))
}

// ClassOf returns the class of err. Context cancellation is always Interrupted.
func ClassOf(err error) Class {
	if err == nil {
		return Unknown
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, ErrInterrupted) {
		return Interrupted
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}

	return Unknown
}

// Is reports whether err belongs to class.
func Is(err error, class Class) bool {
	return ClassOf(err) == class
}

// IsIncompatible reports whether err is a codec/container incompatibility,
// the only processor failure for which a full transcode is worth attempting.
func IsIncompatible(err error) bool {
	return errors.Is(err, ErrIncompatible)
}

// Message renders err for humans: the class decides the wording, the innermost cause supplies the detail.
func Message(err error) string {
	if err == nil {
		return ""
	}

	cause := err
	for {
		next := errors.Unwrap(cause)
		if next == nil {
			break
		}
		cause = next
	}

	detail := strings.TrimSpace(cause.Error())

	switch ClassOf(err) {
	case Connection:
		return "connection failed: " + detail
	case Processing:
		return "postprocessing failed: " + detail
	case Template:
		return "invalid output template: " + detail
	case Contract:
		return detail
	case Interrupted:
		return "interrupted"
	default:
		return err.Error()
	}
}
