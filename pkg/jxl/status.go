// Package jxl bridges callers to a JPEG XL codec. Probing a buffer never
// fails with a Go error: the outcome is reported as a Status inside the
// returned StreamInfo and callers branch on it.
package jxl

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotEnoughInput         = errors.New("jxl: not enough input")
	ErrInvalidStream          = errors.New("jxl: invalid stream")
	ErrNativeCodecUnavailable = errors.New("jxl: pixel decoding requires the libjxl backend")
)

// Status is the outcome of a probe or decode. The zero value is not a
// valid status.
type Status uint8

const (
	// StatusOK means the operation completed and all output fields are valid
	StatusOK Status = iota + 1
	// StatusNotEnoughInput means the stream is valid so far but truncated
	StatusNotEnoughInput
	// StatusInvalidStream means the stream is corrupted
	StatusInvalidStream
)

var statusNames = map[Status]string{
	StatusOK:             "OK",
	StatusNotEnoughInput: "NOT_ENOUGH_INPUT",
	StatusInvalidStream:  "INVALID_STREAM",
}

// String returns the status name
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Valid reports whether s is one of the three defined statuses
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Err converts the status into nil, ErrNotEnoughInput or ErrInvalidStream
func (s Status) Err() error {
	switch s {
	case StatusOK:
		return nil
	case StatusNotEnoughInput:
		return ErrNotEnoughInput
	case StatusInvalidStream:
		return ErrInvalidStream
	default:
		return fmt.Errorf("jxl: unknown status %d", uint8(s))
	}
}

// ParseStatus is the inverse of String
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("jxl: unknown status %q", name)
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("jxl: cannot marshal status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
