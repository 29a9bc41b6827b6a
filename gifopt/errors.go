package gifopt

import (
	"errors"
	"fmt"
)

var (
	ErrNoFrames            = errors.New("gif has no frames")
	ErrEmptyFrames         = errors.New("frame list is empty")
	ErrInvalidDuration     = errors.New("frame duration must be positive")
	ErrTooLarge            = errors.New("gif exceeds processing limits")
	ErrStripperContract    = errors.New("background stripper changed frame dimensions")
	ErrStripperUnavailable = errors.New("background stripper not available in this build")
)

// DecodeError reports uploaded bytes that are not a decodable GIF. No frame
// work has happened when it is returned.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode gif: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports invalid encoder input. Callers passing cascade-derived
// parameters should never see one; it points at a bug, not at the upload.
type EncodeError struct {
	Frames   int
	Duration int
	Err      error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode gif (frames=%d, duration=%dms): %v", e.Frames, e.Duration, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
