package pbd

import (
	"errors"
	"fmt"
)

// PBD decoding errors
var (
	ErrUnsupportedCode = errors.New("pbd: unsupported control code")
	ErrTruncated       = errors.New("pbd: truncated stream")
	ErrMissingBaseline = errors.New("pbd: difference run without a preceding sample")
	ErrMisaligned      = errors.New("pbd: sample read while half a sample is pending")
)

// CodeError reports a control byte in the reserved range.
type CodeError struct {
	Code   byte
	Offset int64 // offset of the control byte in the compressed stream
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("pbd: unsupported control code %d at offset %d", e.Code, e.Offset)
}

func (e *CodeError) Unwrap() error {
	return ErrUnsupportedCode
}
