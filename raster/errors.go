package raster

import "errors"

var (
	// ErrDimension reports zero or mismatched dimensions.
	ErrDimension = errors.New("dimension error")
	// ErrContext reports that a drawing or encoding surface could not be acquired.
	ErrContext = errors.New("context error")
	// ErrEncode reports that an encoder rejected its input or produced no output.
	ErrEncode = errors.New("encode error")
	// ErrInvalidMask reports a missing or empty mask, or one holding non-finite samples.
	ErrInvalidMask = errors.New("invalid mask")
)
