package pack

import "errors"

var (
	ErrTruncated       = errors.New("pack: truncated data")
	ErrTrailingBytes   = errors.New("pack: trailing bytes")
	ErrInvalidBool     = errors.New("pack: invalid bool value")
	ErrInvalidFlag     = errors.New("pack: invalid optional flag")
	ErrInvalidKind     = errors.New("pack: invalid type kind")
	ErrTooLarge        = errors.New("pack: value too large")
	ErrUnsupportedType = errors.New("pack: unsupported type")
	ErrNilValue        = errors.New("pack: nil value")
)
