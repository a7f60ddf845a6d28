// Package codes defines the error values surfaced across the caller API.
package codes

import "errors"

var (
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrNotSupported        = errors.New("not supported")
	ErrIncompatibleVersion = errors.New("incompatible version")
	ErrDecoding            = errors.New("decoding error")
	ErrUnknown             = errors.New("unknown failure")
)

// Name maps an error chain to its stable return-code name, "ok" for nil.
func Name(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrNotSupported):
		return "not_supported"
	case errors.Is(err, ErrIncompatibleVersion):
		return "incompatible_version"
	case errors.Is(err, ErrDecoding):
		return "decoding_error"
	default:
		return "unknown"
	}
}
