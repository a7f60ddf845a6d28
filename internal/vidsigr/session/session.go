// Package session is the caller API of the validator: one session per
// stream, one entry point per NAL unit, a report whenever a GOP settles.
//
// A session is single-threaded; callers running several streams drive one
// session each. Nothing blocks and nothing is retained from the caller's
// buffers beyond one add call.
package session

import (
	"fmt"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/codes"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/keys"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/nalu"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/report"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/validation"
)

// Options tunes a validation session. The zero value is ready to use.
type Options struct {
	// Verifier overrides the signature check; nil selects ECDSA P-256.
	Verifier keys.Verifier
	// PublicKeyDER provisions the validation key before the stream carries
	// one.
	PublicKeyDER []byte
	// MaxPendingGops bounds the ring of GOPs buffered while the public key
	// is missing; 0 selects the default of 120.
	MaxPendingGops int
}

// Session validates one NAL unit stream.
type Session struct {
	codec   nalu.Codec
	engine  *validation.Engine
	builder *report.Builder
}

// New creates a validation session for the given codec.
func New(codec nalu.Codec, opts Options) (*Session, error) {
	if codec != nalu.H264 && codec != nalu.H265 {
		return nil, fmt.Errorf("%w: codec %d", codes.ErrInvalidParameter, codec)
	}
	engine := validation.NewEngine(codec, opts.Verifier, opts.MaxPendingGops)
	if opts.PublicKeyDER != nil {
		if _, err := keys.ParsePublicKeyDER(opts.PublicKeyDER); err != nil {
			return nil, fmt.Errorf("%w: %v", codes.ErrInvalidParameter, err)
		}
		engine.SetPublicKey(opts.PublicKeyDER)
	}
	return &Session{
		codec:   codec,
		engine:  engine,
		builder: report.NewBuilder(),
	}, nil
}

// Codec returns the session codec.
func (s *Session) Codec() nalu.Codec { return s.codec }

// AddNALU feeds one unit in arrival order and authenticates whatever its
// arrival completes. The report is non-nil only when at least one GOP
// settled; ownership of the report transfers to the caller.
//
// A unit that cannot be parsed does not fail the call; it surfaces in the
// next report as an error item.
func (s *Session) AddNALU(data []byte) (*report.Authenticity, error) {
	if s == nil || len(data) == 0 {
		return nil, codes.ErrInvalidParameter
	}
	info := nalu.Parse(data, s.codec)
	outs, err := s.engine.AddNALU(&info)
	rep := s.builder.Build(outs)
	if err != nil {
		return rep, err
	}
	return rep, nil
}

// Accumulated returns the session's running counters without settling
// anything.
func (s *Session) Accumulated() report.AccumulatedValidation {
	return s.builder.Accumulated()
}

// Reset drops all pending items and GOP state. Accumulated counters and the
// active public key survive, so validation can resume after a seek.
func (s *Session) Reset() error {
	if s == nil {
		return codes.ErrInvalidParameter
	}
	s.engine.Reset()
	return nil
}
