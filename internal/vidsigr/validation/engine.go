// Package validation maintains the pending NAL-unit list, matches decoded
// SEIs to the GOPs they sign and settles per-item verdicts.
package validation

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/codes"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/hashing"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/keys"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/logger"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/nalu"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/tlv"
)

// Verdict is the authenticity result of one settled GOP window.
type Verdict int

const (
	VerdictOK Verdict = iota
	VerdictOKWithMissingInfo
	VerdictNotOK
	VerdictNotSigned
	VerdictSignaturePresent
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictOKWithMissingInfo:
		return "ok_with_missing_info"
	case VerdictNotOK:
		return "not_ok"
	case VerdictNotSigned:
		return "not_signed"
	case VerdictSignaturePresent:
		return "signature_present"
	}
	return "unknown"
}

// Outcome is one settled validation, consumed by the reporter.
type Outcome struct {
	Verdict             Verdict
	PublicKeyHasChanged bool

	Expected int // picture units the SEI declared
	Received int // picture units observed in the window
	Missed   int // Expected - Received, negative when extras were seen
	Pending  int // items still pending after this settlement

	MissingPositions []int
	InvalidPositions []int
	ValidationStr    string

	GopCounter  uint32
	ProductInfo *tlv.ProductInfo
	Vendor      *tlv.VendorAxis
}

// DefaultMaxPendingGops bounds the ring of GOPs buffered while the public
// key has not arrived.
const DefaultMaxPendingGops = 120

// Engine drives GOP detection and validation over parsed NAL units.
type Engine struct {
	codec          nalu.Codec
	verifier       keys.Verifier
	maxPendingGops int

	list     List
	gopState GopState
	detected GopInfoDetected

	publicKey  []byte
	keyChanged bool

	hasSeenSei       bool
	haveBaseline     bool
	expectedCounter  uint32
	pendingSei       *Item
	parked           []*parkedGop
	productInfo      *tlv.ProductInfo
	vendor           *tlv.VendorAxis
	transitionsNoSei int
}

// NewEngine creates an engine. A nil verifier defaults to ECDSA.
func NewEngine(codec nalu.Codec, verifier keys.Verifier, maxPendingGops int) *Engine {
	if verifier == nil {
		verifier = keys.ECDSAVerifier{}
	}
	if maxPendingGops <= 0 {
		maxPendingGops = DefaultMaxPendingGops
	}
	e := &Engine{codec: codec, verifier: verifier, maxPendingGops: maxPendingGops}
	e.detected.reset()
	return e
}

// SetPublicKey provisions the validation key up front, before any SEI
// carries one.
func (e *Engine) SetPublicKey(der []byte) {
	e.publicKey = append([]byte(nil), der...)
}

// ProductInfo returns the most recently decoded product info record.
func (e *Engine) ProductInfo() *tlv.ProductInfo {
	return e.productInfo
}

// Vendor returns the most recently decoded vendor record, echoed without
// interpretation.
func (e *Engine) Vendor() *tlv.VendorAxis {
	return e.vendor
}

// Reset drops all pending state but keeps the active public key, so a
// fast-forwarded stream can resume validation.
func (e *Engine) Reset() {
	e.list.Reset()
	e.gopState.reset()
	e.detected.reset()
	e.pendingSei = nil
	e.parked = nil
	e.hasSeenSei = false
	e.haveBaseline = false
	e.expectedCounter = 0
	e.keyChanged = false
	e.transitionsNoSei = 0
}

// AddNALU appends one parsed unit and settles whatever its arrival allows.
// Outcomes are returned in settlement order; most calls return none.
func (e *Engine) AddNALU(info *nalu.Info) ([]*Outcome, error) {
	item := &Item{Info: info, Status: StatusPending}
	switch {
	case info.Validity == nalu.ParseError:
		item.Status = StatusError
	case info.Validity == nalu.Invalid:
		item.Status = StatusIgnored
	case info.Type == nalu.TypeSEI && !info.IsGopSEI:
		// Foreign SEIs never enter the GOP hash; they have no impact on the
		// picture data and render as ignored.
		item.Status = StatusIgnored
	case !info.IsHashable && !info.IsGopSEI:
		item.Status = StatusIgnored
	}
	if item.Status == StatusPending && info.IsHashable {
		item.Hash = hashing.Sum(info.HashableData)
	}
	e.list.Append(item)

	if item.Status == StatusPending {
		if info.IsHashable {
			e.gopState.NumNALUs++
		}
		if item.IsPicture() {
			e.detected.NumPictureNALUs++
		}
	}

	switch {
	case info.IsGopSEI && item.Status == StatusPending:
		return e.handleSei(item)
	case info.IsFirstInGop:
		return e.handleTransition(item), nil
	}
	return nil, nil
}

// handleTransition reacts to the first primary slice of an I picture: it
// closes the open GOP.
func (e *Engine) handleTransition(item *Item) []*Outcome {
	e.detected.HasFirstNalu = true
	defer func() {
		e.gopState.reset()
		e.detected.reset()
		e.detected.HasFirstNalu = true
	}()

	if e.pendingSei != nil {
		sei := e.pendingSei
		e.pendingSei = nil
		out := e.validateWindow(sei, sei.Sei, item)
		return e.collect(out)
	}
	if !e.hasSeenSei {
		e.transitionsNoSei++
		if e.transitionsNoSei >= 2 {
			return e.collect(e.settleUnsigned())
		}
		return nil
	}
	// Signed stream, but the GOP ended without its SEI. The gap settles when
	// the next SEI reveals the counter jump.
	e.gopState.NoGopEndBeforeSei = true
	e.gopState.GopTransitionIsLost = true
	return nil
}

// settleUnsigned reports a NOT_SIGNED window once a stream has gone two GOP
// transitions without any Signed-Video SEI.
func (e *Engine) settleUnsigned() *Outcome {
	// Degrade everything before the previous transition; the rest is still
	// awaiting a potential late SEI.
	prev := -1
	items := e.list.Items()
	for i := len(items) - 2; i >= 0; i-- {
		if items[i].Info.IsFirstInGop {
			prev = i
			break
		}
	}
	received := 0
	for i := 0; i < prev; i++ {
		if items[i].Status == StatusPending {
			if items[i].IsPicture() {
				received++
			}
			items[i].Status = StatusUnknown
		}
	}
	out := &Outcome{
		Verdict:       VerdictNotSigned,
		Received:      received,
		ValidationStr: e.renderList(nil),
		Pending:       e.list.PendingCount(),
	}
	return out
}

// handleSei decodes a Signed-Video SEI exactly once and either validates
// right away (late SEI, its GOP already closed) or arms validation for the
// arrival of the unit that will close the GOP.
func (e *Engine) handleSei(item *Item) ([]*Outcome, error) {
	payload, err := tlv.Decode(item.Info.TLVData)
	if err != nil {
		item.Status = StatusError
		if errors.Is(err, tlv.ErrIncompatibleVersion) {
			return nil, fmt.Errorf("%w: %v", codes.ErrIncompatibleVersion, err)
		}
		return nil, fmt.Errorf("%w: %v", codes.ErrDecoding, err)
	}
	if e.pendingSei != nil && e.pendingSei.Sei != nil &&
		payload.General.GopCounter == e.pendingSei.Sei.General.GopCounter {
		// A duplicate of the armed SEI; decoding it again would overwrite
		// the GOP bookkeeping.
		item.Status = StatusIgnored
		return nil, nil
	}
	item.Sei = payload
	item.HasBeenDecoded = true
	e.hasSeenSei = true
	e.transitionsNoSei = 0
	e.gopState.HasSeiInGop = true
	e.detected.SeiPosition = e.list.Len() - 1

	if payload.ProductInfo != nil {
		e.productInfo = payload.ProductInfo
	}
	if payload.Vendor != nil {
		e.vendor = payload.Vendor
	}

	var outcomes []*Outcome
	if payload.PublicKey != nil {
		if e.publicKey == nil {
			e.publicKey = payload.PublicKey
			outcomes = append(outcomes, e.flushParked()...)
		} else if !bytes.Equal(e.publicKey, payload.PublicKey) {
			e.keyChanged = true
			e.publicKey = payload.PublicKey
			logger.L().Infow("public key rotated", "gop", payload.General.GopCounter)
		}
	}

	c := payload.General.GopCounter
	if e.haveBaseline && c+1 == e.expectedCounter && !e.keyChanged {
		// Re-injected SEI for an already settled GOP.
		item.Status = StatusIgnored
		item.Sei = nil
		return outcomes, nil
	}
	if e.haveBaseline && c != e.expectedCounter {
		logger.L().Debugw("gop counter jump", "expected", e.expectedCounter, "got", c)
		if out := e.settleUnsignedGap(); out != nil {
			outcomes = append(outcomes, out)
		}
	}

	if closer := e.findCloser(); closer != nil {
		outcomes = append(outcomes, e.collect(e.validateWindow(item, payload, closer))...)
		return outcomes, nil
	}
	e.pendingSei = item
	e.gopState.ValidateAfterNextNalu = true
	return outcomes, nil
}

// settleUnsignedGap marks the GOP(s) that went by without their SEI as not
// authentic in a first pass; the decoded SEI then proceeds with its own GOP.
func (e *Engine) settleUnsignedGap() *Outcome {
	items := e.list.Items()
	last := -1
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Info.IsFirstInGop && items[i].Status == StatusPending {
			last = i
			break
		}
	}
	if last <= 0 {
		return nil
	}
	received := 0
	invalid := make([]int, 0, last)
	for i := 0; i < last; i++ {
		if items[i].Status != StatusPending {
			continue
		}
		if items[i].IsPicture() {
			received++
		}
		items[i].Status = StatusNotOk
		items[i].FirstVerificationNotAuthentic = true
		invalid = append(invalid, i)
	}
	// The transition that ended the gap can no longer be trusted as a chain
	// anchor; it keeps pending but its failed first verification latches.
	items[last].NeedsSecondVerification = true
	items[last].FirstVerificationNotAuthentic = true

	out := &Outcome{
		Verdict:             VerdictNotOK,
		PublicKeyHasChanged: false,
		Received:            received,
		InvalidPositions:    invalid,
		ValidationStr:       e.renderList(nil),
		Pending:             e.list.PendingCount(),
	}
	e.list.Drain()
	return out
}

// findCloser returns the oldest pending GOP transition that has not yet been
// consumed as a chained unit, i.e. the unit that closes the GOP the next
// validation covers.
func (e *Engine) findCloser() *Item {
	for _, it := range e.list.Items() {
		if it.Info.IsFirstInGop && it.Status == StatusPending && !it.NeedsSecondVerification {
			return it
		}
	}
	return nil
}

// collect finalizes one outcome: drains the settled head of the list.
func (e *Engine) collect(out *Outcome) []*Outcome {
	if out == nil {
		return nil
	}
	e.list.Drain()
	return []*Outcome{out}
}

// flushParked validates GOPs buffered while the public key was missing, in
// FIFO order.
func (e *Engine) flushParked() []*Outcome {
	parked := e.parked
	e.parked = nil
	var outs []*Outcome
	for _, p := range parked {
		if p.sei.Status != StatusPending {
			continue
		}
		outs = append(outs, e.collect(e.validateWindow(p.sei, p.payload, p.closer))...)
	}
	return outs
}
