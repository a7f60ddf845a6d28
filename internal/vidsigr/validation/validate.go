package validation

import (
	"bytes"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/hashing"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/logger"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/tlv"
)

// validateWindow settles the GOP a decoded SEI signs. The window runs from
// the list head up to the closing unit (the first unit of the next GOP),
// which participates with its chained hash and stays pending for its own
// GOP.
func (e *Engine) validateWindow(sei *Item, payload *tlv.Payload, closer *Item) *Outcome {
	if e.publicKey == nil {
		return e.park(sei, payload, closer)
	}

	items := e.list.Items()
	closerIdx := e.list.IndexOf(closer)
	var own []*Item
	for _, it := range items[:closerIdx] {
		if it == sei || it.Status != StatusPending || !it.Info.IsHashable {
			continue
		}
		own = append(own, it)
	}

	declared := payload.General
	docDigest := tlv.DocumentDigest(declared, payload.HashList)
	sigOK, verr := e.verifier.Verify(e.publicKey, docDigest, payload.Signature)
	if verr != nil {
		logger.L().Warnw("signature verification failed to run", "err", verr.Error())
		sigOK = false
	}

	received := 0
	for _, it := range own {
		if it.IsPicture() {
			received++
		}
	}
	expected := int(declared.NumNALUs)
	missed := expected - received

	frameLevel := sigOK && len(payload.HashList) > 0
	gopOK := sigOK
	chainOK := sigOK
	perItem := make([]bool, len(own))
	holesByList := map[int]int{}

	switch {
	case frameLevel:
		declOwn := payload.HashList[:len(payload.HashList)-1]
		chained := payload.HashList[len(payload.HashList)-1]
		var holes map[int]int
		var trailing int
		perItem, holes, trailing = matchFrameHashes(own, declOwn)
		for oi, n := range holes {
			holesByList[e.list.IndexOf(own[oi])] += n
		}
		if trailing > 0 {
			holesByList[closerIdx] += trailing
		}
		for _, ok := range perItem {
			if !ok {
				gopOK = false
			}
		}
		chainOK = bytes.Equal(closer.Hash, chained)
	case sigOK:
		digests := make([][]byte, 0, len(own)+1)
		for _, it := range own {
			digests = append(digests, it.Hash)
			it.UsedInGopHash = true
		}
		digests = append(digests, closer.Hash)
		closer.UsedInGopHash = true
		if !bytes.Equal(hashing.GopHash(digests), declared.GopHash) {
			gopOK = false
		}
		chainOK = gopOK
		for i := range perItem {
			perItem[i] = gopOK
		}
	}

	// A stream picked up mid-GOP cannot line up its first signed window; that
	// is a property of the export point, not of the video.
	if !e.haveBaseline && (!gopOK || !chainOK || missed != 0) {
		return e.settleSignaturePresent(sei, payload, own, closer)
	}

	for oi, it := range own {
		if perItem[oi] && !it.FirstVerificationNotAuthentic {
			it.Status = StatusOk
		} else {
			it.Status = StatusNotOk
		}
	}
	if sigOK {
		sei.Status = StatusOk
	} else {
		sei.Status = StatusNotOk
	}
	closer.NeedsSecondVerification = true
	closer.SecondHash = closer.Hash
	if !chainOK {
		closer.FirstVerificationNotAuthentic = true
	}

	anyInvalid := !sigOK || !chainOK
	for _, it := range own {
		if it.Status == StatusNotOk {
			anyInvalid = true
		}
	}

	verdict := VerdictOK
	switch {
	case anyInvalid:
		verdict = VerdictNotOK
	case len(holesByList) > 0 || missed > 0:
		verdict = VerdictOKWithMissingInfo
	}

	str := e.renderList(holesByList)
	out := &Outcome{
		Verdict:             verdict,
		PublicKeyHasChanged: e.keyChanged,
		Expected:            expected,
		Received:            received,
		Missed:              missed,
		MissingPositions:    positionsOf(str, StatusMissing),
		InvalidPositions:    positionsOf(str, StatusNotOk),
		ValidationStr:       str,
		Pending:             e.list.PendingCount(),
		GopCounter:          declared.GopCounter,
		ProductInfo:         e.productInfo,
		Vendor:              e.vendor,
	}
	e.keyChanged = false
	e.haveBaseline = true
	e.expectedCounter = declared.GopCounter + 1
	e.gopState.ValidateAfterNextNalu = false
	e.gopState.NoGopEndBeforeSei = false
	e.gopState.GopTransitionIsLost = false

	logger.L().Debugw("gop settled", "gop", declared.GopCounter, "verdict", verdict.String(),
		"expected", expected, "received", received, "validation", str)
	return out
}

// settleSignaturePresent reports the first, unalignable window of a stream
// that starts mid-GOP: a signature exists but covers units never seen.
func (e *Engine) settleSignaturePresent(sei *Item, payload *tlv.Payload, own []*Item, closer *Item) *Outcome {
	for _, it := range own {
		it.Status = StatusUnknown
	}
	sei.Status = StatusUnknown
	closer.NeedsSecondVerification = true
	closer.SecondHash = closer.Hash

	str := e.renderList(nil)
	out := &Outcome{
		Verdict:             VerdictSignaturePresent,
		PublicKeyHasChanged: e.keyChanged,
		Expected:            int(payload.General.NumNALUs),
		ValidationStr:       str,
		Pending:             e.list.PendingCount(),
		GopCounter:          payload.General.GopCounter,
		ProductInfo:         e.productInfo,
		Vendor:              e.vendor,
	}
	e.keyChanged = false
	e.haveBaseline = true
	e.expectedCounter = payload.General.GopCounter + 1
	e.gopState.ValidateAfterNextNalu = false
	return out
}

// park buffers a decoded SEI until the public key arrives. The closing unit
// is consumed as a chain anchor so later SEIs find their own.
func (e *Engine) park(sei *Item, payload *tlv.Payload, closer *Item) *Outcome {
	closer.NeedsSecondVerification = true
	e.parked = append(e.parked, &parkedGop{
		sei: sei, payload: payload, closer: closer,
		state: e.gopState, info: e.detected,
	})
	if len(e.parked) > e.maxPendingGops {
		old := e.parked[0]
		e.parked = e.parked[1:]
		idx := e.list.IndexOf(old.closer)
		for _, it := range e.list.Items()[:idx] {
			if it.Status == StatusPending {
				it.Status = StatusUnknown
			}
		}
		logger.L().Warnw("pending gop ring overflow", "dropped_gop", old.payload.General.GopCounter)
	}
	return &Outcome{
		Verdict:       VerdictSignaturePresent,
		ValidationStr: e.renderList(nil),
		Pending:       e.list.PendingCount(),
		GopCounter:    payload.General.GopCounter,
		ProductInfo:   e.productInfo,
		Vendor:        e.vendor,
	}
}

// matchFrameHashes aligns the observed per-unit digests with the declared
// list. A single unmatched declared digest is treated as a missing unit at
// that position; anything else marks the observed unit not authentic.
func matchFrameHashes(own []*Item, decl [][]byte) (perItem []bool, holes map[int]int, trailing int) {
	perItem = make([]bool, len(own))
	holes = map[int]int{}
	di := 0
	for oi, it := range own {
		switch {
		case di < len(decl) && bytes.Equal(it.Hash, decl[di]):
			perItem[oi] = true
			di++
		case di+1 < len(decl) && bytes.Equal(it.Hash, decl[di+1]):
			holes[oi]++
			perItem[oi] = true
			di += 2
		default:
			perItem[oi] = false
			di++
		}
	}
	if di < len(decl) {
		trailing = len(decl) - di
	}
	return perItem, holes, trailing
}

// renderList draws the validation string for the current window: one status
// character per item, with missing units interleaved where detected.
func (e *Engine) renderList(holesByList map[int]int) string {
	items := e.list.Items()
	var b []byte
	for i, it := range items {
		for n := 0; n < holesByList[i]; n++ {
			b = append(b, byte(StatusMissing))
		}
		b = append(b, byte(it.Status))
	}
	for n := 0; n < holesByList[len(items)]; n++ {
		b = append(b, byte(StatusMissing))
	}
	return string(b)
}

func positionsOf(str string, s Status) []int {
	var pos []int
	for i := 0; i < len(str); i++ {
		if str[i] == byte(s) {
			pos = append(pos, i)
		}
	}
	return pos
}
