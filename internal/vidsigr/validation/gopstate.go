package validation

import "github.com/vaibhaw-/VidSigR/internal/vidsigr/tlv"

// GopState is the per-GOP scratch the engine keeps for the GOP currently
// being collected.
type GopState struct {
	NumNALUs int // hashable units observed in the open GOP

	HasSeiInGop           bool
	ValidateAfterNextNalu bool
	NoGopEndBeforeSei     bool
	GopTransitionIsLost   bool
}

func (g *GopState) reset() {
	*g = GopState{}
}

// GopInfoDetected is what the validator believes about the open GOP from
// picture observations alone.
type GopInfoDetected struct {
	NumPictureNALUs int
	HasFirstNalu    bool
	SeiPosition     int // index in the pending list, -1 when absent
}

func (g *GopInfoDetected) reset() {
	g.NumPictureNALUs = 0
	g.HasFirstNalu = false
	g.SeiPosition = -1
}

// parkedGop snapshots a decoded SEI whose validation is blocked on a public
// key that has not arrived yet. The ring holds at most MaxPendingGops of
// them; overflow discards the oldest and degrades its items to unknown.
type parkedGop struct {
	sei     *Item
	payload *tlv.Payload
	closer  *Item
	state   GopState
	info    GopInfoDetected
}
