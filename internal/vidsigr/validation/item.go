package validation

import (
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/nalu"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/tlv"
)

// Status is the per-item verdict character. The alphabet is part of the API:
// 'P' pending, 'U' unknown, '_' ignored, '.' authentic, 'N' not authentic,
// 'M' missing, 'E' error.
type Status byte

const (
	StatusPending   Status = 'P'
	StatusUnknown   Status = 'U'
	StatusIgnored   Status = '_'
	StatusOk        Status = '.'
	StatusNotOk     Status = 'N'
	StatusMissing   Status = 'M'
	StatusError     Status = 'E'
)

// Item is one entry of the pending list, in arrival order.
type Item struct {
	Info   *nalu.Info
	Status Status

	// Hash is the unit's own digest. SecondHash is the digest under which
	// the unit participates in the preceding GOP (chained hash) or in a
	// re-verification after a late SEI.
	Hash       []byte
	SecondHash []byte

	// NeedsSecondVerification marks a unit used in two neighboring GOPs;
	// it stays pending until its own GOP settles.
	NeedsSecondVerification bool
	// FirstVerificationNotAuthentic latches a failed first verification so
	// the second one cannot overwrite it with an acceptable status.
	FirstVerificationNotAuthentic bool
	// HasBeenDecoded marks a SEI as decoded; decoding twice could overwrite
	// the associated GOP bookkeeping.
	HasBeenDecoded bool
	// UsedInGopHash marks the unit as consumed by a computed GOP hash.
	UsedInGopHash bool

	// Sei is the decoded payload, set only for decoded Signed-Video SEIs.
	Sei *tlv.Payload
}

// IsPicture reports whether the item counts as a received picture unit:
// hashable and not a SEI of any kind.
func (it *Item) IsPicture() bool {
	return it.Info.IsHashable && it.Info.Type != nalu.TypeSEI
}

// List is the pending sequence in arrival order. Items are appended at the
// tail only; settled items are released from the head only.
type List struct {
	items []*Item
}

func (l *List) Append(it *Item) {
	l.items = append(l.items, it)
}

// Items exposes the live window in arrival order.
func (l *List) Items() []*Item {
	return l.items
}

func (l *List) Len() int {
	return len(l.items)
}

// PendingCount counts items still awaiting a verdict.
func (l *List) PendingCount() int {
	n := 0
	for _, it := range l.items {
		if it.Status == StatusPending {
			n++
		}
	}
	return n
}

// Drain releases settled items from the head, stopping at the first item
// still pending, and returns them.
func (l *List) Drain() []*Item {
	i := 0
	for i < len(l.items) && l.items[i].Status != StatusPending {
		i++
	}
	drained := l.items[:i]
	l.items = l.items[i:]
	return drained
}

// Reset empties the list.
func (l *List) Reset() {
	l.items = nil
}

// IndexOf returns the position of it, or -1.
func (l *List) IndexOf(it *Item) int {
	for i, x := range l.items {
		if x == it {
			return i
		}
	}
	return -1
}
