package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/hashing"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/nalu"
)

func hashOf(s string) []byte {
	return hashing.Sum([]byte(s))
}

func pictureItem(s string) *Item {
	return &Item{
		Info:   &nalu.Info{Type: nalu.TypeP, IsHashable: true},
		Status: StatusPending,
		Hash:   hashOf(s),
	}
}

func TestMatchFrameHashes_AllMatch(t *testing.T) {
	own := []*Item{pictureItem("a"), pictureItem("b")}
	perItem, holes, trailing := matchFrameHashes(own, [][]byte{hashOf("a"), hashOf("b")})
	assert.Equal(t, []bool{true, true}, perItem)
	assert.Empty(t, holes)
	assert.Zero(t, trailing)
}

func TestMatchFrameHashes_MissingInMiddle(t *testing.T) {
	own := []*Item{pictureItem("a"), pictureItem("c")}
	perItem, holes, trailing := matchFrameHashes(own, [][]byte{hashOf("a"), hashOf("b"), hashOf("c")})
	assert.Equal(t, []bool{true, true}, perItem)
	assert.Equal(t, map[int]int{1: 1}, holes)
	assert.Zero(t, trailing)
}

func TestMatchFrameHashes_MissingAtEnd(t *testing.T) {
	own := []*Item{pictureItem("a")}
	perItem, _, trailing := matchFrameHashes(own, [][]byte{hashOf("a"), hashOf("b")})
	assert.Equal(t, []bool{true}, perItem)
	assert.Equal(t, 1, trailing)
}

func TestMatchFrameHashes_Modified(t *testing.T) {
	own := []*Item{pictureItem("a"), pictureItem("x"), pictureItem("c")}
	perItem, holes, trailing := matchFrameHashes(own, [][]byte{hashOf("a"), hashOf("b"), hashOf("c")})
	assert.Equal(t, []bool{true, false, true}, perItem)
	assert.Empty(t, holes)
	assert.Zero(t, trailing)
}

func TestList_DrainStopsAtPending(t *testing.T) {
	l := &List{}
	a, b, c := pictureItem("a"), pictureItem("b"), pictureItem("c")
	a.Status = StatusOk
	b.Status = StatusNotOk
	l.Append(a)
	l.Append(b)
	l.Append(c)

	drained := l.Drain()
	assert.Len(t, drained, 2)
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 1, l.PendingCount())
}

func TestRenderList_InsertsMissing(t *testing.T) {
	e := NewEngine(nalu.H264, nil, 0)
	a, b := pictureItem("a"), pictureItem("b")
	a.Status = StatusOk
	e.list.Append(a)
	e.list.Append(b)
	assert.Equal(t, ".MMP", e.renderList(map[int]int{1: 2}))
	assert.Equal(t, ".PM", e.renderList(map[int]int{2: 1}))
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "ok", VerdictOK.String())
	assert.Equal(t, "not_ok", VerdictNotOK.String())
	assert.Equal(t, "not_signed", VerdictNotSigned.String())
	assert.Equal(t, "signature_present", VerdictSignaturePresent.String())
	assert.Equal(t, "ok_with_missing_info", VerdictOKWithMissingInfo.String())
}
