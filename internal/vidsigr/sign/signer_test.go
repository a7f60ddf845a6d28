package sign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/hashing"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/keys"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/nalu"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/tlv"
)

func newTestSigner(t *testing.T, opts Options) *Signer {
	t.Helper()
	privPEM, _, err := keys.GenerateKeyPEM()
	require.NoError(t, err)
	s, err := NewSigner(nalu.H264, privPEM, opts)
	require.NoError(t, err)
	return s
}

// iUnit and pUnit fabricate minimal slices; ids keep units distinct.
func iUnit(id byte) []byte { return []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x80, id, 0x80} }
func pUnit(id byte) []byte { return []byte{0x00, 0x00, 0x00, 0x01, 0x41, 0x80, id, 0x80} }

func decodeSei(t *testing.T, sei []byte) *tlv.Payload {
	t.Helper()
	info := nalu.Parse(sei, nalu.H264)
	require.Equal(t, nalu.Valid, info.Validity)
	require.True(t, info.IsGopSEI)
	p, err := tlv.Decode(info.TLVData)
	require.NoError(t, err)
	return p
}

func TestSigner_EmitsOneSeiPerGop(t *testing.T) {
	s := newTestSigner(t, Options{})

	seis, err := s.AddNALU(iUnit(1))
	require.NoError(t, err)
	require.Len(t, seis, 1, "first I closes the empty initial GOP")
	p := decodeSei(t, seis[0])
	assert.Equal(t, uint32(0), p.General.GopCounter)
	assert.Equal(t, uint16(0), p.General.NumNALUs)

	for i := byte(2); i <= 3; i++ {
		seis, err = s.AddNALU(pUnit(i))
		require.NoError(t, err)
		assert.Empty(t, seis)
	}

	seis, err = s.AddNALU(iUnit(4))
	require.NoError(t, err)
	require.Len(t, seis, 1)
	p = decodeSei(t, seis[0])
	assert.Equal(t, uint32(1), p.General.GopCounter)
	assert.Equal(t, uint16(3), p.General.NumNALUs)
}

func TestSigner_GopHashIncludesChainedUnit(t *testing.T) {
	s := newTestSigner(t, Options{})
	_, err := s.AddNALU(iUnit(1))
	require.NoError(t, err)
	_, err = s.AddNALU(pUnit(2))
	require.NoError(t, err)
	seis, err := s.AddNALU(iUnit(3))
	require.NoError(t, err)
	require.Len(t, seis, 1)
	p := decodeSei(t, seis[0])

	h := func(u []byte) []byte {
		info := nalu.Parse(u, nalu.H264)
		return hashing.Sum(info.HashableData)
	}
	want := hashing.GopHash([][]byte{h(iUnit(1)), h(pUnit(2)), h(iUnit(3))})
	assert.Equal(t, want, p.General.GopHash)
}

func TestSigner_FrameLevelCarriesHashList(t *testing.T) {
	s := newTestSigner(t, Options{Level: LevelFrame})
	_, err := s.AddNALU(iUnit(1))
	require.NoError(t, err)
	_, err = s.AddNALU(pUnit(2))
	require.NoError(t, err)
	seis, err := s.AddNALU(iUnit(3))
	require.NoError(t, err)
	p := decodeSei(t, seis[0])
	// Own unit plus the chained closer.
	assert.Len(t, p.HashList, 2)
}

func TestSigner_HashListOverflowFallsBack(t *testing.T) {
	s := newTestSigner(t, Options{Level: LevelFrame, MaxHashList: 2})
	_, err := s.AddNALU(iUnit(1))
	require.NoError(t, err)
	for i := byte(2); i <= 5; i++ {
		_, err = s.AddNALU(pUnit(i))
		require.NoError(t, err)
	}
	seis, err := s.AddNALU(iUnit(6))
	require.NoError(t, err)
	p := decodeSei(t, seis[0])
	assert.Empty(t, p.HashList, "overflowed GOP falls back to GOP level")
	assert.Equal(t, uint16(5), p.General.NumNALUs)
}

func TestSigner_RecurrenceGatesHeavyTags(t *testing.T) {
	s := newTestSigner(t, Options{
		Recurrence:  2,
		ProductInfo: &tlv.ProductInfo{HardwareID: "hw"},
	})

	var payloads []*tlv.Payload
	for i := byte(1); i <= 4; i++ {
		seis, err := s.AddNALU(iUnit(i))
		require.NoError(t, err)
		require.Len(t, seis, 1)
		payloads = append(payloads, decodeSei(t, seis[0]))
	}
	// Counters 0 and 2 are anchors with recurrence 2, offset 0.
	assert.True(t, payloads[0].HasRecurrent())
	assert.NotNil(t, payloads[0].PublicKey)
	assert.False(t, payloads[1].HasRecurrent())
	assert.True(t, payloads[2].HasRecurrent())
	assert.False(t, payloads[3].HasRecurrent())
}

func TestSigner_RecurrenceOffsetShiftsAnchors(t *testing.T) {
	s := newTestSigner(t, Options{Recurrence: 4, Offset: 3})
	var payloads []*tlv.Payload
	for i := byte(1); i <= 2; i++ {
		seis, err := s.AddNALU(iUnit(i))
		require.NoError(t, err)
		payloads = append(payloads, decodeSei(t, seis[0]))
	}
	assert.False(t, payloads[0].HasRecurrent(), "counter 0 is off-anchor with offset 3")
	assert.True(t, payloads[1].HasRecurrent())
}

func TestSigner_SignatureVerifiesAgainstDocument(t *testing.T) {
	privPEM, pubDER, err := keys.GenerateKeyPEM()
	require.NoError(t, err)
	s, err := NewSigner(nalu.H264, privPEM, Options{})
	require.NoError(t, err)

	_, err = s.AddNALU(iUnit(1))
	require.NoError(t, err)
	seis, err := s.AddNALU(iUnit(2))
	require.NoError(t, err)
	p := decodeSei(t, seis[0])

	ok, err := keys.ECDSAVerifier{}.Verify(pubDER, tlv.DocumentDigest(p.General, p.HashList), p.Signature)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSigner_InvalidUnitsPassThrough(t *testing.T) {
	s := newTestSigner(t, Options{})
	seis, err := s.AddNALU([]byte{0x00, 0x00, 0x00, 0x01, 0x80, 0x01})
	require.NoError(t, err)
	assert.Empty(t, seis)
}

func TestBuildSEI_ParsesBack(t *testing.T) {
	records := []byte{0x7F, 0x00, 0x03, 0x00, 0x00, 0x00} // unknown tag, zero-run value
	sei := BuildSEI(nalu.H265, records)
	info := nalu.Parse(sei, nalu.H265)
	require.Equal(t, nalu.Valid, info.Validity)
	assert.True(t, info.IsGopSEI)
	assert.Equal(t, records, info.TLVData)
}
