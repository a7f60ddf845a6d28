package nalu

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_H264Types(t *testing.T) {
	tests := []struct {
		name         string
		unit         []byte
		wantType     Type
		wantHashable bool
		wantFirst    bool
	}{
		{
			name:         "idr primary slice",
			unit:         []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x88, 0x84, 0x21},
			wantType:     TypeI,
			wantHashable: true,
			wantFirst:    true,
		},
		{
			name:         "idr non-primary slice",
			unit:         []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x44, 0x84, 0x21},
			wantType:     TypeI,
			wantHashable: true,
			wantFirst:    false,
		},
		{
			name:         "non-idr slice",
			unit:         []byte{0x00, 0x00, 0x01, 0x41, 0x9a, 0x02},
			wantType:     TypeP,
			wantHashable: true,
		},
		{
			name:         "sps",
			unit:         []byte{0x00, 0x00, 0x00, 0x01, 0x67, 0x42, 0x00, 0x1e},
			wantType:     TypePS,
			wantHashable: true,
		},
		{
			name:         "pps",
			unit:         []byte{0x00, 0x00, 0x00, 0x01, 0x68, 0xce, 0x38, 0x80},
			wantType:     TypePS,
			wantHashable: true,
		},
		{
			name:         "aud is other",
			unit:         []byte{0x00, 0x00, 0x00, 0x01, 0x09, 0xf0},
			wantType:     TypeOther,
			wantHashable: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Parse(tt.unit, H264)
			assert.Equal(t, Valid, info.Validity)
			assert.Equal(t, tt.wantType, info.Type)
			assert.Equal(t, tt.wantHashable, info.IsHashable)
			assert.Equal(t, tt.wantFirst, info.IsFirstInGop)
		})
	}
}

func TestParse_H265Types(t *testing.T) {
	idr := []byte{0x00, 0x00, 0x00, 0x01, 0x26, 0x01, 0x88, 0x21}
	info := Parse(idr, H265)
	require.Equal(t, Valid, info.Validity)
	assert.Equal(t, TypeI, info.Type)
	assert.True(t, info.IsFirstInGop)

	trail := []byte{0x00, 0x00, 0x00, 0x01, 0x02, 0x01, 0x88, 0x21}
	info = Parse(trail, H265)
	assert.Equal(t, TypeP, info.Type)

	sps := []byte{0x00, 0x00, 0x00, 0x01, 0x42, 0x01, 0x01, 0x02}
	info = Parse(sps, H265)
	assert.Equal(t, TypePS, info.Type)
}

func TestParse_InvalidAndErrors(t *testing.T) {
	// Forbidden bit set.
	info := Parse([]byte{0x00, 0x00, 0x00, 0x01, 0x80, 0x01}, H264)
	assert.Equal(t, Invalid, info.Validity)
	assert.Equal(t, TypeUndefined, info.Type)
	assert.False(t, info.IsHashable)

	// No start code and no matching length prefix.
	info = Parse([]byte{0x12, 0x34, 0x56}, H264)
	assert.Equal(t, ParseError, info.Validity)

	// Empty input.
	info = Parse(nil, H264)
	assert.Equal(t, ParseError, info.Validity)
}

func TestParse_LengthPrefixed(t *testing.T) {
	unit := []byte{0x00, 0x00, 0x00, 0x04, 0x65, 0x88, 0x84, 0x21}
	info := Parse(unit, H264)
	require.Equal(t, Valid, info.Validity)
	assert.Equal(t, TypeI, info.Type)
	assert.Equal(t, uint32(4), info.StartCode)
}

func TestParse_SignedVideoSei(t *testing.T) {
	payload := append(append([]byte{}, SignedVideoUUID[:]...), 0x00, 0xAB, 0xCD)
	unit := []byte{0x00, 0x00, 0x00, 0x01, 0x06, 0x05, byte(len(payload))}
	unit = append(unit, payload...)
	unit = append(unit, 0x80)

	info := Parse(unit, H264)
	require.Equal(t, Valid, info.Validity)
	assert.Equal(t, TypeSEI, info.Type)
	assert.True(t, info.IsGopSEI)
	assert.Equal(t, UUIDSignedVideo, info.UUIDType)
	assert.False(t, info.IsHashable, "signed-video SEIs are inputs to the GOP hash, not part of it")
	assert.Equal(t, byte(0x00), info.ReservedByte)
	assert.Equal(t, []byte{0xAB, 0xCD}, info.TLVData)
}

func TestParse_ForeignSeiStaysHashable(t *testing.T) {
	payload := make([]byte, 17)
	payload[0] = 0x42
	unit := []byte{0x00, 0x00, 0x00, 0x01, 0x06, 0x05, byte(len(payload))}
	unit = append(unit, payload...)
	unit = append(unit, 0x80)

	info := Parse(unit, H264)
	require.Equal(t, Valid, info.Validity)
	assert.False(t, info.IsGopSEI)
	assert.True(t, info.IsHashable)
}

func TestParse_DoesNotRetainCallerMemory(t *testing.T) {
	unit := []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x88, 0x84, 0x21}
	info := Parse(unit, H264)
	hashable := append([]byte(nil), info.HashableData...)
	unit[6] = 0xFF
	assert.Equal(t, hashable, info.HashableData)
}

func TestEmulationPrevention_RoundTrip(t *testing.T) {
	tests := [][]byte{
		{0x00, 0x00, 0x00},
		{0x00, 0x00, 0x01, 0x02},
		{0x00, 0x00, 0x02, 0x00, 0x00, 0x03},
		{0x01, 0x02, 0x03},
		{0x00, 0x00, 0x00, 0x00, 0x00},
		{},
	}
	for _, in := range tests {
		escaped := InsertEmulationPrevention(in)
		// No start-code-like pattern may survive escaping.
		assert.NotContains(t, string(escaped), string([]byte{0x00, 0x00, 0x00}))
		assert.NotContains(t, string(escaped), string([]byte{0x00, 0x00, 0x01}))
		assert.NotContains(t, string(escaped), string([]byte{0x00, 0x00, 0x02}))
		stripped, _ := StripEmulationPrevention(escaped)
		assert.Equal(t, append([]byte{}, in...), append([]byte{}, stripped...))
	}
}

func TestHashableData_StripsEmulationAndStopBit(t *testing.T) {
	// RBSP contains 00 00 03 01 which must hash as 00 00 01.
	unit := []byte{0x00, 0x00, 0x00, 0x01, 0x41, 0x9a, 0x00, 0x00, 0x03, 0x01, 0x80}
	info := Parse(unit, H264)
	require.Equal(t, Valid, info.Validity)
	assert.Equal(t, []byte{0x41, 0x9a, 0x00, 0x00, 0x01}, info.HashableData)
	assert.Equal(t, 1, info.EmulationPreventionSize)
}

func TestSplit(t *testing.T) {
	var stream []byte
	units := [][]byte{
		{0x00, 0x00, 0x00, 0x01, 0x65, 0x88, 0x11},
		{0x00, 0x00, 0x01, 0x41, 0x9a, 0x22},
		{0x00, 0x00, 0x00, 0x01, 0x41, 0x9a, 0x33},
	}
	for _, u := range units {
		stream = append(stream, u...)
	}
	got := Split(stream)
	require.Len(t, got, 3)
	for i := range units {
		assert.True(t, bytes.Equal(units[i], got[i]), "unit %d mismatch", i)
	}
}

func TestScanner(t *testing.T) {
	var stream []byte
	units := [][]byte{
		{0x00, 0x00, 0x00, 0x01, 0x65, 0x88, 0x11},
		{0x00, 0x00, 0x00, 0x01, 0x41, 0x9a, 0x22},
		{0x00, 0x00, 0x00, 0x01, 0x06, 0x05, 0x01, 0xaa, 0x80},
	}
	for _, u := range units {
		stream = append(stream, u...)
	}
	sc := NewScanner(bytes.NewReader(stream))
	var got [][]byte
	for sc.Scan() {
		got = append(got, append([]byte(nil), sc.Bytes()...))
	}
	require.NoError(t, sc.Err())
	require.Len(t, got, 3)
	for i := range units {
		assert.Equal(t, units[i], got[i])
	}
}
