package nalu

import (
	"bytes"
	"encoding/binary"

	"github.com/google/uuid"
)

// Codec selects the bitstream flavor a session parses.
type Codec int

const (
	H264 Codec = iota
	H265
)

func (c Codec) String() string {
	if c == H265 {
		return "h265"
	}
	return "h264"
}

// Type classifies a NAL unit for validation purposes.
type Type int

const (
	TypeUndefined Type = iota
	TypeSEI
	TypeI
	TypeP
	TypePS // parameter set: SPS/PPS/VPS
	TypeOther
)

// UUIDType tells whether a SEI carries a recognized payload UUID.
type UUIDType int

const (
	UUIDUndefined UUIDType = iota
	UUIDSignedVideo
)

// SignedVideoUUID identifies the user-data-unregistered SEI payloads
// generated by the signing side.
var SignedVideoUUID = uuid.MustParse("53696776-5349-4776-5349-677653497677")

// Validity of a parsed unit: Valid parses cleanly, Invalid is recognisably
// broken, ParseError means the bytes could not be interpreted at all.
const (
	ParseError = -1
	Invalid    = 0
	Valid      = 1
)

// Info is the parsed view of one NAL unit. All byte slices are copies; the
// parser never retains or mutates caller memory.
type Info struct {
	Data         []byte // full unit including start code / length prefix
	HashableData []byte // header + RBSP, emulation bytes stripped, stop bit excluded
	Type         Type
	UUIDType     UUIDType
	Validity     int
	IsHashable   bool

	Payload      []byte // RBSP after the NAL header, emulation bytes stripped
	ReservedByte byte   // first byte of the SEI payload after the UUID
	TLVData      []byte // SEI payload after UUID and reserved byte

	StartCode               uint32 // start code, or the unit size when length-prefixed
	EmulationPreventionSize int    // number of emulation bytes removed

	IsPrimarySlice bool
	IsFirstInGop   bool
	IsGopSEI       bool
}

const (
	// user_data_unregistered SEI payload type
	seiUserDataUnregistered = 5

	uuidLen = 16
)

// Parse interprets one NAL unit, either Annex-B (3- or 4-byte start code) or
// 4-byte length-prefixed. An unparseable unit is reported with
// Validity == ParseError; the caller decides how to surface it.
func Parse(data []byte, codec Codec) Info {
	info := Info{Validity: ParseError}
	if len(data) == 0 {
		return info
	}
	info.Data = append([]byte(nil), data...)

	offset, startCode, ok := locateHeader(info.Data)
	if !ok {
		return info
	}
	info.StartCode = startCode

	headerSize := 1
	if codec == H265 {
		headerSize = 2
	}
	if len(info.Data) < offset+headerSize+1 {
		return info
	}
	body := info.Data[offset:]

	switch codec {
	case H265:
		parseH265Header(&info, body)
	default:
		parseH264Header(&info, body)
	}
	if info.Validity == ParseError {
		return info
	}

	// Strip emulation prevention from the RBSP once; both hashing and SEI
	// interpretation work on the stripped copy.
	rbsp, removed := StripEmulationPrevention(body[headerSize:])
	info.Payload = rbsp
	info.EmulationPreventionSize = removed

	hashable := make([]byte, 0, headerSize+len(rbsp))
	hashable = append(hashable, body[:headerSize]...)
	hashable = append(hashable, rbsp...)
	// A lone 0x80 at the end is the rbsp stop bit.
	if n := len(hashable); n > headerSize && hashable[n-1] == 0x80 {
		hashable = hashable[:n-1]
	}
	info.HashableData = hashable

	if info.Type == TypeSEI {
		parseSEIPayload(&info)
	}

	// Signed-Video SEIs are inputs to the GOP hash, not part of it. A SEI
	// with an unknown UUID stays hashable.
	switch {
	case info.Validity != Valid:
		info.IsHashable = false
	case info.IsGopSEI:
		info.IsHashable = false
	case info.Type == TypeUndefined:
		info.IsHashable = false
	default:
		info.IsHashable = true
	}

	info.IsFirstInGop = info.Type == TypeI && info.IsPrimarySlice
	return info
}

// locateHeader finds the first byte of the NAL header, accepting Annex-B
// start codes and 4-byte big-endian length prefixes.
func locateHeader(data []byte) (offset int, startCode uint32, ok bool) {
	if len(data) >= 4 && data[0] == 0 && data[1] == 0 && data[2] == 0 && data[3] == 1 {
		return 4, 0x00000001, true
	}
	if len(data) >= 3 && data[0] == 0 && data[1] == 0 && data[2] == 1 {
		return 3, 0x000001, true
	}
	if len(data) > 4 {
		size := binary.BigEndian.Uint32(data)
		if int(size) == len(data)-4 {
			return 4, size, true
		}
	}
	return 0, 0, false
}

func parseH264Header(info *Info, body []byte) {
	header := body[0]
	if header&0x80 != 0 { // forbidden_zero_bit
		info.Validity = Invalid
		info.Type = TypeUndefined
		return
	}
	nalType := header & 0x1F
	info.Validity = Valid
	switch nalType {
	case 0:
		info.Type = TypeUndefined
		info.Validity = Invalid
	case 1, 2, 3, 4:
		info.Type = TypeP
		info.IsPrimarySlice = firstMBInSliceIsZero(body[1:])
	case 5:
		info.Type = TypeI
		info.IsPrimarySlice = firstMBInSliceIsZero(body[1:])
	case 6:
		info.Type = TypeSEI
	case 7, 8:
		info.Type = TypePS
	default:
		info.Type = TypeOther
	}
}

func parseH265Header(info *Info, body []byte) {
	if body[0]&0x80 != 0 { // forbidden_zero_bit
		info.Validity = Invalid
		info.Type = TypeUndefined
		return
	}
	nalType := (body[0] >> 1) & 0x3F
	info.Validity = Valid
	switch {
	case nalType <= 9:
		info.Type = TypeP
		info.IsPrimarySlice = firstSliceSegmentFlag(body[2:])
	case nalType >= 16 && nalType <= 21: // BLA/IDR/CRA
		info.Type = TypeI
		info.IsPrimarySlice = firstSliceSegmentFlag(body[2:])
	case nalType >= 32 && nalType <= 34: // VPS/SPS/PPS
		info.Type = TypePS
	case nalType == 39 || nalType == 40:
		info.Type = TypeSEI
	case nalType >= 48:
		info.Type = TypeUndefined
		info.Validity = Invalid
	default:
		info.Type = TypeOther
	}
}

// firstMBInSliceIsZero reads the leading ue(v) bit of an H.264 slice header.
// first_mb_in_slice == 0 encodes as a set first bit.
func firstMBInSliceIsZero(sliceHeader []byte) bool {
	return len(sliceHeader) > 0 && sliceHeader[0]&0x80 != 0
}

// firstSliceSegmentFlag reads first_slice_segment_in_pic_flag (H.265).
func firstSliceSegmentFlag(sliceHeader []byte) bool {
	return len(sliceHeader) > 0 && sliceHeader[0]&0x80 != 0
}

// parseSEIPayload walks the first SEI message in the (already stripped) RBSP
// and, for user-data-unregistered payloads, reads the UUID and locates the
// TLV data.
func parseSEIPayload(info *Info) {
	p := info.Payload
	payloadType := 0
	i := 0
	for i < len(p) && p[i] == 0xFF {
		payloadType += 0xFF
		i++
	}
	if i >= len(p) {
		info.Validity = Invalid
		return
	}
	payloadType += int(p[i])
	i++

	payloadSize := 0
	for i < len(p) && p[i] == 0xFF {
		payloadSize += 0xFF
		i++
	}
	if i >= len(p) {
		info.Validity = Invalid
		return
	}
	payloadSize += int(p[i])
	i++

	if payloadType != seiUserDataUnregistered {
		return
	}
	if payloadSize < uuidLen || i+payloadSize > len(p) {
		info.Validity = Invalid
		return
	}
	payload := p[i : i+payloadSize]
	if !bytes.Equal(payload[:uuidLen], SignedVideoUUID[:]) {
		return
	}
	info.UUIDType = UUIDSignedVideo
	info.IsGopSEI = true
	if len(payload) < uuidLen+1 {
		info.Validity = Invalid
		return
	}
	info.ReservedByte = payload[uuidLen]
	info.TLVData = payload[uuidLen+1:]
}

// StripEmulationPrevention removes 0x03 emulation bytes (0x000003 -> 0x0000)
// into a fresh buffer and reports how many were removed.
func StripEmulationPrevention(data []byte) ([]byte, int) {
	out := make([]byte, 0, len(data))
	removed := 0
	zeros := 0
	for _, b := range data {
		if zeros >= 2 && b == 0x03 {
			removed++
			zeros = 0
			continue
		}
		if b == 0x00 {
			zeros++
		} else {
			zeros = 0
		}
		out = append(out, b)
	}
	return out, removed
}

// InsertEmulationPrevention inserts 0x03 after a 0x0000 pair whenever the
// next byte is 0x00..0x03, so the payload cannot mimic a start code on the
// wire.
func InsertEmulationPrevention(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/64)
	zeros := 0
	for _, b := range data {
		if zeros >= 2 && b <= 0x03 {
			out = append(out, 0x03)
			zeros = 0
		}
		if b == 0x00 {
			zeros++
		} else {
			zeros = 0
		}
		out = append(out, b)
	}
	return out
}
