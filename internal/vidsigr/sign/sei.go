package sign

import (
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/nalu"
)

const (
	seiUserDataUnregistered = 5
	rbspStopByte            = 0x80
)

// BuildSEI wraps TLV records into a complete user-data-unregistered SEI NAL
// unit, with a 4-byte start code and emulation prevention applied. The TLV
// lengths were written before escaping, so escaping never disturbs them.
func BuildSEI(codec nalu.Codec, records []byte) []byte {
	payloadSize := len(nalu.SignedVideoUUID) + 1 + len(records) // uuid + reserved

	rbsp := make([]byte, 0, payloadSize+8)
	rbsp = append(rbsp, seiUserDataUnregistered)
	size := payloadSize
	for size >= 0xFF {
		rbsp = append(rbsp, 0xFF)
		size -= 0xFF
	}
	rbsp = append(rbsp, byte(size))
	rbsp = append(rbsp, nalu.SignedVideoUUID[:]...)
	rbsp = append(rbsp, 0x00) // reserved
	rbsp = append(rbsp, records...)
	rbsp = append(rbsp, rbspStopByte)

	escaped := nalu.InsertEmulationPrevention(rbsp)

	out := []byte{0x00, 0x00, 0x00, 0x01}
	if codec == nalu.H265 {
		// prefix SEI (type 39), layer 0, temporal id 0 (temporal_id_plus1 = 1)
		out = append(out, 0x4E, 0x01)
	} else {
		out = append(out, 0x06)
	}
	return append(out, escaped...)
}
