// Package streamr fabricates synthetic NAL-unit streams and signs them.
// It backs the streamr binary and the validation scenario tests.
package streamr

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/nalu"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/sign"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/tlv"
)

// Generator fabricates minimal, unique NAL units of each kind the pattern
// alphabet names:
//
//	I/i  primary/non-primary IDR slice
//	P/p  primary/non-primary inter slice
//	V    parameter set
//	S    SEI with a foreign UUID
//	X    invalid unit
type Generator struct {
	codec nalu.Codec
	next  byte
}

func NewGenerator(codec nalu.Codec) *Generator {
	return &Generator{codec: codec}
}

var foreignUUID = [16]byte{
	0xaa, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
}

// Unit returns one fresh unit of the given kind. Each unit carries a
// counter byte (1..126) so nearby units are not byte-identical; the counter
// wraps, so long patterns repeat units.
func (g *Generator) Unit(kind byte) ([]byte, error) {
	id := g.next
	g.next++
	// Avoid zero bytes in the payload; they could fake start codes.
	id = id%0x7E + 1

	start := []byte{0x00, 0x00, 0x00, 0x01}
	var header, slice []byte
	switch kind {
	case 'I':
		header, slice = g.sliceHeader(true), []byte{0x80, id, 0x80}
	case 'i':
		header, slice = g.sliceHeader(true), []byte{0x40, id, 0x80}
	case 'P':
		header, slice = g.sliceHeader(false), []byte{0x80, id, 0x80}
	case 'p':
		header, slice = g.sliceHeader(false), []byte{0x40, id, 0x80}
	case 'V':
		if g.codec == nalu.H265 {
			header = []byte{0x42, 0x01} // SPS
		} else {
			header = []byte{0x67}
		}
		slice = []byte{id, 0x80}
	case 'S':
		return g.foreignSei(id), nil
	case 'X':
		if g.codec == nalu.H265 {
			header = []byte{0x80, 0x01}
		} else {
			header = []byte{0x80}
		}
		slice = []byte{id}
	default:
		return nil, fmt.Errorf("unknown unit kind %q", kind)
	}
	out := append(start, header...)
	return append(out, slice...), nil
}

func (g *Generator) sliceHeader(idr bool) []byte {
	if g.codec == nalu.H265 {
		if idr {
			return []byte{0x26, 0x01} // IDR_W_RADL
		}
		return []byte{0x02, 0x01} // TRAIL_R
	}
	if idr {
		return []byte{0x65}
	}
	return []byte{0x41}
}

func (g *Generator) foreignSei(id byte) []byte {
	out := []byte{0x00, 0x00, 0x00, 0x01}
	if g.codec == nalu.H265 {
		out = append(out, 0x4E, 0x01)
	} else {
		out = append(out, 0x06)
	}
	out = append(out, 0x05, 17) // user_data_unregistered, uuid + one byte
	out = append(out, foreignUUID[:]...)
	out = append(out, id, 0x80)
	return out
}

// GenerateSigned builds the stream a signing camera would emit for the
// pattern: every unit in order, with the generated SEIs inserted right
// before the unit that triggered them.
func GenerateSigned(signer *sign.Signer, pattern string) ([][]byte, error) {
	g := NewGenerator(signer.Codec())
	var units [][]byte
	for i := 0; i < len(pattern); i++ {
		unit, err := g.Unit(pattern[i])
		if err != nil {
			return nil, err
		}
		seis, err := signer.AddNALU(unit)
		if err != nil {
			return nil, fmt.Errorf("sign unit %d: %w", i, err)
		}
		units = append(units, seis...)
		units = append(units, unit)
	}
	return units, nil
}

// GenerateUnsigned builds the pattern without any signing session.
func GenerateUnsigned(codec nalu.Codec, pattern string) ([][]byte, error) {
	g := NewGenerator(codec)
	var units [][]byte
	for i := 0; i < len(pattern); i++ {
		unit, err := g.Unit(pattern[i])
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, nil
}

// RandomProductInfo draws a plausible device identity.
func RandomProductInfo() *tlv.ProductInfo {
	return &tlv.ProductInfo{
		HardwareID:      gofakeit.UUID(),
		FirmwareVersion: gofakeit.AppVersion(),
		SerialNumber:    fmt.Sprintf("SN%08d", gofakeit.Number(0, 99999999)),
		Manufacturer:    gofakeit.Company(),
		Address:         gofakeit.Address().Address,
	}
}
