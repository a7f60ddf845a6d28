// Package tlv encodes and decodes the tag-length-value records carried in a
// Signed-Video SEI payload.
package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/hashing"
)

// Tag identifies one TLV record.
type Tag byte

const (
	TagGeneral                  Tag = 0x01
	TagProductInfo              Tag = 0x02
	TagArbitraryData            Tag = 0x03
	TagPublicKey                Tag = 0x04
	TagHashList                 Tag = 0x05
	TagSignature                Tag = 0x06
	TagCryptoInfo               Tag = 0x07
	TagVendorAxisCommunications Tag = 0x08
)

const (
	generalVersion    = 1
	cryptoInfoVersion = 1

	headerSize = 3 // tag(1) + length(2, BE)
)

var (
	ErrDecoding            = errors.New("tlv: decoding error")
	ErrIncompatibleVersion = errors.New("tlv: incompatible version")
)

// General is the always-present GOP record.
type General struct {
	GopCounter uint32
	NumNALUs   uint16
	GopHash    []byte
}

// ProductInfo mirrors the signer's device identity strings.
type ProductInfo struct {
	HardwareID      string
	FirmwareVersion string
	SerialNumber    string
	Manufacturer    string
	Address         string
}

// CryptoInfo names the algorithms the signature was produced with. The
// validator never interprets these beyond passing them along; the Verifier
// does.
type CryptoInfo struct {
	HashAlgo string
	SigAlgo  string
}

// VendorAxis is the opaque vendor blob, echoed to the report.
type VendorAxis struct {
	CertificateChain string
	Attestation      []byte
}

// Payload is one decoded SEI payload.
type Payload struct {
	General       *General
	ProductInfo   *ProductInfo
	CryptoInfo    *CryptoInfo
	Vendor        *VendorAxis
	PublicKey     []byte
	HashList      [][]byte
	Signature     []byte
	ArbitraryData []byte
}

// HasRecurrent reports whether any of the recurrent records is present.
func (p *Payload) HasRecurrent() bool {
	return p.PublicKey != nil || p.ProductInfo != nil || p.CryptoInfo != nil ||
		p.Vendor != nil || p.ArbitraryData != nil
}

// Decode parses a stripped (no emulation bytes) TLV byte sequence. Unknown
// tags are skipped; overruns and trailing garbage are decoding errors.
func Decode(data []byte) (*Payload, error) {
	p := &Payload{}
	i := 0
	for i < len(data) {
		if i+headerSize > len(data) {
			return nil, fmt.Errorf("%w: truncated header at %d", ErrDecoding, i)
		}
		tag := Tag(data[i])
		length := int(binary.BigEndian.Uint16(data[i+1 : i+3]))
		i += headerSize
		if i+length > len(data) {
			return nil, fmt.Errorf("%w: tag 0x%02x overruns payload", ErrDecoding, byte(tag))
		}
		value := data[i : i+length]
		i += length

		var err error
		switch tag {
		case TagGeneral:
			p.General, err = decodeGeneral(value)
		case TagProductInfo:
			p.ProductInfo, err = decodeProductInfo(value)
		case TagArbitraryData:
			p.ArbitraryData = append([]byte(nil), value...)
		case TagPublicKey:
			p.PublicKey = append([]byte(nil), value...)
		case TagHashList:
			p.HashList, err = decodeHashList(value)
		case TagSignature:
			p.Signature = append([]byte(nil), value...)
		case TagCryptoInfo:
			p.CryptoInfo, err = decodeCryptoInfo(value)
		case TagVendorAxisCommunications:
			p.Vendor, err = DecodeVendorAxis(value)
		default:
			// Unknown tags are tolerated for forward compatibility.
		}
		if err != nil {
			return nil, err
		}
	}
	if p.General == nil {
		return nil, fmt.Errorf("%w: missing general record", ErrDecoding)
	}
	if p.Signature == nil {
		return nil, fmt.Errorf("%w: missing signature record", ErrDecoding)
	}
	return p, nil
}

func decodeGeneral(value []byte) (*General, error) {
	if len(value) < 1 {
		return nil, fmt.Errorf("%w: empty general record", ErrDecoding)
	}
	if value[0] > generalVersion {
		return nil, fmt.Errorf("%w: general v%d", ErrIncompatibleVersion, value[0])
	}
	if len(value) != 1+4+2+hashing.DigestSize {
		return nil, fmt.Errorf("%w: general record size %d", ErrDecoding, len(value))
	}
	return &General{
		GopCounter: binary.BigEndian.Uint32(value[1:5]),
		NumNALUs:   binary.BigEndian.Uint16(value[5:7]),
		GopHash:    append([]byte(nil), value[7:]...),
	}, nil
}

func decodeHashList(value []byte) ([][]byte, error) {
	if len(value)%hashing.DigestSize != 0 {
		return nil, fmt.Errorf("%w: hash list size %d", ErrDecoding, len(value))
	}
	list := make([][]byte, 0, len(value)/hashing.DigestSize)
	for i := 0; i < len(value); i += hashing.DigestSize {
		list = append(list, append([]byte(nil), value[i:i+hashing.DigestSize]...))
	}
	return list, nil
}

func decodeProductInfo(value []byte) (*ProductInfo, error) {
	fields := make([]string, 0, 5)
	i := 0
	for f := 0; f < 5; f++ {
		if i >= len(value) {
			return nil, fmt.Errorf("%w: product info field %d", ErrDecoding, f)
		}
		n := int(value[i])
		i++
		if i+n > len(value) {
			return nil, fmt.Errorf("%w: product info field %d overrun", ErrDecoding, f)
		}
		fields = append(fields, string(value[i:i+n]))
		i += n
	}
	if i != len(value) {
		return nil, fmt.Errorf("%w: product info trailing bytes", ErrDecoding)
	}
	return &ProductInfo{
		HardwareID:      fields[0],
		FirmwareVersion: fields[1],
		SerialNumber:    fields[2],
		Manufacturer:    fields[3],
		Address:         fields[4],
	}, nil
}

func decodeCryptoInfo(value []byte) (*CryptoInfo, error) {
	if len(value) < 1 {
		return nil, fmt.Errorf("%w: empty crypto info", ErrDecoding)
	}
	if value[0] > cryptoInfoVersion {
		return nil, fmt.Errorf("%w: crypto info v%d", ErrIncompatibleVersion, value[0])
	}
	i := 1
	read := func() (string, error) {
		if i >= len(value) {
			return "", fmt.Errorf("%w: crypto info truncated", ErrDecoding)
		}
		n := int(value[i])
		i++
		if i+n > len(value) {
			return "", fmt.Errorf("%w: crypto info overrun", ErrDecoding)
		}
		s := string(value[i : i+n])
		i += n
		return s, nil
	}
	hashAlgo, err := read()
	if err != nil {
		return nil, err
	}
	sigAlgo, err := read()
	if err != nil {
		return nil, err
	}
	if i != len(value) {
		return nil, fmt.Errorf("%w: crypto info trailing bytes", ErrDecoding)
	}
	return &CryptoInfo{HashAlgo: hashAlgo, SigAlgo: sigAlgo}, nil
}

// DecodeVendorAxis parses a version-1 vendor record.
func DecodeVendorAxis(value []byte) (*VendorAxis, error) {
	if len(value) < 2 {
		return nil, fmt.Errorf("%w: vendor record size %d", ErrDecoding, len(value))
	}
	if value[0] == 0 {
		return nil, fmt.Errorf("%w: vendor v0", ErrIncompatibleVersion)
	}
	certLen := int(value[1])
	i := 2
	if i+certLen > len(value) {
		return nil, fmt.Errorf("%w: vendor certificate chain overrun", ErrDecoding)
	}
	cert := value[i : i+certLen]
	// The chain is NUL-terminated ASCII.
	if certLen > 0 && cert[certLen-1] == 0 {
		cert = cert[:certLen-1]
	}
	i += certLen
	if i >= len(value) {
		return nil, fmt.Errorf("%w: vendor attestation size missing", ErrDecoding)
	}
	attLen := int(value[i])
	i++
	if i+attLen != len(value) {
		return nil, fmt.Errorf("%w: vendor attestation size mismatch", ErrDecoding)
	}
	return &VendorAxis{
		CertificateChain: string(cert),
		Attestation:      append([]byte(nil), value[i:i+attLen]...),
	}, nil
}
