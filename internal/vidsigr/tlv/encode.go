package tlv

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// GeneralValue encodes the value part of a general record.
func GeneralValue(g *General) []byte {
	v := make([]byte, 0, 1+4+2+len(g.GopHash))
	v = append(v, generalVersion)
	v = binary.BigEndian.AppendUint32(v, g.GopCounter)
	v = binary.BigEndian.AppendUint16(v, g.NumNALUs)
	v = append(v, g.GopHash...)
	return v
}

// HashListValue concatenates the per-NALU digests.
func HashListValue(list [][]byte) []byte {
	var v []byte
	for _, h := range list {
		v = append(v, h...)
	}
	return v
}

// ProductInfoValue encodes the five identity strings, each with a one-byte
// length prefix. Strings longer than 255 bytes are rejected.
func ProductInfoValue(pi *ProductInfo) ([]byte, error) {
	var v []byte
	for _, s := range []string{pi.HardwareID, pi.FirmwareVersion, pi.SerialNumber, pi.Manufacturer, pi.Address} {
		if len(s) > 0xFF {
			return nil, fmt.Errorf("product info string too long: %d bytes", len(s))
		}
		v = append(v, byte(len(s)))
		v = append(v, s...)
	}
	return v, nil
}

// CryptoInfoValue encodes the algorithm names.
func CryptoInfoValue(ci *CryptoInfo) ([]byte, error) {
	if len(ci.HashAlgo) > 0xFF || len(ci.SigAlgo) > 0xFF {
		return nil, fmt.Errorf("crypto info string too long")
	}
	v := []byte{cryptoInfoVersion, byte(len(ci.HashAlgo))}
	v = append(v, ci.HashAlgo...)
	v = append(v, byte(len(ci.SigAlgo)))
	v = append(v, ci.SigAlgo...)
	return v, nil
}

// VendorAxisValue encodes a version-1 vendor record.
func VendorAxisValue(va *VendorAxis) ([]byte, error) {
	certLen := len(va.CertificateChain) + 1 // NUL terminator
	if certLen > 0xFF || len(va.Attestation) > 0xFF {
		return nil, fmt.Errorf("vendor record field too long")
	}
	v := []byte{1, byte(certLen)}
	v = append(v, va.CertificateChain...)
	v = append(v, 0x00)
	v = append(v, byte(len(va.Attestation)))
	v = append(v, va.Attestation...)
	return v, nil
}

// DocumentDigest is the digest the signature covers: the general value
// followed by the hash-list value (empty at GOP level). The TLV lengths and
// emulation prevention are deliberately outside the signed document, see the
// wire-format notes.
func DocumentDigest(g *General, hashList [][]byte) []byte {
	h := sha256.New()
	h.Write(GeneralValue(g))
	h.Write(HashListValue(hashList))
	return h.Sum(nil)
}

// Encode serializes all present records of p in tag order, except that the
// signature record always comes last, into a plain (unescaped) TLV byte
// sequence.
func Encode(p *Payload) ([]byte, error) {
	var out []byte
	appendRecord := func(tag Tag, value []byte) {
		out = append(out, byte(tag))
		out = binary.BigEndian.AppendUint16(out, uint16(len(value)))
		out = append(out, value...)
	}

	if p.General == nil {
		return nil, fmt.Errorf("encode: missing general record")
	}
	appendRecord(TagGeneral, GeneralValue(p.General))
	if p.ProductInfo != nil {
		v, err := ProductInfoValue(p.ProductInfo)
		if err != nil {
			return nil, err
		}
		appendRecord(TagProductInfo, v)
	}
	if p.ArbitraryData != nil {
		appendRecord(TagArbitraryData, p.ArbitraryData)
	}
	if p.PublicKey != nil {
		appendRecord(TagPublicKey, p.PublicKey)
	}
	if len(p.HashList) > 0 {
		appendRecord(TagHashList, HashListValue(p.HashList))
	}
	if p.CryptoInfo != nil {
		v, err := CryptoInfoValue(p.CryptoInfo)
		if err != nil {
			return nil, err
		}
		appendRecord(TagCryptoInfo, v)
	}
	if p.Vendor != nil {
		v, err := VendorAxisValue(p.Vendor)
		if err != nil {
			return nil, err
		}
		appendRecord(TagVendorAxisCommunications, v)
	}
	if p.Signature == nil {
		return nil, fmt.Errorf("encode: missing signature record")
	}
	appendRecord(TagSignature, p.Signature)
	return out, nil
}
