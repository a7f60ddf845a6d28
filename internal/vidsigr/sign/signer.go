// Package sign implements the producing side of the wire format: it watches
// a stream of NAL units and emits one Signed-Video SEI per GOP, to be
// inserted just before the unit that opened the new GOP.
package sign

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/hashing"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/keys"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/logger"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/nalu"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/tlv"
)

// Level selects GOP or per-frame authenticity.
type Level int

const (
	LevelGOP Level = iota
	LevelFrame
)

// DefaultMaxHashList caps the per-frame hash list; past it the signer falls
// back to GOP level for that GOP.
const DefaultMaxHashList = 60

// Options configures a Signer. The zero value signs at GOP level with a
// recurrence of 1 (recurrent tags in every SEI).
type Options struct {
	Level         Level
	Recurrence    int
	Offset        int
	MaxHashList   int
	ProductInfo   *tlv.ProductInfo
	ArbitraryData []byte
	Vendor        *tlv.VendorAxis
	CryptoInfo    *tlv.CryptoInfo
}

// Signer holds the signing session state for one stream.
type Signer struct {
	codec nalu.Codec
	pk    *ecdsa.PrivateKey
	pub   []byte
	opts  Options

	gopCounter uint32
	digests    [][]byte // per-NALU hashes of the open GOP, in arrival order
	overflow   bool
}

// NewSigner parses the private key and prepares a signing session.
func NewSigner(codec nalu.Codec, privateKeyPEM []byte, opts Options) (*Signer, error) {
	pk, err := keys.LoadPrivateKeyPEM(privateKeyPEM)
	if err != nil {
		return nil, err
	}
	pub, err := keys.MarshalPublicKeyDER(&pk.PublicKey)
	if err != nil {
		return nil, err
	}
	if opts.Recurrence <= 0 {
		opts.Recurrence = 1
	}
	if opts.MaxHashList <= 0 {
		opts.MaxHashList = DefaultMaxHashList
	}
	if opts.CryptoInfo == nil {
		opts.CryptoInfo = &tlv.CryptoInfo{HashAlgo: "sha-256", SigAlgo: "ecdsa-p256"}
	}
	return &Signer{codec: codec, pk: pk, pub: pub, opts: opts}, nil
}

// Codec returns the session codec.
func (s *Signer) Codec() nalu.Codec { return s.codec }

// SetVendor adds the fields given in v to the vendor record after
// construction. Used by the vendor package; returns an error, changing
// nothing, when a field given in v is already set.
func (s *Signer) SetVendor(v *tlv.VendorAxis) error {
	cur := s.opts.Vendor
	if cur == nil {
		cur = &tlv.VendorAxis{}
	}
	if (len(v.Attestation) > 0 && len(cur.Attestation) > 0) ||
		(v.CertificateChain != "" && cur.CertificateChain != "") {
		return fmt.Errorf("vendor record field already set")
	}
	merged := *cur
	if len(v.Attestation) > 0 {
		merged.Attestation = v.Attestation
	}
	if v.CertificateChain != "" {
		merged.CertificateChain = v.CertificateChain
	}
	s.opts.Vendor = &merged
	return nil
}

// AddNALU feeds one unit in stream order. When the unit opens a new GOP the
// SEI closing the previous GOP is returned; the caller inserts it before the
// unit in the output stream.
func (s *Signer) AddNALU(data []byte) ([][]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty NAL unit")
	}
	info := nalu.Parse(data, s.codec)
	if info.Validity != nalu.Valid {
		// Unparseable units pass through unsigned.
		return nil, nil
	}

	var seis [][]byte
	if info.IsFirstInGop {
		h := hashing.Sum(info.HashableData)
		sei, err := s.closeGop(h)
		if err != nil {
			return nil, err
		}
		seis = append(seis, sei)
		s.digests = append(s.digests[:0:0], h)
		s.overflow = false
		return seis, nil
	}

	// SEIs of any flavor stay outside the GOP hash.
	if info.IsHashable && info.Type != nalu.TypeSEI {
		s.digests = append(s.digests, hashing.Sum(info.HashableData))
		if len(s.digests) > s.opts.MaxHashList {
			s.overflow = true
		}
	}
	return nil, nil
}

// closeGop signs the GOP that the arriving unit (hash chained) terminates.
func (s *Signer) closeGop(chained []byte) ([]byte, error) {
	hashList := append(append([][]byte(nil), s.digests...), chained)
	general := &tlv.General{
		GopCounter: s.gopCounter,
		NumNALUs:   uint16(len(s.digests)),
		GopHash:    hashing.GopHash(hashList),
	}
	digest := tlv.DocumentDigest(general, s.frameHashList(hashList))
	sig, err := keys.Sign(s.pk, digest)
	if err != nil {
		return nil, fmt.Errorf("sign gop %d: %w", s.gopCounter, err)
	}

	payload := &tlv.Payload{
		General:   general,
		HashList:  s.frameHashList(hashList),
		Signature: sig,
	}
	if s.recurrentDue() {
		payload.PublicKey = s.pub
		payload.ProductInfo = s.opts.ProductInfo
		payload.ArbitraryData = s.opts.ArbitraryData
		payload.CryptoInfo = s.opts.CryptoInfo
		payload.Vendor = s.opts.Vendor
	}
	records, err := tlv.Encode(payload)
	if err != nil {
		return nil, err
	}
	logger.L().Debugw("sei generated", "gop", s.gopCounter, "nalus", general.NumNALUs,
		"recurrent", s.recurrentDue(), "frame_level", len(payload.HashList) > 0)
	s.gopCounter++
	return BuildSEI(s.codec, records), nil
}

// frameHashList returns the list to publish, or nil at GOP level or when the
// list overflowed and the signer fell back for this GOP.
func (s *Signer) frameHashList(hashList [][]byte) [][]byte {
	if s.opts.Level != LevelFrame || s.overflow {
		return nil
	}
	return hashList
}

func (s *Signer) recurrentDue() bool {
	return (int(s.gopCounter)+s.opts.Offset)%s.opts.Recurrence == 0
}
