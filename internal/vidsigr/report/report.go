// Package report assembles the authenticity surface returned to the caller
// after each settled GOP.
package report

import (
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/tlv"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/validation"
)

// ThisVersion is the validator-side version string placed in every report.
const ThisVersion = "0.1"

// LatestValidation describes the most recently settled GOP window.
type LatestValidation struct {
	Authenticity        validation.Verdict `json:"authenticity"`
	PublicKeyHasChanged bool               `json:"public_key_has_changed"`

	NumberOfExpectedPictureNALUs int `json:"number_of_expected_picture_nalus"`
	NumberOfReceivedPictureNALUs int `json:"number_of_received_picture_nalus"`
	NumberOfPendingPictureNALUs  int `json:"number_of_pending_picture_nalus"`
	MissedNALUs                  int `json:"missed_nalus"`

	ListOfMissingNALUs []int  `json:"list_of_missing_nalus,omitempty"`
	ListOfInvalidNALUs []int  `json:"list_of_invalid_nalus,omitempty"`
	ValidationStr      string `json:"validation_str"`

	GopCounter uint32 `json:"gop_counter"`
}

// AccumulatedValidation carries monotone counters over the session. Missed
// counts sum as reported, so signer-side resets keep their negative sign.
type AccumulatedValidation struct {
	ValidGops                int  `json:"valid_gops"`
	ValidGopsWithMissingInfo int  `json:"valid_gops_with_missing_info"`
	InvalidGops              int  `json:"invalid_gops"`
	UnsignedGops             int  `json:"unsigned_gops"`
	GopsWithSignatureOnly    int  `json:"gops_with_signature_only"`
	PendingNALUs             int  `json:"pending_nalus"`
	MissedNALUs              int  `json:"missed_nalus"`
	PublicKeyHasChanged      bool `json:"public_key_has_changed"`
}

// Authenticity is the boundary value handed to the caller; ownership
// transfers with it.
type Authenticity struct {
	LatestValidation      LatestValidation      `json:"latest_validation"`
	AccumulatedValidation AccumulatedValidation `json:"accumulated_validation"`

	ProductInfo          *tlv.ProductInfo `json:"product_info,omitempty"`
	VendorInfo           *tlv.VendorAxis  `json:"vendor_info,omitempty"`
	VersionOnSigningSide string           `json:"version_on_signing_side"`
	ThisVersion          string           `json:"this_version"`
}

// Builder folds validation outcomes into reports and keeps the session's
// accumulated counters. Reset on the session side leaves it untouched.
type Builder struct {
	acc AccumulatedValidation
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Accumulated returns a copy of the running counters.
func (b *Builder) Accumulated() AccumulatedValidation {
	return b.acc
}

// Build merges the outcomes settled by one add call into a single report and
// folds them into the accumulated counters. Returns nil when nothing
// settled.
func (b *Builder) Build(outs []*validation.Outcome) *Authenticity {
	if len(outs) == 0 {
		return nil
	}

	latest := LatestValidation{Authenticity: outs[0].Verdict}
	offset := 0
	for _, out := range outs {
		if worseThan(out.Verdict, latest.Authenticity) {
			latest.Authenticity = out.Verdict
		}
		latest.PublicKeyHasChanged = latest.PublicKeyHasChanged || out.PublicKeyHasChanged
		latest.NumberOfExpectedPictureNALUs += out.Expected
		latest.NumberOfReceivedPictureNALUs += out.Received
		latest.MissedNALUs += out.Missed
		for _, p := range out.MissingPositions {
			latest.ListOfMissingNALUs = append(latest.ListOfMissingNALUs, offset+p)
		}
		for _, p := range out.InvalidPositions {
			latest.ListOfInvalidNALUs = append(latest.ListOfInvalidNALUs, offset+p)
		}
		latest.ValidationStr += out.ValidationStr
		latest.NumberOfPendingPictureNALUs = out.Pending
		latest.GopCounter = out.GopCounter
		offset += len(out.ValidationStr)

		b.accumulate(out)
	}

	rep := &Authenticity{
		LatestValidation:      latest,
		AccumulatedValidation: b.acc,
		VersionOnSigningSide:  "1",
		ThisVersion:           ThisVersion,
	}
	if pi := outs[len(outs)-1].ProductInfo; pi != nil {
		cp := *pi
		rep.ProductInfo = &cp
	}
	if v := outs[len(outs)-1].Vendor; v != nil {
		cp := *v
		rep.VendorInfo = &cp
	}
	return rep
}

func (b *Builder) accumulate(out *validation.Outcome) {
	switch out.Verdict {
	case validation.VerdictOK:
		b.acc.ValidGops++
	case validation.VerdictOKWithMissingInfo:
		b.acc.ValidGopsWithMissingInfo++
	case validation.VerdictNotOK:
		b.acc.InvalidGops++
	case validation.VerdictNotSigned:
		b.acc.UnsignedGops++
	case validation.VerdictSignaturePresent:
		b.acc.GopsWithSignatureOnly++
	}
	b.acc.PendingNALUs += out.Pending
	b.acc.MissedNALUs += out.Missed
	b.acc.PublicKeyHasChanged = b.acc.PublicKeyHasChanged || out.PublicKeyHasChanged
}

// worseThan orders verdicts by severity for merged reports.
func worseThan(a, bv validation.Verdict) bool {
	return rank(a) > rank(bv)
}

func rank(v validation.Verdict) int {
	switch v {
	case validation.VerdictOK:
		return 0
	case validation.VerdictOKWithMissingInfo:
		return 1
	case validation.VerdictSignaturePresent:
		return 2
	case validation.VerdictNotSigned:
		return 3
	case validation.VerdictNotOK:
		return 4
	}
	return 5
}
