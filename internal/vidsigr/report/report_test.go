package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/tlv"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/validation"
)

func TestBuild_NoOutcomes(t *testing.T) {
	b := NewBuilder()
	assert.Nil(t, b.Build(nil))
	assert.Equal(t, AccumulatedValidation{}, b.Accumulated())
}

func TestBuild_SingleOutcome(t *testing.T) {
	b := NewBuilder()
	rep := b.Build([]*validation.Outcome{{
		Verdict:       validation.VerdictOK,
		Expected:      3,
		Received:      3,
		Pending:       1,
		ValidationStr: "....P",
		GopCounter:    7,
		ProductInfo:   &tlv.ProductInfo{SerialNumber: "SN1"},
	}})
	assert.Equal(t, validation.VerdictOK, rep.LatestValidation.Authenticity)
	assert.Equal(t, 3, rep.LatestValidation.NumberOfExpectedPictureNALUs)
	assert.Equal(t, 1, rep.LatestValidation.NumberOfPendingPictureNALUs)
	assert.Equal(t, "....P", rep.LatestValidation.ValidationStr)
	assert.Equal(t, "SN1", rep.ProductInfo.SerialNumber)
	assert.Equal(t, 1, b.Accumulated().ValidGops)
	assert.Equal(t, ThisVersion, rep.ThisVersion)
}

func TestBuild_MergesOutcomes(t *testing.T) {
	b := NewBuilder()
	rep := b.Build([]*validation.Outcome{
		{
			Verdict:       validation.VerdictOK,
			Expected:      2,
			Received:      2,
			Pending:       3,
			ValidationStr: "..P",
		},
		{
			Verdict:          validation.VerdictNotOK,
			Expected:         2,
			Received:         3,
			Missed:           -1,
			Pending:          1,
			ValidationStr:    "NNN.P",
			InvalidPositions: []int{0, 1, 2},
		},
	})
	// Worst verdict wins; counters sum; positions shift by the merged trail.
	assert.Equal(t, validation.VerdictNotOK, rep.LatestValidation.Authenticity)
	assert.Equal(t, 4, rep.LatestValidation.NumberOfExpectedPictureNALUs)
	assert.Equal(t, 5, rep.LatestValidation.NumberOfReceivedPictureNALUs)
	assert.Equal(t, -1, rep.LatestValidation.MissedNALUs)
	assert.Equal(t, "..PNNN.P", rep.LatestValidation.ValidationStr)
	assert.Equal(t, []int{3, 4, 5}, rep.LatestValidation.ListOfInvalidNALUs)
	assert.Equal(t, 1, rep.LatestValidation.NumberOfPendingPictureNALUs)

	acc := b.Accumulated()
	assert.Equal(t, 1, acc.ValidGops)
	assert.Equal(t, 1, acc.InvalidGops)
	assert.Equal(t, 4, acc.PendingNALUs)
	assert.Equal(t, -1, acc.MissedNALUs)
}

func TestAccumulate_KeyChangeSticks(t *testing.T) {
	b := NewBuilder()
	b.Build([]*validation.Outcome{{Verdict: validation.VerdictNotOK, PublicKeyHasChanged: true}})
	b.Build([]*validation.Outcome{{Verdict: validation.VerdictOK}})
	assert.True(t, b.Accumulated().PublicKeyHasChanged)
}

func TestAccumulate_VerdictBuckets(t *testing.T) {
	b := NewBuilder()
	for _, v := range []validation.Verdict{
		validation.VerdictOK,
		validation.VerdictOKWithMissingInfo,
		validation.VerdictNotOK,
		validation.VerdictNotSigned,
		validation.VerdictSignaturePresent,
	} {
		b.Build([]*validation.Outcome{{Verdict: v}})
	}
	acc := b.Accumulated()
	assert.Equal(t, 1, acc.ValidGops)
	assert.Equal(t, 1, acc.ValidGopsWithMissingInfo)
	assert.Equal(t, 1, acc.InvalidGops)
	assert.Equal(t, 1, acc.UnsignedGops)
	assert.Equal(t, 1, acc.GopsWithSignatureOnly)
}
