// Package axis carries the Axis Communications vendor blob through the wire
// format. The validator treats the attestation as opaque and echoes it in
// the report; only the signing side assembles it.
package axis

import (
	"fmt"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/codes"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/sign"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/tlv"
)

// SetAttestationReport attaches an attestation report and/or a certificate
// chain to a signing session. Either one may be given alone; setting a field
// that is already set is not supported. The record is applied all-or-nothing.
func SetAttestationReport(s *sign.Signer, attestation []byte, certificateChain string) error {
	if s == nil {
		return codes.ErrInvalidParameter
	}
	if attestation == nil && certificateChain == "" {
		return codes.ErrInvalidParameter
	}
	if attestation != nil && len(attestation) == 0 {
		return codes.ErrInvalidParameter
	}

	record := &tlv.VendorAxis{
		CertificateChain: certificateChain,
		Attestation:      append([]byte(nil), attestation...),
	}
	if err := s.SetVendor(record); err != nil {
		return fmt.Errorf("%w: %v", codes.ErrNotSupported, err)
	}
	return nil
}
