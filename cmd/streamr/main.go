package main

import (
	"flag"
	"fmt"
	"os"

	streamr "github.com/vaibhaw-/VidSigR/internal/streamr"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/keys"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/runner"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/sign"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/vendors/axis"
)

func main() {
	fs := flag.NewFlagSet("streamr", flag.ExitOnError)
	output := fs.String("output", "signed.h264", "output stream file")
	pattern := fs.String("pattern", "IPPIPPIPPIPPI", "unit pattern (I i P p V S X)")
	codecName := fs.String("codec", "h264", "codec: h264 or h265")
	level := fs.String("level", "gop", "authenticity level: gop or frame")
	recurrence := fs.Int("recurrence", 1, "GOP period for recurrent tags")
	offset := fs.Int("offset", 0, "recurrence phase offset")
	privateKey := fs.String("private-key", "", "private key PEM (generated when omitted)")
	withVendor := fs.Bool("vendor", false, "attach a fake vendor attestation record")
	fs.Parse(os.Args[1:])

	if err := run(*output, *pattern, *codecName, *level, *recurrence, *offset, *privateKey, *withVendor); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(output, pattern, codecName, level string, recurrence, offset int, privateKey string, withVendor bool) error {
	codec, err := runner.ParseCodec(codecName)
	if err != nil {
		return err
	}

	var privPEM []byte
	if privateKey != "" {
		privPEM, err = os.ReadFile(privateKey)
		if err != nil {
			return fmt.Errorf("read private key: %w", err)
		}
	} else {
		var pubDER []byte
		privPEM, pubDER, err = keys.GenerateKeyPEM()
		if err != nil {
			return err
		}
		if err := os.WriteFile(output+".key.pem", privPEM, 0600); err != nil {
			return fmt.Errorf("write private key: %w", err)
		}
		if err := os.WriteFile(output+".pub.pem", keys.EncodePublicKeyPEM(pubDER), 0644); err != nil {
			return fmt.Errorf("write public key: %w", err)
		}
		fmt.Printf("generated keys: %s, %s\n", output+".key.pem", output+".pub.pem")
	}

	opts := sign.Options{
		Recurrence:  recurrence,
		Offset:      offset,
		ProductInfo: streamr.RandomProductInfo(),
	}
	if level == "frame" {
		opts.Level = sign.LevelFrame
	}
	signer, err := sign.NewSigner(codec, privPEM, opts)
	if err != nil {
		return err
	}
	if withVendor {
		attestation := []byte{0x01, 0x02}
		if err := axis.SetAttestationReport(signer, attestation, "-----BEGIN CERTIFICATE-----\nMIIB...fake...\n-----END CERTIFICATE-----"); err != nil {
			return err
		}
	}

	units, err := streamr.GenerateSigned(signer, pattern)
	if err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	total := 0
	for _, u := range units {
		n, err := f.Write(u)
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		total += n
	}
	fmt.Printf("wrote %d NAL units (%d bytes) to %s\n", len(units), total, output)
	return nil
}
