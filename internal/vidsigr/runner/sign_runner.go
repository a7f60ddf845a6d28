package runner

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/config"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/logger"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/nalu"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/sign"
)

type SignArgs struct {
	InputFile      string
	OutputFile     string
	PrivateKeyPath string
	Codec          string
	Level          string
	Recurrence     int
	Offset         int
}

// RunSignPhase reads an unsigned byte stream and writes it back with one
// Signed-Video SEI inserted per GOP.
func RunSignPhase(cfg *config.Config, args SignArgs) error {
	log := logger.L()
	start := time.Now()

	codec, err := ParseCodec(pick(args.Codec, cfg.Validation.Codec))
	if err != nil {
		return err
	}
	level, err := parseLevel(pick(args.Level, cfg.Signing.AuthenticityLevel))
	if err != nil {
		return err
	}
	keyPath := pick(args.PrivateKeyPath, cfg.Signing.PrivateKeyPath)
	if keyPath == "" {
		return fmt.Errorf("private key required for signing")
	}
	pemBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("read private key: %w", err)
	}
	recurrence := args.Recurrence
	if recurrence == 0 {
		recurrence = cfg.Signing.Recurrence
	}
	signer, err := sign.NewSigner(codec, pemBytes, sign.Options{
		Level:      level,
		Recurrence: recurrence,
		Offset:     args.Offset + cfg.Signing.RecurrenceOffset,
	})
	if err != nil {
		return err
	}

	var in *os.File
	if args.InputFile == "" {
		in = os.Stdin
	} else {
		in, err = os.Open(args.InputFile)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer in.Close()
	}
	var out *os.File
	if args.OutputFile == "" {
		out = os.Stdout
	} else {
		out, err = os.Create(args.OutputFile)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer out.Close()
	}
	w := bufio.NewWriter(out)
	defer w.Flush()

	units, seis := 0, 0
	sc := nalu.NewScanner(in)
	for sc.Scan() {
		unit := sc.Bytes()
		generated, err := signer.AddNALU(unit)
		if err != nil {
			return fmt.Errorf("sign unit %d: %w", units, err)
		}
		for _, sei := range generated {
			if _, err := w.Write(sei); err != nil {
				return fmt.Errorf("write sei: %w", err)
			}
			seis++
		}
		if _, err := w.Write(unit); err != nil {
			return fmt.Errorf("write unit: %w", err)
		}
		units++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	log.Infow("sign phase end", "nalus", units, "seis", seis, "duration", time.Since(start))
	fmt.Printf("signed %d NAL units, %d SEIs emitted\n", units, seis)
	return nil
}

func parseLevel(s string) (sign.Level, error) {
	switch s {
	case "", "gop":
		return sign.LevelGOP, nil
	case "frame":
		return sign.LevelFrame, nil
	default:
		return 0, fmt.Errorf("unsupported authenticity level: %s", s)
	}
}
