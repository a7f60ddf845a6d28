package main

import (
	"github.com/spf13/cobra"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/config"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/runner"
)

var (
	signFlagInput      string
	signFlagOutput     string
	signFlagPrivateKey string
	signFlagCodec      string
	signFlagLevel      string
	signFlagRecurrence int
	signFlagOffset     int
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a byte stream with per-GOP SEIs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		argsS := runner.SignArgs{
			InputFile:      signFlagInput,
			OutputFile:     signFlagOutput,
			PrivateKeyPath: signFlagPrivateKey,
			Codec:          signFlagCodec,
			Level:          signFlagLevel,
			Recurrence:     signFlagRecurrence,
			Offset:         signFlagOffset,
		}
		return runner.RunSignPhase(cfg, argsS)
	},
}

func init() {
	signCmd.Flags().StringVar(&signFlagInput, "input", "", "input Annex-B file (default stdin)")
	signCmd.Flags().StringVar(&signFlagOutput, "output", "", "output file (default stdout)")
	signCmd.Flags().StringVar(&signFlagPrivateKey, "private-key", "", "private key PEM path")
	signCmd.Flags().StringVar(&signFlagCodec, "codec", "", "codec: h264 or h265 (default from config)")
	signCmd.Flags().StringVar(&signFlagLevel, "level", "", "authenticity level: gop or frame")
	signCmd.Flags().IntVar(&signFlagRecurrence, "recurrence", 0, "GOP period for recurrent tags (default from config)")
	signCmd.Flags().IntVar(&signFlagOffset, "offset", 0, "recurrence phase offset")
}
