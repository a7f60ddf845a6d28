package main

import (
	"github.com/spf13/cobra"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/config"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/runner"
)

var (
	validateFlagInput     string
	validateFlagCodec     string
	validateFlagPublicKey string
	validateFlagRunLog    string
	validateFlagSummary   bool
	validateFlagDetailed  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the authenticity of a signed byte stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		argsV := runner.ValidateArgs{
			InputFile:     validateFlagInput,
			Codec:         validateFlagCodec,
			PublicKeyPath: validateFlagPublicKey,
			RunLogPath:    validateFlagRunLog,
			SummaryOnly:   validateFlagSummary,
			Detailed:      validateFlagDetailed,
		}
		return runner.RunValidatePhase(cfg, argsV)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateFlagInput, "input", "", "input Annex-B file (default stdin)")
	validateCmd.Flags().StringVar(&validateFlagCodec, "codec", "", "codec: h264 or h265 (default from config)")
	validateCmd.Flags().StringVar(&validateFlagPublicKey, "public-key", "", "public key PEM path, when the stream does not carry one")
	validateCmd.Flags().StringVar(&validateFlagRunLog, "runlog", "", "NDJSON run log to append the summary to")
	validateCmd.Flags().BoolVar(&validateFlagSummary, "summary", false, "print summary only")
	validateCmd.Flags().BoolVar(&validateFlagDetailed, "detailed", false, "print one line per settled GOP")
}
