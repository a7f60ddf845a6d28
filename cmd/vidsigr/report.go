package main

import (
	"github.com/spf13/cobra"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/config"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/runner"
)

var (
	reportFlagRunLog string
	reportFlagSince  string
	reportFlagUntil  string
	reportFlagStatus string
	reportFlagFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize past validation runs from the run log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		argsR := runner.ReportArgs{
			RunLogPath: reportFlagRunLog,
			Since:      reportFlagSince,
			Until:      reportFlagUntil,
			Status:     reportFlagStatus,
			Format:     reportFlagFormat,
		}
		return runner.RunReportPhase(cfg, argsR)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFlagRunLog, "runlog", "", "NDJSON run log to read (default from config)")
	reportCmd.Flags().StringVar(&reportFlagSince, "since", "", "include runs starting at or after this time (flexible format)")
	reportCmd.Flags().StringVar(&reportFlagUntil, "until", "", "include runs starting at or before this time")
	reportCmd.Flags().StringVar(&reportFlagStatus, "status", "", "filter by run status (pass, fail, unsigned, signature_present)")
	reportCmd.Flags().StringVar(&reportFlagFormat, "format", "text", "output format: text or yaml")
}
