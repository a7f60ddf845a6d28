package runner

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/config"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/keys"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/logger"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/nalu"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/report"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/session"
)

type ValidateArgs struct {
	InputFile     string
	Codec         string
	PublicKeyPath string
	RunLogPath    string
	SummaryOnly   bool
	Detailed      bool
}

// ValidateSummary is appended to the run log to record validation runs.
type ValidateSummary struct {
	RunID     string `json:"run_id"`
	Phase     string `json:"phase"`
	InputFile string `json:"input_file,omitempty"`
	Codec     string `json:"codec"`

	NALUsProcessed int `json:"nalus_processed"`
	ValidGops      int `json:"valid_gops"`
	ValidWithMiss  int `json:"valid_gops_with_missing_info"`
	InvalidGops    int `json:"invalid_gops"`
	UnsignedGops   int `json:"unsigned_gops"`
	SignatureOnly  int `json:"gops_with_signature_only"`
	PendingNALUs   int `json:"pending_nalus"`
	MissedNALUs    int `json:"missed_nalus"`

	PublicKeyHasChanged bool   `json:"public_key_has_changed"`
	Status              string `json:"status"`
	StartTime           string `json:"start_time"`
	EndTime             string `json:"end_time"`
}

// RunValidatePhase drives a validation session over a byte-stream file and
// reports per-GOP verdicts plus a final summary.
func RunValidatePhase(cfg *config.Config, args ValidateArgs) error {
	log := logger.L()
	start := time.Now().UTC()

	codec, err := ParseCodec(pick(args.Codec, cfg.Validation.Codec))
	if err != nil {
		return err
	}
	log.Infow("validate phase start", "input", args.InputFile, "codec", codec.String())

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

	opts := session.Options{MaxPendingGops: cfg.Validation.MaxPendingGops}
	keyPath := pick(args.PublicKeyPath, cfg.Validation.PublicKeyPath)
	if keyPath != "" {
		pemBytes, err := os.ReadFile(keyPath)
		if err != nil {
			return fmt.Errorf("read public key: %w", err)
		}
		opts.PublicKeyDER, err = keys.LoadPublicKeyPEM(pemBytes)
		if err != nil {
			return fmt.Errorf("load public key: %w", err)
		}
	}
	ses, err := session.New(codec, opts)
	if err != nil {
		return err
	}

	summary := ValidateSummary{
		RunID:     uuid.NewString(),
		Phase:     "validate",
		InputFile: args.InputFile,
		Codec:     codec.String(),
		StartTime: start.Format(time.RFC3339),
	}

	sc := nalu.NewScanner(in)
	for sc.Scan() {
		unit := sc.Bytes()
		rep, err := ses.AddNALU(unit)
		summary.NALUsProcessed++
		if err != nil {
			log.Warnw("add nalu", "index", summary.NALUsProcessed, "err", err.Error())
		}
		if rep == nil {
			continue
		}
		if args.Detailed {
			fmt.Printf("gop %d: %s  %s  (expected=%d received=%d missed=%d)\n",
				rep.LatestValidation.GopCounter,
				rep.LatestValidation.Authenticity.String(),
				rep.LatestValidation.ValidationStr,
				rep.LatestValidation.NumberOfExpectedPictureNALUs,
				rep.LatestValidation.NumberOfReceivedPictureNALUs,
				rep.LatestValidation.MissedNALUs)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	acc := ses.Accumulated()
	summary.ValidGops = acc.ValidGops
	summary.ValidWithMiss = acc.ValidGopsWithMissingInfo
	summary.InvalidGops = acc.InvalidGops
	summary.UnsignedGops = acc.UnsignedGops
	summary.SignatureOnly = acc.GopsWithSignatureOnly
	summary.PendingNALUs = acc.PendingNALUs
	summary.MissedNALUs = acc.MissedNALUs
	summary.PublicKeyHasChanged = acc.PublicKeyHasChanged
	summary.Status = overallStatus(acc)
	summary.EndTime = time.Now().UTC().Format(time.RFC3339)

	runLog := pick(args.RunLogPath, cfg.Logging.RunLog)
	if runLog != "" {
		if err := appendRunLog(runLog, summary); err != nil {
			log.Warnw("failed to write run log summary", "err", err.Error())
		}
	}

	if args.SummaryOnly {
		fmt.Printf("validate: %s (gops=%d valid=%d invalid=%d unsigned=%d)\n",
			summary.Status, acc.ValidGops+acc.ValidGopsWithMissingInfo+acc.InvalidGops+acc.UnsignedGops,
			acc.ValidGops, acc.InvalidGops, acc.UnsignedGops)
	} else {
		fmt.Printf("validate: %s\n", summary.Status)
		fmt.Printf("  valid=%d valid_with_missing_info=%d invalid=%d unsigned=%d signature_only=%d\n",
			acc.ValidGops, acc.ValidGopsWithMissingInfo, acc.InvalidGops, acc.UnsignedGops, acc.GopsWithSignatureOnly)
		fmt.Printf("  pending=%d missed=%d public_key_changed=%v\n",
			acc.PendingNALUs, acc.MissedNALUs, acc.PublicKeyHasChanged)
	}
	log.Infow("validate phase end", "status", summary.Status, "nalus", summary.NALUsProcessed)
	return nil
}

func overallStatus(acc report.AccumulatedValidation) string {
	switch {
	case acc.InvalidGops > 0:
		return "fail"
	case acc.UnsignedGops > 0:
		return "unsigned"
	case acc.ValidGops == 0 && acc.ValidGopsWithMissingInfo == 0 && acc.GopsWithSignatureOnly > 0:
		return "signature_present"
	default:
		return "pass"
	}
}

// ParseCodec maps a config/flag string onto the codec tag.
func ParseCodec(s string) (nalu.Codec, error) {
	switch s {
	case "", "h264", "avc":
		return nalu.H264, nil
	case "h265", "hevc":
		return nalu.H265, nil
	default:
		return 0, fmt.Errorf("unsupported codec: %s", s)
	}
}

func pick(flag, conf string) string {
	if flag != "" {
		return flag
	}
	return conf
}

func appendRunLog(path string, v any) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return w.Flush()
}
