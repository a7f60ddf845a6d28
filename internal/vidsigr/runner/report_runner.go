package runner

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/araddon/dateparse"
	"gopkg.in/yaml.v3"

	"github.com/vaibhaw-/VidSigR/internal/vidsigr/config"
	"github.com/vaibhaw-/VidSigR/internal/vidsigr/logger"
)

type ReportArgs struct {
	RunLogPath string
	Since      string
	Until      string
	Status     string
	Format     string
}

// RecordFilter decides whether a run-log record is part of the report.
// Filters compose with AND logic and treat missing fields as non-match.
type RecordFilter func(ValidateSummary) bool

// ReportStats summarizes the selected run-log records.
type ReportStats struct {
	Runs        int            `yaml:"runs" json:"runs"`
	ByStatus    map[string]int `yaml:"by_status" json:"by_status"`
	TotalGops   int            `yaml:"total_gops" json:"total_gops"`
	InvalidGops int            `yaml:"invalid_gops" json:"invalid_gops"`
	First       string         `yaml:"first_run,omitempty" json:"first_run,omitempty"`
	Last        string         `yaml:"last_run,omitempty" json:"last_run,omitempty"`
}

// RunReportPhase reads the NDJSON run log, applies the time and status
// filters and prints a summary in text or YAML form.
func RunReportPhase(cfg *config.Config, args ReportArgs) error {
	log := logger.L()
	path := pick(args.RunLogPath, cfg.Logging.RunLog)
	if path == "" {
		return fmt.Errorf("run log path required")
	}

	filters, err := buildFilters(args)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	stats := ReportStats{ByStatus: map[string]int{}}
	var selected []ValidateSummary

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var rec ValidateSummary
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			log.Warnw("skipping malformed run log line", "err", err.Error())
			continue
		}
		if !matchesAll(rec, filters) {
			continue
		}
		selected = append(selected, rec)
		stats.Runs++
		stats.ByStatus[rec.Status]++
		stats.TotalGops += rec.ValidGops + rec.ValidWithMiss + rec.InvalidGops + rec.UnsignedGops
		stats.InvalidGops += rec.InvalidGops
		if stats.First == "" || rec.StartTime < stats.First {
			stats.First = rec.StartTime
		}
		if rec.StartTime > stats.Last {
			stats.Last = rec.StartTime
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan run log: %w", err)
	}

	switch args.Format {
	case "yaml":
		out, err := yaml.Marshal(struct {
			Stats ReportStats       `yaml:"stats"`
			Runs  []ValidateSummary `yaml:"runs"`
		}{stats, selected})
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		fmt.Print(string(out))
	case "", "text":
		fmt.Printf("runs: %d (gops=%d invalid=%d)\n", stats.Runs, stats.TotalGops, stats.InvalidGops)
		for status, n := range stats.ByStatus {
			fmt.Printf("  %-18s %d\n", status, n)
		}
		for _, rec := range selected {
			fmt.Printf("%s  %-18s %s  valid=%d invalid=%d unsigned=%d\n",
				rec.StartTime, rec.Status, rec.InputFile, rec.ValidGops, rec.InvalidGops, rec.UnsignedGops)
		}
	default:
		return fmt.Errorf("unsupported format: %s", args.Format)
	}
	return nil
}

func buildFilters(args ReportArgs) ([]RecordFilter, error) {
	var filters []RecordFilter
	if args.Status != "" {
		status := args.Status
		filters = append(filters, func(r ValidateSummary) bool { return r.Status == status })
	}
	if args.Since != "" {
		t, err := dateparse.ParseAny(args.Since)
		if err != nil {
			return nil, fmt.Errorf("parse --since: %w", err)
		}
		filters = append(filters, afterFilter(t))
	}
	if args.Until != "" {
		t, err := dateparse.ParseAny(args.Until)
		if err != nil {
			return nil, fmt.Errorf("parse --until: %w", err)
		}
		filters = append(filters, beforeFilter(t))
	}
	return filters, nil
}

func afterFilter(t time.Time) RecordFilter {
	return func(r ValidateSummary) bool {
		ts, err := time.Parse(time.RFC3339, r.StartTime)
		return err == nil && !ts.Before(t)
	}
}

func beforeFilter(t time.Time) RecordFilter {
	return func(r ValidateSummary) bool {
		ts, err := time.Parse(time.RFC3339, r.StartTime)
		return err == nil && !ts.After(t)
	}
}

func matchesAll(r ValidateSummary, filters []RecordFilter) bool {
	for _, f := range filters {
		if !f(r) {
			return false
		}
	}
	return true
}
