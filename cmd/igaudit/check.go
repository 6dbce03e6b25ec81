package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"igaudit/internal/batch"
	"igaudit/pkg/detector"
	"igaudit/pkg/errors"
	"igaudit/pkg/logger"
	"igaudit/pkg/storage"
	"igaudit/pkg/ui/tui"
)

var (
	checkProvider   string
	checkFixtures   string
	checkCache      string
	checkAccount    string
	checkReportDir  string
	checkConcurrent int
	checkVerbose    bool
	checkTUI        bool
)

var checkCmd = &cobra.Command{
	Use:   "check <username> [username...]",
	Short: "Classify one or more accounts",
	Long: `Look up each account and print its verdict with an explanation.

Usernames may be given bare, as @handles or as profile URLs. Several accounts
are checked concurrently. The command exits non-zero when any account could
not be checked.`,
	Example: `  # Built-in mock data
  igaudit check ghost_account travel_blogger

  # Live lookups with a stored session, JSON output
  igaudit check --provider instagram --json natgeo

  # Fixture data, keeping a JSON report per account
  igaudit check --fixtures sim.yaml --report-dir reports sim_real_0004

  # Full-screen progress while a large batch runs
  igaudit check --tui --concurrent 8 $(cat accounts.txt)`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkProvider, "provider", "", "profile source (mock, instagram)")
	checkCmd.Flags().StringVar(&checkFixtures, "fixtures", "", "YAML fixture file for the mock provider")
	checkCmd.Flags().StringVar(&checkCache, "cache", "", "cache backend (none, memory, redis, memcached)")
	checkCmd.Flags().StringVar(&checkAccount, "account", "", "stored session to use with the instagram provider")
	checkCmd.Flags().StringVar(&checkReportDir, "report-dir", "", "write a JSON report per account into this directory")
	checkCmd.Flags().IntVar(&checkConcurrent, "concurrent", 3, "number of accounts checked at once")
	checkCmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false, "show counters and every signal")
	checkCmd.Flags().BoolVar(&checkTUI, "tui", false, "show a full-screen progress view while checking")
}

// checkOutput is one entry of --json output
type checkOutput struct {
	*detector.Report
	Username string           `json:"username"`
	Error    string           `json:"error,omitempty"`
	Type     errors.ErrorType `json:"type,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{
		"provider":      checkProvider,
		"fixtures":      checkFixtures,
		"cache-backend": checkCache,
	})
	if err != nil {
		return err
	}

	if checkTUI && jsonOutput {
		return errors.Validation("--tui cannot be combined with --json")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var terminal *tui.TUI
	if checkTUI {
		terminal = tui.NewTUI(args, checkConcurrent)
		// console logging would tear the alternate screen
		if cfg.Logging.File == "" {
			logCfg := cfg.Logging
			logCfg.JSON = true
			l, err := logger.NewWithWriter(&logCfg, terminal.LogWriter())
			if err != nil {
				return err
			}
			prev := logger.GetLogger()
			logger.SetLogger(l)
			defer logger.SetLogger(prev)
		}
	}

	a, err := newApp(cfg, checkAccount)
	if err != nil {
		return err
	}
	defer a.Close()

	var sink batch.ReportSink
	if checkReportDir != "" {
		store, err := storage.NewReportStore(checkReportDir)
		if err != nil {
			return err
		}
		sink = store
	}

	var results []batch.Result
	if terminal != nil {
		results = checkWithTUI(ctx, terminal, a, sink, args)
	} else {
		results = batch.CheckAll(ctx, a.detector, sink, args, checkConcurrent, logger.GetLogger())
	}
	summary := batch.Summarize(results)

	if jsonOutput {
		if err := writeJSON(results); err != nil {
			return err
		}
	} else {
		p := newPrinter(os.Stdout)
		for _, r := range results {
			p.Result(r, checkVerbose)
		}
		if len(results) > 1 {
			p.Summary(summary)
		}
		if store, ok := sink.(*storage.ReportStore); ok {
			p.Info("reports", store.Dir())
		}
	}

	if summary.Failures() {
		return errSilent
	}
	return nil
}

// checkWithTUI runs the batch behind the progress view. Quitting the view
// cancels the checks still running; their results come back as cancelled.
func checkWithTUI(ctx context.Context, terminal *tui.TUI, a *app, sink batch.ReportSink, usernames []string) []batch.Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	checkDone := make(chan []batch.Result, 1)
	go func() {
		checkDone <- batch.CheckAllFunc(ctx, a.detector, sink, usernames, checkConcurrent, logger.GetLogger(), terminal.Observe)
	}()

	tuiDone := make(chan error, 1)
	go func() {
		tuiDone <- terminal.Start()
	}()

	select {
	case results := <-checkDone:
		terminal.Stop()
		if err := <-tuiDone; err != nil {
			newPrinter(os.Stderr).Warning("TUI failed", err)
		}
		return results
	case err := <-tuiDone:
		if err != nil {
			newPrinter(os.Stderr).Warning("TUI failed, continuing without it", err)
		} else {
			cancel()
		}
		return <-checkDone
	}
}

func writeJSON(results []batch.Result) error {
	out := make([]checkOutput, len(results))
	for i, r := range results {
		o := checkOutput{Report: r.Report, Username: r.Job.Username}
		if r.Report != nil {
			o.Username = r.Report.Username
		}
		if r.Error != nil {
			o.Error = r.Error.Error()
			o.Type = errors.TypeOf(r.Error)
		}
		out[i] = o
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if len(out) == 1 {
		return enc.Encode(out[0])
	}
	return enc.Encode(out)
}
