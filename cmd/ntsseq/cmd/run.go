package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ntsseq/sequentializer/internal/ir"
	"github.com/ntsseq/sequentializer/internal/nts"
	"github.com/ntsseq/sequentializer/internal/printer"
	"github.com/ntsseq/sequentializer/internal/runstore"
	"github.com/ntsseq/sequentializer/internal/seq"
	"github.com/ntsseq/sequentializer/internal/telemetry"
)

var (
	outputPath    string
	inlinerOutput string
	threadPool    int
	noPOR         bool
)

var runCmd = &cobra.Command{
	Use:   "run <input-path>",
	Short: "Load, inline, and sequentialize an NTS program",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the sequentialized output NTS to path; default stdout")
	runCmd.Flags().StringVar(&inlinerOutput, "inliner-output", "", "write the post-inlining intermediate NTS (diagnostic)")
	runCmd.Flags().IntVar(&threadPool, "threads", 0, "thread-pool size hint passed to the IR provider")
	runCmd.Flags().BoolVar(&noPOR, "no-por", false, "disable partial-order reduction; use the simple visitor")
}

// Loader and Inliner are package variables so tests can substitute a
// MockLoader/IdentityInliner without spawning a real IR provider process.
var (
	Loader  ir.Loader  = ir.LoaderFunc(defaultLoader)
	Inliner ir.Inliner = ir.RequireFlat(ir.IdentityInliner)
)

func defaultLoader(ctx context.Context, path string, opts ir.LoadOptions) (*nts.Nts, error) {
	return nil, fmt.Errorf("%w: no IR provider wired; substitute cmd.Loader before calling run", ErrUsage)
}

func runRun(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := context.Background()

	loader, err := ir.WithRetry(Loader, &ir.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.Retry.MaxDelayMs) * time.Millisecond,
		Retryable:   func(error) bool { return true },
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	loaded, err := loader.Load(ctx, path, ir.LoadOptions{ThreadPoolSize: threadPool})
	if err != nil {
		return err // *ir.ConversionError propagates untouched for main()'s exit-code mapping.
	}
	log.Printf("loaded %s: %d globals, %d templates", path, len(loaded.Globals), len(loaded.Templates))

	flat, err := Inliner.Inline(loaded)
	if err != nil {
		return err
	}
	if inlinerOutput != "" {
		if err := writeNts(inlinerOutput, flat); err != nil {
			return fmt.Errorf("writing inliner output: %w", err)
		}
	}

	mode := seq.ModePOR
	if noPOR {
		mode = seq.ModeSimple
	}

	var store runstore.Store
	if cfg.StoreDSN != "" {
		s, err := openStore(cfg.StoreDSN)
		if err != nil {
			return fmt.Errorf("opening run store: %w", err)
		}
		defer s.Close()
		store = s
	}

	opts := []seq.Option{seq.WithRunID(runID(path)), seq.WithTelemetry(log.Bridge(), nil)}
	if store != nil {
		opts = append(opts, seq.WithRunStore(store))
	}

	result, err := seq.Sequentialize(ctx, flat, mode, opts...)
	if err != nil {
		return err
	}
	log.Printf("sequentialized: %d control states, %d transitions, %d POR fallbacks",
		result.ControlState, result.Transitions, result.PORFallbacks)

	return writeOutput(result)
}

func writeOutput(result *seq.Result) error {
	if outputPath == "" {
		return printer.DefaultPrinter{}.Print(os.Stdout, result.Target)
	}
	return writeNts(outputPath, result.Target)
}

func openStore(dsn string) (runstore.Store, error) {
	switch {
	case len(dsn) >= 6 && dsn[:6] == "mysql:":
		return runstore.NewMySQL(dsn[6:])
	default:
		return runstore.NewSQLite(dsn)
	}
}

func runID(path string) string {
	return fmt.Sprintf("run-%s", path)
}

func writeNts(path string, n *nts.Nts) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return printer.DefaultPrinter{}.Print(f, n)
}
