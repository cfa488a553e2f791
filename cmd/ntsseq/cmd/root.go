// Package cmd is the ntsseq cobra command tree, grounded on the enrichment
// pack's cmd/cli/cmd layout: a root command carrying persistent flags plus
// PersistentPreRunE wiring, and one subcommand per operation.
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ntsseq/sequentializer/internal/config"
	"github.com/ntsseq/sequentializer/internal/telemetry"
)

// ErrUsage marks a command-line misuse (missing/invalid flag value) distinct
// from both ir.ConversionError (rejected input) and an internal failure —
// the CLI maps it to exit code 2 like any other non-conversion error, since
// spec.md's 3-way split only distinguishes "input rejected" from "anything
// else", not usage from internal failure.
var ErrUsage = errors.New("usage error")

var (
	configPath string
	storeDSN   string

	cfg *config.Config
	log *telemetry.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ntsseq",
	Short: "Sequentialize a bounded multi-threaded NTS into an equivalent single-threaded NTS",
	Long: `ntsseq loads a Numerical Transition System, decomposes its thread
templates into tasks, explores the product state space (optionally under
partial-order reduction), and emits a single-threaded NTS with the same
reachable behavior.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		if storeDSN != "" {
			c.StoreDSN = storeDSN
		}
		cfg = c
		log = telemetry.NewLogger("ntsseq")
		return nil
	},
}

// Execute runs the command tree and returns its error unmapped — main()
// inspects it via errors.As to choose an exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&storeDSN, "store-dsn", "", "override the run-store DSN from config")
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.AddCommand(runCmd)
}
