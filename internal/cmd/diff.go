package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/richie-p-meyer/loglens/internal/diff"
	"github.com/richie-p-meyer/loglens/internal/output"
)

var (
	diffHealthy string
	diffFailing string
	diffFlags   filterFlags
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare healthy vs failing logs",
	Long: `Compare a known-good capture with a known-bad one: level counts,
messages that are new or more frequent in the failing set, p95 latency, and
spike minutes in the failing set. Filters apply to both sides.

Examples:
  loglens diff --healthy good.log --failing bad.log
  loglens diff --healthy good.log --failing bad.log --since 2025-11-08T13:00:00Z -o yaml`,
	Args: cobra.NoArgs,
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffHealthy, "healthy", "", "healthy log file or glob pattern")
	diffCmd.Flags().StringVar(&diffFailing, "failing", "", "failing log file or glob pattern")
	_ = diffCmd.MarkFlagRequired("healthy")
	_ = diffCmd.MarkFlagRequired("failing")
	diffFlags.register(diffCmd)
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	criteria, err := diffFlags.criteria(cmd)
	if err != nil {
		return err
	}
	l, err := newLoader()
	if err != nil {
		return err
	}

	healthy, failing, err := loadPair(l, diffHealthy, diffFailing, criteria)
	if err != nil {
		return err
	}

	report, err := diff.Compare(healthy, failing)
	if errors.Is(err, diff.ErrMissingSide) {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), diff.MissingSideMessage)
		return err
	}
	if err != nil {
		return err
	}
	return output.WriteReport(cmd.OutOrStdout(), viper.GetString("output"), report)
}
