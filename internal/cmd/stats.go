package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/richie-p-meyer/loglens/internal/aggregator"
	"github.com/richie-p-meyer/loglens/internal/output"
)

var (
	statsFile  string
	statsFlags filterFlags
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show summary stats for a log file",
	Long: `Summarize a filtered view of a log file: counts by level, the most
common normalized messages, latency percentiles and WARN/ERROR spike minutes.

Examples:
  loglens stats --file app.log
  loglens stats --file "logs/**/*.log" --levels ERROR,WARN --since 2025-11-08T13:00:00Z
  loglens stats --file app.log -o json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsFile, "file", "f", "", "log file or glob pattern")
	_ = statsCmd.MarkFlagRequired("file")
	statsFlags.register(statsCmd)
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	criteria, err := statsFlags.criteria(cmd)
	if err != nil {
		return err
	}
	l, err := newLoader()
	if err != nil {
		return err
	}

	entries, err := loadFiltered(l, statsFile, criteria)
	if err != nil {
		return err
	}
	return output.WriteReport(cmd.OutOrStdout(), viper.GetString("output"), aggregator.Summarize(entries))
}
