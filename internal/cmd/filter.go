package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/richie-p-meyer/loglens/internal/output"
)

var (
	filterFile   string
	filterLimit  int
	filterExport string
	filterOpts   filterFlags
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Print matching log lines",
	Long: `Print the entries of a log file that match every given filter, in
timestamp order, up to --limit lines.

Examples:
  loglens filter --file app.log --levels ERROR --limit 20
  loglens filter --file app.log --request-id abc123
  loglens filter --file app.log --min-latency 500 --export slow.parquet`,
	Args: cobra.NoArgs,
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringVarP(&filterFile, "file", "f", "", "log file or glob pattern")
	_ = filterCmd.MarkFlagRequired("file")
	filterCmd.Flags().IntVar(&filterLimit, "limit", 100, "max lines to print (0 for all)")
	filterCmd.Flags().StringVar(&filterExport, "export", "", "also write the printed entries to this parquet file")
	filterOpts.register(filterCmd)
	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, args []string) error {
	criteria, err := filterOpts.criteria(cmd)
	if err != nil {
		return err
	}
	l, err := newLoader()
	if err != nil {
		return err
	}

	renderer, err := output.New(viper.GetString("output"), cmd.OutOrStdout(), viper.GetBool("color"))
	if err != nil {
		return err
	}

	entries, err := loadFiltered(l, filterFile, criteria)
	if err != nil {
		return err
	}

	n, err := output.RenderAll(renderer, entries, filterLimit)
	if err != nil {
		return err
	}
	log.WithField("printed", n).WithField("matched", len(entries)).Debug("filter complete")

	if filterExport != "" {
		if err := output.ExportParquet(filterExport, entries[:n]); err != nil {
			return err
		}
		log.WithField("file", filterExport).Infof("exported %d entries", n)
	}
	return nil
}
