package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/richie-p-meyer/loglens/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stats, filter and diff reports over HTTP",
	Long: `Start an HTTP server answering report requests for log files found
below --root. Filter predicates are passed as query parameters
(since, until, level, keyword, request_id, min_latency).

Endpoints:
  GET /api/stats?file=app.log
  GET /api/entries?file=app.log&limit=50
  GET /api/diff?healthy=good.log&failing=bad.log
  GET /healthz

Examples:
  loglens serve --root /var/log/myapp --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("root", ".", "directory that requested log paths are resolved in")
	cobra.CheckErr(viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr")))
	cobra.CheckErr(viper.BindPFlag("serve.root", serveCmd.Flags().Lookup("root")))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(viper.GetString("serve.root"))
	if err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("root %s is not a directory", root)
	}

	l, err := newLoader()
	if err != nil {
		return err
	}
	return server.New(l, log, root, viper.GetString("serve.addr")).Start()
}
