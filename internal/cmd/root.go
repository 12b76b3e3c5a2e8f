package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/richie-p-meyer/loglens/internal/loader"
	"github.com/richie-p-meyer/loglens/internal/parser"
)

var (
	cfgFile string
	log     = logrus.New()
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "loglens",
	Short: "LogLens: root-cause log explorer",
	Long: `LogLens loads JSONL or plain-text logs, filters them, summarizes
levels, messages and latency, finds WARN/ERROR spike minutes, and compares
a healthy capture against a failing one.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.loglens.yaml)")
	flags.StringP("output", "o", "text", "output format: text, json (reports also yaml)")
	flags.Bool("color", false, "colorize levels in text listings")
	flags.BoolP("verbose", "v", false, "log loader diagnostics to stderr")
	flags.StringSlice("parsers", []string{"json", "text"}, "parse strategies in order: json, text, clf, regex")
	flags.String("pattern", "", "custom regex with named groups (timestamp, level, message, request_id, latency_ms)")

	for _, name := range []string{"output", "color", "verbose", "parsers", "pattern"} {
		cobra.CheckErr(viper.BindPFlag(name, flags.Lookup(name)))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".loglens")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("loglens")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if viper.GetBool("verbose") {
		log.SetLevel(logrus.DebugLevel)
	}
	if err == nil {
		log.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	}
}

// newLoader builds a Loader from the configured parse strategies.
func newLoader() (*loader.Loader, error) {
	chain, err := parser.FromNames(viper.GetStringSlice("parsers"), viper.GetString("pattern"))
	if err != nil {
		return nil, fmt.Errorf("invalid parser configuration: %w", err)
	}
	return loader.New(chain, log), nil
}
