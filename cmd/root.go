// Package cmd implements the stimseq command line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjrosen/stimseq/internal/config"
	"github.com/zjrosen/stimseq/internal/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cfg is populated from config file, environment, and flags before any
// subcommand runs.
var cfg config.Config

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "stimseq",
	Short: "Constrained stimulus randomization for the imitation experiment",
	Long: `stimseq generates presentation orders for auditory stimulus sets under
consecutive-run constraints (speaker, condition, manipulation), persists
them for reproducibility, and records every run in an audit store.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./stimseq.yaml, then ~/.stimseq/stimseq.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadConfig resolves configuration with env > file > defaults precedence.
// A missing config file is fine; defaults apply.
func loadConfig(cmd *cobra.Command, args []string) error {
	if verbose {
		log.SetVerbose()
	}

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("stimseq")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".stimseq"))
		}
	}
	v.SetEnvPrefix("STIMSEQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	} else {
		log.Debug(log.CatConfig, "config loaded", "file", v.ConfigFileUsed())
	}

	cfg = config.Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
