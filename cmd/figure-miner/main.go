// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the figure-miner CLI: fetch arXiv
// source bundles, extract figure/caption pairs from them, and index the
// resulting dataset.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/figure-miner/internal/logging"
	"github.com/pdiddy/figure-miner/internal/secrets"
	"github.com/pdiddy/figure-miner/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultUserAgent = "figure-miner/0.1"

var (
	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	// logger is configured from --log-level before any subcommand runs.
	logger = slog.New(slog.DiscardHandler)
)

// rootCmd is the base command for the figure-miner CLI.
var rootCmd = &cobra.Command{
	Use:   "figure-miner",
	Short: "Build figure/caption datasets from arXiv LaTeX sources",
	Long: `figure-miner downloads arXiv e-print sources and mines their LaTeX for
figure images and captions. Accepted images are copied to a per-paper
directory and described in a JSON array that grows with every run.

Typical use: fetch bundles for a query, run extract, then build the
search index over the resulting captions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(viper.GetString("log_level"))
		if err != nil {
			return err
		}
		logger = logging.New(os.Stderr, level)

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./figure-miner.yaml or ~/.config/figure-miner/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, or error")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	setDefaults()
}

// setDefaults registers every configuration key so that config files and
// FIGURE_MINER_* environment variables are honoured by loadConfig.
func setDefaults() {
	viper.SetDefault("retrieval.timeout", 60*time.Second)
	viper.SetDefault("retrieval.user_agent", defaultUserAgent)
	viper.SetDefault("retrieval.max_retries", 5)
	viper.SetDefault("retrieval.bundles_dir", "bundles")
	viper.SetDefault("retrieval.download_delay", 3*time.Second)
	viper.SetDefault("retrieval.max_entry_bytes", int64(100<<20))

	viper.SetDefault("extract.input_root", "bundles")
	viper.SetDefault("extract.output_root", "figures")
	viper.SetDefault("extract.metadata_path", "figures_and_captions.json")
	viper.SetDefault("extract.continue_on_error", false)

	viper.SetDefault("index.index_dir", "index")
	viper.SetDefault("index.max_results", 20)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("figure-miner")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "figure-miner"))
		}
	}

	viper.SetEnvPrefix("FIGURE_MINER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes defaults, config file and environment into a
// PipelineConfig. Subcommands then apply their explicitly set flags.
func loadConfig() (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
