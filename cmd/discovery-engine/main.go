// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the discovery-engine CLI.
// Each subcommand runs or inspects discovery jobs: run starts one, resume
// continues an interrupted one, status and audit read the checkpoint store.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/discovery-engine/internal/config"
	"github.com/pdiddy/discovery-engine/internal/logging"
	"github.com/pdiddy/discovery-engine/internal/secrets"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// engineConfig is loaded once per invocation by the root command.
var engineConfig types.EngineConfig

// rootCmd is the base command for the discovery-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "discovery-engine",
	Short: "Autonomous multi-stage discovery jobs",
	Long: `discovery-engine runs discovery jobs: given a goal it plans search
queries, searches for candidate sources, filters them against a governance
policy, scores their relevance, extracts structured content from the
survivors, and synthesizes a report.

Every job is checkpointed after each step, so an interrupted job can be
continued with resume. status and audit inspect stored jobs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		cfg, err := config.Load(viper.GetViper(), s)
		if err != nil {
			return err
		}
		engineConfig = cfg
		logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./discovery-engine.yaml or ~/.config/discovery-engine/discovery-engine.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("store", "", "checkpoint store backend: memory, sqlite, redis")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("store.backend", rootCmd.PersistentFlags().Lookup("store"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("discovery-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "discovery-engine"))
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
