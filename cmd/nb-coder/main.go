// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command nb-coder is a test CLI for the nbedit library.
// Implements: prd011-cli R1-R4.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "nb-coder",
		Short: "Notebook cell editing agent",
		Long:  "nb-coder takes a natural language instruction, streams a model-generated replacement for a notebook cell's line range, validates it, and writes it back.",
	}

	// Global flags.
	rootCmd.PersistentFlags().String("workdir", ".", "Workspace root containing the notebooks")
	rootCmd.PersistentFlags().String("model", "", "Bedrock model ID")
	rootCmd.PersistentFlags().String("region", "", "AWS region for Bedrock")
	rootCmd.PersistentFlags().String("profile", "", "AWS credential profile")
	rootCmd.PersistentFlags().String("conversation", "", "Conversation ID for session scoping")
	rootCmd.PersistentFlags().String("ruff", "ruff", "Path to the ruff executable")
	rootCmd.PersistentFlags().String("policy", "", "Lint policy YAML file")
	rootCmd.PersistentFlags().Int("max-tokens", 4096, "Maximum tokens for LLM response")
	rootCmd.PersistentFlags().String("log", "", "Write structured logs to this file")

	// Bind flags to viper.
	viper.BindPFlag("workdir", rootCmd.PersistentFlags().Lookup("workdir"))
	viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))
	viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	viper.BindPFlag("conversation", rootCmd.PersistentFlags().Lookup("conversation"))
	viper.BindPFlag("ruff", rootCmd.PersistentFlags().Lookup("ruff"))
	viper.BindPFlag("policy", rootCmd.PersistentFlags().Lookup("policy"))
	viper.BindPFlag("max-tokens", rootCmd.PersistentFlags().Lookup("max-tokens"))
	viper.BindPFlag("log", rootCmd.PersistentFlags().Lookup("log"))

	// Env vars: NB_CODER_MODEL, NB_CODER_REGION, etc.
	viper.SetEnvPrefix("NB_CODER")
	viper.AutomaticEnv()

	// Config file.
	viper.SetConfigName(".nb-coder")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore error; config file is optional.

	// Add commands.
	rootCmd.AddCommand(newEditCmd())
	rootCmd.AddCommand(newUndoCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildLogger returns a production zap logger writing to the configured
// file, or a no-op logger when no file is set.
func buildLogger() (*zap.Logger, error) {
	path := viper.GetString("log")
	if path == "" {
		return zap.NewNop(), nil
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print nb-coder version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("nb-coder %s\n", version)
		},
	}
}
