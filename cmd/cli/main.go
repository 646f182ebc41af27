// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/ssdl-licensing/internal/logger"
)

// VERSION is set at build time.
var VERSION = "0.0.0-dev.0"

var rootCmd = &cobra.Command{
	Use:           "ssdl",
	Version:       VERSION,
	SilenceUsage:  true,
	SilenceErrors: true,
	Short:         "Command line utility for issuing and verifying SSDL license tokens",
	Long: `The ssdl CLI manages the lifecycle of SSDL license tokens.

Vendor side: generate the signing key pair, issue signed tokens and maintain the revocation ledger.
Customer side: verify a token and print the entitlement decision as JSON.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if rootArgs.envFile != "" {
			if err := godotenv.Load(rootArgs.envFile); err != nil {
				return fmt.Errorf("failed to load env file %s: %w", rootArgs.envFile, err)
			}
		}
		if err := rootArgs.logOptions.Validate(); err != nil {
			return err
		}
		log = logger.NewLoggerTo(cmd.ErrOrStderr(), rootArgs.logOptions)
		return nil
	},
}

type rootFlags struct {
	envFile    string
	logOptions logger.Options
}

var (
	rootArgs rootFlags
	log      = logr.Discard()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootArgs.envFile, "env-file", "",
		"Path to a dotenv file loaded before the command runs. Variables already set in the environment take precedence.")
	rootArgs.logOptions.BindFlags(rootCmd.PersistentFlags())
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln(`✗`, err)
		os.Exit(1)
	}
}
