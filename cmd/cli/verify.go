// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/ssdl-licensing/internal/config"
	"github.com/controlplaneio-fluxcd/ssdl-licensing/internal/lkm"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the license token and print the entitlement decision",
	Long: `The verify command reads the license token from the environment, validates it
against the public key and the revocation ledger, and prints the decision as a
single JSON object on stdout.

The command exits with code zero for every validation outcome, the decision is
carried by the "valid", "tier" and "reason" fields. A non-zero exit code signals
a configuration error, such as a public key that is not an Ed25519 key.`,
	Example: `  # Verify the token stored in LICENSE_KEY
  LICENSE_KEY="$(cat company.lic)" ssdl verify --public-key-file=./public_key.pem

  # Verify with settings from a config file and a custom token variable
  ssdl verify --config=./ssdl.yaml --license-env=SSDL_TOKEN

  # Accept unsigned legacy ENT-/PRO- keys
  ssdl verify --allow-legacy-prefix
`,
	Args: cobra.NoArgs,
	RunE: verifyCmdRun,
}

type verifyFlags struct {
	configPath        string
	publicKeyFile     string
	revocationsFile   string
	allowLegacyPrefix bool
	licenseEnv        string
}

var verifyArgs verifyFlags

func init() {
	verifyCmd.Flags().StringVar(&verifyArgs.configPath, "config", "",
		"path to the verifier YAML config file")
	verifyCmd.Flags().StringVar(&verifyArgs.publicKeyFile, "public-key-file", config.DefaultPublicKeyFile,
		"path to the PEM or JWKS public key")
	verifyCmd.Flags().StringVar(&verifyArgs.revocationsFile, "revocations-file", config.DefaultRevocationsFile,
		"path to the revocation ledger")
	verifyCmd.Flags().BoolVar(&verifyArgs.allowLegacyPrefix, "allow-legacy-prefix", false,
		"accept unsigned ENT- and PRO- prefixed legacy keys")
	verifyCmd.Flags().StringVar(&verifyArgs.licenseEnv, "license-env", config.DefaultLicenseEnv,
		"name of the environment variable holding the license token")
	rootCmd.AddCommand(verifyCmd)
}

func verifyCmdRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadVerifier(verifyArgs.configPath, os.LookupEnv)
	if err != nil {
		return err
	}

	// Flags set on the command line take precedence over the config file and env.
	flags := cmd.Flags()
	if flags.Changed("public-key-file") {
		cfg.PublicKeyFile = verifyArgs.publicKeyFile
	}
	if flags.Changed("revocations-file") {
		cfg.RevocationsFile = verifyArgs.revocationsFile
	}
	if flags.Changed("allow-legacy-prefix") {
		cfg.AllowLegacyPrefix = verifyArgs.allowLegacyPrefix
	}
	if flags.Changed("license-env") {
		cfg.LicenseEnv = verifyArgs.licenseEnv
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid verifier config: %w", err)
	}

	verifier := &lkm.Verifier{
		PublicKeyFile:     cfg.PublicKeyFile,
		RevocationsFile:   cfg.RevocationsFile,
		AllowLegacyPrefix: cfg.AllowLegacyPrefix,
	}

	result, err := verifier.Check(os.Getenv(cfg.LicenseEnv))
	if err != nil {
		return err
	}

	log.V(1).Info("license verified",
		"valid", result.Valid,
		"tier", result.Tier,
		"reason", result.Reason)

	data, err := result.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if _, err := fmt.Fprintln(rootCmd.OutOrStdout(), string(data)); err != nil {
		return fmt.Errorf("failed to print result: %w", err)
	}

	return nil
}
