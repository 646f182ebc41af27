// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/ssdl-licensing/internal/lkm"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a signed license token",
	Example: `  # Issue a pro license valid for one year and print the token
  export PRIVATE_KEY_PASSPHRASE="..."
  ssdl issue --private-key=./keys/issuer.key --plan=pro --customer="Company Name LLC"

  # Issue an enterprise license with capability flags and write it to a file
  ssdl issue --private-key=./keys/issuer.key \
  --plan=enterprise \
  --customer="Company Name INC" \
  --features="sso,audit" \
  --days=30 \
  --out=./licenses/company.lic
`,
	Args: cobra.NoArgs,
	RunE: issueCmdRun,
}

type issueFlags struct {
	privateKeyPath string
	plan           string
	customer       string
	days           int
	features       []string
	outputPath     string
	passphraseEnv  string
}

var issueArgs = issueFlags{
	days:          365,
	passphraseEnv: defaultPassphraseEnv,
}

func init() {
	issueCmd.Flags().StringVar(&issueArgs.privateKeyPath, "private-key", "",
		"path to the issuer private key (required)")
	issueCmd.Flags().StringVar(&issueArgs.plan, "plan", "",
		"license plan, one of free, pro, enterprise (required)")
	issueCmd.Flags().StringVarP(&issueArgs.customer, "customer", "c", "",
		"customer the license is issued to (required)")
	issueCmd.Flags().IntVarP(&issueArgs.days, "days", "d", 365,
		"license validity in days")
	issueCmd.Flags().StringSliceVar(&issueArgs.features, "features", nil,
		"comma separated list of capability flags (optional)")
	issueCmd.Flags().StringVarP(&issueArgs.outputPath, "out", "o", "",
		"path to write the license token to instead of stdout")
	issueCmd.Flags().StringVar(&issueArgs.passphraseEnv, "passphrase-env", defaultPassphraseEnv,
		"name of the environment variable holding the private key passphrase")
	rootCmd.AddCommand(issueCmd)
}

func issueCmdRun(cmd *cobra.Command, args []string) error {
	if issueArgs.privateKeyPath == "" {
		return fmt.Errorf("--private-key flag is required")
	}
	if issueArgs.plan == "" {
		return fmt.Errorf("--plan flag is required")
	}
	if issueArgs.customer == "" {
		return fmt.Errorf("--customer flag is required")
	}

	plan, err := lkm.ParsePlan(issueArgs.plan)
	if err != nil {
		return err
	}

	lic, err := lkm.Issue(lkm.IssueOptions{
		PrivateKeyPath: issueArgs.privateKeyPath,
		Passphrase:     os.Getenv(issueArgs.passphraseEnv),
		Plan:           plan,
		Customer:       issueArgs.customer,
		ValidityDays:   issueArgs.days,
		Features:       issueArgs.features,
	})
	if err != nil {
		return fmt.Errorf("failed to issue license: %w", err)
	}

	log.Info("license issued",
		"jti", lic.Claims.ID,
		"plan", lic.Claims.Plan,
		"exp", lic.Claims.ExpiresAt().UTC().Format("2006-01-02T15:04:05Z"))

	if issueArgs.outputPath != "" {
		if err := lic.WriteFile(issueArgs.outputPath); err != nil {
			return fmt.Errorf("failed to write license token to file: %w", err)
		}
		rootCmd.Println(fmt.Sprintf("✔ license token written to: %s", issueArgs.outputPath))
	} else {
		if _, err := fmt.Fprintln(rootCmd.OutOrStdout(), lic.Token); err != nil {
			return fmt.Errorf("failed to print license token: %w", err)
		}
	}

	// The plaintext claims are printed for the issuer's audit records.
	audit, err := json.MarshalIndent(map[string]*lkm.Claims{"claims": lic.Claims}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode claims: %w", err)
	}
	if _, err := fmt.Fprintln(rootCmd.OutOrStdout(), string(audit)); err != nil {
		return fmt.Errorf("failed to print claims: %w", err)
	}

	return nil
}
