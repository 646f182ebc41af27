// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/ssdl-licensing/internal/config"
	"github.com/controlplaneio-fluxcd/ssdl-licensing/internal/lkm"
)

var revokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Add a license token ID to the revocation ledger",
	Example: `  # Revoke a license by its ID
  ssdl revoke --jti=1f0a8c2e-5b3d-6e4f-8a9b-0c1d2e3f4a5b --revocations-file=./revocations.json

  # Revoke the license stored in a token file
  ssdl revoke --token-file=./licenses/company.lic
`,
	Args: cobra.NoArgs,
	RunE: revokeCmdRun,
}

type revokeFlags struct {
	jti             string
	tokenFile       string
	revocationsFile string
}

var revokeArgs = revokeFlags{
	revocationsFile: config.DefaultRevocationsFile,
}

func init() {
	revokeCmd.Flags().StringVar(&revokeArgs.jti, "jti", "",
		"ID of the license token to revoke")
	revokeCmd.Flags().StringVar(&revokeArgs.tokenFile, "token-file", "",
		"path to the license token file to revoke")
	revokeCmd.Flags().StringVar(&revokeArgs.revocationsFile, "revocations-file", config.DefaultRevocationsFile,
		"path to the revocation ledger")
	revokeCmd.MarkFlagsMutuallyExclusive("jti", "token-file")
	rootCmd.AddCommand(revokeCmd)
}

func revokeCmdRun(cmd *cobra.Command, args []string) error {
	jti := strings.TrimSpace(revokeArgs.jti)
	switch {
	case revokeArgs.tokenFile != "":
		data, err := os.ReadFile(revokeArgs.tokenFile)
		if err != nil {
			return fmt.Errorf("failed to read token file: %w", err)
		}
		jti, err = lkm.ExtractJTI(string(data))
		if err != nil {
			return err
		}
	case jti == "":
		return fmt.Errorf("either --jti or --token-file flag is required")
	}

	added, err := lkm.Revoke(revokeArgs.revocationsFile, jti)
	if err != nil {
		return err
	}

	if !added {
		rootCmd.Println(fmt.Sprintf("✔ jti %s is already revoked in: %s", jti, revokeArgs.revocationsFile))
		return nil
	}

	log.Info("license revoked", "jti", jti)
	rootCmd.Println(fmt.Sprintf("✔ jti %s revoked, ledger updated: %s", jti, revokeArgs.revocationsFile))
	return nil
}
