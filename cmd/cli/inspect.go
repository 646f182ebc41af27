// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/ssdl-licensing/internal/config"
	"github.com/controlplaneio-fluxcd/ssdl-licensing/internal/lkm"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the claims of a license token without verifying its signature",
	Example: `  # Inspect a token file
  ssdl inspect --token-file=./licenses/company.lic

  # Inspect the token stored in LICENSE_KEY and show the key ID of the public key
  ssdl inspect --public-key-file=./public_key.pem
`,
	Args: cobra.NoArgs,
	RunE: inspectCmdRun,
}

type inspectFlags struct {
	tokenFile     string
	licenseEnv    string
	publicKeyFile string
}

var inspectArgs = inspectFlags{
	licenseEnv: config.DefaultLicenseEnv,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectArgs.tokenFile, "token-file", "",
		"path to the license token file")
	inspectCmd.Flags().StringVar(&inspectArgs.licenseEnv, "license-env", config.DefaultLicenseEnv,
		"name of the environment variable holding the license token, used when --token-file is not set")
	inspectCmd.Flags().StringVar(&inspectArgs.publicKeyFile, "public-key-file", "",
		"optional path to a public key whose key ID is printed")
	rootCmd.AddCommand(inspectCmd)
}

func inspectCmdRun(cmd *cobra.Command, args []string) error {
	var token string
	if inspectArgs.tokenFile != "" {
		data, err := os.ReadFile(inspectArgs.tokenFile)
		if err != nil {
			return fmt.Errorf("failed to read token file: %w", err)
		}
		token = string(data)
	} else {
		token = os.Getenv(inspectArgs.licenseEnv)
		if strings.TrimSpace(token) == "" {
			return fmt.Errorf("no token found, set --token-file or the %s environment variable", inspectArgs.licenseEnv)
		}
	}

	claims, err := lkm.UnverifiedClaims(token)
	if err != nil {
		return err
	}

	rows := [][]string{
		{"jti", claims.ID},
		{"plan", string(claims.Plan)},
		{"sub", claims.Subject},
		{"iat", formatUnix(&claims.IssuedAt)},
		{"nbf", formatUnix(claims.NotBefore)},
		{"exp", formatUnix(claims.Expiry)},
		{"features", strings.Join(claims.Features, ",")},
	}

	if inspectArgs.publicKeyFile != "" {
		pub, err := lkm.LoadPublicKey(inspectArgs.publicKeyFile)
		if err != nil {
			return err
		}
		kid, err := lkm.KeyID(pub)
		if err != nil {
			return err
		}
		rows = append(rows, []string{"kid", kid})
	}

	rootCmd.Println(`⚠`, "claims are shown without signature verification, use 'ssdl verify' to validate the token")
	printFields(rootCmd.OutOrStdout(), rows)
	return nil
}

func formatUnix(ts *int64) string {
	if ts == nil {
		return "-"
	}
	return strconv.FormatInt(*ts, 10) + " (" + time.Unix(*ts, 0).UTC().Format(time.RFC3339) + ")"
}
