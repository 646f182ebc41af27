// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/ssdl-licensing/internal/config"
	"github.com/controlplaneio-fluxcd/ssdl-licensing/internal/lkm"
)

var revocationsCmd = &cobra.Command{
	Use:   "revocations",
	Short: "Manage the revocation ledger",
}

var revocationsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the revoked license token IDs",
	Example: `  # List the revoked IDs from the default ledger
  ssdl revocations list

  # List the revoked IDs from a specific ledger
  ssdl revocations list --revocations-file=./licensing/revocations.json
`,
	Args: cobra.NoArgs,
	RunE: revocationsListCmdRun,
}

type revocationsListFlags struct {
	revocationsFile string
}

var revocationsListArgs = revocationsListFlags{
	revocationsFile: config.DefaultRevocationsFile,
}

func init() {
	revocationsListCmd.Flags().StringVar(&revocationsListArgs.revocationsFile, "revocations-file",
		config.DefaultRevocationsFile, "path to the revocation ledger")
	revocationsCmd.AddCommand(revocationsListCmd)
	rootCmd.AddCommand(revocationsCmd)
}

func revocationsListCmdRun(cmd *cobra.Command, args []string) error {
	revoked, err := lkm.LoadRevocations(revocationsListArgs.revocationsFile)
	if err != nil {
		return err
	}

	if revoked.Len() == 0 {
		rootCmd.Println(`✔`, "no revoked license tokens")
		return nil
	}

	rows := make([][]string, 0, revoked.Len())
	for _, jti := range revoked.Sorted() {
		rows = append(rows, []string{jti})
	}
	printTable(rootCmd.OutOrStdout(), []string{"jti"}, rows)
	return nil
}
