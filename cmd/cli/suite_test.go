// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/controlplaneio-fluxcd/ssdl-licensing/internal/config"
	"github.com/controlplaneio-fluxcd/ssdl-licensing/internal/logger"
)

const (
	testPassphrase = "correct horse battery staple"
	testWorkFactor = "10"
)

// executeCommand executes a CLI command with the given args and returns the output and error.
// This helper function can be reused across all CLI command tests.
func executeCommand(args []string) (string, error) {
	defer resetCmdArgs()

	// Capture output
	buf := new(bytes.Buffer)

	// Set up the command
	cmd := rootCmd
	cmd.SetArgs(args)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	// Execute command
	err := cmd.Execute()

	return buf.String(), err
}

// resetCmdArgs resets all command-specific flags to their default values.
// This should be called between tests to ensure clean state.
func resetCmdArgs() {
	rootArgs = rootFlags{
		logOptions: logger.Options{LogEncoding: "console", LogLevel: "info"},
	}

	keygenArgs = keygenFlags{passphraseEnv: defaultPassphraseEnv}
	issueArgs = issueFlags{days: 365, passphraseEnv: defaultPassphraseEnv}
	verifyArgs = verifyFlags{}
	revokeArgs = revokeFlags{revocationsFile: config.DefaultRevocationsFile}
	revocationsListArgs = revocationsListFlags{revocationsFile: config.DefaultRevocationsFile}
	inspectArgs = inspectFlags{licenseEnv: config.DefaultLicenseEnv}

	// The verify command relies on Changed to layer flags over the config.
	resetChanged(rootCmd)
}

func resetChanged(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) { f.Changed = false }
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetChanged(c)
	}
}

// generateTestKeys runs keygen in dir and returns the private and public key paths.
func generateTestKeys(t *testing.T, dir string) (string, string) {
	t.Helper()
	t.Setenv(defaultPassphraseEnv, testPassphrase)

	privateKey := filepath.Join(dir, "keys", "issuer.key")
	publicKey := filepath.Join(dir, "public_key.pem")
	output, err := executeCommand([]string{
		"keygen",
		"--private-key-out", privateKey,
		"--public-key-out", publicKey,
		"--scrypt-work-factor", testWorkFactor,
	})
	if err != nil {
		t.Fatalf("keygen failed: %v\n%s", err, output)
	}
	return privateKey, publicKey
}

// issueTestToken runs issue with the given extra args and returns the token.
func issueTestToken(t *testing.T, privateKey string, extraArgs ...string) string {
	t.Helper()
	t.Setenv(defaultPassphraseEnv, testPassphrase)

	args := append([]string{
		"issue",
		"--private-key", privateKey,
		"--plan", "pro",
		"--customer", "Company Name LLC",
	}, extraArgs...)
	output, err := executeCommand(args)
	if err != nil {
		t.Fatalf("issue failed: %v\n%s", err, output)
	}
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "SSDL1.") {
			return line
		}
	}
	t.Fatalf("no token in output:\n%s", output)
	return ""
}

// jsonLine returns the first line of the output that holds a JSON object.
func jsonLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "{") {
			return line
		}
	}
	return ""
}
