// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/controlplaneio-fluxcd/ssdl-licensing/internal/lkm"
)

func TestRevokeCmd(t *testing.T) {
	tests := []struct {
		name         string
		setupFunc    func(t *testing.T, dir string) []string
		expectError  bool
		errorMessage string
		expectJTI    []string
	}{
		{
			name: "revokes by jti",
			setupFunc: func(t *testing.T, dir string) []string {
				return []string{"--jti", "b-jti"}
			},
			expectJTI: []string{"b-jti"},
		},
		{
			name: "keeps the ledger sorted and other fields",
			setupFunc: func(t *testing.T, dir string) []string {
				ledger := `{"note": "keep me", "revoked_jti": ["c-jti", "a-jti"]}`
				if err := os.WriteFile(filepath.Join(dir, "revocations.json"), []byte(ledger), 0644); err != nil {
					t.Fatal(err)
				}
				return []string{"--jti", " b-jti "}
			},
			expectJTI: []string{"a-jti", "b-jti", "c-jti"},
		},
		{
			name: "revokes by token file",
			setupFunc: func(t *testing.T, dir string) []string {
				privateKey, _ := generateTestKeys(t, dir)
				outPath := filepath.Join(dir, "acme.lic")
				if _, err := executeCommand([]string{"issue", "--private-key", privateKey,
					"--plan", "pro", "--customer", "ACME", "--out", outPath}); err != nil {
					t.Fatal(err)
				}
				return []string{"--token-file", outPath}
			},
		},
		{
			name: "missing jti and token file",
			setupFunc: func(t *testing.T, dir string) []string {
				return nil
			},
			expectError:  true,
			errorMessage: "either --jti or --token-file flag is required",
		},
		{
			name: "both jti and token file",
			setupFunc: func(t *testing.T, dir string) []string {
				return []string{"--jti", "a", "--token-file", filepath.Join(dir, "acme.lic")}
			},
			expectError:  true,
			errorMessage: "none of the others can be",
		},
		{
			name: "blank jti",
			setupFunc: func(t *testing.T, dir string) []string {
				return []string{"--jti", "  "}
			},
			expectError:  true,
			errorMessage: "jti",
		},
		{
			name: "invalid token file",
			setupFunc: func(t *testing.T, dir string) []string {
				path := filepath.Join(dir, "bad.lic")
				if err := os.WriteFile(path, []byte("not-a-token"), 0644); err != nil {
					t.Fatal(err)
				}
				return []string{"--token-file", path}
			},
			expectError:  true,
			errorMessage: "failed to parse license token",
		},
		{
			name: "corrupt ledger is not replaced",
			setupFunc: func(t *testing.T, dir string) []string {
				if err := os.WriteFile(filepath.Join(dir, "revocations.json"), []byte(`{"revoked_jti": "x"}`), 0644); err != nil {
					t.Fatal(err)
				}
				return []string{"--jti", "a-jti"}
			},
			expectError:  true,
			errorMessage: "failed to load revocation ledger",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			tempDir := t.TempDir()
			ledgerPath := filepath.Join(tempDir, "revocations.json")

			args := append([]string{"revoke", "--revocations-file", ledgerPath}, tt.setupFunc(t, tempDir)...)
			output, err := executeCommand(args)

			if tt.expectError {
				g.Expect(err).To(HaveOccurred())
				g.Expect(err.Error()).To(ContainSubstring(tt.errorMessage))
				return
			}
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(output).To(ContainSubstring("revoked, ledger updated: " + ledgerPath))

			revoked, err := lkm.LoadRevocations(ledgerPath)
			g.Expect(err).ToNot(HaveOccurred())
			if tt.expectJTI != nil {
				g.Expect(revoked.Sorted()).To(Equal(tt.expectJTI))
			} else {
				g.Expect(revoked.Len()).To(Equal(1))
			}
		})
	}
}

func TestRevokeCmd_Idempotent(t *testing.T) {
	g := NewWithT(t)
	ledgerPath := filepath.Join(t.TempDir(), "licensing", "revocations.json")

	_, err := executeCommand([]string{"revoke", "--jti", "a-jti", "--revocations-file", ledgerPath})
	g.Expect(err).ToNot(HaveOccurred())
	before, err := os.ReadFile(ledgerPath)
	g.Expect(err).ToNot(HaveOccurred())

	output, err := executeCommand([]string{"revoke", "--jti", "a-jti", "--revocations-file", ledgerPath})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(output).To(ContainSubstring("already revoked"))

	after, err := os.ReadFile(ledgerPath)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(after).To(Equal(before))

	var doc map[string][]string
	g.Expect(json.Unmarshal(after, &doc)).To(Succeed())
	g.Expect(doc["revoked_jti"]).To(Equal([]string{"a-jti"}))
}

func TestRevocationsListCmd(t *testing.T) {
	g := NewWithT(t)
	ledgerPath := filepath.Join(t.TempDir(), "revocations.json")

	output, err := executeCommand([]string{"revocations", "list", "--revocations-file", ledgerPath})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(output).To(ContainSubstring("no revoked license tokens"))

	for _, jti := range []string{"c-jti", "a-jti", "b-jti"} {
		_, err := executeCommand([]string{"revoke", "--jti", jti, "--revocations-file", ledgerPath})
		g.Expect(err).ToNot(HaveOccurred())
	}

	output, err = executeCommand([]string{"revocations", "list", "--revocations-file", ledgerPath})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(strings.Fields(output)).To(Equal([]string{"JTI", "a-jti", "b-jti", "c-jti"}))

	g.Expect(os.WriteFile(ledgerPath, []byte("not json"), 0644)).To(Succeed())
	_, err = executeCommand([]string{"revocations", "list", "--revocations-file", ledgerPath})
	g.Expect(err).To(MatchError(lkm.ErrRevocationLoad))
}
