// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/ssdl-licensing/internal/lkm"
)

const defaultPassphraseEnv = "PRIVATE_KEY_PASSPHRASE"

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a passphrase protected Ed25519 key pair for signing license tokens",
	Example: `  # Generate a key pair protected by the passphrase from PRIVATE_KEY_PASSPHRASE
  export PRIVATE_KEY_PASSPHRASE="$(openssl rand -base64 24)"
  ssdl keygen --private-key-out=./keys/issuer.key --public-key-out=./public_key.pem

  # Also export the public key as a JWK set
  ssdl keygen --private-key-out=./keys/issuer.key --public-key-out=./public_key.pem \
  --public-jwks-out=./public.jwks

  # Replace an existing key pair
  ssdl keygen --private-key-out=./keys/issuer.key --public-key-out=./public_key.pem --overwrite
`,
	Args: cobra.NoArgs,
	RunE: keygenCmdRun,
}

type keygenFlags struct {
	privateKeyOut string
	publicKeyOut  string
	publicJWKSOut string
	overwrite     bool
	passphraseEnv string
	workFactor    int
}

var keygenArgs = keygenFlags{
	passphraseEnv: defaultPassphraseEnv,
}

func init() {
	keygenCmd.Flags().StringVar(&keygenArgs.privateKeyOut, "private-key-out", "",
		"path to write the encrypted private key (required)")
	keygenCmd.Flags().StringVar(&keygenArgs.publicKeyOut, "public-key-out", "",
		"path to write the PEM public key (required)")
	keygenCmd.Flags().StringVar(&keygenArgs.publicJWKSOut, "public-jwks-out", "",
		"optional path to write the public key as a JWK set")
	keygenCmd.Flags().BoolVar(&keygenArgs.overwrite, "overwrite", false,
		"replace existing key files")
	keygenCmd.Flags().StringVar(&keygenArgs.passphraseEnv, "passphrase-env", defaultPassphraseEnv,
		"name of the environment variable holding the private key passphrase")
	keygenCmd.Flags().IntVar(&keygenArgs.workFactor, "scrypt-work-factor", 0,
		"scrypt log2(N) work factor of the private key encryption")
	_ = keygenCmd.Flags().MarkHidden("scrypt-work-factor")
	rootCmd.AddCommand(keygenCmd)
}

func keygenCmdRun(cmd *cobra.Command, args []string) error {
	if keygenArgs.privateKeyOut == "" {
		return fmt.Errorf("--private-key-out flag is required")
	}
	if keygenArgs.publicKeyOut == "" {
		return fmt.Errorf("--public-key-out flag is required")
	}

	passphrase := os.Getenv(keygenArgs.passphraseEnv)
	if err := lkm.CheckPassphrase(passphrase); err != nil {
		return fmt.Errorf("%w, set it in the %s environment variable", err, keygenArgs.passphraseEnv)
	}

	kp, err := lkm.GenerateKeyPair(lkm.GenerateOptions{
		PrivateKeyPath:   keygenArgs.privateKeyOut,
		PublicKeyPath:    keygenArgs.publicKeyOut,
		PublicKeySetPath: keygenArgs.publicJWKSOut,
		Passphrase:       passphrase,
		Overwrite:        keygenArgs.overwrite,
		WorkFactor:       keygenArgs.workFactor,
	})
	if err != nil {
		if errors.Is(err, lkm.ErrAlreadyExists) {
			return fmt.Errorf("%w, use --overwrite to replace it", err)
		}
		return err
	}

	log.Info("key pair generated", "kid", kp.KeyID)

	rootCmd.Printf("✔ private key written to: %s\n", keygenArgs.privateKeyOut)
	rootCmd.Printf("✔ public key written to: %s\n", keygenArgs.publicKeyOut)
	if keygenArgs.publicJWKSOut != "" {
		rootCmd.Printf("✔ public key set written to: %s\n", keygenArgs.publicJWKSOut)
	}
	rootCmd.Println(`►`, "Keep the private key and passphrase secret, distribute only the public key")
	return nil
}
