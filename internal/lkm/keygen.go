// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
)

// GenerateOptions holds the inputs of GenerateKeyPair.
type GenerateOptions struct {
	// PrivateKeyPath is the destination of the encrypted private key.
	PrivateKeyPath string

	// PublicKeyPath is the destination of the PEM public key.
	PublicKeyPath string

	// PublicKeySetPath is the optional destination of the public key as a JWK set.
	PublicKeySetPath string

	// Passphrase protects the private key at rest.
	// It must be at least MinPassphraseLength characters.
	Passphrase string

	// Overwrite allows replacing existing regular files at the destinations.
	Overwrite bool

	// WorkFactor is the age scrypt log2(N) parameter, zero selects the default.
	WorkFactor int
}

// KeyPair describes a generated key pair. The private half
// is only ever available in its encrypted file.
type KeyPair struct {
	// PublicKey is the Ed25519 public key.
	PublicKey ed25519.PublicKey

	// KeyID is the thumbprint of the public key.
	KeyID string
}

// GenerateKeyPair generates a new Ed25519 key pair, encrypts the private key
// with the passphrase and writes both halves to their destinations.
//
// All destinations are checked before anything is written: an existing path
// that is not a regular file fails with ErrUnsafeDestination, an existing
// file without Overwrite fails with ErrAlreadyExists.
func GenerateKeyPair(opts GenerateOptions) (*KeyPair, error) {
	if err := CheckPassphrase(opts.Passphrase); err != nil {
		return nil, err
	}
	if opts.PrivateKeyPath == "" || opts.PublicKeyPath == "" {
		return nil, fmt.Errorf("both private and public key paths are required")
	}

	destinations := []string{opts.PrivateKeyPath, opts.PublicKeyPath}
	if opts.PublicKeySetPath != "" {
		destinations = append(destinations, opts.PublicKeySetPath)
	}
	seen := make(map[string]bool, len(destinations))
	for _, dst := range destinations {
		abs, err := filepath.Abs(dst)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", dst, err)
		}
		if seen[abs] {
			return nil, fmt.Errorf("destination %s is used more than once", dst)
		}
		seen[abs] = true
		if err := checkDestination(dst, opts.Overwrite); err != nil {
			return nil, err
		}
	}

	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	defer clear(privateKey)

	privateData, err := EncodePrivateKey(privateKey, opts.Passphrase, opts.WorkFactor)
	if err != nil {
		return nil, err
	}
	publicData, err := EncodePublicKey(publicKey)
	if err != nil {
		return nil, err
	}

	kid, err := KeyID(publicKey)
	if err != nil {
		return nil, err
	}

	var keySetData []byte
	if opts.PublicKeySetPath != "" {
		keySet, err := NewPublicKeySet(publicKey)
		if err != nil {
			return nil, err
		}
		if keySetData, err = keySet.ToJSON(); err != nil {
			return nil, fmt.Errorf("failed to marshal public key set: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(opts.PrivateKeyPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create private key directory: %w", err)
	}
	if err := writeFileAtomic(opts.PrivateKeyPath, privateData, privateKeyPermissions, opts.Overwrite); err != nil {
		return nil, err
	}

	// A private key without its public half is unusable and would block
	// the next run, so it is removed if the public files cannot be written.
	if err := writePublicFile(opts.PublicKeyPath, publicData, opts.Overwrite); err != nil {
		_ = os.Remove(opts.PrivateKeyPath)
		return nil, err
	}
	if opts.PublicKeySetPath != "" {
		if err := writePublicFile(opts.PublicKeySetPath, keySetData, opts.Overwrite); err != nil {
			_ = os.Remove(opts.PrivateKeyPath)
			_ = os.Remove(opts.PublicKeyPath)
			return nil, err
		}
	}

	return &KeyPair{
		PublicKey: publicKey,
		KeyID:     kid,
	}, nil
}

func writePublicFile(path string, data []byte, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return writeFileAtomic(path, data, publicKeyPermissions, overwrite)
}
