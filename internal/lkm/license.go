// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// IssueOptions holds the inputs of Issue.
type IssueOptions struct {
	// PrivateKeyPath is the path of the issuer private key file.
	PrivateKeyPath string

	// Passphrase decrypts the private key, it may be empty for plain keys.
	Passphrase string

	// Plan is the entitlement tier granted by the license.
	Plan Plan

	// Customer is the subject of the license.
	Customer string

	// ValidityDays is the number of days the license is valid for.
	ValidityDays int

	// Features is the optional ordered list of capability flags.
	Features []string

	// Now returns the issuance time, defaults to time.Now.
	Now func() time.Time
}

// IssuedLicense is the result of issuing a license.
type IssuedLicense struct {
	// Token is the signed license token handed to the customer.
	Token string

	// Claims is the plaintext payload of the token, kept for auditing.
	Claims *Claims
}

// Issue loads the private key and issues a signed license token.
// The claims are validated before the key is loaded.
func Issue(opts IssueOptions) (*IssuedLicense, error) {
	claims, err := NewClaims(opts.Plan, opts.Customer, opts.ValidityDays, opts.Features, opts.now())
	if err != nil {
		return nil, err
	}

	privateKey, err := LoadPrivateKey(opts.PrivateKeyPath, opts.Passphrase)
	if err != nil {
		return nil, err
	}
	defer clear(privateKey)

	return sign(claims, privateKey)
}

// IssueWithKey issues a signed license token with an in-memory private key.
func IssueWithKey(privateKey ed25519.PrivateKey, plan Plan, customer string, validityDays int, features []string, now time.Time) (*IssuedLicense, error) {
	claims, err := NewClaims(plan, customer, validityDays, features, now)
	if err != nil {
		return nil, err
	}
	return sign(claims, privateKey)
}

func sign(claims *Claims, privateKey ed25519.PrivateKey) (*IssuedLicense, error) {
	token, err := SignClaims(claims, privateKey)
	if err != nil {
		return nil, err
	}
	return &IssuedLicense{
		Token:  token,
		Claims: claims,
	}, nil
}

// WriteFile atomically writes the token followed by a newline to path
// with mode 0600, creating the parent directory if needed. An existing
// regular file is replaced; symlinks and other file types are refused.
func (l *IssuedLicense) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return writeFileAtomic(path, []byte(l.Token+"\n"), tokenFilePermissions, true)
}

func (o IssueOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
