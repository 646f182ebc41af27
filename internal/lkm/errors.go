// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"errors"
	"fmt"
)

// ErrWeakPassphrase is returned when the passphrase protecting a private key
// is missing or shorter than MinPassphraseLength characters.
var ErrWeakPassphrase = errors.New("passphrase must be at least 12 characters")

// ErrUnsafeDestination is returned when a key destination exists
// but is not a regular file (e.g. a symlink, directory or device).
var ErrUnsafeDestination = errors.New("destination exists and is not a regular file")

// ErrAlreadyExists is returned when a key destination exists and overwrite is disabled.
var ErrAlreadyExists = errors.New("destination already exists")

// ErrPassphraseRequired is returned when a private key is encrypted but no passphrase was provided.
var ErrPassphraseRequired = errors.New("private key is encrypted but no passphrase was provided")

// ErrDecryptionFailed is returned when an encrypted private key cannot be decrypted.
var ErrDecryptionFailed = errors.New("failed to decrypt private key")

// ErrUnsupportedKeyType is returned when a key is not an Ed25519 key.
var ErrUnsupportedKeyType = errors.New("key must be an Ed25519 key")

// ErrKeyFormat is returned when a key block cannot be decoded.
var ErrKeyFormat = errors.New("unrecognized key format")

// ErrPublicKeyRequired is returned when a public key is required but not provided.
var ErrPublicKeyRequired = errors.New("public key is required")

// ErrPublicKeyPlaceholder is returned when the public key file still holds the placeholder text.
var ErrPublicKeyPlaceholder = errors.New("public key file contains a placeholder")

// ErrPrivateKeyRequired is returned when a private key is required but not provided.
var ErrPrivateKeyRequired = errors.New("private key is required")

// ErrInvalidPlan is returned when a plan is not one of free, pro or enterprise.
var ErrInvalidPlan = errors.New("plan must be one of free, pro, enterprise")

// ErrCustomerEmpty is returned when the license subject is empty.
var ErrCustomerEmpty = errors.New("customer (sub) cannot be empty")

// ErrInvalidValidity is returned when the validity window is not a positive number of days.
var ErrInvalidValidity = errors.New("validity must be at least one day")

// ErrJTIEmpty is returned when a token ID is empty.
var ErrJTIEmpty = errors.New("id (jti) cannot be empty")

// ErrRevocationLoad is returned when the revocation ledger exists but cannot be trusted.
var ErrRevocationLoad = errors.New("failed to load revocation ledger")

// ErrParseToken is returned when a token cannot be split into its parts.
var ErrParseToken = errors.New("failed to parse license token")

// revocationLoadError wraps an error with the ErrRevocationLoad sentinel.
func revocationLoadError(path string, err error) error {
	return fmt.Errorf("%w %s: %w", ErrRevocationLoad, path, err)
}
