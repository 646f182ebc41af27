// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"bytes"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"unicode/utf8"

	"filippo.io/age"
	"filippo.io/age/armor"
)

// MinPassphraseLength is the minimum number of characters
// of the passphrase protecting a private key.
const MinPassphraseLength = 12

// PublicKeyPlaceholder is the text shipped in unconfigured public key files.
// A key file still holding it is treated as missing.
const PublicKeyPlaceholder = "REPLACE_WITH_YOUR_ED25519_PUBLIC_KEY"

const (
	pemPublicKey          = "PUBLIC KEY"
	pemPrivateKey         = "PRIVATE KEY"
	pemEncryptedKey       = "ENCRYPTED PRIVATE KEY"
	defaultWorkFactor     = 18
	maxWorkFactor         = 22
	privateKeyPermissions = 0600
	publicKeyPermissions  = 0644
	tokenFilePermissions  = 0600
)

// CheckPassphrase returns ErrWeakPassphrase if the passphrase
// is shorter than MinPassphraseLength characters.
func CheckPassphrase(passphrase string) error {
	if utf8.RuneCountInString(passphrase) < MinPassphraseLength {
		return ErrWeakPassphrase
	}
	return nil
}

// EncodePublicKey returns the PEM PKIX block of an Ed25519 public key.
func EncodePublicKey(publicKey ed25519.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemPublicKey, Bytes: der}), nil
}

// EncodePrivateKey returns the PKCS#8 PEM block of an Ed25519 private key,
// encrypted with age under the passphrase and ASCII armored.
// The workFactor is the scrypt log2(N) parameter, zero selects the default.
func EncodePrivateKey(privateKey ed25519.PrivateKey, passphrase string, workFactor int) ([]byte, error) {
	if err := CheckPassphrase(passphrase); err != nil {
		return nil, err
	}
	if workFactor < 0 || workFactor > maxWorkFactor {
		return nil, fmt.Errorf("work factor must be between 0 and %d (0 selects the default), got %d", maxWorkFactor, workFactor)
	}
	if workFactor == 0 {
		workFactor = defaultWorkFactor
	}

	der, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	defer clear(der)
	block := pem.EncodeToMemory(&pem.Block{Type: pemPrivateKey, Bytes: der})
	defer clear(block)

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(workFactor)

	var buf bytes.Buffer
	armorWriter := armor.NewWriter(&buf)
	w, err := age.Encrypt(armorWriter, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt private key: %w", err)
	}
	if _, err := w.Write(block); err != nil {
		return nil, fmt.Errorf("failed to encrypt private key: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to encrypt private key: %w", err)
	}
	if err := armorWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to armor private key: %w", err)
	}
	return buf.Bytes(), nil
}

// ParsePrivateKey decodes an Ed25519 private key block.
//
// Armored age files are decrypted with the passphrase. Plain PKCS#8
// blocks are accepted without one. Encrypted PKCS#8 blocks are
// recognised but not supported.
func ParsePrivateKey(data []byte, passphrase string) (ed25519.PrivateKey, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrPrivateKeyRequired
	}

	if !bytes.HasPrefix(data, []byte(armor.Header)) {
		return parsePrivateKeyBlock(data, passphrase)
	}

	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	identity.SetMaxWorkFactor(maxWorkFactor)

	r, err := age.Decrypt(armor.NewReader(bytes.NewReader(data)), identity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	defer clear(plaintext)

	block, _ := pem.Decode(plaintext)
	if block == nil || block.Type != pemPrivateKey {
		return nil, fmt.Errorf("%w: decrypted data is not a PKCS#8 private key", ErrKeyFormat)
	}
	return parsePKCS8(block.Bytes)
}

func parsePrivateKeyBlock(data []byte, passphrase string) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrKeyFormat)
	}

	switch block.Type {
	case pemPrivateKey:
		return parsePKCS8(block.Bytes)
	case pemEncryptedKey:
		if passphrase == "" {
			return nil, ErrPassphraseRequired
		}
		return nil, fmt.Errorf("%w: PKCS#8 encryption is not supported, regenerate the key with keygen", ErrKeyFormat)
	case "RSA PRIVATE KEY", "EC PRIVATE KEY":
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedKeyType, block.Type)
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrKeyFormat, block.Type)
	}
}

func parsePKCS8(der []byte) (ed25519.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyFormat, err)
	}
	privateKey, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrUnsupportedKeyType, key)
	}
	return privateKey, nil
}

// LoadPrivateKey reads and decodes the private key file at path.
func LoadPrivateKey(path, passphrase string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrPrivateKeyRequired, path)
		}
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	defer clear(data)
	return ParsePrivateKey(data, passphrase)
}

// ParsePublicKey decodes an Ed25519 public key from a PEM PKIX block
// or from a JWK set.
func ParsePublicKey(data []byte) (ed25519.PublicKey, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrPublicKeyRequired
	}
	if bytes.Contains(data, []byte(PublicKeyPlaceholder)) {
		return nil, ErrPublicKeyPlaceholder
	}

	if data[0] == '{' {
		keySet, err := EdKeySetFromJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrKeyFormat, err)
		}
		return keySet.PublicKey()
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrKeyFormat)
	}
	if block.Type != pemPublicKey {
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrKeyFormat, block.Type)
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyFormat, err)
	}
	publicKey, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrUnsupportedKeyType, key)
	}
	return publicKey, nil
}

// LoadPublicKey reads and decodes the public key file at path.
func LoadPublicKey(path string) (ed25519.PublicKey, error) {
	if path == "" {
		return nil, ErrPublicKeyRequired
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrPublicKeyRequired, path)
		}
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	return ParsePublicKey(data)
}
