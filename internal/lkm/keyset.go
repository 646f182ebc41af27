// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"crypto"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// EdKeySet represents a JWK Set object for distributing Ed25519 public keys.
type EdKeySet struct {
	// Keys is a list of JSON Web Keys (JWKs) that make up the set.
	Keys []jose.JSONWebKey `json:"keys"`
}

// KeyID returns the RFC 7638 SHA-256 thumbprint of the public key,
// base64url encoded without padding.
func KeyID(publicKey ed25519.PublicKey) (string, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return "", ErrPublicKeyRequired
	}
	jwk := jose.JSONWebKey{Key: publicKey}
	thumbprint, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("failed to compute key thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(thumbprint), nil
}

// NewPublicKeySet creates an EdKeySet holding the given public key.
// The key ID is the key thumbprint.
func NewPublicKeySet(publicKey ed25519.PublicKey) (*EdKeySet, error) {
	kid, err := KeyID(publicKey)
	if err != nil {
		return nil, err
	}
	return &EdKeySet{
		Keys: []jose.JSONWebKey{{
			Key:       publicKey,
			KeyID:     kid,
			Algorithm: string(jose.EdDSA),
			Use:       "sig",
		}},
	}, nil
}

// ToJSON converts the EdKeySet to a JSON byte slice.
func (k *EdKeySet) ToJSON() ([]byte, error) {
	return json.MarshalIndent(*k, "", "  ")
}

// PublicKey returns the first signing key of the set.
// The key must be an Ed25519 public key.
func (k *EdKeySet) PublicKey() (ed25519.PublicKey, error) {
	for _, key := range k.Keys {
		if key.Use != "sig" {
			continue
		}
		if !key.IsPublic() {
			return nil, fmt.Errorf("%w: key with ID %s holds private key material", ErrKeyFormat, key.KeyID)
		}
		publicKey, ok := key.Key.(ed25519.PublicKey)
		if !ok || key.Algorithm != string(jose.EdDSA) {
			return nil, fmt.Errorf("%w: key with ID %s has algorithm %s", ErrUnsupportedKeyType, key.KeyID, key.Algorithm)
		}
		if len(publicKey) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: key with ID %s has invalid size", ErrKeyFormat, key.KeyID)
		}
		return publicKey, nil
	}
	return nil, fmt.Errorf("%w: no signing key found in set", ErrKeyFormat)
}

// EdKeySetFromJSON creates an EdKeySet from a JSON byte slice.
func EdKeySetFromJSON(data []byte) (*EdKeySet, error) {
	var keySet EdKeySet
	if err := json.Unmarshal(data, &keySet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal EdKeySet: %w", err)
	}
	if len(keySet.Keys) == 0 {
		return nil, fmt.Errorf("EdKeySet has no keys")
	}
	return &keySet, nil
}
