// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Reason is the outcome of a license token validation.
type Reason string

const (
	ReasonOK                  Reason = "ok"
	ReasonLegacyPrefix        Reason = "legacy_prefix"
	ReasonInvalidFormat       Reason = "invalid_format"
	ReasonInvalidEncoding     Reason = "invalid_encoding"
	ReasonInvalidSignature    Reason = "invalid_signature"
	ReasonInvalidPayload      Reason = "invalid_payload"
	ReasonInvalidPlan         Reason = "invalid_plan"
	ReasonExpired             Reason = "expired"
	ReasonNotYetValid         Reason = "not_yet_valid"
	ReasonRevoked             Reason = "revoked"
	ReasonUnknownLegacyKey    Reason = "unknown_legacy_key"
	ReasonMissingPublicKey    Reason = "missing_public_key"
	ReasonRevocationLoadError Reason = "revocation_load_error"
	ReasonNoKey               Reason = "no_key"
)

// Result is the entitlement decision for a license token.
type Result struct {
	// Valid is true only when the token was accepted.
	Valid bool `json:"valid"`

	// Tier is the granted plan, always free when Valid is false.
	Tier Plan `json:"tier"`

	// Reason explains the decision.
	Reason Reason `json:"reason"`

	// Claims holds the signature-verified claims, when available.
	Claims *Claims `json:"claims,omitempty"`
}

// JSON returns the compact JSON encoding of the result.
func (r Result) JSON() ([]byte, error) {
	return json.Marshal(r)
}

func reject(reason Reason, claims *Claims) Result {
	return Result{
		Valid:  false,
		Tier:   PlanFree,
		Reason: reason,
		Claims: claims,
	}
}

// Validate checks a license token against the public key and the
// revocation set at the given time. The checks run in a fixed order
// and the first failure determines the reason:
//
//  1. the token has three parts tagged SSDL1 (invalid_format)
//  2. the payload and signature decode as base64url (invalid_encoding)
//  3. the signature verifies over the raw payload bytes (invalid_signature)
//  4. the payload decodes as claims (invalid_payload)
//  5. the plan is recognized, a missing plan means free (invalid_plan)
//  6. the token has not expired (expired)
//  7. the token is already valid (not_yet_valid)
//  8. the token ID is not revoked (revoked)
//
// Claims are only attached to the result once they have been
// authenticated and parsed. A public key of the wrong size fails
// every signature check.
func Validate(token string, publicKey ed25519.PublicKey, revoked RevocationSet, now time.Time) Result {
	payloadPart, signaturePart, ok := splitToken(token)
	if !ok {
		return reject(ReasonInvalidFormat, nil)
	}

	payload, err := decodeSegment(payloadPart)
	if err != nil {
		return reject(ReasonInvalidEncoding, nil)
	}
	signature, err := decodeSegment(signaturePart)
	if err != nil {
		return reject(ReasonInvalidEncoding, nil)
	}

	if len(publicKey) != ed25519.PublicKeySize || !ed25519.Verify(publicKey, payload, signature) {
		return reject(ReasonInvalidSignature, nil)
	}

	claims, err := ParseClaims(payload)
	if err != nil {
		return reject(ReasonInvalidPayload, nil)
	}

	plan := PlanFree
	if claims.Plan != "" || hasField(payload, "plan") {
		plan = Plan(strings.ToLower(string(claims.Plan)))
	}
	if !plan.IsValid() {
		return reject(ReasonInvalidPlan, claims)
	}

	unix := now.Unix()
	if claims.Expiry != nil && *claims.Expiry < unix {
		return reject(ReasonExpired, claims)
	}
	if claims.NotBefore != nil && *claims.NotBefore > unix {
		return reject(ReasonNotYetValid, claims)
	}
	if claims.ID != "" && revoked.Has(claims.ID) {
		return reject(ReasonRevoked, claims)
	}

	return Result{
		Valid:  true,
		Tier:   plan,
		Reason: ReasonOK,
		Claims: claims,
	}
}

// hasField reports whether the JSON object payload contains the key,
// whatever its value. An explicit empty or null plan is not a missing one.
func hasField(payload []byte, key string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return false
	}
	_, ok := fields[key]
	return ok
}

// Verifier resolves the public key and the revocation ledger from files
// and validates license tokens against them.
type Verifier struct {
	// PublicKeyFile is the path of the PEM or JWKS public key.
	PublicKeyFile string

	// RevocationsFile is the path of the revocation ledger.
	RevocationsFile string

	// AllowLegacyPrefix enables the unsigned legacy key fallback.
	AllowLegacyPrefix bool

	// Now returns the validation time, defaults to time.Now.
	Now func() time.Time
}

// Check validates the token and returns the entitlement decision.
//
// The revocation ledger and the public key are read on every call.
// A ledger that cannot be loaded rejects the token, and a missing,
// placeholder or undecodable public key rejects the token as well.
// An error is returned only when the public key is not an Ed25519 key.
func (v *Verifier) Check(token string) (Result, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return reject(ReasonNoKey, nil), nil
	}

	revoked, err := LoadRevocations(v.RevocationsFile)
	if err != nil {
		return reject(ReasonRevocationLoadError, nil), nil
	}

	publicKey, err := LoadPublicKey(v.PublicKeyFile)
	if err != nil {
		if errors.Is(err, ErrUnsupportedKeyType) {
			return Result{}, err
		}
		return reject(ReasonMissingPublicKey, nil), nil
	}

	result := Validate(token, publicKey, revoked, v.now())
	if v.AllowLegacyPrefix && result.Reason == ReasonInvalidFormat && !strings.HasPrefix(token, TokenTag) {
		if legacy := ValidateLegacyPrefix(token); legacy.Valid {
			return legacy, nil
		}
	}
	return result, nil
}

func (v *Verifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
