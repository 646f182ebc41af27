// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/google/uuid"
)

// ClaimsVersion is the version of the claims schema written by this package.
const ClaimsVersion = 1

// Plan is the entitlement tier granted by a license.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Plans lists the recognized plans in ascending order of entitlement.
var Plans = []Plan{PlanFree, PlanPro, PlanEnterprise}

// IsValid reports whether p is one of the recognized plans.
func (p Plan) IsValid() bool {
	return slices.Contains(Plans, p)
}

// ParsePlan normalizes s and returns the matching Plan.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlan, s)
	}
	return p, nil
}

// Claims is the signed payload of a license token.
// The JSON tags define the wire names; the encoding that gets
// signed is produced by Canonical.
type Claims struct {
	// Version is the claims schema version.
	Version int `json:"v,omitempty"`

	// ID is the unique identifier (UUID v6) of the token,
	// used as the revocation key.
	ID string `json:"jti,omitempty"`

	// Plan is the entitlement tier.
	Plan Plan `json:"plan,omitempty"`

	// Subject identifies the customer the license is issued to.
	Subject string `json:"sub,omitempty"`

	// IssuedAt is the issuance time in Unix seconds.
	IssuedAt int64 `json:"iat,omitempty"`

	// NotBefore is the time before which the token must be rejected.
	// A nil value means the token is valid from issuance.
	NotBefore *int64 `json:"nbf,omitempty"`

	// Expiry is the time after which the token must be rejected.
	// A nil value means the token never expires.
	Expiry *int64 `json:"exp,omitempty"`

	// Features is the ordered list of capability flags.
	Features []string `json:"features,omitempty"`
}

// NewClaims creates the claims for a new license issued at now.
// It generates a UUID v6 token ID, sets iat and nbf to now and
// exp to now plus validityDays. Empty features are dropped and
// the remaining ones keep their order.
func NewClaims(plan Plan, customer string, validityDays int, features []string, now time.Time) (*Claims, error) {
	if !plan.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlan, plan)
	}
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return nil, ErrCustomerEmpty
	}
	if validityDays < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidValidity, validityDays)
	}

	jti, err := uuid.NewV6()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token ID: %w", err)
	}

	issuedAt := now.Unix()
	expiry := issuedAt + int64(validityDays)*86400

	return &Claims{
		Version:   ClaimsVersion,
		ID:        jti.String(),
		Plan:      plan,
		Subject:   customer,
		IssuedAt:  issuedAt,
		NotBefore: &issuedAt,
		Expiry:    &expiry,
		Features:  normalizeFeatures(features),
	}, nil
}

// Canonical returns the RFC 8785 canonical JSON encoding of the claims:
// keys sorted, no insignificant whitespace. Encoding the same claims
// always yields the same bytes.
func (c *Claims) Canonical() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal claims: %w", err)
	}
	canonical, err := jsoncanonicalizer.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize claims: %w", err)
	}
	return canonical, nil
}

// HasFeature checks if the claims grant the specified feature.
func (c *Claims) HasFeature(feature string) bool {
	return slices.ContainsFunc(c.Features, func(f string) bool {
		return strings.EqualFold(f, feature)
	})
}

// ExpiresAt returns the expiry time, or the zero time if the claims never expire.
func (c *Claims) ExpiresAt() time.Time {
	if c.Expiry == nil {
		return time.Time{}
	}
	return time.Unix(*c.Expiry, 0).UTC()
}

// String returns an indented JSON representation of the claims.
func (c Claims) String() string {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "invalid claims"
	}
	return string(data)
}

// ParseClaims decodes a claims payload. The payload must be valid UTF-8
// holding a single JSON object whose fields match the Claims schema;
// unknown fields and mistyped values are rejected.
func ParseClaims(payload []byte) (*Claims, error) {
	if !utf8.Valid(payload) {
		return nil, errors.New("payload is not valid UTF-8")
	}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("payload is not a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var c Claims
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode claims: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after claims object")
	}
	return &c, nil
}

func normalizeFeatures(features []string) []string {
	var out []string
	for _, f := range features {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
