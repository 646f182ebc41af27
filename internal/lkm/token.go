// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// TokenTag is the literal first segment of every license token.
// It doubles as the format version gate.
const TokenTag = "SSDL1"

const tokenSeparator = "."

// tokenEncoding is base64url without padding. Strict decoding rejects
// non-zero trailing bits, so every byte string has exactly one encoding.
var tokenEncoding = base64.RawURLEncoding.Strict()

// SignClaims canonically encodes the claims, signs the encoding with the
// Ed25519 private key and returns the license token.
func SignClaims(claims *Claims, privateKey ed25519.PrivateKey) (string, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return "", ErrPrivateKeyRequired
	}

	payload, err := claims.Canonical()
	if err != nil {
		return "", err
	}

	signature := ed25519.Sign(privateKey, payload)
	return EncodeToken(payload, signature), nil
}

// EncodeToken joins the payload and signature under the token tag.
func EncodeToken(payload, signature []byte) string {
	return strings.Join([]string{
		TokenTag,
		tokenEncoding.EncodeToString(payload),
		tokenEncoding.EncodeToString(signature),
	}, tokenSeparator)
}

// splitToken returns the encoded payload and signature parts of a token.
// It fails if the token does not have exactly three parts or the first
// part is not the token tag.
func splitToken(token string) (payload, signature string, ok bool) {
	parts := strings.Split(token, tokenSeparator)
	if len(parts) != 3 || parts[0] != TokenTag {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// decodeSegment decodes a base64url token segment. Padding and line
// breaks are rejected, the decoder would otherwise skip the latter.
func decodeSegment(segment string) ([]byte, error) {
	if strings.ContainsAny(segment, "=\r\n") {
		return nil, errors.New("segment contains padding or line breaks")
	}
	return tokenEncoding.DecodeString(segment)
}

// DecodeToken splits a token and decodes its payload and signature
// without verifying the signature.
func DecodeToken(token string) (payload, signature []byte, err error) {
	payloadPart, signaturePart, ok := splitToken(token)
	if !ok {
		return nil, nil, fmt.Errorf("%w: expected %s.<payload>.<signature>", ErrParseToken, TokenTag)
	}
	if payload, err = decodeSegment(payloadPart); err != nil {
		return nil, nil, fmt.Errorf("%w: payload: %w", ErrParseToken, err)
	}
	if signature, err = decodeSegment(signaturePart); err != nil {
		return nil, nil, fmt.Errorf("%w: signature: %w", ErrParseToken, err)
	}
	return payload, signature, nil
}

// UnverifiedClaims extracts the claims from a token without verifying
// the signature. The result must not be used for authorization; it
// serves operator tooling such as revocation and inspection.
func UnverifiedClaims(token string) (*Claims, error) {
	payload, _, err := DecodeToken(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	claims, err := ParseClaims(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseToken, err)
	}
	return claims, nil
}

// ExtractJTI returns the token ID of a license token without
// verifying the signature.
func ExtractJTI(token string) (string, error) {
	claims, err := UnverifiedClaims(token)
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", ErrJTIEmpty
	}
	return claims.ID, nil
}
