// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package lkm (License Key Management) provides the license token lifecycle
// for SSDL tiered entitlements: key generation and protection, claims
// encoding and signing, verification and revocation.
//
// The lkm package is built on the following primitives:
//
//   - Ed25519 digital signatures, the only supported algorithm
//   - PKIX and PKCS#8 PEM key blocks, compatible with OpenSSL tooling
//   - age scrypt passphrase encryption for private keys at rest
//   - RFC 8785 JSON canonicalization for reproducible signed payloads
//   - JSON Web Key (JWK) sets for public key distribution
//   - UUID v6 for unique, chronologically sortable token identifiers
//
// A license token has the form:
//
//	SSDL1.<base64url(payload)>.<base64url(signature)>
//
// where the payload is the canonical JSON encoding of the Claims and the
// signature is the Ed25519 signature over the exact payload bytes. Both
// encoded parts use base64url without padding.
//
// Verification is a fixed pipeline (format, encoding, signature, payload,
// plan, expiry, not-before, revocation) that returns a Result instead of an
// error; Go errors are reserved for configuration and I/O failures. Claims
// are only reported back once the signature has been verified and any
// invalid result degrades the tier to free.
//
// The revocation ledger is a JSON file holding the revoked token IDs.
// A ledger that exists but cannot be parsed fails closed: every token is
// rejected until the file is repaired.
//
// The lkm package does not read the process environment; callers resolve
// passphrases, tokens and paths and pass them in explicitly.
package lkm
