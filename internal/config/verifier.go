// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"sigs.k8s.io/yaml"
)

const (
	// DefaultPublicKeyFile is the default path of the license public key.
	DefaultPublicKeyFile = "public_key.pem"

	// DefaultRevocationsFile is the default path of the revocation ledger.
	DefaultRevocationsFile = "revocations.json"

	// DefaultLicenseEnv is the default environment variable holding the license token.
	DefaultLicenseEnv = "LICENSE_KEY"

	// PublicKeyFileEnvKey overrides the public key path.
	PublicKeyFileEnvKey = "SSDL_PUBLIC_KEY_FILE"

	// RevocationsFileEnvKey overrides the revocation ledger path.
	RevocationsFileEnvKey = "SSDL_REVOCATIONS_FILE"

	// AllowLegacyPrefixEnvKey enables the legacy key fallback.
	AllowLegacyPrefixEnvKey = "SSDL_ALLOW_LEGACY_PREFIX"

	// LicenseEnvEnvKey overrides the name of the license token variable.
	LicenseEnvEnvKey = "SSDL_LICENSE_ENV"
)

// LookupEnvFunc retrieves the value of an environment variable,
// with the same semantics as os.LookupEnv.
type LookupEnvFunc func(key string) (string, bool)

// Verifier holds the configuration of the license verifier.
type Verifier struct {
	// PublicKeyFile is the path of the PEM or JWKS public key.
	PublicKeyFile string `json:"publicKeyFile,omitempty"`

	// RevocationsFile is the path of the revocation ledger.
	RevocationsFile string `json:"revocationsFile,omitempty"`

	// AllowLegacyPrefix enables the unsigned ENT-/PRO- key fallback.
	AllowLegacyPrefix bool `json:"allowLegacyPrefix,omitempty"`

	// LicenseEnv is the name of the environment variable holding the token.
	LicenseEnv string `json:"licenseEnv,omitempty"`
}

// DefaultVerifier returns the verifier configuration defaults.
func DefaultVerifier() *Verifier {
	return &Verifier{
		PublicKeyFile:   DefaultPublicKeyFile,
		RevocationsFile: DefaultRevocationsFile,
		LicenseEnv:      DefaultLicenseEnv,
	}
}

// LoadVerifier builds the verifier configuration from the defaults,
// the optional YAML file at path and the environment, in that order
// of precedence.
func LoadVerifier(path string, lookup LookupEnvFunc) (*Verifier, error) {
	cfg := DefaultVerifier()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.Merge(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if lookup != nil {
		if err := cfg.ApplyEnv(lookup); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Merge overlays the fields set in the YAML document onto the configuration.
// Unknown fields are rejected.
func (v *Verifier) Merge(data []byte) error {
	return yaml.UnmarshalStrict(data, v)
}

// ApplyEnv overlays the fields set in the environment onto the configuration.
func (v *Verifier) ApplyEnv(lookup LookupEnvFunc) error {
	if val, ok := nonEmpty(lookup, PublicKeyFileEnvKey); ok {
		v.PublicKeyFile = val
	}
	if val, ok := nonEmpty(lookup, RevocationsFileEnvKey); ok {
		v.RevocationsFile = val
	}
	if val, ok := nonEmpty(lookup, LicenseEnvEnvKey); ok {
		v.LicenseEnv = val
	}
	if val, ok := nonEmpty(lookup, AllowLegacyPrefixEnvKey); ok {
		allow, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", AllowLegacyPrefixEnvKey, val, err)
		}
		v.AllowLegacyPrefix = allow
	}
	return nil
}

// Validate checks that the required fields are set.
func (v *Verifier) Validate() error {
	if v.PublicKeyFile == "" {
		return fmt.Errorf("publicKeyFile is required")
	}
	if v.RevocationsFile == "" {
		return fmt.Errorf("revocationsFile is required")
	}
	if v.LicenseEnv == "" {
		return fmt.Errorf("licenseEnv is required")
	}
	return nil
}

func nonEmpty(lookup LookupEnvFunc, key string) (string, bool) {
	val, ok := lookup(key)
	val = strings.TrimSpace(val)
	return val, ok && val != ""
}
