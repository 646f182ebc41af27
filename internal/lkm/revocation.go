// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// revokedField is the ledger field holding the revoked token IDs.
const revokedField = "revoked_jti"

// RevocationSet is the set of revoked token IDs.
type RevocationSet map[string]struct{}

// NewRevocationSet creates a RevocationSet holding the given token IDs.
func NewRevocationSet(ids ...string) RevocationSet {
	set := make(RevocationSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has checks if the token ID is revoked. A nil set revokes nothing.
func (r RevocationSet) Has(id string) bool {
	_, ok := r[id]
	return ok
}

// Len returns the number of revoked token IDs.
func (r RevocationSet) Len() int {
	return len(r)
}

// Sorted returns the revoked token IDs in ascending order.
func (r RevocationSet) Sorted() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// LoadRevocations reads the revocation ledger at path.
//
// A missing file is an empty set. A ledger that cannot be read, is not
// a JSON object, or whose revoked_jti field is not a list of strings
// returns an error wrapping ErrRevocationLoad, and the caller must
// treat every token as rejected.
func LoadRevocations(path string) (RevocationSet, error) {
	set, _, err := readLedger(path)
	return set, err
}

// Revoke adds the token ID to the ledger at path, creating the ledger
// if it does not exist. The IDs are written sorted and de-duplicated,
// other fields of the ledger are kept. It reports whether the ID was added;
// revoking an ID twice leaves the ledger untouched.
func Revoke(path, jti string) (bool, error) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return false, ErrJTIEmpty
	}

	set, doc, err := readLedger(path)
	if err != nil {
		return false, err
	}
	if set.Has(jti) {
		return false, nil
	}
	set[jti] = struct{}{}

	ids, err := json.Marshal(set.Sorted())
	if err != nil {
		return false, fmt.Errorf("failed to marshal revocation list: %w", err)
	}
	doc[revokedField] = ids

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal revocation ledger: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create revocation ledger directory: %w", err)
	}
	if err := writeFileAtomic(path, data, publicKeyPermissions, true); err != nil {
		return false, fmt.Errorf("failed to write revocation ledger: %w", err)
	}
	return true, nil
}

// readLedger returns the revoked IDs and the raw top-level fields of the ledger.
func readLedger(path string) (RevocationSet, map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RevocationSet{}, map[string]json.RawMessage{}, nil
		}
		return nil, nil, revocationLoadError(path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil, revocationLoadError(path, errors.New("ledger is not a JSON object"))
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, nil, revocationLoadError(path, err)
	}

	set := RevocationSet{}
	raw, ok := doc[revokedField]
	if !ok || string(raw) == "null" {
		return set, doc, nil
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, nil, revocationLoadError(path, fmt.Errorf("%s must be a list of strings: %w", revokedField, err))
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, doc, nil
}
