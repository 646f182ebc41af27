// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package lkm

import (
	"strings"

	"github.com/google/uuid"
)

// legacyPrefixes maps the prefixes of unsigned legacy keys to their plan.
var legacyPrefixes = []struct {
	prefix string
	plan   Plan
}{
	{"ENT-", PlanEnterprise},
	{"PRO-", PlanPro},
}

// ValidateLegacyPrefix grants a tier to an unsigned legacy key based on its
// prefix, ENT- for enterprise and PRO- for pro, ignoring case.
// No signature is checked. The claims carry a random token ID since
// legacy keys have none.
func ValidateLegacyPrefix(key string) Result {
	upper := strings.ToUpper(key)
	for _, lp := range legacyPrefixes {
		if !strings.HasPrefix(upper, lp.prefix) {
			continue
		}
		return Result{
			Valid:  true,
			Tier:   lp.plan,
			Reason: ReasonLegacyPrefix,
			Claims: &Claims{
				ID:   uuid.NewString(),
				Plan: lp.plan,
			},
		}
	}
	return reject(ReasonUnknownLegacyKey, nil)
}
