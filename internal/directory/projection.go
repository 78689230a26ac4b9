// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

package directory

import "strings"

// Wildcard selects every known column.
const Wildcard = "*"

// PlanColumns resolves a caller's requested attribute names against the
// known attribute set of an entity and returns a column-list expression
// safe to splice into query text.
//
// An empty request selects everything. Requested names not present in
// known are silently dropped; if nothing survives, the planner degrades to
// the wildcard rather than emitting an empty or invalid column list. The
// output preserves the canonical order of known, so identical inputs always
// produce identical output.
func PlanColumns(known []string, requested []string) string {
	if len(requested) == 0 {
		return Wildcard
	}

	want := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		want[name] = struct{}{}
	}

	cols := make([]string, 0, len(requested))
	for _, name := range known {
		if _, ok := want[name]; ok {
			cols = append(cols, name)
		}
	}
	if len(cols) == 0 {
		return Wildcard
	}
	return strings.Join(cols, ",")
}
