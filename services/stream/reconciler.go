// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"fmt"

	"github.com/AleutianAI/AleutianDictate/services/inject"
)

// Reconciler owns the realized-text snapshot: the text it believes is
// currently present on the external surface. Each Sync pass compares the
// snapshot against a freshly assembled document and issues at most one
// delete-trailing operation and one insert operation against the injector,
// computed from the first divergent character onward.
//
// All comparison and counting is done over runes, so a backspace count of N
// always means N characters regardless of UTF-8 encoding width.
type Reconciler struct {
	injector inject.Injector
	realized []rune
}

// NewReconciler creates a Reconciler issuing operations to the given
// injector, with an empty realized-text snapshot.
func NewReconciler(injector inject.Injector) *Reconciler {
	return &Reconciler{injector: injector}
}

// Seed sets the realized-text snapshot without issuing any operations.
// Used on reset, when the external surface is assumed to already show the
// seed text.
func (r *Reconciler) Seed(text string) {
	r.realized = []rune(text)
}

// Realized returns the current realized-text snapshot.
func (r *Reconciler) Realized() string {
	return string(r.realized)
}

// Sync brings the surface in line with newText.
//
// With p the longest common prefix of the snapshot and newText: if the
// snapshot is longer than p, one Bksp removes exactly the trailing
// difference; if newText is longer than p, one Emit inserts exactly
// newText[p:]. A pure append therefore issues only the Emit, and a pure
// shrink only the Bksp; a no-op issues nothing at all. Zero-size operations
// are never sent to the injector.
//
// The snapshot is advanced to newText unconditionally, even when an injector
// operation fails: the core has no recovery protocol and never queries the
// surface. A Bksp failure skips the Emit, since inserting after a failed
// delete would interleave old and new text.
func (r *Reconciler) Sync(newText string) error {
	next := []rune(newText)
	p := commonPrefixLen(r.realized, next)

	del := len(r.realized) - p
	ins := next[p:]
	r.realized = next

	if del > 0 {
		if err := r.injector.Bksp(del); err != nil {
			return fmt.Errorf("bksp %d: %w", del, err)
		}
	}
	if len(ins) > 0 {
		if err := r.injector.Emit(string(ins)); err != nil {
			return fmt.Errorf("emit %d chars: %w", len(ins), err)
		}
	}
	return nil
}

// commonPrefixLen returns the length of the longest common prefix of a and
// b, in runes.
func commonPrefixLen(a, b []rune) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
