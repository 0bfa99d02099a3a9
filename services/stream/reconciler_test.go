// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianDictate/services/inject"
)

func TestSyncPrefixMinimality(t *testing.T) {
	cases := []struct {
		name    string
		old     string
		new     string
		wantOps []inject.Op
	}{
		{
			name:    "identical text issues nothing",
			old:     "same",
			new:     "same",
			wantOps: nil,
		},
		{
			name:    "pure append issues only emit",
			old:     "Hello ",
			new:     "Hello world",
			wantOps: []inject.Op{{Kind: "emit", Text: "world"}},
		},
		{
			name:    "pure shrink issues only bksp",
			old:     "Hello world",
			new:     "Hello",
			wantOps: []inject.Op{{Kind: "bksp", Count: 6}},
		},
		{
			name: "divergence issues exactly one pair",
			old:  "The quick brown fox",
			new:  "The quick red fox",
			wantOps: []inject.Op{
				{Kind: "bksp", Count: 9},
				{Kind: "emit", Text: "red fox"},
			},
		},
		{
			name:    "empty to text",
			old:     "",
			new:     "text",
			wantOps: []inject.Op{{Kind: "emit", Text: "text"}},
		},
		{
			name:    "text to empty",
			old:     "text",
			new:     "",
			wantOps: []inject.Op{{Kind: "bksp", Count: 4}},
		},
		{
			name:    "both empty",
			old:     "",
			new:     "",
			wantOps: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &inject.Recorder{}
			rec.Seed(tc.old)
			r := NewReconciler(rec)
			r.Seed(tc.old)

			require.NoError(t, r.Sync(tc.new))
			assert.Equal(t, tc.wantOps, rec.Ops)
			assert.Equal(t, tc.new, rec.Surface())
			assert.Equal(t, tc.new, r.Realized())
		})
	}
}

func TestSyncSecondPassIsSilent(t *testing.T) {
	rec := &inject.Recorder{}
	r := NewReconciler(rec)

	require.NoError(t, r.Sync("stable text"))
	n := len(rec.Ops)
	require.NoError(t, r.Sync("stable text"))
	assert.Len(t, rec.Ops, n)
}

func TestSeedDoesNotTouchInjector(t *testing.T) {
	rec := &inject.Recorder{}
	r := NewReconciler(rec)

	r.Seed("pre-existing surface text")
	assert.Empty(t, rec.Ops)
	assert.Equal(t, "pre-existing surface text", r.Realized())
}

// failingInjector fails every operation, for snapshot-advance semantics.
type failingInjector struct {
	calls []string
}

func (f *failingInjector) Bksp(count int) error {
	f.calls = append(f.calls, "bksp")
	return errors.New("surface unavailable")
}

func (f *failingInjector) Emit(text string) error {
	f.calls = append(f.calls, "emit")
	return errors.New("surface unavailable")
}

func TestSyncAdvancesSnapshotOnInjectorFailure(t *testing.T) {
	inj := &failingInjector{}
	r := NewReconciler(inj)
	r.Seed("old text")

	err := r.Sync("new text")
	require.Error(t, err)

	// Snapshot advanced anyway: the core has no recovery protocol.
	assert.Equal(t, "new text", r.Realized())
	// A failed delete skips the insert.
	assert.Equal(t, []string{"bksp"}, inj.calls)
}

func TestCommonPrefixLen(t *testing.T) {
	assert.Equal(t, 0, commonPrefixLen([]rune("abc"), []rune("xyz")))
	assert.Equal(t, 3, commonPrefixLen([]rune("abc"), []rune("abc")))
	assert.Equal(t, 2, commonPrefixLen([]rune("abc"), []rune("abX")))
	assert.Equal(t, 0, commonPrefixLen(nil, []rune("a")))
	assert.Equal(t, 1, commonPrefixLen([]rune("é1"), []rune("é2")))
}
