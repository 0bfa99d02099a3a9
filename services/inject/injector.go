// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package inject defines the injection boundary of the sync engine and its
// backends: the two primitive mutations a text surface must support, plus
// implementations for terminals/pipes (Writer), X11 desktops (Xdotool), and
// tests (Recorder).
package inject

// Injector performs the two primitive mutations on an external text surface.
// The sync core trusts that every operation it issues is executed in order
// and in full; it never queries surface state.
//
// Implementations are surface-specific (keyboard injection, terminal writes,
// remote agents). They must be interchangeable behind this interface.
type Injector interface {
	// Bksp removes count characters immediately before the cursor.
	// count is always positive; the core never issues zero-size operations.
	Bksp(count int) error

	// Emit inserts text at the cursor; the cursor advances past it.
	// text is always non-empty.
	Emit(text string) error
}

// Op records one injector operation, for test doubles and for the wire
// protocol of remote surfaces.
type Op struct {
	// Kind is "bksp" or "emit".
	Kind string `json:"kind"`

	// Count is the character count for bksp operations.
	Count int `json:"count,omitempty"`

	// Text is the inserted text for emit operations.
	Text string `json:"text,omitempty"`
}

// Recorder is an Injector test double. It appends every operation to Ops
// and replays them onto an internal buffer so tests can assert both the
// exact operation sequence and the resulting surface text.
//
// Not safe for concurrent use; intended for single-threaded tests.
type Recorder struct {
	Ops     []Op
	surface []rune
}

// Bksp removes count characters from the end of the surface buffer.
func (r *Recorder) Bksp(count int) error {
	r.Ops = append(r.Ops, Op{Kind: "bksp", Count: count})
	if count > len(r.surface) {
		count = len(r.surface)
	}
	r.surface = r.surface[:len(r.surface)-count]
	return nil
}

// Emit appends text to the surface buffer.
func (r *Recorder) Emit(text string) error {
	r.Ops = append(r.Ops, Op{Kind: "emit", Text: text})
	r.surface = append(r.surface, []rune(text)...)
	return nil
}

// Surface returns the current surface text.
func (r *Recorder) Surface() string {
	return string(r.surface)
}

// Reset clears recorded operations and the surface buffer.
func (r *Recorder) Reset() {
	r.Ops = nil
	r.surface = nil
}

// Seed sets the surface buffer without recording an operation, mirroring a
// surface that already shows text before a stream starts.
func (r *Recorder) Seed(text string) {
	r.surface = []rune(text)
}
