// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"fmt"
	"slices"
	"strings"
)

// SegmentStore holds the live segments of one logical document, keyed by
// their numeric identifier. Document order is strictly the ascending numeric
// order of identifiers, independent of arrival or mutation order.
//
// An empty text value means "absent": applying empty text removes the
// segment. The store never holds empty segments.
//
// # Thread Safety
//
// Not safe for concurrent use. A SegmentStore is owned by exactly one
// Processor, which is itself single-threaded.
type SegmentStore struct {
	segments map[int64]string
}

// NewSegmentStore creates a store seeded with the given identifier-to-text
// mapping. The mapping is copied; entries with empty text are dropped.
func NewSegmentStore(initial map[int64]string) *SegmentStore {
	s := &SegmentStore{segments: make(map[int64]string, len(initial))}
	for id, text := range initial {
		if text != "" {
			s.segments[id] = text
		}
	}
	return s
}

// Apply inserts or overwrites the segment with the given identifier.
// Empty text removes the segment; removal of an absent segment is a no-op.
func (s *SegmentStore) Apply(id int64, text string) {
	if text == "" {
		delete(s.segments, id)
		return
	}
	s.segments[id] = text
}

// Get returns the text of a segment and whether it is present.
func (s *SegmentStore) Get(id int64) (string, bool) {
	text, ok := s.segments[id]
	return text, ok
}

// Len returns the number of present segments.
func (s *SegmentStore) Len() int {
	return len(s.segments)
}

// Tagged renders the store back to wire form: every present segment as
// <ID>content</ID> in ascending identifier order, content entity-escaped.
// Round-trips through the parser to an equivalent store.
func (s *SegmentStore) Tagged() string {
	if len(s.segments) == 0 {
		return ""
	}

	ids := make([]int64, 0, len(s.segments))
	for id := range s.segments {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "<%d>%s</%d>", id, encodeEntities(s.segments[id]), id)
	}
	return b.String()
}

// Assemble returns the concatenation of all present segments' text in
// ascending identifier order. Pure: safe to call any number of times.
func (s *SegmentStore) Assemble() string {
	if len(s.segments) == 0 {
		return ""
	}

	ids := make([]int64, 0, len(s.segments))
	for id := range s.segments {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var b strings.Builder
	for _, id := range ids {
		b.WriteString(s.segments[id])
	}
	return b.String()
}
