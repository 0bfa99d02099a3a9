// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"strconv"
	"strings"
)

// The wire subset is repeated units of the form <ID>content</ID'> where ID
// and ID' are ASCII decimal non-negative integers compared by numeric value.
// No attributes, namespaces, or nesting. The parser is an explicit
// carried-buffer scan: it extracts complete units and leaves everything
// else (partial tags, unrecognized junk) buffered, because more text may
// turn it into a parseable unit. Decoding of entities happens on extracted
// content only, so a decoded '<' can never create a phantom tag.

// update is one parsed segment mutation: empty text means deletion.
type update struct {
	id   int64
	text string
}

type markerStatus int

const (
	// markerOK: a complete, valid marker was parsed.
	markerOK markerStatus = iota
	// markerIncomplete: the buffer ends mid-marker; more text may complete it.
	markerIncomplete
	// markerInvalid: this position can never start a valid marker.
	markerInvalid
)

// parseMarker parses an open ("<12>") or close ("</12>") marker starting at
// s[i], which must be '<'. It returns the identifier and the index just past
// the '>' terminator.
func parseMarker(s string, i int, closing bool) (id int64, end int, status markerStatus) {
	j := i + 1
	if closing {
		if j >= len(s) {
			return 0, 0, markerIncomplete
		}
		if s[j] != '/' {
			return 0, 0, markerInvalid
		}
		j++
	}

	digitsStart := j
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == digitsStart {
		if j >= len(s) {
			return 0, 0, markerIncomplete
		}
		return 0, 0, markerInvalid
	}
	if j >= len(s) {
		return 0, 0, markerIncomplete
	}
	if s[j] != '>' {
		return 0, 0, markerInvalid
	}

	id, err := strconv.ParseInt(s[digitsStart:j], 10, 64)
	if err != nil {
		// Identifier too large for int64: treat the marker as malformed.
		return 0, 0, markerInvalid
	}
	return id, j + 1, markerOK
}

// nextUnit finds the first complete unit in s. On success it returns the
// decoded update and the remainder after the close marker. On failure it
// returns s unchanged so the caller keeps the whole buffer, including any
// unrecognized leading content.
//
// The close marker is the first "</" digits ">" occurrence after the open
// marker; a disagreeing close identifier is tolerated, reported to diag, and
// the opening identifier is authoritative.
func nextUnit(s string, diag DiagnosticSink) (update, string, bool) {
	pos := 0
	for {
		lt := strings.IndexByte(s[pos:], '<')
		if lt < 0 {
			return update{}, s, false
		}
		lt += pos

		openID, contentStart, st := parseMarker(s, lt, false)
		if st == markerIncomplete {
			return update{}, s, false
		}
		if st == markerInvalid {
			pos = lt + 1
			continue
		}

		cpos := contentStart
		for {
			rel := strings.Index(s[cpos:], "</")
			if rel < 0 {
				// The close marker may still arrive in a later chunk.
				return update{}, s, false
			}
			closeStart := cpos + rel

			closeID, unitEnd, cst := parseMarker(s, closeStart, true)
			if cst == markerIncomplete {
				return update{}, s, false
			}
			if cst == markerInvalid {
				cpos = closeStart + 1
				continue
			}

			if closeID != openID {
				diag.TagMismatch(openID, closeID)
			}
			content := decodeEntities(s[contentStart:closeStart])
			return update{id: openID, text: content}, s[unitEnd:], true
		}
	}
}

// extractUnits repeatedly extracts complete units from buf until no further
// complete unit can be found, returning the decoded updates in wire order
// and the unconsumed remainder.
func extractUnits(buf string, diag DiagnosticSink) ([]update, string) {
	var updates []update
	rest := buf
	for {
		u, remaining, ok := nextUnit(rest, diag)
		if !ok {
			return updates, remaining
		}
		updates = append(updates, u)
		rest = remaining
	}
}
