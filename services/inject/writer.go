// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package inject

import (
	"fmt"
	"io"
	"strings"
)

// Writer renders injector operations onto an io.Writer. On a terminal,
// Bksp is rendered as the "\b \b" erase sequence so corrections are visible
// in place; Emit writes the text verbatim. Useful for dry runs, demos, and
// piping the realized text into another program.
type Writer struct {
	w io.Writer
}

// NewWriter creates a Writer injector targeting w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Bksp erases count characters with backspace-space-backspace sequences.
func (t *Writer) Bksp(count int) error {
	if _, err := io.WriteString(t.w, strings.Repeat("\b \b", count)); err != nil {
		return fmt.Errorf("write erase sequence: %w", err)
	}
	return nil
}

// Emit writes text verbatim.
func (t *Writer) Emit(text string) error {
	if _, err := io.WriteString(t.w, text); err != nil {
		return fmt.Errorf("write text: %w", err)
	}
	return nil
}
