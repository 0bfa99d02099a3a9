// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package inject

import (
	"fmt"
	"os/exec"
	"strconv"

	"github.com/AleutianAI/AleutianDictate/pkg/logging"
)

// DefaultTypingDelayMS is the per-keystroke delay passed to xdotool type.
// Some toolkits drop keystrokes when synthetic events arrive with no delay.
const DefaultTypingDelayMS = 5

// Xdotool injects keystrokes into the focused X11 window by shelling out to
// the xdotool utility (Linux only). Bksp repeats the BackSpace key; Emit
// uses "xdotool type", which handles arbitrary UTF-8 text.
//
// Each operation is one subprocess invocation and runs to completion before
// returning, preserving the in-order execution the sync core relies on.
type Xdotool struct {
	log *logging.Logger

	// typingDelayMS is the --delay value for xdotool type.
	typingDelayMS int

	// runner executes a command and returns its combined output; replaced
	// in tests.
	runner func(name string, args ...string) ([]byte, error)
}

// NewXdotool creates an xdotool-backed injector. delayMS <= 0 selects
// DefaultTypingDelayMS. Returns an error when the xdotool binary is not on
// PATH, so misconfiguration surfaces at startup rather than mid-dictation.
func NewXdotool(log *logging.Logger, delayMS int) (*Xdotool, error) {
	if _, err := exec.LookPath("xdotool"); err != nil {
		return nil, fmt.Errorf("xdotool not found on PATH (install it, e.g. apt-get install xdotool): %w", err)
	}
	if delayMS <= 0 {
		delayMS = DefaultTypingDelayMS
	}
	return &Xdotool{
		log:           log,
		typingDelayMS: delayMS,
		runner: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).CombinedOutput()
		},
	}, nil
}

// Bksp sends count BackSpace key presses.
func (x *Xdotool) Bksp(count int) error {
	out, err := x.runner("xdotool", "key", "--repeat", strconv.Itoa(count), "--delay", strconv.Itoa(x.typingDelayMS), "BackSpace")
	if err != nil {
		x.log.Error("xdotool backspace failed", "count", count, "output", string(out), "error", err)
		return fmt.Errorf("xdotool key BackSpace x%d: %w", count, err)
	}
	return nil
}

// Emit types text into the focused window.
func (x *Xdotool) Emit(text string) error {
	out, err := x.runner("xdotool", "type", "--delay", strconv.Itoa(x.typingDelayMS), "--", text)
	if err != nil {
		x.log.Error("xdotool type failed", "chars", len([]rune(text)), "output", string(out), "error", err)
		return fmt.Errorf("xdotool type %d chars: %w", len([]rune(text)), err)
	}
	return nil
}
