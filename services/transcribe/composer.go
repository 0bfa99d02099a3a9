// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package transcribe

import (
	"embed"
	"fmt"
	"strings"
	"sync"
)

//go:embed instructions
var instructionFiles embed.FS

// Mode selects which instruction set drives the model.
type Mode string

const (
	// ModeDictate transcribes speech into new segments.
	ModeDictate Mode = "dictate"

	// ModeEdit applies spoken editing instructions to existing segments.
	ModeEdit Mode = "edit"
)

// Composer assembles the system prompt from modular instruction files:
// a required core plus one required mode file. Loaded files are cached for
// the life of the composer.
type Composer struct {
	mu    sync.Mutex
	cache map[string]string
}

// NewComposer creates a composer over the embedded instruction files.
func NewComposer() *Composer {
	return &Composer{cache: make(map[string]string)}
}

// Compose returns the system prompt for mode.
func (c *Composer) Compose(mode Mode) (string, error) {
	core, err := c.load("instructions/core.md")
	if err != nil {
		return "", fmt.Errorf("core instructions: %w", err)
	}

	modeContent, err := c.load(fmt.Sprintf("instructions/modes/%s.md", mode))
	if err != nil {
		return "", fmt.Errorf("mode instructions for %q: %w", mode, err)
	}

	return core + "\n\n" + modeContent, nil
}

func (c *Composer) load(path string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if content, ok := c.cache[path]; ok {
		return content, nil
	}
	data, err := instructionFiles.ReadFile(path)
	if err != nil {
		return "", err
	}
	content := strings.TrimRight(string(data), "\n")
	c.cache[path] = content
	return content, nil
}
