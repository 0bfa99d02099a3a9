// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dictate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
injector:
  backend: xdotool
  typing_delay_ms: 12
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "xdotool", cfg.Injector.Backend)
	assert.Equal(t, 12, cfg.Injector.TypingDelayMS)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Server.ListenAddress, cfg.Server.ListenAddress)
	assert.Equal(t, Default().Provider.Model, cfg.Provider.Model)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
injector:
  backend: telepathy
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "injector: [not a map")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadRejectsBadListenAddress(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "no ports here"
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: warn
`)
	t.Setenv("DICTATE_LOG_LEVEL", "error")
	t.Setenv("DICTATE_MODEL", "qwen2.5:3b")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "qwen2.5:3b", cfg.Provider.Model)
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
}
