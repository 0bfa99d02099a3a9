// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/AleutianDictate/pkg/config"
	"github.com/AleutianAI/AleutianDictate/pkg/logging"
	"github.com/AleutianAI/AleutianDictate/services/inject"
)

// newInjector builds the configured output backend.
func newInjector(cfg config.InjectorConfig, log *logging.Logger) (inject.Injector, error) {
	switch cfg.Backend {
	case "xdotool":
		return inject.NewXdotool(log, cfg.TypingDelayMS)
	case "writer":
		return inject.NewWriter(os.Stdout), nil
	default:
		return nil, fmt.Errorf("unknown injector backend %q", cfg.Backend)
	}
}

// stdinIsTerminal reports whether stdin is attached to a terminal rather
// than a pipe or file.
func stdinIsTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}
