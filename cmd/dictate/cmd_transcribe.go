// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianDictate/services/session"
	"github.com/AleutianAI/AleutianDictate/services/transcribe"
)

// runTranscribe reads utterances line by line, sends each to the configured
// model, and applies the streamed tagged response to the surface. The
// document persists across utterances, so later lines can revise earlier
// ones ("change slow to quick").
func runTranscribe(cmd *cobra.Command, args []string) error {
	mode := transcribe.Mode(modeFlag)
	switch mode {
	case transcribe.ModeDictate, transcribe.ModeEdit:
	default:
		return fmt.Errorf("unknown mode %q (want dictate or edit)", modeFlag)
	}

	injector, err := newInjector(cfg.Injector, log)
	if err != nil {
		return err
	}
	provider, err := transcribe.NewOpenAIProvider(log, cfg.Provider)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := session.New(log, provider, injector)
	log.Info("Transcription session started",
		"session_id", sess.ID(),
		"model", cfg.Provider.Model,
		"mode", string(mode))

	interactive := stdinIsTerminal()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Fprint(os.Stderr, "> ")
		}
		if !scanner.Scan() {
			break
		}
		utterance := strings.TrimSpace(scanner.Text())
		if utterance == "" {
			continue
		}

		if err := sess.Transcribe(ctx, mode, utterance); err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Error("Utterance failed", "error", err)
			continue
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read utterances: %w", err)
	}

	log.Info("Transcription session ended", "session_id", sess.ID())
	return nil
}
