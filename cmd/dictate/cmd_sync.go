// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianDictate/services/stream"
)

// syncReadSize matches typical network chunk sizes, exercising the parser's
// fragment buffering the same way a live stream would.
const syncReadSize = 4096

// runSync applies a tagged segment stream from a file or stdin to the
// configured surface. Input is processed incrementally, so piping a live
// stream works the same as reading a saved one.
func runSync(cmd *cobra.Command, args []string) error {
	injector, err := newInjector(cfg.Injector, log)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if len(args) == 1 {
		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open stream file: %w", err)
		}
		defer file.Close()
		in = file
	} else if stdinIsTerminal() {
		log.Info("Reading tagged stream from terminal; finish with Ctrl-D")
	}

	processor := stream.NewProcessor(injector, stream.Options{Logger: log})

	buf := make([]byte, syncReadSize)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if perr := processor.ProcessChunk(string(buf[:n])); perr != nil {
				return fmt.Errorf("apply chunk: %w", perr)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
	}

	if err := processor.EndStream(); err != nil {
		return err
	}

	// The writer backend leaves the cursor at the end of the injected text.
	if cfg.Injector.Backend == "writer" {
		fmt.Println()
	}
	log.Info("Stream applied",
		"segments", processor.Segments(),
		"realized_chars", len([]rune(processor.Realized())))
	return nil
}
