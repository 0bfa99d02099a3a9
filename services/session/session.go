// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package session coordinates one dictation session: it feeds utterances to
// a transcription provider and pipes the provider's tagged segment stream
// into the sync processor, which drives the injector.
package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianDictate/pkg/logging"
	"github.com/AleutianAI/AleutianDictate/services/inject"
	"github.com/AleutianAI/AleutianDictate/services/stream"
	"github.com/AleutianAI/AleutianDictate/services/transcribe"
)

// chunkBufferSize decouples provider network reads from injector latency.
const chunkBufferSize = 16

// Session owns the document state for one dictation session. Utterances are
// processed one at a time; segment identifiers and the realized-text
// snapshot persist across utterances so later edits address earlier content.
//
// Not safe for concurrent use; callers serialize Transcribe calls.
type Session struct {
	id        string
	log       *logging.Logger
	provider  transcribe.Provider
	processor *stream.Processor
}

// New creates a session with a fresh document.
func New(log *logging.Logger, provider transcribe.Provider, injector inject.Injector) *Session {
	id := uuid.New().String()
	log = log.With("session_id", id)
	return &Session{
		id:        id,
		log:       log,
		provider:  provider,
		processor: stream.NewProcessor(injector, stream.Options{Logger: log}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Transcribe sends one utterance to the provider and applies the streamed
// response to the surface as it arrives. The provider runs in its own
// goroutine; chunks cross to the synchronous sync core over a buffered
// channel so a slow injector backpressures the network read.
func (s *Session) Transcribe(ctx context.Context, mode transcribe.Mode, utterance string) error {
	req := transcribe.Request{
		Mode:            mode,
		Utterance:       utterance,
		CurrentSegments: s.processor.TaggedSnapshot(),
	}

	chunks := make(chan string, chunkBufferSize)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chunks)
		return s.provider.StreamTranscription(ctx, req, func(chunk string) error {
			select {
			case chunks <- chunk:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	g.Go(func() error {
		received := false
		for chunk := range chunks {
			received = true
			if err := s.processor.ProcessChunk(chunk); err != nil {
				return fmt.Errorf("apply chunk: %w", err)
			}
		}
		// An empty response against an already-ended stream has nothing
		// to finalize.
		if !received && s.processor.Closed() {
			return nil
		}
		return s.processor.EndStream()
	})

	if err := g.Wait(); err != nil {
		return err
	}

	s.log.Info("Utterance applied",
		"mode", string(mode),
		"realized_chars", len([]rune(s.processor.Realized())))
	return nil
}

// Apply feeds raw tagged-segment text straight into the sync core, without
// involving the provider. Used by the websocket ingest path, where the
// producer is remote.
func (s *Session) Apply(chunk string) error {
	return s.processor.ProcessChunk(chunk)
}

// EndStream finalizes the current raw stream.
func (s *Session) EndStream() error {
	return s.processor.EndStream()
}

// Reset discards the document and starts fresh. No injector operations are
// issued; the surface is assumed to match the (empty) seed.
func (s *Session) Reset() {
	s.processor.Reset(nil)
	s.log.Info("Session reset")
}

// Realized returns the text the session believes is on the surface.
func (s *Session) Realized() string {
	return s.processor.Realized()
}
