// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package transcribe produces the tagged segment stream that drives the sync
// engine: it sends an utterance (plus the current segment state) to a
// language model and streams the model's numbered-segment response back
// chunk by chunk.
package transcribe

import (
	"context"
	"errors"
)

// ErrNotConfigured indicates a provider is missing required configuration,
// such as a model name or endpoint.
var ErrNotConfigured = errors.New("transcription provider not configured")

// StreamCallback receives raw response chunks as the model generates them.
// Chunks are delivered in order and may split a segment tag at any byte;
// the downstream parser buffers partial fragments. Return an error to abort
// the stream.
type StreamCallback func(chunk string) error

// Request carries one utterance to transcribe.
type Request struct {
	// Mode selects the instruction set (dictation vs editing).
	Mode Mode

	// Utterance is the user's spoken or typed input.
	Utterance string

	// CurrentSegments is the tagged representation of the document so far,
	// so the model can continue IDs and address existing segments. Empty
	// for a fresh document.
	CurrentSegments string
}

// Provider streams tagged segment output for an utterance.
//
// Implementations must call the callback from a single goroutine and in
// generation order.
type Provider interface {
	StreamTranscription(ctx context.Context, req Request, callback StreamCallback) error
}
