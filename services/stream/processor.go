// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stream reconciles a live, incrementally revised logical document,
// delivered as a stream of numbered text segments, with an external text
// surface. It never re-types unchanged content: each pass issues at most one
// delete-trailing operation and one insert operation through the inject
// boundary, computed from the first divergent character.
//
// One Processor owns exactly one stream: its segment store, pending wire
// fragment, and realized-text snapshot are instance fields, so independent
// streams run as independent Processor values with no shared state.
//
// # Concurrency
//
// Processor methods are synchronous and run to completion; there are no
// timers or background tasks. A single Processor must not be used from
// multiple goroutines without external serialization.
package stream

import (
	"errors"

	"github.com/AleutianAI/AleutianDictate/pkg/logging"
	"github.com/AleutianAI/AleutianDictate/services/inject"
)

// ErrStreamClosed is returned by EndStream when the stream has already
// ended. Reset re-arms the processor for a new stream.
var ErrStreamClosed = errors.New("stream already ended; call Reset to start a new stream")

// Options configures optional Processor collaborators. The zero value is
// valid: diagnostics go to a default logger.
type Options struct {
	// Logger receives debug and diagnostic output. Defaults to
	// logging.Default().
	Logger *logging.Logger

	// Diagnostics receives tolerated-anomaly reports. Defaults to a sink
	// that writes one warning line per anomaly through Logger.
	Diagnostics DiagnosticSink
}

// Processor is the synchronization engine: streaming tag parser, segment
// store, and reconciler behind a three-method surface (Reset, ProcessChunk,
// EndStream). Malformed input never produces an error; the only error
// conditions are caller misuse (ErrStreamClosed) and injector failures.
type Processor struct {
	log  *logging.Logger
	diag DiagnosticSink

	store      *SegmentStore
	reconciler *Reconciler
	pending    string
	closed     bool
}

// NewProcessor creates a Processor issuing operations to the given injector,
// with an empty document and snapshot. Equivalent to following up with
// Reset(nil).
func NewProcessor(injector inject.Injector, opts Options) *Processor {
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}
	diag := opts.Diagnostics
	if diag == nil {
		diag = NewLogSink(log)
	}
	return &Processor{
		log:        log,
		diag:       diag,
		store:      NewSegmentStore(nil),
		reconciler: NewReconciler(injector),
	}
}

// Reset discards all stream state and seeds a new stream: the pending
// fragment is cleared, the segment store is replaced with the given mapping
// (possibly nil), and the realized-text snapshot is set to the assembled
// seed text WITHOUT issuing any injector operations. The external surface is
// assumed to already show the seed text.
func (p *Processor) Reset(initial map[int64]string) {
	p.pending = ""
	p.store = NewSegmentStore(initial)
	p.reconciler.Seed(p.store.Assemble())
	p.closed = false
}

// ProcessChunk appends text to the pending fragment, extracts every complete
// segment unit, applies the resulting updates to the segment store, and runs
// one reconciliation pass. Content that does not yet form a complete unit
// stays buffered for later chunks.
//
// Calling ProcessChunk after EndStream reopens the stream as a continuation:
// the segment store and realized-text snapshot carry over unchanged, exactly
// as if Reset had been called with the current segments. Malformed wire
// input is tolerated silently; the only error source is the injector.
func (p *Processor) ProcessChunk(text string) error {
	if p.closed {
		p.log.Debug("reopening ended stream as continuation")
		p.closed = false
	}

	p.pending += text
	updates, rest := extractUnits(p.pending, p.diag)
	p.pending = rest

	p.apply(updates)
	return p.reconciler.Sync(p.store.Assemble())
}

// EndStream performs one final parse attempt over the buffered fragment,
// applies any resulting updates, runs a final reconciliation pass, and marks
// the stream ended. Content still unparseable at this point is discarded
// silently. A second EndStream without an intervening ProcessChunk or Reset
// is a usage error and returns ErrStreamClosed without touching state.
func (p *Processor) EndStream() error {
	if p.closed {
		return ErrStreamClosed
	}

	updates, rest := extractUnits(p.pending, p.diag)
	if rest != "" {
		p.log.Debug("discarding unparseable buffered fragment at end of stream",
			"bytes", len(rest))
	}
	p.pending = ""
	p.closed = true

	p.apply(updates)
	return p.reconciler.Sync(p.store.Assemble())
}

// Realized returns the text the processor believes is currently present on
// the external surface.
func (p *Processor) Realized() string {
	return p.reconciler.Realized()
}

// TaggedSnapshot renders the current segments in wire form, for callers that
// need to hand the document state back to an upstream producer.
func (p *Processor) TaggedSnapshot() string {
	return p.store.Tagged()
}

// Segments returns the number of segments currently present.
func (p *Processor) Segments() int {
	return p.store.Len()
}

// Closed reports whether the stream has ended and the processor is waiting
// for Reset.
func (p *Processor) Closed() bool {
	return p.closed
}

func (p *Processor) apply(updates []update) {
	for _, u := range updates {
		p.store.Apply(u.id, u.text)
	}
	if len(updates) > 0 {
		p.log.Debug("applied segment updates",
			"count", len(updates),
			"segments", p.store.Len())
	}
}
