// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/AleutianDictate/services/inject"
	"github.com/AleutianAI/AleutianDictate/services/stream"
)

var (
	// wsConnectionsTotal counts websocket ingest connections.
	wsConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dictate_ws_connections_total",
		Help: "Total websocket ingest connections accepted",
	})

	// chunksTotal counts stream chunks received over all connections.
	chunksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dictate_chunks_total",
		Help: "Total stream chunks received",
	})

	// tagMismatchesTotal counts tolerated open/close identifier mismatches.
	tagMismatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dictate_tag_mismatches_total",
		Help: "Total tolerated segment tag identifier mismatches",
	})

	// backspacesTotal counts characters deleted on the surface.
	backspacesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dictate_backspaces_total",
		Help: "Total characters deleted from the surface",
	})

	// charsEmittedTotal counts characters typed onto the surface.
	charsEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dictate_chars_emitted_total",
		Help: "Total characters emitted onto the surface",
	})

	// liveSegments tracks the segment count of the most recently active
	// connection's document.
	liveSegments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dictate_live_segments",
		Help: "Segments present in the most recently active document",
	})
)

// countingInjector wraps an Injector and counts the characters flowing
// through it.
type countingInjector struct {
	next inject.Injector
}

func (m *countingInjector) Bksp(count int) error {
	err := m.next.Bksp(count)
	if err == nil {
		backspacesTotal.Add(float64(count))
	}
	return err
}

func (m *countingInjector) Emit(text string) error {
	err := m.next.Emit(text)
	if err == nil {
		charsEmittedTotal.Add(float64(len([]rune(text))))
	}
	return err
}

// metricSink counts tag mismatches in addition to the regular diagnostic
// logging.
type metricSink struct {
	next stream.DiagnosticSink
}

func (m *metricSink) TagMismatch(openID, closeID int64) {
	tagMismatchesTotal.Inc()
	m.next.TagMismatch(openID, closeID)
}
