// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"fmt"

	"github.com/AleutianAI/AleutianDictate/pkg/logging"
)

// DiagnosticSink receives non-fatal, structured warnings for anomalies the
// parser tolerates. Sinks must never fail and never interrupt parsing or
// reconciliation; they are a pure side channel.
type DiagnosticSink interface {
	// TagMismatch reports a segment unit whose closing identifier disagreed
	// with its opening identifier. The unit was still accepted, addressed by
	// the opening identifier.
	TagMismatch(openID, closeID int64)
}

// logSink writes diagnostics as one warning line each through pkg/logging.
type logSink struct {
	log *logging.Logger
}

// NewLogSink returns a DiagnosticSink backed by the given logger.
func NewLogSink(log *logging.Logger) DiagnosticSink {
	return &logSink{log: log}
}

func (s *logSink) TagMismatch(openID, closeID int64) {
	s.log.Warn(
		fmt.Sprintf("segment tag mismatch <%d>...</%d>: using opening identifier %d", openID, closeID, openID),
		"open", openID,
		"close", closeID,
		"used", openID,
	)
}

// nopSink discards all diagnostics.
type nopSink struct{}

func (nopSink) TagMismatch(openID, closeID int64) {}
