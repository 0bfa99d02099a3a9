// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/AleutianDictate/services/stream"
)

// WSRequest is one client message on the ingest socket.
type WSRequest struct {
	// Type is "chunk", "end_stream", or "reset".
	Type string `json:"type"`

	// Text carries the raw tagged-segment payload for chunk messages.
	Text string `json:"text,omitempty"`

	// Segments seeds the document for reset messages (optional).
	Segments map[int64]string `json:"segments,omitempty"`
}

// WSResponse is the server's reply to each message.
type WSResponse struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Realized  string `json:"realized,omitempty"`
	Error     string `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) sendJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		s.log.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// handleWebSocket runs one ingest connection. Each connection owns its own
// document; a remote producer sends tagged-segment chunks and control
// messages, and the server applies them to the shared surface.
func (s *Server) handleWebSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer ws.Close()
	wsConnectionsTotal.Inc()

	sessionID := uuid.New().String()
	log := s.log.With("session_id", sessionID)
	log.Info("Websocket client connected")

	processor := stream.NewProcessor(s.injector, stream.Options{
		Logger:      log,
		Diagnostics: &metricSink{next: stream.NewLogSink(log)},
	})

	if err := s.sendJSON(ws, WSResponse{
		Type:      "session_created",
		SessionID: sessionID,
	}); err != nil {
		return
	}

	for {
		var req WSRequest
		if err := ws.ReadJSON(&req); err != nil {
			log.Info("Websocket client disconnected", "error", err.Error())
			return
		}

		var opErr error
		switch req.Type {
		case "chunk":
			chunksTotal.Inc()
			opErr = processor.ProcessChunk(req.Text)
		case "end_stream":
			opErr = processor.EndStream()
		case "reset":
			processor.Reset(req.Segments)
		default:
			if err := s.sendJSON(ws, WSResponse{
				Type:  "error",
				Error: "unknown message type: " + req.Type,
			}); err != nil {
				return
			}
			continue
		}
		liveSegments.Set(float64(processor.Segments()))

		if opErr != nil {
			log.Warn("Stream operation failed",
				"type", req.Type,
				"error", opErr)
			if err := s.sendJSON(ws, WSResponse{
				Type:  "error",
				Error: opErr.Error(),
			}); err != nil {
				return
			}
			continue
		}

		if err := s.sendJSON(ws, WSResponse{
			Type:     "ack",
			Realized: processor.Realized(),
		}); err != nil {
			return
		}
	}
}
