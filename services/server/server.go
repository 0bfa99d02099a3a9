// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package server exposes the sync engine over HTTP: a websocket ingest
// endpoint for remote tagged-segment producers, a health check, and
// prometheus metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianDictate/pkg/logging"
	"github.com/AleutianAI/AleutianDictate/services/inject"
)

// shutdownTimeout bounds how long graceful shutdown waits for connections.
const shutdownTimeout = 5 * time.Second

// Server serves the dictate HTTP API. All websocket connections inject into
// the same surface, serialized so concurrent streams cannot interleave
// operations.
type Server struct {
	log      *logging.Logger
	injector inject.Injector
	engine   *gin.Engine
}

// New creates a server injecting into the given backend.
func New(log *logging.Logger, injector inject.Injector) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		log:      log,
		injector: &lockedInjector{next: &countingInjector{next: injector}},
		engine:   engine,
	}

	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/v1")
	{
		v1.GET("/dictate/ws", s.handleWebSocket)
	}

	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// lockedInjector serializes operations from concurrent connections onto the
// single shared surface.
type lockedInjector struct {
	mu   sync.Mutex
	next inject.Injector
}

func (l *lockedInjector) Bksp(count int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next.Bksp(count)
}

func (l *lockedInjector) Emit(text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next.Emit(text)
}
