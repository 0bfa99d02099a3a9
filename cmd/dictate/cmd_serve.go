// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianDictate/pkg/config"
	"github.com/AleutianAI/AleutianDictate/pkg/logging"
	"github.com/AleutianAI/AleutianDictate/services/server"
)

// runServe exposes the sync engine to remote producers over websocket and
// blocks until interrupted. The config file is watched while serving, so a
// log-level edit takes effect without a restart.
func runServe(cmd *cobra.Command, args []string) error {
	injector, err := newInjector(cfg.Injector, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := configPath
	if path == "" {
		path = config.DefaultConfigPath
	}
	watcher, err := config.NewWatcher(path, func(next config.Config) {
		log.SetLevel(logging.ParseLevel(next.Logging.Level))
	})
	if err != nil {
		log.Warn("Config watching disabled", "error", err)
	} else {
		go watcher.Start(ctx)
	}

	srv := server.New(log, injector)
	return srv.Run(ctx, cfg.Server.ListenAddress)
}
