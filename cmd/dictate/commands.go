// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianDictate/pkg/config"
	"github.com/AleutianAI/AleutianDictate/pkg/logging"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// --- Global Command Variables ---
var (
	configPath   string
	backendFlag  string
	modeFlag     string
	quietLogs    bool
	verboseLogs  bool

	cfg config.Config
	log *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "dictate",
		Short: "A streaming dictation engine that edits text in place",
		Long: `Dictate reconciles a live, incrementally revised document with an
external text surface (your focused window, a terminal, a pipe). Revisions
arrive as a stream of numbered segments and are applied as minimal
delete-and-retype operations, so unchanged text is never re-typed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			if backendFlag != "" {
				cfg.Injector.Backend = backendFlag
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			level := logging.ParseLevel(cfg.Logging.Level)
			if verboseLogs {
				level = logging.LevelDebug
			}
			log = logging.New(logging.Config{
				Level:   level,
				LogDir:  cfg.Logging.Dir,
				Service: "dictate",
				JSON:    cfg.Logging.JSON,
				Quiet:   quietLogs,
			})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				_ = log.Close()
			}
		},
	}

	syncCmd = &cobra.Command{
		Use:   "sync [file]",
		Short: "Apply a tagged segment stream from a file or stdin to the surface",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSync, // Defined in cmd_sync.go
	}

	transcribeCmd = &cobra.Command{
		Use:   "transcribe",
		Short: "Send utterances to the configured model and type the result live",
		RunE:  runTranscribe, // Defined in cmd_transcribe.go
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the websocket ingest endpoint for remote producers",
		RunE:  runServe, // Defined in cmd_serve.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the dictate version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("dictate", version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to config file (default dictate.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "",
		"injector backend override (xdotool, writer)")
	rootCmd.PersistentFlags().BoolVarP(&quietLogs, "quiet", "q", false,
		"suppress stderr logging")
	rootCmd.PersistentFlags().BoolVarP(&verboseLogs, "verbose", "v", false,
		"enable debug logging")

	transcribeCmd.Flags().StringVar(&modeFlag, "mode", "dictate",
		"instruction mode: dictate or edit")

	rootCmd.AddCommand(syncCmd, transcribeCmd, serveCmd, versionCmd)
}
