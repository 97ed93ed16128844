// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Wiring shared by the commands: config, storage, client, widget.

package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jeranaias/folio-tui/internal/assistant"
	"github.com/jeranaias/folio-tui/internal/config"
	"github.com/jeranaias/folio-tui/internal/storage"
	"github.com/jeranaias/folio-tui/internal/widget"
)

// app holds what a command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	slot    storage.Slot
	history *storage.History
	client  *assistant.Client
}

// setupLogging sends the standard logger to stderr with --verbose and
// discards it otherwise. The TUI replaces this with its log file.
func setupLogging(args Args) {
	if args.Verbose {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
		return
	}
	log.SetOutput(io.Discard)
}

// loadConfig loads the configuration and applies command-line overrides.
// A config file that fails to parse is reported and the defaults are used.
func loadConfig(args Args) (*config.Config, error) {
	cfg, err := config.Load()
	if cfg == nil {
		return nil, err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", RenderConditional(WarningStyle, "Warning:"), err)
	}

	if args.Endpoint != "" {
		cfg.Assistant.Endpoint = args.Endpoint
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if args.Instant {
		cfg.Reveal.CharDelayMs = 0
		cfg.Reveal.ImageDelayMs = 0
		cfg.Reveal.FadeMs = 0
	}

	config.SetGlobal(cfg)
	return cfg, nil
}

// newApp loads config and opens storage.
func newApp(args Args) (*app, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}

	path, err := cfg.StoragePath()
	if err != nil {
		return nil, wrap("storage", "resolve path", err)
	}
	if cfg.Storage.Backend != storage.BackendMemory {
		if err := config.EnsureConfigDir(); err != nil {
			return nil, wrap("storage", "create config dir", err)
		}
	}
	slot, err := storage.Open(cfg.Storage.Backend, path)
	if err != nil {
		return nil, wrap("storage", "open "+cfg.Storage.Backend, err)
	}

	client := assistant.NewClient(cfg.Assistant.Endpoint).
		WithHistoryWindow(cfg.Assistant.HistoryWindow).
		WithUserAgent("folio/" + Version)

	return &app{
		cfg:     cfg,
		slot:    slot,
		history: storage.NewHistory(slot),
		client:  client,
	}, nil
}

// controller creates a widget controller over the app's history.
func (a *app) controller() *widget.Controller {
	return widget.New(widget.Options{
		History:       a.history,
		Pacing:        a.cfg.Pacing(),
		Anchors:       widget.ParseAnchors(a.cfg.UI.Anchors),
		HistoryWindow: a.cfg.Assistant.HistoryWindow,
		ScrollMargin:  a.cfg.UI.ScrollThreshold,
	})
}

// Close releases the storage backend.
func (a *app) Close() {
	if c, ok := a.slot.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("STORAGE_CLOSE_FAILED | err=%v", err)
		}
	}
}
