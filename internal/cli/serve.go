// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - The "serve" command: the development chat backend.

package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/folio-tui/internal/config"
	"github.com/jeranaias/folio-tui/internal/server"
)

// HandleServe runs the backend until interrupted. Server logs always go to
// stderr.
func HandleServe(args Args) error {
	log.SetOutput(os.Stderr)

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	opts := serverOptions(cfg, args)
	srv := server.New(opts)

	fmt.Fprintln(stdout, RenderConditional(TitleStyle, "folio backend"))
	fmt.Fprintln(stdout, RenderKV("Chat endpoint", "http://"+srv.Addr()+server.ChatPath))
	fmt.Fprintln(stdout, RenderKV("Answers", opts.Answerer.Name()))
	if opts.ImageDir != "" {
		fmt.Fprintln(stdout, RenderKV("Images", opts.ImageDir))
	}
	fmt.Fprintln(stdout, RenderConditional(DimStyle, "Press Ctrl+C to stop."))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return wrap("serve", "listen on "+srv.Addr(), srv.Run(ctx))
}

// serverOptions maps the [server] config section onto server options. A
// completion API key selects the model answerer, otherwise replies are
// canned.
func serverOptions(cfg *config.Config, args Args) server.Options {
	sc := cfg.Server
	opts := server.Options{
		Addr:           sc.Addr,
		AllowedOrigins: sc.AllowedOrigins,
		ImageDir:       sc.ImageDir,
		RatePerMinute:  sc.RatePerMinute,
		MaxTurns:       sc.MaxTurns,
		Version:        Version,
		Answerer:       server.CannedAnswerer{},
	}
	if args.Addr != "" {
		opts.Addr = args.Addr
	}
	if sc.GroqAPIKey != "" {
		opts.Answerer = server.NewOpenAIAnswerer(server.OpenAIOptions{
			APIKey:      sc.GroqAPIKey,
			BaseURL:     sc.BaseURL,
			Model:       sc.Model,
			Temperature: sc.Temperature,
			MaxTokens:   sc.MaxTokens,
		})
	}
	return opts
}
