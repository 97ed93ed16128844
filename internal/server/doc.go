// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is a development backend for the chat widget.
//
// It speaks the same wire format the widget's client sends and decodes, so
// the whole conversation loop can run on one machine.
//
// # Endpoints
//
//   - POST /api/v1/chat               - answer a question
//   - GET  /api/v1/chat/health        - liveness and configuration
//   - GET  /api/v1/chat/stats         - memory and request counters
//   - GET  /rag/documents/images/...  - gallery images, when an image dir is set
//
// Queries go through length, session, rate, spam, harmful content and
// injection checks before reaching an Answerer. With an API key the answer
// comes from an OpenAI-compatible completion; without one a canned
// portfolio overview is returned.
//
// # Usage
//
//	srv := server.New(server.Options{
//		Addr:           "127.0.0.1:8000",
//		AllowedOrigins: []string{"http://localhost:3000"},
//	})
//	if err := srv.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package server
