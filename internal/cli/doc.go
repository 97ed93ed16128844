// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the folio command line.
//
// Without arguments folio starts the full-screen chat widget. The other
// commands reuse the same widget controller in line mode:
//
//	folio ask "What are your skills?"   one question, one reply
//	folio chat                          interactive REPL
//	folio history [show|clear]          the persisted conversation
//	folio serve                         the development backend
//	folio config [show|get|set|path]    configuration
//
// Handlers return errors; Run displays them and maps them to exit codes.
package cli
