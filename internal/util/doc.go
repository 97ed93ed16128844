// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the folio packages.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: crash-safe write (temp file, fsync, rename)
//
// Text:
//   - TruncateWidth, Wrap: display-width aware helpers built on go-runewidth
//   - RuneLen: character count used by input limits
//   - ClockTime: the "h:mm AM/PM" stamp shown under chat bubbles
//
// Identifiers:
//   - RandomBase36: random suffix for session and message identifiers
package util
