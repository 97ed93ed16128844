// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the persisted conversation to shareable files.
//
// Two formats are supported: Markdown for reading and JSON with the exact
// stored message records. Both skip nothing; the welcome message and error
// bubbles are part of the transcript.
//
//	exp, err := export.ForFormat("md", nil)
//	path, err := export.ToFile(msgs, exp, &export.Options{OutputDir: "."})
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/folio-tui/internal/model"
)

// ErrEmpty is returned when there are no messages to export.
var ErrEmpty = errors.New("conversation has no messages")

// Exporter converts a conversation to one file format.
type Exporter interface {
	Export(msgs []*model.Message) ([]byte, error)

	// FileExtension returns the extension including the dot.
	FileExtension() string

	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is where ToFile writes. Default: current directory.
	OutputDir string

	// IncludeTimestamps adds the send time to every message heading.
	IncludeTimestamps bool

	// ImageBase is prefixed to gallery image paths, e.g.
	// http://127.0.0.1:8000. Empty leaves the paths relative.
	ImageBase string

	now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeTimestamps: true,
	}
}

func (o *Options) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

// Formats lists the names accepted by ForFormat.
var Formats = []string{"md", "json"}

// ForFormat returns the exporter for a format name.
func ForFormat(name string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "", "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want one of: %s)", name, strings.Join(Formats, ", "))
	}
}

// ToFile exports msgs into opts.OutputDir and returns the written path.
func ToFile(msgs []*model.Message, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(msgs)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	name := "folio_conversation_" + opts.clock().Format("20060102_150405") + exporter.FileExtension()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

func imageURL(base string, img model.Image) string {
	return strings.TrimRight(base, "/") + img.Path()
}
