// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/jeranaias/folio-tui/internal/model"
)

// JSONExporter writes the message records exactly as they are persisted,
// so an export can be decoded by storage.Decode.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export marshals msgs as an indented array.
func (e *JSONExporter) Export(msgs []*model.Message) ([]byte, error) {
	if len(msgs) == 0 {
		return nil, ErrEmpty
	}
	return json.MarshalIndent(msgs, "", "  ")
}

// FileExtension returns ".json".
func (e *JSONExporter) FileExtension() string { return ".json" }

// MimeType returns the JSON MIME type.
func (e *JSONExporter) MimeType() string { return "application/json" }
