// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jeranaias/folio-tui/internal/model"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Turn is one entry of conversation_history.
type Turn struct {
	Role      model.Role `json:"role"`
	Content   string     `json:"content"`
	Timestamp string     `json:"timestamp"`
}

// Request is the body sent to the chat endpoint.
type Request struct {
	Query               string `json:"query"`
	Language            string `json:"language"`
	SessionID           string `json:"session_id"`
	Timestamp           string `json:"timestamp"`
	ConversationHistory []Turn `json:"conversation_history"`
}

// NewRequest builds the body for query. history should be the most recent
// messages in chronological order; only the last HistoryWindow are sent.
func NewRequest(query, sessionID string, history []*model.Message, window int) Request {
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}
	now := time.Now().UTC()
	turns := make([]Turn, 0, len(history))
	for _, m := range history {
		ts := m.Timestamp
		if ts.IsZero() {
			ts = now
		}
		turns = append(turns, Turn{
			Role:      m.Role(),
			Content:   m.Text,
			Timestamp: ts.UTC().Format(isoMillis),
		})
	}
	return Request{
		Query:               query,
		Language:            DetectLanguage(query),
		SessionID:           sessionID,
		Timestamp:           now.Format(isoMillis),
		ConversationHistory: turns,
	}
}

// isoMillis matches the millisecond ISO-8601 form browsers produce.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// Reply is a decoded backend response.
type Reply struct {
	Answer            string        `json:"answer"`
	Sources           []string      `json:"sources,omitempty"`
	QueryType         string        `json:"query_type,omitempty"`
	Confidence        *float64      `json:"confidence,omitempty"`
	ProcessingTime    float64       `json:"processing_time,omitempty"`
	SessionID         string        `json:"session_id,omitempty"`
	Images            []model.Image `json:"images,omitempty"`
	ShowImagesAfterMs int           `json:"show_images_after_ms,omitempty"`
	ResponseLength    string        `json:"response_length,omitempty"`
}

// UnknownQueryType is used when the backend does not classify the query.
const UnknownQueryType = "unknown"

// Metadata converts the reply into message metadata.
func (r *Reply) Metadata() *model.Metadata {
	qt := r.QueryType
	if qt == "" {
		qt = UnknownQueryType
	}
	return &model.Metadata{
		Sources:         r.Sources,
		QueryType:       qt,
		Images:          r.Images,
		ShowImagesAfter: r.ShowImagesAfterMs,
	}
}

// DecodeReply parses a response body. A JSON object is read field by field;
// a JSON string or any non-JSON body becomes the answer text.
func DecodeReply(body []byte) (*Reply, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &Reply{}, nil
	}

	switch trimmed[0] {
	case '{':
		var wire struct {
			Reply
			Response string `json:"response"`
			Text     string `json:"text"`
		}
		if err := json.Unmarshal(trimmed, &wire); err != nil {
			return nil, err
		}
		r := wire.Reply
		if r.Answer == "" {
			r.Answer = firstNonEmpty(wire.Response, wire.Text)
		}
		return &r, nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return &Reply{Answer: s}, nil
		}
	}
	return &Reply{Answer: string(body)}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
