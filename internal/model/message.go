// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/jeranaias/folio-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role is the sender of a message as the assistant backend sees it.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE KINDS
// =============================================================================

// Kind classifies an assistant message. User messages carry no kind.
type Kind string

const (
	KindReply           Kind = ""
	KindWelcome         Kind = "welcome"
	KindValidationError Kind = "validation_error"
	KindError           Kind = "error"
)

// WelcomeText is the greeting synthesized when there is no usable history.
const WelcomeText = "Hi! I'm Adil Saeed's AI Assistant. Ask me about his projects, skills, education, or contact information.\n\nI'm Adil Saeed's AI Assistant."

// =============================================================================
// IMAGE TYPE
// =============================================================================

const (
	DefaultImageAlt     = "Image from Adil's portfolio"
	DefaultImageCaption = "Portfolio Image"

	// ImagePathPrefix is where the backend serves portfolio images.
	ImagePathPrefix = "/rag/documents/images/"
)

// Image is a picture attached to an assistant reply.
type Image struct {
	File    string `json:"file"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// UnmarshalJSON accepts either a bare file name or a {file, alt, caption}
// object.
func (img *Image) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*img = Image{File: name}
		return nil
	}
	type plain Image
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*img = Image(p)
	return nil
}

// AltText returns the alt text or its default.
func (img Image) AltText() string {
	if img.Alt == "" {
		return DefaultImageAlt
	}
	return img.Alt
}

// CaptionText returns the caption or its default.
func (img Image) CaptionText() string {
	if img.Caption == "" {
		return DefaultImageCaption
	}
	return img.Caption
}

// Path returns the server path of the image file.
func (img Image) Path() string {
	return ImagePathPrefix + img.File
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Metadata is the optional bag attached to a message.
type Metadata struct {
	Sources   []string `json:"sources,omitempty"`
	QueryType string   `json:"queryType,omitempty"`
	Images    []Image  `json:"images,omitempty"`

	// ShowImagesAfter is the server-requested placeholder delay in ms.
	// Zero means use the default delay.
	ShowImagesAfter int  `json:"showImagesAfter,omitempty"`
	Type            Kind `json:"type,omitempty"`
	Error           bool `json:"error,omitempty"`
}

// Message is one chat bubble. Messages are treated as immutable once they
// are appended to a Store.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

// UnmarshalJSON also accepts the older layout where the kind sat at the top
// level of the record.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	aux := struct {
		*plain
		Type Kind `json:"type,omitempty"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Type != "" {
		if m.Metadata == nil {
			m.Metadata = &Metadata{}
		}
		if m.Metadata.Type == "" {
			m.Metadata.Type = aux.Type
		}
	}
	return nil
}

// NewMessage creates a message with a generated ID stamped now.
func NewMessage(text string, isUser bool, meta *Metadata) *Message {
	return &Message{
		ID:        NewID(),
		Text:      text,
		IsUser:    isUser,
		Timestamp: time.Now().UTC(),
		Metadata:  meta,
	}
}

// NewUserMessage creates a message sent by the visitor.
func NewUserMessage(text string) *Message {
	return NewMessage(text, true, nil)
}

// NewAssistantMessage creates a message from the assistant.
func NewAssistantMessage(text string, meta *Metadata) *Message {
	return NewMessage(text, false, meta)
}

// NewWelcomeMessage creates the synthesized greeting.
func NewWelcomeMessage() *Message {
	return NewAssistantMessage(WelcomeText, &Metadata{Type: KindWelcome})
}

// NewID returns an identifier of the form msg_<unix-ms>_<9 base36 chars>.
func NewID() string {
	return "msg_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + util.RandomBase36(9)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// Role returns the backend-facing role of the message.
func (m *Message) Role() Role {
	if m.IsUser {
		return RoleUser
	}
	return RoleAssistant
}

// Kind returns the message kind, KindReply when no metadata is set.
func (m *Message) Kind() Kind {
	if m.Metadata == nil {
		return KindReply
	}
	return m.Metadata.Type
}

// IsError reports whether the message is an error or validation bubble.
func (m *Message) IsError() bool {
	if m.Metadata == nil {
		return false
	}
	return m.Metadata.Error || m.Metadata.Type == KindError || m.Metadata.Type == KindValidationError
}

// Images returns the attached images, if any.
func (m *Message) Images() []Image {
	if m.Metadata == nil {
		return nil
	}
	return m.Metadata.Images
}

// Preview returns a truncated preview of the message text.
func (m *Message) Preview(maxWidth int) string {
	return util.TruncateWidth(m.Text, maxWidth)
}

// Clock returns the "h:mm AM/PM" stamp shown under the bubble.
func (m *Message) Clock() string {
	return util.ClockTime(m.Timestamp)
}
