// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/jeranaias/folio-tui/internal/assistant"
	"github.com/jeranaias/folio-tui/internal/model"
)

// ============================================================================
// ANSWERERS
// ============================================================================

// Answer is what an Answerer produces for one query.
type Answer struct {
	Text              string
	QueryType         string
	Sources           []string
	Confidence        float64
	Images            []model.Image
	ShowImagesAfterMs int
}

// Answerer turns a query plus recent turns into an answer.
type Answerer interface {
	Answer(ctx context.Context, query, language string, history []assistant.Turn) (*Answer, error)
	Name() string
}

// ErrEmptyCompletion is returned when the model sends back no choices.
var ErrEmptyCompletion = errors.New("completion has no choices")

// SystemPrompt frames every completion request.
const SystemPrompt = `You are Adil Saeed's professional AI Assistant.

Facts:
- Software Engineering student at the Institute of Management Sciences (IMSciences), Peshawar
- Completed the GIKI ML to LLM Bootcamp 2025
- Passionate about AI, machine learning, deep learning, NLP, computer vision and LLMs
- Contact: adilsaeed047@gmail.com

Rules:
- Use **bold** for headings.
- Refer to profiles as [GitHub], [LinkedIn], [Facebook] or [Email]; never print raw URLs.
- Speak about Adil in the third person.
- Keep answers professional and concise and never invent facts.`

// CannedAnswerer answers without a model. It is used when no API key is
// configured.
type CannedAnswerer struct{}

// Name implements Answerer.
func (CannedAnswerer) Name() string { return "canned" }

// Answer implements Answerer.
func (CannedAnswerer) Answer(_ context.Context, query, language string, _ []assistant.Turn) (*Answer, error) {
	return &Answer{
		Text:       FallbackText(query, language),
		QueryType:  "fallback",
		Sources:    []string{"Assistant"},
		Confidence: 0.6,
		Images:     overviewImages(query),
	}, nil
}

// FallbackText is the portfolio overview sent when no better answer exists.
func FallbackText(query, language string) string {
	if language == assistant.LanguageUrdu {
		return "معذرت، میں '" + query + "' کے بارے میں مکمل معلومات نہیں دے سکا۔\n\n" +
			"میں عادل سعید کا AI Assistant ہوں۔ آپ پوچھ سکتے ہیں:\n" +
			"- عادل کے projects\n- Technical skills\n- Educational background\n- Contact information\n\n" +
			"📧 رابطہ: [Email]"
	}
	return "I couldn't provide complete information about '" + query + "'.\n\n" +
		"**You can ask about**\n" +
		"- Adil's projects\n- Technical skills\n- Educational background\n- Contact information\n\n" +
		"📧 Contact: [Email]\n\n" +
		"💬 I'm Adil Saeed's AI Assistant"
}

// overviewImages attaches the portrait to questions about Adil himself.
func overviewImages(query string) []model.Image {
	q := strings.ToLower(query)
	if strings.Contains(q, "who is") || strings.Contains(q, "about adil") || strings.Contains(q, "introduce") {
		return []model.Image{{File: "adil.jpg", Alt: model.DefaultImageAlt, Caption: model.DefaultImageCaption}}
	}
	return nil
}

// OpenAIOptions configures the completion client.
type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// OpenAIAnswerer answers with an OpenAI-compatible chat completion API.
type OpenAIAnswerer struct {
	client *openai.Client
	opts   OpenAIOptions
}

// NewOpenAIAnswerer creates an answerer for opts. BaseURL may point at any
// OpenAI-compatible service.
func NewOpenAIAnswerer(opts OpenAIOptions) *OpenAIAnswerer {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &OpenAIAnswerer{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
	}
}

// Name implements Answerer.
func (a *OpenAIAnswerer) Name() string { return "openai:" + a.opts.Model }

// Answer implements Answerer.
func (a *OpenAIAnswerer) Answer(ctx context.Context, query, language string, history []assistant.Turn) (*Answer, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.opts.Model,
		Messages:    completionMessages(query, language, history),
		Temperature: float32(a.opts.Temperature),
		MaxTokens:   a.opts.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}
	return &Answer{
		Text:       strings.TrimSpace(resp.Choices[0].Message.Content),
		QueryType:  "general",
		Sources:    []string{a.opts.Model},
		Confidence: 0.8,
		Images:     overviewImages(query),
	}, nil
}

func completionMessages(query, language string, history []assistant.Turn) []openai.ChatCompletionMessage {
	system := SystemPrompt
	if language == assistant.LanguageUrdu {
		system += "\n- Answer in Urdu."
	}
	msgs := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: system}}
	for _, t := range history {
		role := openai.ChatMessageRoleUser
		if t.Role == model.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: query})
}
