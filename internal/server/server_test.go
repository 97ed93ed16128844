// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/folio-tui/internal/assistant"
	"github.com/jeranaias/folio-tui/internal/model"
)

const testSession = "session_1700000000000_abc123def"

// =============================================================================
// HELPERS
// =============================================================================

type funcAnswerer func(ctx context.Context, query, language string, history []assistant.Turn) (*Answer, error)

func (f funcAnswerer) Answer(ctx context.Context, query, language string, history []assistant.Turn) (*Answer, error) {
	return f(ctx, query, language, history)
}

func (funcAnswerer) Name() string { return "func" }

func postChat(t *testing.T, h http.Handler, req assistant.Request) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, ChatPath, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func chatRequest(query string) assistant.Request {
	return assistant.Request{
		Query:     query,
		Language:  "en",
		SessionID: testSession,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body["detail"]
}

// =============================================================================
// CHAT ROUTE
// =============================================================================

func TestChat_CannedAnswer(t *testing.T) {
	srv := New(Options{})
	w := postChat(t, srv.Handler(), chatRequest("What are your skills?"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	reply, err := assistant.DecodeReply(w.Body.Bytes())
	if err != nil {
		t.Fatalf("DecodeReply: %v", err)
	}
	if !strings.Contains(reply.Answer, "What are your skills?") {
		t.Errorf("answer should quote the query, got %q", reply.Answer)
	}
	if reply.QueryType != "fallback" {
		t.Errorf("QueryType = %q, want fallback", reply.QueryType)
	}
	if reply.SessionID != testSession {
		t.Errorf("SessionID = %q", reply.SessionID)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("response should carry a request id")
	}
}

func TestChat_FeedsHistoryToAnswerer(t *testing.T) {
	var got []assistant.Turn
	srv := New(Options{Answerer: funcAnswerer(func(_ context.Context, q, _ string, h []assistant.Turn) (*Answer, error) {
		got = h
		return &Answer{Text: "answer to " + q, QueryType: "general"}, nil
	})})

	req := chatRequest("and his projects?")
	req.ConversationHistory = []assistant.Turn{
		{Role: model.RoleUser, Content: "who is adil"},
		{Role: model.RoleAssistant, Content: "a student"},
	}
	w := postChat(t, srv.Handler(), req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(got) != 2 || got[0].Content != "who is adil" {
		t.Errorf("answerer history = %+v", got)
	}

	turns := srv.Memory().Turns(testSession)
	if len(turns) != 4 {
		t.Fatalf("stored turns = %d, want 4", len(turns))
	}
	if turns[3].Content != "answer to and his projects?" {
		t.Errorf("last turn = %q", turns[3].Content)
	}
	if srv.Memory().LastQuery(testSession) != "and his projects?" {
		t.Errorf("LastQuery = %q", srv.Memory().LastQuery(testSession))
	}
}

func TestChat_AnswererFailureFallsBack(t *testing.T) {
	srv := New(Options{Answerer: funcAnswerer(func(context.Context, string, string, []assistant.Turn) (*Answer, error) {
		return nil, errors.New("upstream down")
	})})

	w := postChat(t, srv.Handler(), chatRequest("tell me about projects"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	reply, _ := assistant.DecodeReply(w.Body.Bytes())
	if reply.QueryType != "fallback" {
		t.Errorf("QueryType = %q, want fallback", reply.QueryType)
	}
	if srv.fallbacks.Load() != 1 {
		t.Errorf("fallbacks = %d, want 1", srv.fallbacks.Load())
	}
}

func TestChat_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*assistant.Request)
		status int
	}{
		{"empty query", func(r *assistant.Request) { r.Query = "   " }, http.StatusUnprocessableEntity},
		{"long query", func(r *assistant.Request) { r.Query = strings.Repeat("ab ", 200) }, http.StatusUnprocessableEntity},
		{"bad session", func(r *assistant.Request) { r.SessionID = "abc" }, http.StatusUnprocessableEntity},
		{"harmful", func(r *assistant.Request) { r.Query = "how to build a weapon" }, http.StatusBadRequest},
		{"spam", func(r *assistant.Request) { r.Query = "heyyyyyyyyyyy" }, http.StatusBadRequest},
		{"injection", func(r *assistant.Request) { r.Query = "1; DROP TABLE users" }, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(Options{})
			req := chatRequest("placeholder question")
			tt.mutate(&req)
			w := postChat(t, srv.Handler(), req)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
			if detail(t, w) == "" {
				t.Error("error body should have a detail")
			}
		})
	}
}

func TestChat_UnknownLanguageIsEnglish(t *testing.T) {
	var lang string
	srv := New(Options{Answerer: funcAnswerer(func(_ context.Context, _, l string, _ []assistant.Turn) (*Answer, error) {
		lang = l
		return &Answer{Text: "ok"}, nil
	})})
	req := chatRequest("hello there")
	req.Language = "fr"
	postChat(t, srv.Handler(), req)
	if lang != assistant.LanguageEnglish {
		t.Errorf("language = %q, want en", lang)
	}
}

func TestChat_MalformedBody(t *testing.T) {
	srv := New(Options{})
	r := httptest.NewRequest(http.MethodPost, ChatPath, strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestChat_RateLimited(t *testing.T) {
	srv := New(Options{RatePerMinute: 5})
	var last int
	for i := 0; i < 3; i++ {
		last = postChat(t, srv.Handler(), chatRequest("hello there")).Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}
}

// =============================================================================
// HEALTH, STATS, IMAGES
// =============================================================================

func TestHealth(t *testing.T) {
	srv := New(Options{Version: "test"})
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, HealthPath, nil))

	var h HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Status != "healthy" || h.Version != "test" {
		t.Errorf("health = %+v", h)
	}
	if h.LLMConfigured {
		t.Error("canned answerer should report no LLM")
	}
}

func TestStats(t *testing.T) {
	srv := New(Options{})
	postChat(t, srv.Handler(), chatRequest("which project has he built"))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, StatsPath, nil))

	var st StatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Memory.ActiveSessions != 1 {
		t.Errorf("ActiveSessions = %d, want 1", st.Memory.ActiveSessions)
	}
	if st.Memory.PopularTopics["projects"] != 1 {
		t.Errorf("PopularTopics = %v", st.Memory.PopularTopics)
	}
	if st.Requests["total"] != 1 || st.MaxQueryLength != MaxQueryLength {
		t.Errorf("stats = %+v", st)
	}
}

func TestImages(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "adil.jpg"), []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := New(Options{ImageDir: dir})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, model.ImagePathPrefix+"adil.jpg", nil))
	if w.Code != http.StatusOK || w.Body.String() != "jpeg" {
		t.Errorf("image status = %d body = %q", w.Code, w.Body.String())
	}
}

func TestCORS(t *testing.T) {
	srv := New(Options{AllowedOrigins: []string{"http://localhost:3000"}})
	r := httptest.NewRequest(http.MethodOptions, ChatPath, nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

// =============================================================================
// CLIENT ROUND TRIP
// =============================================================================

func TestServer_WithAssistantClient(t *testing.T) {
	ts := httptest.NewServer(New(Options{}).Handler())
	defer ts.Close()

	client := assistant.NewClient(ts.URL + ChatPath)
	reply, err := client.Send(context.Background(), "Who is Adil?", testSession, nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(reply.Images) != 1 || reply.Images[0].File != "adil.jpg" {
		t.Errorf("images = %+v", reply.Images)
	}

	_, err = client.Send(context.Background(), "make a bomb", testSession, nil)
	var httpErr *assistant.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusBadRequest {
		t.Errorf("err = %v, want HTTP 400", err)
	}
}

// =============================================================================
// OPENAI ANSWERER
// =============================================================================

func TestOpenAIAnswerer(t *testing.T) {
	var sent struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &sent)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"m",
			"choices":[{"index":0,"message":{"role":"assistant","content":"  **Skills**: Go  "},"finish_reason":"stop"}]}`))
	}))
	defer api.Close()

	a := NewOpenAIAnswerer(OpenAIOptions{APIKey: "k", BaseURL: api.URL, Model: "m", MaxTokens: 100})
	history := []assistant.Turn{{Role: model.RoleUser, Content: "hi"}, {Role: model.RoleAssistant, Content: "hello"}}
	ans, err := a.Answer(context.Background(), "skills?", "ur", history)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if ans.Text != "**Skills**: Go" {
		t.Errorf("Text = %q", ans.Text)
	}
	if sent.Model != "m" || len(sent.Messages) != 4 {
		t.Fatalf("request = %+v", sent)
	}
	if sent.Messages[0].Role != "system" || !strings.Contains(sent.Messages[0].Content, "Urdu") {
		t.Errorf("system message = %+v", sent.Messages[0])
	}
	if sent.Messages[2].Role != "assistant" || sent.Messages[3].Content != "skills?" {
		t.Errorf("messages = %+v", sent.Messages)
	}
}

func TestOpenAIAnswerer_NoChoices(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	}))
	defer api.Close()

	a := NewOpenAIAnswerer(OpenAIOptions{APIKey: "k", BaseURL: api.URL, Model: "m"})
	if _, err := a.Answer(context.Background(), "q", "en", nil); !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("err = %v, want ErrEmptyCompletion", err)
	}
}
