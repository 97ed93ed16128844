// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/folio-tui/internal/assistant"
	"github.com/jeranaias/folio-tui/internal/model"
)

// ============================================================================
// CONVERSATION MEMORY
// ============================================================================

// DefaultMaxTurns is how many history entries are kept per session.
const DefaultMaxTurns = 5

// SessionIdle is how long a session may go untouched before a sweep drops it.
const SessionIdle = 24 * time.Hour

// topicPatterns classify what a user turn is about.
var topicPatterns = map[string]*regexp.Regexp{
	"adil":      regexp.MustCompile(`\b(adil|you|your|creator)\b`),
	"projects":  regexp.MustCompile(`\b(project|app|work|develop)\b`),
	"skills":    regexp.MustCompile(`\b(skill|programming|technology)\b`),
	"education": regexp.MustCompile(`\b(education|university|study)\b`),
	"contact":   regexp.MustCompile(`\b(contact|email|phone|hire)\b`),
}

type conversation struct {
	turns     []assistant.Turn
	lastQuery string
	updated   time.Time
}

// Memory keeps the recent turns of every session.
type Memory struct {
	maxTurns int
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*conversation
}

// MemoryStats summarises the stored sessions.
type MemoryStats struct {
	ActiveSessions int            `json:"active_sessions"`
	TotalTurns     int            `json:"total_turns"`
	MaxTurns       int            `json:"max_turns_per_session"`
	PopularTopics  map[string]int `json:"popular_topics"`
}

// NewMemory creates a memory that keeps maxTurns entries per session.
// A non-positive maxTurns uses DefaultMaxTurns.
func NewMemory(maxTurns int) *Memory {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Memory{
		maxTurns: maxTurns,
		now:      time.Now,
		sessions: make(map[string]*conversation),
	}
}

func (m *Memory) session(id string) *conversation {
	c, ok := m.sessions[id]
	if !ok {
		c = &conversation{updated: m.now()}
		m.sessions[id] = c
	}
	return c
}

// Update replaces a session's turns with the tail of history.
func (m *Memory) Update(id string, history []assistant.Turn) {
	if id == "" || len(history) == 0 {
		return
	}
	if len(history) > m.maxTurns {
		history = history[len(history)-m.maxTurns:]
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.session(id)
	c.turns = append([]assistant.Turn(nil), history...)
	c.updated = m.now()
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == model.RoleUser {
			c.lastQuery = history[i].Content
			break
		}
	}
}

// Add records one question and its answer.
func (m *Memory) Add(id, query, answer string) {
	if id == "" {
		return
	}
	now := m.now()
	ts := now.UTC().Format(time.RFC3339)

	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.session(id)
	c.turns = append(c.turns,
		assistant.Turn{Role: model.RoleUser, Content: query, Timestamp: ts},
		assistant.Turn{Role: model.RoleAssistant, Content: answer, Timestamp: ts},
	)
	if max := m.maxTurns * 2; len(c.turns) > max {
		c.turns = c.turns[len(c.turns)-max:]
	}
	c.lastQuery = query
	c.updated = now
}

// Turns returns a copy of the stored turns for id.
func (m *Memory) Turns(id string) []assistant.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[id]
	if !ok {
		return nil
	}
	return append([]assistant.Turn(nil), c.turns...)
}

// LastQuery returns the most recent user question stored for id.
func (m *Memory) LastQuery(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.sessions[id]; ok {
		return c.lastQuery
	}
	return ""
}

// Active returns the number of stored sessions.
func (m *Memory) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Clear drops one session and reports whether it existed.
func (m *Memory) Clear(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok
}

// Sweep drops sessions not updated within idle and returns how many went.
func (m *Memory) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, c := range m.sessions {
		if c.updated.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		log.Printf("MEMORY_SWEEP | removed=%d remaining=%d", n, len(m.sessions))
	}
	return n
}

// Stats reports session counts and the topics recent questions touched.
func (m *Memory) Stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := MemoryStats{
		ActiveSessions: len(m.sessions),
		MaxTurns:       m.maxTurns,
		PopularTopics:  make(map[string]int),
	}
	for _, c := range m.sessions {
		stats.TotalTurns += len(c.turns)
		for _, topic := range recentTopics(c.turns) {
			stats.PopularTopics[topic]++
		}
	}
	return stats
}

// recentTopics lists the topics of the last three user turns, once each.
func recentTopics(turns []assistant.Turn) []string {
	var users []string
	for _, t := range turns {
		if t.Role == model.RoleUser {
			users = append(users, strings.ToLower(t.Content))
		}
	}
	if len(users) > 3 {
		users = users[len(users)-3:]
	}

	seen := make(map[string]bool)
	var topics []string
	for _, text := range users {
		for topic, re := range topicPatterns {
			if !seen[topic] && re.MatchString(text) {
				seen[topic] = true
				topics = append(topics, topic)
			}
		}
	}
	return topics
}
