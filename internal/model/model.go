// Package model defines the core tutor data types.
package model

import "time"

// Course is a course as published by the course registry.
type Course struct {
	Code        string `json:"code" yaml:"code"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	HasChatbot  bool   `json:"has_chatbot" yaml:"has_chatbot"`
	HasRoadmap  bool   `json:"has_roadmap" yaml:"has_roadmap"`
}

// User is the authenticated account.
type User struct {
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email" yaml:"email"`
}

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry of a course transcript.
type Message struct {
	// ID is assigned by the local store and empty until first saved.
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Text     string `json:"text" yaml:"text"`
	Sender   Sender `json:"sender" yaml:"sender"`
	Expanded bool   `json:"expanded,omitempty" yaml:"expanded,omitempty"`
}

// Source is a citation returned alongside an answer. Source is nil when the
// retrieval service could not attribute the chunk.
type Source struct {
	Source *string `json:"source"`
	Score  float64 `json:"score"`
	Chunk  string  `json:"chunk"`
}

// Answer is the ask endpoint response.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
}

// QA is one stored question/answer pair from the message history service.
type QA struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources,omitempty"`
}

// Topic is one subject of a roadmap week.
type Topic struct {
	Topic    string             `json:"topic" yaml:"topic"`
	External []string           `json:"external" yaml:"external"`
	Internal []InternalResource `json:"internal" yaml:"internal"`
}

// InternalResource points at course material hosted by the backend.
type InternalResource struct {
	Path string `json:"path" yaml:"path"`
}

// Roadmap maps a week label to its ordered topics. Key order carries no
// meaning.
type Roadmap map[string][]Topic

// SessionState is the persisted snapshot of a chat session.
type SessionState struct {
	Active         string               `json:"active,omitempty"`
	Sidebar        []string             `json:"sidebar"`
	Transcripts    map[string][]Message `json:"transcripts"`
	PendingDeletes []string             `json:"pending_deletes,omitempty"`
	SavedAt        time.Time            `json:"saved_at"`
}
