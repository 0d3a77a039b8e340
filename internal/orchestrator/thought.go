package orchestrator

import (
	"strings"
	"sync"
)

const (
	thoughtStart       = "<|labeling_instruct_start|>"
	thoughtEnd         = " <|labeling_instruct_end|>"
	placeholderThought = "Labeling Instruct"
)

// ThoughtProvider is the lock-protected cross-thread string an external
// GUI component updates (spec.md §4.7, §9 "Thought provider lifetime").
// It is the only mutable state the Orchestrator shares with another
// goroutine besides the input deque.
type ThoughtProvider struct {
	mu   sync.Mutex
	text string
}

// NewThoughtProvider returns an empty provider; Current() returns ""
// until Set is called, which formatThought turns into the placeholder.
func NewThoughtProvider() *ThoughtProvider {
	return &ThoughtProvider{}
}

// Set updates the current thought text. Safe for concurrent use with
// Current.
func (p *ThoughtProvider) Set(text string) {
	p.mu.Lock()
	p.text = text
	p.mu.Unlock()
}

// Current returns the latest thought text, or "" if none has been set.
func (p *ThoughtProvider) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text
}

// formatThought implements spec.md §4.7's wire formatting: empty text
// becomes the placeholder, already-wrapped text passes through
// unchanged, and anything else gets trimmed and wrapped.
func formatThought(text string) string {
	if text == "" {
		return thoughtStart + placeholderThought + thoughtEnd
	}
	if strings.HasPrefix(text, thoughtStart) && strings.HasSuffix(text, thoughtEnd) {
		return text
	}
	return thoughtStart + strings.TrimSpace(text) + thoughtEnd
}
