// Package assistant wraps the chat-completion API behind the advisory
// support bot. It keeps an ordered message history per session and sends the
// whole conversation on every turn.
package assistant

import (
	"context"
	"fmt"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultModel     = "claude-3-5-sonnet-20241022"
	defaultMaxTokens = 1024

	// RoleUser and RoleAssistant label conversation turns.
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds the assistant settings.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// Assistant is a per-process chat assistant with in-memory session history.
type Assistant struct {
	model     string
	maxTokens int64

	// complete sends one conversation and returns the assistant's reply.
	// Swappable for tests.
	complete func(ctx context.Context, messages []ChatMessage) (string, error)

	mu       sync.Mutex
	sessions map[string][]ChatMessage
}

// New creates an assistant backed by the Anthropic API.
func New(cfg Config) *Assistant {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	a := &Assistant{
		model:     model,
		maxTokens: int64(maxTokens),
		sessions:  make(map[string][]ChatMessage),
	}
	a.complete = func(ctx context.Context, messages []ChatMessage) (string, error) {
		params := make([]anthropic.MessageParam, 0, len(messages))
		for _, m := range messages {
			block := anthropic.NewTextBlock(m.Content)
			if m.Role == RoleAssistant {
				params = append(params, anthropic.NewAssistantMessage(block))
			} else {
				params = append(params, anthropic.NewUserMessage(block))
			}
		}

		response, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: a.maxTokens,
			Messages:  params,
		})
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(response.Content) == 0 {
			return "", fmt.Errorf("chat completion returned no content")
		}
		return response.Content[0].Text, nil
	}
	return a
}

// Chat appends the user's message to the session, sends the conversation,
// and records the reply. A failed completion leaves the history unchanged.
func (a *Assistant) Chat(ctx context.Context, sessionID, userMessage string) (string, error) {
	a.mu.Lock()
	history := append(append([]ChatMessage(nil), a.sessions[sessionID]...), ChatMessage{
		Role:    RoleUser,
		Content: userMessage,
	})
	a.mu.Unlock()

	reply, err := a.complete(ctx, history)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	a.sessions[sessionID] = append(history, ChatMessage{Role: RoleAssistant, Content: reply})
	a.mu.Unlock()
	return reply, nil
}

// History returns a copy of a session's conversation.
func (a *Assistant) History(sessionID string) []ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ChatMessage(nil), a.sessions[sessionID]...)
}

// Reset clears a session's conversation.
func (a *Assistant) Reset(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, sessionID)
}
