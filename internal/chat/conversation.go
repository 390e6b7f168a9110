// Package chat keeps the farming assistant conversation.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/rbright/agrivoice/internal/backend"
	"github.com/rbright/agrivoice/internal/i18n"
)

var (
	ErrEmptyMessage = errors.New("chat message is empty")
	ErrNoAssistant  = errors.New("no chat assistant configured")
)

// Message is one entry of the history. Audio holds the base64 reply clip of
// assistant messages when the backend produced one.
type Message struct {
	Text     string
	FromUser bool
	Audio    string
}

// Sender delivers a user message to the assistant.
type Sender interface {
	Chat(ctx context.Context, text string, lang i18n.Language) (backend.Reply, error)
}

// Conversation is the ordered chat history. It starts with a greeting and
// never drops messages; failures append an apology instead.
type Conversation struct {
	sender Sender
	logger *slog.Logger

	mu       sync.RWMutex
	language i18n.Language
	messages []Message
}

func New(sender Sender, logger *slog.Logger, lang i18n.Language) *Conversation {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if !lang.Valid() {
		lang = i18n.Default
	}
	return &Conversation{
		sender:   sender,
		logger:   logger,
		language: lang,
		messages: []Message{{Text: i18n.T(lang, i18n.KeyChatGreeting)}},
	}
}

// Send appends the user message, asks the assistant and appends its reply.
func (c *Conversation) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	c.messages = append(c.messages, Message{Text: text, FromUser: true})
	lang := c.language
	c.mu.Unlock()

	var (
		reply backend.Reply
		err   error
	)
	if c.sender == nil {
		err = ErrNoAssistant
	} else {
		reply, err = c.sender.Chat(ctx, text, lang)
	}
	if err != nil {
		c.logger.Warn("chat request failed", "language", string(lang), "error", err.Error())
		apology := Message{Text: i18n.T(lang, i18n.KeyChatFailure)}
		c.append(apology)
		return apology, err
	}

	answer := Message{Text: reply.Text, Audio: reply.Audio}
	c.append(answer)
	return answer, nil
}

// Commit sends a voice transcript as a chat message.
func (c *Conversation) Commit(ctx context.Context, transcript string) error {
	_, err := c.Send(ctx, transcript)
	return err
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Message(nil), c.messages...)
}

// Message returns the entry at index.
func (c *Conversation) Message(index int) (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.messages) {
		return Message{}, false
	}
	return c.messages[index], true
}

// SetLanguage changes the reply language of later messages.
func (c *Conversation) SetLanguage(lang i18n.Language) {
	c.mu.Lock()
	c.language = lang
	c.mu.Unlock()
}

func (c *Conversation) append(msg Message) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
}
