package session

import (
	"errors"
	"strings"

	"ai-ragchat-client/internal/dto"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// NormalizeRole maps the role labels backends commonly emit onto the two
// roles the client displays. Unknown labels are treated as assistant output.
func NormalizeRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user", "human":
		return RoleUser
	default:
		return RoleAssistant
	}
}

type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

func MessagesFromHistory(items []dto.ChatHistoryItem) []Message {
	messages := make([]Message, 0, len(items))
	for _, item := range items {
		messages = append(messages, Message{Role: NormalizeRole(item.Role), Text: item.Text})
	}
	return messages
}

// State is the whole client session. Values are never mutated in place:
// transitions return a fresh copy.
type State struct {
	Token         string     `json:"-"`
	Username      string     `json:"username"`
	CurrentChatID dto.ChatID `json:"current_chat_id"`
	History       []Message  `json:"history"`
	Documents     []string   `json:"documents"`
}

// Anonymous is the state every process starts in.
func Anonymous() State {
	return State{History: []Message{}, Documents: []string{}}
}

func (s State) IsAuthenticated() bool {
	return s.Token != ""
}

var ErrAnonymousStateNotEmpty = errors.New("session: anonymous state carries chat or document data")

// Validate enforces that an anonymous session owns no chat, history or documents.
func (s State) Validate() error {
	if s.IsAuthenticated() {
		return nil
	}
	if !s.CurrentChatID.IsZero() || len(s.History) > 0 || len(s.Documents) > 0 {
		return ErrAnonymousStateNotEmpty
	}
	return nil
}

func (s State) clone() State {
	out := s
	out.History = append(make([]Message, 0, len(s.History)), s.History...)
	out.Documents = append(make([]string, 0, len(s.Documents)), s.Documents...)
	return out
}

// Summary is the loggable view of the state. The token is reduced to a flag.
func (s State) Summary() map[string]interface{} {
	return map[string]interface{}{
		"authenticated":   s.IsAuthenticated(),
		"username":        s.Username,
		"current_chat_id": s.CurrentChatID.String(),
		"history_len":     len(s.History),
		"documents":       len(s.Documents),
	}
}
