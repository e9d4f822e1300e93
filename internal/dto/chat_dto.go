package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FallbackAnswer replaces a chat reply whose response field is missing.
const FallbackAnswer = "Sorry, I could not find an answer."

// DefaultResetWord is the message sent alongside reset=true.
const DefaultResetWord = "reset"

// ChatID is the server-issued chat identifier. Backends emit it either as a
// JSON string or as a number; both decode to the same textual form. The
// empty ChatID means no chat is selected.
type ChatID string

func (id ChatID) String() string {
	return string(id)
}

func (id ChatID) IsZero() bool {
	return id == ""
}

func (id *ChatID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ChatID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("chat_id: expected string or number, got %s", string(data))
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("chat_id: %w", err)
	}
	*id = ChatID(n.String())
	return nil
}

type ChatSummary struct {
	ChatId ChatID `json:"chat_id"`
	Title  string `json:"title"`
}

type ChatListResponse struct {
	Chats []ChatSummary `json:"chats"`
}

func (r *ChatListResponse) Items() []ChatSummary {
	if r == nil || r.Chats == nil {
		return []ChatSummary{}
	}
	return r.Chats
}

type ChatHistoryItem struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type ChatHistoryResponse struct {
	History []ChatHistoryItem `json:"history"`
}

func (r *ChatHistoryResponse) Items() []ChatHistoryItem {
	if r == nil || r.History == nil {
		return []ChatHistoryItem{}
	}
	return r.History
}

type NewChatResponse struct {
	ChatId ChatID `json:"chat_id"`
}

// SendChatRequest is the body of POST /chat/. A nil ChatId is sent as null
// so the server allocates a chat.
type SendChatRequest struct {
	Msg    string  `json:"msg" validate:"required"`
	ChatId *ChatID `json:"chat_id"`
}

// ResetChatRequest is the legacy body of POST /chat/ that drops the server
// side conversation buffer.
type ResetChatRequest struct {
	Msg   string `json:"msg"`
	Reset bool   `json:"reset"`
}

// SendChatResponse keeps Response as a pointer so an absent field can be
// told apart from an empty answer.
type SendChatResponse struct {
	Response *string `json:"response"`
	ChatId   ChatID  `json:"chat_id"`
}

// Answer returns the reply text, or FallbackAnswer when the server omitted it.
func (r *SendChatResponse) Answer() string {
	if r == nil || r.Response == nil {
		return FallbackAnswer
	}
	return *r.Response
}
