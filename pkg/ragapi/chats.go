package ragapi

import (
	"context"
	"net/http"
	"net/url"

	"ai-ragchat-client/internal/dto"
)

// ListChats returns the user's chats in server order.
func (c *Client) ListChats(ctx context.Context, token string) ([]dto.ChatSummary, error) {
	const op = "list_chats"

	body, err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/chat-list/", token: token})
	if err != nil {
		return nil, err
	}

	var response dto.ChatListResponse
	if err := decode(op, body, &response); err != nil {
		return nil, err
	}
	return response.Items(), nil
}

// ChatHistory returns every message of chatID, oldest first.
func (c *Client) ChatHistory(ctx context.Context, token string, chatID dto.ChatID) ([]dto.ChatHistoryItem, error) {
	const op = "chat_history"

	if chatID.IsZero() {
		return nil, &Error{Op: op, Kind: KindValidation, Message: "chat id is required"}
	}

	// The id is a single path segment; escape it so ids with slashes stay intact.
	path := "/chat-history/" + url.PathEscape(chatID.String())
	body, err := c.do(ctx, request{op: op, method: http.MethodGet, path: path, token: token})
	if err != nil {
		return nil, err
	}

	var response dto.ChatHistoryResponse
	if err := decode(op, body, &response); err != nil {
		return nil, err
	}
	return response.Items(), nil
}

// NewChat asks the server to open a chat and returns its id.
func (c *Client) NewChat(ctx context.Context, token string) (dto.ChatID, error) {
	const op = "new_chat"

	body, err := c.do(ctx, request{op: op, method: http.MethodPost, path: "/new-chat/", token: token})
	if err != nil {
		return "", err
	}

	var response dto.NewChatResponse
	if err := decode(op, body, &response); err != nil {
		return "", err
	}
	if response.ChatId.IsZero() {
		return "", &Error{Op: op, Kind: KindMalformed, Message: "response has no chat_id"}
	}
	return response.ChatId, nil
}

// SendMessage posts msg to chatID. A zero chatID is sent as null and the
// server allocates a chat; the returned response carries the id to adopt.
func (c *Client) SendMessage(ctx context.Context, token, msg string, chatID dto.ChatID) (*dto.SendChatResponse, error) {
	const op = "chat"

	payload := dto.SendChatRequest{Msg: msg}
	if !chatID.IsZero() {
		payload.ChatId = &chatID
	}
	if err := c.validate.Struct(payload); err != nil {
		return nil, validationError(op, err)
	}

	req, err := jsonRequest(op, http.MethodPost, "/chat/", token, payload)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var response dto.SendChatResponse
	if err := decode(op, body, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// ResetConversation drops the server side conversation buffer. It is sent
// without a bearer token, as the legacy backend expects.
func (c *Client) ResetConversation(ctx context.Context, word string) (string, error) {
	const op = "reset"

	if word == "" {
		word = dto.DefaultResetWord
	}

	req, err := jsonRequest(op, http.MethodPost, "/chat/", "", dto.ResetChatRequest{Msg: word, Reset: true})
	if err != nil {
		return "", err
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}

	var response dto.SendChatResponse
	if err := decode(op, body, &response); err != nil {
		return "", err
	}
	return response.Answer(), nil
}
