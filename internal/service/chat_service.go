package service

import (
	"context"

	"ai-ragchat-client/internal/dto"
	"ai-ragchat-client/internal/pkg/logger"
	"ai-ragchat-client/internal/session"
	"ai-ragchat-client/pkg/ragapi"

	"go.opentelemetry.io/otel/attribute"
)

type IChatService interface {
	ListChats(ctx context.Context) ([]dto.ChatSummary, error)
	CreateChat(ctx context.Context) (dto.ChatID, error)
	SelectChat(ctx context.Context, id dto.ChatID) ([]session.Message, error)
	Send(ctx context.Context, text string) (*SendResult, error)
	Reset(ctx context.Context, word string) (string, error)
	ClearHistory() error
}

// SendResult is one answered turn. ChatID is the chat the turn landed in.
type SendResult struct {
	Answer string
	ChatID dto.ChatID
}

type chatService struct {
	sessionBase
}

func NewChatService(api *ragapi.Client, store *session.Store, log logger.ILogger) IChatService {
	return &chatService{sessionBase: newSessionBase(api, store, log)}
}

func (s *chatService) ListChats(ctx context.Context) (chats []dto.ChatSummary, err error) {
	ctx, span := startSpan(ctx, "chat.list")
	defer func() { endSpan(span, err) }()

	release := s.store.Begin()
	defer release()

	token, err := s.token()
	if err != nil {
		return nil, err
	}

	chats, err = s.api.ListChats(ctx, token)
	if err != nil {
		return nil, s.fail("chat", "list_chats", err)
	}
	return chats, nil
}

func (s *chatService) CreateChat(ctx context.Context) (id dto.ChatID, err error) {
	ctx, span := startSpan(ctx, "chat.create")
	defer func() { endSpan(span, err) }()

	release := s.store.Begin()
	defer release()

	token, err := s.token()
	if err != nil {
		return "", err
	}

	id, err = s.api.NewChat(ctx, token)
	if err != nil {
		return "", s.fail("chat", "new_chat", err)
	}

	if _, err := s.store.Commit(session.ChatCreated(id)); err != nil {
		return "", err
	}
	s.logger.Info("chat", "Chat created", map[string]interface{}{"chat_id": id.String()})
	return id, nil
}

// SelectChat loads the full history of id and makes it current in a single
// transition.
func (s *chatService) SelectChat(ctx context.Context, id dto.ChatID) (messages []session.Message, err error) {
	ctx, span := startSpan(ctx, "chat.select", attribute.String("chat_id", id.String()))
	defer func() { endSpan(span, err) }()

	release := s.store.Begin()
	defer release()

	token, err := s.token()
	if err != nil {
		return nil, err
	}

	items, err := s.api.ChatHistory(ctx, token, id)
	if err != nil {
		return nil, s.fail("chat", "chat_history", err)
	}

	state, err := s.store.Commit(session.ChatSelected(id, session.MessagesFromHistory(items)))
	if err != nil {
		return nil, err
	}
	s.logger.Info("chat", "Chat selected", map[string]interface{}{
		"chat_id":  id.String(),
		"messages": len(state.History),
	})
	return state.History, nil
}

// Send posts text to the current chat, or lets the server open one when no
// chat is selected. The question and its answer are appended together.
func (s *chatService) Send(ctx context.Context, text string) (result *SendResult, err error) {
	ctx, span := startSpan(ctx, "chat.send")
	defer func() { endSpan(span, err) }()

	release := s.store.Begin()
	defer release()

	token, err := s.token()
	if err != nil {
		return nil, err
	}
	current := s.store.Current().CurrentChatID

	resp, err := s.api.SendMessage(ctx, token, text, current)
	if err != nil {
		return nil, s.fail("chat", "send", err)
	}

	if !resp.ChatId.IsZero() && !current.IsZero() && resp.ChatId != current {
		s.logger.Warn("chat", "Server answered in a different chat", map[string]interface{}{
			"requested": current.String(),
			"returned":  resp.ChatId.String(),
		})
	}

	state, err := s.store.Commit(session.TurnCommitted(text, resp.Answer(), resp.ChatId))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("chat_id", state.CurrentChatID.String()))

	return &SendResult{Answer: resp.Answer(), ChatID: state.CurrentChatID}, nil
}

// Reset clears the server side conversation buffer. It needs no session and
// leaves the local history alone; see ClearHistory.
func (s *chatService) Reset(ctx context.Context, word string) (answer string, err error) {
	ctx, span := startSpan(ctx, "chat.reset")
	defer func() { endSpan(span, err) }()

	release := s.store.Begin()
	defer release()

	answer, err = s.api.ResetConversation(ctx, word)
	if err != nil {
		s.logger.Warn("chat", "Reset failed", map[string]interface{}{"error": err.Error()})
		return "", err
	}
	s.logger.Info("chat", "Conversation reset", nil)
	return answer, nil
}

func (s *chatService) ClearHistory() error {
	release := s.store.Begin()
	defer release()

	if _, err := s.token(); err != nil {
		return err
	}
	_, err := s.store.Commit(session.HistoryCleared())
	return err
}
