package service

import (
	"context"

	"ai-ragchat-client/internal/dto"
	"ai-ragchat-client/internal/pkg/logger"
	"ai-ragchat-client/internal/session"
	"ai-ragchat-client/pkg/ragapi"

	"go.opentelemetry.io/otel/attribute"
)

type IAuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, email, password string) (*dto.RegisterResponse, error)
	Logout(ctx context.Context)
}

type authService struct {
	sessionBase
}

func NewAuthService(api *ragapi.Client, store *session.Store, log logger.ILogger) IAuthService {
	return &authService{sessionBase: newSessionBase(api, store, log)}
}

func (s *authService) Login(ctx context.Context, username, password string) (token string, err error) {
	ctx, span := startSpan(ctx, "auth.login", attribute.String("username", username))
	defer func() { endSpan(span, err) }()

	release := s.store.Begin()
	defer release()

	// 1. Exchange credentials for a token
	issued, err := s.api.Login(ctx, username, password)
	if err != nil {
		s.logger.Warn("auth", "Login failed", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
		return "", err
	}

	// 2. Start a clean session
	if _, err := s.store.Commit(session.LoggedIn(username, issued.AccessToken)); err != nil {
		return "", err
	}
	s.logger.Info("auth", "Logged in", map[string]interface{}{"username": username})

	// 3. Load the corpus. A rejected token ends the session again; any other
	// failure leaves the user logged in with an empty mirror.
	if _, err := s.refreshDocuments(ctx, "auth", issued.AccessToken); err != nil {
		if ragapi.IsUnauthorized(err) {
			return "", err
		}
		s.logger.Warn("auth", "Initial document refresh failed", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
	}

	return issued.AccessToken, nil
}

func (s *authService) Register(ctx context.Context, username, email, password string) (resp *dto.RegisterResponse, err error) {
	ctx, span := startSpan(ctx, "auth.register", attribute.String("username", username))
	defer func() { endSpan(span, err) }()

	resp, err = s.api.Register(ctx, dto.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		s.logger.Warn("auth", "Registration failed", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
		return nil, err
	}

	s.logger.Info("auth", "Registered", map[string]interface{}{"username": username})
	return resp, nil
}

// Logout always ends the local session. The server notice is best effort.
func (s *authService) Logout(ctx context.Context) {
	ctx, span := startSpan(ctx, "auth.logout")
	defer span.End()

	release := s.store.Begin()
	defer release()

	previous := s.store.Current()
	if _, err := s.store.Commit(session.LoggedOut()); err != nil {
		s.logger.Error("auth", "Failed to reset session", map[string]interface{}{"error": err.Error()})
	}
	s.logger.Info("auth", "Logged out", map[string]interface{}{"username": previous.Username})

	if err := s.api.Logout(ctx, previous.Token); err != nil {
		s.logger.Debug("auth", "Logout notice ignored", map[string]interface{}{"error": err.Error()})
	}
}
