package service

import (
	"context"
	"errors"

	"ai-ragchat-client/internal/pkg/logger"
	"ai-ragchat-client/internal/session"
	"ai-ragchat-client/pkg/ragapi"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotAuthenticated is returned when a protected operation is invoked
// without a session. It is a caller bug, never a network failure.
var ErrNotAuthenticated = errors.New("not authenticated")

var tracer = otel.Tracer("ai-ragchat-client/internal/service")

// sessionBase is shared by the services: one transport, one state store.
type sessionBase struct {
	api    *ragapi.Client
	store  *session.Store
	logger logger.ILogger
}

func newSessionBase(api *ragapi.Client, store *session.Store, log logger.ILogger) sessionBase {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return sessionBase{api: api, store: store, logger: log}
}

// token must be called while the operation holds store.Begin.
func (b *sessionBase) token() (string, error) {
	current := b.store.Current()
	if !current.IsAuthenticated() {
		return "", ErrNotAuthenticated
	}
	return current.Token, nil
}

// fail logs a failed call and, when the server rejected the token, drops
// the session before returning err unchanged.
func (b *sessionBase) fail(module, op string, err error) error {
	details := map[string]interface{}{
		"op":    op,
		"error": err.Error(),
	}
	if !ragapi.IsUnauthorized(err) {
		b.logger.Warn(module, "Request failed", details)
		return err
	}

	b.logger.Warn(module, "Session rejected by server, logging out", details)
	if _, commitErr := b.store.Commit(session.LoggedOut()); commitErr != nil {
		b.logger.Error(module, "Failed to reset session", map[string]interface{}{
			"op":    op,
			"error": commitErr.Error(),
		})
	}
	return err
}

// refreshDocuments re-reads the corpus from the server and overwrites the
// local mirror. Caller holds store.Begin.
func (b *sessionBase) refreshDocuments(ctx context.Context, module, token string) ([]string, error) {
	filenames, err := b.api.ListDocuments(ctx, token)
	if err != nil {
		return nil, b.fail(module, "refresh_documents", err)
	}

	state, err := b.store.Commit(session.DocumentsRefreshed(filenames))
	if err != nil {
		return nil, err
	}
	return state.Documents, nil
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
