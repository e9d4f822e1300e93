package service

import (
	"context"
	"fmt"

	"ai-ragchat-client/internal/dto"
	"ai-ragchat-client/internal/pkg/logger"
	"ai-ragchat-client/internal/session"
	"ai-ragchat-client/pkg/ragapi"

	"go.opentelemetry.io/otel/attribute"
)

type IDocumentService interface {
	Upload(ctx context.Context, filename string, content []byte) (*dto.UploadResponse, error)
	Delete(ctx context.Context, filename string) (*dto.DeleteResponse, error)
	Refresh(ctx context.Context) ([]string, error)
}

type documentService struct {
	sessionBase
}

func NewDocumentService(api *ragapi.Client, store *session.Store, log logger.ILogger) IDocumentService {
	return &documentService{sessionBase: newSessionBase(api, store, log)}
}

// Upload sends the file and then re-reads the corpus. When the upload
// succeeds but the refresh fails, the upload result is returned together
// with the refresh error and the mirror is left as it was.
func (s *documentService) Upload(ctx context.Context, filename string, content []byte) (resp *dto.UploadResponse, err error) {
	ctx, span := startSpan(ctx, "documents.upload",
		attribute.String("filename", filename),
		attribute.Int("size", len(content)),
	)
	defer func() { endSpan(span, err) }()

	release := s.store.Begin()
	defer release()

	token, err := s.token()
	if err != nil {
		return nil, err
	}

	resp, err = s.api.UploadDocument(ctx, token, filename, content)
	if err != nil {
		return nil, s.fail("documents", "upload", err)
	}
	s.logger.Info("documents", "Document uploaded", map[string]interface{}{
		"filename": filename,
		"size":     len(content),
	})

	if _, err := s.refreshDocuments(ctx, "documents", token); err != nil {
		return resp, fmt.Errorf("refresh after upload: %w", err)
	}
	return resp, nil
}

// Delete always asks the server, even for names missing from the mirror.
func (s *documentService) Delete(ctx context.Context, filename string) (resp *dto.DeleteResponse, err error) {
	ctx, span := startSpan(ctx, "documents.delete", attribute.String("filename", filename))
	defer func() { endSpan(span, err) }()

	release := s.store.Begin()
	defer release()

	token, err := s.token()
	if err != nil {
		return nil, err
	}

	resp, err = s.api.DeleteDocument(ctx, token, filename)
	if err != nil {
		return nil, s.fail("documents", "delete", err)
	}
	s.logger.Info("documents", "Document deleted", map[string]interface{}{"filename": filename})

	if _, err := s.refreshDocuments(ctx, "documents", token); err != nil {
		return resp, fmt.Errorf("refresh after delete: %w", err)
	}
	return resp, nil
}

func (s *documentService) Refresh(ctx context.Context) (docs []string, err error) {
	ctx, span := startSpan(ctx, "documents.refresh")
	defer func() { endSpan(span, err) }()

	release := s.store.Begin()
	defer release()

	token, err := s.token()
	if err != nil {
		return nil, err
	}

	return s.refreshDocuments(ctx, "documents", token)
}
