package ragapi

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"ai-ragchat-client/internal/dto"
)

// UploadDocument sends content as a multipart "file" part named filename.
func (c *Client) UploadDocument(ctx context.Context, token, filename string, content []byte) (*dto.UploadResponse, error) {
	const op = "upload"

	if err := c.validate.Struct(dto.UploadRequest{Filename: filename, Content: content}); err != nil {
		return nil, validationError(op, err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, dto.UploadFieldName, filename))
	header.Set("Content-Type", dto.UploadContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("ragapi: %s: create part: %w", op, err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("ragapi: %s: write part: %w", op, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ragapi: %s: close multipart: %w", op, err)
	}

	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/upload/",
		token:       token,
		contentType: writer.FormDataContentType(),
		body:        buf.Bytes(),
	})
	if err != nil {
		return nil, err
	}

	response := dto.UploadResponse{Filename: filename}
	if err := decode(op, body, &response); err != nil {
		return nil, err
	}
	details := map[string]interface{}{}
	if err := decode(op, body, &details); err == nil {
		response.Details = details
	}
	return &response, nil
}

// DeleteDocument removes filename from the corpus. The call is issued even
// when the caller does not believe the file exists.
func (c *Client) DeleteDocument(ctx context.Context, token, filename string) (*dto.DeleteResponse, error) {
	const op = "delete"

	payload := dto.DeleteRequest{Filename: filename}
	if err := c.validate.Struct(payload); err != nil {
		return nil, validationError(op, err)
	}

	req, err := jsonRequest(op, c.deleteMethod, "/delete-pdf/", token, payload)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var response dto.DeleteResponse
	if err := decode(op, body, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// ListDocuments returns the authoritative corpus. A missing pdfs field is an
// empty corpus.
func (c *Client) ListDocuments(ctx context.Context, token string) ([]string, error) {
	const op = "list_documents"

	body, err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/get-pdfs/", token: token})
	if err != nil {
		return nil, err
	}

	var response dto.ListDocumentsResponse
	if err := decode(op, body, &response); err != nil {
		return nil, err
	}
	return response.Filenames(), nil
}
