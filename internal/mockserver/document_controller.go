package mockserver

import (
	"errors"
	"path/filepath"
	"strings"

	"ai-ragchat-client/internal/dto"

	"github.com/gofiber/fiber/v2"
)

type documentController struct {
	server *Server
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	auth := c.server.jwtMiddleware
	r.Post("/upload/", auth, c.Upload)
	r.Post("/delete-pdf/", auth, c.Delete)
	r.Delete("/delete-pdf/", auth, c.Delete)
	r.Get("/get-pdfs/", auth, c.List)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile(dto.UploadFieldName)
	if err != nil {
		return detail(ctx, fiber.StatusBadRequest, "missing file part")
	}

	contentType := file.Header.Get(fiber.HeaderContentType)
	if !strings.HasPrefix(contentType, dto.UploadContentType) {
		return detail(ctx, fiber.StatusBadRequest, "only PDF files are accepted")
	}

	filename := filepath.Base(file.Filename)
	if filename == "." || filename == "/" {
		return detail(ctx, fiber.StatusBadRequest, "missing filename")
	}

	user := username(ctx)
	c.server.store.putDocument(user, filename, int(file.Size))

	c.server.logger.Info(logModule, "Document stored", map[string]interface{}{
		"username": user,
		"filename": filename,
		"size":     file.Size,
	})
	return ctx.JSON(fiber.Map{
		"filename": filename,
		"size":     file.Size,
		"message":  "File uploaded and indexed",
	})
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	var req dto.DeleteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return detail(ctx, fiber.StatusBadRequest, "invalid request body")
	}
	if err := c.server.validate.Struct(req); err != nil {
		return detail(ctx, fiber.StatusUnprocessableEntity, err.Error())
	}

	if err := c.server.store.deleteDocument(username(ctx), req.Filename); err != nil {
		if errors.Is(err, errFileNotFound) {
			return detail(ctx, fiber.StatusNotFound, "File not found")
		}
		return detail(ctx, fiber.StatusInternalServerError, err.Error())
	}

	return ctx.JSON(dto.DeleteResponse{Message: "File " + req.Filename + " deleted"})
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.ListDocumentsResponse{Pdfs: c.server.store.documents(username(ctx))})
}
