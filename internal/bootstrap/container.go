package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"

	"ai-ragchat-client/internal/cli"
	"ai-ragchat-client/internal/config"
	"ai-ragchat-client/internal/pkg/logger"
	"ai-ragchat-client/internal/service"
	"ai-ragchat-client/internal/session"
	"ai-ragchat-client/internal/tracer"
	"ai-ragchat-client/internal/view"
	"ai-ragchat-client/pkg/events"
	"ai-ragchat-client/pkg/ragapi"
)

const ServiceName = "ai-ragchat-client"

type Container struct {
	Config *config.Config
	Logger logger.ILogger

	// Infrastructure
	Bus   *events.Bus
	API   *ragapi.Client
	Store *session.Store

	// Services
	AuthService     service.IAuthService
	DocumentService service.IDocumentService
	ChatService     service.IChatService

	Renderer *view.Renderer

	shutdownTracer func(context.Context) error
}

// NewContainer wires the client. Logs go to the rotated file only so they
// never interleave with the chat transcript on out.
func NewContainer(cfg *config.Config, out io.Writer) (*Container, error) {
	// 1. Core Facades
	appLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath, cfg.App.Debug)
	shutdownTracer := tracer.InitTracer(cfg.Tracer, ServiceName, appLogger)

	// 2. Transport
	api, err := ragapi.NewClient(ragapi.ClientConfig{
		BaseURL:      cfg.App.APIURL,
		Logger:       appLogger,
		Timeout:      cfg.HTTP.Timeout,
		GetRetries:   cfg.HTTP.GetRetries,
		DeleteMethod: cfg.HTTP.DeleteMethod,
		LogoutPath:   cfg.HTTP.LogoutPath,
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	// 3. Session state and change notifications
	bus := events.NewBus(appLogger)
	store := session.NewStore(bus, appLogger)

	// 4. Services
	return &Container{
		Config:          cfg,
		Logger:          appLogger,
		Bus:             bus,
		API:             api,
		Store:           store,
		AuthService:     service.NewAuthService(api, store, appLogger),
		DocumentService: service.NewDocumentService(api, store, appLogger),
		ChatService:     service.NewChatService(api, store, appLogger),
		Renderer:        view.NewRenderer(out, store),
		shutdownTracer:  shutdownTracer,
	}, nil
}

// REPL attaches the renderer to the bus and returns a REPL reading in.
func (c *Container) REPL(ctx context.Context, in io.Reader, out io.Writer) (*cli.REPL, error) {
	if err := c.Renderer.Attach(ctx, c.Bus); err != nil {
		return nil, fmt.Errorf("attach renderer: %w", err)
	}
	return cli.New(cli.Deps{
		Auth:      c.AuthService,
		Documents: c.DocumentService,
		Chats:     c.ChatService,
		In:        in,
		Out:       out,
		Logger:    c.Logger,
		ReadFile:  os.ReadFile,
	}), nil
}

func (c *Container) Close(ctx context.Context) error {
	var firstErr error
	if err := c.Bus.Close(); err != nil {
		firstErr = err
	}
	if err := c.shutdownTracer(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.Logger.Sync(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
