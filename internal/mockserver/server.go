package mockserver

import (
	"net"
	"strings"
	"sync"
	"time"

	"ai-ragchat-client/internal/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const logModule = "mockserver"

// Answerer produces the chatbot reply. A nil reply is sent as a null
// "response" field.
type Answerer func(question string, documents []string, remembered int) *string

type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
	// LogoutPath, when set, serves a logout endpoint that revokes the token.
	LogoutPath string
	// NumericChatIDs makes chat ids JSON numbers instead of UUID strings.
	NumericChatIDs bool
	Answer         Answerer
	Logger         logger.ILogger
}

type injected struct {
	status int
	body   string
}

// Server is an in-memory implementation of the chatbot backend HTTP API.
type Server struct {
	app      *fiber.App
	cfg      Config
	store    *memoryStore
	validate *validator.Validate
	logger   logger.ILogger

	mu       sync.Mutex
	calls    map[string]int
	injected map[string][]injected
}

func New(cfg Config) *Server {
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.Answer == nil {
		cfg.Answer = DefaultAnswer
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNopLogger()
	}

	s := &Server{
		cfg:      cfg,
		store:    newMemoryStore(cfg.NumericChatIDs, cfg.TokenTTL),
		validate: validator.New(),
		logger:   cfg.Logger,
		calls:    make(map[string]int),
		injected: make(map[string][]injected),
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             10 * 1024 * 1024, // 10MB
		UnescapePath:          true,
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	app.Use(s.requestLogMiddleware)
	app.Use(s.injectionMiddleware)

	s.registerRoutes(app)
	s.app = app
	return s
}

// DefaultAnswer cannot answer without documents; otherwise it reports what
// it was asked and how much it remembers.
func DefaultAnswer(question string, documents []string, remembered int) *string {
	if len(documents) == 0 {
		return nil
	}
	answer := "Based on " + strings.Join(documents, ", ") + ": " + question
	if remembered > 0 {
		answer += " (following up on earlier questions)"
	}
	return &answer
}

func (s *Server) registerRoutes(app *fiber.App) {
	auth := &authController{server: s}
	docs := &documentController{server: s}
	chats := &chatController{server: s}

	auth.RegisterRoutes(app)
	docs.RegisterRoutes(app)
	chats.RegisterRoutes(app)
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info(logModule, "Mock backend listening", map[string]interface{}{"addr": addr})
	return s.app.Listen(addr)
}

// Serve runs the app on an existing listener, e.g. 127.0.0.1:0 in tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// AddUser creates an account without going through request validation.
func (s *Server) AddUser(username, email, password string) error {
	return s.store.addUser(username, email, password)
}

// AddDocument stores filename for username as if it had been uploaded.
func (s *Server) AddDocument(username, filename string) {
	s.store.putDocument(username, filename, 0)
}

func (s *Server) Documents(username string) []string {
	return s.store.documents(username)
}

// MemoryLen reports how many questions chatID's memory buffer holds.
func (s *Server) MemoryLen(chatID string) int {
	return s.store.memoryLen(chatID)
}

// FailNext makes the next request to path answer with status and a
// {"detail": ...} body.
func (s *Server) FailNext(path string, status int) {
	body := `{"detail":"` + strings.ToLower(fiberStatusText(status)) + `"}`
	s.RespondNext(path, status, body)
}

// RespondNext makes the next request to path answer with status and the raw
// body, bypassing the handler. Queued responses are used in order.
func (s *Server) RespondNext(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := routeKey(path)
	s.injected[key] = append(s.injected[key], injected{status: status, body: body})
}

// Calls reports how many requests reached path, injected ones included.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[routeKey(path)]
}

func routeKey(path string) string {
	if trimmed := strings.TrimRight(path, "/"); trimmed != "" {
		return trimmed
	}
	return "/"
}

func fiberStatusText(status int) string {
	if text := utils.StatusMessage(status); text != "" {
		return text
	}
	return "error"
}

func (s *Server) injectionMiddleware(ctx *fiber.Ctx) error {
	key := routeKey(ctx.Path())

	s.mu.Lock()
	s.calls[key]++
	var next *injected
	if queue := s.injected[key]; len(queue) > 0 {
		next = &queue[0]
		s.injected[key] = queue[1:]
	}
	s.mu.Unlock()

	if next == nil {
		return ctx.Next()
	}
	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return ctx.Status(next.status).SendString(next.body)
}

func (s *Server) requestLogMiddleware(ctx *fiber.Ctx) error {
	start := time.Now()
	err := ctx.Next()
	s.logger.Debug(logModule, "Request served", map[string]interface{}{
		"method":      ctx.Method(),
		"path":        ctx.Path(),
		"status":      ctx.Response().StatusCode(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return err
}

// detail writes the backend's error shape.
func detail(ctx *fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(fiber.Map{"detail": message})
}
