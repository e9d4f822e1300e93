package mockserver

import (
	"errors"
	"strconv"
	"strings"

	"ai-ragchat-client/internal/dto"

	"github.com/gofiber/fiber/v2"
)

const resetAnswer = "Conversation memory cleared."

type chatController struct {
	server *Server
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	auth := c.server.jwtMiddleware
	r.Get("/chat-list/", auth, c.List)
	r.Get("/chat-history/:chat_id", auth, c.History)
	r.Post("/new-chat/", auth, c.NewChat)
	// /chat/ authenticates itself: the reset form is accepted anonymously.
	r.Post("/chat/", c.Chat)
}

type chatRequest struct {
	Msg    string      `json:"msg"`
	ChatId *dto.ChatID `json:"chat_id"`
	Reset  bool        `json:"reset"`
}

// chatIDValue renders id as a JSON number when the server hands out
// numeric ids.
func (c *chatController) chatIDValue(id string) interface{} {
	if c.server.cfg.NumericChatIDs {
		if n, err := strconv.Atoi(id); err == nil {
			return n
		}
	}
	return id
}

func (c *chatController) List(ctx *fiber.Ctx) error {
	chats := c.server.store.chats(username(ctx))

	items := make([]fiber.Map, 0, len(chats))
	for _, chat := range chats {
		items = append(items, fiber.Map{
			"chat_id": c.chatIDValue(chat.id),
			"title":   chat.title,
		})
	}
	return ctx.JSON(fiber.Map{"chats": items})
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	history, err := c.server.store.history(username(ctx), ctx.Params("chat_id"))
	if err != nil {
		if errors.Is(err, errChatNotFound) {
			return detail(ctx, fiber.StatusNotFound, "Chat not found")
		}
		return detail(ctx, fiber.StatusInternalServerError, err.Error())
	}
	return ctx.JSON(fiber.Map{"history": history})
}

func (c *chatController) NewChat(ctx *fiber.Ctx) error {
	id := c.server.store.newChat(username(ctx))
	return ctx.JSON(fiber.Map{"chat_id": c.chatIDValue(id)})
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req chatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return detail(ctx, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Reset {
		c.server.store.forgetAll()
		c.server.logger.Info(logModule, "Conversation memory cleared", nil)
		return ctx.JSON(fiber.Map{"response": resetAnswer, "chat_id": nil})
	}

	_, user, err := c.server.bearer(ctx)
	if err != nil {
		ctx.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return detail(ctx, fiber.StatusUnauthorized, err.Error())
	}
	if strings.TrimSpace(req.Msg) == "" {
		return detail(ctx, fiber.StatusUnprocessableEntity, "msg is required")
	}

	requested := ""
	if req.ChatId != nil {
		requested = req.ChatId.String()
	}
	chatID := c.server.store.resolveChat(user, requested)

	remembered := c.server.store.remember(chatID, req.Msg)
	answer := c.server.cfg.Answer(req.Msg, c.server.store.documents(user), remembered)
	c.server.store.recordTurn(user, chatID, req.Msg, answer)

	// A nil answer is encoded as null.
	return ctx.JSON(fiber.Map{"response": answer, "chat_id": c.chatIDValue(chatID)})
}
