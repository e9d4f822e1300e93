package mockserver

import (
	"errors"

	"ai-ragchat-client/internal/dto"

	"github.com/gofiber/fiber/v2"
)

type authController struct {
	server *Server
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	r.Post("/token", c.Token)
	r.Post("/register/", c.Register)
	if c.server.cfg.LogoutPath != "" {
		r.Post(c.server.cfg.LogoutPath, c.server.jwtMiddleware, c.Logout)
	}
}

// Token implements the OAuth2 password grant.
func (c *authController) Token(ctx *fiber.Ctx) error {
	if grant := ctx.FormValue("grant_type"); grant != "password" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":             "unsupported_grant_type",
			"error_description": "grant_type must be password",
		})
	}

	req := dto.LoginRequest{
		Username: ctx.FormValue("username"),
		Password: ctx.FormValue("password"),
	}
	if err := c.server.validate.Struct(req); err != nil {
		return detail(ctx, fiber.StatusUnprocessableEntity, err.Error())
	}

	if err := c.server.store.authenticate(req.Username, req.Password); err != nil {
		ctx.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return detail(ctx, fiber.StatusUnauthorized, "Incorrect username or password")
	}

	token, err := c.server.issueToken(req.Username)
	if err != nil {
		return detail(ctx, fiber.StatusInternalServerError, err.Error())
	}

	return ctx.JSON(dto.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return detail(ctx, fiber.StatusBadRequest, "invalid request body")
	}
	if err := c.server.validate.Struct(req); err != nil {
		return detail(ctx, fiber.StatusUnprocessableEntity, err.Error())
	}

	if err := c.server.store.addUser(req.Username, req.Email, req.Password); err != nil {
		if errors.Is(err, errUserExists) {
			return detail(ctx, fiber.StatusConflict, "Username already registered")
		}
		return detail(ctx, fiber.StatusInternalServerError, err.Error())
	}

	c.server.logger.Info(logModule, "User registered", map[string]interface{}{"username": req.Username})
	return ctx.JSON(dto.RegisterResponse{
		Username: req.Username,
		Email:    req.Email,
		Message:  "User registered successfully",
	})
}

// Logout revokes the presented token until it would have expired anyway.
func (c *authController) Logout(ctx *fiber.Ctx) error {
	token, _, err := c.server.bearer(ctx)
	if err != nil {
		return detail(ctx, fiber.StatusUnauthorized, err.Error())
	}
	c.server.store.revoke(token)
	return ctx.JSON(fiber.Map{"message": "Logged out"})
}
