package mockserver

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const localsUsername = "username"

var errInvalidToken = errors.New("could not validate credentials")

func (s *Server) issueToken(username string) (string, error) {
	claims := jwt.MapClaims{
		"sub": username,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(s.cfg.TokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

// bearer returns the token and its subject from the Authorization header.
func (s *Server) bearer(ctx *fiber.Ctx) (string, string, error) {
	authHeader := ctx.Get(fiber.HeaderAuthorization)
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return "", "", errInvalidToken
	}
	tokenStr := authHeader[7:]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", "", errInvalidToken
	}
	if s.store.isRevoked(tokenStr) {
		return "", "", errInvalidToken
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", "", errInvalidToken
	}
	return tokenStr, subject, nil
}

func (s *Server) jwtMiddleware(ctx *fiber.Ctx) error {
	_, username, err := s.bearer(ctx)
	if err != nil {
		ctx.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return detail(ctx, fiber.StatusUnauthorized, err.Error())
	}

	ctx.Locals(localsUsername, username)
	return ctx.Next()
}

func username(ctx *fiber.Ctx) string {
	name, _ := ctx.Locals(localsUsername).(string)
	return name
}
