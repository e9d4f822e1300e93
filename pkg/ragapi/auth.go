package ragapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"ai-ragchat-client/internal/dto"

	"golang.org/x/oauth2"
)

// Login runs the OAuth2 password grant against /token and returns the bearer
// token. Any non-2xx answer is reported as KindUnauthorized.
func (c *Client) Login(ctx context.Context, username, password string) (*dto.TokenResponse, error) {
	const op = "login"

	req := dto.LoginRequest{Username: username, Password: password}
	if err := c.validate.Struct(req); err != nil {
		return nil, validationError(op, err)
	}

	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.baseURL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := conf.PasswordCredentialsToken(ctx, req.Username, req.Password)
	if err != nil {
		return nil, c.loginError(op, err)
	}

	c.logger.Debug(logModule, "token issued", map[string]interface{}{
		"op":         op,
		"token_type": token.TokenType,
	})

	return &dto.TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
	}, nil
}

func (c *Client) loginError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		message := retrieveErr.ErrorDescription
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		if message == "" {
			message = serverMessage(status, retrieveErr.Body)
		}
		return &Error{Op: op, Kind: KindUnauthorized, StatusCode: status, Message: message, Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return transportError(op, err)
	}
	// Remaining failures come from a 2xx body without a usable access_token.
	return malformedError(op, err)
}

// Register creates an account. It does not authenticate the caller.
func (c *Client) Register(ctx context.Context, payload dto.RegisterRequest) (*dto.RegisterResponse, error) {
	const op = "register"

	if err := c.validate.Struct(payload); err != nil {
		return nil, validationError(op, err)
	}

	req, err := jsonRequest(op, http.MethodPost, "/register/", "", payload)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var response dto.RegisterResponse
	if err := decode(op, body, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Logout notifies the backend that token is no longer in use. It is a no-op
// unless a LogoutPath was configured.
func (c *Client) Logout(ctx context.Context, token string) error {
	if c.logoutPath == "" || token == "" {
		return nil
	}
	_, err := c.do(ctx, request{
		op:     "logout",
		method: http.MethodPost,
		path:   c.logoutPath,
		token:  token,
	})
	return err
}
