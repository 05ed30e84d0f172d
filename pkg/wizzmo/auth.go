package wizzmo

import (
	"context"
	"net/http"
)

// SignUp registers a new account and stores the access token on success.
func (c *Client) SignUp(ctx context.Context, in SignUpInput) (*Auth, error) {
	var out Auth
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Auth, error) {
	var out Auth
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

// Refresh rotates the refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Auth, error) {
	var out Auth
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

// SignOut revokes the refresh token. The local token is dropped even when
// the server call fails.
func (c *Client) SignOut(ctx context.Context, refreshToken string) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": refreshToken}, nil)
	c.SetToken("")
	return err
}
