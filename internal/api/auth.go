package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/theirongolddev/tally/internal/model"
)

// Login exchanges credentials for a bearer token. It does not store the
// token; see SetToken. A 401 comes back as *APIError with the server detail.
func (c *Client) Login(ctx context.Context, creds Credentials) (TokenResponse, error) {
	var out TokenResponse
	if err := Validate(creds); err != nil {
		return out, err
	}
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/login", false, creds, &out); err != nil {
		return TokenResponse{}, err
	}
	if out.AccessToken == "" {
		return TokenResponse{}, errors.New("api: login response carried no token")
	}
	return out, nil
}

// Register creates an account. It never authenticates.
func (c *Client) Register(ctx context.Context, in RegisterRequest) (RegisterResponse, error) {
	var out RegisterResponse
	if err := Validate(in); err != nil {
		return out, err
	}
	err := c.sendJSON(ctx, http.MethodPost, "/auth/register", false, in, &out)
	return out, err
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.getJSON(ctx, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateMe saves profile edits.
func (c *Client) UpdateMe(ctx context.Context, in ProfileUpdate) error {
	if err := Validate(in); err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodPut, "/users/me", true, in, &messageResponse{})
}
