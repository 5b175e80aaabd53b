package api

import (
	"context"
	"errors"
	"net/http"
)

// ErrNoToken is returned when a login succeeds without a token in the body.
var ErrNoToken = errors.New("login response carried no token")

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	req, err := jsonRequest(http.MethodPost, "login", loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}
	var resp loginResponse
	if err := c.do(ctx, req, &resp); err != nil {
		return "", err
	}
	switch {
	case resp.Token != "":
		return resp.Token, nil
	case resp.AccessToken != "":
		return resp.AccessToken, nil
	}
	return "", ErrNoToken
}

// Logout invalidates the current token on the API side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, path: "logout"}, nil)
}
