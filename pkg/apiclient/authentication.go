package apiclient

import (
	"context"
	"net/http"

	"github.com/zhaopengme/dwtrbot/pkg/api"
)

func (c *Client) Login(ctx context.Context, req api.AuthenticateUserRequest) api.Result[api.AuthenticateUserResponse] {
	resp, err := c.post(ctx, c.endpoint("users:authenticate", nil), req)
	return decode[api.AuthenticateUserResponse]("login", resp, err, http.StatusOK)
}

// Register creates a user. The API answers 201 Created on success.
func (c *Client) Register(ctx context.Context, req api.CreateUserRequest) api.Result[api.AuthenticateUserResponse] {
	resp, err := c.post(ctx, c.endpoint("users", nil), req)
	return decode[api.AuthenticateUserResponse]("register", resp, err, http.StatusCreated)
}
