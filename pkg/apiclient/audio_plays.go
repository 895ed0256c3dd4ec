package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/zhaopengme/dwtrbot/pkg/api"
)

func (c *Client) Get(ctx context.Context, id uuid.UUID) api.Result[api.AudioPlay] {
	resp, err := c.get(ctx, c.client, c.endpoint("audioPlays/"+id.String(), nil), true)
	return decode[api.AudioPlay]("get_audio_play", resp, err, http.StatusOK)
}

// Search looks audio plays up by title and synopsis. A limit of
// api.SearchLimitNone leaves the page size to the server.
func (c *Client) Search(ctx context.Context, query string, limit int) api.Result[api.SearchAudioPlaysResponse] {
	q := url.Values{}
	q.Set("query", query)
	if limit > api.SearchLimitNone {
		q.Set("limit", strconv.Itoa(limit))
	}
	resp, err := c.get(ctx, c.client, c.endpoint("audioPlays:search", q), true)
	return decode[api.SearchAudioPlaysResponse]("search_audio_plays", resp, err, http.StatusOK)
}

// GetLocation fetches the self-hosted location with the user's bearer
// token. These responses are user specific and are never cached.
func (c *Client) GetLocation(ctx context.Context, token string, id uuid.UUID) api.Result[api.AudioPlayLocation] {
	resp, err := c.get(ctx, c.bearerClient(ctx, token), c.endpoint("audioPlays/"+id.String()+"/location", nil), false)
	return decode[api.AudioPlayLocation]("get_audio_play_location", resp, err, http.StatusOK)
}

// bearerClient wraps the base transport so every request carries
// "Authorization: Bearer <token>".
func (c *Client) bearerClient(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	hc.Timeout = c.client.Timeout
	return hc
}
