// Package anilist talks to the AniList GraphQL API: the request transport,
// list snapshots, viewer settings and batched list-entry mutations.
package anilist

//go:generate mockgen -destination mock_requester_test.go -package anilist -source=client.go

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rl404/verniy"
)

// ErrEmptyResponse is returned when a successful response carries no data.
var ErrEmptyResponse = errors.New("anilist returned no data")

// Requester executes a GraphQL document and returns the raw "data" member.
// Failures are reported as *APIError.
type Requester interface {
	Request(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)
}

// Client is the HTTP Requester. The bearer token is attached by the
// http.Client's transport.
type Client struct {
	c *verniy.Client
}

// NewClient creates a client posting to apiURL with the given http client.
func NewClient(httpClient *http.Client, apiURL string) *Client {
	v := verniy.New()
	if apiURL != "" {
		v.Host = apiURL
	}
	if httpClient != nil {
		v.Http = *httpClient
	}
	return &Client{c: v}
}

type requestBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type responseBody struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Request posts a query or mutation.
func (c *Client) Request(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	jsonBody, err := json.Marshal(requestBody{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	body, code, err := c.c.MakeRequest(ctx, jsonBody)
	if err != nil {
		return nil, &APIError{Text: err.Error(), Err: err}
	}

	var resp responseBody
	parseErr := json.Unmarshal(body, &resp)

	if code < 200 || code >= 300 {
		if parseErr == nil && len(resp.Errors) > 0 {
			return nil, &APIError{Status: code, Errors: resp.Errors}
		}
		return nil, &APIError{Status: code, Text: string(body)}
	}

	if parseErr != nil {
		return nil, &APIError{Status: code, Text: string(body), Err: parseErr}
	}

	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		if len(resp.Errors) > 0 {
			return nil, &APIError{Status: code, Errors: resp.Errors}
		}
		return nil, ErrEmptyResponse
	}

	return resp.Data, nil
}

// do runs a request and decodes its data into T.
func do[T any](ctx context.Context, r Requester, query string, variables map[string]any) (T, error) {
	var out T

	data, err := r.Request(ctx, query, variables)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return out, nil
}
