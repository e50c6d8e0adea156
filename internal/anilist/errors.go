package anilist

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GraphQLError is a single entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ErrorKind classifies an APIError for presentation.
type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindTransport
	KindRateLimited
	KindUnauthorized
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRateLimited:
		return "rate limited"
	case KindUnauthorized:
		return "unauthorized"
	case KindServer:
		return "server error"
	default:
		return "api error"
	}
}

// APIError is returned for every failed request. Status is zero when the
// request never produced an HTTP response.
type APIError struct {
	Status int
	Errors []GraphQLError
	Text   string
	Err    error
}

func (e *APIError) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("failed to reach AniList: %s", e.Text)
	case len(e.Errors) > 0:
		msgs := make([]string, 0, len(e.Errors))
		for _, ge := range e.Errors {
			msgs = append(msgs, ge.Message)
		}
		return fmt.Sprintf("AniList API returned status code %d: %s", e.Status, strings.Join(msgs, "; "))
	default:
		return fmt.Sprintf("AniList API returned status code %d: %s", e.Status, e.Text)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Kind classifies the error by status code.
func (e *APIError) Kind() ErrorKind {
	switch {
	case e.Status == 0:
		return KindTransport
	case e.Status == http.StatusTooManyRequests:
		return KindRateLimited
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return KindUnauthorized
	case e.Status >= http.StatusInternalServerError:
		return KindServer
	default:
		return KindGeneric
	}
}

// KindOf returns the kind of err if it wraps an *APIError.
func KindOf(err error) (ErrorKind, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind(), true
	}
	return KindGeneric, false
}
