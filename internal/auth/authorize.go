package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// ErrNoAccessToken is returned when a pasted redirect carries no token.
var ErrNoAccessToken = errors.New("no access_token in redirect")

// AuthorizeURL builds the implicit-grant URL the user opens to get a token.
func AuthorizeURL(clientID, authURL string) string {
	cfg := oauth2.Config{
		ClientID: clientID,
		Endpoint: oauth2.Endpoint{AuthURL: authURL},
	}
	return cfg.AuthCodeURL("", oauth2.SetAuthURLParam("response_type", "token"))
}

// ParseRedirect extracts the access token from the URL AniList redirects to.
// A bare token is returned as is.
func ParseRedirect(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrNoAccessToken
	}
	if !strings.Contains(raw, "access_token=") {
		if strings.Count(raw, ".") == 2 && !strings.ContainsAny(raw, "/?#= ") {
			return raw, nil
		}
		return "", ErrNoAccessToken
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}

	for _, part := range []string{u.Fragment, u.RawQuery} {
		values, err := url.ParseQuery(part)
		if err != nil {
			continue
		}
		if token := values.Get("access_token"); token != "" {
			return token, nil
		}
	}
	return "", ErrNoAccessToken
}
