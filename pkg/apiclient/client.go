// Package apiclient issues authenticated GET requests against the staking
// backend. It is deliberately thin: it attaches a bearer credential when one
// is available and forwards everything else — status codes included — to the
// caller untouched.
package apiclient

import (
	"context"
	"time"

	"github.com/accesshq/access-console/pkg/httpclient"
)

const defaultTimeout = 15 * time.Second

// TokenSource yields the bearer credential attached to outgoing requests.
// The second return reports whether a credential is present; absence is a
// valid state and produces an unauthenticated request.
type TokenSource interface {
	Token() (string, bool, error)
}

// TokenSourceFunc adapts a plain function to a TokenSource.
type TokenSourceFunc func() (string, bool, error)

func (f TokenSourceFunc) Token() (string, bool, error) { return f() }

// StaticToken returns a TokenSource that always yields the given token.
// An empty token behaves as absent.
func StaticToken(token string) TokenSource {
	return TokenSourceFunc(func() (string, bool, error) {
		return token, token != "", nil
	})
}

// Client performs GET requests against baseURL + endpoint.
type Client struct {
	baseURL string
	http    httpclient.Client
	tokens  TokenSource
}

// New builds a Client. A nil http client falls back to the default resty
// transport; a nil token source means every request goes out unauthenticated.
func New(baseURL string, client httpclient.Client, tokens TokenSource) *Client {
	if client == nil {
		client = httpclient.NewRestyClient(defaultTimeout)
	}
	return &Client{
		baseURL: baseURL,
		http:    client,
		tokens:  tokens,
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Get issues a GET to baseURL + endpoint. The target is the verbatim
// concatenation of the two strings; neither part is normalized. When the
// token source yields a credential, the request carries exactly one
// "Authorization: Bearer <token>" header; otherwise no such header is sent.
// Transport failures are returned unchanged, and non-2xx responses are
// returned as responses, not errors.
func (c *Client) Get(ctx context.Context, endpoint string) (httpclient.Response, error) {
	headers, err := c.authHeaders()
	if err != nil {
		return nil, err
	}
	return c.http.Get(ctx, c.baseURL+endpoint, headers)
}

// authHeaders builds the header map for a single request. It contains the
// Authorization entry when a token is present and is empty otherwise.
func (c *Client) authHeaders() (map[string]string, error) {
	headers := map[string]string{}
	if c.tokens == nil {
		return headers, nil
	}
	token, ok, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}
	if ok && token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return headers, nil
}
