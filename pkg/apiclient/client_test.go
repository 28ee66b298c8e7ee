package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/accesshq/access-console/pkg/httpclient"
)

func TestGetAttachesBearerHeaderWhenTokenPresent(t *testing.T) {
	var gotAuth string
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(srv.URL, httpclient.NewRestyClient(2*time.Second), StaticToken("abc123"))

	resp, err := client.Get(context.Background(), "/users/42")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	if gotAuth != "Bearer abc123" {
		t.Fatalf("Authorization = %q, want %q", gotAuth, "Bearer abc123")
	}
	if gotPath != "/users/42" {
		t.Fatalf("path = %q, want %q", gotPath, "/users/42")
	}
}

func TestGetOmitsAuthorizationWhenNoToken(t *testing.T) {
	var hadAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	for name, tokens := range map[string]TokenSource{
		"nil source":  nil,
		"empty token": StaticToken(""),
	} {
		hadAuth = false
		client := New(srv.URL, httpclient.NewRestyClient(2*time.Second), tokens)
		if _, err := client.Get(context.Background(), "/users/42"); err != nil {
			t.Fatalf("%s: Get: %v", name, err)
		}
		if hadAuth {
			t.Fatalf("%s: request carried an Authorization header", name)
		}
	}
}

func TestGetTargetIsVerbatimConcatenation(t *testing.T) {
	var gotURI string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.RequestURI()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// Endpoint with query and no leading-slash normalization expected.
	client := New(srv.URL, httpclient.NewRestyClient(2*time.Second), nil)
	if _, err := client.Get(context.Background(), "/pools/abc?cursor=7"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotURI != "/pools/abc?cursor=7" {
		t.Fatalf("request URI = %q", gotURI)
	}
}

func TestGetReturnsNon2xxAsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "denied", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := New(srv.URL, httpclient.NewRestyClient(2*time.Second), StaticToken("expired"))
	resp, err := client.Get(context.Background(), "/pools/abc")
	if err != nil {
		t.Fatalf("non-2xx must not be an error, got %v", err)
	}
	if resp.StatusCode() != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode())
	}
}

type failingClient struct{ err error }

func (f *failingClient) Get(context.Context, string, map[string]string) (httpclient.Response, error) {
	return nil, f.err
}

func TestGetPropagatesTransportErrorUnchanged(t *testing.T) {
	sentinel := errors.New("connection refused")
	client := New("https://api.example.com", &failingClient{err: sentinel}, nil)

	_, err := client.Get(context.Background(), "/users/42")
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want the transport error unchanged", err)
	}
}

func TestGetSurfacesTokenSourceError(t *testing.T) {
	sentinel := errors.New("store locked")
	tokens := TokenSourceFunc(func() (string, bool, error) { return "", false, sentinel })

	client := New("https://api.example.com", &failingClient{err: errors.New("unreachable")}, tokens)
	if _, err := client.Get(context.Background(), "/users/42"); !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want token source error", err)
	}
}
