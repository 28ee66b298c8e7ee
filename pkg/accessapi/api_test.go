package accessapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/accesshq/access-console/pkg/apiclient"
	"github.com/accesshq/access-console/pkg/httpclient"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc, token string) *API {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var tokens apiclient.TokenSource
	if token != "" {
		tokens = apiclient.StaticToken(token)
	}
	client := apiclient.New(srv.URL, httpclient.NewRestyClient(2*time.Second), tokens)
	return New(client)
}

func TestStakePoolDecodesResponse(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pools/pool-1" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Fatalf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"address": "pool-1",
			"owner": "owner-1",
			"total_staked": 5000,
			"minimum_stake_amount": 100,
			"last_claimed_time": 1700000000
		}`))
	}, "tok-1")

	pool, err := api.StakePool(context.Background(), "pool-1")
	if err != nil {
		t.Fatalf("StakePool: %v", err)
	}
	if pool.Address != "pool-1" || pool.Owner != "owner-1" {
		t.Fatalf("unexpected pool %+v", pool)
	}
	if pool.TotalStaked != 5000 || pool.MinimumStakeAmount != 100 {
		t.Fatalf("unexpected amounts %+v", pool)
	}
}

func TestStakeAccountEscapesPathSegments(t *testing.T) {
	var gotPath string
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"owner": "own/er", "pool": "pool-1", "amount": 42}`))
	}, "")

	account, err := api.StakeAccount(context.Background(), "own/er", "pool-1")
	if err != nil {
		t.Fatalf("StakeAccount: %v", err)
	}
	if gotPath != "/stake-accounts/own%2Fer/pool-1" {
		t.Fatalf("path = %q", gotPath)
	}
	if account.Amount != 42 {
		t.Fatalf("amount = %d", account.Amount)
	}
}

func TestPoolRewardsErrorOnNon200(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "pool not found", http.StatusNotFound)
	}, "")

	if _, err := api.PoolRewards(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error on 404 response")
	}
}

func TestBondErrorOnMalformedBody(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"address": `))
	}, "")

	if _, err := api.Bond(context.Background(), "bond-1"); err == nil {
		t.Fatalf("expected decode error on malformed body")
	}
}
