package watcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/accesshq/access-console/pkg/httpclient"
)

const directoryHTML = `<!doctype html>
<html><body>
<table>
  <tr data-pool-address="pool-1"><td>Creator One</td></tr>
  <tr data-pool-address="pool-2"><td>Creator Two</td></tr>
  <tr data-pool-address="pool-1"><td>Duplicate Row</td></tr>
  <tr data-pool-address="  "><td>Blank</td></tr>
</table>
</body></html>`

func TestDiscoverPoolsParsesDirectoryPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(directoryHTML))
	}))
	defer srv.Close()

	pools, err := DiscoverPools(context.Background(), httpclient.NewRestyClient(2*time.Second), srv.URL)
	if err != nil {
		t.Fatalf("DiscoverPools: %v", err)
	}

	if len(pools) != 2 {
		t.Fatalf("pools = %d, want 2 (dedup + blank filtered)", len(pools))
	}
	if pools[0].Address != "pool-1" || pools[0].Name != "Creator One" {
		t.Fatalf("pools[0] = %+v", pools[0])
	}
	if pools[1].Address != "pool-2" {
		t.Fatalf("pools[1] = %+v", pools[1])
	}
}

func TestDiscoverPoolsErrorOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := DiscoverPools(context.Background(), httpclient.NewRestyClient(2*time.Second), srv.URL); err == nil {
		t.Fatalf("expected error on non-200 directory page")
	}
}
