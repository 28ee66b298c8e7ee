package watcher

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/accesshq/access-console/pkg/accessapi"
	"github.com/accesshq/access-console/pkg/httpclient"

	"github.com/PuerkitoBio/goquery"
)

const maxHTMLBodyBytes = 1 << 20 // 1 MiB

// DiscoverPools fetches the public explorer directory page and extracts pool
// entries from elements carrying a data-pool-address attribute. The element
// text becomes the display name when present.
func DiscoverPools(ctx context.Context, client httpclient.Client, url string) ([]accessapi.WatchedPool, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is nil")
	}
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("directory url is empty")
	}

	resp, err := client.Get(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch directory page: %w", err)
	}

	body := resp.Body()
	if resp.StatusCode() != 200 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return nil, fmt.Errorf("directory page status %d body: %s", resp.StatusCode(), snippet)
	}
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	return parseDirectory(body)
}

func parseDirectory(body []byte) ([]accessapi.WatchedPool, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	seen := map[string]bool{}
	var pools []accessapi.WatchedPool

	doc.Find("[data-pool-address]").Each(func(_ int, node *goquery.Selection) {
		address, ok := node.Attr("data-pool-address")
		address = strings.TrimSpace(address)
		if !ok || address == "" || seen[address] {
			return
		}
		seen[address] = true

		pools = append(pools, accessapi.WatchedPool{
			Address: address,
			Name:    strings.TrimSpace(node.Text()),
		})
	})

	return pools, nil
}
