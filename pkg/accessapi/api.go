package accessapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/accesshq/access-console/internal/domain"
	"github.com/accesshq/access-console/pkg/apiclient"
)

// Package accessapi wraps the staking backend endpoints with typed calls.
// It sits one layer above apiclient: this is where status codes become
// errors and bodies become domain models.

// API exposes typed calls against the staking backend.
type API struct {
	client *apiclient.Client
}

// New builds an API over the given authenticated client.
func New(client *apiclient.Client) *API {
	return &API{client: client}
}

// StakePool fetches the pool state for the given pool address.
func (a *API) StakePool(ctx context.Context, address string) (domain.StakePool, error) {
	var pool domain.StakePool
	if err := a.getJSON(ctx, "/pools/"+url.PathEscape(address), &pool); err != nil {
		return domain.StakePool{}, fmt.Errorf("fetch stake pool %s: %w", address, err)
	}
	return pool, nil
}

// StakeAccount fetches a staker's position in a pool.
func (a *API) StakeAccount(ctx context.Context, owner, pool string) (domain.StakeAccount, error) {
	endpoint := "/stake-accounts/" + url.PathEscape(owner) + "/" + url.PathEscape(pool)
	var account domain.StakeAccount
	if err := a.getJSON(ctx, endpoint, &account); err != nil {
		return domain.StakeAccount{}, fmt.Errorf("fetch stake account %s/%s: %w", owner, pool, err)
	}
	return account, nil
}

// Bond fetches a bond account by address.
func (a *API) Bond(ctx context.Context, address string) (domain.BondAccount, error) {
	var bond domain.BondAccount
	if err := a.getJSON(ctx, "/bonds/"+url.PathEscape(address), &bond); err != nil {
		return domain.BondAccount{}, fmt.Errorf("fetch bond %s: %w", address, err)
	}
	return bond, nil
}

// PoolRewards fetches the claimable rewards summary for a pool.
func (a *API) PoolRewards(ctx context.Context, address string) (domain.RewardsSummary, error) {
	var rewards domain.RewardsSummary
	if err := a.getJSON(ctx, "/pools/"+url.PathEscape(address)+"/rewards", &rewards); err != nil {
		return domain.RewardsSummary{}, fmt.Errorf("fetch pool rewards %s: %w", address, err)
	}
	return rewards, nil
}

// getJSON performs an authenticated GET and decodes the 200 body into out.
func (a *API) getJSON(ctx context.Context, endpoint string, out any) error {
	resp, err := a.client.Get(ctx, endpoint)
	if err != nil {
		return err
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("status %d body: %s", resp.StatusCode(), responseSnippet(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
