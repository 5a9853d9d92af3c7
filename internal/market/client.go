// Package market polls trending-coin data and turns newly trending
// coins into opportunity notifications and a system message in the
// opportunity room.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultBaseURL is the public CoinGecko API root.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

const trendingLimit = 16

// TrendingCoin is one entry from the trending endpoint.
type TrendingCoin struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client fetches trending data from a CoinGecko-style API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client; empty baseURL selects the public API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchTrending returns the current top trending coins.
func (c *Client) FetchTrending(ctx context.Context) ([]TrendingCoin, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/trending", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch trending coins: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch trending coins: unexpected status %s", resp.Status)
	}

	var payload struct {
		Coins []struct {
			Item TrendingCoin `json:"item"`
		} `json:"coins"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode trending payload: %w", err)
	}

	coins := make([]TrendingCoin, 0, trendingLimit)
	for _, entry := range payload.Coins {
		coins = append(coins, entry.Item)
		if len(coins) == trendingLimit {
			break
		}
	}
	return coins, nil
}
