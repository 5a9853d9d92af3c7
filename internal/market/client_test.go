package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func trendingServer(t *testing.T, coinIDs ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/trending", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"coins":[`)
		for i, id := range coinIDs {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"item":{"id":%q,"name":%q}}`, id, "Coin "+id)
		}
		fmt.Fprint(w, `]}`)
	}))
}

func TestFetchTrending(t *testing.T) {
	srv := trendingServer(t, "bitcoin", "pepe")
	defer srv.Close()

	coins, err := NewClient(srv.URL).FetchTrending(context.Background())
	require.NoError(t, err)
	require.Equal(t, []TrendingCoin{
		{ID: "bitcoin", Name: "Coin bitcoin"},
		{ID: "pepe", Name: "Coin pepe"},
	}, coins)
}

func TestFetchTrendingCapsAtLimit(t *testing.T) {
	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		ids = append(ids, fmt.Sprintf("coin-%02d", i))
	}
	srv := trendingServer(t, ids...)
	defer srv.Close()

	coins, err := NewClient(srv.URL).FetchTrending(context.Background())
	require.NoError(t, err)
	require.Len(t, coins, trendingLimit)
}

func TestFetchTrendingNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchTrending(context.Background())
	require.Error(t, err)
}
