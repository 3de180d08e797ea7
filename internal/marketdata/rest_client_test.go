package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio-dashboard-go/internal/config"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// setupTestServer creates a test server and a Client configured to use it.
func setupTestServer(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	client := NewClient(&config.MarketData{
		ApiKey:         "test_token",
		BaseURL:        server.URL,
		MarketSuffix:   ".AX",
		RateLimit:      1000, // effectively unlimited in tests
		RateLimitBurst: 1000,
	}, zap.NewNop())

	return client, server
}

func TestSymbol(t *testing.T) {
	client, server := setupTestServer(http.NotFoundHandler())
	defer server.Close()

	assert.Equal(t, "BHP.AX", client.Symbol("BHP"))
}

func TestHistory(t *testing.T) {
	from := time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, time.January, 12, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/eod/BHP.AX", r.URL.Path)
			assert.Equal(t, "2023-01-10", r.URL.Query().Get("from"))
			assert.Equal(t, "2023-01-12", r.URL.Query().Get("to"))
			assert.Equal(t, "d", r.URL.Query().Get("period"))
			assert.Equal(t, "test_token", r.URL.Query().Get("api_token"))
			w.Header().Set("Content-Type", "application/json")
			// Deliberately out of order; History must sort ascending.
			_, _ = w.Write([]byte(`[
				{"date":"2023-01-11","open":101,"high":112,"low":99,"close":110},
				{"date":"2023-01-10","open":99,"high":102,"low":98,"close":100},
				{"date":"2023-01-12","open":111,"high":121,"low":109,"close":120}
			]`))
		})

		client, server := setupTestServer(handler)
		defer server.Close()

		bars, err := client.History(context.Background(), "BHP.AX", from, to)

		assert.NoError(t, err)
		assert.Equal(t, []Bar{
			{Date: from, Close: 100},
			{Date: from.AddDate(0, 0, 1), Close: 110},
			{Date: to, Close: 120},
		}, bars)
	})

	t.Run("EmptySeries", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
		})

		client, server := setupTestServer(handler)
		defer server.Close()

		bars, err := client.History(context.Background(), "GONE.AX", from, to)

		assert.Nil(t, bars)
		assert.ErrorIs(t, err, ErrNoPriceData)
	})

	t.Run("APIError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"invalid token"}`))
		})

		client, server := setupTestServer(handler)
		defer server.Close()

		bars, err := client.History(context.Background(), "BHP.AX", from, to)

		assert.Nil(t, bars)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoPriceData)
	})
}

func TestLatestClose(t *testing.T) {
	t.Run("NonEmpty", func(t *testing.T) {
		bars := []Bar{
			{Date: time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC), Close: 100},
			{Date: time.Date(2023, 1, 11, 0, 0, 0, 0, time.UTC), Close: 110},
		}
		price, ok := LatestClose(bars)
		assert.True(t, ok)
		assert.Equal(t, 110.0, price)
	})

	t.Run("Empty", func(t *testing.T) {
		price, ok := LatestClose(nil)
		assert.False(t, ok)
		assert.Equal(t, 0.0, price)
	})
}
