package airtable

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

	client := NewClient(&config.Airtable{
		ApiKey:  "test_api_key",
		BaseID:  "appTest",
		Table:   "fact_transactions",
		BaseURL: server.URL,
	}, zap.NewNop())

	return client, server
}

const validRecordJSON = `{
	"records": [
		{
			"id": "rec001",
			"fields": {
				"date": "2023-01-10",
				"action": "buy",
				"account": "Broker A",
				"market": "ASX",
				"ticker": "BHP",
				"units": 10,
				"price": 100,
				"brokerage": 5,
				"net_total": 1005,
				"effective_price": 100.5
			}
		}
	]
}`

func TestListTransactions(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/appTest/fact_transactions", r.URL.Path)
			assert.Equal(t, "Bearer test_api_key", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(validRecordJSON))
		})

		client, server := setupTestServer(handler)
		defer server.Close()

		transactions, err := client.ListTransactions(context.Background())

		assert.NoError(t, err)
		assert.Len(t, transactions, 1)

		txn := transactions[0]
		assert.Equal(t, time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC), txn.TradeDate)
		assert.Equal(t, "buy", txn.Action)
		assert.Equal(t, "Broker A", txn.Account)
		assert.Equal(t, "ASX", txn.Market)
		assert.Equal(t, "BHP", txn.Ticker)
		assert.Equal(t, 10.0, txn.Units)
		assert.Equal(t, 100.0, txn.Price)
		assert.Equal(t, 5.0, txn.Brokerage)
		assert.Equal(t, 1005.0, txn.NetTotal)
		assert.Equal(t, 100.5, txn.EffectivePrice)
	})

	t.Run("RemoteError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"type":"AUTHENTICATION_REQUIRED"}}`))
		})

		client, server := setupTestServer(handler)
		defer server.Close()

		transactions, err := client.ListTransactions(context.Background())

		assert.Nil(t, transactions)
		var fetchErr *FetchError
		assert.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, http.StatusUnauthorized, fetchErr.Status)
	})

	t.Run("MissingField", func(t *testing.T) {
		// "units" dropped from the fields mapping.
		body := `{
			"records": [
				{
					"id": "rec002",
					"fields": {
						"date": "2023-01-10",
						"action": "buy",
						"account": "Broker A",
						"market": "ASX",
						"ticker": "BHP",
						"price": 100,
						"brokerage": 5,
						"net_total": 1005,
						"effective_price": 100.5
					}
				}
			]
		}`
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		})

		client, server := setupTestServer(handler)
		defer server.Close()

		transactions, err := client.ListTransactions(context.Background())

		assert.Nil(t, transactions)
		var shapeErr *DataShapeError
		assert.ErrorAs(t, err, &shapeErr)
		assert.Equal(t, "units", shapeErr.Field)
		assert.Equal(t, "rec002", shapeErr.Record)
	})
}

func TestTransactionFromFields(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"date": "2023-01-10", "action": "sell", "account": "Broker A",
			"market": "ASX", "ticker": "CSL", "units": -4.0, "price": 250.0,
			"brokerage": 5.0, "net_total": 995.0, "effective_price": 248.75,
		}
	}

	testCases := []struct {
		name        string
		mutate      func(map[string]any)
		expectField string
	}{
		{
			name:   "AllFieldsPresent",
			mutate: func(map[string]any) {},
		},
		{
			name:        "IllTypedNumber",
			mutate:      func(f map[string]any) { f["units"] = "ten" },
			expectField: "units",
		},
		{
			name:        "IllTypedString",
			mutate:      func(f map[string]any) { f["ticker"] = 42.0 },
			expectField: "ticker",
		},
		{
			name:        "UnparseableDate",
			mutate:      func(f map[string]any) { f["date"] = "10/01/2023" },
			expectField: "date",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fields := base()
			tc.mutate(fields)

			txn, err := transactionFromFields("rec003", fields)

			if tc.expectField == "" {
				assert.NoError(t, err)
				assert.Equal(t, "CSL", txn.Ticker)
				assert.Equal(t, -4.0, txn.Units)
				return
			}

			var shapeErr *DataShapeError
			assert.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, tc.expectField, shapeErr.Field)
		})
	}
}
