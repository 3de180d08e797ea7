package airtable

import (
	"context"
	"fmt"
	"time"

	"portfolio-dashboard-go/internal/config"
	"portfolio-dashboard-go/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const tradeDateFormat = "2006-01-02"

// The ten fields every transaction record must carry, under their raw
// column names.
var requiredFields = []string{
	"date", "action", "account", "market", "ticker",
	"units", "price", "brokerage", "net_total", "effective_price",
}

// ClientInterface defines the interface for the remote transactions table.
type ClientInterface interface {
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
}

// Client reads transaction records from an Airtable base over its REST API.
// It implements ClientInterface.
type Client struct {
	client *resty.Client
	apiKey string
	baseID string
	table  string
	logger *zap.Logger
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new Airtable REST client.
func NewClient(cfg *config.Airtable, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	return &Client{
		client: client,
		apiKey: cfg.ApiKey,
		baseID: cfg.BaseID,
		table:  cfg.Table,
		logger: logger,
	}
}

// FetchError reports a failed remote table call. It is fatal for the run:
// the dashboard is never rendered from partial transaction data.
type FetchError struct {
	Status int
	Body   string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("remote table fetch failed with status %d: %s", e.Status, e.Body)
}

// DataShapeError reports a record missing one of the required fields, or
// carrying a value of the wrong type. Like FetchError it is fatal for the run.
type DataShapeError struct {
	Field  string
	Record string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("record %s: field %q missing or ill-typed", e.Record, e.Field)
}

// recordsEnvelope is the Airtable list-records response.
type recordsEnvelope struct {
	Records []struct {
		ID     string         `json:"id"`
		Fields map[string]any `json:"fields"`
	} `json:"records"`
}

// ListTransactions fetches every record from the configured table and
// normalizes it into a Transaction. It issues exactly one network call,
// with no retry and no partial-result tolerance.
func (c *Client) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var envelope recordsEnvelope

	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetResult(&envelope).
		Get(fmt.Sprintf("/%s/%s", c.baseID, c.table))
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	if resp.IsError() {
		return nil, &FetchError{Status: resp.StatusCode(), Body: resp.String()}
	}

	transactions := make([]models.Transaction, 0, len(envelope.Records))
	for _, record := range envelope.Records {
		txn, err := transactionFromFields(record.ID, record.Fields)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}

	c.logger.Info("Loaded transactions from remote table",
		zap.Int("count", len(transactions)),
		zap.String("table", c.table),
	)
	return transactions, nil
}

// transactionFromFields selects the ten required columns from a record's
// fields mapping and converts them into a typed Transaction.
func transactionFromFields(id string, fields map[string]any) (models.Transaction, error) {
	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			return models.Transaction{}, &DataShapeError{Field: name, Record: id}
		}
	}

	tradeDate, err := dateField(id, fields, "date")
	if err != nil {
		return models.Transaction{}, err
	}

	txn := models.Transaction{TradeDate: tradeDate}

	stringFields := map[string]*string{
		"action":  &txn.Action,
		"account": &txn.Account,
		"market":  &txn.Market,
		"ticker":  &txn.Ticker,
	}
	for name, dst := range stringFields {
		v, ok := fields[name].(string)
		if !ok {
			return models.Transaction{}, &DataShapeError{Field: name, Record: id}
		}
		*dst = v
	}

	numberFields := map[string]*float64{
		"units":           &txn.Units,
		"price":           &txn.Price,
		"brokerage":       &txn.Brokerage,
		"net_total":       &txn.NetTotal,
		"effective_price": &txn.EffectivePrice,
	}
	for name, dst := range numberFields {
		v, ok := fields[name].(float64)
		if !ok {
			return models.Transaction{}, &DataShapeError{Field: name, Record: id}
		}
		*dst = v
	}

	return txn, nil
}

func dateField(id string, fields map[string]any, name string) (time.Time, error) {
	raw, ok := fields[name].(string)
	if !ok {
		return time.Time{}, &DataShapeError{Field: name, Record: id}
	}
	parsed, err := time.Parse(tradeDateFormat, raw)
	if err != nil {
		return time.Time{}, &DataShapeError{Field: name, Record: id}
	}
	return parsed, nil
}
