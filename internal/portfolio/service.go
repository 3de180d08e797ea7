package portfolio

import (
	"context"
	"errors"
	"time"

	"portfolio-dashboard-go/internal/airtable"
	"portfolio-dashboard-go/internal/marketdata"
	"portfolio-dashboard-go/internal/models"

	"go.uber.org/zap"
)

// TransactionView is a transaction row enriched with the instrument's most
// recent closing price. CurrentPrice is nil when the instrument has no
// trading data.
type TransactionView struct {
	models.Transaction
	CurrentPrice *float64 `json:"Current Price"`
}

// Dashboard is the full payload behind the authenticated dashboard page.
type Dashboard struct {
	Metrics      Metrics           `json:"metrics"`
	Summary      []SummaryRow      `json:"summary"`
	ByTicker     []TickerRow       `json:"by_ticker"`
	Composition  []CompositionRow  `json:"composition"`
	Transactions []TransactionView `json:"transactions"`
}

// Service orchestrates the pipeline: load transactions, enrich them with
// price history, aggregate into the dashboard payload. Each call recomputes
// everything from the remote sources; nothing is cached between runs.
type Service struct {
	logger *zap.Logger
	loader airtable.ClientInterface
	market marketdata.ClientInterface
	now    func() time.Time
}

// NewService creates a new dashboard service.
func NewService(logger *zap.Logger, loader airtable.ClientInterface, market marketdata.ClientInterface) *Service {
	return &Service{
		logger: logger,
		loader: loader,
		market: market,
		now:    time.Now,
	}
}

// BuildDashboard runs the whole pipeline once. An instrument with an empty
// price series contributes no positions and shows no current price, but does
// not abort the build; a failed transaction fetch or a malformed record
// aborts it.
func (s *Service) BuildDashboard(ctx context.Context) (*Dashboard, error) {
	transactions, err := s.loader.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	if len(transactions) == 0 {
		return &Dashboard{Transactions: []TransactionView{}}, nil
	}

	series, latest, err := s.fetchSeries(ctx, transactions, earliestTradeDate(transactions))
	if err != nil {
		return nil, err
	}

	positions := Join(series, transactions)
	summary := Summarize(positions)

	views := make([]TransactionView, 0, len(transactions))
	for _, txn := range transactions {
		view := TransactionView{Transaction: txn}
		if price, ok := latest[txn.Ticker]; ok {
			p := price
			view.CurrentPrice = &p
		}
		views = append(views, view)
	}

	return &Dashboard{
		Metrics:      HeadlineMetrics(summary),
		Summary:      summary,
		ByTicker:     SummarizeByTicker(positions),
		Composition:  Composition(positions),
		Transactions: views,
	}, nil
}

// MarketSummary returns, per traded instrument, the closing-price series
// from the period's start date to now.
func (s *Service) MarketSummary(ctx context.Context, period Period) (map[string][]marketdata.Bar, error) {
	start, err := PeriodStart(period, s.now())
	if err != nil {
		return nil, err
	}

	transactions, err := s.loader.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	series, _, err := s.fetchSeries(ctx, transactions, start)
	if err != nil {
		return nil, err
	}
	return series, nil
}

// fetchSeries issues one history query per unique ticker, from start to now,
// and derives each ticker's latest close from the same response. Tickers
// without price data are skipped with a warning.
func (s *Service) fetchSeries(ctx context.Context, transactions []models.Transaction, start time.Time) (map[string][]marketdata.Bar, map[string]float64, error) {
	tickers := uniqueTickers(transactions)
	now := s.now()

	series := make(map[string][]marketdata.Bar, len(tickers))
	latest := make(map[string]float64, len(tickers))
	for _, ticker := range tickers {
		bars, err := s.market.History(ctx, s.market.Symbol(ticker), start, now)
		if errors.Is(err, marketdata.ErrNoPriceData) {
			s.logger.Warn("No price data for instrument, skipping", zap.String("ticker", ticker))
			series[ticker] = nil
			continue
		}
		if err != nil {
			return nil, nil, err
		}

		series[ticker] = bars
		if price, ok := marketdata.LatestClose(bars); ok {
			latest[ticker] = price
		}
	}
	return series, latest, nil
}

// uniqueTickers returns the distinct tickers in first-seen order.
func uniqueTickers(transactions []models.Transaction) []string {
	seen := make(map[string]struct{})
	var tickers []string
	for _, txn := range transactions {
		if _, ok := seen[txn.Ticker]; ok {
			continue
		}
		seen[txn.Ticker] = struct{}{}
		tickers = append(tickers, txn.Ticker)
	}
	return tickers
}

func earliestTradeDate(transactions []models.Transaction) time.Time {
	earliest := transactions[0].TradeDate
	for _, txn := range transactions[1:] {
		if txn.TradeDate.Before(earliest) {
			earliest = txn.TradeDate
		}
	}
	return earliest
}
