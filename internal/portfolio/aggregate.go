package portfolio

import (
	"sort"
	"time"

	"portfolio-dashboard-go/internal/marketdata"
	"portfolio-dashboard-go/internal/models"
)

// Position is one (observation day, transaction) pairing produced by the
// as-of-date join: an observation sees every trade executed on or before it,
// never a future one.
type Position struct {
	Date       time.Time
	Ticker     string
	Units      float64
	Brokerage  float64
	NetTotal   float64
	Close      float64
	CloseValue float64
	Delta      float64
}

// SummaryRow is the per-day portfolio aggregate. JSON tags carry the
// dashboard's display labels.
type SummaryRow struct {
	Date          time.Time `json:"Date"`
	Profit        float64   `json:"Profit"`
	TotalInvested float64   `json:"Total Invested"`
	Brokerage     float64   `json:"Brokerage Paid"`
}

// TickerRow is the per-day, per-instrument aggregate.
type TickerRow struct {
	Date      time.Time `json:"Date"`
	Ticker    string    `json:"Ticker"`
	Delta     float64   `json:"Delta"`
	NetTotal  float64   `json:"Net Total"`
	Brokerage float64   `json:"Brokerage"`
}

// CompositionRow is one instrument's share of invested capital at the most
// recent valuation date.
type CompositionRow struct {
	Ticker   string  `json:"Ticker"`
	NetTotal float64 `json:"Net Total"`
}

// Metrics are the headline figures shown above the charts, taken from the
// latest valuation date.
type Metrics struct {
	NetPosition   float64 `json:"net_position"`
	ReturnPct     float64 `json:"return_pct"`
	TotalInvested float64 `json:"total_invested"`
	BrokeragePaid float64 `json:"brokerage_paid"`
}

// Join left-joins each ticker's closing-price series to its transactions and
// keeps the as-of-date pairs (trade date <= observation date). The result is
// sorted by observation date ascending, which downstream "most recent row"
// lookups depend on.
func Join(series map[string][]marketdata.Bar, transactions []models.Transaction) []Position {
	var positions []Position
	for _, txn := range transactions {
		for _, bar := range series[txn.Ticker] {
			if txn.TradeDate.After(bar.Date) {
				continue
			}
			closeValue := bar.Close * txn.Units
			positions = append(positions, Position{
				Date:       bar.Date,
				Ticker:     txn.Ticker,
				Units:      txn.Units,
				Brokerage:  txn.Brokerage,
				NetTotal:   txn.NetTotal,
				Close:      bar.Close,
				CloseValue: closeValue,
				Delta:      closeValue - txn.NetTotal,
			})
		}
	}

	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].Date.Before(positions[j].Date)
	})
	return positions
}

// Summarize groups positions by date, summing Delta, Net Total and Brokerage
// into the portfolio-wide daily series.
func Summarize(positions []Position) []SummaryRow {
	byDate := make(map[time.Time]*SummaryRow)
	for _, p := range positions {
		row, ok := byDate[p.Date]
		if !ok {
			row = &SummaryRow{Date: p.Date}
			byDate[p.Date] = row
		}
		row.Profit += p.Delta
		row.TotalInvested += p.NetTotal
		row.Brokerage += p.Brokerage
	}

	rows := make([]SummaryRow, 0, len(byDate))
	for _, row := range byDate {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows
}

// SummarizeByTicker is Summarize grouped additionally by instrument.
func SummarizeByTicker(positions []Position) []TickerRow {
	type key struct {
		date   time.Time
		ticker string
	}

	byKey := make(map[key]*TickerRow)
	for _, p := range positions {
		k := key{date: p.Date, ticker: p.Ticker}
		row, ok := byKey[k]
		if !ok {
			row = &TickerRow{Date: p.Date, Ticker: p.Ticker}
			byKey[k] = row
		}
		row.Delta += p.Delta
		row.NetTotal += p.NetTotal
		row.Brokerage += p.Brokerage
	}

	rows := make([]TickerRow, 0, len(byKey))
	for _, row := range byKey {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].Ticker < rows[j].Ticker
	})
	return rows
}

// HeadlineMetrics extracts the current position from the latest summary row.
// With no capital invested the return percentage is reported as 0 rather
// than dividing by zero.
func HeadlineMetrics(summary []SummaryRow) Metrics {
	if len(summary) == 0 {
		return Metrics{}
	}

	latest := summary[len(summary)-1]
	m := Metrics{
		NetPosition:   latest.Profit,
		TotalInvested: latest.TotalInvested,
		BrokeragePaid: latest.Brokerage,
	}
	if latest.TotalInvested != 0 {
		m.ReturnPct = latest.Profit / latest.TotalInvested * 100
	}
	return m
}

// Composition sums Net Total per instrument at the most recent valuation
// date, sorted by ticker.
func Composition(positions []Position) []CompositionRow {
	if len(positions) == 0 {
		return nil
	}

	var latest time.Time
	for _, p := range positions {
		if p.Date.After(latest) {
			latest = p.Date
		}
	}

	byTicker := make(map[string]float64)
	for _, p := range positions {
		if p.Date.Equal(latest) {
			byTicker[p.Ticker] += p.NetTotal
		}
	}

	rows := make([]CompositionRow, 0, len(byTicker))
	for ticker, total := range byTicker {
		rows = append(rows, CompositionRow{Ticker: ticker, NetTotal: total})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Ticker < rows[j].Ticker })
	return rows
}
