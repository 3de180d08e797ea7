package models

import "time"

// Transaction is a single buy/sell row loaded from the remote transactions
// table. Rows are immutable once loaded. The upstream table enforces no
// primary key, so duplicate rows are possible and are kept as-is; data entry
// is trusted on unit/price signs.
//
// JSON tags carry the display labels used by the dashboard table.
type Transaction struct {
	TradeDate      time.Time `json:"Trade Date"`
	Action         string    `json:"Action"`
	Account        string    `json:"Account"`
	Market         string    `json:"Market"`
	Ticker         string    `json:"Ticker"`
	Units          float64   `json:"Units"`
	Price          float64   `json:"Price"`
	Brokerage      float64   `json:"Brokerage"`
	NetTotal       float64   `json:"Net Total"`
	EffectivePrice float64   `json:"Effective Price"`
}
