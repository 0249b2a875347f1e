package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DividendEvent is one distribution reported by the market-data provider.
type DividendEvent struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// GetDividendsParam describes a dividend history query.
type GetDividendsParam struct {
	Symbol string
	From   time.Time
	To     time.Time
}

// YahooChartResponse is the subset of the v8 chart payload carrying dividend events.
type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Currency string `json:"currency"`
			} `json:"meta"`
			Events *struct {
				Dividends map[string]YahooDividend `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type YahooDividend struct {
	Amount decimal.Decimal `json:"amount"`
	Date   int64           `json:"date"`
}
