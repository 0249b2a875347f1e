package dto

const (
	StatusSuccess  = "SUCCESS"
	StatusSkipped  = "SKIPPED"
	StatusFailed   = "FAILED"
	StatusNotFound = "NOT_FOUND"
	StatusMigrated = "MIGRATED"
)

// TickerSyncResult is the outcome of syncing one raw ticker.
type TickerSyncResult struct {
	Ticker string `json:"ticker"`
	Symbol string `json:"symbol"`
	Status string `json:"status"`
	Events int    `json:"events"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// DividendSyncSummary is the output of a dividend sync run.
type DividendSyncSummary struct {
	Message        string             `json:"message"`
	ProcessedCount int                `json:"processed_count"`
	FailedChunks   int                `json:"failed_chunks"`
	MissingTickers []string           `json:"missing_tickers,omitempty"`
	Tickers        []TickerSyncResult `json:"tickers"`
	Logs           []string           `json:"logs"`
}

// DividendPredictionSummary is the output of a dividend prediction run.
type DividendPredictionSummary struct {
	Message              string   `json:"message"`
	GeneratedPredictions int      `json:"generated_predictions"`
	PairsProcessed       int      `json:"pairs_processed"`
	PairsSkipped         int      `json:"pairs_skipped"`
	RecurringPairs       int      `json:"recurring_pairs"`
	SeasonalPairs        int      `json:"seasonal_pairs"`
	FailedChunks         int      `json:"failed_chunks"`
	Logs                 []string `json:"logs"`
}
