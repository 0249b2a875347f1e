package dto

// DividendSyncPayload overrides the sync defaults for one job.
type DividendSyncPayload struct {
	HistoryYears int      `json:"history_years"`
	FutureYears  int      `json:"future_years"`
	ChunkSize    int      `json:"chunk_size"`
	Tickers      []string `json:"tickers"` // restricts the run to these raw tickers when set
}

// DividendPredictionPayload overrides the prediction defaults for one job.
type DividendPredictionPayload struct {
	HistoryLimit       int `json:"history_limit"`
	ChunkSize          int `json:"chunk_size"`
	MaxConcurrentPairs int `json:"max_concurrent_pairs"`
}
