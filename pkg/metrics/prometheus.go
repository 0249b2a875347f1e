package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes the counters of the dividend jobs.
type Recorder struct {
	tickersProcessed     *prometheus.CounterVec
	ledgerRowsUpserted   prometheus.Counter
	predictionsGenerated *prometheus.CounterVec
	chunkFailures        *prometheus.CounterVec
	runDuration          *prometheus.HistogramVec
}

// New registers the collectors on reg. Use prometheus.DefaultRegisterer in services.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		tickersProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dividend_sync_tickers_total",
				Help: "Tickers processed by the dividend sync, by outcome status",
			},
			[]string{"status"},
		),
		ledgerRowsUpserted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dividend_ledger_rows_upserted_total",
				Help: "Earnings ledger rows upserted",
			},
		),
		predictionsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dividend_predictions_generated_total",
				Help: "Predictions generated, by algorithm version",
			},
			[]string{"algorithm"},
		),
		chunkFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dividend_chunk_failures_total",
				Help: "Upsert chunks that failed, by target table",
			},
			[]string{"table"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dividend_job_duration_seconds",
				Help:    "Duration of dividend job runs in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"job_type"},
		),
	}
}

func (r *Recorder) RecordTicker(status string) {
	r.tickersProcessed.WithLabelValues(status).Inc()
}

func (r *Recorder) RecordLedgerRows(n int) {
	r.ledgerRowsUpserted.Add(float64(n))
}

func (r *Recorder) RecordPrediction(algorithm string) {
	r.predictionsGenerated.WithLabelValues(algorithm).Inc()
}

func (r *Recorder) RecordChunkFailure(table string) {
	r.chunkFailures.WithLabelValues(table).Inc()
}

func (r *Recorder) RecordRunDuration(jobType string, seconds float64) {
	r.runDuration.WithLabelValues(jobType).Observe(seconds)
}
