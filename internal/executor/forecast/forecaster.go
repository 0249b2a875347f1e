package forecast

import (
	"math"
	"time"

	"golang-dividend-forecaster/internal/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	recurringMonths          = 12
	recurringBaseConfidence  = 0.95
	recurringConfidenceDecay = 0.02
	seasonalConfidence       = 0.60
	seasonalHorizonDays      = 365

	// dayOfMonthOffset is added to each source day of month before averaging (UTC epoch skew).
	dayOfMonthOffset = 1
)

// Batch collects predictions and drops any whose (user, ticker, date) was already added.
type Batch struct {
	predictions []entity.Prediction
	seen        map[entity.PredictionKey]struct{}
}

func NewBatch() *Batch {
	return &Batch{seen: make(map[entity.PredictionKey]struct{})}
}

// Add appends p unless its key is already present and reports whether it was added.
func (b *Batch) Add(p entity.Prediction) bool {
	key := p.Key()
	if _, ok := b.seen[key]; ok {
		return false
	}
	b.seen[key] = struct{}{}
	b.predictions = append(b.predictions, p)
	return true
}

// Merge adds every prediction of other to b.
func (b *Batch) Merge(other *Batch) {
	for _, p := range other.predictions {
		b.Add(p)
	}
}

func (b *Batch) Predictions() []entity.Prediction {
	return b.predictions
}

func (b *Batch) Len() int {
	return len(b.predictions)
}

// Forecast projects future distributions for one user and ticker from history ordered newest first.
// It returns the detected pattern and false when history is too short to forecast.
func Forecast(userID uuid.UUID, ticker string, history []Entry, now time.Time, batch *Batch) (Pattern, bool) {
	if len(history) < MinHistory {
		return "", false
	}

	pattern := Classify(history)
	switch pattern {
	case PatternRecurring:
		forecastRecurring(userID, ticker, history[:recentWindow], now, batch)
	default:
		forecastSeasonal(userID, ticker, history, now, batch)
	}
	return pattern, true
}

func forecastRecurring(userID uuid.UUID, ticker string, recent []Entry, now time.Time, batch *Batch) {
	sum := decimal.Zero
	daySum := 0
	for _, e := range recent {
		sum = sum.Add(e.TotalValue)
		daySum += e.Date.UTC().Day() + dayOfMonthOffset
	}
	n := len(recent)
	average := sum.Div(decimal.NewFromInt(int64(n))).Round(2)
	payDay := int(math.Round(float64(daySum) / float64(n)))

	now = now.UTC()
	for i := 1; i <= recurringMonths; i++ {
		batch.Add(entity.Prediction{
			UserID:           userID,
			Ticker:           ticker,
			PredictedDate:    time.Date(now.Year(), now.Month()+time.Month(i), payDay, 0, 0, 0, 0, time.UTC),
			PredictedAmount:  average,
			ConfidenceScore:  RecurringConfidence(i),
			AlgorithmVersion: entity.AlgorithmMonthlyAverage,
		})
	}
}

// RecurringConfidence is the confidence of the recurring forecast i months ahead.
func RecurringConfidence(i int) float64 {
	return math.Round((recurringBaseConfidence-recurringConfidenceDecay*float64(i))*100) / 100
}

func forecastSeasonal(userID uuid.UUID, ticker string, history []Entry, now time.Time, batch *Batch) {
	for _, e := range history {
		d := e.Date.UTC()
		projected := time.Date(d.Year()+1, d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)

		daysAhead := projected.Sub(now).Hours() / 24
		if daysAhead <= 0 || daysAhead >= seasonalHorizonDays {
			continue
		}

		batch.Add(entity.Prediction{
			UserID:           userID,
			Ticker:           ticker,
			PredictedDate:    projected,
			PredictedAmount:  e.TotalValue,
			ConfidenceScore:  seasonalConfidence,
			AlgorithmVersion: entity.AlgorithmSeasonalMirror,
		})
	}
}
