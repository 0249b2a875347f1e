// Package forecast classifies distribution cadences and projects future distributions.
package forecast

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Pattern is the cadence detected in a distribution history.
type Pattern string

const (
	PatternRecurring Pattern = "recurring"
	PatternSeasonal  Pattern = "seasonal"
)

const (
	// MinHistory is the number of entries below which no forecast is made.
	MinHistory = 2
	// RecurringMaxGapDays is the exclusive upper bound on gaps for a recurring cadence.
	RecurringMaxGapDays = 35
	recentWindow        = 3
)

// Entry is one historical distribution of a user for a ticker.
type Entry struct {
	Date       time.Time
	UnitValue  decimal.Decimal
	TotalValue decimal.Decimal
}

// Classify inspects history ordered newest first. Fewer than three entries default to seasonal.
func Classify(history []Entry) Pattern {
	if len(history) < recentWindow {
		return PatternSeasonal
	}
	gap1 := gapDays(history[0].Date, history[1].Date)
	gap2 := gapDays(history[1].Date, history[2].Date)
	if gap1 < RecurringMaxGapDays && gap2 < RecurringMaxGapDays {
		return PatternRecurring
	}
	return PatternSeasonal
}

func gapDays(a, b time.Time) float64 {
	return math.Abs(a.Sub(b).Hours() / 24)
}
