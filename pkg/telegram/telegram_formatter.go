package telegram

import (
	"fmt"
	"strings"

	"golang-dividend-forecaster/internal/executor/dto"
)

const maxMessageLen = 4090

// FormatSyncSummary renders a dividend sync run for the operators chat.
func FormatSyncSummary(summary dto.DividendSyncSummary) string {
	counts := map[string]int{}
	for _, t := range summary.Tickers {
		counts[t.Status]++
	}

	var b strings.Builder
	b.WriteString("💰 *Dividend sync finished*\n\n")
	b.WriteString(fmt.Sprintf("Rows upserted: *%d*\n", summary.ProcessedCount))
	b.WriteString(fmt.Sprintf("Tickers: %d ok, %d skipped, %d failed, %d not found, %d migrated\n",
		counts[dto.StatusSuccess], counts[dto.StatusSkipped], counts[dto.StatusFailed],
		counts[dto.StatusNotFound], counts[dto.StatusMigrated]))
	if summary.FailedChunks > 0 {
		b.WriteString(fmt.Sprintf("⚠️ Failed chunks: %d\n", summary.FailedChunks))
	}

	if len(summary.MissingTickers) > 0 {
		b.WriteString("\n❌ *New tickers without data or migration:*\n")
		for _, ticker := range summary.MissingTickers {
			line := fmt.Sprintf("• `%s`\n", ticker)
			if b.Len()+len(line) > maxMessageLen {
				b.WriteString("…")
				break
			}
			b.WriteString(line)
		}
	}
	return b.String()
}

// FormatPredictionSummary renders a dividend prediction run for the operators chat.
func FormatPredictionSummary(summary dto.DividendPredictionSummary) string {
	var b strings.Builder
	b.WriteString("🔮 *Dividend forecast finished*\n\n")
	b.WriteString(fmt.Sprintf("Predictions: *%d*\n", summary.GeneratedPredictions))
	b.WriteString(fmt.Sprintf("Pairs: %d forecast (%d monthly, %d seasonal), %d without enough history\n",
		summary.PairsProcessed, summary.RecurringPairs, summary.SeasonalPairs, summary.PairsSkipped))
	if summary.FailedChunks > 0 {
		b.WriteString(fmt.Sprintf("⚠️ Failed chunks: %d\n", summary.FailedChunks))
	}
	return b.String()
}
