package ticker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		symbol string
		rules  []Rule
	}{
		{"fractional lot", "PETR4F", "PETR4.SA", []Rule{RuleFractionalStrip, RuleMarketSuffix}},
		{"subscription receipt 12", "KNRI12", "KNRI11.SA", []Rule{RuleSubscriptionReceipt, RuleMarketSuffix}},
		{"subscription receipt 13", "HGLG13", "HGLG11.SA", []Rule{RuleSubscriptionReceipt, RuleMarketSuffix}},
		{"subscription receipt 14", "XPML14", "XPML11.SA", []Rule{RuleSubscriptionReceipt, RuleMarketSuffix}},
		{"plain share", "VALE3", "VALE3.SA", []Rule{RuleMarketSuffix}},
		{"unit class untouched", "TAEE11", "TAEE11.SA", []Rule{RuleMarketSuffix}},
		{"short F kept", "BRF", "BRF", nil},
		{"five chars ending in F kept", "ABCDF", "ABCDF", nil},
		{"foreign symbol without digit", "AAPL", "AAPL", nil},
		{"already suffixed", "PETR4.SA", "PETR4.SA", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, DefaultMarketSuffix)
			assert.Equal(t, tt.raw, got.Raw)
			assert.Equal(t, tt.symbol, got.Symbol)
			assert.Equal(t, tt.rules, got.Rules)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, raw := range []string{"PETR4", "KNRI12", "PETR4F", "ITSA4"} {
		once := Normalize(raw, DefaultMarketSuffix)
		twice := Normalize(once.Symbol, DefaultMarketSuffix)
		assert.Equal(t, once.Symbol, twice.Symbol, raw)
		assert.NotContains(t, twice.Symbol, ".SA.SA")
	}
}

func TestResultNotes(t *testing.T) {
	res := Normalize("KNRI12", DefaultMarketSuffix)
	assert.Equal(t, []string{"Auto-adjust: KNRI12 treated as KNRI11"}, res.Notes())

	assert.Empty(t, Normalize("PETR4", DefaultMarketSuffix).Notes())
}

func TestNormalizerCaches(t *testing.T) {
	n := NewNormalizer("")
	first := n.Normalize("KNRI12")
	second := n.Normalize("KNRI12")
	assert.Equal(t, first, second)
	assert.Equal(t, "KNRI11.SA", second.Symbol)
	assert.Equal(t, 1, n.cache.ItemCount())
}
