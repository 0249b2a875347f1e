// Package ticker maps portfolio tickers to the market-data provider's symbol space.
package ticker

import (
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultMarketSuffix is the provider suffix for instruments listed on B3.
const DefaultMarketSuffix = ".SA"

// Rule names which rewrite fired while normalizing a ticker.
type Rule string

const (
	RuleFractionalStrip     Rule = "fractional_strip"
	RuleSubscriptionReceipt Rule = "subscription_receipt"
	RuleMarketSuffix        Rule = "market_suffix"
)

// Result is the provider symbol for a raw ticker and the rules applied to get it.
type Result struct {
	Raw    string
	Symbol string
	Rules  []Rule
}

// Adjusted reports whether rule fired.
func (r Result) Adjusted(rule Rule) bool {
	for _, applied := range r.Rules {
		if applied == rule {
			return true
		}
	}
	return false
}

// Notes renders the informational adjustments worth surfacing to operators.
func (r Result) Notes() []string {
	var notes []string
	if r.Adjusted(RuleSubscriptionReceipt) {
		notes = append(notes, fmt.Sprintf("Auto-adjust: %s treated as %s", r.Raw, strings.TrimSuffix(r.Symbol, marketSuffixOf(r))))
	}
	return notes
}

func marketSuffixOf(r Result) string {
	if !r.Adjusted(RuleMarketSuffix) {
		return ""
	}
	if i := strings.LastIndex(r.Symbol, "."); i >= 0 {
		return r.Symbol[i:]
	}
	return ""
}

var subscriptionSuffixes = []string{"12", "13", "14"}

// Normalize rewrites raw into a provider symbol. It is pure: the same input always yields the same output.
//
//  1. a trailing "F" on tickers longer than five characters marks the fractional lot and is dropped;
//  2. subscription receipt classes 12, 13 and 14 become the underlying unit class 11;
//  3. tickers ending in a digit get the market suffix unless they already carry it.
func Normalize(raw, marketSuffix string) Result {
	res := Result{Raw: raw, Symbol: raw}

	if strings.HasSuffix(res.Symbol, "F") && len(res.Symbol) > 5 {
		res.Symbol = strings.TrimSuffix(res.Symbol, "F")
		res.Rules = append(res.Rules, RuleFractionalStrip)
	}

	for _, suffix := range subscriptionSuffixes {
		if strings.HasSuffix(res.Symbol, suffix) {
			res.Symbol = strings.TrimSuffix(res.Symbol, suffix) + "11"
			res.Rules = append(res.Rules, RuleSubscriptionReceipt)
			break
		}
	}

	if marketSuffix != "" && endsWithDigit(res.Symbol) && !strings.Contains(res.Symbol, marketSuffix) {
		res.Symbol += marketSuffix
		res.Rules = append(res.Rules, RuleMarketSuffix)
	}

	return res
}

func endsWithDigit(s string) bool {
	if s == "" {
		return false
	}
	c := s[len(s)-1]
	return c >= '0' && c <= '9'
}

// Normalizer memoizes Normalize for a fixed market suffix.
type Normalizer struct {
	marketSuffix string
	cache        *cache.Cache
}

// NewNormalizer creates a Normalizer. An empty suffix falls back to DefaultMarketSuffix.
func NewNormalizer(marketSuffix string) *Normalizer {
	if marketSuffix == "" {
		marketSuffix = DefaultMarketSuffix
	}
	return &Normalizer{
		marketSuffix: marketSuffix,
		cache:        cache.New(24*time.Hour, time.Hour),
	}
}

// Normalize returns the cached result for raw, computing it on first use.
func (n *Normalizer) Normalize(raw string) Result {
	if cached, ok := n.cache.Get(raw); ok {
		return cached.(Result)
	}
	res := Normalize(raw, n.marketSuffix)
	n.cache.SetDefault(raw, res)
	return res
}
