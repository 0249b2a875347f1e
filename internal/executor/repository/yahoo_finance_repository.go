package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang-dividend-forecaster/internal/executor/config"
	"golang-dividend-forecaster/internal/executor/dto"
	"golang-dividend-forecaster/pkg/logger"
	"golang-dividend-forecaster/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrSymbolNotFound is returned when the provider does not know the symbol (HTTP 404).
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrProviderResponse covers any other non-success status or an unreadable payload.
	ErrProviderResponse = errors.New("unexpected provider response")
)

// YahooFinanceRepository fetches distribution history from the Yahoo Finance chart API.
type YahooFinanceRepository interface {
	GetDividends(ctx context.Context, param dto.GetDividendsParam) ([]dto.DividendEvent, error)
}

type yahooFinanceRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewYahooFinanceRepository creates the client. Calls are paced to MaxRequestPerMinute with no burst.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) (YahooFinanceRepository, error) {
	if cfg.YahooFinance.BaseURL == "" {
		return nil, fmt.Errorf("yahoo_finance.base_url is required")
	}
	if cfg.YahooFinance.MaxRequestPerMinute <= 0 {
		return nil, fmt.Errorf("yahoo_finance.max_request_per_minute must be positive")
	}
	interval := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)
	return &yahooFinanceRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.YahooFinance.Timeout,
		},
		requestLimiter: rate.NewLimiter(rate.Every(interval), 1),
	}, nil
}

func (r *yahooFinanceRepository) GetDividends(ctx context.Context, param dto.GetDividendsParam) ([]dto.DividendEvent, error) {
	query := url.Values{}
	query.Set("symbol", param.Symbol)
	query.Set("period1", strconv.FormatInt(param.From.Unix(), 10))
	query.Set("period2", strconv.FormatInt(param.To.Unix(), 10))
	query.Set("interval", "1d")
	query.Set("events", "div")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", r.cfg.YahooFinance.BaseURL, url.PathEscape(param.Symbol), query.Encode())

	body, err := r.sendRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var response dto.YahooChartResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: decode chart for %s: %v", ErrProviderResponse, param.Symbol, err)
	}

	if len(response.Chart.Result) == 0 || response.Chart.Result[0].Events == nil {
		return nil, nil
	}

	dividends := response.Chart.Result[0].Events.Dividends
	events := make([]dto.DividendEvent, 0, len(dividends))
	for _, d := range dividends {
		events = append(events, dto.DividendEvent{
			Date:   utils.TruncateToDate(time.Unix(d.Date, 0)),
			Amount: d.Amount,
		})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })

	r.log.DebugContext(ctx, "Yahoo Finance dividends fetched",
		logger.StringField("symbol", param.Symbol),
		logger.IntField("events", len(events)))

	return events, nil
}

func (r *yahooFinanceRepository) sendRequest(ctx context.Context, endpoint string) ([]byte, error) {
	fields := []zap.Field{
		zap.String("url", endpoint),
		zap.Int("max_request_per_minute", r.cfg.YahooFinance.MaxRequestPerMinute),
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to wait for request limit", fields...)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.cfg.YahooFinance.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to send request to Yahoo Finance", fields...)
		return nil, fmt.Errorf("%w: %v", ErrProviderResponse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrSymbolNotFound
	}
	if resp.StatusCode != http.StatusOK {
		fields = append(fields, zap.Int("status_code", resp.StatusCode))
		r.log.WarnContext(ctx, "Received non-OK response from Yahoo Finance", fields...)
		return nil, fmt.Errorf("%w: status %d", ErrProviderResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrProviderResponse, err)
	}
	return body, nil
}
