// Package twse fetches Taiwan market data over HTTP.
//
// The upstream is a FinMind-style dataset API: one endpoint, dataset
// name plus stock id and date range as query parameters, JSON rows back.
// All failures surface as model.ErrDataUnavailable so the scanner can
// isolate them per symbol.
package twse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"twscreener/internal/model"
)

const (
	datasetPrice = "TaiwanStockPrice"
	datasetFlow  = "TaiwanStockInstitutionalInvestorsBuySell"

	dateLayout = "2006-01-02"
)

// Config configures the HTTP client.
type Config struct {
	BaseURL string        // e.g. "https://api.finmindtrade.com"
	Token   string        // optional API token
	Timeout time.Duration // per-request timeout (default 15s)
}

// Client implements model.BarSource and model.FlowSource.
type Client struct {
	httpc   *http.Client
	baseURL string
	token   string
	log     *slog.Logger
}

// NewClient creates a market data client.
func NewClient(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpc:   &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		log:     log,
	}
}

type apiResponse struct {
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type priceRow struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"max"`
	Low    float64 `json:"min"`
	Close  float64 `json:"close"`
	Volume int64   `json:"Trading_Volume"`
}

type flowRow struct {
	Date string `json:"date"`
	Name string `json:"name"`
	Buy  int64  `json:"buy"`
	Sell int64  `json:"sell"`
}

// FetchBars returns up to lookbackDays of daily bars, ascending by date.
func (c *Client) FetchBars(ctx context.Context, symbol string, lookbackDays int) (*model.BarSeries, error) {
	if err := model.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	to := time.Now()
	from := to.AddDate(0, 0, -lookbackDays)

	raw, err := c.get(ctx, datasetPrice, symbol, from, to)
	if err != nil {
		return nil, err
	}
	var rows []priceRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode price rows for %s: %v", model.ErrDataUnavailable, symbol, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s", model.ErrDataUnavailable, symbol)
	}

	bars := make([]model.Bar, 0, len(rows))
	for _, r := range rows {
		d, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: bad date %q for %s", model.ErrMalformedBars, r.Date, symbol)
		}
		bars = append(bars, model.Bar{
			Symbol: symbol,
			Date:   d,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return &model.BarSeries{Symbol: symbol, Bars: bars}, nil
}

// FetchFlow returns institutional flow entries for [from, to], ascending
// by date. Foreign and trust rows are aggregated per session.
func (c *Client) FetchFlow(ctx context.Context, symbol string, from, to time.Time) ([]model.FlowEntry, error) {
	if err := model.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	raw, err := c.get(ctx, datasetFlow, symbol, from, to)
	if err != nil {
		return nil, err
	}
	var rows []flowRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode flow rows for %s: %v", model.ErrDataUnavailable, symbol, err)
	}

	byDate := make(map[string]*model.FlowEntry)
	for _, r := range rows {
		e, ok := byDate[r.Date]
		if !ok {
			d, err := time.Parse(dateLayout, r.Date)
			if err != nil {
				continue
			}
			e = &model.FlowEntry{Date: d}
			byDate[r.Date] = e
		}
		net := r.Buy - r.Sell
		name := strings.ToLower(r.Name)
		switch {
		case strings.Contains(name, "foreign"):
			e.ForeignNet += net
		case strings.Contains(name, "investment_trust"):
			e.TrustNet += net
		}
	}

	entries := make([]model.FlowEntry, 0, len(byDate))
	for _, e := range byDate {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	return entries, nil
}

func (c *Client) get(ctx context.Context, dataset, symbol string, from, to time.Time) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("dataset", dataset)
	q.Set("data_id", strings.TrimSuffix(symbol, ".TW"))
	q.Set("start_date", from.Format(dateLayout))
	q.Set("end_date", to.Format(dateLayout))
	if c.token != "" {
		q.Set("token", c.token)
	}
	reqURL := c.baseURL + "/api/v4/data?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", model.ErrDataUnavailable, err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s fetch %s: %v", model.ErrDataUnavailable, dataset, symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s fetch %s: status %d", model.ErrDataUnavailable, dataset, symbol, resp.StatusCode)
	}
	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response for %s: %v", model.ErrDataUnavailable, symbol, err)
	}
	return body.Data, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpc.CloseIdleConnections()
	return nil
}
