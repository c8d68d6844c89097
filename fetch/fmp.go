package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dnldd/trendbracket/shared"
	"github.com/tidwall/gjson"
)

const (
	// DefaultBaseURL is the FMP stable api base url.
	DefaultBaseURL = "https://financialmodelingprep.com/stable"
	// requestTimeout is the maximum duration of a single api request.
	requestTimeout = time.Second * 10
)

// FMPConfig represents the configuration for the FMP client.
type FMPConfig struct {
	// APIkey is the FMP API Key.
	APIKey string
	// BaseURL is the FMP api base url, it defaults to the stable api.
	BaseURL string
}

// FMPClient represents the Financial Modeling Preparation (FMP) API client.
type FMPClient struct {
	cfg    *FMPConfig
	httpc  *http.Client
	buf    *bytes.Buffer
	bufMtx sync.Mutex
}

// Ensure the FMPClient implements the BarFetcher interface.
var _ shared.BarFetcher = (*FMPClient)(nil)

// NewFMPClient instantiates a new FMP client.
func NewFMPClient(cfg *FMPConfig) *FMPClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	return &FMPClient{
		cfg:   cfg,
		httpc: &http.Client{Timeout: requestTimeout},
		buf:   bytes.NewBuffer(make([]byte, 0, 512)),
	}
}

// formURL creates full urls including paramters for the api.
func (c *FMPClient) formURL(path string, params string) string {
	c.bufMtx.Lock()
	defer c.bufMtx.Unlock()

	c.buf.WriteString(c.cfg.BaseURL)
	c.buf.WriteString(path)
	c.buf.WriteString("?")
	c.buf.WriteString(params)
	url := c.buf.String()
	c.buf.Reset()

	return url
}

// historicalChartPath returns the intraday historical chart path of the provided timeframe.
func historicalChartPath(timeframe shared.Timeframe) (string, error) {
	switch timeframe {
	case shared.OneMinute:
		return "/historical-chart/1min", nil
	case shared.FiveMinute:
		return "/historical-chart/5min", nil
	case shared.FifteenMinute:
		return "/historical-chart/15min", nil
	case shared.ThirtyMinute:
		return "/historical-chart/30min", nil
	case shared.OneHour:
		return "/historical-chart/1hour", nil
	case shared.FourHour:
		return "/historical-chart/4hour", nil
	default:
		return "", fmt.Errorf("unknown timeframe provided: %s", timeframe.String())
	}
}

// FetchHistoricalBars fetches intraday historical bars. The api returns the most
// recent bar first.
func (c *FMPClient) FetchHistoricalBars(ctx context.Context, market string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]gjson.Result, error) {
	path, err := historicalChartPath(timeframe)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("symbol", market)
	params.Add("apikey", c.cfg.APIKey)
	params.Add("from", start.Format(time.DateOnly))
	if !end.IsZero() {
		params.Add("to", end.Format(time.DateOnly))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.formURL(path, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("creating historical data request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching intraday historical data (%s) for %s: %w", timeframe.String(), market, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching intraday historical data (%s) for %s: %s",
			timeframe.String(), market, resp.Status)
	}

	result := gjson.ParseBytes(body)
	if msg := result.Get("Error Message"); msg.Exists() {
		return nil, fmt.Errorf("fetching intraday historical data (%s) for %s: %s",
			timeframe.String(), market, msg.String())
	}
	if !result.IsArray() {
		return nil, fmt.Errorf("unexpected intraday historical data (%s) for %s: not an array",
			timeframe.String(), market)
	}

	return result.Array(), nil
}

// FetchSeries fetches the bars of the provided market over the provided range and
// returns them as a validated bar series. Dates are parsed in the provided location.
func FetchSeries(ctx context.Context, fetcher shared.BarFetcher, market string, timeframe shared.Timeframe, start time.Time, end time.Time, loc *time.Location) (*shared.BarSeries, error) {
	data, err := fetcher.FetchHistoricalBars(ctx, market, timeframe, start, end)
	if err != nil {
		return nil, err
	}

	bars, err := shared.ParseBars(data, market, timeframe, loc)
	if err != nil {
		return nil, fmt.Errorf("parsing %s bars: %w", market, err)
	}

	series, err := shared.NewBarSeries(market, timeframe, bars)
	if err != nil {
		return nil, fmt.Errorf("creating %s bar series: %w", market, err)
	}

	return series, nil
}
