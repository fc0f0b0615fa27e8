package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"indicator-dashboard/internal/model"
)

// DefaultCoinGeckoURL is the public CoinGecko v3 API root.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGeckoClient implements model.PriceFeed against the market_chart endpoint.
type CoinGeckoClient struct {
	Client  *http.Client
	BaseURL string
}

// NewCoinGeckoClient creates a feed client. The timeout bounds each request;
// failed requests are not retried.
func NewCoinGeckoClient(baseURL string, timeout time.Duration) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	return &CoinGeckoClient{
		Client:  &http.Client{Timeout: timeout},
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *CoinGeckoClient) Name() string { return "coingecko" }

// marketChart is the market_chart response: [timestampMs, value] pairs.
type marketChart struct {
	Prices       [][]float64 `json:"prices"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// MarketChart fetches USD prices and volumes for the last days days.
func (c *CoinGeckoClient) MarketChart(ctx context.Context, symbol string, days int, g model.Granularity) ([]model.PricePoint, error) {
	u := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d&interval=%s",
		c.BaseURL, url.PathEscape(symbol), days, g)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "coingecko request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrFeedUnavailable, "coingecko fetch: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, errors.Wrap(err, "coingecko read body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrFeedUnavailable, "coingecko: status %d", resp.StatusCode)
	}

	var chart marketChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, errors.Wrap(err, "coingecko decode")
	}

	points := make([]model.PricePoint, 0, len(chart.Prices))
	for i, p := range chart.Prices {
		if len(p) < 2 {
			continue
		}
		pt := model.PricePoint{Timestamp: int64(p[0]), Price: p[1]}
		if i < len(chart.TotalVolumes) && len(chart.TotalVolumes[i]) >= 2 && chart.TotalVolumes[i][1] != 0 {
			pt.Volume = chart.TotalVolumes[i][1]
			pt.HasVolume = true
		}
		points = append(points, pt)
	}
	return points, nil
}
