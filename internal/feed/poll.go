package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mlvaux/tickpipe/internal/fixed"
	"github.com/mlvaux/tickpipe/internal/metrics"
)

// PollClient fetches spot prices from the exchange REST API.
type PollClient struct {
	baseURL    string
	httpClient *http.Client
}

// tickerResponse mirrors the /api/v3/ticker/price payload.
type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// NewPollClient creates a REST polling client.
func NewPollClient(baseURL string, timeout time.Duration) *PollClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PollClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchPrice retrieves the current spot price for one symbol.
func (c *PollClient) FetchPrice(ctx context.Context, symbol string) (fixed.Point, error) {
	u, err := url.Parse(c.baseURL + "/api/v3/ticker/price")
	if err != nil {
		return 0, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("symbol", symbol)
	u.RawQuery = q.Encode()

	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		return 0, fmt.Errorf("failed to fetch price: %w", err)
	}
	defer resp.Body.Close()

	var ticker tickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return 0, fmt.Errorf("failed to decode ticker: %w", err)
	}

	d, err := decimal.NewFromString(ticker.Price)
	if err != nil {
		return 0, fmt.Errorf("failed to parse price %q: %w", ticker.Price, err)
	}
	return fixed.FromDecimal(d)
}

// doRequest performs HTTP request with retry logic
func (c *PollClient) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	maxRetries := 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// runPoll samples each symbol once per interval. Fetch failures become
// invalid updates so downstream sees the gap instead of a stale price.
func (f *Feed) runPoll(ctx context.Context, out chan<- Update) error {
	if len(f.symbols) == 0 {
		return fmt.Errorf("poll feed requires at least one symbol")
	}

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case at := <-ticker.C:
			for _, sym := range f.symbols {
				upd := Update{Symbol: sym, At: at}
				price, err := f.poll.FetchPrice(ctx, sym)
				if err != nil {
					log.Warn().Str("symbol", sym).Err(err).Msg("price poll failed")
					metrics.InvalidTicks.Inc()
				} else {
					upd.Price = price
					upd.Valid = true
				}
				select {
				case out <- upd:
					metrics.TicksTotal.WithLabelValues(sym).Inc()
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}
