package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/motointel/backend/internal/domain"
)

// Client fetches exchange rates from a frankfurter.app-style API. It is
// the external rate-provider collaborator: it runs before a comparison
// run starts, and the comparison core itself only ever sees the resulting
// snapshot.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a rate API client. requestsPerHour bounds outbound
// traffic to the provider.
func NewClient(baseURL string, requestsPerHour int) *Client {
	if requestsPerHour <= 0 {
		requestsPerHour = 600
	}
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerHour)/3600.0), 5)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: limiter,
	}
}

// SetDebug toggles request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// latestResponse is the provider's /latest payload
type latestResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// FetchRates fetches the latest base->symbol rates. Transient failures are
// retried up to 3 times with backoff.
func (c *Client) FetchRates(ctx context.Context, base string, symbols []string) ([]domain.ExchangeRate, error) {
	endpoint := fmt.Sprintf("%s/latest", c.baseURL)
	params := url.Values{}
	params.Add("from", strings.ToUpper(base))
	params.Add("to", strings.ToUpper(strings.Join(symbols, ",")))
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	if c.debug {
		log.Printf("[RATES] FetchRates %s -> %v", base, symbols)
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if c.debug {
				log.Printf("[RATES] request error (attempt %d): %v", attempt, err)
			}
			lastErr = err
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			if c.debug {
				log.Printf("[RATES] API error (attempt %d) - status %d: %s", attempt, resp.StatusCode, string(body))
			}
			lastErr = fmt.Errorf("%w: status %d", domain.ErrRateAPIFailure, resp.StatusCode)
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		var parsed latestResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("failed to decode rates response: %w", err)
		}
		return c.toRows(parsed)
	}

	return nil, lastErr
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "MotoIntel/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRateAPIFailure, err)
	}
	return resp, nil
}

// toRows converts the provider payload to exchange-rate rows. The
// provider publishes one reference date per response; that date becomes
// the rows' freshness timestamp for staleness checks.
func (c *Client) toRows(parsed latestResponse) ([]domain.ExchangeRate, error) {
	updatedAt, err := time.Parse("2006-01-02", parsed.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rates date %q: %w", parsed.Date, err)
	}

	rows := make([]domain.ExchangeRate, 0, len(parsed.Rates))
	for symbol, value := range parsed.Rates {
		rows = append(rows, domain.ExchangeRate{
			FromCurrency: strings.ToUpper(parsed.Base),
			ToCurrency:   strings.ToUpper(symbol),
			Rate:         value,
			UpdatedAt:    updatedAt.UTC(),
			Source:       c.baseURL,
		})
	}
	return rows, nil
}
