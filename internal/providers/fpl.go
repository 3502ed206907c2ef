package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// FPLClient talks to the read-only Fantasy Premier League API. Every call
// goes through a shared pacing limiter (the upstream service has implicit
// rate limits), a circuit breaker and a bounded retry loop with linearly
// increasing backoff.
type FPLClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
	maxRetries int
	retryDelay time.Duration
}

// FPLClientOptions configures the client; zero values fall back to the
// production defaults.
type FPLClientOptions struct {
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	PacingDelay time.Duration
}

// NewFPLClient creates a client for the FPL API.
func NewFPLClient(opts FPLClientOptions, logger *logrus.Logger) *FPLClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://fantasy.premierleague.com/api"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.PacingDelay <= 0 {
		opts.PacingDelay = 500 * time.Millisecond
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "fpl-api",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 30 * time.Second,
	})

	return &FPLClient{
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Every(opts.PacingDelay), 1),
		breaker:    breaker,
		logger:     logger,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
	}
}

// Bootstrap fetches the roster snapshot: teams, players and gameweek events.
func (c *FPLClient) Bootstrap(ctx context.Context) (*BootstrapResponse, error) {
	var resp BootstrapResponse
	if err := c.getJSON(ctx, "/bootstrap-static/", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch bootstrap data: %w", err)
	}
	return &resp, nil
}

// Fixtures fetches the full fixture list for the season.
func (c *FPLClient) Fixtures(ctx context.Context) ([]FixtureEntry, error) {
	var fixtures []FixtureEntry
	if err := c.getJSON(ctx, "/fixtures/", &fixtures); err != nil {
		return nil, fmt.Errorf("failed to fetch fixtures: %w", err)
	}
	return fixtures, nil
}

// CurrentGameweek returns the event marked current upstream, or the next
// one when the season hasn't started.
func (c *FPLClient) CurrentGameweek(ctx context.Context) (int, error) {
	bootstrap, err := c.Bootstrap(ctx)
	if err != nil {
		return 0, err
	}
	for _, event := range bootstrap.Events {
		if event.IsCurrent {
			return event.ID, nil
		}
	}
	for _, event := range bootstrap.Events {
		if event.IsNext {
			return event.ID, nil
		}
	}
	return 0, fmt.Errorf("no current gameweek in bootstrap response")
}

// Health probes the upstream API within the client timeout.
func (c *FPLClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/bootstrap-static/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fpl api unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fpl api returned status %d", resp.StatusCode)
	}
	return nil
}

// getJSON performs one logical GET: pacing wait, then up to maxRetries
// attempts with linearly increasing backoff (attempt n waits n*retryDelay).
// The retry policy is an explicit loop so it can be unit tested without
// touching the network stack.
func (c *FPLClient) getJSON(ctx context.Context, path string, target interface{}) error {
	url := c.baseURL + path

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacing wait cancelled: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.doRequest(ctx, url, target)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < c.maxRetries {
			wait := time.Duration(attempt) * c.retryDelay
			c.logger.Warnf("FPL request failed (attempt %d/%d), waiting %v: %v",
				attempt, c.maxRetries, wait, err)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *FPLClient) doRequest(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "pl-ml-system/2.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(target)
}

// ParseDecimal converts the string-decimal stat fields the FPL API serves
// ("3.4", "") into float64, treating blanks and junk as zero.
func ParseDecimal(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
