// Package regapi fetches live registration statistics from the registration system.
package regapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"nosecounter/internal/apperr"
	"nosecounter/internal/dataset"
)

// Config holds the connection settings for the registration system API.
type Config struct {
	BaseURL string `mapstructure:"url"`
	Token   string `mapstructure:"token"`

	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// Client is a registration system API client. It implements dataset.LiveSource.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var _ dataset.LiveSource = (*Client)(nil)

// NewClient creates a client, filling in defaults for unset tuning values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchYear retrieves the statistics of one year. withCreated requests the
// per-timestamp registration series as well.
func (c *Client) FetchYear(ctx context.Context, year int, withCreated bool) (*dataset.YearlyDataset, error) {
	reqURL, err := c.buildURL(year, withCreated)
	if err != nil {
		return nil, apperr.WithPath(apperr.KindConfig, "build statistics url", c.cfg.BaseURL, err)
	}

	body, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, apperr.WithPath(apperr.KindNetwork, "fetch live statistics", redact(reqURL), err)
	}

	var ds dataset.YearlyDataset
	if err := json.Unmarshal(body, &ds); err != nil {
		return nil, apperr.WithPath(apperr.KindNetwork, "decode live statistics", redact(reqURL), err)
	}
	if ds.Year == 0 {
		ds.Year = year
	}
	if ds.Year != year {
		return nil, apperr.WithPath(apperr.KindNetwork, "fetch live statistics", redact(reqURL),
			fmt.Errorf("requested year %d, got %d", year, ds.Year))
	}

	log.Debug().
		Int("year", ds.Year).
		Int("total", ds.TotalCount).
		Int("created", ds.Created.Len()).
		Msg("Live statistics fetched")
	return &ds, nil
}

func (c *Client) buildURL(year int, withCreated bool) (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", c.cfg.Token)
	q.Set("year", strconv.Itoa(year))
	if withCreated {
		q.Set("show-created", "1")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// doRequest performs the GET with retries on transport errors and 5xx responses.
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error

	for i := 0; i < c.cfg.MaxRetries; i++ {
		if i > 0 {
			wait := c.cfg.RetryDelay * time.Duration(i)
			log.Debug().Err(lastErr).Dur("wait", wait).Int("attempt", i+1).Msg("Retrying statistics request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var ue *url.Error
			if errors.As(err, &ue) {
				ue.URL = redact(ue.URL)
			}
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: HTTP %d", resp.StatusCode)
			continue
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, fmt.Errorf("access denied (HTTP %d): check the API token", resp.StatusCode)
		default:
			return nil, fmt.Errorf("unexpected status: HTTP %d", resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

// redact hides the token query parameter so URLs can be logged.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
