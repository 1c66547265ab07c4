package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/leshachaplin/exmanalytics/internal/domain"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	URL     string        `envconfig:"URL" default:"http://localhost:8082"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

// Client reads contacts from the remote collection service.
type Client struct {
	url    string
	client *retryablehttp.Client
}

func New(cfg Config) *Client {
	client := retryablehttp.NewClient()
	client.Logger = nil
	// Retries are driven by the caller's retrier.
	client.RetryMax = 0
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.HTTPClient.Timeout = cfg.Timeout
	if cfg.Timeout <= 0 {
		client.HTTPClient.Timeout = defaultTimeout
	}

	return &Client{
		url:    cfg.URL,
		client: client,
	}
}

// Get returns nil when the contact does not exist. Transport failures and 5xx
// responses are reported as domain.ErrStoreUnavailable.
func (c *Client) Get(ctx context.Context, contactID uuid.UUID, expand ...string) (*domain.Contact, error) {
	q := url.Values{}
	for _, facet := range expand {
		q.Add("expand", facet)
	}
	u := fmt.Sprintf("%s/v1/contacts/%s", c.url, contactID)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("get contact: %w", ctx.Err())
		}
		return nil, fmt.Errorf("get contact: %w: %v", domain.ErrStoreUnavailable, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, nil
	case res.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("get contact: %w: status %d", domain.ErrStoreUnavailable, res.StatusCode)
	case res.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("get contact: unexpected status code: %d", res.StatusCode)
	}

	contact := &domain.Contact{}
	if err = json.NewDecoder(res.Body).Decode(contact); err != nil {
		return nil, fmt.Errorf("decode contact: %w", err)
	}
	return contact, nil
}
