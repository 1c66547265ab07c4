package geoip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/leshachaplin/exmanalytics/internal/domain"
	"github.com/leshachaplin/exmanalytics/internal/metrics"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultRetryCount = 2
)

// lookupNamespace seeds the name-based lookup ids derived from address bytes.
var lookupNamespace = uuid.MustParse("6ba7b812-9dad-11d1-80b4-00c04fd430c8")

var ErrLookupFailed = errors.New("geoip lookup failed")

type Config struct {
	URL        string        `envconfig:"URL" default:"http://localhost:8081"`
	Timeout    time.Duration `envconfig:"TIMEOUT"`
	RetryCount int           `envconfig:"RETRY_COUNT" default:"2"`
}

// Resolver looks addresses up in a remote geo-IP service.
type Resolver struct {
	url     string
	timeout time.Duration
	client  *retryablehttp.Client
	group   singleflight.Group
	logger  zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *Resolver {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = cfg.RetryCount
	if cfg.RetryCount <= 0 {
		client.RetryMax = defaultRetryCount
	}

	r := &Resolver{
		url:     cfg.URL,
		timeout: cfg.Timeout,
		client:  client,
		logger:  logger,
	}
	// No timeout means the resolver default, never an unbounded wait.
	if r.timeout <= 0 {
		r.timeout = defaultTimeout
	}
	return r
}

type lookupResponse struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
}

// Resolve returns nil without an error for addresses that do not parse and
// for addresses the service does not know.
func (r *Resolver) Resolve(ctx context.Context, ipAddress string) (*domain.LocationInfo, error) {
	addr, err := netip.ParseAddr(ipAddress)
	if err != nil {
		metrics.GeoLookups.WithLabelValues("unparseable").Inc()
		r.logger.Debug().Str("ip", ipAddress).Msg("skip lookup of unparseable address")
		return nil, nil
	}
	addr = addr.Unmap()

	// The shared lookup outlives any single caller; lookup bounds it with the
	// resolver timeout.
	lookupCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(addr.String(), func() (interface{}, error) {
		return r.lookup(lookupCtx, addr)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		metrics.GeoLookups.WithLabelValues("canceled").Inc()
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		metrics.GeoLookups.WithLabelValues("error").Inc()
		return nil, res.Err
	}

	loc, _ := res.Val.(*domain.LocationInfo)
	if loc == nil {
		metrics.GeoLookups.WithLabelValues("not_found").Inc()
		return nil, nil
	}
	metrics.GeoLookups.WithLabelValues("ok").Inc()
	return loc, nil
}

func (r *Resolver) lookup(ctx context.Context, addr netip.Addr) (*domain.LocationInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, r.url+"/v1/lookup/"+addr.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: new request: %v", ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Lookup-ID", LookupID(addr).String())

	res, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrLookupFailed, res.StatusCode)
	}

	var body lookupResponse
	if err = json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrLookupFailed, err)
	}

	return &domain.LocationInfo{
		Country: body.Country,
		Region:  body.Region,
		City:    body.City,
	}, nil
}

// LookupID is a stable id of an address, computed from its bytes.
func LookupID(addr netip.Addr) uuid.UUID {
	b := addr.AsSlice()
	return uuid.NewSHA1(lookupNamespace, b)
}
