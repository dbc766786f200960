// Package graph resolves ad referral source IDs to campaign names through
// the Meta Graph API.
package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"

	"whatsapp-lead-logger/internal/config"
)

// Fields selects which Graph query the client issues.
type Fields string

const (
	// FieldsCampaign asks for the parent campaign of an ad: fields=campaign{name}.
	FieldsCampaign Fields = "campaign"
	// FieldsName reads the object's own name: fields=name.
	FieldsName Fields = "name"
)

// Status classifies a lookup.
type Status int

const (
	Resolved Status = iota
	Unconfigured
	NotFound
	TransportError
)

// Names written to the sheet when a lookup does not produce a campaign name.
const (
	SentinelUnconfigured     = "token not configured"
	SentinelNameNotFound     = "name not found"
	SentinelCampaignNotFound = "campaign name not found"
	SentinelRetrievalError   = "error retrieving name"
)

// Resolution is the result of Resolve. Name is set only when Status is Resolved.
type Resolution struct {
	Status Status
	Name   string
	Fields Fields
}

// DisplayName is the value that goes into the campaign column.
func (r Resolution) DisplayName() string {
	switch r.Status {
	case Resolved:
		return r.Name
	case Unconfigured:
		return SentinelUnconfigured
	case NotFound:
		if r.Fields == FieldsCampaign {
			return SentinelCampaignNotFound
		}
		return SentinelNameNotFound
	default:
		return SentinelRetrievalError
	}
}

type Client struct {
	token   string
	baseURL string
	version string
	fields  Fields
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(cb *gobreaker.CircuitBreaker[[]byte]) Option {
	return func(c *Client) { c.breaker = cb }
}

func NewClient(cfg config.GraphConfig, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		token:   cfg.Token,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		version: cfg.APIVersion,
		fields:  Fields(cfg.Fields),
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: NewBreaker("meta-graph"),
		log:     log.With().Str("component", "graph").Logger(),
	}
	if c.fields != FieldsName {
		c.fields = FieldsCampaign
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewBreaker trips after five consecutive failed lookups and probes again
// after 30 seconds. It never retries a call.
func NewBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// Resolve looks up the campaign name for sourceID with a single request.
func (c *Client) Resolve(ctx context.Context, sourceID string) Resolution {
	res := Resolution{Fields: c.fields}
	if c.token == "" {
		c.log.Error().Msg("Meta Graph API token is not configured")
		res.Status = Unconfigured
		return res
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, sourceID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.log.Warn().Str("source_id", sourceID).Err(err).Msg("Graph API circuit open, skipping lookup")
		} else {
			c.log.Error().Str("source_id", sourceID).Err(err).Msg("Error contacting Meta Graph API")
		}
		res.Status = TransportError
		return res
	}

	name := gjson.GetBytes(body, c.namePath())
	if name.Type != gjson.String || name.Str == "" {
		c.log.Warn().Str("source_id", sourceID).Str("fields", c.queryFields()).Msg("Graph API response has no name")
		res.Status = NotFound
		return res
	}

	res.Status = Resolved
	res.Name = name.Str
	return res
}

func (c *Client) queryFields() string {
	if c.fields == FieldsName {
		return "name"
	}
	return "campaign{name}"
}

func (c *Client) namePath() string {
	if c.fields == FieldsName {
		return "name"
	}
	return "campaign.name"
}

func (c *Client) get(ctx context.Context, sourceID string) ([]byte, error) {
	u := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.version, url.PathEscape(sourceID),
		url.Values{"fields": {c.queryFields()}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error: %s - %s", resp.Status, string(respBody))
	}
	if !gjson.ValidBytes(respBody) {
		return nil, fmt.Errorf("API returned invalid JSON: %q", truncate(respBody, 200))
	}

	return respBody, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
