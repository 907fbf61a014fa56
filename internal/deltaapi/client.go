// Package deltaapi talks to the airline's catering menu service: the
// unauthenticated menu-by-flight endpoint, the OAuth-protected digital menu
// availability endpoint, and the token endpoint backing it. Failures are
// classified into AuthError, TimeoutError and APIError so callers can branch
// without string matching.
package deltaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/flightmenu/internal/menu"
)

const (
	defaultTimeout = 30 * time.Second
	healthTimeout  = 10 * time.Second

	menuChannelID         = "DGMNPT"
	availabilityChannelID = "EM"
)

// Config carries the endpoint and credential settings for a Client. BaseURL is
// the menu service root (".../CatFltMenuSvcRst/v1"); TokenURL is the OAuth
// token endpoint.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string

	// Timeout bounds menu and availability calls; zero means 30s.
	Timeout time.Duration
	// HealthTimeout bounds the health probe; zero means 10s.
	HealthTimeout time.Duration
}

// Client is the menu service client. The embedded http.Client and its
// connection pool are created once and shared by every call, including the
// token manager's exchanges.
type Client struct {
	baseURL       string
	hc            *http.Client
	tokens        *TokenManager
	timeout       time.Duration
	healthTimeout time.Duration
	log           *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HealthTimeout == 0 {
		cfg.HealthTimeout = healthTimeout
	}
	hc := &http.Client{}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		hc:            hc,
		tokens:        NewTokenManager(cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, cfg.Scope, cfg.Timeout, hc, log),
		timeout:       cfg.Timeout,
		healthTimeout: cfg.HealthTimeout,
		log:           log,
	}
}

// Tokens exposes the token manager, mainly so tests and the server wiring can
// reach its clock.
func (c *Client) Tokens() *TokenManager { return c.tokens }

// Close releases the shared connection pool. Call on shutdown.
func (c *Client) Close() {
	c.hc.CloseIdleConnections()
}

// NewTransactionID returns a fresh per-call trace id in the upstream's
// expected shape: an uppercase random UUID.
func NewTransactionID() string {
	return strings.ToUpper(uuid.NewString())
}

// MenuByFlight fetches and normalizes the menu for one flight leg. A reply
// without menu data is a success=false FlightMenu value, not an error; errors
// are reserved for transport and protocol failures.
func (c *Client) MenuByFlight(ctx context.Context, q menu.Query) (menu.FlightMenu, error) {
	if q.OperatingCarrier == "" {
		q.OperatingCarrier = menu.DefaultCarrier
	}

	params := url.Values{}
	params.Set("departureLocalDate", q.DepartureDate.Format("2006-01-02"))
	params.Set("flightDepartureAirportCode", strings.ToUpper(q.DepartureAirport))
	params.Set("flightNum", strconv.Itoa(q.FlightNumber))
	params.Set("operatingCarrierCode", strings.ToUpper(q.OperatingCarrier))
	if len(q.CabinCodes) == 1 {
		// The endpoint takes at most one cabin filter; broader sets are
		// filtered during normalization.
		params.Set("cabinCode", strings.ToUpper(q.CabinCodes[0]))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	hdr := c.staticHeaders()
	hdr.Set("transactionid", NewTransactionID())

	status, body, err := c.do(ctx, http.MethodGet, c.baseURL+"/menuByFlight?"+params.Encode(), nil, hdr)
	if err != nil {
		return menu.FlightMenu{}, classifyTransport("menuByFlight", err)
	}
	if status < 200 || status > 299 {
		return menu.FlightMenu{}, &APIError{Status: status, Body: string(body)}
	}
	return normalizeMenuResponse(body, q)
}

// CheckAvailability asks, per flight leg, which cabins offer digital or
// pre-select menus. It always authenticates; a token failure aborts the call
// with the same AuthError.
func (c *Client) CheckAvailability(ctx context.Context, legs []menu.FlightLeg) (menu.AvailabilityResult, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return menu.AvailabilityResult{}, err
	}

	payload, err := json.Marshal(struct {
		FlightLegs []menu.FlightLeg `json:"flightLegs"`
	}{FlightLegs: legs})
	if err != nil {
		return menu.AvailabilityResult{}, &APIError{Status: 0, Body: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	hdr := http.Header{}
	hdr.Set("accept", "application/json")
	hdr.Set("Content-Type", "application/json")
	hdr.Set("channelID", availabilityChannelID)
	hdr.Set("TransactionID", NewTransactionID())
	hdr.Set("Authorization", "Bearer "+token)

	status, body, err := c.do(ctx, http.MethodPost, c.baseURL+"/digitalMenuAvailability", payload, hdr)
	if err != nil {
		return menu.AvailabilityResult{}, classifyTransport("digitalMenuAvailability", err)
	}
	if status < 200 || status > 299 {
		return menu.AvailabilityResult{}, &APIError{Status: status, Body: string(body)}
	}
	return normalizeAvailabilityResponse(body)
}

// Health reports whether the menu endpoint answers at all, with a short
// deadline. Any response below 500 counts as healthy; a 4xx still proves the
// service is up.
type Health struct {
	Healthy      bool          `json:"healthy"`
	StatusCode   int           `json:"statusCode,omitempty"`
	ResponseTime time.Duration `json:"responseTimeMs"`
	Error        string        `json:"error,omitempty"`
}

func (c *Client) CheckHealth(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("departureLocalDate", time.Now().Format("2006-01-02"))
	params.Set("flightDepartureAirportCode", "ATL")
	params.Set("flightNum", "30")
	params.Set("operatingCarrierCode", menu.DefaultCarrier)

	hdr := c.staticHeaders()
	hdr.Set("transactionid", NewTransactionID())

	start := time.Now()
	status, _, err := c.do(ctx, http.MethodGet, c.baseURL+"/menuByFlight?"+params.Encode(), nil, hdr)
	elapsed := time.Since(start)
	if err != nil {
		return Health{Healthy: false, ResponseTime: elapsed, Error: err.Error()}
	}
	return Health{Healthy: status < 500, StatusCode: status, ResponseTime: elapsed}
}

// staticHeaders mirrors the browser headers the public menu site sends; the
// endpoint rejects requests without them.
func (c *Client) staticHeaders() http.Header {
	hdr := http.Header{}
	hdr.Set("accept", "application/json, text/plain, */*")
	hdr.Set("accept-language", "en-US,en;q=0.8")
	hdr.Set("channelid", menuChannelID)
	hdr.Set("origin", "https://menu.delta.com")
	hdr.Set("priority", "u=1, i")
	hdr.Set("referer", "https://menu.delta.com/")
	hdr.Set("sec-gpc", "1")
	hdr.Set("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	return hdr
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, hdr http.Header) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header = hdr

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return res.StatusCode, b, nil
}
