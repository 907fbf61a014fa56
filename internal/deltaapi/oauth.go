package deltaapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// expiryMargin is how long before the announced expiry a token stops being
// handed out, so in-flight requests never carry a token that lapses mid-call.
const expiryMargin = 60 * time.Second

// Token is an issued client-credentials token. Immutable; replaced wholesale
// on refresh.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// TokenManager owns the process-wide OAuth token: it returns the cached token
// without I/O while it is still comfortably valid, and otherwise performs a
// single credential exchange shared by all concurrent callers. A failed
// exchange is returned to every waiter; the stale token is never reused.
type TokenManager struct {
	tokenURL     string
	clientID     string
	clientSecret string
	scope        string
	timeout      time.Duration

	hc  *http.Client
	now func() time.Time
	log *zap.Logger

	current atomic.Pointer[Token]
	group   singleflight.Group
}

// NewTokenManager builds a manager around a shared HTTP client. Every exchange
// runs under timeout (zero means 30s), so a stalled token endpoint cannot block
// callers past their own deadline. The clock is settable via WithClock for
// tests.
func NewTokenManager(tokenURL, clientID, clientSecret, scope string, timeout time.Duration, hc *http.Client, log *zap.Logger) *TokenManager {
	if scope == "" {
		scope = "read"
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &TokenManager{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
		timeout:      timeout,
		hc:           hc,
		now:          time.Now,
		log:          log,
	}
}

// WithClock replaces the time source. Test hook; call before first use.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

// AccessToken returns a token valid for at least the expiry margin, refreshing
// it first if needed. Refresh failures surface as *AuthError.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	if t := m.current.Load(); m.usable(t) {
		return t.AccessToken, nil
	}

	v, err, _ := m.group.Do("refresh", func() (any, error) {
		// A waiter may arrive just after a finished refresh; don't exchange again.
		if t := m.current.Load(); m.usable(t) {
			return t.AccessToken, nil
		}
		t, err := m.exchange(ctx)
		if err != nil {
			return nil, err
		}
		m.current.Store(t)
		m.log.Debug("oauth token refreshed", zap.Time("expiresAt", t.ExpiresAt))
		return t.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *TokenManager) usable(t *Token) bool {
	return t != nil && m.now().Add(expiryMargin).Before(t.ExpiresAt)
}

func (m *TokenManager) exchange(ctx context.Context) (*Token, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
		"scope":         {m.scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := m.hc.Do(req)
	if err != nil {
		return nil, &AuthError{Err: classifyTransport("token exchange", err)}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	if res.StatusCode != http.StatusOK {
		return nil, &AuthError{Status: res.StatusCode, Body: string(body)}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &AuthError{Status: res.StatusCode, Body: string(body), Err: err}
	}
	if payload.AccessToken == "" {
		return nil, &AuthError{Status: res.StatusCode, Body: string(body)}
	}

	return &Token{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
		ExpiresAt:   m.now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}, nil
}
