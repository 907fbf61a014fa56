package deltaapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTokenServer(t *testing.T, exchanges *int32, expiresIn int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostFormValue("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostFormValue("scope"); got != "read" {
			t.Errorf("scope = %q", got)
		}
		n := atomic.AddInt32(exchanges, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"Bearer","expires_in":%d}`, n, expiresIn)
	}))
}

func TestAccessTokenCached(t *testing.T) {
	var exchanges int32
	srv := newTokenServer(t, &exchanges, 3600)
	defer srv.Close()

	tm := NewTokenManager(srv.URL, "id", "secret", "", 0, srv.Client(), zap.NewNop())

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		tok, err := tm.AccessToken(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if tok != "tok-1" {
			t.Fatalf("call %d: got %q", i, tok)
		}
	}
	if n := atomic.LoadInt32(&exchanges); n != 1 {
		t.Fatalf("want 1 exchange, got %d", n)
	}
}

func TestAccessTokenRefreshesInsideMargin(t *testing.T) {
	var exchanges int32
	srv := newTokenServer(t, &exchanges, 120)
	defer srv.Close()

	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	tm := NewTokenManager(srv.URL, "id", "secret", "read", 0, srv.Client(), zap.NewNop()).
		WithClock(func() time.Time { return now })

	ctx := context.Background()
	if tok, err := tm.AccessToken(ctx); err != nil || tok != "tok-1" {
		t.Fatalf("first token: %q %v", tok, err)
	}

	// 120s token, 60s margin: at +61s the token must no longer be handed out.
	now = now.Add(61 * time.Second)
	tok, err := tm.AccessToken(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tok != "tok-2" {
		t.Fatalf("expected refreshed token, got %q", tok)
	}
	if n := atomic.LoadInt32(&exchanges); n != 2 {
		t.Fatalf("want 2 exchanges, got %d", n)
	}
}

func TestAccessTokenSingleFlight(t *testing.T) {
	var exchanges int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&exchanges, 1)
		time.Sleep(50 * time.Millisecond)
		fmt.Fprint(w, `{"access_token":"tok","token_type":"Bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	tm := NewTokenManager(srv.URL, "id", "secret", "read", 0, srv.Client(), zap.NewNop())

	const callers = 20
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := tm.AccessToken(context.Background())
			if err != nil {
				errs <- err
				return
			}
			if tok != "tok" {
				errs <- fmt.Errorf("got token %q", tok)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if n := atomic.LoadInt32(&exchanges); n != 1 {
		t.Fatalf("want 1 exchange for %d concurrent callers, got %d", callers, n)
	}
}

func TestAccessTokenExchangeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	tm := NewTokenManager(srv.URL, "id", "bad", "read", 0, srv.Client(), zap.NewNop())

	_, err := tm.AccessToken(context.Background())
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("want *AuthError, got %T: %v", err, err)
	}
	if ae.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d", ae.Status)
	}
}

func TestAccessTokenExchangeDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can observe the client disconnect and
		// cancel the request context; otherwise srv.Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	tm := NewTokenManager(srv.URL, "id", "secret", "read", 20*time.Millisecond, srv.Client(), zap.NewNop())

	start := time.Now()
	_, err := tm.AccessToken(context.Background())
	elapsed := time.Since(start)
	if err == nil {
		t.Fatal("expected error from stalled token endpoint")
	}
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("want *TimeoutError in chain, got %T: %v", err, err)
	}
	if elapsed > time.Second {
		t.Fatalf("exchange ran %v past its 20ms deadline", elapsed)
	}
}

func TestAccessTokenMissingField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"token_type":"Bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	tm := NewTokenManager(srv.URL, "id", "secret", "read", 0, srv.Client(), zap.NewNop())

	_, err := tm.AccessToken(context.Background())
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("want *AuthError, got %T: %v", err, err)
	}
}
