package deltaapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/flightmenu/internal/menu"
)

var upperUUID = regexp.MustCompile(`^[0-9A-F]{8}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{12}$`)

const menuFixture = `{
  "flightMenus": [{
    "operatingCarrierCode": "DL",
    "flightNum": 1110,
    "departureLocalDate": "2025-09-30",
    "flightDepartureAirportCode": "ATL",
    "flightArrivalAirportCode": "JFK",
    "arrivalLocalDate": "2025-09-30",
    "menuServices": [
      {
        "cabinTypeCode": "C",
        "cabinTypeDesc": "Delta One",
        "cabinWelcomeMessage": "Welcome aboard",
        "cabinPreselectWindowStartUtcTs": "2025-09-23T00:00:00Z",
        "cabinPreselectWindowEndUtcTs": "2025-09-29T00:00:00Z",
        "menus": [{
          "menuServiceDesc": "Dinner",
          "menuItems": [{
            "menuItemDesc": "Braised short rib",
            "menuItemAdditionalDesc": "with polenta",
            "ssrCode": "VGML",
            "preSelectInd": true,
            "menuItemDietaryAsgmts": [
              {"menuItemDietaryCd": "GF", "menuItemDietaryDesc": "Gluten-free"},
              {"menuItemDietaryCd": "", "menuItemDietaryDesc": ""}
            ]
          }]
        }]
      },
      {"cabinTypeCode": "W", "cabinTypeDesc": "Premium Select", "menus": []}
    ]
  }]
}`

func testQuery() menu.Query {
	return menu.Query{
		DepartureDate:    time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC),
		FlightNumber:     1110,
		DepartureAirport: "ATL",
		OperatingCarrier: "DL",
	}
}

func TestMenuByFlight(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/menuByFlight" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("departureLocalDate") != "2025-09-30" ||
			q.Get("flightDepartureAirportCode") != "ATL" ||
			q.Get("flightNum") != "1110" ||
			q.Get("operatingCarrierCode") != "DL" {
			t.Errorf("unexpected query params: %v", q)
		}
		if q.Has("cabinCode") {
			t.Errorf("cabinCode sent without a single-cabin filter")
		}
		if got := r.Header.Get("channelid"); got != "DGMNPT" {
			t.Errorf("channelid = %q", got)
		}
		if tid := r.Header.Get("transactionid"); !upperUUID.MatchString(tid) {
			t.Errorf("transactionid = %q, want uppercase UUID", tid)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("menu request must not carry a bearer token")
		}
		io.WriteString(w, menuFixture)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, TokenURL: srv.URL + "/token"}, zap.NewNop())
	defer c.Close()

	fm, err := c.MenuByFlight(context.Background(), testQuery())
	if err != nil {
		t.Fatal(err)
	}
	if !fm.Success {
		t.Fatalf("success=false: %s", fm.ErrorMessage)
	}
	if fm.ArrivalAirport != "JFK" || len(fm.Services) != 2 {
		t.Fatalf("unexpected menu: %+v", fm)
	}
	svc := fm.Services[0]
	if svc.CabinCode != "C" || svc.PreselectWindowStart == nil {
		t.Fatalf("unexpected service: %+v", svc)
	}
	item := svc.Menus[0].Items[0]
	if item.Description != "Braised short rib" || item.SSRCode != "VGML" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.PreSelect == nil || !*item.PreSelect {
		t.Fatalf("preSelectInd lost: %+v", item)
	}
	if len(item.Dietary) != 1 || item.Dietary[0].Code != "GF" {
		t.Fatalf("dietary assignments: %+v", item.Dietary)
	}
}

func TestMenuByFlightSingleCabinParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("cabinCode"); got != "C" {
			t.Errorf("cabinCode = %q", got)
		}
		io.WriteString(w, menuFixture)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, zap.NewNop())
	defer c.Close()

	q := testQuery()
	q.CabinCodes = []string{"c"}
	fm, err := c.MenuByFlight(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if len(fm.Services) != 1 || fm.Services[0].CabinCode != "C" {
		t.Fatalf("cabin filter: %+v", fm.Services)
	}
}

func TestMenuByFlightUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream says no", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, zap.NewNop())
	defer c.Close()

	_, err := c.MenuByFlight(context.Background(), testQuery())
	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("want *APIError, got %T: %v", err, err)
	}
	if ae.Status != http.StatusBadGateway || !strings.Contains(ae.Body, "upstream says no") {
		t.Fatalf("body not carried verbatim: %+v", ae)
	}
}

func TestMenuByFlightTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, menuFixture)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, zap.NewNop())
	defer c.Close()

	_, err := c.MenuByFlight(context.Background(), testQuery())
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("want *TimeoutError, got %T: %v", err, err)
	}
}

func TestCheckAvailability(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"access_token":"avail-tok","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/digitalMenuAvailability", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer avail-tok" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.Header.Get("channelID"); got != "EM" {
			t.Errorf("channelID = %q", got)
		}
		var req struct {
			FlightLegs []menu.FlightLeg `json:"flightLegs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.FlightLegs) != 1 || req.FlightLegs[0].FlightNumber != 1110 {
			t.Errorf("unexpected legs: %+v", req.FlightLegs)
		}
		io.WriteString(w, `{
		  "flightLegs": [{
		    "operatingCarrierCode": "DL",
		    "flightNum": 1110,
		    "flightDepartureAirportCode": "ATL",
		    "departureLocalDate": "2025-09-30",
		    "status": 200,
		    "cabins": [{
		      "cabinTypeCode": "C",
		      "preSelectMenuAvailable": true,
		      "digitalMenuAvailable": false,
		      "cabinPreselectWindowStartUtcTs": "2025-09-23T00:00:00Z"
		    }]
		  }]
		}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, TokenURL: srv.URL + "/token"}, zap.NewNop())
	defer c.Close()

	res, err := c.CheckAvailability(context.Background(), []menu.FlightLeg{{
		OperatingCarrier: "DL",
		FlightNumber:     1110,
		DepartureAirport: "ATL",
		DepartureDate:    "2025-09-30",
	}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Legs) != 1 {
		t.Fatalf("legs: %+v", res.Legs)
	}
	leg := res.Legs[0]
	if leg.Status != "200" {
		t.Fatalf("numeric status not flattened: %q", leg.Status)
	}
	cab := leg.Cabins[0]
	if !cab.PreSelectAvailable || cab.DigitalMenuAvailable {
		t.Fatalf("cabin flags: %+v", cab)
	}
	if cab.PreselectWindowStart == nil || cab.PreselectWindowEnd != nil {
		t.Fatalf("window pointers: %+v", cab)
	}
}

func TestCheckAvailabilityAuthFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})
	mux.HandleFunc("/digitalMenuAvailability", func(w http.ResponseWriter, r *http.Request) {
		t.Error("availability endpoint must not be called after a token failure")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, TokenURL: srv.URL + "/token"}, zap.NewNop())
	defer c.Close()

	_, err := c.CheckAvailability(context.Background(), []menu.FlightLeg{{FlightNumber: 1}})
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("want *AuthError, got %T: %v", err, err)
	}
	if ae.Status != http.StatusForbidden {
		t.Fatalf("status = %d", ae.Status)
	}
}

func TestCheckAvailabilityTokenEndpointStall(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can observe the client disconnect and
		// cancel the request context; otherwise srv.Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})
	mux.HandleFunc("/digitalMenuAvailability", func(w http.ResponseWriter, r *http.Request) {
		t.Error("availability endpoint must not be reached")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, TokenURL: srv.URL + "/token", Timeout: 50 * time.Millisecond}, zap.NewNop())
	defer c.Close()

	start := time.Now()
	_, err := c.CheckAvailability(context.Background(), []menu.FlightLeg{{FlightNumber: 30}})
	elapsed := time.Since(start)
	if err == nil {
		t.Fatal("expected error")
	}
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("want *TimeoutError in chain, got %T: %v", err, err)
	}
	// The configured timeout bounds the token exchange too, not just the
	// availability call that follows it.
	if elapsed > time.Second {
		t.Fatalf("call blocked %v on a 50ms timeout", elapsed)
	}
}

func TestCheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	c := New(Config{BaseURL: srv.URL}, zap.NewNop())
	h := c.CheckHealth(context.Background())
	if !h.Healthy || h.StatusCode != http.StatusNotFound {
		t.Fatalf("4xx should still be healthy: %+v", h)
	}
	srv.Close()
	c.Close()

	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c = New(Config{BaseURL: srv.URL}, zap.NewNop())
	defer c.Close()
	if h := c.CheckHealth(context.Background()); h.Healthy {
		t.Fatalf("5xx reported healthy: %+v", h)
	}
}
