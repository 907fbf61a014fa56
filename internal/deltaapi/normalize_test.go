package deltaapi

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/flightmenu/internal/menu"
)

func normQuery() menu.Query {
	return menu.Query{
		DepartureDate:    time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC),
		FlightNumber:     1110,
		DepartureAirport: "ATL",
		OperatingCarrier: "DL",
	}
}

func TestNormalizeEmptyBody(t *testing.T) {
	for _, raw := range []string{"", "   \n"} {
		fm, err := normalizeMenuResponse([]byte(raw), normQuery())
		if err != nil {
			t.Fatal(err)
		}
		if fm.Success || fm.ErrorMessage == "" {
			t.Fatalf("raw %q: %+v", raw, fm)
		}
		if fm.Carrier != "DL" || fm.FlightNumber != 1110 {
			t.Fatalf("query identity lost: %+v", fm)
		}
		if fm.Services == nil || len(fm.Services) != 0 {
			t.Fatalf("failure path services must be empty, non-nil: %#v", fm.Services)
		}
	}
}

func TestNormalizeNoFlightMenus(t *testing.T) {
	fm, err := normalizeMenuResponse([]byte(`{}`), normQuery())
	if err != nil {
		t.Fatal(err)
	}
	if fm.Success || fm.ErrorMessage != "Empty or invalid response from API" {
		t.Fatalf("%+v", fm)
	}

	fm, err = normalizeMenuResponse([]byte(`{"error":"flight not found"}`), normQuery())
	if err != nil {
		t.Fatal(err)
	}
	if fm.Success || fm.ErrorMessage != "flight not found" {
		t.Fatalf("upstream error field not surfaced: %+v", fm)
	}
	if fm.Services == nil {
		t.Fatal("failure path services must be non-nil")
	}
}

func TestNormalizeMalformedJSON(t *testing.T) {
	_, err := normalizeMenuResponse([]byte(`{"flightMenus": [`), normQuery())
	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("want *APIError, got %T: %v", err, err)
	}
	if !strings.Contains(ae.Body, "unparseable") {
		t.Fatalf("body: %q", ae.Body)
	}
}

func TestNormalizeZeroCabins(t *testing.T) {
	raw := `{"flightMenus":[{"flightArrivalAirportCode":"JFK","menuServices":[]}]}`
	fm, err := normalizeMenuResponse([]byte(raw), normQuery())
	if err != nil {
		t.Fatal(err)
	}
	if !fm.Success {
		t.Fatalf("menu entry with no cabins is still a success: %+v", fm)
	}
	if fm.Services == nil || len(fm.Services) != 0 {
		t.Fatalf("services must be empty, non-nil: %#v", fm.Services)
	}
	if fm.ArrivalAirport != "JFK" {
		t.Fatalf("arrival airport: %+v", fm)
	}
}

func TestNormalizeCabinFilter(t *testing.T) {
	raw := `{"flightMenus":[{"menuServices":[
	  {"cabinTypeCode":"C","cabinTypeDesc":"Delta One"},
	  {"cabinTypeCode":"W","cabinTypeDesc":"Premium Select"}
	]}]}`

	q := normQuery()
	q.CabinCodes = []string{"C"}
	fm, err := normalizeMenuResponse([]byte(raw), q)
	if err != nil {
		t.Fatal(err)
	}
	if len(fm.Services) != 1 || fm.Services[0].CabinCode != "C" {
		t.Fatalf("filter kept wrong services: %+v", fm.Services)
	}

	// Unfiltered query keeps both cabins.
	fm, err = normalizeMenuResponse([]byte(raw), normQuery())
	if err != nil {
		t.Fatal(err)
	}
	if len(fm.Services) != 2 {
		t.Fatalf("unfiltered: %+v", fm.Services)
	}
}

func TestNormalizePartialItem(t *testing.T) {
	raw := `{"flightMenus":[{"menuServices":[{"cabinTypeCode":"Y","menus":[{"menuItems":[
	  {"menuItemDesc":"Pretzels"},
	  {"menuItemDesc":"Pasta","unknownField":true,"menuItemDietaryAsgmts":[{"menuItemDietaryCd":"V"}]}
	]}]}]}]}`
	fm, err := normalizeMenuResponse([]byte(raw), normQuery())
	if err != nil {
		t.Fatal(err)
	}
	items := fm.Services[0].Menus[0].Items
	if len(items) != 2 {
		t.Fatalf("items: %+v", items)
	}
	if items[0].PreSelect != nil {
		t.Fatalf("absent preSelectInd must stay nil: %+v", items[0])
	}
	if len(items[1].Dietary) != 1 || items[1].Dietary[0].Code != "V" {
		t.Fatalf("dietary: %+v", items[1].Dietary)
	}
}

func TestNormalizeAvailabilityMissingLegs(t *testing.T) {
	for _, raw := range []string{`{}`, `not json`} {
		_, err := normalizeAvailabilityResponse([]byte(raw))
		var ae *APIError
		if !errors.As(err, &ae) {
			t.Fatalf("raw %q: want *APIError, got %T: %v", raw, err, err)
		}
	}

	// An explicit empty list is valid.
	res, err := normalizeAvailabilityResponse([]byte(`{"flightLegs":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Legs) != 0 {
		t.Fatalf("legs: %+v", res.Legs)
	}
}

func TestStringifyStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"flightLegs":[{"status":"OK"}]}`, "OK"},
		{`{"flightLegs":[{"status":200}]}`, "200"},
		{`{"flightLegs":[{}]}`, ""},
	}
	for _, c := range cases {
		res, err := normalizeAvailabilityResponse([]byte(c.raw))
		if err != nil {
			t.Fatal(err)
		}
		if got := res.Legs[0].Status; got != c.want {
			t.Fatalf("raw %s: status %q want %q", c.raw, got, c.want)
		}
	}
}
