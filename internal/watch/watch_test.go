package watch

import (
	"testing"
	"time"
)

func TestWatchValidate(t *testing.T) {
	valid := Watch{
		Carrier:          "DL",
		FlightNumber:     1110,
		DepartureAirport: "ATL",
		DepartureDate:    time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC),
	}
	if err := valid.Validate(); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		mut  func(*Watch)
	}{
		{"missing carrier", func(w *Watch) { w.Carrier = "" }},
		{"zero flight number", func(w *Watch) { w.FlightNumber = 0 }},
		{"flight number too large", func(w *Watch) { w.FlightNumber = 10000 }},
		{"missing airport", func(w *Watch) { w.DepartureAirport = "" }},
		{"missing date", func(w *Watch) { w.DepartureDate = time.Time{} }},
		{"unknown cabin code", func(w *Watch) { w.CabinCode = "Z" }},
	}
	for _, c := range cases {
		w := valid
		c.mut(&w)
		if err := w.Validate(); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestWatchLeg(t *testing.T) {
	w := Watch{
		Carrier:          "DL",
		FlightNumber:     30,
		DepartureAirport: "ATL",
		DepartureDate:    time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC),
	}
	leg := w.Leg()
	if leg.DepartureDate != "2025-12-24" || leg.FlightNumber != 30 {
		t.Fatalf("%+v", leg)
	}
}
