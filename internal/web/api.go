package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/flightmenu/internal/deltaapi"
	"github.com/example/flightmenu/internal/flights"
	"github.com/example/flightmenu/internal/menu"
)

// apiError is the JSON error envelope. Kind lets the agent branch without
// parsing messages: validation_failure, auth_error, timeout, api_error.
type apiError struct {
	Kind           string `json:"kind"`
	Message        string `json:"message"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
}

// GET /api/v1/menu?departureDate&flightNumber&departureAirport&carrier&cabinCodes
func (s *Server) apiMenu(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	dep, err := time.Parse("2006-01-02", r.URL.Query().Get("departureDate"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Kind: "validation_failure", Message: "invalid departureDate (want YYYY-MM-DD)"})
		return
	}
	num, err := strconv.Atoi(r.URL.Query().Get("flightNumber"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Kind: "validation_failure", Message: "invalid flightNumber"})
		return
	}
	carrier := strings.ToUpper(r.URL.Query().Get("carrier"))
	if carrier == "" {
		carrier = menu.DefaultCarrier
	}
	q := menu.Query{
		DepartureDate:    dep,
		FlightNumber:     num,
		DepartureAirport: strings.ToUpper(r.URL.Query().Get("departureAirport")),
		OperatingCarrier: carrier,
		CabinCodes:       menu.SplitCabinCodes(r.URL.Query().Get("cabinCodes")),
	}

	vr := menu.Validate(q, time.Now())
	if !vr.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, vr)
		return
	}

	fm, err := s.API.MenuByFlight(r.Context(), q)
	if err != nil {
		s.writeAPIError(w, "menu", err)
		return
	}
	writeJSON(w, http.StatusOK, fm)
}

// POST /api/v1/availability  {"flightLegs":[...]}
func (s *Server) apiAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		FlightLegs []menu.FlightLeg `json:"flightLegs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Kind: "validation_failure", Message: "invalid request body"})
		return
	}
	if len(body.FlightLegs) == 0 {
		writeJSON(w, http.StatusBadRequest, apiError{Kind: "validation_failure", Message: "flightLegs must not be empty"})
		return
	}

	res, err := s.API.CheckAvailability(r.Context(), body.FlightLegs)
	if err != nil {
		s.writeAPIError(w, "availability", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/v1/flights?from&to&date&carrier
func (s *Server) apiFlights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Kind: "validation_failure", Message: "invalid date (want YYYY-MM-DD)"})
		return
	}
	carrier := r.URL.Query().Get("carrier")
	if carrier == "" {
		carrier = menu.DefaultCarrier
	}
	opts, err := s.Flights.Lookup(r.Context(), carrier, r.URL.Query().Get("from"), r.URL.Query().Get("to"), date)
	if err != nil {
		s.Log.Error("flight lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, apiError{Kind: "api_error", Message: "flight lookup failed"})
		return
	}
	if opts == nil {
		opts = []flights.Option{}
	}
	writeJSON(w, http.StatusOK, struct {
		Flights []flights.Option `json:"flights"`
	}{Flights: opts})
}

// writeAPIError maps a client error onto an HTTP status and the error
// envelope. Upstream failures are gateway errors from the agent's view.
func (s *Server) writeAPIError(w http.ResponseWriter, op string, err error) {
	s.Log.Warn("upstream call failed", zap.String("op", op), zap.Error(err))

	var authErr *deltaapi.AuthError
	var timeoutErr *deltaapi.TimeoutError
	var apiErr *deltaapi.APIError
	switch {
	case errors.As(err, &authErr):
		writeJSON(w, http.StatusBadGateway, apiError{Kind: "auth_error", Message: authErr.Error(), UpstreamStatus: authErr.Status})
	case errors.As(err, &timeoutErr):
		writeJSON(w, http.StatusGatewayTimeout, apiError{Kind: "timeout", Message: timeoutErr.Error()})
	case errors.As(err, &apiErr):
		writeJSON(w, http.StatusBadGateway, apiError{Kind: "api_error", Message: apiErr.Error(), UpstreamStatus: apiErr.Status})
	default:
		writeJSON(w, http.StatusInternalServerError, apiError{Kind: "api_error", Message: err.Error()})
	}
}

// describeError renders a client error for the HTML pages.
func describeError(err error) string {
	var timeoutErr *deltaapi.TimeoutError
	var authErr *deltaapi.AuthError
	if errors.As(err, &timeoutErr) {
		return "The menu service timed out; try again shortly."
	}
	if errors.As(err, &authErr) {
		return "Could not authenticate against the menu service."
	}
	return "The menu service returned an error."
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
