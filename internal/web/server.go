// Package web serves the operator UI (server-rendered, session-authenticated)
// and the JSON API consumed by the conversational agent.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/flightmenu/internal/auth"
	"github.com/example/flightmenu/internal/db"
	"github.com/example/flightmenu/internal/deltaapi"
	"github.com/example/flightmenu/internal/flights"
	"github.com/example/flightmenu/internal/menu"
	"github.com/example/flightmenu/internal/watch"
)

//go:embed templates/*.html static/*
var fs embed.FS

type Server struct {
	Auth    *auth.Store
	Flights *flights.Repo
	Watches *watch.Repo
	API     *deltaapi.Client
	DB      *db.DB
	Log     *zap.Logger
}

type tmplData struct {
	Title string
	User  int64
	Flash string

	Query      menu.Query
	CabinCSV   string
	Menu       *menu.FlightMenu
	Validation *menu.ValidationResult

	RouteFrom string
	RouteTo   string
	RouteDate string
	Flights   []flights.Option

	Watches []watch.Watch
	Watch   watch.Watch
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/static/", http.FileServer(http.FS(fs)))
	mux.HandleFunc("/healthz", s.handleHealthz)

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)

	mux.Handle("/", s.Auth.RequireAuth(http.HandlerFunc(s.handleHome)))
	mux.Handle("/menu", s.Auth.RequireAuth(http.HandlerFunc(s.handleMenu)))
	mux.Handle("/flights", s.Auth.RequireAuth(http.HandlerFunc(s.handleFlights)))
	mux.Handle("/watches", s.Auth.RequireAuth(http.HandlerFunc(s.handleWatches)))
	mux.Handle("/watches/new", s.Auth.RequireAuth(http.HandlerFunc(s.handleWatchNew)))
	mux.Handle("/watches/create", s.Auth.RequireAuth(http.HandlerFunc(s.handleWatchCreate)))

	// Agent-facing JSON API.
	mux.HandleFunc("/api/v1/menu", s.apiMenu)
	mux.HandleFunc("/api/v1/availability", s.apiAvailability)
	mux.HandleFunc("/api/v1/flights", s.apiFlights)

	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	type health struct {
		API       deltaapi.Health `json:"api"`
		DB        bool            `json:"db"`
		CheckedAt time.Time       `json:"checkedAt"`
	}
	h := health{
		API:       s.API.CheckHealth(r.Context()),
		DB:        s.DB.Ping(r.Context()) == nil,
		CheckedAt: time.Now().UTC(),
	}
	status := http.StatusOK
	if !h.API.Healthy || !h.DB {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	s.render(w, "templates/home.html", tmplData{
		Title: "Flight Menus",
		User:  uid,
		Query: menu.Query{OperatingCarrier: menu.DefaultCarrier},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "templates/login.html", tmplData{Title: "Login"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")
		id, err := s.Auth.Authenticate(r.Context(), username, password)
		if err != nil {
			s.render(w, "templates/login.html", tmplData{Title: "Login", Flash: "Invalid username/password"})
			return
		}
		if err := s.Auth.SetSession(w, r, id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	q, cabinCSV, err := parseMenuQuery(r)
	data := tmplData{Title: "Menu", User: uid, Query: q, CabinCSV: cabinCSV}
	if err != nil {
		data.Flash = err.Error()
		s.render(w, "templates/menu.html", data)
		return
	}

	vr := menu.Validate(q, time.Now())
	if !vr.Valid {
		data.Validation = &vr
		s.render(w, "templates/menu.html", data)
		return
	}

	fm, err := s.API.MenuByFlight(r.Context(), q)
	if err != nil {
		s.Log.Warn("menu fetch failed", zap.Int("flight", q.FlightNumber), zap.Error(err))
		data.Flash = describeError(err)
		s.render(w, "templates/menu.html", data)
		return
	}
	data.Menu = &fm
	s.render(w, "templates/menu.html", data)
}

func (s *Server) handleFlights(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	from := strings.TrimSpace(r.FormValue("from"))
	to := strings.TrimSpace(r.FormValue("to"))
	carrier := strings.TrimSpace(r.FormValue("carrier"))
	if carrier == "" {
		carrier = menu.DefaultCarrier
	}
	data := tmplData{Title: "Flights", User: uid, RouteFrom: from, RouteTo: to, RouteDate: r.FormValue("date")}

	date, err := time.Parse("2006-01-02", r.FormValue("date"))
	if err != nil {
		data.Flash = "Invalid date (want YYYY-MM-DD)"
		s.render(w, "templates/flights.html", data)
		return
	}

	opts, err := s.Flights.Lookup(r.Context(), carrier, from, to, date)
	if err != nil {
		s.Log.Error("flight lookup failed", zap.String("from", from), zap.String("to", to), zap.Error(err))
		data.Flash = "Flight lookup failed"
		s.render(w, "templates/flights.html", data)
		return
	}
	data.Flights = opts
	s.render(w, "templates/flights.html", data)
}

func (s *Server) handleWatches(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	ws, err := s.Watches.ListByUser(r.Context(), uid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "templates/watches.html", tmplData{Title: "Watches", User: uid, Watches: ws})
}

func (s *Server) handleWatchNew(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	s.render(w, "templates/new_watch.html", tmplData{
		Title: "New Watch",
		User:  uid,
		Watch: watch.Watch{Carrier: menu.DefaultCarrier},
	})
}

func (s *Server) handleWatchCreate(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	num, _ := strconv.Atoi(r.FormValue("flight_number"))
	depDate, err := time.Parse("2006-01-02", r.FormValue("departure_date"))
	if err != nil {
		s.render(w, "templates/new_watch.html", tmplData{Title: "New Watch", User: uid, Flash: "Invalid departure date"})
		return
	}

	wch := watch.Watch{
		UserID:           uid,
		Carrier:          strings.ToUpper(strings.TrimSpace(r.FormValue("carrier"))),
		FlightNumber:     num,
		DepartureAirport: strings.ToUpper(strings.TrimSpace(r.FormValue("departure_airport"))),
		DepartureDate:    depDate,
		CabinCode:        strings.ToUpper(strings.TrimSpace(r.FormValue("cabin_code"))),
	}
	if err := wch.Validate(); err != nil {
		s.render(w, "templates/new_watch.html", tmplData{Title: "New Watch", User: uid, Flash: err.Error(), Watch: wch})
		return
	}
	if _, err := s.Watches.Create(r.Context(), wch); err != nil {
		s.Log.Error("create watch failed", zap.Error(err))
		s.render(w, "templates/new_watch.html", tmplData{Title: "New Watch", User: uid, Flash: "Failed to create watch", Watch: wch})
		return
	}
	http.Redirect(w, r, "/watches", http.StatusFound)
}

// parseMenuQuery reads the menu form/query parameters. Only structurally
// unreadable input errors here; policy checks belong to menu.Validate.
func parseMenuQuery(r *http.Request) (menu.Query, string, error) {
	dateStr := strings.TrimSpace(r.FormValue("departure_date"))
	dep, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return menu.Query{OperatingCarrier: menu.DefaultCarrier}, "", fmt.Errorf("invalid departure date (want YYYY-MM-DD)")
	}
	num, err := strconv.Atoi(strings.TrimSpace(r.FormValue("flight_number")))
	if err != nil {
		return menu.Query{OperatingCarrier: menu.DefaultCarrier}, "", fmt.Errorf("invalid flight number")
	}
	carrier := strings.ToUpper(strings.TrimSpace(r.FormValue("carrier")))
	if carrier == "" {
		carrier = menu.DefaultCarrier
	}
	cabinCSV := strings.TrimSpace(r.FormValue("cabin_codes"))
	return menu.Query{
		DepartureDate:    dep,
		FlightNumber:     num,
		DepartureAirport: strings.ToUpper(strings.TrimSpace(r.FormValue("departure_airport"))),
		OperatingCarrier: carrier,
		CabinCodes:       menu.SplitCabinCodes(cabinCSV),
	}, cabinCSV, nil
}

func (s *Server) render(w http.ResponseWriter, name string, data tmplData) {
	t, err := template.ParseFS(fs,
		"templates/base.html",
		name,
	)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
	}
}

func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", zap.String("addr", addr))
	return srv.ListenAndServe()
}
