// Package watch stores preselect-window watches: a user registers a future
// flight and the poller flips the watch to fulfilled once the availability
// endpoint reports a digital menu or a preselect window for it.
package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/flightmenu/internal/db"
	"github.com/example/flightmenu/internal/menu"
)

type Watch struct {
	ID               int64
	UserID           int64
	Carrier          string
	FlightNumber     int
	DepartureAirport string
	DepartureDate    time.Time
	CabinCode        string // optional; empty watches all cabins

	Status               string // active | fulfilled | expired
	DigitalMenuAvailable bool
	PreselectWindowStart *string
	PreselectWindowEnd   *string
	LastCheckedAt        *time.Time
	FulfilledAt          *time.Time
	LastError            *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (w Watch) Validate() error {
	if w.Carrier == "" {
		return fmt.Errorf("carrier required")
	}
	if w.FlightNumber < 1 || w.FlightNumber > menu.MaxFlightNumber {
		return fmt.Errorf("flight_number must be between 1 and %d", menu.MaxFlightNumber)
	}
	if w.DepartureAirport == "" {
		return fmt.Errorf("departure_airport required")
	}
	if w.DepartureDate.IsZero() {
		return fmt.Errorf("departure_date required")
	}
	if w.CabinCode != "" && !menu.KnownCabin(w.CabinCode) {
		return fmt.Errorf("cabin_code must be one of %s or empty", strings.Join(menu.CabinCodes, ", "))
	}
	return nil
}

// Leg renders the watch as an availability request leg.
func (w Watch) Leg() menu.FlightLeg {
	return menu.FlightLeg{
		OperatingCarrier: w.Carrier,
		FlightNumber:     w.FlightNumber,
		DepartureAirport: w.DepartureAirport,
		DepartureDate:    w.DepartureDate.Format("2006-01-02"),
	}
}

const watchColumns = `id,user_id,operating_carrier,flight_number,departure_airport,departure_date,cabin_code,status,digital_menu_available,preselect_window_start,preselect_window_end,last_checked_at,fulfilled_at,last_error,created_at,updated_at`

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) Create(ctx context.Context, w Watch) (int64, error) {
	var id int64
	var cabin *string
	if w.CabinCode != "" {
		cabin = &w.CabinCode
	}
	err := r.db.QueryRow(ctx, `
INSERT INTO menu_watches(user_id,operating_carrier,flight_number,departure_airport,departure_date,cabin_code,status)
VALUES ($1,$2,$3,$4,$5,$6,'active')
RETURNING id`,
		w.UserID, w.Carrier, w.FlightNumber, w.DepartureAirport, w.DepartureDate, cabin,
	).Scan(&id)
	return id, db.WrapNotFound(err)
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]Watch, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+watchColumns+`
FROM menu_watches
WHERE user_id=$1
ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWatches(rows)
}

// Due returns active watches for flights that have not departed yet and were
// last checked before cutoff (or never).
func (r *Repo) Due(ctx context.Context, cutoff time.Time, limit int) ([]Watch, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+watchColumns+`
FROM menu_watches
WHERE status='active'
  AND departure_date >= CURRENT_DATE
  AND (last_checked_at IS NULL OR last_checked_at < $1)
ORDER BY departure_date ASC
LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWatches(rows)
}

// ExpirePast retires active watches whose flight date has passed.
func (r *Repo) ExpirePast(ctx context.Context) error {
	return r.db.Exec(ctx, `
UPDATE menu_watches
SET status='expired', updated_at=now()
WHERE status='active' AND departure_date < CURRENT_DATE`)
}

// MarkChecked records a poll that did not fulfill the watch.
func (r *Repo) MarkChecked(ctx context.Context, id int64, lastErr *string) error {
	return r.db.Exec(ctx, `
UPDATE menu_watches
SET last_checked_at=now(), last_error=$2, updated_at=now()
WHERE id=$1`, id, lastErr)
}

// MarkFulfilled records the availability snapshot that satisfied the watch.
func (r *Repo) MarkFulfilled(ctx context.Context, id int64, digital bool, windowStart, windowEnd *string) error {
	return r.db.Exec(ctx, `
UPDATE menu_watches
SET status='fulfilled', digital_menu_available=$2, preselect_window_start=$3, preselect_window_end=$4,
    last_checked_at=now(), fulfilled_at=now(), last_error=NULL, updated_at=now()
WHERE id=$1`, id, digital, windowStart, windowEnd)
}

func scanWatches(rows db.Rows) ([]Watch, error) {
	var out []Watch
	for rows.Next() {
		var w Watch
		var cabin *string
		if err := rows.Scan(
			&w.ID, &w.UserID, &w.Carrier, &w.FlightNumber, &w.DepartureAirport, &w.DepartureDate,
			&cabin, &w.Status, &w.DigitalMenuAvailable, &w.PreselectWindowStart, &w.PreselectWindowEnd,
			&w.LastCheckedAt, &w.FulfilledAt, &w.LastError, &w.CreatedAt, &w.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if cabin != nil {
			w.CabinCode = *cabin
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
