// Package flights looks up scheduled flights by route and date. The schedule
// store is the system's source for "which flights fly this route" when a
// caller asks for a menu without knowing the flight number.
package flights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/flightmenu/internal/db"
)

// cacheTTL bounds how long a route lookup is served from cache. Schedules are
// stable intra-day; menus are not cached at all.
const cacheTTL = 10 * time.Minute

// Option is one scheduled flight on the requested route.
type Option struct {
	FlightNumber  int        `json:"flightNumber"`
	DepartureTime *time.Time `json:"departureTime,omitempty"`
	ArrivalTime   *time.Time `json:"arrivalTime,omitempty"`
}

type Repo struct {
	db    *db.DB
	cache *redis.Client // nil disables caching
	log   *zap.Logger
}

func NewRepo(d *db.DB, cache *redis.Client, log *zap.Logger) *Repo {
	return &Repo{db: d, cache: cache, log: log}
}

// Lookup returns the flights operating carrier flies from depAirport to
// arrAirport on date, ordered by scheduled departure. An empty result is a
// valid answer, not an error.
func (r *Repo) Lookup(ctx context.Context, carrier, depAirport, arrAirport string, date time.Time) ([]Option, error) {
	carrier = strings.ToUpper(carrier)
	depAirport = strings.ToUpper(depAirport)
	arrAirport = strings.ToUpper(arrAirport)
	day := date.Format("2006-01-02")

	key := fmt.Sprintf("flights:%s:%s:%s:%s", carrier, depAirport, arrAirport, day)
	if opts, ok := r.cacheGet(ctx, key); ok {
		return opts, nil
	}

	rows, err := r.db.Query(ctx, `
SELECT flight_number, sch_departure_utc, sch_arrival_utc
FROM flight_legs
WHERE departure_date=$1
  AND operating_carrier=$2
  AND departure_airport=$3
  AND arrival_airport=$4
  AND op_status='ADD'
ORDER BY sch_departure_utc`, day, carrier, depAirport, arrAirport)
	if err != nil {
		return nil, fmt.Errorf("flight lookup: %w", err)
	}
	defer rows.Close()

	var out []Option
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.FlightNumber, &o.DepartureTime, &o.ArrivalTime); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.cacheSet(ctx, key, out)
	return out, nil
}

func (r *Repo) cacheGet(ctx context.Context, key string) ([]Option, bool) {
	if r.cache == nil {
		return nil, false
	}
	raw, err := r.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var out []Option
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (r *Repo) cacheSet(ctx context.Context, key string, opts []Option) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(opts)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		r.log.Warn("flight lookup cache write failed", zap.String("key", key), zap.Error(err))
	}
}
