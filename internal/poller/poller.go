// Package poller drives availability checks for active menu watches.
package poller

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/flightmenu/internal/deltaapi"
	"github.com/example/flightmenu/internal/menu"
	"github.com/example/flightmenu/internal/watch"
)

const batchSize = 25

// Poller wakes on an interval, batches due watches into one availability call
// and updates each watch from the reply. A failed call is recorded on the
// affected watches and retried on the next tick; there are no inner retries.
type Poller struct {
	Watches  *watch.Repo
	API      *deltaapi.Client
	Interval time.Duration
	Log      *zap.Logger
}

func (p *Poller) Run(ctx context.Context) error {
	t := time.NewTicker(p.Interval)
	defer t.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if err := p.Watches.ExpirePast(ctx); err != nil {
		p.Log.Warn("watch expiry sweep failed", zap.Error(err))
	}

	cutoff := time.Now().Add(-p.Interval)
	due, err := p.Watches.Due(ctx, cutoff, batchSize)
	if err != nil {
		p.Log.Error("due watches query failed", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}

	legs := make([]menu.FlightLeg, 0, len(due))
	for _, w := range due {
		legs = append(legs, w.Leg())
	}

	res, err := p.API.CheckAvailability(ctx, legs)
	if err != nil {
		p.Log.Warn("availability check failed", zap.Int("watches", len(due)), zap.Error(err))
		msg := err.Error()
		for _, w := range due {
			if uerr := p.Watches.MarkChecked(ctx, w.ID, &msg); uerr != nil {
				p.Log.Error("watch update failed", zap.Int64("id", w.ID), zap.Error(uerr))
			}
		}
		return
	}

	byLeg := make(map[string]menu.LegAvailability, len(res.Legs))
	for _, leg := range res.Legs {
		byLeg[legKey(leg.OperatingCarrier, leg.FlightNumber, leg.DepartureAirport, leg.DepartureDate)] = leg
	}

	for _, w := range due {
		leg, ok := byLeg[legKey(w.Carrier, w.FlightNumber, w.DepartureAirport, w.DepartureDate.Format("2006-01-02"))]
		if !ok {
			if err := p.Watches.MarkChecked(ctx, w.ID, nil); err != nil {
				p.Log.Error("watch update failed", zap.Int64("id", w.ID), zap.Error(err))
			}
			continue
		}
		p.apply(ctx, w, leg)
	}
}

func (p *Poller) apply(ctx context.Context, w watch.Watch, leg menu.LegAvailability) {
	for _, c := range leg.Cabins {
		if w.CabinCode != "" && !strings.EqualFold(w.CabinCode, c.CabinCode) {
			continue
		}
		if c.DigitalMenuAvailable || c.PreSelectAvailable {
			if err := p.Watches.MarkFulfilled(ctx, w.ID, c.DigitalMenuAvailable, c.PreselectWindowStart, c.PreselectWindowEnd); err != nil {
				p.Log.Error("watch update failed", zap.Int64("id", w.ID), zap.Error(err))
				return
			}
			p.Log.Info("watch fulfilled",
				zap.Int64("id", w.ID),
				zap.String("flight", leg.OperatingCarrier), zap.Int("num", w.FlightNumber),
				zap.String("cabin", c.CabinCode),
				zap.Bool("digital", c.DigitalMenuAvailable))
			return
		}
	}
	if err := p.Watches.MarkChecked(ctx, w.ID, nil); err != nil {
		p.Log.Error("watch update failed", zap.Int64("id", w.ID), zap.Error(err))
	}
}

func legKey(carrier string, num int, airport, date string) string {
	return strings.ToUpper(carrier) + "|" + strconv.Itoa(num) + "|" + strings.ToUpper(airport) + "|" + date
}
