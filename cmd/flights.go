package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/flightmenu/internal/config"
	"github.com/example/flightmenu/internal/db"
	"github.com/example/flightmenu/internal/flights"
	"github.com/example/flightmenu/internal/logging"
	"github.com/example/flightmenu/internal/menu"
)

func newFlightsCmd() *cobra.Command {
	var (
		from    string
		to      string
		dateStr string
		carrier string
	)

	c := &cobra.Command{
		Use:   "flights",
		Short: "List flight numbers for a route and date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.Init(cfg.Env)
			defer logging.Sync()

			date, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("invalid --date (want YYYY-MM-DD): %w", err)
			}

			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			repo := flights.NewRepo(d, nil, log)
			opts, err := repo.Lookup(ctx, carrier, from, to, date)
			if err != nil {
				return err
			}
			if len(opts) == 0 {
				fmt.Println("no flights found")
				return nil
			}
			for _, o := range opts {
				dep, arr := "-", "-"
				if o.DepartureTime != nil {
					dep = o.DepartureTime.UTC().Format("15:04")
				}
				if o.ArrivalTime != nil {
					arr = o.ArrivalTime.UTC().Format("15:04")
				}
				fmt.Printf("%s%-5d %s -> %s  dep %s  arr %s (UTC)\n", carrier, o.FlightNumber, from, to, dep, arr)
			}
			return nil
		},
	}

	c.Flags().StringVar(&from, "from", "", "departure airport code")
	c.Flags().StringVar(&to, "to", "", "arrival airport code")
	c.Flags().StringVar(&dateStr, "date", "", "departure date (YYYY-MM-DD)")
	c.Flags().StringVar(&carrier, "carrier", menu.DefaultCarrier, "operating carrier code")
	_ = c.MarkFlagRequired("from")
	_ = c.MarkFlagRequired("to")
	_ = c.MarkFlagRequired("date")
	return c
}
