package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/flightmenu/internal/config"
	"github.com/example/flightmenu/internal/logging"
	"github.com/example/flightmenu/internal/menu"
)

func newAvailabilityCmd() *cobra.Command {
	var (
		dateStr string
		flight  int
		airport string
		carrier string
	)

	c := &cobra.Command{
		Use:   "availability",
		Short: "Check digital menu and pre-select availability for a flight leg",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.Init(cfg.Env)
			defer logging.Sync()

			if _, err := time.Parse("2006-01-02", dateStr); err != nil {
				return fmt.Errorf("invalid --date (want YYYY-MM-DD): %w", err)
			}

			api := newAPIClient(cfg, log)
			defer api.Close()

			res, err := api.CheckAvailability(context.Background(), []menu.FlightLeg{{
				OperatingCarrier: carrier,
				FlightNumber:     flight,
				DepartureAirport: airport,
				DepartureDate:    dateStr,
			}})
			if err != nil {
				return err
			}
			for _, leg := range res.Legs {
				fmt.Printf("%s%d %s %s: %s\n", leg.OperatingCarrier, leg.FlightNumber, leg.DepartureAirport, leg.DepartureDate, leg.Status)
				for _, cab := range leg.Cabins {
					fmt.Printf("  cabin %-2s digitalMenu=%t preSelect=%t", cab.CabinCode, cab.DigitalMenuAvailable, cab.PreSelectAvailable)
					if cab.PreselectWindowStart != nil {
						end := ""
						if cab.PreselectWindowEnd != nil {
							end = *cab.PreselectWindowEnd
						}
						fmt.Printf(" window=%s..%s", *cab.PreselectWindowStart, end)
					}
					fmt.Println()
				}
			}
			return nil
		},
	}

	c.Flags().StringVar(&dateStr, "date", "", "departure date (YYYY-MM-DD)")
	c.Flags().IntVar(&flight, "flight", 0, "flight number")
	c.Flags().StringVar(&airport, "airport", "", "departure airport code")
	c.Flags().StringVar(&carrier, "carrier", menu.DefaultCarrier, "operating carrier code")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("flight")
	_ = c.MarkFlagRequired("airport")
	return c
}
