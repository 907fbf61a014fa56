package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/flightmenu/internal/config"
	"github.com/example/flightmenu/internal/db"
	"github.com/example/flightmenu/internal/menu"
	"github.com/example/flightmenu/internal/watch"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage menu availability watches",
	}
	cmd.AddCommand(newWatchCreateCmd())
	cmd.AddCommand(newWatchListCmd())
	return cmd
}

func newWatchCreateCmd() *cobra.Command {
	var (
		userID  int64
		dateStr string
		flight  int
		airport string
		carrier string
		cabin   string
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Watch a flight leg until its digital menu or pre-select window opens",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dep, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("invalid --date (want YYYY-MM-DD): %w", err)
			}

			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			w := watch.Watch{
				UserID:           userID,
				Carrier:          strings.ToUpper(carrier),
				FlightNumber:     flight,
				DepartureAirport: strings.ToUpper(airport),
				DepartureDate:    dep,
				CabinCode:        strings.ToUpper(cabin),
			}
			if err := w.Validate(); err != nil {
				return err
			}
			id, err := watch.NewRepo(d).Create(ctx, w)
			if err != nil {
				return err
			}
			fmt.Printf("created watch %d\n", id)
			return nil
		},
	}

	c.Flags().Int64Var(&userID, "user", 0, "owning user id")
	c.Flags().StringVar(&dateStr, "date", "", "departure date (YYYY-MM-DD)")
	c.Flags().IntVar(&flight, "flight", 0, "flight number")
	c.Flags().StringVar(&airport, "airport", "", "departure airport code")
	c.Flags().StringVar(&carrier, "carrier", menu.DefaultCarrier, "operating carrier code")
	c.Flags().StringVar(&cabin, "cabin", "", "cabin code to watch (empty watches all cabins)")
	_ = c.MarkFlagRequired("user")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("flight")
	_ = c.MarkFlagRequired("airport")
	return c
}

func newWatchListCmd() *cobra.Command {
	var userID int64

	c := &cobra.Command{
		Use:   "list",
		Short: "List a user's watches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			ws, err := watch.NewRepo(d).ListByUser(ctx, userID)
			if err != nil {
				return err
			}
			if len(ws) == 0 {
				fmt.Println("no watches")
				return nil
			}
			for _, w := range ws {
				cab := w.CabinCode
				if cab == "" {
					cab = "any"
				}
				fmt.Printf("#%d %s%d %s %s cabin=%s status=%s digital=%t\n",
					w.ID, w.Carrier, w.FlightNumber, w.DepartureAirport,
					w.DepartureDate.Format("2006-01-02"), cab, w.Status, w.DigitalMenuAvailable)
			}
			return nil
		},
	}

	c.Flags().Int64Var(&userID, "user", 0, "owning user id")
	_ = c.MarkFlagRequired("user")
	return c
}
