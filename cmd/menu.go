package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/flightmenu/internal/config"
	"github.com/example/flightmenu/internal/logging"
	"github.com/example/flightmenu/internal/menu"
	"github.com/example/flightmenu/internal/ssr"
)

func newMenuCmd() *cobra.Command {
	var (
		dateStr string
		flight  int
		airport string
		carrier string
		cabins  string
	)

	c := &cobra.Command{
		Use:   "menu",
		Short: "Fetch and print the menu for a flight",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.Init(cfg.Env)
			defer logging.Sync()

			dep, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("invalid --date (want YYYY-MM-DD): %w", err)
			}

			q := menu.Query{
				DepartureDate:    dep,
				FlightNumber:     flight,
				DepartureAirport: airport,
				OperatingCarrier: carrier,
				CabinCodes:       menu.SplitCabinCodes(cabins),
			}
			if vr := menu.Validate(q, time.Now()); !vr.Valid {
				for i, issue := range vr.Issues {
					fmt.Fprintf(os.Stderr, "issue: %s\n  hint: %s\n", issue, vr.Recommendations[i])
				}
				return fmt.Errorf("invalid query")
			}

			api := newAPIClient(cfg, log)
			defer api.Close()

			ctx := context.Background()
			fm, err := api.MenuByFlight(ctx, q)
			if err != nil {
				return err
			}
			if !fm.Success {
				return fmt.Errorf("no menu: %s", fm.ErrorMessage)
			}
			printMenu(fm)
			return nil
		},
	}

	c.Flags().StringVar(&dateStr, "date", "", "departure date (YYYY-MM-DD)")
	c.Flags().IntVar(&flight, "flight", 0, "flight number")
	c.Flags().StringVar(&airport, "airport", "", "departure airport code (e.g. ATL)")
	c.Flags().StringVar(&carrier, "carrier", menu.DefaultCarrier, "operating carrier code")
	c.Flags().StringVar(&cabins, "cabins", "", "comma-separated cabin codes to include (e.g. C,Y)")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("flight")
	_ = c.MarkFlagRequired("airport")
	return c
}

func printMenu(fm menu.FlightMenu) {
	fmt.Printf("%s%d %s, departing %s\n", fm.Carrier, fm.FlightNumber, fm.DepartureAirport, fm.DepartureDate.Format("2006-01-02"))
	if len(fm.Services) == 0 {
		fmt.Println("  (no menu data published yet)")
		return
	}
	for _, svc := range fm.Services {
		name := svc.CabinDesc
		if name == "" {
			name = svc.CabinCode
		}
		fmt.Printf("\n== %s ==\n", name)
		if svc.WelcomeMessage != "" {
			fmt.Printf("%s\n", svc.WelcomeMessage)
		}
		if svc.PreselectWindowStart != nil {
			end := ""
			if svc.PreselectWindowEnd != nil {
				end = *svc.PreselectWindowEnd
			}
			fmt.Printf("pre-select window: %s .. %s\n", *svc.PreselectWindowStart, end)
		}
		for _, m := range svc.Menus {
			title := m.ServiceDesc
			if title == "" {
				title = m.TypeDesc
			}
			fmt.Printf("\n  %s\n", title)
			for _, it := range m.Items {
				fmt.Printf("   - %s", it.Description)
				if it.SSRCode != "" {
					fmt.Printf(" [%s: %s]", it.SSRCode, ssr.Description(it.SSRCode))
				}
				fmt.Println()
				if it.AdditionalDesc != "" {
					fmt.Printf("     %s\n", it.AdditionalDesc)
				}
				for _, d := range it.Dietary {
					fmt.Printf("     * %s\n", d.Description)
				}
			}
		}
	}
}
