package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/flightmenu/internal/auth"
	"github.com/example/flightmenu/internal/config"
	"github.com/example/flightmenu/internal/db"
	"github.com/example/flightmenu/internal/deltaapi"
	"github.com/example/flightmenu/internal/flights"
	"github.com/example/flightmenu/internal/logging"
	"github.com/example/flightmenu/internal/migrate"
	"github.com/example/flightmenu/internal/poller"
	"github.com/example/flightmenu/internal/watch"
	"github.com/example/flightmenu/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the web UI, JSON API and availability poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.Init(cfg.Env)
			defer logging.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			hashKey, blockKey, err := cfg.CookieKeys()
			if err != nil {
				return err
			}
			authStore := auth.NewStore(d, hashKey, blockKey)

			var cache *redis.Client
			if cfg.RedisAddr != "" {
				cache = redis.NewClient(&redis.Options{
					Addr:     cfg.RedisAddr,
					Password: cfg.RedisPassword,
					DB:       cfg.RedisDB,
				})
				defer cache.Close()
			}

			api := newAPIClient(cfg, log)
			defer api.Close()

			flightRepo := flights.NewRepo(d, cache, log)
			watchRepo := watch.NewRepo(d)

			p := &poller.Poller{
				Watches:  watchRepo,
				API:      api,
				Interval: cfg.WatchPollInterval(),
				Log:      log,
			}
			go func() { _ = p.Run(ctx) }()

			ws := &web.Server{
				Auth:    authStore,
				Flights: flightRepo,
				Watches: watchRepo,
				API:     api,
				DB:      d,
				Log:     log,
			}
			return web.Start(ctx, cfg.ListenAddr, ws.Routes(), log)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}

func newAPIClient(cfg config.Config, log *zap.Logger) *deltaapi.Client {
	return deltaapi.New(deltaapi.Config{
		BaseURL:      cfg.MenuAPIBaseURL,
		TokenURL:     cfg.OAuthTokenURL,
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		Scope:        cfg.OAuthScope,
	}, log)
}
