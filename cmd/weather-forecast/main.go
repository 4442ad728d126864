package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weather-forecast/config"
	"weather-forecast/internal/api"
	"weather-forecast/internal/collector"
	"weather-forecast/internal/console"
	"weather-forecast/internal/forecast"
	"weather-forecast/internal/mqtt"
	"weather-forecast/internal/storage"
	"weather-forecast/internal/weather"

	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weather-forecast",
		Short: "Weather lookup tool",
		Long:  "Look up current weather and daily forecasts for any city and keep a list of favorites",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !verbose {
				log.SetOutput(io.Discard)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			favorites, closeFavorites := openFavorites(cfg)
			defer closeFavorites()

			menu := console.NewMenu(newClient(cfg), favorites, cmd.InOrStdin(), cmd.OutOrStdout())
			return menu.Run(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(currentCmd())
	rootCmd.AddCommand(forecastCmd())
	rootCmd.AddCommand(favoritesCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient(cfg *config.Config) *weather.OpenWeatherClient {
	return weather.NewOpenWeatherClient(weather.Options{
		APIKey:  cfg.Weather.APIKey,
		BaseURL: cfg.Weather.BaseURL,
		Units:   cfg.Weather.Units,
		Lang:    cfg.Weather.Lang,
		Timeout: cfg.Weather.Timeout,
	})
}

// openFavorites falls back to an in-memory list when the database cannot
// be opened, so missing storage reads as no favorites.
func openFavorites(cfg *config.Config) (storage.Favorites, func()) {
	db, err := storage.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Printf("Warning: favorites unavailable, using empty list: %v", err)
		return storage.NewMemoryFavorites(), func() {}
	}
	log.Printf("Database opened at %s", cfg.Database.Path)
	return db, func() { db.Close() }
}

func printJSON(w io.Writer, v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(output))
	return nil
}

func currentCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "current <city>",
		Short: "Show current weather for a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			current, err := newClient(cfg).FetchCurrent(cmd.Context(), args[0])
			if err != nil {
				return errors.New(console.Describe(err))
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), current)
			}
			console.NewRenderer(cmd.OutOrStdout()).RenderCurrent(current)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func forecastCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "forecast <city>",
		Short: "Show the daily forecast for a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			samples, err := newClient(cfg).FetchForecast(cmd.Context(), args[0])
			if err != nil {
				return errors.New(console.Describe(err))
			}
			days := forecast.Days(forecast.Aggregate(samples))

			if asJSON {
				return printJSON(cmd.OutOrStdout(), days)
			}
			console.NewRenderer(cmd.OutOrStdout()).RenderForecast(args[0], days)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func favoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage favorite cities",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorite cities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			favorites, closeFavorites := openFavorites(cfg)
			defer closeFavorites()

			names, err := favorites.ListFavorites()
			if err != nil {
				log.Printf("Warning: could not read favorites: %v", err)
			}
			r := console.NewRenderer(cmd.OutOrStdout())
			if len(names) == 0 {
				r.Notice("No favorite cities saved.")
				return nil
			}
			for i, name := range names {
				r.Plain("%d. %s", i+1, name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <city>",
		Short: "Add a city to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			favorites, closeFavorites := openFavorites(cfg)
			defer closeFavorites()

			added, err := favorites.AddFavorite(args[0])
			if err != nil {
				return fmt.Errorf("failed to add favorite: %w", err)
			}
			r := console.NewRenderer(cmd.OutOrStdout())
			if added {
				r.Success("City added to favorites!")
			} else {
				r.Notice("The city is already in favorites.")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <city>",
		Short: "Remove a city from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			favorites, closeFavorites := openFavorites(cfg)
			defer closeFavorites()

			removed, err := favorites.RemoveFavorite(args[0])
			if err != nil {
				return fmt.Errorf("failed to remove favorite: %w", err)
			}
			r := console.NewRenderer(cmd.OutOrStdout())
			if removed {
				r.Success("City removed from favorites.")
			} else {
				r.Notice("The city is not in favorites.")
			}
			return nil
		},
	})

	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and collector",
		Long:  "Serve the HTTP API and refresh favorite cities periodically, publishing to MQTT",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetOutput(os.Stderr)

			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			client := newClient(cfg)
			favorites, closeFavorites := openFavorites(cfg)
			defer closeFavorites()

			// Create MQTT publisher
			publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:      cfg.MQTT.Broker,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				Enabled:     cfg.MQTT.Enabled,
			})
			if err != nil {
				log.Printf("Warning: MQTT connection failed: %v", err)
				publisher, _ = mqtt.NewPublisher(mqtt.PublisherConfig{Enabled: false})
			} else if cfg.MQTT.Enabled {
				log.Printf("MQTT connected to %s", cfg.MQTT.Broker)
			}
			defer publisher.Close()

			coll := collector.NewCollector(collector.Config{
				Client:    client,
				Favorites: favorites,
				Publisher: publisher,
				Interval:  cfg.Collector.Interval,
				Enabled:   cfg.Collector.Enabled,
			})

			// Setup context for graceful shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go func() {
				if err := coll.Start(ctx); err != nil {
					log.Printf("Collector error: %v", err)
				}
			}()

			var server *api.Server
			if cfg.API.Enabled {
				server = api.NewServer(api.ServerConfig{
					Port:      cfg.API.Port,
					Client:    client,
					Favorites: favorites,
					Collector: coll,
					Broker:    publisher,
				})

				go func() {
					if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Printf("API server error: %v", err)
					}
				}()
			}

			log.Println("Weather forecast service started. Press Ctrl+C to stop.")

			<-ctx.Done()
			log.Println("Shutting down...")

			if server != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Stop(shutdownCtx); err != nil {
					log.Printf("Error during shutdown: %v", err)
				}
			}

			return nil
		},
	}
}
