// Package main provides the moodroute CLI, which plans itineraries against the
// configured upstream providers without running the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/moodroute/moodroute/internal/app"
	"github.com/moodroute/moodroute/internal/config"
	"github.com/moodroute/moodroute/internal/itinerary"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalOptions struct {
	configPath string
	logLevel   string
}

func rootCmd(out io.Writer) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "moodroute",
		Short: "Plan mood-aware travel itineraries",
		Long: `moodroute resolves a list of places, routes between them, looks up the
weather at each stop and, given a mood, suggests extra spots to visit.

Credentials are read from the environment (.env and .env.local are loaded
from the working directory).`,
		SilenceUsage: true,
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (defaults to $MOODROUTE_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(planCmd(opts), analyzeCmd(opts), &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "moodroute version %s (build: %s)\n", Version, BuildTime)
		},
	})

	return cmd
}

type planOptions struct {
	locations     []string
	mood          string
	mode          string
	lat, lng      float64
	avoidTolls    bool
	avoidHighways bool
}

func planCmd(global *globalOptions) *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan an itinerary and print it as JSON",
		Example: `  moodroute plan --location "Tokyo Station" --location Shibuya --mood relaxing
  moodroute plan -l Asakusa -l Ueno --mode walking --lat 35.6895 --lng 139.6917`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := opts.request(cmd.Flags().Changed("lat"), cmd.Flags().Changed("lng"))
			if err != nil {
				return err
			}

			services, err := build(global)
			if err != nil {
				return err
			}

			resp, err := services.Planner.Plan(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.locations, "location", "l", nil, "Place to visit, in order (repeatable)")
	cmd.Flags().StringVarP(&opts.mood, "mood", "m", "", "Mood or preference for recommendations")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Transportation mode (walking, transit, driving)")
	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "Current latitude, prepended as the first stop")
	cmd.Flags().Float64Var(&opts.lng, "lng", 0, "Current longitude, prepended as the first stop")
	cmd.Flags().BoolVar(&opts.avoidTolls, "avoid-tolls", false, "Avoid toll roads")
	cmd.Flags().BoolVar(&opts.avoidHighways, "avoid-highways", false, "Avoid highways")

	return cmd
}

// request builds the planning request. latSet and lngSet report whether the
// coordinate flags were given; they must be given together.
func (o *planOptions) request(latSet, lngSet bool) (itinerary.RouteRequest, error) {
	req := itinerary.RouteRequest{Mood: strings.TrimSpace(o.mood)}

	for _, loc := range o.locations {
		if name := strings.TrimSpace(loc); name != "" {
			req.Locations = append(req.Locations, name)
		}
	}
	if len(req.Locations) == 0 {
		return req, fmt.Errorf("at least one --location is required")
	}

	if latSet != lngSet {
		return req, fmt.Errorf("--lat and --lng must be given together")
	}
	if latSet {
		req.CurrentLocation = &itinerary.Coordinate{Lat: o.lat, Lng: o.lng}
	}

	if o.mode != "" || o.avoidTolls || o.avoidHighways {
		req.Preferences = &itinerary.Preferences{
			TransportationMode: o.mode,
			AvoidTolls:         o.avoidTolls,
			AvoidHighways:      o.avoidHighways,
		}
	}
	return req, nil
}

func analyzeCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "analyze TEXT...",
		Short:   "Extract places and a mood from a free-text request",
		Example: `  moodroute analyze "I'd like a quiet temple and some ramen near Shinjuku"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("text is required")
			}

			services, err := build(global)
			if err != nil {
				return err
			}
			if services.Analyzer == nil {
				return fmt.Errorf("analyze requires GEMINI_API_KEY")
			}

			return writeJSON(cmd.OutOrStdout(), services.Analyzer.Analyze(cmd.Context(), text))
		},
	}
}

// build loads configuration and wires the services. Logs go to stderr so that
// stdout carries only JSON.
func build(global *globalOptions) (*app.App, error) {
	cfg, err := config.Load(global.configPath)
	if err != nil {
		return nil, err
	}
	if global.logLevel != "" {
		cfg.Server.LogLevel = global.logLevel
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(cfg.Level()).
		With().
		Timestamp().
		Logger()

	return app.New(app.Options{Config: cfg, Logger: log})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
