package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"roomsync/internal/config"
	"roomsync/internal/fetch"
	"roomsync/internal/ics"
	appLog "roomsync/internal/log"
	"roomsync/internal/model"
	"roomsync/internal/rooms"
	"roomsync/internal/schedule"
	"roomsync/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	outPath    string
	logLevel   string
}

func main() {
	appLog.Info("roomsync starting", "version", "0.1.0")

	flags := parseFlags()
	appLog.SetLevel(appLog.ParseLevel(flags.logLevel))

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone in config; falling back to local", err, "timezone", conf.Timezone)
		loc = time.Local
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", loc.String(),
		"work_window", conf.WorkStartHour,
		"work_end", conf.WorkEndHour,
		"refresh", conf.RefreshCron,
		"ics_count", len(conf.ICS),
		"favorites", len(conf.Favorites),
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	session := schedule.NewSession(loc, conf.WorkStartHour, conf.WorkEndHour, conf.TopN, conf.PerBuildingLimit)
	session.SetFavorites(conf.Favorites)

	srv := web.NewServer(conf, flags.configPath, session)
	fetcher := fetch.NewFetcher(conf.CacheDir)

	refresh := func(ctx context.Context) error {
		return refreshSession(ctx, conf, fetcher, loc, srv)
	}
	srv.SetRefresh(refresh)

	// Initial load. Failures are logged, not fatal: the API reports
	// readiness and serves whatever did load.
	if err := refresh(ctx); err != nil {
		appLog.Error("initial refresh failed", err)
		if flags.once {
			os.Exit(1)
		}
	}

	if flags.once {
		runOnce(srv, flags.outPath)
		return
	}

	// Periodic refresh on the configured cron cadence.
	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		if err := refresh(ctx); err != nil {
			appLog.Error("scheduled refresh failed", err)
			return
		}
		srv.InvalidateSchedule()
	}); err != nil {
		appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	if err := web.StartServer(ctx, srv); err != nil {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}

	appLog.Info("roomsync exiting")
}

// refreshSession re-fetches the availability feed and all subscribed ICS
// sources, then publishes the new snapshot to the session.
func refreshSession(ctx context.Context, conf *config.Config, fetcher *fetch.Fetcher, loc *time.Location, srv *web.Server) error {
	buildings, err := rooms.FetchBuildings(ctx, fetcher, conf.AvailabilityURL, conf.BuildingsURL, loc)
	if err != nil {
		return err
	}

	events := calendarFetch(ctx, conf, fetcher)

	srv.WithSession(func(session *schedule.Session) {
		session.SetBuildings(buildings)
		if events != nil {
			session.SetCalendar(events)
		}
	})
	srv.InvalidateSchedule()
	return nil
}

// calendarFetch loads all configured ICS subscriptions into one event list.
// Returns nil when no sources are configured, leaving any uploaded calendar
// in place.
func calendarFetch(ctx context.Context, conf *config.Config, fetcher *fetch.Fetcher) []model.Event {
	sources := make([]fetch.Source, 0, len(conf.ICS))
	for _, src := range conf.ICS {
		if src.URL == "" {
			continue
		}
		id := src.ID
		if id == "" {
			if src.Name != "" {
				id = src.Name
			} else {
				id = src.URL
			}
		}
		sources = append(sources, fetch.Source{ID: id, URL: src.URL})
	}
	if len(sources) == 0 {
		return nil
	}

	results, errs := fetcher.FetchAll(ctx, sources)
	if len(errs) > 0 {
		appLog.Error("one or more calendar fetches failed", errs[0], "error_count", len(errs))
	}

	events := make([]model.Event, 0)
	for _, res := range results {
		parsed, err := ics.ParseCalendar(res.Source.ID, res.Body)
		if err != nil {
			continue
		}
		events = append(events, parsed...)
	}
	return events
}

// runOnce writes the current week's schedule export to outPath and exits.
func runOnce(srv *web.Server, outPath string) {
	var doc string
	srv.WithSession(func(session *schedule.Session) {
		doc = session.ScheduleICS(time.Now())
	})
	if doc == "" {
		appLog.Error("schedule not ready", errors.New("calendar or availability data missing"))
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, []byte(doc), 0o644); err != nil {
		appLog.Error("failed to write schedule file", err, "path", outPath)
		os.Exit(1)
	}
	appLog.Info("schedule exported", "path", outPath)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/roomsync/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Fetch, build the week schedule, write the ICS export and exit")
	flag.StringVar(&cfg.outPath, "out", "schedule.ics", "Output path for -once mode")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "Log level (debug, info, error)")

	flag.Parse()

	return cfg
}
