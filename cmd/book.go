package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/court-racer/internal/booking"
	"github.com/example/court-racer/internal/config"
	"github.com/example/court-racer/internal/domain/tennis"
	"github.com/example/court-racer/internal/infrastructure/chrome"
	"github.com/example/court-racer/internal/logging"
	"github.com/example/court-racer/internal/race"
	"github.com/example/court-racer/internal/snapshot"
)

func newBookCmd() *cobra.Command {
	var (
		dataPath     string
		facility     string
		location     string
		surfaceType  string
		courtID      string
		username     string
		date         string
		timeLabel    string
		workers      int
		headless     bool
		loggerPretty bool
		startAt      string
		dumpDir      string
	)

	c := &cobra.Command{
		Use:   "book",
		Short: "Race to book one court slot; stops the instant any worker wins",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(loggerPretty)
			log := slog.Default()

			dt, err := tennis.NewDateTime(date, timeLabel)
			if err != nil {
				return err
			}
			prefs, err := buildPreferences(facility, location, surfaceType, courtID, username)
			if err != nil {
				return err
			}

			data, err := config.Load(dataPath)
			if err != nil {
				return err
			}

			users := prefs.Users(data.Users)
			avs := tennis.Availabilities(data.TennisFacilities, prefs, dt)
			log.Info("race configured",
				slog.Int("users", len(users)),
				slog.Int("availabilities", len(avs)),
				slog.Int("workers", workers),
				slog.String("target", dt.Canonical()),
			)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if startAt != "" {
				if err := waitUntil(ctx, startAt, log); err != nil {
					return err
				}
			}

			b, err := chrome.Launch(ctx, headless)
			if err != nil {
				return err
			}
			defer b.Close()

			sessCfg := booking.Config{
				Website:      data.Website,
				Facilities:   data.TennisFacilities,
				Players:      data.Players,
				CreditPhrase: data.CreditPhrase,
				Snapshots:    snapshot.New(dumpDir, log),
				Log:          log,
			}
			coord := &race.Coordinator{
				NewBooker: func(ctx context.Context) (race.Booker, func(), error) {
					pg, err := b.NewPage(ctx)
					if err != nil {
						return nil, nil, err
					}
					s, err := booking.NewSession(pg, sessCfg)
					if err != nil {
						_ = pg.Close()
						return nil, nil, err
					}
					return s, func() { _ = pg.Close() }, nil
				},
				Users:          users,
				Availabilities: avs,
				Workers:        workers,
				Log:            log,
			}

			out, err := coord.Run(ctx)
			if err != nil {
				return err
			}
			log.Info("booked",
				slog.String("court_id", out.CourtID),
				slog.String("date", out.Date),
				slog.String("time", out.Time),
				slog.String("username", out.Username),
			)
			return nil
		},
	}

	c.Flags().StringVar(&dataPath, "data", "data.json", "facility/user/website data file")
	c.Flags().StringVar(&facility, "tennis-facility", "", "only consider this facility")
	c.Flags().StringVar(&location, "location", "", "only courts at this location (indoor|outdoor)")
	c.Flags().StringVar(&surfaceType, "surface-type", "", "only courts with this surface (synthetic|porous-concrete)")
	c.Flags().StringVar(&courtID, "court-id", "", "only this court id")
	c.Flags().StringVar(&username, "username", "", "only this account")
	c.Flags().StringVar(&date, "date", "", "target date, format 21/06/2022")
	c.Flags().StringVar(&timeLabel, "time", "", "target hour label, format 08h")
	c.Flags().IntVar(&workers, "workers", 4, "concurrent browser workers")
	c.Flags().BoolVar(&headless, "headless", false, "run the browser headless")
	c.Flags().BoolVar(&loggerPretty, "logger-pretty", false, "human-readable logs instead of JSON")
	c.Flags().StringVar(&startAt, "start-at", "", "wait until this local wall-clock time (HH:MM) before racing")
	c.Flags().StringVar(&dumpDir, "dump-dir", "data", "directory for page dumps on fatal errors")

	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("time")
	return c
}

func buildPreferences(facility, location, surfaceType, courtID, username string) (tennis.Preferences, error) {
	p := tennis.Preferences{
		Facility: facility,
		CourtID:  courtID,
		Username: username,
	}
	if location != "" {
		p.Location = tennis.Location(location)
		if !p.Location.Valid() {
			return tennis.Preferences{}, fmt.Errorf("invalid --location %q (want indoor or outdoor)", location)
		}
	}
	if surfaceType != "" {
		p.SurfaceType = tennis.SurfaceType(surfaceType)
		if !p.SurfaceType.Valid() {
			return tennis.Preferences{}, fmt.Errorf("invalid --surface-type %q (want synthetic or porous-concrete)", surfaceType)
		}
	}
	return p, nil
}

// waitUntil sleeps until the next local occurrence of hhmm, so the
// race launches the moment the site releases new slots.
func waitUntil(ctx context.Context, hhmm string, log *slog.Logger) error {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return fmt.Errorf("invalid --start-at %q (want HH:MM): %w", hhmm, err)
	}
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	log.Info("waiting for release window", slog.Time("start_at", next))

	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
