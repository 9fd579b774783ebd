// Package race fans the booking flow out over a pool of workers and
// stops the instant any of them wins.
package race

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/court-racer/internal/booking"
	"github.com/example/court-racer/internal/domain/tennis"
	"github.com/example/court-racer/internal/domain/user"
)

// ErrNoWorkers means every worker died on a fatal error before any
// booking succeeded. Without it the coordinator would wait forever on
// a signal nobody can set.
var ErrNoWorkers = errors.New("all workers stopped without a booking")

// Booker is the one capability the coordinator needs from a session.
type Booker interface {
	Book(ctx context.Context, u user.User, av tennis.Availability) (booking.Outcome, error)
}

// Factory builds a fresh booker for one worker: typically a new page
// on the shared browser plus a Session on it. The close func releases
// the page.
type Factory func(ctx context.Context) (Booker, func(), error)

// Coordinator runs Workers independent workers, each owning one
// session and iterating Users x Availabilities in the same stable
// order. Booking is a race: no ordering between workers is needed, the
// first success cancels the rest.
type Coordinator struct {
	NewBooker      Factory
	Users          []user.User
	Availabilities []tennis.Availability
	Workers        int
	Log            *slog.Logger
}

// Run blocks until one worker books (returns the winning outcome), the
// context is canceled, or every worker has died (ErrNoWorkers). Still
// running workers observe the win within one step timeout and are
// awaited before Run returns.
func (c *Coordinator) Run(ctx context.Context) (booking.Outcome, error) {
	if len(c.Users) == 0 {
		return booking.Outcome{}, fmt.Errorf("no eligible users")
	}
	if len(c.Availabilities) == 0 {
		return booking.Outcome{}, fmt.Errorf("no eligible availabilities")
	}
	workers := c.Workers
	if workers <= 0 {
		workers = 4
	}
	log := c.Log
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so a winner never blocks on a coordinator that already
	// moved on.
	win := make(chan booking.Outcome, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.work(ctx, log.With(slog.Int("worker", i)), win, cancel)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case out := <-win:
		cancel()
		<-done
		return out, nil
	case <-done:
		// A winner may have set the signal and exited before we
		// observed the channel.
		select {
		case out := <-win:
			return out, nil
		default:
		}
		if err := ctx.Err(); err != nil {
			return booking.Outcome{}, err
		}
		return booking.Outcome{}, ErrNoWorkers
	}
}

// work loops over the candidate pairs until the shared signal fires.
// The search space is deliberately unbounded: slots appear and vanish
// as other people race us, so exhausting one pass means try again, not
// give up. A fatal outcome stops only this worker; the race continues
// on the survivors.
func (c *Coordinator) work(ctx context.Context, log *slog.Logger, win chan<- booking.Outcome, cancel context.CancelFunc) {
	b, closeBooker, err := c.NewBooker(ctx)
	if err != nil {
		log.Error("worker failed to start", slog.String("error", err.Error()))
		return
	}
	defer closeBooker()

	for {
		for _, u := range c.Users {
			for _, av := range c.Availabilities {
				if ctx.Err() != nil {
					return
				}
				out, err := b.Book(ctx, u, av)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Error("fatal booking error",
						slog.String("username", u.Username),
						slog.String("court_id", av.Court.ID),
						slog.String("error", err.Error()),
					)
					return
				}
				if out.Booked() {
					win <- out
					cancel()
					return
				}
				log.Debug("attempt did not book",
					slog.String("status", string(out.Status)),
					slog.String("reason", out.Reason),
				)
			}
		}
	}
}
