package race

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/court-racer/internal/booking"
	"github.com/example/court-racer/internal/domain/tennis"
	"github.com/example/court-racer/internal/domain/user"
)

var (
	users = []user.User{
		{Username: "anna", Password: "pw"},
		{Username: "issa", Password: "pw"},
	}
	avs = []tennis.Availability{
		{DateTime: tennis.DateTime{Date: "21/06/2022", Time: "08h"}, Court: tennis.Court{ID: "A"}},
		{DateTime: tennis.DateTime{Date: "21/06/2022", Time: "08h"}, Court: tennis.Court{ID: "B"}},
	}
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type bookFunc func(ctx context.Context, u user.User, av tennis.Availability) (booking.Outcome, error)

func (f bookFunc) Book(ctx context.Context, u user.User, av tennis.Availability) (booking.Outcome, error) {
	return f(ctx, u, av)
}

func factoryOf(f bookFunc) Factory {
	return func(ctx context.Context) (Booker, func(), error) {
		return f, func() {}, nil
	}
}

func TestRunFirstSuccessWins(t *testing.T) {
	// One slot exists at the site; whichever worker reaches the pair
	// (issa, court B) first gets it, everyone after finds it gone.
	var taken atomic.Bool
	var bookedEvents atomic.Int64

	site := bookFunc(func(ctx context.Context, u user.User, av tennis.Availability) (booking.Outcome, error) {
		if u.Username == "issa" && av.Court.ID == "B" && taken.CompareAndSwap(false, true) {
			bookedEvents.Add(1)
			return booking.Outcome{Status: booking.StatusBooked, CourtID: av.Court.ID, Username: u.Username}, nil
		}
		return booking.Outcome{Status: booking.StatusSlotUnavailable, Reason: "gone"}, nil
	})

	c := &Coordinator{
		NewBooker:      factoryOf(site),
		Users:          users,
		Availabilities: avs,
		Workers:        3,
		Log:            quiet(),
	}

	done := make(chan struct{})
	var out booking.Outcome
	var err error
	go func() {
		out, err = c.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not terminate")
	}

	require.NoError(t, err)
	assert.Equal(t, booking.StatusBooked, out.Status)
	assert.Equal(t, "B", out.CourtID)
	assert.Equal(t, "issa", out.Username)
	assert.Equal(t, int64(1), bookedEvents.Load())
}

func TestRunNoAttemptsAfterReturn(t *testing.T) {
	var attempts atomic.Int64

	site := bookFunc(func(ctx context.Context, u user.User, av tennis.Availability) (booking.Outcome, error) {
		attempts.Add(1)
		if u.Username == "anna" && av.Court.ID == "A" {
			return booking.Outcome{Status: booking.StatusBooked, CourtID: "A", Username: "anna"}, nil
		}
		return booking.Outcome{Status: booking.StatusSlotUnavailable}, nil
	})

	c := &Coordinator{
		NewBooker:      factoryOf(site),
		Users:          users,
		Availabilities: avs,
		Workers:        3,
		Log:            quiet(),
	}
	_, err := c.Run(context.Background())
	require.NoError(t, err)

	// Run joins every worker before returning, so the attempt counter
	// must be frozen now.
	n := attempts.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, attempts.Load())
}

func TestRunFatalStopsOnlyOneWorker(t *testing.T) {
	// Worker 0 dies immediately; the survivor books on its second pass.
	var next atomic.Int64
	var passes atomic.Int64

	factory := func(ctx context.Context) (Booker, func(), error) {
		id := next.Add(1)
		if id == 1 {
			return bookFunc(func(ctx context.Context, u user.User, av tennis.Availability) (booking.Outcome, error) {
				return booking.Outcome{}, errors.New("session detached")
			}), func() {}, nil
		}
		return bookFunc(func(ctx context.Context, u user.User, av tennis.Availability) (booking.Outcome, error) {
			if passes.Add(1) > int64(len(users)*len(avs)) {
				return booking.Outcome{Status: booking.StatusBooked, CourtID: av.Court.ID, Username: u.Username}, nil
			}
			return booking.Outcome{Status: booking.StatusSlotUnavailable}, nil
		}), func() {}, nil
	}

	c := &Coordinator{
		NewBooker:      factory,
		Users:          users,
		Availabilities: avs,
		Workers:        2,
		Log:            quiet(),
	}
	out, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, booking.StatusBooked, out.Status)
}

func TestRunAllWorkersDead(t *testing.T) {
	site := bookFunc(func(ctx context.Context, u user.User, av tennis.Availability) (booking.Outcome, error) {
		return booking.Outcome{}, errors.New("markup drift")
	})

	c := &Coordinator{
		NewBooker:      factoryOf(site),
		Users:          users,
		Availabilities: avs,
		Workers:        3,
		Log:            quiet(),
	}
	_, err := c.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoWorkers)
}

func TestRunFactoryFailureCountsAsDeadWorker(t *testing.T) {
	c := &Coordinator{
		NewBooker: func(ctx context.Context) (Booker, func(), error) {
			return nil, nil, errors.New("no browser")
		},
		Users:          users,
		Availabilities: avs,
		Workers:        2,
		Log:            quiet(),
	}
	_, err := c.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoWorkers)
}

func TestRunHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	site := bookFunc(func(ctx context.Context, u user.User, av tennis.Availability) (booking.Outcome, error) {
		return booking.Outcome{Status: booking.StatusSlotUnavailable}, nil
	})

	c := &Coordinator{
		NewBooker:      factoryOf(site),
		Users:          users,
		Availabilities: avs,
		Workers:        2,
		Log:            quiet(),
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunStableIterationOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var order []string

	site := bookFunc(func(ctx context.Context, u user.User, av tennis.Availability) (booking.Outcome, error) {
		mu.Lock()
		order = append(order, fmt.Sprintf("%s/%s", u.Username, av.Court.ID))
		if len(order) == len(users)*len(avs) {
			cancel()
		}
		mu.Unlock()
		return booking.Outcome{Status: booking.StatusSlotUnavailable}, nil
	})

	c := &Coordinator{
		NewBooker:      factoryOf(site),
		Users:          users,
		Availabilities: avs,
		Workers:        1,
		Log:            quiet(),
	}
	_, err := c.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"anna/A", "anna/B", "issa/A", "issa/B"}, order[:4])
}

func TestRunRejectsEmptySearchSpace(t *testing.T) {
	c := &Coordinator{NewBooker: factoryOf(nil), Users: nil, Availabilities: avs, Log: quiet()}
	_, err := c.Run(context.Background())
	assert.Error(t, err)

	c = &Coordinator{NewBooker: factoryOf(nil), Users: users, Availabilities: nil, Log: quiet()}
	_, err = c.Run(context.Background())
	assert.Error(t, err)
}
