// Package booking drives one login + reservation attempt against the
// site as a linear state machine over the browser port.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/court-racer/internal/browser"
	"github.com/example/court-racer/internal/domain/tennis"
	"github.com/example/court-racer/internal/domain/user"
	"github.com/example/court-racer/internal/snapshot"
)

// Player is one name on the reservation form. The site requires two.
type Player struct {
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
}

// Config carries everything a Session needs besides the page itself.
type Config struct {
	Website    tennis.Website
	Facilities []tennis.Facility
	Players    []Player

	// CreditPhrase is matched as a prefix of the booking-credit table
	// text. Defaults to DefaultCreditPhrase.
	CreditPhrase string

	// WaitTimeout bounds every lookup that races the site's scripts.
	// Defaults to 10s.
	WaitTimeout time.Duration

	// DetailWait bounds the facility detail link wait; its absence is
	// an expected condition, so the bound is kept short. Defaults to 2s.
	DetailWait time.Duration

	// Snapshots, when set, captures the page on fatal errors.
	Snapshots *snapshot.Recorder

	Log *slog.Logger
}

// Session executes the booking state machine for one (user,
// availability) pair at a time, on one page. Not safe for concurrent
// use; each worker owns its session.
type Session struct {
	page    browser.Page
	cfg     Config
	leaflet map[string]int
	log     *slog.Logger
}

func NewSession(page browser.Page, cfg Config) (*Session, error) {
	if len(cfg.Players) != 2 {
		return nil, fmt.Errorf("need exactly 2 players, got %d", len(cfg.Players))
	}
	if cfg.CreditPhrase == "" {
		cfg.CreditPhrase = DefaultCreditPhrase
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 10 * time.Second
	}
	if cfg.DetailWait <= 0 {
		cfg.DetailWait = 2 * time.Second
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	leaflet := make(map[string]int, len(cfg.Facilities))
	for _, f := range cfg.Facilities {
		leaflet[f.Name] = f.LeafletIndex
	}
	return &Session{page: page, cfg: cfg, leaflet: leaflet, log: cfg.Log}, nil
}

// Book runs one attempt. A non-nil error is fatal for this session:
// the site or the automation broke in a way the flow does not expect,
// and the caller must not retry on the same page.
func (s *Session) Book(ctx context.Context, u user.User, av tennis.Availability) (Outcome, error) {
	log := s.log.With(
		slog.String("username", u.Username),
		slog.String("court_id", av.Court.ID),
		slog.String("date", av.DateTime.Date),
		slog.String("time", av.DateTime.Time),
	)
	log.Info("attempting availability", slog.String("court", av.Court.String()))

	if err := s.login(ctx, u); err != nil {
		return Outcome{}, s.fatal(ctx, "login", err)
	}
	log.Debug("logged in")

	if err := s.openSearch(ctx); err != nil {
		return Outcome{}, s.fatal(ctx, "open search", err)
	}

	ok, err := s.chooseDate(ctx, av.DateTime)
	if err != nil {
		return Outcome{}, s.fatal(ctx, "choose date", err)
	}
	if !ok {
		log.Info("slot unavailable", slog.String("reason", "date outside bookable horizon"))
		return unavailable(fmt.Sprintf("date %s not offered", av.DateTime.Date)), nil
	}
	log.Debug("chose date")

	if err := s.search(ctx); err != nil {
		return Outcome{}, s.fatal(ctx, "search", err)
	}

	if err := s.selectFacility(ctx, av.Court.FacilityName); err != nil {
		return Outcome{}, s.fatal(ctx, "select facility", err)
	}
	log.Debug("selected facility", slog.String("facility", av.Court.FacilityName))

	ok, err = s.openDetail(ctx)
	if err != nil {
		return Outcome{}, s.fatal(ctx, "open facility detail", err)
	}
	if !ok {
		log.Info("slot unavailable", slog.String("reason", "facility closed for date"))
		return unavailable(fmt.Sprintf("no courts open at %s on %s", av.Court.FacilityName, av.DateTime.Date)), nil
	}

	ok, err = s.chooseTime(ctx, av.DateTime.Time)
	if err != nil {
		return Outcome{}, s.fatal(ctx, "choose time", err)
	}
	if !ok {
		log.Info("slot unavailable", slog.String("reason", "time not offered"))
		return unavailable(fmt.Sprintf("time %s not offered on %s", av.DateTime.Time, av.DateTime.Date)), nil
	}
	log.Debug("chose time")

	ok, err = s.clickReserve(ctx, av)
	if err != nil {
		return Outcome{}, s.fatal(ctx, "click reserve", err)
	}
	if !ok {
		log.Info("slot unavailable", slog.String("reason", "no matching reserve control"))
		return unavailable(fmt.Sprintf("court %s has no reserve control for %s", av.Court.ID, av.DateTime.Canonical())), nil
	}
	log.Debug("clicked reserve", slog.String("start", av.DateTime.Canonical()))

	ok, err = s.enterPlayers(ctx)
	if err != nil {
		return Outcome{}, s.fatal(ctx, "enter players", err)
	}
	if !ok {
		log.Info("already reserved")
		return Outcome{
			Status: StatusAlreadyReserved,
			Reason: fmt.Sprintf("account %s already holds a reservation for this period", u.Username),
		}, nil
	}
	log.Debug("entered players")

	ok, err = s.useCredit(ctx)
	if err != nil {
		return Outcome{}, s.fatal(ctx, "check credit", err)
	}
	if !ok {
		log.Info("credit exhausted")
		return Outcome{
			Status: StatusCreditExhausted,
			Reason: fmt.Sprintf("account %s has no booking credit left", u.Username),
		}, nil
	}

	if err := s.submit(ctx); err != nil {
		return Outcome{}, s.fatal(ctx, "final submit", err)
	}

	log.Info("court booked")
	return Outcome{
		Status:   StatusBooked,
		CourtID:  av.Court.ID,
		Date:     av.DateTime.Date,
		Time:     av.DateTime.Time,
		Username: u.Username,
	}, nil
}

func (s *Session) login(ctx context.Context, u user.User) error {
	if err := s.page.Navigate(ctx, s.cfg.Website.LoginURL); err != nil {
		return err
	}
	username, err := s.page.WaitFor(ctx, selUsername, s.cfg.WaitTimeout)
	if err != nil {
		return fmt.Errorf("username input: %w", err)
	}
	password, err := s.page.Find(ctx, selPassword)
	if err != nil {
		return fmt.Errorf("password input: %w", err)
	}
	if err := username.Type(ctx, u.Username); err != nil {
		return err
	}
	if err := password.Type(ctx, u.Password); err != nil {
		return err
	}
	submit, err := s.page.Find(ctx, selLoginSubmit)
	if err != nil {
		return fmt.Errorf("submit button: %w", err)
	}
	return submit.Click(ctx)
}

// openSearch navigates to the search surface and collapses the extra
// browsing context the site sometimes spawns for it.
func (s *Session) openSearch(ctx context.Context) error {
	if err := s.page.Navigate(ctx, s.cfg.Website.SearchURL); err != nil {
		return err
	}
	return s.page.DiscardExtras(ctx)
}

// chooseDate activates the date picker and clicks the calendar cell
// whose dateiso attribute equals the desired date. A missing cell
// means the date is outside the bookable horizon, not a failure.
func (s *Session) chooseDate(ctx context.Context, dt tennis.DateTime) (bool, error) {
	picker, err := s.page.WaitFor(ctx, selDatePicker, s.cfg.WaitTimeout)
	if err != nil {
		return false, fmt.Errorf("date picker: %w", err)
	}
	if err := picker.Click(ctx); err != nil {
		return false, err
	}
	cell, err := s.page.WaitFor(ctx, selDateCell(dt.Date), s.cfg.DetailWait)
	if notFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, cell.Click(ctx)
}

func (s *Session) search(ctx context.Context) error {
	btn, err := s.page.WaitFor(ctx, selSearch, s.cfg.WaitTimeout)
	if err != nil {
		return fmt.Errorf("search button: %w", err)
	}
	return btn.Click(ctx)
}

// selectFacility clicks the map marker at the facility's configured
// index. Marker ordering is the page's own; a short marker list means
// the map contract drifted, which is fatal.
func (s *Session) selectFacility(ctx context.Context, facility string) error {
	idx, ok := s.leaflet[facility]
	if !ok {
		return fmt.Errorf("no leaflet index configured for facility %q", facility)
	}
	if _, err := s.page.WaitFor(ctx, selMapMarkers, s.cfg.WaitTimeout); err != nil {
		return fmt.Errorf("map markers: %w", err)
	}
	markers, err := s.page.FindAll(ctx, selMapMarkers)
	if err != nil {
		return err
	}
	if idx >= len(markers) {
		return fmt.Errorf("facility %q wants marker %d but map has %d", facility, idx, len(markers))
	}
	return markers[idx].Click(ctx)
}

// openDetail waits briefly for the facility detail link. Its absence
// means no courts are open there for the chosen date.
func (s *Session) openDetail(ctx context.Context) (bool, error) {
	link, err := s.page.WaitFor(ctx, selFacilityLink, s.cfg.DetailWait)
	if notFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	// The link ignores synthetic clicks; an enter keypress activates it.
	return true, link.Type(ctx, "\n")
}

func (s *Session) chooseTime(ctx context.Context, label string) (bool, error) {
	if _, err := s.page.WaitFor(ctx, selTimePanels, s.cfg.DetailWait); notFound(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	panels, err := s.page.FindAll(ctx, selTimePanels)
	if err != nil {
		return false, err
	}
	for _, p := range panels {
		text, err := p.Text(ctx)
		if err != nil {
			return false, err
		}
		if text == label {
			return true, p.Click(ctx)
		}
	}
	return false, nil
}

// clickReserve collects both reserve button variants and clicks the
// one matching the court id and the canonical start time exactly.
func (s *Session) clickReserve(ctx context.Context, av tennis.Availability) (bool, error) {
	buttons, err := s.reserveButtons(ctx)
	if err != nil {
		return false, err
	}
	if len(buttons) == 0 {
		// Worth a dump: the panel opened but rendered no buttons at all.
		if s.cfg.Snapshots != nil {
			s.cfg.Snapshots.Capture(ctx, s.page, "no-reserve-buttons")
		}
		return false, nil
	}
	want := av.DateTime.Canonical()
	for _, b := range buttons {
		courtID, err := b.Attr(ctx, attrCourtID)
		if err != nil {
			return false, err
		}
		start, err := b.Attr(ctx, attrStart)
		if err != nil {
			return false, err
		}
		if courtID == av.Court.ID && start == want {
			return true, b.Click(ctx)
		}
	}
	return false, nil
}

// reserveButtons polls both button variants until at least one is
// rendered or the detail bound passes. The time-panel click redraws
// the court list from script, so an instant read can see a panel that
// is still empty and misreport a winnable slot.
func (s *Session) reserveButtons(ctx context.Context) ([]browser.Element, error) {
	deadline := time.Now().Add(s.cfg.DetailWait)
	for {
		busy, err := s.page.FindAll(ctx, selReserveBusy)
		if err != nil {
			return nil, err
		}
		free, err := s.page.FindAll(ctx, selReserveFree)
		if err != nil {
			return nil, err
		}
		buttons := append(busy, free...)
		if len(buttons) > 0 || time.Now().After(deadline) {
			return buttons, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// enterPlayers fills the two player name pairs and submits the control
// form. No input fields once the form settles means the account
// already holds a reservation for the period.
func (s *Session) enterPlayers(ctx context.Context) (bool, error) {
	inputs, err := s.rendered(ctx, selPlayerInputs, 1)
	if err != nil {
		return false, err
	}
	if len(inputs) == 0 {
		return false, nil
	}
	if len(inputs) < 2 {
		return false, fmt.Errorf("expected 2 player inputs, got %d", len(inputs))
	}
	if err := inputs[0].Type(ctx, s.cfg.Players[0].LastName); err != nil {
		return false, err
	}
	if err := inputs[1].Type(ctx, s.cfg.Players[0].FirstName); err != nil {
		return false, err
	}

	add, err := s.page.Find(ctx, selAddPlayer)
	if err != nil {
		return false, fmt.Errorf("add player button: %w", err)
	}
	if err := add.Click(ctx); err != nil {
		return false, err
	}

	// The second pair appears only after the site's script reacts to
	// the add click.
	inputs, err = s.rendered(ctx, selPlayerInputs, 4)
	if err != nil {
		return false, err
	}
	if len(inputs) < 4 {
		return false, fmt.Errorf("expected 4 player inputs, got %d: %w", len(inputs), browser.ErrTimedOut)
	}
	if err := inputs[2].Type(ctx, s.cfg.Players[1].LastName); err != nil {
		return false, err
	}
	if err := inputs[3].Type(ctx, s.cfg.Players[1].FirstName); err != nil {
		return false, err
	}

	submit, err := s.page.Find(ctx, selControlSubmit)
	if err != nil {
		return false, fmt.Errorf("control submit: %w", err)
	}
	return true, submit.Click(ctx)
}

const pollInterval = 100 * time.Millisecond

// rendered polls sel until at least min elements exist or the detail
// bound passes, returning whatever the last poll saw. Classification
// of an empty result stays with the caller.
func (s *Session) rendered(ctx context.Context, sel browser.Selector, min int) ([]browser.Element, error) {
	deadline := time.Now().Add(s.cfg.DetailWait)
	for {
		els, err := s.page.FindAll(ctx, sel)
		if err != nil {
			return nil, err
		}
		if len(els) >= min || time.Now().After(deadline) {
			return els, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// useCredit looks for the table whose text starts with the
// booking-credit phrase and clicks it. No such table once the payment
// page settles means the account's credit is exhausted.
func (s *Session) useCredit(ctx context.Context) (bool, error) {
	tables, err := s.rendered(ctx, selTables, 1)
	if err != nil {
		return false, err
	}
	for _, t := range tables {
		text, err := t.Text(ctx)
		if err != nil {
			return false, err
		}
		if strings.HasPrefix(text, s.cfg.CreditPhrase) {
			return true, t.Click(ctx)
		}
	}
	return false, nil
}

func (s *Session) submit(ctx context.Context) error {
	btn, err := s.page.WaitFor(ctx, selFinalSubmit, s.cfg.WaitTimeout)
	if err != nil {
		return fmt.Errorf("final submit: %w", err)
	}
	return btn.Click(ctx)
}

// fatal wraps an unexpected failure and captures the page best-effort;
// a failed capture never masks the original error.
func (s *Session) fatal(ctx context.Context, step string, err error) error {
	if s.cfg.Snapshots != nil {
		s.cfg.Snapshots.Capture(ctx, s.page, strings.ReplaceAll(step, " ", "-"))
	}
	return fmt.Errorf("%s: %w", step, err)
}

func notFound(err error) bool {
	return errors.Is(err, browser.ErrNotFound) || errors.Is(err, browser.ErrTimedOut)
}
