// Package config loads the static data file describing the booking
// site, its facilities and the accounts available for the race. The
// values are read once at startup and shared read-only by every
// worker.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/example/court-racer/internal/booking"
	"github.com/example/court-racer/internal/domain/tennis"
	"github.com/example/court-racer/internal/domain/user"
)

type Data struct {
	TennisFacilities []tennis.Facility `json:"tennis_facilities"`
	Users            []user.User       `json:"users"`
	Website          tennis.Website    `json:"website"`
	Players          []booking.Player  `json:"players"`

	// CreditPhrase overrides the site's booking-credit table text;
	// empty means booking.DefaultCreditPhrase.
	CreditPhrase string `json:"credit_phrase,omitempty"`
}

// Load reads and validates the data file. Facility names are
// denormalized onto their courts here, so a Court is self-describing
// everywhere downstream.
func Load(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read data file: %w", err)
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return Data{}, fmt.Errorf("parse data file: %w", err)
	}
	if err := d.validate(); err != nil {
		return Data{}, fmt.Errorf("invalid data file %s: %w", path, err)
	}
	for i := range d.TennisFacilities {
		f := &d.TennisFacilities[i]
		for j := range f.Courts {
			f.Courts[j].FacilityName = f.Name
		}
	}
	return d, nil
}

func (d Data) validate() error {
	if d.Website.LoginURL == "" || d.Website.SearchURL == "" {
		return fmt.Errorf("website.login_url and website.search_url are required")
	}
	if len(d.TennisFacilities) == 0 {
		return fmt.Errorf("at least one tennis facility is required")
	}
	if len(d.Users) == 0 {
		return fmt.Errorf("at least one user is required")
	}
	if len(d.Players) != 2 {
		return fmt.Errorf("exactly 2 players are required, got %d", len(d.Players))
	}
	seen := make(map[string]string)
	for _, f := range d.TennisFacilities {
		if f.Name == "" {
			return fmt.Errorf("facility with empty name")
		}
		if f.LeafletIndex < 0 {
			return fmt.Errorf("facility %q: negative leaflet_index", f.Name)
		}
		for _, c := range f.Courts {
			if c.ID == "" {
				return fmt.Errorf("facility %q: court with empty id", f.Name)
			}
			if owner, dup := seen[c.ID]; dup {
				return fmt.Errorf("court id %q appears in both %q and %q", c.ID, owner, f.Name)
			}
			seen[c.ID] = f.Name
			if !c.Location.Valid() {
				return fmt.Errorf("court %q: unknown location %q", c.ID, c.Location)
			}
			if !c.SurfaceType.Valid() {
				return fmt.Errorf("court %q: unknown surface_type %q", c.ID, c.SurfaceType)
			}
		}
	}
	for _, u := range d.Users {
		if u.Username == "" || u.Password == "" {
			return fmt.Errorf("user with empty username or password")
		}
	}
	for _, p := range d.Players {
		if p.LastName == "" || p.FirstName == "" {
			return fmt.Errorf("player with empty name")
		}
	}
	return nil
}
