package tennis

import "github.com/example/court-racer/internal/domain/user"

// Preferences narrows the universe of facilities, courts and accounts
// the race considers. Empty fields are wildcards; the zero value
// selects everything.
type Preferences struct {
	Facility    string
	Location    Location
	SurfaceType SurfaceType
	CourtID     string
	Username    string
}

func (p Preferences) SelectsFacility(f Facility) bool {
	return p.Facility == "" || p.Facility == f.Name
}

func (p Preferences) SelectsCourt(c Court) bool {
	if p.Location != "" && p.Location != c.Location {
		return false
	}
	if p.SurfaceType != "" && p.SurfaceType != c.SurfaceType {
		return false
	}
	if p.CourtID != "" && p.CourtID != c.ID {
		return false
	}
	return true
}

func (p Preferences) SelectsUser(u user.User) bool {
	return p.Username == "" || p.Username == u.Username
}

// Users returns the accounts that pass the username filter, in input
// order.
func (p Preferences) Users(us []user.User) []user.User {
	var out []user.User
	for _, u := range us {
		if p.SelectsUser(u) {
			out = append(out, u)
		}
	}
	return out
}
