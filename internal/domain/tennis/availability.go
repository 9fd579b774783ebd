package tennis

import "fmt"

// Availability pairs one court with one desired start. Value object;
// equality is (court id, date, time).
type Availability struct {
	DateTime DateTime
	Court    Court
}

func (a Availability) Equal(b Availability) bool {
	return a.Court.ID == b.Court.ID &&
		a.DateTime.Date == b.DateTime.Date &&
		a.DateTime.Time == b.DateTime.Time
}

func (a Availability) String() string {
	return fmt.Sprintf("%s %s", a.Court, a.DateTime)
}

// Availabilities builds the candidate list for one desired DateTime
// over every court that passes prefs, keeping facility order and court
// order within a facility so every worker walks the same sequence.
func Availabilities(facilities []Facility, prefs Preferences, dt DateTime) []Availability {
	var out []Availability
	for _, f := range facilities {
		if !prefs.SelectsFacility(f) {
			continue
		}
		for _, c := range f.Courts {
			if !prefs.SelectsCourt(c) {
				continue
			}
			out = append(out, Availability{DateTime: dt, Court: c})
		}
	}
	return out
}
