package tennis

import (
	"fmt"
	"regexp"
)

var (
	dateRe = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
	timeRe = regexp.MustCompile(`^(\d{2})h$`)
)

// DateTime is a desired slot start in operator form: Date "21/06/2022",
// Time "08h". Canonical() produces the site-native rendering used for
// exact-match comparison against reservation controls; any drift there
// breaks every match downstream.
type DateTime struct {
	Date string
	Time string
}

// NewDateTime validates the operator form (DD/MM/YYYY and NNh).
func NewDateTime(date, tm string) (DateTime, error) {
	if !dateRe.MatchString(date) {
		return DateTime{}, fmt.Errorf("invalid date %q (want DD/MM/YYYY)", date)
	}
	if !timeRe.MatchString(tm) {
		return DateTime{}, fmt.Errorf("invalid time %q (want NNh, e.g. 08h)", tm)
	}
	return DateTime{Date: date, Time: tm}, nil
}

// Canonical reorders the date to YYYY/MM/DD and expands the hour label,
// e.g. {21/06/2022, 08h} -> "2022/06/21 08:00:00". Pure string
// reordering: the site renders exactly this form in its reservation
// buttons' start-time attribute.
func (dt DateTime) Canonical() string {
	d := dateRe.FindStringSubmatch(dt.Date)
	h := timeRe.FindStringSubmatch(dt.Time)
	if d == nil || h == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s %s:00:00", d[3], d[2], d[1], h[1])
}

func (dt DateTime) String() string {
	return dt.Canonical()
}
