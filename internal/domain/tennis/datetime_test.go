package tennis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateTimeCanonical(t *testing.T) {
	tests := []struct {
		name string
		date string
		time string
		want string
	}{
		{"reference slot", "21/06/2022", "08h", "2022/06/21 08:00:00"},
		{"new year", "01/01/2023", "09h", "2023/01/01 09:00:00"},
		{"evening slot", "31/12/2022", "21h", "2022/12/31 21:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt, err := NewDateTime(tt.date, tt.time)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dt.Canonical())
		})
	}
}

func TestNewDateTimeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		date string
		time string
	}{
		{"date without zero padding", "1/6/2022", "08h"},
		{"iso date", "2022-06-21", "08h"},
		{"empty date", "", "08h"},
		{"time without suffix", "21/06/2022", "08"},
		{"time with minutes", "21/06/2022", "08:30"},
		{"empty time", "21/06/2022", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDateTime(tt.date, tt.time)
			assert.Error(t, err)
		})
	}
}

func TestDateTimeCanonicalIsInjective(t *testing.T) {
	// Distinct valid inputs must canonicalize to distinct site strings.
	inputs := [][2]string{
		{"21/06/2022", "08h"},
		{"21/06/2022", "09h"},
		{"22/06/2022", "08h"},
		{"06/21/2022", "08h"}, // month/day swapped is a different slot
	}
	seen := make(map[string][2]string)
	for _, in := range inputs {
		dt := DateTime{Date: in[0], Time: in[1]}
		c := dt.Canonical()
		prev, dup := seen[c]
		assert.Falsef(t, dup, "%v and %v both canonicalize to %q", prev, in, c)
		seen[c] = in
	}
}
