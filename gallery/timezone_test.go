package gallery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		naive   time.Time
		pair    TimezonePair
		wantUTC time.Time
		shift   int
	}{
		{
			name:    "summer",
			naive:   time.Date(2012, 7, 14, 12, 0, 0, 0, time.UTC),
			pair:    TimezonePair{From: "Europe/Berlin", To: "America/New_York"},
			wantUTC: time.Date(2012, 7, 14, 10, 0, 0, 0, time.UTC),
			shift:   -360,
		},
		{
			name:    "repeated hour east of UTC",
			naive:   time.Date(2012, 10, 28, 2, 30, 0, 0, time.UTC),
			pair:    TimezonePair{From: "Europe/Berlin", To: "UTC"},
			wantUTC: time.Date(2012, 10, 28, 1, 30, 0, 0, time.UTC),
			shift:   -60,
		},
		{
			name:    "repeated hour west of UTC",
			naive:   time.Date(2012, 11, 4, 1, 30, 0, 0, time.UTC),
			pair:    TimezonePair{From: "America/New_York", To: "UTC"},
			wantUTC: time.Date(2012, 11, 4, 6, 30, 0, 0, time.UTC),
			shift:   300,
		},
		{
			name:    "hour before the change",
			naive:   time.Date(2012, 11, 4, 0, 30, 0, 0, time.UTC),
			pair:    TimezonePair{From: "America/New_York", To: "UTC"},
			wantUTC: time.Date(2012, 11, 4, 4, 30, 0, 0, time.UTC),
			shift:   240,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shifted, utc, shift, err := shiftTimestamp(tt.naive, tt.pair)
			require.NoError(t, err)
			assert.True(t, tt.wantUTC.Equal(utc), "got %v", utc)
			assert.True(t, utc.Equal(shifted))
			assert.Equal(t, tt.shift, shift)
		})
	}
}

func TestShiftTimestampUnknownZone(t *testing.T) {
	_, _, _, err := shiftTimestamp(time.Now(), TimezonePair{From: "Mars/Olympus", To: "UTC"})
	assert.ErrorIs(t, err, ErrUnknownTimezone)
}
