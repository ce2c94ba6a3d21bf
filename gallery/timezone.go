package gallery

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// pairSeparator joins the two zone names in the textual form of a pair.
const pairSeparator = " → "

// TimezonePair reads as "the capture time was recorded in From and should be
// written in To".
type TimezonePair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

var DefaultTimezones = TimezonePair{From: "UTC", To: "UTC"}

func (p TimezonePair) String() string {
	return p.From + pairSeparator + p.To
}

// ParseTimezonePair parses the output of TimezonePair.String.
func ParseTimezonePair(s string) (TimezonePair, bool) {
	from, to, ok := strings.Cut(s, pairSeparator)
	if !ok {
		return TimezonePair{}, false
	}
	return TimezonePair{From: from, To: to}, true
}

// ValidTimezone reports whether name is a zone identifier SetTimezones accepts.
func ValidTimezone(name string) bool {
	_, err := loadZone(name)
	return err == nil
}

func loadZone(name string) (*time.Location, error) {
	// LoadLocation maps "" to UTC and "Local" to the host zone; neither is a
	// zone identifier a photo can be tagged with.
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, name)
	}
	return loc, nil
}

// shiftTimestamp interprets the wall clock of naive in pair.From and returns
// it converted to pair.To, the same instant in UTC, and the offset difference
// in minutes at that instant. A wall clock that occurs twice, in the hour
// clocks are turned back, is read as standard time.
func shiftTimestamp(naive time.Time, pair TimezonePair) (time.Time, time.Time, int, error) {
	fromLoc, err := loadZone(pair.From)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	toLoc, err := loadZone(pair.To)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	local := time.Date(naive.Year(), naive.Month(), naive.Day(),
		naive.Hour(), naive.Minute(), naive.Second(), 0, fromLoc)
	local = preferStandard(local)
	shifted := local.In(toLoc)
	_, fromOffset := local.Zone()
	_, toOffset := shifted.Zone()
	return shifted, local.UTC(), (toOffset - fromOffset) / 60, nil
}

// preferStandard returns the standard-time reading of t when its wall clock
// is repeated at the end of daylight saving time, and t otherwise.
func preferStandard(t time.Time) time.Time {
	if !t.IsDST() {
		return t
	}
	_, end := t.ZoneBounds()
	if end.IsZero() {
		return t
	}
	_, offset := t.Zone()
	_, next := end.Zone()
	alt := t.Add(time.Duration(offset-next) * time.Second)
	if alt.IsDST() || !sameWallClock(alt, t) {
		return t
	}
	return alt
}

func sameWallClock(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute() && a.Second() == b.Second()
}
