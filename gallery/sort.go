package gallery

import (
	"fmt"
	"sort"
	"strings"
)

// SortOrder selects the ordering of a directory view.
type SortOrder int

const (
	ByName SortOrder = iota
	ByTime
	ByCamera
)

func (o SortOrder) String() string {
	switch o {
	case ByTime:
		return "time"
	case ByCamera:
		return "camera"
	}
	return "name"
}

// ParseSortOrder accepts "name", "time" or "camera".
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name":
		return ByName, nil
	case "time":
		return ByTime, nil
	case "camera":
		return ByCamera, nil
	}
	return ByName, fmt.Errorf("unknown sort order %q", s)
}

// compareTime orders items without a timestamp first.
func compareTime(a, b *Item) int {
	switch {
	case a.capturedAt == nil && b.capturedAt == nil:
		return 0
	case a.capturedAt == nil:
		return -1
	case b.capturedAt == nil:
		return 1
	}
	return a.capturedAt.Compare(*b.capturedAt)
}

// Compare orders a and b under order, falling back from camera to time to
// filename when the leading keys are equal.
func Compare(order SortOrder, a, b *Item) int {
	switch order {
	case ByCamera:
		if c := strings.Compare(a.cameraHardware, b.cameraHardware); c != 0 {
			return c
		}
		fallthrough
	case ByTime:
		if c := compareTime(a, b); c != 0 {
			return c
		}
	}
	return strings.Compare(a.filename, b.filename)
}

// KeyEqual compares only the leading key of order. Two items taken at the same
// second are KeyEqual under ByTime even if everything else differs; this is
// meant for sort stability, not identity.
func KeyEqual(order SortOrder, a, b *Item) bool {
	switch order {
	case ByTime:
		return compareTime(a, b) == 0
	case ByCamera:
		return a.cameraHardware == b.cameraHardware
	}
	return a.filename == b.filename
}

// Sort orders items in place.
func Sort(items []*Item, order SortOrder) {
	sort.SliceStable(items, func(i, j int) bool {
		return Compare(order, items[i], items[j]) < 0
	})
}
