package gallery

import (
	"fmt"
	"strings"
	"time"
)

const displayLayout = "2006-01-02 15:04:05"

// View is a read-only copy of an item for handing out across goroutines.
type View struct {
	Filename             string       `json:"filename"`
	Digest               string       `json:"digest,omitempty"`
	CapturedAt           *time.Time   `json:"capturedAt,omitempty"`
	ShiftedTimestamp     *time.Time   `json:"shiftedTimestamp,omitempty"`
	UTCTimestamp         *time.Time   `json:"utcTimestamp,omitempty"`
	Timezones            TimezonePair `json:"timezones"`
	Timeshift            int          `json:"timeshift"`
	Orientation          int          `json:"orientation"`
	Rotation             int          `json:"rotation"`
	EffectiveOrientation int          `json:"effectiveOrientation"`
	Location             *Location    `json:"location,omitempty"`
	Keywords             Keywords     `json:"keywords"`
	Copyright            string       `json:"copyright"`
	Description          string       `json:"description"`
	CameraSettings       string       `json:"cameraSettings,omitempty"`
	CameraHardware       string       `json:"cameraHardware,omitempty"`
	CameraModel          string       `json:"cameraModel,omitempty"`
	Edited               bool         `json:"edited"`
	OrientationEdited    bool         `json:"orientationEdited"`
	TimezonesEdited      bool         `json:"timezonesEdited"`
	LocationEdited       bool         `json:"locationEdited"`
	KeywordsEdited       bool         `json:"keywordsEdited"`
	CopyrightEdited      bool         `json:"copyrightEdited"`
	DescriptionEdited    bool         `json:"descriptionEdited"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// View returns a snapshot of the item.
func (it *Item) View() View {
	kws := it.keywords.Clone()
	if kws == nil {
		kws = Keywords{}
	}
	return View{
		Filename:             it.filename,
		Digest:               it.digest,
		CapturedAt:           cloneTime(it.capturedAt),
		ShiftedTimestamp:     cloneTime(it.shifted),
		UTCTimestamp:         cloneTime(it.utc),
		Timezones:            it.timezones,
		Timeshift:            it.timeshift,
		Orientation:          it.orientation,
		Rotation:             it.rotation,
		EffectiveOrientation: it.EffectiveOrientation(),
		Location:             cloneLocation(it.location),
		Keywords:             kws,
		Copyright:            it.copyright,
		Description:          it.description,
		CameraSettings:       it.cameraSettings,
		CameraHardware:       it.cameraHardware,
		CameraModel:          it.cameraModel,
		Edited:               it.edited,
		OrientationEdited:    it.editedOrientation,
		TimezonesEdited:      it.editedTimezones,
		LocationEdited:       it.editedLocation,
		KeywordsEdited:       it.editedKeywords,
		CopyrightEdited:      it.editedCopyright,
		DescriptionEdited:    it.editedDescription,
	}
}

// String summarises the item on a few lines; edited values are marked '*'.
func (it *Item) String() string {
	mark := func(edited bool) string {
		if edited {
			return "* "
		}
		return "  "
	}
	var b strings.Builder
	b.WriteString(it.filename)
	b.WriteByte('\n')
	if it.capturedAt != nil {
		if it.editedTimezones && it.shifted != nil && it.utc != nil {
			fmt.Fprintf(&b, "%s%s (%s UTC)\n", mark(true), it.shifted.Format(displayLayout), it.utc.Format(displayLayout))
		} else {
			fmt.Fprintf(&b, "%s%s\n", mark(false), it.capturedAt.Format(displayLayout))
		}
	}
	if it.cameraSettings != "" {
		fmt.Fprintf(&b, "  %s\n", it.cameraSettings)
	}
	if it.cameraHardware != "" {
		fmt.Fprintf(&b, "  %s\n", it.cameraHardware)
	}
	if len(it.keywords) > 0 {
		fmt.Fprintf(&b, "%s%s\n", mark(it.editedKeywords), strings.Join(it.keywords, ", "))
	}
	if loc := it.location; loc != nil {
		fmt.Fprintf(&b, "%s%+.3f, %+.3f, %+.0f m Elevation", mark(it.editedLocation), loc.Latitude, loc.Longitude, loc.Elevation)
		if saved := it.saved.location; it.editedLocation && saved != nil {
			fmt.Fprintf(&b, " (%+.3f, %+.3f, %+.0f m Elevation)", saved.Latitude, saved.Longitude, saved.Elevation)
		}
		b.WriteByte('\n')
	}
	if it.copyright != "" {
		fmt.Fprintf(&b, "%s© %s\n", mark(it.editedCopyright), it.copyright)
	}
	if it.description != "" {
		fmt.Fprintf(&b, "%s%s\n", mark(it.editedDescription), it.description)
	}
	return strings.TrimRight(b.String(), "\n")
}
