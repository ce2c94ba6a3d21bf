// Package gallery holds the per-photo edit model: the metadata read from a
// file, the user's pending edits on top of it, and the flags telling which
// fields differ from what was imported.
package gallery

import (
	"errors"
	"math"
	"time"
)

var (
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrUnknownTimezone  = errors.New("unknown timezone")
	ErrInvalidLocation  = errors.New("invalid location")
)

// Location is a GPS position. Latitude is positive north, longitude positive
// east, elevation in meters with negative values below sea level.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
}

// Valid reports whether all three coordinates are finite and in range.
func (l Location) Valid() bool {
	for _, v := range []float64{l.Latitude, l.Longitude, l.Elevation} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

type snapshot struct {
	timezones   TimezonePair
	location    *Location
	keywords    Keywords
	copyright   string
	description string
}

// Item is one photograph of the directory view.
type Item struct {
	filename string
	digest   string

	capturedAt *time.Time
	shifted    *time.Time
	utc        *time.Time
	timezones  TimezonePair
	timeshift  int

	orientation int
	rotation    int

	location    *Location
	keywords    Keywords
	copyright   string
	description string

	cameraSettings string
	cameraHardware string
	cameraModel    string
	width, height  int

	saved snapshot

	edited            bool
	editedOrientation bool
	editedTimezones   bool
	editedLocation    bool
	editedKeywords    bool
	editedCopyright   bool
	editedDescription bool

	countCopyright bool
}

// Option configures an Item at construction.
type Option func(*Item)

// CountCopyright makes a changed copyright notice mark the whole item as
// edited. Off by default, matching the historic behaviour where only the
// copyright flag itself was raised.
func CountCopyright(enabled bool) Option {
	return func(it *Item) {
		it.countCopyright = enabled
	}
}

// NewItem creates an item for filename with default values.
func NewItem(filename string, opts ...Option) *Item {
	it := &Item{
		filename:    filename,
		timezones:   DefaultTimezones,
		orientation: 1,
		width:       -1,
		height:      -1,
		saved:       snapshot{timezones: DefaultTimezones},
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

func (it *Item) Filename() string { return it.filename }

func (it *Item) Digest() string { return it.digest }

func (it *Item) SetDigest(digest string) { it.digest = digest }

// updateEditState recomputes all edit flags from the current and saved values.
func (it *Item) updateEditState() {
	it.editedOrientation = it.rotation != 0
	it.editedTimezones = it.timezones != it.saved.timezones
	it.editedLocation = !sameLocation(it.location, it.saved.location)
	it.editedKeywords = !it.keywords.Equal(it.saved.keywords)
	it.editedCopyright = it.copyright != it.saved.copyright
	it.editedDescription = it.description != it.saved.description
	it.edited = it.editedOrientation || it.editedLocation || it.editedTimezones ||
		it.editedKeywords || it.editedDescription
	if it.countCopyright {
		it.edited = it.edited || it.editedCopyright
	}
}

func (it *Item) Edited() bool            { return it.edited }
func (it *Item) OrientationEdited() bool { return it.editedOrientation }
func (it *Item) TimezonesEdited() bool   { return it.editedTimezones }
func (it *Item) LocationEdited() bool    { return it.editedLocation }
func (it *Item) KeywordsEdited() bool    { return it.editedKeywords }
func (it *Item) CopyrightEdited() bool   { return it.editedCopyright }
func (it *Item) DescriptionEdited() bool { return it.editedDescription }

// SaveState takes the current values as the baseline for edit detection.
// It is called once after the item has been populated from an import.
func (it *Item) SaveState() {
	it.saved = snapshot{
		timezones:   it.timezones,
		location:    cloneLocation(it.location),
		keywords:    it.keywords,
		copyright:   it.copyright,
		description: it.description,
	}
	it.updateEditState()
}

// SetTimestamp sets the naive capture timestamp. Components that do not form
// a real calendar date leave the timestamp unchanged.
func (it *Item) SetTimestamp(year, month, day, hour, minute, second int) error {
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day ||
		t.Hour() != hour || t.Minute() != minute || t.Second() != second {
		return ErrInvalidTimestamp
	}
	it.capturedAt = &t
	it.updateShiftedTimestamps()
	return nil
}

// SetCapturedAt takes the wall clock reading of t as the naive capture time.
func (it *Item) SetCapturedAt(t time.Time) {
	naive := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	it.capturedAt = &naive
	it.updateShiftedTimestamps()
}

// CapturedAt returns the naive capture timestamp. The location of the
// returned time carries no meaning.
func (it *Item) CapturedAt() (time.Time, bool) {
	if it.capturedAt == nil {
		return time.Time{}, false
	}
	return *it.capturedAt, true
}

// ShiftedTimestamp is the capture time re-expressed in the target timezone.
func (it *Item) ShiftedTimestamp() (time.Time, bool) {
	if it.shifted == nil {
		return time.Time{}, false
	}
	return *it.shifted, true
}

// UTCTimestamp is the capture instant in UTC.
func (it *Item) UTCTimestamp() (time.Time, bool) {
	if it.utc == nil {
		return time.Time{}, false
	}
	return *it.utc, true
}

func (it *Item) Timezones() TimezonePair { return it.timezones }

// Timeshift is the difference in minutes between the target and the source
// timezone as observed at the capture time.
func (it *Item) Timeshift() int { return it.timeshift }

// SetTimezones declares the capture time to be in from and requests it to be
// written in to. Unknown zone names leave the item untouched.
func (it *Item) SetTimezones(from, to string) error {
	if _, err := loadZone(from); err != nil {
		return err
	}
	if _, err := loadZone(to); err != nil {
		return err
	}
	it.timezones = TimezonePair{From: from, To: to}
	it.updateShiftedTimestamps()
	it.updateEditState()
	return nil
}

func (it *Item) updateShiftedTimestamps() {
	it.shifted, it.utc, it.timeshift = nil, nil, 0
	if it.capturedAt == nil {
		return
	}
	shifted, utc, shift, err := shiftTimestamp(*it.capturedAt, it.timezones)
	if err != nil {
		s := *it.capturedAt
		it.shifted = &s
		return
	}
	it.shifted, it.utc, it.timeshift = &shifted, &utc, shift
}

// Orientation is the EXIF orientation code as read from the file.
func (it *Item) Orientation() int { return it.orientation }

// SetOrientation stores the EXIF orientation code, clamped to [1,8].
func (it *Item) SetOrientation(code int) {
	it.orientation = max(min(code, 8), 1)
	it.updateEditState()
}

// Rotation is the accumulated clockwise rotation in degrees.
func (it *Item) Rotation() int { return it.rotation }

// RotateLeft subtracts 90° from the rotation.
func (it *Item) RotateLeft() {
	it.rotation = ((it.rotation-90)%360 + 360) % 360
	it.updateEditState()
}

// RotateRight adds 90° to the rotation.
func (it *Item) RotateRight() {
	it.rotation = (it.rotation + 90) % 360
	it.updateEditState()
}

// ResetRotation discards any rotation.
func (it *Item) ResetRotation() {
	it.rotation = 0
	it.updateEditState()
}

// EffectiveOrientation combines the stored orientation with the rotation.
func (it *Item) EffectiveOrientation() int {
	return Rotate(it.orientation, it.rotation)
}

// Location returns the item's position, if it has one.
func (it *Item) Location() (Location, bool) {
	if it.location == nil {
		return Location{}, false
	}
	return *it.location, true
}

// SetLocation sets the position. If any coordinate is unusable the location
// is erased as a whole and ErrInvalidLocation is returned.
func (it *Item) SetLocation(latitude, longitude, elevation float64) error {
	loc := Location{Latitude: latitude, Longitude: longitude, Elevation: elevation}
	var err error
	if loc.Valid() {
		it.location = &loc
	} else {
		it.location = nil
		err = ErrInvalidLocation
	}
	it.updateEditState()
	return err
}

// ClearLocation erases the position.
func (it *Item) ClearLocation() {
	it.location = nil
	it.updateEditState()
}

func (it *Item) Keywords() Keywords { return it.keywords.Clone() }

// AddKeyword appends keyword. Adding an existing keyword again is allowed.
func (it *Item) AddKeyword(keyword string) {
	kws := make(Keywords, 0, len(it.keywords)+1)
	kws = append(kws, it.keywords...)
	it.keywords = append(kws, keyword)
	it.updateEditState()
}

// RemoveKeyword removes the first occurrence of keyword, if any.
func (it *Item) RemoveKeyword(keyword string) {
	kws, ok := it.keywords.Without(keyword)
	if !ok {
		return
	}
	it.keywords = kws
	it.updateEditState()
}

// SetKeywords replaces the keyword sequence.
func (it *Item) SetKeywords(keywords []string) {
	it.keywords = Keywords(keywords).Clone()
	it.updateEditState()
}

func (it *Item) Copyright() string { return it.copyright }

func (it *Item) SetCopyright(notice string) {
	it.copyright = notice
	it.updateEditState()
}

func (it *Item) Description() string { return it.description }

func (it *Item) SetDescription(description string) {
	it.description = description
	it.updateEditState()
}

// CameraSettings is a display summary such as "35 mm, f/5.6, 1/250 s, ISO 100".
func (it *Item) CameraSettings() string { return it.cameraSettings }

func (it *Item) SetCameraSettings(settings string) { it.cameraSettings = settings }

// CameraHardware is a display summary of camera model and lens.
func (it *Item) CameraHardware() string { return it.cameraHardware }

func (it *Item) SetCameraHardware(hardware string) { it.cameraHardware = hardware }

// CameraModel is the bare model name used when renaming files.
func (it *Item) CameraModel() string { return it.cameraModel }

func (it *Item) SetCameraModel(model string) { it.cameraModel = model }

// SetSize stores the pixel dimensions of the original image.
func (it *Item) SetSize(width, height int) {
	it.width, it.height = width, height
}

func (it *Item) Size() (int, int) { return it.width, it.height }

// CheckOrientation returns false if the stored orientation requires a 90°
// turn but the given decoded dimensions equal the original ones, i.e. the
// decoder has already applied the orientation.
func (it *Item) CheckOrientation(width, height int) bool {
	switch it.orientation {
	case 5, 6, 7, 8:
		return !(it.width == width && it.height == height)
	}
	return true
}

// ResetTimezones returns to the saved timezone correction.
func (it *Item) ResetTimezones() {
	it.timezones = it.saved.timezones
	it.updateShiftedTimestamps()
	it.updateEditState()
}

// ResetKeywords returns to the saved keyword sequence.
func (it *Item) ResetKeywords() {
	it.keywords = it.saved.keywords
	it.updateEditState()
}

// ResetLocation returns to the saved location.
func (it *Item) ResetLocation() {
	it.location = cloneLocation(it.saved.location)
	it.updateEditState()
}

func (it *Item) ResetCopyright() {
	it.copyright = it.saved.copyright
	it.updateEditState()
}

func (it *Item) ResetDescription() {
	it.description = it.saved.description
	it.updateEditState()
}

// ResetAll discards every edit including the rotation.
func (it *Item) ResetAll() {
	it.rotation = 0
	it.timezones = it.saved.timezones
	it.updateShiftedTimestamps()
	it.keywords = it.saved.keywords
	it.location = cloneLocation(it.saved.location)
	it.copyright = it.saved.copyright
	it.description = it.saved.description
	it.updateEditState()
}

func cloneLocation(l *Location) *Location {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

func sameLocation(a, b *Location) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
