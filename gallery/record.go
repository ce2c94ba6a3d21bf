package gallery

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// GPS holds the raw GPS tags of a photo as the metadata tool reports them.
// Coordinates are unsigned; the Ref fields carry the sign.
type GPS struct {
	Latitude     string `json:"latitude"`
	LatitudeRef  string `json:"latitudeRef"`
	Longitude    string `json:"longitude"`
	LongitudeRef string `json:"longitudeRef"`
	Elevation    string `json:"elevation"`
	ElevationRef string `json:"elevationRef"`
}

// Record is one entry of the metadata import feed.
type Record struct {
	Path         string
	Digest       string
	Orientation  string
	CapturedAt   *time.Time
	Keywords     []string
	FocalLength  string
	CropFactor   string
	Aperture     string
	ShutterSpeed string
	ISO          string
	Model        string
	Lens         string
	CopyrightRaw string
	Description  string
	GPS          GPS
	Thumbnail    []byte
	Width        int
	Height       int
}

var copyrightPattern = regexp.MustCompile(`^(©|\(C\)|\(c\)) \d{4} (.*)`)

// ParseCopyright strips a leading "(C) 2012 " style prefix, returning the
// holder. Strings without the prefix are returned as they are.
func ParseCopyright(raw string) string {
	if m := copyrightPattern.FindStringSubmatch(raw); m != nil {
		return m[2]
	}
	return raw
}

// Location converts the raw GPS tags to a signed position. A missing or
// unparsable elevation counts as sea level.
func (g GPS) Location() (Location, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(g.Latitude), 64)
	if err != nil {
		return Location{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(g.Longitude), 64)
	if err != nil {
		return Location{}, false
	}
	if strings.HasPrefix(strings.ToUpper(g.LatitudeRef), "S") {
		lat = -lat
	}
	if strings.HasPrefix(strings.ToUpper(g.LongitudeRef), "W") {
		lon = -lon
	}
	ele, err := strconv.ParseFloat(strings.TrimSpace(g.Elevation), 64)
	if err != nil {
		ele = 0
	}
	if strings.TrimSpace(g.ElevationRef) == "1" {
		ele = -ele
	}
	return Location{Latitude: lat, Longitude: lon, Elevation: ele}, true
}

// CameraSettings builds the settings summary, e.g.
// "35 mm (on full-frame), f/5.6, 1/250 s, ISO 100".
func (r Record) CameraSettings() string {
	var settings []string
	if r.FocalLength != "" {
		focal, ferr := strconv.ParseFloat(r.FocalLength, 64)
		crop, cerr := strconv.ParseFloat(r.CropFactor, 64)
		if ferr == nil && cerr == nil {
			settings = append(settings, fmt.Sprintf("%d mm (on full-frame)", int(focal*crop)))
		} else {
			settings = append(settings, r.FocalLength+" (physical)")
		}
	}
	if r.Aperture != "" {
		settings = append(settings, "f/"+r.Aperture)
	}
	if r.ShutterSpeed != "" {
		settings = append(settings, r.ShutterSpeed+" s")
	}
	if r.ISO != "" {
		settings = append(settings, "ISO "+r.ISO)
	}
	return strings.Join(settings, ", ")
}

// CameraHardware joins model and lens, skipping values the tool reports as
// unknown.
func (r Record) CameraHardware() string {
	var hw []string
	for _, s := range []string{r.Model, r.Lens} {
		if s != "" && !strings.HasPrefix(s, "Unknown") {
			hw = append(hw, s)
		}
	}
	return strings.Join(hw, ", ")
}

// NewItemFromRecord populates an item from an import record and fixes its
// baseline. The caller supplies a fallback for a missing CapturedAt.
func NewItemFromRecord(r Record, opts ...Option) *Item {
	it := NewItem(filepath.Base(r.Path), opts...)
	it.SetDigest(r.Digest)
	if code, ok := ParseOrientation(r.Orientation); ok {
		it.SetOrientation(code)
	}
	if r.CapturedAt != nil {
		it.SetCapturedAt(*r.CapturedAt)
	}
	it.SetKeywords(r.Keywords)
	it.SetCameraSettings(r.CameraSettings())
	it.SetCameraHardware(r.CameraHardware())
	it.SetCameraModel(r.Model)
	if r.CopyrightRaw != "" {
		it.SetCopyright(ParseCopyright(r.CopyrightRaw))
	}
	it.SetDescription(r.Description)
	if loc, ok := r.GPS.Location(); ok {
		_ = it.SetLocation(loc.Latitude, loc.Longitude, loc.Elevation)
	}
	if r.Width > 0 && r.Height > 0 {
		it.SetSize(r.Width, r.Height)
	}
	it.SaveState()
	return it
}
