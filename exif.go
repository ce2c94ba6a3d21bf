package main

import (
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/sirupsen/logrus"

	"photoPreProcessor/gallery"
)

func init() {
	// Register manufacturer-specific note parsers so some vendor fields decode correctly.
	exif.RegisterParsers(mknote.All...)
}

// goexifReader is the pure Go importer used when exiftool is not installed.
// It reads fewer tags: keywords live in IPTC/XMP, which goexif does not parse.
type goexifReader struct{}

func (goexifReader) Read(paths []string) ([]gallery.Record, error) {
	records := make([]gallery.Record, 0, len(paths))
	for _, path := range paths {
		r, err := readExif(path)
		if err != nil {
			// No EXIF block is common for PNGs and scans; the file is still listed.
			logrus.WithFields(logrus.Fields{"file": path, "error": err}).Debug("no exif data")
			r = gallery.Record{Path: path}
		}
		records = append(records, r)
	}
	return records, nil
}

// readExif reads the import record of one file (JPEG or TIFF based formats).
func readExif(path string) (gallery.Record, error) {
	r := gallery.Record{Path: path}

	f, err := os.Open(path)
	if err != nil {
		return r, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return r, err
	}

	str := func(name exif.FieldName) string {
		tag, err := x.Get(name)
		if err != nil {
			return ""
		}
		s, err := tag.StringVal()
		if err != nil {
			return strings.TrimSpace(tag.String())
		}
		return strings.TrimSpace(s)
	}
	rat := func(name exif.FieldName) (float64, bool) {
		tag, err := x.Get(name)
		if err != nil {
			return 0, false
		}
		num, den, err := tag.Rat2(0)
		if err != nil || den == 0 {
			return 0, false
		}
		return float64(num) / float64(den), true
	}
	integer := func(name exif.FieldName) (int, bool) {
		tag, err := x.Get(name)
		if err != nil {
			return 0, false
		}
		i, err := tag.Int(0)
		return i, err == nil
	}

	if t, err := parseExifTime(str(exif.DateTimeOriginal)); err == nil {
		r.CapturedAt = &t
	}
	if o, ok := integer(exif.Orientation); ok {
		r.Orientation = strconv.Itoa(o)
	}
	r.Model = str(exif.Model)
	r.CopyrightRaw = str(exif.Copyright)
	r.Description = str(exif.ImageDescription)

	if v, ok := rat(exif.FocalLength); ok {
		r.FocalLength = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if v, ok := rat(exif.FNumber); ok {
		r.Aperture = formatAperture(v)
	}
	if v, ok := rat(exif.ExposureTime); ok {
		r.ShutterSpeed = formatShutter(v)
	}
	if iso, ok := integer(exif.ISOSpeedRatings); ok {
		r.ISO = strconv.Itoa(iso)
	}
	if w, ok := integer(exif.PixelXDimension); ok {
		r.Width = w
	}
	if h, ok := integer(exif.PixelYDimension); ok {
		r.Height = h
	}

	if lat, lon, err := x.LatLong(); err == nil {
		r.GPS.Latitude, r.GPS.LatitudeRef = strconv.FormatFloat(math.Abs(lat), 'f', -1, 64), "N"
		if lat < 0 {
			r.GPS.LatitudeRef = "S"
		}
		r.GPS.Longitude, r.GPS.LongitudeRef = strconv.FormatFloat(math.Abs(lon), 'f', -1, 64), "E"
		if lon < 0 {
			r.GPS.LongitudeRef = "W"
		}
		if alt, ok := rat(exif.GPSAltitude); ok {
			r.GPS.Elevation = strconv.FormatFloat(alt, 'f', -1, 64)
			if ref, ok := integer(exif.GPSAltitudeRef); ok {
				r.GPS.ElevationRef = strconv.Itoa(ref)
			}
		}
	}

	if thumb, err := x.JpegThumbnail(); err == nil {
		r.Thumbnail = thumb
	}
	return r, nil
}

// embeddedThumbnail returns the EXIF thumbnail of path, if it carries one.
func embeddedThumbnail(path string) []byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	x, err := exif.Decode(f)
	if err != nil {
		return nil
	}
	thumb, err := x.JpegThumbnail()
	if err != nil {
		return nil
	}
	return thumb
}
