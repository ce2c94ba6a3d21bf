package main

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoPreProcessor/gallery"
)

func TestRecordFromFields(t *testing.T) {
	fields := map[string]interface{}{
		"Orientation":      float64(6),
		"Keywords":         []interface{}{"beach", "sunset"},
		"FocalLength":      float64(50),
		"ScaleFactor35efl": 1.6,
		"FNumber":          2.8,
		"ExposureTime":     0.004,
		"ISO":              float64(200),
		"Model":            "Canon EOS 40D",
		"Lens":             "EF50mm f/1.8",
		"Copyright":        "(C) 2011 Jane Doe",
		"ImageDescription": "Harbour",
		"ImageWidth":       float64(3888),
		"ImageHeight":      float64(2592),
		"DateTimeOriginal": "2012:07:14 12:30:05.25+02:00",
		"GPSLatitude":      -33.5,
		"GPSLongitude":     151.25,
		"GPSAltitude":      12.0,
		"GPSAltitudeRef":   "0",
	}

	r := recordFromFields("/p/a.jpg", fields)
	assert.Equal(t, "/p/a.jpg", r.Path)
	assert.Equal(t, "6", r.Orientation)
	assert.Equal(t, []string{"beach", "sunset"}, r.Keywords)
	assert.Equal(t, "50", r.FocalLength)
	assert.Equal(t, "1.6", r.CropFactor)
	assert.Equal(t, "2.8", r.Aperture)
	assert.Equal(t, "1/250", r.ShutterSpeed)
	assert.Equal(t, "200", r.ISO)
	assert.Equal(t, "Canon EOS 40D", r.Model)
	assert.Equal(t, "EF50mm f/1.8", r.Lens)
	assert.Equal(t, "(C) 2011 Jane Doe", r.CopyrightRaw)
	assert.Equal(t, "Harbour", r.Description)
	assert.Equal(t, 3888, r.Width)
	assert.Equal(t, 2592, r.Height)
	require.NotNil(t, r.CapturedAt)
	assert.Equal(t, time.Date(2012, 7, 14, 12, 30, 5, 0, time.UTC), *r.CapturedAt)
	assert.Equal(t, gallery.GPS{
		Latitude: "33.5", LatitudeRef: "S",
		Longitude: "151.25", LongitudeRef: "E",
		Elevation: "12", ElevationRef: "0",
	}, r.GPS)
}

func TestRecordFromFieldsFallbacks(t *testing.T) {
	r := recordFromFields("/p/b.jpg", map[string]interface{}{
		"Keywords":     "single",
		"Aperture":     4.0,
		"ShutterSpeed": "2",
		"LensModel":    "  ",
		"Lens":         "18-55",
	})
	assert.Equal(t, []string{"single"}, r.Keywords)
	assert.Equal(t, "4", r.Aperture)
	assert.Equal(t, "2", r.ShutterSpeed)
	assert.Equal(t, "18-55", r.Lens)
	assert.Nil(t, r.CapturedAt)
	assert.Equal(t, gallery.GPS{}, r.GPS)

	it := gallery.NewItemFromRecord(r)
	assert.Equal(t, "b.jpg", it.Filename())
}

func TestFormatShutter(t *testing.T) {
	assert.Equal(t, "1/60", formatShutter(1.0/60))
	assert.Equal(t, "1/8000", formatShutter(0.000125))
	assert.Equal(t, "2.5", formatShutter(2.5))
	assert.Equal(t, "", formatShutter(0.0))
	assert.Equal(t, "", formatShutter(nil))
}

func TestFormatAperture(t *testing.T) {
	assert.Equal(t, "5.6", formatAperture(5.6))
	assert.Equal(t, "1.4", formatAperture(1.4142))
	assert.Equal(t, "", formatAperture(-1.0))
}

func TestParseExifTime(t *testing.T) {
	ts, err := parseExifTime("2020:01:02 03:04:05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC), ts)

	_, err = parseExifTime("2020:01:02")
	assert.Error(t, err)
	_, err = parseExifTime("0000:00:00 00:00:00")
	assert.Error(t, err)
}

func TestGroupParams(t *testing.T) {
	grouped := groupParams([]gallery.Param{
		{Tag: "Keywords", Value: "a"},
		{Tag: "Orientation#", Value: "6"},
		{Tag: "Keywords", Value: "b"},
	})
	assert.Equal(t, map[string][]string{
		"Keywords":     {"a", "b"},
		"Orientation#": {"6"},
	}, grouped)
}

func TestDryRunWriterAcceptsEverything(t *testing.T) {
	w := dryRunWriter{log: quietLogger()}
	assert.NoError(t, w.Write("/p/a.jpg", []gallery.Param{{Tag: "Copyright", Value: ""}}))
}

func TestKeepModTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("before"), 0o644))
	old := time.Date(2009, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, old, old))

	require.NoError(t, keepModTime(path, func() error {
		return os.WriteFile(path, []byte("after"), 0o644)
	}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, old.Equal(info.ModTime()), "got %v", info.ModTime())

	boom := errors.New("boom")
	assert.ErrorIs(t, keepModTime(path, func() error { return boom }), boom)
}

func TestExiftoolWriteKeepsModTime(t *testing.T) {
	if _, err := exec.LookPath("exiftool"); err != nil {
		t.Skip("exiftool not installed")
	}
	path := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, imaging.Save(marked(8, 8), path))
	old := time.Date(2009, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, old, old))

	et, err := openExiftool("")
	require.NoError(t, err)
	defer et.Close()
	require.NoError(t, et.Write(path, []gallery.Param{{Tag: "ImageDescription", Value: "harbour"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, old.Equal(info.ModTime()), "got %v", info.ModTime())
}
