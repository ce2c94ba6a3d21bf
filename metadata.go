package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/barasher/go-exiftool"
	"github.com/sirupsen/logrus"

	"photoPreProcessor/gallery"
)

// metadataReader turns image files into import records.
type metadataReader interface {
	Read(paths []string) ([]gallery.Record, error)
}

// metadataWriter writes tag assignments back into one file.
type metadataWriter interface {
	Write(path string, params []gallery.Param) error
}

// exifTool shares one exiftool process between the importer and the apply
// job. The process handles one request at a time.
type exifTool struct {
	mu sync.Mutex
	et *exiftool.Exiftool
}

// openExiftool starts exiftool in numeric mode, so GPS values, orientation
// and exposure come back as numbers instead of display strings.
func openExiftool(binary string) (*exifTool, error) {
	opts := []func(*exiftool.Exiftool) error{exiftool.NoPrintConversion()}
	if binary != "" {
		opts = append(opts, exiftool.SetExiftoolBinaryPath(binary))
	}
	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}
	return &exifTool{et: et}, nil
}

func (t *exifTool) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.et.Close()
}

// Read extracts the metadata of paths. Files exiftool cannot read are logged
// and left out.
func (t *exifTool) Read(paths []string) ([]gallery.Record, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	t.mu.Lock()
	metadatas := t.et.ExtractMetadata(paths...)
	t.mu.Unlock()

	records := make([]gallery.Record, 0, len(metadatas))
	for _, fm := range metadatas {
		if fm.Err != nil {
			logrus.WithFields(logrus.Fields{"file": fm.File, "error": fm.Err}).Warn("exiftool could not read file")
			continue
		}
		records = append(records, recordFromFields(fm.File, fm.Fields))
	}
	return records, nil
}

// Write applies params to path. Repeated tags, such as one Keywords param per
// keyword, are written as a list.
func (t *exifTool) Write(path string, params []gallery.Param) error {
	fm := exiftool.EmptyFileMetadata()
	fm.File = path
	for tag, values := range groupParams(params) {
		if len(values) == 1 {
			fm.SetString(tag, values[0])
		} else {
			fm.SetStrings(tag, values)
		}
	}
	batch := []exiftool.FileMetadata{fm}
	return keepModTime(path, func() error {
		t.mu.Lock()
		t.et.WriteMetadata(batch)
		t.mu.Unlock()
		if err := batch[0].Err; err != nil {
			return fmt.Errorf("failed to write metadata to %s: %w", path, err)
		}
		return nil
	})
}

// keepModTime runs write and puts the file's modification time back
// afterwards, as exiftool's -P would. The go-exiftool release in use has no
// way to pass -P to the stay_open process.
func keepModTime(path string, write func() error) error {
	info, err := os.Stat(path)
	if err != nil {
		return write()
	}
	if err := write(); err != nil {
		return err
	}
	mtime := info.ModTime()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		return fmt.Errorf("failed to restore modification time of %s: %w", path, err)
	}
	return nil
}

func groupParams(params []gallery.Param) map[string][]string {
	grouped := make(map[string][]string, len(params))
	for _, p := range params {
		grouped[p.Tag] = append(grouped[p.Tag], p.Value)
	}
	return grouped
}

// dryRunWriter logs what would be written and touches nothing.
type dryRunWriter struct {
	log logrus.FieldLogger
}

func (w dryRunWriter) Write(path string, params []gallery.Param) error {
	args := make([]string, len(params))
	for i, p := range params {
		args[i] = p.Arg()
	}
	w.log.WithField("file", path).Infof("dry run: exiftool %s", strings.Join(args, " "))
	return nil
}

// recordFromFields maps exiftool's numeric-mode output to an import record.
func recordFromFields(path string, f map[string]interface{}) gallery.Record {
	r := gallery.Record{
		Path:         path,
		Orientation:  fieldString(f, "Orientation"),
		Keywords:     fieldStrings(f, "Keywords"),
		FocalLength:  fieldString(f, "FocalLength"),
		CropFactor:   fieldString(f, "ScaleFactor35efl"),
		Aperture:     formatAperture(f["FNumber"]),
		ShutterSpeed: formatShutter(f["ExposureTime"]),
		ISO:          fieldString(f, "ISO"),
		Model:        fieldString(f, "Model"),
		Lens:         firstString(f, "LensModel", "Lens"),
		CopyrightRaw: fieldString(f, "Copyright"),
		Description:  fieldString(f, "ImageDescription"),
		Width:        fieldInt(f, "ImageWidth"),
		Height:       fieldInt(f, "ImageHeight"),
	}
	if r.Aperture == "" {
		r.Aperture = formatAperture(f["Aperture"])
	}
	if r.ShutterSpeed == "" {
		r.ShutterSpeed = formatShutter(f["ShutterSpeed"])
	}
	if t, err := parseExifTime(fieldString(f, "DateTimeOriginal")); err == nil {
		r.CapturedAt = &t
	}
	r.GPS = gpsFromFields(f)
	return r
}

// gpsFromFields builds unsigned coordinates plus refs. Composite GPS tags
// come signed in numeric mode, so the sign is moved into the ref when the
// ref itself is missing.
func gpsFromFields(f map[string]interface{}) gallery.GPS {
	coord := func(key, refKey, neg, pos string) (string, string) {
		v, ok := f[key].(float64)
		if !ok {
			return fieldString(f, key), fieldString(f, refKey)
		}
		ref := fieldString(f, refKey)
		if ref == "" {
			ref = pos
			if v < 0 {
				ref = neg
			}
		}
		return strconv.FormatFloat(math.Abs(v), 'f', -1, 64), ref
	}
	var g gallery.GPS
	g.Latitude, g.LatitudeRef = coord("GPSLatitude", "GPSLatitudeRef", "S", "N")
	g.Longitude, g.LongitudeRef = coord("GPSLongitude", "GPSLongitudeRef", "W", "E")
	g.Elevation, g.ElevationRef = coord("GPSAltitude", "GPSAltitudeRef", "1", "0")
	return g
}

func fieldString(f map[string]interface{}, key string) string {
	switch v := f[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func fieldStrings(f map[string]interface{}, key string) []string {
	list, ok := f[key].([]interface{})
	if !ok {
		if s := fieldString(f, key); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s := fieldString(map[string]interface{}{key: v}, key); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstString(f map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := f[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func fieldInt(f map[string]interface{}, key string) int {
	switch v := f[key].(type) {
	case float64:
		return int(v)
	case string:
		i, _ := strconv.Atoi(v)
		return i
	}
	return 0
}

// formatShutter renders exposure seconds the way cameras print them:
// fractions below one second as 1/N.
func formatShutter(v interface{}) string {
	switch s := v.(type) {
	case float64:
		if s <= 0 {
			return ""
		}
		if s < 1 {
			return "1/" + strconv.Itoa(int(math.Round(1/s)))
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case string:
		return strings.TrimSpace(s)
	}
	return ""
}

func formatAperture(v interface{}) string {
	switch a := v.(type) {
	case float64:
		if a <= 0 {
			return ""
		}
		return strconv.FormatFloat(math.Round(a*10)/10, 'f', -1, 64)
	case string:
		return strings.TrimSpace(a)
	}
	return ""
}

// parseExifTime reads "2006:01:02 15:04:05" and ignores any trailing
// sub-second or offset part. The result is a naive wall clock carried in UTC.
func parseExifTime(s string) (time.Time, error) {
	if len(s) < len(exifLayout) {
		return time.Time{}, fmt.Errorf("unable to parse exif time: %q", s)
	}
	return time.ParseInLocation(exifLayout, s[:len(exifLayout)], time.UTC)
}

const exifLayout = "2006:01:02 15:04:05"
