package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"photoPreProcessor/gallery"
)

// scanDirectory lists the image files directly inside dir, sorted by path.
// Files are recognised by content, not by extension.
func scanDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		mtype, err := mimetype.DetectFile(path)
		if err != nil {
			logrus.WithFields(logrus.Fields{"file": path, "error": err}).Warn("mime detection failed")
			continue
		}
		if !strings.HasPrefix(mtype.String(), "image/") {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// importDirectory scans dir and reads the metadata of every image in it.
// An empty directory yields no records and no error.
func importDirectory(dir string, reader metadataReader) ([]gallery.Record, error) {
	paths, err := scanDirectory(dir)
	if err != nil {
		return nil, err
	}
	records, err := reader.Read(paths)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata in %s: %w", dir, err)
	}
	for i := range records {
		r := &records[i]
		hash, err := computeFileHash(r.Path)
		if err != nil {
			logrus.WithFields(logrus.Fields{"file": r.Path, "error": err}).Warn("failed to compute hash")
		}
		r.Digest = hash
		if r.Thumbnail == nil {
			r.Thumbnail = embeddedThumbnail(r.Path)
		}
		if r.CapturedAt == nil {
			r.CapturedAt = fileTime(r.Path)
		}
	}
	logrus.WithFields(logrus.Fields{"directory": dir, "images": len(records)}).Info("directory imported")
	return records, nil
}

// fileTime stands in for a missing capture time. The modification time is
// used as portable creation times do not exist; like EXIF dates it is taken
// as a local wall clock without a zone.
func fileTime(path string) *time.Time {
	info, err := os.Stat(path)
	if err != nil {
		logrus.WithFields(logrus.Fields{"file": path, "error": err}).Debug("no file time")
		return nil
	}
	mt := info.ModTime().Local()
	naive := time.Date(mt.Year(), mt.Month(), mt.Day(), mt.Hour(), mt.Minute(), mt.Second(), 0, time.UTC)
	return &naive
}

func computeFileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
