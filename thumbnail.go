package main

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"

	"photoPreProcessor/gallery"
	"photoPreProcessor/session"
)

// loadThumbnailSource decodes the embedded EXIF thumbnail if there is one,
// else the image file itself.
func loadThumbnailSource(src session.ThumbnailSource) (image.Image, error) {
	if len(src.Embedded) > 0 {
		if img, err := imaging.Decode(bytes.NewReader(src.Embedded)); err == nil {
			return img, nil
		}
	}
	img, err := imaging.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return img, nil
}

// fitSize scales width x height so that the longer side is maxSize.
func fitSize(width, height, maxSize int) (int, int) {
	if width > height {
		return maxSize, max(1, int(float64(height)*float64(maxSize)/float64(width)))
	}
	return max(1, int(float64(width)*float64(maxSize)/float64(height))), maxSize
}

// orient applies the display transform of an EXIF orientation code: mirror
// first, then rotate clockwise. Code 7 rotates before it mirrors, which
// imaging offers as Transverse.
func orient(img image.Image, code int) image.Image {
	if code == 7 {
		return imaging.Transverse(img)
	}
	t := gallery.TransformFor(code)
	var out image.Image = img
	if t.MirrorHorizontal {
		out = imaging.FlipH(out)
	}
	if t.MirrorVertical {
		out = imaging.FlipV(out)
	}
	// imaging rotates counter-clockwise.
	switch t.Rotate {
	case 90:
		out = imaging.Rotate270(out)
	case 180:
		out = imaging.Rotate180(out)
	case 270:
		out = imaging.Rotate90(out)
	}
	return out
}

// generateThumbnail renders src at maxSize with its effective orientation.
func generateThumbnail(src session.ThumbnailSource, maxSize int) (image.Image, error) {
	img, err := loadThumbnailSource(src)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("empty image %s", src.Path)
	}
	w, h := fitSize(bounds.Dx(), bounds.Dy(), maxSize)
	thumb := imaging.Resize(img, w, h, imaging.Lanczos)
	return orient(thumb, src.Orientation), nil
}

// processThumbnail returns the path of the cached JPEG thumbnail for src,
// rendering it first if needed. Cache entries are keyed by content digest and
// orientation, so a rotation or a changed file gets a fresh entry.
func processThumbnail(src session.ThumbnailSource, thumbDir string, maxSize int) (string, error) {
	key := src.Digest
	if key == "" {
		key = filepath.Base(src.Path)
	}
	thumbPath := filepath.Join(thumbDir, key+"-"+strconv.Itoa(maxSize)+"-"+strconv.Itoa(src.Orientation)+".jpg")
	if _, err := os.Stat(thumbPath); err == nil {
		return thumbPath, nil
	}

	thumb, err := generateThumbnail(src, maxSize)
	if err != nil {
		return "", fmt.Errorf("thumbnail generation failed for %s: %w", filepath.Base(src.Path), err)
	}
	if err := os.MkdirAll(thumbDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create thumbnail directory: %w", err)
	}
	if err := imaging.Save(thumb, thumbPath, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return thumbPath, nil
}
