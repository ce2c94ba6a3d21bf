package gallery

import (
	"strconv"
	"strings"
)

// Applying 90° clockwise steps moves an EXIF orientation along one of two
// cycles, depending on whether the image is mirrored.
var (
	cycleStandard = [4]int{1, 6, 3, 8}
	cycleMirrored = [4]int{2, 7, 4, 5}
)

// orientationNames maps exiftool's printed orientation values to codes.
var orientationNames = map[string]int{
	"Horizontal (normal)":                 1,
	"Standard (normal)":                   1,
	"Mirror horizontal":                   2,
	"Rotate 180":                          3,
	"Mirror vertical":                     4,
	"Mirror horizontal and rotate 270 CW": 5,
	"Rotate 90 CW":                        6,
	"Mirror horizontal and rotate 90 CW":  7,
	"Rotate 270 CW":                       8,
}

// ParseOrientation accepts an orientation code or its exiftool name.
// Numeric values are clamped to [1,8].
func ParseOrientation(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if code, ok := orientationNames[s]; ok {
		return code, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return max(min(int(f), 8), 1), true
}

// Rotate returns the orientation code reached from code after rotating the
// image by degrees clockwise. degrees must be a multiple of 90.
func Rotate(code, degrees int) int {
	if degrees%360 == 0 {
		return code
	}
	steps := ((degrees/90)%4 + 4) % 4
	for _, cycle := range [][4]int{cycleStandard, cycleMirrored} {
		for i, c := range cycle {
			if c == code {
				return cycle[(i+steps)%4]
			}
		}
	}
	return code
}

// Transform describes how to turn a stored image so that it displays upright:
// mirror first, then rotate clockwise by Rotate degrees. Code 7 is the
// exception: its rotation comes before the mirror, making it a transverse.
type Transform struct {
	MirrorHorizontal bool `json:"mirrorHorizontal"`
	MirrorVertical   bool `json:"mirrorVertical"`
	Rotate           int  `json:"rotate"`
}

// Identity reports whether the transform leaves the image unchanged.
func (t Transform) Identity() bool {
	return t == Transform{}
}

// TransformFor returns the display transform for an orientation code.
func TransformFor(code int) Transform {
	switch code {
	case 2:
		return Transform{MirrorHorizontal: true}
	case 3:
		return Transform{Rotate: 180}
	case 4:
		return Transform{MirrorVertical: true}
	case 5:
		return Transform{MirrorHorizontal: true, Rotate: 270}
	case 6:
		return Transform{Rotate: 90}
	case 7:
		return Transform{MirrorVertical: true, Rotate: 90}
	case 8:
		return Transform{Rotate: 270}
	}
	return Transform{}
}
