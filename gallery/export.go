package gallery

import (
	"math"
	"strconv"
)

// exifTimeLayout is the EXIF "YYYY:MM:DD HH:MM:SS" date format.
const exifTimeLayout = "2006:01:02 15:04:05"

// Param is one tag assignment for the metadata writer. A trailing '#' on the
// tag asks for the raw numeric value to be written.
type Param struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// Arg renders the parameter as an exiftool command line argument.
func (p Param) Arg() string {
	return "-" + p.Tag + "=" + p.Value
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ExportParams lists the tag assignments needed to write the item's edits
// back to its file. Items that are not edited yield nil.
func (it *Item) ExportParams() []Param {
	if !it.edited {
		return nil
	}
	var params []Param

	if it.editedOrientation {
		params = append(params, Param{"Orientation#", strconv.Itoa(it.EffectiveOrientation())})
	}

	if it.editedLocation {
		var lat, latRef, lon, lonRef, ele, eleRef string
		if loc := it.location; loc != nil {
			lat, lon, ele = formatFloat(math.Abs(loc.Latitude)), formatFloat(math.Abs(loc.Longitude)), formatFloat(math.Abs(loc.Elevation))
			latRef, lonRef, eleRef = "N", "E", "0"
			if loc.Latitude < 0 {
				latRef = "S"
			}
			if loc.Longitude < 0 {
				lonRef = "W"
			}
			if loc.Elevation < 0 {
				eleRef = "1"
			}
		}
		params = append(params,
			Param{"GPSLatitude#", lat},
			Param{"GPSLatitudeRef#", latRef},
			Param{"GPSLongitude#", lon},
			Param{"GPSLongitudeRef#", lonRef},
			Param{"GPSAltitude#", ele},
			Param{"GPSAltitudeRef#", eleRef},
		)
	}

	if it.editedTimezones && it.shifted != nil && it.utc != nil {
		utc := it.utc.Format(exifTimeLayout)
		params = append(params,
			Param{"AllDates", it.shifted.Format(exifTimeLayout)},
			Param{"GPSDateStamp", utc},
			Param{"GPSTimeStamp", utc},
		)
	}

	if it.editedKeywords {
		if len(it.keywords) == 0 {
			params = append(params, Param{"Keywords", ""})
		}
		for _, kw := range it.keywords {
			params = append(params, Param{"Keywords", kw})
		}
	}

	if it.editedCopyright {
		notice := ""
		if it.copyright != "" {
			notice = "(C) "
			if it.shifted != nil {
				notice += strconv.Itoa(it.shifted.Year()) + " "
			}
			notice += it.copyright
		}
		params = append(params, Param{"Copyright", notice})
	}

	if it.editedDescription {
		params = append(params, Param{"ImageDescription", it.description})
	}
	return params
}
