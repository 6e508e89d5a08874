// Package exif extracts best-effort GPS coordinates from image files.
// Extraction failures are an expected, common outcome (most photos carry no
// location data), so the API reports absence rather than errors.
package exif

import (
	"os"

	goexif "github.com/rwcarlsen/goexif/exif"
)

// Location is a decimal-degree coordinate pair.
type Location struct {
	Lat float64
	Lng float64
}

// ExtractGPS reads the EXIF block of the image at path and returns its GPS
// coordinates, or nil when the file is unreadable, carries no EXIF data, or
// the GPS tags are missing or malformed.
func ExtractGPS(path string) *Location {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	x, err := goexif.Decode(f)
	if err != nil {
		return nil
	}

	lat, ok := coordinate(x, goexif.GPSLatitude, goexif.GPSLatitudeRef, "S")
	if !ok {
		return nil
	}
	lng, ok := coordinate(x, goexif.GPSLongitude, goexif.GPSLongitudeRef, "W")
	if !ok {
		return nil
	}

	return &Location{Lat: lat, Lng: lng}
}

// coordinate reads one degrees/minutes/seconds tag plus its hemisphere
// reference and converts it to decimal degrees.
func coordinate(x *goexif.Exif, field, refField goexif.FieldName, negativeRef string) (float64, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, false
	}

	var dms [3]float64
	for i := range dms {
		rat, err := tag.Rat(i)
		if err != nil {
			return 0, false
		}
		dms[i], _ = rat.Float64()
	}

	ref := ""
	if refTag, err := x.Get(refField); err == nil {
		if v, err := refTag.StringVal(); err == nil {
			ref = v
		}
	}

	return applyRef(dmsToDecimal(dms[0], dms[1], dms[2]), ref, negativeRef), true
}

// dmsToDecimal converts a degrees/minutes/seconds triple to decimal degrees.
func dmsToDecimal(degrees, minutes, seconds float64) float64 {
	return degrees + minutes/60 + seconds/3600
}

// applyRef negates the value for the southern/western hemisphere reference.
// A missing reference implies the positive (N/E) hemisphere.
func applyRef(value float64, ref, negativeRef string) float64 {
	if ref == negativeRef {
		return -value
	}
	return value
}
