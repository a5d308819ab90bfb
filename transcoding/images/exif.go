package images

import (
	"bytes"

	"github.com/dsoprea/go-exif/v3"
)

// exifOrientation returns the EXIF orientation (1-8) of src, or 1 when there is none or it cannot be read.
func exifOrientation(src []byte) int {
	rawExif, err := exif.SearchAndExtractExifWithReader(bytes.NewReader(src))
	if err != nil {
		// exif.ErrNoExif included
		return 1
	}

	tags, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return 1
	}

	for _, t := range tags {
		if t.TagName != "Orientation" {
			continue
		}
		var orientation uint16
		switch v := t.Value.(type) {
		case []uint16:
			if len(v) > 0 {
				orientation = v[0]
			}
		case uint16:
			orientation = v
		}
		// Some devices write 0 to mean "no orientation"
		if orientation < 1 || orientation > 8 {
			return 1
		}
		return int(orientation)
	}
	return 1
}

// orientationSwapsAxes reports whether applying the orientation rotates the image by 90 or 270 degrees.
func orientationSwapsAxes(orientation int) bool {
	return orientation >= 5
}
