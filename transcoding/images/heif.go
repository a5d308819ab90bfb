package images

import (
	"image"

	"github.com/adrium/goheif"
)

func init() {
	// iPhone photos are usually heic; mif1 covers other HEIF writers
	image.RegisterFormat("heic", "????ftypheic", goheif.Decode, goheif.DecodeConfig)
	image.RegisterFormat("heic", "????ftypheix", goheif.Decode, goheif.DecodeConfig)
	image.RegisterFormat("heic", "????ftypmif1", goheif.Decode, goheif.DecodeConfig)
}
