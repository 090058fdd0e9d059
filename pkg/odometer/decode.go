package odometer

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Decode parses uploaded bytes into a SourceImage. EXIF orientation is
// applied here so the fractional crop coordinates of the variant generator
// refer to the upright photo.
func Decode(name, mime string, data []byte) (SourceImage, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return SourceImage{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	b := img.Bounds()
	return SourceImage{
		Image:  img,
		Name:   name,
		MIME:   mime,
		Size:   int64(len(data)),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}
