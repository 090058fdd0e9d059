package odometer

import (
	"image"

	"github.com/disintegration/imaging"
)

// Variant is one deterministically preprocessed copy of the source image.
type Variant struct {
	Label string
	Image image.Image
}

// GenerateVariants derives the ordered variant list from the source image.
// The list always starts with the unmodified original, followed by the
// enhanced full frame and any configured crops. Crops that clamp to zero
// area are dropped silently; the remaining variants carry the pipeline.
func GenerateVariants(src SourceImage, cfg Config) []Variant {
	out := []Variant{{Label: "orig", Image: src.Image}}

	full := enhance(src.Image, cfg.FullFrameHeight)
	out = append(out, Variant{Label: "full", Image: full})
	if cfg.FullFrameThreshold >= 0 {
		bin := binarize(full, uint8(cfg.FullFrameThreshold))
		out = append(out, Variant{Label: "full-bin", Image: bin})
		out = append(out, Variant{Label: "full-bin-inv", Image: imaging.Invert(bin)})
	}
	if cfg.Adaptive {
		adv := dilate(adaptiveThreshold(full, 15, 7), 1)
		out = append(out, Variant{Label: "full-adaptive", Image: adv})
	}

	bounds := src.Image.Bounds()
	for _, spec := range cfg.Crops {
		rect, ok := clampCrop(spec, bounds)
		if !ok {
			continue
		}
		crop := imaging.Crop(src.Image, rect)
		cropped := enhance(crop, spec.Height)
		var img image.Image = cropped
		if spec.Threshold >= 0 {
			img = binarize(cropped, uint8(spec.Threshold))
		}
		if spec.Invert {
			img = imaging.Invert(img)
		}
		out = append(out, Variant{Label: spec.Label, Image: img})
	}
	return out
}

// enhance converts to grayscale, lifts contrast, sharpens and upscales to
// the target height when the input is smaller.
func enhance(img image.Image, targetHeight int) *image.NRGBA {
	g := imaging.Grayscale(img)
	g = imaging.AdjustContrast(g, 15)
	g = imaging.Sharpen(g, 0.7)
	if targetHeight > 0 && g.Bounds().Dy() < targetHeight {
		g = imaging.Resize(g, 0, targetHeight, imaging.Lanczos)
	}
	return g
}

// clampCrop resolves fractional crop coordinates against the image bounds.
// Returns ok=false when the clamped rectangle has no area.
func clampCrop(spec CropSpec, bounds image.Rectangle) (image.Rectangle, bool) {
	w := bounds.Dx()
	h := bounds.Dy()
	rect := image.Rect(
		bounds.Min.X+int(spec.Left*float64(w)),
		bounds.Min.Y+int(spec.Top*float64(h)),
		bounds.Min.X+int(spec.Right*float64(w)),
		bounds.Min.Y+int(spec.Bottom*float64(h)),
	)
	rect = rect.Intersect(bounds)
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return image.Rectangle{}, false
	}
	return rect, true
}
