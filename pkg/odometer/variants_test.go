package odometer

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func testSource(w, h int) SourceImage {
	img := imaging.New(w, h, color.NRGBA{200, 200, 200, 255})
	return SourceImage{Image: img, Name: "test.png", MIME: "image/png", Size: 1, Width: w, Height: h}
}

func variantLabels(vs []Variant) map[string]bool {
	out := map[string]bool{}
	for _, v := range vs {
		out[v.Label] = true
	}
	return out
}

func TestGenerateVariantsThorough(t *testing.T) {
	vs := GenerateVariants(testSource(300, 400), ThoroughConfig())
	labels := variantLabels(vs)
	for _, want := range []string{"orig", "full", "full-bin", "full-bin-inv", "full-adaptive", "bottom-band", "panel", "digit-band"} {
		if !labels[want] {
			t.Fatalf("missing variant %q in %v", want, labels)
		}
	}
	if vs[0].Label != "orig" {
		t.Fatalf("original must come first, got %q", vs[0].Label)
	}
}

func TestGenerateVariantsDeterministic(t *testing.T) {
	src := testSource(200, 300)
	cfg := ThoroughConfig()
	a := GenerateVariants(src, cfg)
	b := GenerateVariants(src, cfg)
	if len(a) != len(b) {
		t.Fatalf("variant count differs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Label != b[i].Label {
			t.Fatalf("variant order differs at %d: %q vs %q", i, a[i].Label, b[i].Label)
		}
	}
}

func TestClampCropOverflow(t *testing.T) {
	bounds := image.Rect(0, 0, 1000, 1000)
	// Extends 20% past the bottom edge; must clamp, not fail.
	rect, ok := clampCrop(CropSpec{Left: 0, Top: 0.9, Right: 1, Bottom: 1.2}, bounds)
	if !ok {
		t.Fatalf("overflowing crop should clamp, not drop")
	}
	if rect.Min.Y != 900 || rect.Max.Y != 1000 {
		t.Fatalf("unexpected clamp %v", rect)
	}
}

func TestClampCropZeroArea(t *testing.T) {
	bounds := image.Rect(0, 0, 1000, 1000)
	if _, ok := clampCrop(CropSpec{Left: 1.05, Top: 0, Right: 1.3, Bottom: 0.5}, bounds); ok {
		t.Fatalf("fully out-of-bounds crop must be dropped")
	}
}

func TestGenerateVariantsDropsZeroAreaCrop(t *testing.T) {
	cfg := MinimalConfig()
	cfg.Crops = []CropSpec{
		{Label: "ghost", Left: 1.1, Top: 0, Right: 1.5, Bottom: 1, Threshold: -1},
		{Label: "band", Left: 0, Top: 0.5, Right: 1, Bottom: 1, Threshold: -1},
	}
	vs := GenerateVariants(testSource(200, 200), cfg)
	labels := variantLabels(vs)
	if labels["ghost"] {
		t.Fatalf("zero-area crop must not be fabricated")
	}
	if !labels["band"] {
		t.Fatalf("remaining crops must survive a dropped sibling")
	}
}
