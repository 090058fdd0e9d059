package odometer

// CropSpec describes a sub-rectangle of the source image in width/height
// fractions. The rectangle is clamped to image bounds at generation time; a
// crop that clamps to zero area is skipped.
type CropSpec struct {
	Label  string
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
	// Height is the upscale target in pixels. Zero keeps the cropped size.
	Height int
	// Threshold is the global binarization level (0..255). Negative disables.
	Threshold int
	Invert    bool
}

// Weights holds every scoring constant used by extraction and aggregation.
// The two historical parameter sets of the extractor live in MinimalConfig
// and ThoroughConfig; nothing in the pipeline hardcodes a weight.
type Weights struct {
	// Length preference: peak for 5-7 digit readings, reduced for 8, floor
	// for everything else inside the accepted window.
	LengthPeak  float64
	LengthEight float64
	LengthOther float64

	// Value-range preference.
	BroadLo, BroadHi   int64
	BroadBonus         float64
	NarrowLo, NarrowHi int64
	NarrowBonus        float64

	// PositionMax is the bonus for a candidate at the very end of the text;
	// earlier candidates receive a proportional fraction.
	PositionMax float64

	KeywordOdo float64
	KeywordKM  float64

	// DiversityMax rewards digit variety up to the cap; zero disables.
	DiversityMax float64
	// LeadingZero is subtracted when the digit string starts with '0'.
	LeadingZero float64

	// Occurrence is the aggregation weight added per pass that
	// independently rediscovered a value.
	Occurrence float64
}

// Config parameterizes one pipeline instance: variant geometry, segmentation
// modes, accepted digit windows and scoring weights.
type Config struct {
	// MinDigits/MaxDigits bound the accepted digit-run length.
	MinDigits int
	MaxDigits int
	// KeywordWindow is the character distance within which "odo"/"km"
	// context counts as near a candidate.
	KeywordWindow int
	// WindowLengths enables sliding fixed-length windows over the stripped
	// digit stream. Empty disables the strategy.
	WindowLengths []int
	// FoldConfusables maps O/I/l/S/B style misreads to digits during
	// normalization.
	FoldConfusables bool

	// FullFrameHeight is the upscale target for the enhanced full-frame
	// variant when the source is smaller.
	FullFrameHeight int
	// FullFrameThreshold adds binarized (and inverted) full-frame variants
	// when non-negative.
	FullFrameThreshold int
	// Adaptive adds a mean-adaptive-threshold full-frame variant.
	Adaptive bool
	Crops    []CropSpec

	// Modes is the segmentation-mode set crossed with every variant. The
	// pipeline always adds one pass on the unmodified original at
	// ModeDefault if the cross-product does not contain it.
	Modes []SegMode

	// Parallelism bounds concurrent recognition passes. Tesseract is
	// CPU/memory heavy, keep this small.
	Parallelism int

	Weights Weights
}

// ThoroughConfig is the full multi-variant, multi-mode parameter set used by
// the upload endpoint.
func ThoroughConfig() Config {
	return Config{
		MinDigits:       4,
		MaxDigits:       8,
		KeywordWindow:   8,
		WindowLengths:   []int{5, 6, 7},
		FoldConfusables: true,

		FullFrameHeight:    1300,
		FullFrameThreshold: 210,
		Adaptive:           true,
		Crops: []CropSpec{
			{Label: "bottom-band", Left: 0, Top: 0.50, Right: 1, Bottom: 1, Height: 700, Threshold: 200},
			{Label: "panel", Left: 0.18, Top: 0.34, Right: 0.82, Bottom: 0.86, Height: 700, Threshold: 200},
			{Label: "panel-inv", Left: 0.18, Top: 0.34, Right: 0.82, Bottom: 0.86, Height: 700, Threshold: 200, Invert: true},
			{Label: "digit-band", Left: 0.25, Top: 0.55, Right: 0.75, Bottom: 0.80, Height: 600, Threshold: 190},
			{Label: "digit-band-inv", Left: 0.25, Top: 0.55, Right: 0.75, Bottom: 0.80, Height: 600, Threshold: 190, Invert: true},
		},

		Modes:       []SegMode{ModeSingleBlock, ModeSingleLine, ModeSparse},
		Parallelism: 2,

		Weights: Weights{
			LengthPeak:  3.0,
			LengthEight: 1.5,
			LengthOther: 0.25,
			BroadLo:     10_000,
			BroadHi:     999_999,
			BroadBonus:  1.0,
			NarrowLo:    50_000,
			NarrowHi:    500_000,
			NarrowBonus: 1.5,
			PositionMax: 0.5,
			KeywordOdo:  2.0,
			KeywordKM:   1.0,
			Occurrence:  2.5,
		},
	}
}

// MinimalConfig is the cheap two-pass parameter set: enhanced full frame plus
// the original, one default segmentation mode, wider digit window.
func MinimalConfig() Config {
	return Config{
		MinDigits:     3,
		MaxDigits:     9,
		KeywordWindow: 8,

		FullFrameHeight:    1200,
		FullFrameThreshold: -1,

		Modes:       []SegMode{ModeDefault},
		Parallelism: 1,

		Weights: Weights{
			LengthPeak:   3.0,
			LengthEight:  1.5,
			LengthOther:  0.25,
			BroadLo:      10_000,
			BroadHi:      999_999,
			BroadBonus:   1.0,
			NarrowLo:     100_000,
			NarrowHi:     400_000,
			NarrowBonus:  1.5,
			PositionMax:  0.5,
			KeywordOdo:   2.0,
			KeywordKM:    1.0,
			DiversityMax: 1.0,
			LeadingZero:  0.5,
			Occurrence:   2.5,
		},
	}
}
