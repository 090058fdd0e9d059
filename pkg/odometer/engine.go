package odometer

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// SegMode is a layout hint for the recognition engine.
type SegMode int

const (
	ModeDefault SegMode = iota
	ModeSingleBlock
	ModeSingleLine
	ModeSingleWord
	ModeSparse
)

func (m SegMode) String() string {
	switch m {
	case ModeSingleBlock:
		return "single-block"
	case ModeSingleLine:
		return "single-line"
	case ModeSingleWord:
		return "single-word"
	case ModeSparse:
		return "sparse"
	default:
		return "default"
	}
}

// Engine runs text recognition over one prepared image. Implementations must
// be safe for concurrent use; the pipeline fans passes out across goroutines.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, mode SegMode) (string, error)
}

// Whitelist restricted to digits plus the separators and unit letters that
// help locate the reading ("km", "odo") and the letters LCD fonts commonly
// produce in place of digits.
const defaultWhitelist = "0123456789OoDdIlSsBkmKM.,:|- "

// TesseractEngine recognizes text via gosseract. A fresh client is built per
// invocation; sharing one client across concurrent passes is not safe.
type TesseractEngine struct {
	Language  string
	Whitelist string
}

func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{Language: "eng", Whitelist: defaultWhitelist}
}

func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image, mode SegMode) (string, error) {
	// gosseract has no cancellation hook; honor the context between the
	// expensive steps instead.
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "odo-*.png")
	if err != nil {
		return "", fmt.Errorf("temp image: %w", err)
	}
	_ = tmp.Close()
	defer os.Remove(tmp.Name())
	if err := imaging.Save(img, tmp.Name()); err != nil {
		return "", fmt.Errorf("save variant: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()
	_ = client.SetLanguage(e.Language)
	_ = client.SetWhitelist(e.Whitelist)
	_ = client.SetPageSegMode(pageSegMode(mode))
	client.SetImage(tmp.Name())
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}

func pageSegMode(m SegMode) gosseract.PageSegMode {
	switch m {
	case ModeSingleBlock:
		return gosseract.PSM_SINGLE_BLOCK
	case ModeSingleLine:
		return gosseract.PSM_SINGLE_LINE
	case ModeSingleWord:
		return gosseract.PSM_SINGLE_WORD
	case ModeSparse:
		return gosseract.PSM_SPARSE_TEXT
	default:
		return gosseract.PSM_AUTO
	}
}
