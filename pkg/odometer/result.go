package odometer

import "image"

// SourceImage is the decoded, orientation-corrected input photo.
type SourceImage struct {
	Image  image.Image
	Name   string
	MIME   string
	Size   int64
	Width  int
	Height int
}

// FileInfo is the boundary description of the uploaded file.
type FileInfo struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Size   int64  `json:"size"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (s SourceImage) info() FileInfo {
	return FileInfo{Name: s.Name, Type: s.MIME, Size: s.Size, Width: s.Width, Height: s.Height}
}

// Candidate is one numeric string found in a single pass's text.
type Candidate struct {
	Value    int64   `json:"value"`
	Digits   string  `json:"digits"`
	Variant  string  `json:"variant"`
	Mode     SegMode `json:"mode"`
	Strategy string  `json:"strategy"`
	Position int     `json:"position"`
	Score    float64 `json:"score"`
}

// RecognitionPass is the immutable record of one engine invocation.
type RecognitionPass struct {
	Variant    string      `json:"variant"`
	Mode       SegMode     `json:"mode"`
	OK         bool        `json:"ok"`
	Err        string      `json:"error,omitempty"`
	RawText    string      `json:"rawText,omitempty"`
	Text       string      `json:"text,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// AggregatedCandidate merges equal-valued candidates across passes.
type AggregatedCandidate struct {
	Value     int64   `json:"value"`
	Count     int     `json:"count"`
	BestScore float64 `json:"bestScore"`
	RankScore float64 `json:"rankScore"`
}

// Result is the pipeline output: the selected reading (nil when nothing
// plausible was found) plus the full ranked list and per-pass trace.
type Result struct {
	Value    *int64                `json:"value"`
	Text     string                `json:"text"`
	Source   FileInfo              `json:"source"`
	Variants []string              `json:"variants"`
	Passes   []RecognitionPass     `json:"passes"`
	Ranked   []AggregatedCandidate `json:"ranked"`
}

// Found reports whether a reading was selected.
func (r *Result) Found() bool { return r != nil && r.Value != nil }

// Report is the loosely-shaped JSON document handed to HTTP callers.
type Report struct {
	OK    bool        `json:"ok"`
	Odo   *int64      `json:"odo"`
	Value *int64      `json:"value"`
	Text  string      `json:"text"`
	Debug ReportDebug `json:"debug"`
}

type ReportDebug struct {
	File     FileInfo       `json:"file"`
	Variants []string       `json:"variants"`
	Passes   []PassReport   `json:"passes"`
	Ranked   []RankedReport `json:"ranked"`
}

type PassReport struct {
	Label       string  `json:"label"`
	Mode        string  `json:"mode"`
	TextPreview string  `json:"textPreview"`
	Candidates  []int64 `json:"candidates"`
	Error       string  `json:"error,omitempty"`
}

type RankedReport struct {
	Value int64   `json:"value"`
	Count int     `json:"count"`
	Score float64 `json:"score"`
}

const previewLen = 160

// Report flattens the result into the external JSON shape.
func (r *Result) Report() Report {
	rep := Report{
		OK:    r.Found(),
		Odo:   r.Value,
		Value: r.Value,
		Text:  r.Text,
		Debug: ReportDebug{
			File:     r.Source,
			Variants: r.Variants,
		},
	}
	for _, p := range r.Passes {
		pr := PassReport{
			Label:       p.Variant,
			Mode:        p.Mode.String(),
			TextPreview: snippet(p.Text, previewLen),
			Error:       p.Err,
		}
		for _, c := range p.Candidates {
			pr.Candidates = append(pr.Candidates, c.Value)
		}
		rep.Debug.Passes = append(rep.Debug.Passes, pr)
	}
	for _, a := range r.Ranked {
		rep.Debug.Ranked = append(rep.Debug.Ranked, RankedReport{Value: a.Value, Count: a.Count, Score: a.RankScore})
	}
	return rep
}

// snippet returns a shortened version of text for previews.
func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
