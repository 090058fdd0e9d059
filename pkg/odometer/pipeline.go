package odometer

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pipeline extracts a single odometer reading from a decoded photo by
// fanning recognition passes over preprocessed variants and merging the
// per-pass candidates.
type Pipeline struct {
	cfg    Config
	engine Engine
}

func New(cfg Config, engine Engine) *Pipeline {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	return &Pipeline{cfg: cfg, engine: engine}
}

type passJob struct {
	variant Variant
	mode    SegMode
}

// Run executes every (variant, mode) pass and returns the aggregated result.
// Individual pass failures are absorbed into the trace; the only error paths
// are caller cancellation and (upstream of Run) image decoding. A result
// with a nil Value means the photo decoded fine but nothing plausible was
// read — callers should fall back to manual entry.
func (p *Pipeline) Run(ctx context.Context, src SourceImage) (*Result, error) {
	variants := GenerateVariants(src, p.cfg)

	jobs := make([]passJob, 0, len(variants)*len(p.cfg.Modes)+1)
	haveOrigDefault := false
	for _, v := range variants {
		for _, m := range p.cfg.Modes {
			jobs = append(jobs, passJob{variant: v, mode: m})
			if v.Label == "orig" && m == ModeDefault {
				haveOrigDefault = true
			}
		}
	}
	// Tesseract's layout hints all underperform on some cluster photos; one
	// plain pass on the untouched original backstops the cross-product.
	if !haveOrigDefault {
		jobs = append(jobs, passJob{variant: variants[0], mode: ModeDefault})
	}

	passes := make([]RecognitionPass, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Parallelism)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			passes[i] = p.runPass(gctx, job)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked := Aggregate(passes, p.cfg.Weights)
	labels := make([]string, len(variants))
	for i, v := range variants {
		labels[i] = v.Label
	}
	res := &Result{
		Source:   src.info(),
		Variants: labels,
		Passes:   passes,
		Ranked:   ranked,
	}
	if len(ranked) > 0 {
		v := ranked[0].Value
		res.Value = &v
		res.Text = bestPassText(passes, v)
	}
	return res, nil
}

func (p *Pipeline) runPass(ctx context.Context, job passJob) RecognitionPass {
	pass := RecognitionPass{Variant: job.variant.Label, Mode: job.mode}
	raw, err := p.engine.Recognize(ctx, job.variant.Image, job.mode)
	if err != nil {
		pass.Err = err.Error()
		return pass
	}
	pass.OK = true
	pass.RawText = raw
	pass.Text = Normalize(raw, p.cfg.FoldConfusables)
	pass.Candidates = ExtractCandidates(pass.Text, job.variant.Label, job.mode, p.cfg)
	return pass
}

// bestPassText returns the normalized text of the pass that produced the
// highest-scoring candidate for the selected value.
func bestPassText(passes []RecognitionPass, value int64) string {
	bestScore := 0.0
	text := ""
	for _, p := range passes {
		for _, c := range p.Candidates {
			if c.Value == value && (text == "" || c.Score > bestScore) {
				bestScore = c.Score
				text = p.Text
			}
		}
	}
	return text
}
