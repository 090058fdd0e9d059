package odometer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"reflect"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
)

// stubEngine returns a fixed text for every pass; failMode can poison a
// single segmentation mode to exercise partial failure.
type stubEngine struct {
	mu       sync.Mutex
	calls    int
	text     string
	err      error
	failMode SegMode
	failErr  error
}

func (s *stubEngine) Recognize(ctx context.Context, img image.Image, mode SegMode) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if s.failErr != nil && mode == s.failMode {
		return "", s.failErr
	}
	return s.text, nil
}

func TestPipelineEndToEnd(t *testing.T) {
	src := testSource(1200, 1600)
	engine := &stubEngine{text: "118502 km"}
	cfg := ThoroughConfig()
	res, err := New(cfg, engine).Run(context.Background(), src)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Found() || *res.Value != 118502 {
		t.Fatalf("expected 118502, got %+v", res.Value)
	}
	wantPasses := len(res.Variants)*len(cfg.Modes) + 1 // cross-product + orig/default backstop
	if len(res.Passes) != wantPasses {
		t.Fatalf("expected %d passes, got %d", wantPasses, len(res.Passes))
	}
	if engine.calls != wantPasses {
		t.Fatalf("engine invoked %d times, want %d", engine.calls, wantPasses)
	}
	if res.Ranked[0].Count != wantPasses {
		t.Fatalf("expected occurrence count %d, got %d", wantPasses, res.Ranked[0].Count)
	}
	labels := map[string]bool{}
	for _, l := range res.Variants {
		labels[l] = true
	}
	if !labels["full"] || !labels["bottom-band"] {
		t.Fatalf("expected full-frame and bottom-band variants, got %v", res.Variants)
	}
}

func TestPipelineDeterministic(t *testing.T) {
	src := testSource(300, 400)
	cfg := ThoroughConfig()
	run := func() *Result {
		res, err := New(cfg, &stubEngine{text: "ODO 118502 km 3301"}).Run(context.Background(), src)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return res
	}
	a, b := run(), run()
	if *a.Value != *b.Value {
		t.Fatalf("selected value differs: %d vs %d", *a.Value, *b.Value)
	}
	if !reflect.DeepEqual(a.Ranked, b.Ranked) {
		t.Fatalf("ranking differs between runs:\n%v\n%v", a.Ranked, b.Ranked)
	}
}

func TestPipelineNoCandidate(t *testing.T) {
	res, err := New(MinimalConfig(), &stubEngine{text: "12 9"}).Run(context.Background(), testSource(200, 200))
	if err != nil {
		t.Fatalf("no-candidate must not be an error: %v", err)
	}
	if res.Found() || res.Value != nil {
		t.Fatalf("expected nil value, got %+v", res.Value)
	}
	if len(res.Ranked) != 0 {
		t.Fatalf("expected empty ranking, got %v", res.Ranked)
	}
	for _, p := range res.Passes {
		if !p.OK {
			t.Fatalf("passes should have succeeded: %+v", p)
		}
	}
}

func TestPipelineAbsorbsPassFailures(t *testing.T) {
	engine := &stubEngine{text: "118502 km", failMode: ModeSparse, failErr: fmt.Errorf("engine crashed")}
	res, err := New(ThoroughConfig(), engine).Run(context.Background(), testSource(300, 400))
	if err != nil {
		t.Fatalf("pass failures must not surface: %v", err)
	}
	if !res.Found() || *res.Value != 118502 {
		t.Fatalf("surviving passes should still select the value, got %+v", res.Value)
	}
	failed := 0
	for _, p := range res.Passes {
		if p.Mode == ModeSparse {
			if p.OK || p.Err == "" {
				t.Fatalf("failed pass must carry its error: %+v", p)
			}
			failed++
		}
	}
	if failed == 0 {
		t.Fatalf("expected sparse passes in the trace")
	}
}

func TestPipelineAllFailed(t *testing.T) {
	engine := &stubEngine{err: fmt.Errorf("boom")}
	res, err := New(MinimalConfig(), engine).Run(context.Background(), testSource(200, 200))
	if err != nil {
		t.Fatalf("total pass failure is still a no-candidate outcome: %v", err)
	}
	if res.Found() {
		t.Fatalf("expected no value")
	}
	for _, p := range res.Passes {
		if p.OK || p.Err == "" {
			t.Fatalf("every pass should be recorded failed: %+v", p)
		}
	}
}

func TestPipelineCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(MinimalConfig(), &stubEngine{text: "118502"}).Run(ctx, testSource(100, 100))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDecodeInvalidBytes(t *testing.T) {
	_, err := Decode("junk.png", "image/png", []byte("not an image"))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestDecodeReportsDimensions(t *testing.T) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, testSource(120, 160).Image, imaging.PNG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	src, err := Decode("cluster.png", "image/png", buf.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if src.Width != 120 || src.Height != 160 {
		t.Fatalf("unexpected dimensions %dx%d", src.Width, src.Height)
	}
	if src.Size != int64(buf.Len()) {
		t.Fatalf("size mismatch")
	}
}

func TestResultReportShape(t *testing.T) {
	res, err := New(MinimalConfig(), &stubEngine{text: "odo 118502 km"}).Run(context.Background(), testSource(200, 200))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	rep := res.Report()
	if !rep.OK || rep.Odo == nil || *rep.Odo != 118502 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if len(rep.Debug.Passes) != len(res.Passes) || len(rep.Debug.Ranked) != len(res.Ranked) {
		t.Fatalf("debug trace incomplete: %+v", rep.Debug)
	}
	if rep.Debug.File.Width != 200 {
		t.Fatalf("file info missing: %+v", rep.Debug.File)
	}
}
