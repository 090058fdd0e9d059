package odometer

import "testing"

func passWith(variant string, mode SegMode, cands ...Candidate) RecognitionPass {
	return RecognitionPass{Variant: variant, Mode: mode, OK: true, Candidates: cands}
}

func cand(value int64, strategy string, score float64) Candidate {
	return Candidate{Value: value, Digits: "x", Strategy: strategy, Score: score}
}

func TestAggregateVotingBeatsLoneScore(t *testing.T) {
	w := ThoroughConfig().Weights
	// 18502 has the better individual score but appears once; 118502 was
	// rediscovered by four independent passes.
	passes := []RecognitionPass{
		passWith("full", ModeSingleLine, cand(118502, "run", 6)),
		passWith("full-bin", ModeSingleLine, cand(118502, "run", 6)),
		passWith("bottom-band", ModeSparse, cand(118502, "run", 6)),
		passWith("panel", ModeSingleBlock, cand(118502, "run", 6)),
		passWith("orig", ModeDefault, cand(18502, "run", 8)),
	}
	ranked := Aggregate(passes, w)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 aggregated values, got %v", ranked)
	}
	if ranked[0].Value != 118502 {
		t.Fatalf("expected 118502 on top, got %v", ranked)
	}
	if ranked[0].Count != 4 {
		t.Fatalf("expected count 4, got %d", ranked[0].Count)
	}
	// Boundary: 6 + 4*2.5 = 16 must exceed 8 + 1*2.5 = 10.5.
	if want := 6 + 4*w.Occurrence; ranked[0].RankScore != want {
		t.Fatalf("rank score %f, want %f", ranked[0].RankScore, want)
	}
}

func TestAggregateCountsOncePerPass(t *testing.T) {
	w := ThoroughConfig().Weights
	passes := []RecognitionPass{
		passWith("full", ModeSingleLine,
			cand(118502, "run", 6),
			cand(118502, "km-suffix", 7),
			cand(118502, "window", 5),
		),
	}
	ranked := Aggregate(passes, w)
	if len(ranked) != 1 || ranked[0].Count != 1 {
		t.Fatalf("same pass must count once, got %v", ranked)
	}
	if ranked[0].BestScore != 7 {
		t.Fatalf("best score should be the pass maximum, got %f", ranked[0].BestScore)
	}
}

func TestAggregateTieBreaks(t *testing.T) {
	w := Weights{Occurrence: 2.5}
	// Equal rank scores: 5 + 2*2.5 == 7.5 + 1*2.5.
	passes := []RecognitionPass{
		passWith("full", ModeSingleLine, cand(222222, "run", 5)),
		passWith("full-bin", ModeSingleLine, cand(222222, "run", 5)),
		passWith("orig", ModeDefault, cand(333333, "run", 7.5)),
	}
	ranked := Aggregate(passes, w)
	if ranked[0].Value != 222222 {
		t.Fatalf("count should break the tie, got %v", ranked)
	}

	// Identical score and count: larger value first.
	passes = []RecognitionPass{
		passWith("full", ModeSingleLine, cand(111111, "run", 5), cand(444444, "run", 5)),
	}
	ranked = Aggregate(passes, w)
	if ranked[0].Value != 444444 {
		t.Fatalf("value should break the final tie, got %v", ranked)
	}
}

func TestAggregateEmpty(t *testing.T) {
	ranked := Aggregate([]RecognitionPass{{Variant: "orig", OK: true}}, ThoroughConfig().Weights)
	if len(ranked) != 0 {
		t.Fatalf("expected empty ranking, got %v", ranked)
	}
}
