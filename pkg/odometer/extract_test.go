package odometer

import "testing"

func maxScoreFor(cands []Candidate, value int64) (float64, bool) {
	best := 0.0
	found := false
	for _, c := range cands {
		if c.Value != value {
			continue
		}
		if !found || c.Score > best {
			best = c.Score
			found = true
		}
	}
	return best, found
}

func TestExtractOdoKeywordWins(t *testing.T) {
	cfg := ThoroughConfig()
	text := Normalize("ODO 123456 KM some id 1234 elsewhere", cfg.FoldConfusables)
	cands := ExtractCandidates(text, "full", ModeSingleLine, cfg)

	winner, ok := maxScoreFor(cands, 123456)
	if !ok {
		t.Fatalf("expected a candidate for 123456, got %v", cands)
	}
	distractor, ok := maxScoreFor(cands, 1234)
	if !ok {
		t.Fatalf("expected the 4-digit distractor to be extracted too")
	}
	if winner <= distractor {
		t.Fatalf("keyword+length bonuses should beat the distractor: %f <= %f", winner, distractor)
	}
}

func TestExtractNoAcceptableRuns(t *testing.T) {
	cfg := ThoroughConfig()
	cands := ExtractCandidates("only 12 and 9", "full", ModeSingleLine, cfg)
	if len(cands) != 0 {
		t.Fatalf("expected no candidates, got %v", cands)
	}
}

func TestExtractSlidingWindowRecovery(t *testing.T) {
	cfg := ThoroughConfig()
	// Engine split the reading into spurious tokens; only the stripped
	// digit stream can recover it.
	cands := ExtractCandidates("11 85 02", "full", ModeSparse, cfg)
	found := false
	for _, c := range cands {
		if c.Value == 118502 && c.Strategy == "window" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected window candidate 118502, got %v", cands)
	}
}

func TestExtractKMSuffixStrategy(t *testing.T) {
	cfg := ThoroughConfig()
	cands := ExtractCandidates("118502 km", "orig", ModeDefault, cfg)
	found := false
	for _, c := range cands {
		if c.Value == 118502 && c.Strategy == "km-suffix" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected km-suffix candidate, got %v", cands)
	}
}

func TestExtractMinimalSkipsWindows(t *testing.T) {
	cfg := MinimalConfig()
	cands := ExtractCandidates("11 85 02", "orig", ModeDefault, cfg)
	for _, c := range cands {
		if c.Strategy == "window" {
			t.Fatalf("minimal preset must not slide windows: %v", c)
		}
	}
}

func TestScoreDigitDiversity(t *testing.T) {
	w := MinimalConfig().Weights
	repetitive := scoreDigits("111111", 111111, 0, false, false, w)
	varied := scoreDigits("118502", 118502, 0, false, false, w)
	if varied <= repetitive {
		t.Fatalf("diversity bonus missing: %f <= %f", varied, repetitive)
	}
}

func TestScoreLeadingZeroPenalty(t *testing.T) {
	w := MinimalConfig().Weights
	withZero := scoreDigits("012345", 12345, 0, false, false, w)
	without := scoreDigits("12345", 12345, 0, false, false, w)
	if without-withZero != w.LeadingZero {
		t.Fatalf("expected leading-zero penalty %f, got gap %f", w.LeadingZero, without-withZero)
	}
}

func TestScorePositionBias(t *testing.T) {
	w := ThoroughConfig().Weights
	early := scoreDigits("118502", 118502, 0.1, false, false, w)
	late := scoreDigits("118502", 118502, 0.9, false, false, w)
	if late <= early {
		t.Fatalf("later candidates should score higher: %f <= %f", late, early)
	}
}
