package odometer

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	digitRunRE = regexp.MustCompile(`[0-9]+`)
	// Confusable folding turns "odo"/"ODO" into "0d0"/"0D0", so the keyword
	// is matched through a character class instead of the literal.
	odoKeyRE = regexp.MustCompile(`(?i)[o0]d[o0]`)
)

// ExtractCandidates scans normalized pass text and returns every plausible
// reading with its heuristic score. The strategies are unioned: maximal
// digit runs inside the accepted window, keyword-anchored runs, runs with a
// trailing "km" unit, and (when configured) fixed-length windows slid across
// the stripped digit stream to recover digits the engine split apart.
func ExtractCandidates(text, variant string, mode SegMode, cfg Config) []Candidate {
	if text == "" {
		return nil
	}
	low := strings.ToLower(text)
	odoSpans := odoKeyRE.FindAllStringIndex(text, -1)
	kmIdx := indexAll(low, "km")
	runs := digitRunRE.FindAllStringIndex(text, -1)

	var out []Candidate
	add := func(digits, strategy string, pos, denom int, nearOdo, nearKM bool) {
		v, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return
		}
		posFrac := 0.0
		if denom > 0 {
			posFrac = float64(pos) / float64(denom)
		}
		out = append(out, Candidate{
			Value:    v,
			Digits:   digits,
			Variant:  variant,
			Mode:     mode,
			Strategy: strategy,
			Position: pos,
			Score:    scoreDigits(digits, v, posFrac, nearOdo, nearKM, cfg.Weights),
		})
	}

	near := func(start, end int) (bool, bool) {
		nearOdo := false
		for _, sp := range odoSpans {
			if sp[1] >= start-cfg.KeywordWindow && sp[0] <= end+cfg.KeywordWindow {
				nearOdo = true
				break
			}
		}
		nearKM := false
		for _, i := range kmIdx {
			if i+2 >= start-cfg.KeywordWindow && i <= end+cfg.KeywordWindow {
				nearKM = true
				break
			}
		}
		return nearOdo, nearKM
	}

	for _, loc := range runs {
		digits := text[loc[0]:loc[1]]
		if len(digits) < cfg.MinDigits || len(digits) > cfg.MaxDigits {
			continue
		}
		nearOdo, nearKM := near(loc[0], loc[1])
		add(digits, "run", loc[0], len(text), nearOdo, nearKM)
	}

	// Keyword-anchored: first digit run starting within the window after an
	// "odo" token.
	for _, sp := range odoSpans {
		for _, loc := range runs {
			if loc[0] < sp[1] {
				continue
			}
			if loc[0] > sp[1]+cfg.KeywordWindow {
				break
			}
			digits := text[loc[0]:loc[1]]
			if len(digits) >= cfg.MinDigits && len(digits) <= cfg.MaxDigits {
				nearOdo, nearKM := near(loc[0], loc[1])
				add(digits, "odo-anchor", loc[0], len(text), nearOdo, nearKM)
			}
			break
		}
	}

	// Unit-suffixed: digit run immediately followed by "km".
	for _, loc := range runs {
		tail := low[loc[1]:]
		if !strings.HasPrefix(tail, "km") && !strings.HasPrefix(tail, " km") {
			continue
		}
		digits := text[loc[0]:loc[1]]
		if len(digits) < cfg.MinDigits || len(digits) > cfg.MaxDigits {
			continue
		}
		nearOdo, _ := near(loc[0], loc[1])
		add(digits, "km-suffix", loc[0], len(text), nearOdo, true)
	}

	// Sliding windows over the contiguous digit stream.
	if len(cfg.WindowLengths) > 0 {
		stream := onlyDigits(text)
		for _, l := range cfg.WindowLengths {
			for i := 0; i+l <= len(stream); i++ {
				add(stream[i:i+l], "window", i, len(stream), false, false)
			}
		}
	}
	return out
}

// scoreDigits computes the additive heuristic score of one candidate in
// isolation. Cross-pass agreement is rewarded later, at aggregation.
func scoreDigits(digits string, value int64, posFrac float64, nearOdo, nearKM bool, w Weights) float64 {
	s := 0.0
	switch n := len(digits); {
	case n >= 5 && n <= 7:
		s += w.LengthPeak
	case n == 8:
		s += w.LengthEight
	default:
		s += w.LengthOther
	}
	if value >= w.BroadLo && value <= w.BroadHi {
		s += w.BroadBonus
	}
	if value >= w.NarrowLo && value <= w.NarrowHi {
		s += w.NarrowBonus
	}
	s += posFrac * w.PositionMax
	if nearOdo {
		s += w.KeywordOdo
	}
	if nearKM {
		s += w.KeywordKM
	}
	if w.DiversityMax > 0 {
		s += digitDiversity(digits) * w.DiversityMax
	}
	if w.LeadingZero > 0 && digits[0] == '0' {
		s -= w.LeadingZero
	}
	return s
}

// digitDiversity maps digit variety to [0,1]; "111111" scores 0 so repeated
// segment artifacts rank below genuine readings.
func digitDiversity(digits string) float64 {
	var seen [10]bool
	distinct := 0
	for i := 0; i < len(digits); i++ {
		d := digits[i] - '0'
		if !seen[d] {
			seen[d] = true
			distinct++
		}
	}
	f := float64(distinct-1) / 4
	if f > 1 {
		f = 1
	}
	return f
}

func indexAll(s, sub string) []int {
	var out []int
	for from := 0; ; {
		i := strings.Index(s[from:], sub)
		if i < 0 {
			return out
		}
		out = append(out, from+i)
		from += i + len(sub)
	}
}
