package odometer

import "sort"

// Aggregate merges candidates of equal value across passes. A value counts
// once per pass that found it, however many strategies rediscovered it
// there, so the occurrence count measures agreement between independent
// preprocessing/segmentation passes. The combined rank rewards that
// agreement: rank = best individual score + occurrences × Weights.Occurrence.
func Aggregate(passes []RecognitionPass, w Weights) []AggregatedCandidate {
	type occKey struct {
		variant string
		mode    SegMode
		value   int64
	}
	seen := map[occKey]struct{}{}
	counts := map[int64]int{}
	best := map[int64]float64{}

	for _, p := range passes {
		for _, c := range p.Candidates {
			if s, ok := best[c.Value]; !ok || c.Score > s {
				best[c.Value] = c.Score
			}
			k := occKey{variant: p.Variant, mode: p.Mode, value: c.Value}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			counts[c.Value]++
		}
	}

	out := make([]AggregatedCandidate, 0, len(counts))
	for v, n := range counts {
		out = append(out, AggregatedCandidate{
			Value:     v,
			Count:     n,
			BestScore: best[v],
			RankScore: best[v] + float64(n)*w.Occurrence,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.RankScore != b.RankScore {
			return a.RankScore > b.RankScore
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Value > b.Value
	})
	return out
}
