package stats

import (
	"sort"

	"github.com/physicsrob/didah-sub001/internal/model"
)

// SelectWeakChars selects the lowest-accuracy characters from
// aggregates, breaking ties toward the slower average latency.
func SelectWeakChars(aggs []model.CharAggregate, top int) map[rune]struct{} {
	weakSet := map[rune]struct{}{}
	if len(aggs) == 0 {
		return weakSet
	}
	candidates := make([]model.CharAggregate, len(aggs))
	copy(candidates, aggs)
	sort.Slice(candidates, func(i, j int) bool {
		ai := CharAccuracy(candidates[i])
		aj := CharAccuracy(candidates[j])
		if ai != aj {
			return ai < aj
		}
		li := AvgLatencyMs(candidates[i])
		lj := AvgLatencyMs(candidates[j])
		if li != lj {
			return li > lj
		}
		return candidates[i].Char < candidates[j].Char
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	for i := 0; i < top; i++ {
		runes := []rune(candidates[i].Char)
		if len(runes) > 0 {
			weakSet[runes[0]] = struct{}{}
		}
	}
	return weakSet
}
