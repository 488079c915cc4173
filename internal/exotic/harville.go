package exotic

import (
	"sort"

	"github.com/yourusername/clever-handicapper/internal/models"
)

// minRemaining guards the Harville denominators against a field already exhausted
const minRemaining = 1e-12

// Harville returns the probability of horses finishing in exactly the given order,
// treating each later position as a fresh race among the remaining horses
func Harville(order []string, probs map[string]float64) float64 {
	p := 1.0
	remaining := 1.0
	for _, h := range order {
		ph, ok := probs[h]
		if !ok || remaining <= minRemaining {
			return 0
		}
		p *= ph / remaining
		remaining -= ph
	}
	return p
}

// FinishWithin returns the Harville probability that horse finishes in the first positions places
func FinishWithin(horse string, positions int, probs map[string]float64) float64 {
	ph, ok := probs[horse]
	if !ok || positions <= 0 {
		return 0
	}
	others := make([]string, 0, len(probs))
	for _, h := range sortedHorses(probs) {
		if h != horse {
			others = append(others, h)
		}
	}

	total := 0.0
	// ahead is the number of horses finishing in front of horse
	for ahead := 0; ahead < positions && ahead <= len(others); ahead++ {
		forEachPermutation(others, ahead, func(prefix []string) {
			p := Harville(prefix, probs)
			if p == 0 && ahead > 0 {
				return
			}
			remaining := 1.0
			for _, h := range prefix {
				remaining -= probs[h]
			}
			if remaining <= minRemaining {
				return
			}
			total += p * ph / remaining
		})
	}
	return total
}

// sortedHorses returns the map keys in program order so float sums are reproducible
func sortedHorses(probs map[string]float64) []string {
	out := make([]string, 0, len(probs))
	for h := range probs {
		out = append(out, h)
	}
	sortPrograms(out)
	return out
}

func sortPrograms(horses []string) {
	sort.Slice(horses, func(i, j int) bool {
		ni, si := models.ProgramSortKey(horses[i])
		nj, sj := models.ProgramSortKey(horses[j])
		if ni != nj {
			return ni < nj
		}
		if si != sj {
			return si < sj
		}
		return horses[i] < horses[j]
	})
}

// forEachPermutation calls fn with every ordered selection of k items; fn must not retain the slice
func forEachPermutation(items []string, k int, fn func([]string)) {
	if k < 0 || k > len(items) {
		return
	}
	used := make([]bool, len(items))
	prefix := make([]string, 0, k)
	var walk func()
	walk = func() {
		if len(prefix) == k {
			fn(prefix)
			return
		}
		for i, item := range items {
			if used[i] {
				continue
			}
			used[i] = true
			prefix = append(prefix, item)
			walk()
			prefix = prefix[:len(prefix)-1]
			used[i] = false
		}
	}
	walk()
}
