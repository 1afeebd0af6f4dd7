package optimizer

import (
	"cmp"
	"math"
	"slices"
)

// Dominates reports whether a is no worse than b on every objective and
// strictly better on at least one.
func Dominates(a, b *Individual) bool {
	ao, bo := a.Objectives(), b.Objectives()
	better := false
	for k := range ao {
		if ao[k] > bo[k] {
			return false
		}
		if ao[k] < bo[k] {
			better = true
		}
	}
	return better
}

// FastNonDominatedSort partitions pop into Pareto fronts of indexes and sets
// each member's Rank to its front number.
func FastNonDominatedSort(pop []*Individual) [][]int {
	n := len(pop)
	if n == 0 {
		return nil
	}
	domCount := make([]int, n)
	dominated := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			switch {
			case Dominates(pop[i], pop[j]):
				dominated[i] = append(dominated[i], j)
				domCount[j]++
			case Dominates(pop[j], pop[i]):
				dominated[j] = append(dominated[j], i)
				domCount[i]++
			}
		}
	}

	var front []int
	for i := 0; i < n; i++ {
		if domCount[i] == 0 {
			pop[i].Rank = 0
			front = append(front, i)
		}
	}

	var fronts [][]int
	for rank := 0; len(front) > 0; rank++ {
		fronts = append(fronts, front)
		var next []int
		for _, p := range front {
			for _, q := range dominated[p] {
				domCount[q]--
				if domCount[q] == 0 {
					pop[q].Rank = rank + 1
					next = append(next, q)
				}
			}
		}
		front = next
	}
	return fronts
}

// AssignCrowdingDistance resets and recomputes the crowding distance of the
// members of front. Extremes of each objective get +Inf, as does every member
// when an objective does not vary across the front.
func AssignCrowdingDistance(pop []*Individual, front []int) {
	for _, i := range front {
		pop[i].Crowding = 0
	}
	if len(front) == 0 {
		return
	}
	objectives := len(pop[front[0]].Objectives())
	sorted := slices.Clone(front)
	for k := 0; k < objectives; k++ {
		value := func(i int) float64 { return pop[i].Objectives()[k] }
		slices.SortStableFunc(sorted, func(a, b int) int {
			if c := cmp.Compare(value(a), value(b)); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		lo, hi := value(sorted[0]), value(sorted[len(sorted)-1])
		if hi == lo {
			for _, i := range sorted {
				pop[i].Crowding = math.Inf(1)
			}
			continue
		}
		pop[sorted[0]].Crowding = math.Inf(1)
		pop[sorted[len(sorted)-1]].Crowding = math.Inf(1)
		for j := 1; j < len(sorted)-1; j++ {
			pop[sorted[j]].Crowding += (value(sorted[j+1]) - value(sorted[j-1])) / (hi - lo)
		}
	}
}
