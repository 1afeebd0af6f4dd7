package optimizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDominatesIsStrictPartialOrder(t *testing.T) {
	pop := []*Individual{
		withObjectives(0, 0),
		withObjectives(0, 1),
		withObjectives(50, 0),
		withObjectives(50, 1),
		withObjectives(1000, 0.5),
		withObjectives(0, 1),
	}

	for _, a := range pop {
		assert.False(t, Dominates(a, a), "irreflexive")
		for _, b := range pop {
			if Dominates(a, b) {
				assert.False(t, Dominates(b, a), "asymmetric")
			}
			for _, c := range pop {
				if Dominates(a, b) && Dominates(b, c) {
					assert.True(t, Dominates(a, c), "transitive")
				}
			}
		}
	}
	assert.False(t, Dominates(pop[1], pop[5]), "equal objectives do not dominate")
	assert.True(t, Dominates(pop[0], pop[3]))
	assert.False(t, Dominates(pop[1], pop[2]))
}

func TestFastNonDominatedSortFronts(t *testing.T) {
	pop := []*Individual{
		withObjectives(100, 2),
		withObjectives(0, 4),
		withObjectives(50, 3),
		withObjectives(200, 5),
		withObjectives(100, 1),
		withObjectives(60, 3),
	}

	fronts := FastNonDominatedSort(pop)

	require.Equal(t, [][]int{{1, 2, 4}, {5, 0}, {3}}, fronts)
	total := 0
	for rank, front := range fronts {
		total += len(front)
		for _, i := range front {
			assert.Equal(t, rank, pop[i].Rank)
			for _, j := range front {
				assert.False(t, Dominates(pop[i], pop[j]), "members of a front are mutually non-dominated")
			}
		}
		if rank == 0 {
			continue
		}
		for _, i := range front {
			dominated := false
			for _, j := range fronts[rank-1] {
				dominated = dominated || Dominates(pop[j], pop[i])
			}
			assert.True(t, dominated, "every later member is dominated by the previous front")
		}
	}
	assert.Equal(t, len(pop), total)
}

func TestAssignCrowdingDistance(t *testing.T) {
	pop := []*Individual{
		withObjectives(0, 4),
		withObjectives(10, 2),
		withObjectives(20, 1),
		withObjectives(40, 0),
	}
	front := []int{0, 1, 2, 3}
	pop[1].Crowding = 99

	AssignCrowdingDistance(pop, front)

	assert.True(t, math.IsInf(pop[0].Crowding, 1))
	assert.True(t, math.IsInf(pop[3].Crowding, 1))
	assert.InDelta(t, 20.0/40.0+3.0/4.0, pop[1].Crowding, 1e-9)
	assert.InDelta(t, 30.0/40.0+2.0/4.0, pop[2].Crowding, 1e-9)
}

func TestAssignCrowdingDistanceDegenerateObjective(t *testing.T) {
	pop := []*Individual{withObjectives(5, 1), withObjectives(5, 2), withObjectives(5, 3)}

	AssignCrowdingDistance(pop, []int{0, 1, 2})

	for _, ind := range pop {
		assert.True(t, math.IsInf(ind.Crowding, 1))
	}
}

func TestBestOfPrefersPenaltyThenVarianceThenIndex(t *testing.T) {
	pop := []*Individual{
		withObjectives(50, 0),
		withObjectives(0, 3),
		withObjectives(0, 1),
		withObjectives(0, 1),
	}

	assert.Equal(t, 2, bestOf(pop, []int{0, 1, 2, 3}))
	assert.Equal(t, 2, bestOf(pop, []int{3, 2}))
}
