package optimizer

// tournament draws two members uniformly and keeps the fitter one.
func (r *run) tournament(pop []*Individual) *Individual {
	a := pop[r.rng.IntN(len(pop))]
	b := pop[r.rng.IntN(len(pop))]
	return fitter(a, b)
}

// fitter prefers the lower rank, then the larger crowding distance; a full
// tie keeps a.
func fitter(a, b *Individual) *Individual {
	switch {
	case a.Rank < b.Rank:
		return a
	case b.Rank < a.Rank:
		return b
	case b.Crowding > a.Crowding:
		return b
	default:
		return a
	}
}

// crossover exchanges gene tails after a random cut in [1, len-1]. Children
// are always fresh copies.
func (r *run) crossover(p1, p2 *Individual) ([]Gene, []Gene) {
	c1, c2 := p1.cloneGenes(), p2.cloneGenes()
	if r.rng.Float64() >= r.cfg.CrossoverProbability || len(c1) < 2 {
		return c1, c2
	}
	cut := 1 + r.rng.IntN(len(c1)-1)
	for i := cut; i < len(c1); i++ {
		c1[i], c2[i] = p2.Genes[i], p1.Genes[i]
	}
	return c1, c2
}

// mutate makes len(genes) attempts, each swapping the (day, timeslot) of two
// distinct genes with the mutation probability. Rooms stay where they are.
func (r *run) mutate(genes []Gene) {
	n := len(genes)
	if n < 2 {
		return
	}
	for attempt := 0; attempt < n; attempt++ {
		if r.rng.Float64() >= r.cfg.MutationProbability {
			continue
		}
		i := r.rng.IntN(n)
		j := r.rng.IntN(n - 1)
		if j >= i {
			j++
		}
		genes[i].Day, genes[j].Day = genes[j].Day, genes[i].Day
		genes[i].TimeSlotID, genes[j].TimeSlotID = genes[j].TimeSlotID, genes[i].TimeSlotID
	}
}

// makeOffspring breeds exactly len(pop) children from a ranked population.
func (r *run) makeOffspring(pop []*Individual) []*Individual {
	target := len(pop)
	out := make([]*Individual, 0, target)
	for len(out) < target {
		p1 := r.tournament(pop)
		p2 := r.tournament(pop)
		c1, c2 := r.crossover(p1, p2)
		r.mutate(c1)
		r.mutate(c2)
		out = append(out, newIndividual(c1))
		if len(out) < target {
			out = append(out, newIndividual(c2))
		}
	}
	return out
}
