package optimizer

import "go.uber.org/zap"

// initPopulation seeds the population, alternating random (even index) and
// greedy (odd index) construction.
func (r *run) initPopulation() []*Individual {
	pop := make([]*Individual, r.cfg.PopulationSize)
	for i := range pop {
		if i%2 == 0 {
			pop[i] = r.randomIndividual()
		} else {
			pop[i] = r.greedyIndividual()
		}
	}
	return pop
}

func (r *run) randomIndividual() *Individual {
	genes := make([]Gene, len(r.pc.Requirements))
	for i, req := range r.pc.Requirements {
		slot := r.pc.Slots[r.rng.IntN(len(r.pc.Slots))]
		room, _ := r.pc.SelectRoom(req, r.rng)
		genes[i] = Gene{Requirement: i, Day: slot.Day, TimeSlotID: slot.TimeSlotID, RoomID: room}
	}
	return newIndividual(genes)
}

// occupancy tracks which slots are already claimed while a greedy
// chromosome is being built.
type occupancy struct {
	section map[PossibleSlot][]Subsection
	faculty map[int64]map[PossibleSlot]struct{}
	room    map[int64]map[PossibleSlot]struct{}
}

func newOccupancy() *occupancy {
	return &occupancy{
		section: make(map[PossibleSlot][]Subsection),
		faculty: make(map[int64]map[PossibleSlot]struct{}),
		room:    make(map[int64]map[PossibleSlot]struct{}),
	}
}

func (o *occupancy) sectionFree(slot PossibleSlot, sub Subsection) bool {
	taken := o.section[slot]
	if len(taken) == 0 {
		return true
	}
	if sub.IsFull() {
		return false
	}
	for _, other := range taken {
		if other.IsFull() || other == sub {
			return false
		}
	}
	return true
}

func (o *occupancy) facultyFree(facultyID int64, slot PossibleSlot) bool {
	_, busy := o.faculty[facultyID][slot]
	return !busy
}

func (o *occupancy) roomFree(roomID int64, block []PossibleSlot) bool {
	for _, slot := range block {
		if _, busy := o.room[roomID][slot]; busy {
			return false
		}
	}
	return true
}

func (o *occupancy) claim(req SessionRequirement, roomID int64, block []PossibleSlot) {
	if o.faculty[req.FacultyID] == nil {
		o.faculty[req.FacultyID] = make(map[PossibleSlot]struct{})
	}
	if o.room[roomID] == nil {
		o.room[roomID] = make(map[PossibleSlot]struct{})
	}
	for _, slot := range block {
		o.section[slot] = append(o.section[slot], req.Subsection)
		o.faculty[req.FacultyID][slot] = struct{}{}
		o.room[roomID][slot] = struct{}{}
	}
}

// greedyIndividual places labs first, then theory, each at the first
// shuffled start whose whole block is free for the section, the faculty
// member and some fitting room.
func (r *run) greedyIndividual() *Individual {
	var labs, theory []int
	for i, req := range r.pc.Requirements {
		if req.IsLab {
			labs = append(labs, i)
		} else {
			theory = append(theory, i)
		}
	}
	r.rng.Shuffle(len(labs), func(i, j int) { labs[i], labs[j] = labs[j], labs[i] })
	r.rng.Shuffle(len(theory), func(i, j int) { theory[i], theory[j] = theory[j], theory[i] })

	genes := make([]Gene, len(r.pc.Requirements))
	occ := newOccupancy()
	for _, idx := range append(labs, theory...) {
		req := r.pc.Requirements[idx]
		block, room, ok := r.greedyPlacement(req, occ)
		if !ok {
			block, room = r.fallbackPlacement(req)
		}
		genes[idx] = Gene{Requirement: idx, Day: block[0].Day, TimeSlotID: block[0].TimeSlotID, RoomID: room}
		occ.claim(req, room, block)
	}
	return newIndividual(genes)
}

func (r *run) greedyPlacement(req SessionRequirement, occ *occupancy) ([]PossibleSlot, int64, bool) {
	starts := make([]PossibleSlot, len(r.pc.Slots))
	copy(starts, r.pc.Slots)
	r.rng.Shuffle(len(starts), func(i, j int) { starts[i], starts[j] = starts[j], starts[i] })

	for _, start := range starts {
		block := r.pc.Block(start, req.DurationHours)
		if len(block) < req.DurationHours {
			continue
		}
		free := true
		for _, slot := range block {
			if !occ.sectionFree(slot, req.Subsection) ||
				!occ.facultyFree(req.FacultyID, slot) ||
				!r.pc.facultyAvailable(req.FacultyID, slot) {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		rooms := r.pc.fittingRooms(req)
		r.rng.Shuffle(len(rooms), func(i, j int) { rooms[i], rooms[j] = rooms[j], rooms[i] })
		for _, room := range rooms {
			if occ.roomFree(room.ID, block) {
				return block, room.ID, true
			}
		}
	}
	return nil, 0, false
}

// fallbackPlacement accepts a conflicting placement so the chromosome stays
// complete; the evaluator scores the damage.
func (r *run) fallbackPlacement(req SessionRequirement) ([]PossibleSlot, int64) {
	var block []PossibleSlot
	if starts := r.pc.constructible[req.DurationHours]; len(starts) > 0 {
		block = r.pc.Block(starts[r.rng.IntN(len(starts))], req.DurationHours)
	} else {
		r.logger.Warn("no continuous block long enough, placing as a single period",
			zap.Int("requirement", req.ID),
			zap.String("subject", req.SubjectCode),
			zap.Int("duration_hours", req.DurationHours),
		)
		block = []PossibleSlot{r.pc.Slots[r.rng.IntN(len(r.pc.Slots))]}
	}
	room, tier := r.pc.SelectRoom(req, r.rng)
	if tier >= TierTypeOnly {
		r.logger.Debug("relaxed room match", zap.Int("requirement", req.ID), zap.Stringer("tier", tier))
	}
	return block, room
}
