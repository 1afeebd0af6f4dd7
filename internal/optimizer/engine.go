package optimizer

import (
	"cmp"
	"context"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
)

// Status summarises the quality of a run.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusPartial Status = "Partial"
)

// EmptyScheduleViolation is reported when the best chromosome decodes to no rows.
const EmptyScheduleViolation = "Decoded solution produced no valid timetable sessions."

// Result is the outcome of Engine.Run.
type Result struct {
	Status      Status
	Penalty     int
	Variance    float64
	Violations  []string
	Rows        []SessionRow
	Assigned    int
	Required    int
	Chromosome  []Gene
	Generations int
	Seed        uint64
	Interrupted bool
	Elapsed     time.Duration
	// TimeSlots is the indexed catalog, kept for re-translating stored violations.
	TimeSlots map[int64]TimeSlotRef
}

// Engine runs NSGA-II searches. It holds no per-run state and may be shared.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// NewEngine builds an engine; zero config fields take their defaults.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg.withDefaults(), logger: logger}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// run carries the mutable state of one search.
type run struct {
	pc     *ProblemContext
	cfg    Config
	rng    *rand.Rand
	logger *zap.Logger
}

// Run encodes problem, evolves the population for the configured number of
// generations and decodes the best chromosome of the final first front. A
// cancelled ctx stops the search at the next generation boundary and the
// current population is still decoded.
func (e *Engine) Run(ctx context.Context, problem Problem, opts DecodeOptions) (*Result, error) {
	started := time.Now()
	cfg := e.cfg
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(started.UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	logger := e.logger.With(zap.Int64("section_id", problem.Section.ID), zap.Uint64("seed", seed))

	pc, err := Encode(problem, cfg.FacultyStrategy, rng)
	if err != nil {
		return nil, err
	}
	logger.Info("optimizer started",
		zap.Int("requirements", len(pc.Requirements)),
		zap.Int("slots", len(pc.Slots)),
		zap.Int("population", cfg.PopulationSize),
		zap.Int("generations", cfg.Generations),
	)

	r := &run{pc: pc, cfg: cfg, rng: rng, logger: logger}
	pop := r.initPopulation()

	completed := 0
	interrupted := false
	for gen := 0; gen < cfg.Generations; gen++ {
		if ctx.Err() != nil {
			interrupted = true
			logger.Warn("optimizer interrupted", zap.Int("generation", gen), zap.Error(ctx.Err()))
			break
		}
		r.evaluate(pop)
		for _, front := range FastNonDominatedSort(pop) {
			AssignCrowdingDistance(pop, front)
		}
		offspring := r.makeOffspring(pop)
		r.evaluate(offspring)
		pop = r.nextGeneration(append(pop, offspring...))
		completed++

		if ce := logger.Check(zap.DebugLevel, "generation complete"); ce != nil {
			best := pop[0]
			for _, ind := range pop[1:] {
				if ind.Penalty < best.Penalty {
					best = ind
				}
			}
			ce.Write(zap.Int("generation", gen+1), zap.Int("best_penalty", best.Penalty), zap.Float64("variance", best.Variance))
		}
	}

	r.evaluate(pop)
	fronts := FastNonDominatedSort(pop)
	for _, front := range fronts {
		AssignCrowdingDistance(pop, front)
	}
	best := pop[bestOf(pop, fronts[0])]
	decoded := Decode(pc, best, opts)

	res := &Result{
		Status:      StatusSuccess,
		Penalty:     best.Penalty,
		Variance:    best.Variance,
		Violations:  decoded.Violations,
		Rows:        decoded.Rows,
		Assigned:    decoded.Assigned,
		Required:    decoded.Required,
		Chromosome:  best.cloneGenes(),
		Generations: completed,
		Seed:        seed,
		Interrupted: interrupted,
		TimeSlots:   pc.TimeSlots(),
	}
	if res.Penalty != 0 {
		res.Status = StatusPartial
	}
	if len(res.Rows) == 0 {
		res.Status = StatusPartial
		res.Violations = append(res.Violations, EmptyScheduleViolation)
	}
	res.Elapsed = time.Since(started)

	logger.Info("optimizer finished",
		zap.String("status", string(res.Status)),
		zap.Int("penalty", res.Penalty),
		zap.Float64("variance", res.Variance),
		zap.Int("generations", completed),
		zap.Bool("interrupted", interrupted),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

// evaluate scores every member not yet scored. Each worker writes only to its
// own individual, so results match a sequential pass.
func (r *run) evaluate(pop []*Individual) {
	if r.cfg.Parallelism > 1 {
		it := iter.Iterator[*Individual]{MaxGoroutines: r.cfg.Parallelism}
		it.ForEachIdx(pop, func(_ int, ind **Individual) {
			if !(*ind).evaluated {
				Evaluate(r.pc, *ind)
			}
		})
		return
	}
	for _, ind := range pop {
		if !ind.evaluated {
			Evaluate(r.pc, ind)
		}
	}
}

// nextGeneration keeps whole fronts in rank order and fills the remainder
// from the first front that does not fit, by descending crowding distance.
func (r *run) nextGeneration(combined []*Individual) []*Individual {
	size := r.cfg.PopulationSize
	next := make([]*Individual, 0, size)
	for _, front := range FastNonDominatedSort(combined) {
		AssignCrowdingDistance(combined, front)
		if len(next)+len(front) <= size {
			for _, i := range front {
				next = append(next, combined[i])
			}
			continue
		}
		rest := slices.Clone(front)
		slices.SortStableFunc(rest, func(a, b int) int {
			if c := cmp.Compare(combined[b].Crowding, combined[a].Crowding); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		for _, i := range rest[:size-len(next)] {
			next = append(next, combined[i])
		}
		break
	}
	return next
}

// bestOf picks the member of front with the lowest penalty, then the lowest
// variance, then the lowest index.
func bestOf(pop []*Individual, front []int) int {
	best := front[0]
	for _, i := range front[1:] {
		a, b := pop[i], pop[best]
		switch {
		case a.Penalty < b.Penalty:
			best = i
		case a.Penalty == b.Penalty && a.Variance < b.Variance:
			best = i
		case a.Penalty == b.Penalty && a.Variance == b.Variance && i < best:
			best = i
		}
	}
	return best
}
