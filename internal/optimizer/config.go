package optimizer

// FacultyStrategy picks a faculty member from a requirement's candidate pool.
type FacultyStrategy string

const (
	FacultyRandom     FacultyStrategy = "random"
	FacultyRoundRobin FacultyStrategy = "round_robin"
)

// Config tunes a run. Zero values fall back to DefaultConfig.
type Config struct {
	PopulationSize       int
	Generations          int
	CrossoverProbability float64
	MutationProbability  float64
	// Seed zero draws a time based seed; the seed used is reported in Result.
	Seed            uint64
	FacultyStrategy FacultyStrategy
	Parallelism     int
}

// DefaultConfig returns the stock NSGA-II parameters.
func DefaultConfig() Config {
	return Config{
		PopulationSize:       100,
		Generations:          100,
		CrossoverProbability: 0.9,
		MutationProbability:  0.2,
		FacultyStrategy:      FacultyRandom,
		Parallelism:          1,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PopulationSize <= 0 {
		c.PopulationSize = def.PopulationSize
	}
	if c.Generations <= 0 {
		c.Generations = def.Generations
	}
	if c.CrossoverProbability <= 0 || c.CrossoverProbability > 1 {
		c.CrossoverProbability = def.CrossoverProbability
	}
	if c.MutationProbability <= 0 || c.MutationProbability > 1 {
		c.MutationProbability = def.MutationProbability
	}
	switch c.FacultyStrategy {
	case FacultyRandom, FacultyRoundRobin:
	default:
		c.FacultyStrategy = def.FacultyStrategy
	}
	if c.Parallelism <= 0 {
		c.Parallelism = def.Parallelism
	}
	return c
}
