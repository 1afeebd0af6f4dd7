package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/optimizer"
)

type solveOptions struct {
	Input           string
	Output          string
	Seed            uint64
	Generations     int
	Population      int
	Parallelism     int
	FacultyStrategy string
	StartDate       string
	Weeks           int
	Timeout         time.Duration
	Verbose         bool
}

// report is the JSON document printed by solve.
type report struct {
	Status         optimizer.Status       `json:"status"`
	Penalty        int                    `json:"penalty"`
	Variance       float64                `json:"workload_variance"`
	Assigned       int                    `json:"total_slots_assigned"`
	Required       int                    `json:"total_slots_required"`
	Generations    int                    `json:"generations"`
	Seed           uint64                 `json:"seed"`
	Interrupted    bool                   `json:"interrupted"`
	ElapsedSeconds float64                `json:"elapsed_seconds"`
	Violations     []string               `json:"violations"`
	Rows           []optimizer.SessionRow `json:"rows"`
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "timetable-solver",
		Short:         "Run the timetable optimizer offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSolveCommand())
	return root
}

func newSolveCommand() *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Optimize a timetable problem read from a JSON file",
		Long: `solve reads a problem document (section, assignments, rooms, timeslots,
constraints and unavailability), runs the NSGA-II search and prints a JSON
report of the decoded sessions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			if opts.Output != "" {
				file, err := os.Create(opts.Output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer file.Close() //nolint:errcheck
				out = file
			}
			return runSolve(ctx, opts, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Input, "input", "i", "", "problem JSON file")
	flags.StringVarP(&opts.Output, "output", "o", "", "write the report to this file instead of stdout")
	flags.Uint64Var(&opts.Seed, "seed", 0, "RNG seed, 0 draws a fresh one")
	flags.IntVar(&opts.Generations, "generations", 0, "number of generations (default 100)")
	flags.IntVar(&opts.Population, "population", 0, "population size (default 100)")
	flags.IntVar(&opts.Parallelism, "parallelism", 0, "concurrent fitness evaluations (default 1)")
	flags.StringVar(&opts.FacultyStrategy, "faculty-strategy", string(optimizer.FacultyRandom), "faculty pick for shared subjects: random or round_robin")
	flags.StringVar(&opts.StartDate, "start-date", "", "date of week one, YYYY-MM-DD (default today)")
	flags.IntVar(&opts.Weeks, "weeks", 1, "number of weeks to expand")
	flags.DurationVar(&opts.Timeout, "timeout", 0, "stop the search after this long")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "log search progress to stderr")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runSolve(ctx context.Context, opts *solveOptions, out io.Writer) error {
	strategy := optimizer.FacultyStrategy(opts.FacultyStrategy)
	switch strategy {
	case "", optimizer.FacultyRandom, optimizer.FacultyRoundRobin:
	default:
		return fmt.Errorf("invalid --faculty-strategy %q: want %s or %s", opts.FacultyStrategy, optimizer.FacultyRandom, optimizer.FacultyRoundRobin)
	}

	problem, err := readProblem(opts.Input)
	if err != nil {
		return err
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	if opts.StartDate != "" {
		start, err = time.Parse("2006-01-02", opts.StartDate)
		if err != nil {
			return fmt.Errorf("invalid --start-date: %w", err)
		}
	}

	logger := zap.NewNop()
	if opts.Verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer logger.Sync() //nolint:errcheck
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	engine := optimizer.NewEngine(optimizer.Config{
		PopulationSize:  opts.Population,
		Generations:     opts.Generations,
		Seed:            opts.Seed,
		FacultyStrategy: strategy,
		Parallelism:     opts.Parallelism,
	}, logger)

	result, err := engine.Run(ctx, problem, optimizer.DecodeOptions{StartDate: start, Weeks: opts.Weeks})
	if err != nil {
		return err
	}

	rep := report{
		Status:         result.Status,
		Penalty:        result.Penalty,
		Variance:       result.Variance,
		Assigned:       result.Assigned,
		Required:       result.Required,
		Generations:    result.Generations,
		Seed:           result.Seed,
		Interrupted:    result.Interrupted,
		ElapsedSeconds: result.Elapsed.Seconds(),
		Violations:     result.Violations,
		Rows:           result.Rows,
	}
	if rep.Violations == nil {
		rep.Violations = []string{}
	}
	if rep.Rows == nil {
		rep.Rows = []optimizer.SessionRow{}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func readProblem(path string) (optimizer.Problem, error) {
	var problem optimizer.Problem
	data, err := os.ReadFile(path)
	if err != nil {
		return problem, fmt.Errorf("read problem: %w", err)
	}
	if err := json.Unmarshal(data, &problem); err != nil {
		return problem, fmt.Errorf("decode problem: %w", err)
	}
	return problem, nil
}
