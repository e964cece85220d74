package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Career-Scout/careerscout/internal/logger"
	"github.com/Career-Scout/careerscout/pkg/types"
)

const previewLimit = 150

// Runner executes a graph stage by stage against a shared state bag.
// Stages run in order; the units inside a parallel stage run concurrently
// and the stage only completes when all of them have.
type Runner struct {
	graph  *Graph
	exec   Executor
	models map[Tier]string
}

// NewRunner validates the graph and binds it to an executor and a
// tier-to-model mapping.
func NewRunner(graph *Graph, exec Executor, models map[Tier]string) (*Runner, error) {
	if err := graph.Validate(); err != nil {
		return nil, err
	}
	for _, stage := range graph.Stages {
		for _, u := range stage.units() {
			if u.Local != nil {
				continue
			}
			if _, ok := models[u.Tier]; !ok {
				return nil, fmt.Errorf("graph %q unit %q needs tier %q but no model is bound to it", graph.Name, u.Name, u.Tier)
			}
		}
	}
	return &Runner{graph: graph, exec: exec, models: models}, nil
}

// Run executes the graph with the given input. seed pre-populates the shared
// state (nil is fine). Progress events are published to queue as each unit
// produces its first output; queue may be nil for callers that only want the
// final result. The first unit failure aborts the run and its partial state
// is discarded.
func (r *Runner) Run(ctx context.Context, input string, seed map[string]string, queue *ProgressQueue) (string, map[string]string, error) {
	state := NewState()
	state.Seed(seed)

	var seenMu sync.Mutex
	seen := make(map[string]bool)

	start := time.Now()
	for _, stage := range r.graph.Stages {
		if stage.Stagger > 0 {
			select {
			case <-time.After(stage.Stagger):
			case <-ctx.Done():
				runCounter.WithLabelValues(r.graph.Name, "cancelled").Inc()
				return "", nil, ctx.Err()
			}
		}

		units := stage.units()
		if len(units) == 1 {
			if err := r.runUnit(ctx, units[0], input, state, queue, seen, &seenMu); err != nil {
				runCounter.WithLabelValues(r.graph.Name, "error").Inc()
				return "", nil, err
			}
			continue
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, u := range units {
			u := u
			g.Go(func() error {
				return r.runUnit(gctx, u, input, state, queue, seen, &seenMu)
			})
		}
		if err := g.Wait(); err != nil {
			runCounter.WithLabelValues(r.graph.Name, "error").Inc()
			return "", nil, err
		}
	}

	runCounter.WithLabelValues(r.graph.Name, "success").Inc()
	logger.Logger.Info().
		Str("graph", r.graph.Name).
		Dur("elapsed", time.Since(start)).
		Msg("graph run completed")

	final, _ := state.Get(r.graph.FinalKey())
	return final, state.Snapshot(), nil
}

func (r *Runner) runUnit(ctx context.Context, u *UnitSpec, input string, state *State, queue *ProgressQueue, seen map[string]bool, seenMu *sync.Mutex) error {
	start := time.Now()

	var output string
	var err error
	if u.Local != nil {
		output, err = u.Local(ctx, input, state.Snapshot())
	} else {
		output, err = r.exec.Execute(ctx, ExecRequest{
			Unit:  u,
			Model: r.models[u.Tier],
			Input: input,
			State: state.Snapshot(),
		})
	}
	unitDuration.WithLabelValues(u.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		unitFailures.WithLabelValues(u.Name).Inc()
		logger.Logger.Error().Err(err).Str("unit", u.Name).Msg("unit execution failed")
		return fmt.Errorf("unit %s: %w", u.Name, err)
	}

	state.Set(u.OutputKey, output)
	r.publishProgress(queue, u, output, seen, seenMu)
	return nil
}

func (r *Runner) publishProgress(queue *ProgressQueue, u *UnitSpec, output string, seen map[string]bool, seenMu *sync.Mutex) {
	if queue == nil {
		return
	}
	seenMu.Lock()
	if seen[u.Name] {
		seenMu.Unlock()
		return
	}
	seen[u.Name] = true
	seenMu.Unlock()

	queue.Publish(types.StreamEvent{
		Type:    types.StreamEventProgress,
		Agent:   u.Name,
		Message: fmt.Sprintf("[%s] %s", u.DisplayName, Preview(output)),
	})
}

// Preview condenses output into a single line capped at previewLimit runes.
func Preview(s string) string {
	flat := strings.Join(strings.Fields(s), " ")
	runes := []rune(flat)
	if len(runes) <= previewLimit {
		return flat
	}
	return string(runes[:previewLimit]) + "..."
}
