package pipeline

import (
	"context"
	"fmt"
	"time"
)

// Tier selects the model class a unit runs on. The concrete model id per
// tier comes from configuration, keyed by the requested Mode.
type Tier string

const (
	TierLite  Tier = "lite"
	TierFlash Tier = "flash"
	TierPro   Tier = "pro"
)

// Mode is the speed/quality trade-off requested by the caller.
type Mode string

const (
	ModeFast     Mode = "fast"
	ModeStandard Mode = "standard"
	ModeDeep     Mode = "deep"
)

// ParseMode normalizes a caller-supplied mode string, defaulting to standard.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFast, ModeStandard, ModeDeep:
		return Mode(s), nil
	case "":
		return ModeStandard, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected fast, standard or deep)", s)
	}
}

// Tool is a capability a unit may call during execution. A nil Invoke means
// the tool is provided by the model runtime itself (e.g. web search) and is
// only advertised by name.
type Tool struct {
	Name        string
	Description string
	Invoke      func(ctx context.Context, input string) (string, error)
}

// LocalFunc runs a unit inside this process instead of dispatching it to the
// model runtime. It receives the run input and a snapshot of the shared state.
type LocalFunc func(ctx context.Context, input string, state map[string]string) (string, error)

// UnitSpec describes one unit of work in a graph.
type UnitSpec struct {
	// Name is the stable identifier used in progress events and metrics.
	Name string
	// DisplayName is the human label surfaced to clients.
	DisplayName string
	// Tier picks the model class for runtime-dispatched units.
	Tier Tier
	// Instruction is the template sent to the runtime.
	Instruction string
	// Tools the unit may use.
	Tools []Tool
	// OutputKey is where the unit's output lands in the shared state.
	OutputKey string
	// Local, when set, executes the unit in-process and the Executor is
	// never consulted.
	Local LocalFunc
}

// Stage is one step of a graph: either a single unit or a barrier of units
// that run concurrently. Stagger delays the stage start relative to the
// previous stage completing, which spreads bursts of runtime calls.
type Stage struct {
	Unit     *UnitSpec
	Parallel []*UnitSpec
	Stagger  time.Duration
}

func (s Stage) units() []*UnitSpec {
	if s.Unit != nil {
		return []*UnitSpec{s.Unit}
	}
	return s.Parallel
}

// Graph is an ordered list of stages sharing one state bag.
type Graph struct {
	Name   string
	Stages []Stage
}

// Validate checks the graph is well formed: every stage has at least one
// unit, every unit has a name and an output key, and output keys are unique
// across the whole graph.
func (g *Graph) Validate() error {
	if len(g.Stages) == 0 {
		return fmt.Errorf("graph %q has no stages", g.Name)
	}
	seen := make(map[string]string)
	for i, stage := range g.Stages {
		units := stage.units()
		if len(units) == 0 {
			return fmt.Errorf("graph %q stage %d has no units", g.Name, i)
		}
		if stage.Unit != nil && len(stage.Parallel) > 0 {
			return fmt.Errorf("graph %q stage %d sets both Unit and Parallel", g.Name, i)
		}
		for _, u := range units {
			if u.Name == "" {
				return fmt.Errorf("graph %q stage %d has an unnamed unit", g.Name, i)
			}
			if u.OutputKey == "" {
				return fmt.Errorf("graph %q unit %q has no output key", g.Name, u.Name)
			}
			if prev, dup := seen[u.OutputKey]; dup {
				return fmt.Errorf("graph %q output key %q claimed by both %q and %q", g.Name, u.OutputKey, prev, u.Name)
			}
			seen[u.OutputKey] = u.Name
		}
	}
	return nil
}

// FinalKey is the output key of the last unit in the graph, which holds the
// run's final result.
func (g *Graph) FinalKey() string {
	if len(g.Stages) == 0 {
		return ""
	}
	units := g.Stages[len(g.Stages)-1].units()
	if len(units) == 0 {
		return ""
	}
	return units[len(units)-1].OutputKey
}

// UnitCount reports the total number of units across all stages.
func (g *Graph) UnitCount() int {
	n := 0
	for _, stage := range g.Stages {
		n += len(stage.units())
	}
	return n
}
