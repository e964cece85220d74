// Package units defines the analysis graph: the ordered set of units that
// turn a resume into calibrated job recommendations.
package units

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Career-Scout/careerscout/internal/consensus"
	"github.com/Career-Scout/careerscout/internal/experience"
	"github.com/Career-Scout/careerscout/internal/links"
	"github.com/Career-Scout/careerscout/internal/logger"
	"github.com/Career-Scout/careerscout/internal/pipeline"
)

// Shared-state output keys. Each key may be claimed by exactly one unit per
// graph; pipeline.Graph.Validate enforces it.
const (
	KeyParsedResume = "parsed_resume"
	KeyInitialLevel = "initial_level"
	KeyConservative = "conservative_assessment"
	KeyOptimistic   = "optimistic_assessment"
	KeyCalibrated   = "calibrated_level"
	KeyExactMatch   = "exact_match_job"
	KeyLevelUp      = "level_up_job"
	KeyStretch      = "stretch_job"
	KeyTrajectory   = "trajectory_job"
	KeyValidated    = "validated_jobs"
	KeyFormatted    = "formatted_output"
)

// Refinement-run seed keys.
const (
	KeySourceDocument = "source_document"
	KeyPreviousReport = "previous_report"
)

// DefaultStagger spaces the two scout batches apart so four concurrent
// runtime calls never land inside the same rate-limit window.
const DefaultStagger = 2 * time.Second

// ScoutRegenFunc re-runs one scout through the model runtime with the
// validator's feedback appended. The link healer uses it to repair broken
// job URLs.
type ScoutRegenFunc func(ctx context.Context, scout *pipeline.UnitSpec, feedback string, state map[string]string) (string, error)

// Config assembles a Catalog.
type Config struct {
	Extractor *experience.Extractor
	Healer    *links.Healer
	Now       func() time.Time
	Regen     ScoutRegenFunc
	Stagger   time.Duration
}

// Catalog builds the analysis and refinement graphs from the static unit
// definitions plus the local stages (consensus, link validation) that run
// in-process.
type Catalog struct {
	extractor *experience.Extractor
	healer    *links.Healer
	now       func() time.Time
	regen     ScoutRegenFunc
	stagger   time.Duration
}

func NewCatalog(cfg Config) *Catalog {
	c := &Catalog{
		extractor: cfg.Extractor,
		healer:    cfg.Healer,
		now:       cfg.Now,
		regen:     cfg.Regen,
		stagger:   cfg.Stagger,
	}
	if c.extractor == nil {
		c.extractor = experience.NewExtractor()
	}
	if c.healer == nil {
		c.healer = links.NewHealer(links.NewValidator(links.DefaultProbeTimeout))
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.stagger == 0 {
		c.stagger = DefaultStagger
	}
	return c
}

// Extractor exposes the duration extractor so callers can pre-compute the
// career analytics that seed progress events and the fact block.
func (c *Catalog) Extractor() *experience.Extractor {
	return c.extractor
}

func (c *Catalog) durationSummaryTool() pipeline.Tool {
	return pipeline.Tool{
		Name:        "duration_summary",
		Description: "Computes total deduplicated years of experience and a per-role breakdown from resume text.",
		Invoke: func(ctx context.Context, input string) (string, error) {
			summary := c.extractor.Summarize(input)
			out, err := json.Marshal(summary)
			if err != nil {
				return "", fmt.Errorf("failed to encode duration summary: %w", err)
			}
			return string(out), nil
		},
	}
}

// webSearchTool is provided by the model runtime; only its name travels on
// the wire.
func webSearchTool() pipeline.Tool {
	return pipeline.Tool{
		Name:        "web_search",
		Description: "Runtime-provided general web search.",
	}
}

func (c *Catalog) parserUnit() *pipeline.UnitSpec {
	return &pipeline.UnitSpec{
		Name:        "resume_parser",
		DisplayName: "Resume Parser",
		Tier:        pipeline.TierFlash,
		Instruction: resumeParserInstruction,
		Tools:       []pipeline.Tool{c.durationSummaryTool()},
		OutputKey:   KeyParsedResume,
	}
}

func classifierUnit() *pipeline.UnitSpec {
	return &pipeline.UnitSpec{
		Name:        "level_classifier",
		DisplayName: "Level Classifier",
		Tier:        pipeline.TierFlash,
		Instruction: levelClassifierInstruction,
		Tools:       []pipeline.Tool{webSearchTool()},
		OutputKey:   KeyInitialLevel,
	}
}

func conservativeUnit() *pipeline.UnitSpec {
	return &pipeline.UnitSpec{
		Name:        "conservative_evaluator",
		DisplayName: "Conservative Evaluator",
		Tier:        pipeline.TierFlash,
		Instruction: conservativeEvaluatorInstruction,
		Tools:       []pipeline.Tool{webSearchTool()},
		OutputKey:   KeyConservative,
	}
}

func optimisticUnit() *pipeline.UnitSpec {
	return &pipeline.UnitSpec{
		Name:        "optimistic_evaluator",
		DisplayName: "Optimistic Evaluator",
		Tier:        pipeline.TierFlash,
		Instruction: optimisticEvaluatorInstruction,
		Tools:       []pipeline.Tool{webSearchTool()},
		OutputKey:   KeyOptimistic,
	}
}

func (c *Catalog) consensusUnit() *pipeline.UnitSpec {
	return &pipeline.UnitSpec{
		Name:        "consensus",
		DisplayName: "Consensus",
		OutputKey:   KeyCalibrated,
		Local:       c.aggregateConsensus,
	}
}

func (c *Catalog) scoutUnit(name, displayName, tierBlock, outputKey string) *pipeline.UnitSpec {
	return &pipeline.UnitSpec{
		Name:        name,
		DisplayName: displayName,
		Tier:        pipeline.TierFlash,
		Instruction: scoutInstruction(c.now(), tierBlock),
		Tools:       []pipeline.Tool{webSearchTool()},
		OutputKey:   outputKey,
	}
}

func (c *Catalog) validatorUnit(scouts map[string]*pipeline.UnitSpec) *pipeline.UnitSpec {
	return &pipeline.UnitSpec{
		Name:        "url_validator",
		DisplayName: "URL Validator",
		OutputKey:   KeyValidated,
		Local: func(ctx context.Context, input string, state map[string]string) (string, error) {
			return c.validateJobs(ctx, state, scouts)
		},
	}
}

func formatterUnit(name string) *pipeline.UnitSpec {
	return &pipeline.UnitSpec{
		Name:        name,
		DisplayName: "Formatter",
		Tier:        pipeline.TierLite,
		Instruction: formatterInstruction,
		OutputKey:   KeyFormatted,
	}
}

func (c *Catalog) scoutStages(suffix string) ([]pipeline.Stage, map[string]*pipeline.UnitSpec) {
	exact := c.scoutUnit("exact_match_scout"+suffix, "Exact Match Scout", exactMatchTier, KeyExactMatch)
	levelUp := c.scoutUnit("level_up_scout"+suffix, "Level Up Scout", levelUpTier, KeyLevelUp)
	stretch := c.scoutUnit("stretch_scout"+suffix, "Stretch Scout", stretchTier, KeyStretch)
	trajectory := c.scoutUnit("trajectory_scout"+suffix, "Trajectory Scout", trajectoryTier, KeyTrajectory)

	stages := []pipeline.Stage{
		{Parallel: []*pipeline.UnitSpec{exact, levelUp}},
		{Parallel: []*pipeline.UnitSpec{stretch, trajectory}, Stagger: c.stagger},
	}
	scouts := map[string]*pipeline.UnitSpec{
		KeyExactMatch: exact,
		KeyLevelUp:    levelUp,
		KeyStretch:    stretch,
		KeyTrajectory: trajectory,
	}
	return stages, scouts
}

// FullGraph is the complete analysis run: parse, classify, deliberate,
// calibrate, scout all four tiers, validate links and format the report.
func (c *Catalog) FullGraph() *pipeline.Graph {
	scoutStages, scouts := c.scoutStages("")
	stages := []pipeline.Stage{
		{Unit: c.parserUnit()},
		{Unit: classifierUnit()},
		{Parallel: []*pipeline.UnitSpec{conservativeUnit(), optimisticUnit()}},
		{Unit: c.consensusUnit()},
	}
	stages = append(stages, scoutStages...)
	stages = append(stages,
		pipeline.Stage{Unit: c.validatorUnit(scouts)},
		pipeline.Stage{Unit: formatterUnit("formatter")},
	)
	return &pipeline.Graph{Name: "analysis", Stages: stages}
}

// RefinementGraph re-runs only the scouts, the validator and the formatter
// against a session seeded with the source document and the previous report.
func (c *Catalog) RefinementGraph() *pipeline.Graph {
	scoutStages, scouts := c.scoutStages("_ref")
	stages := append([]pipeline.Stage{}, scoutStages...)
	stages = append(stages,
		pipeline.Stage{Unit: c.validatorUnit(scouts)},
		pipeline.Stage{Unit: formatterUnit("formatter_refinement")},
	)
	return &pipeline.Graph{Name: "refinement", Stages: stages}
}

// classifierOutput is the JSON shape the level classifier returns.
type classifierOutput struct {
	Profession       string   `json:"profession"`
	NormalizedLevel  int      `json:"normalized_level"`
	LevelTitle       string   `json:"level_title"`
	EquivalentTitles []string `json:"equivalent_titles"`
	Confidence       float64  `json:"confidence"`
	Evidence         []string `json:"evidence"`
}

type conservativeOutput struct {
	ConservativeLevel int      `json:"conservative_level"`
	Title             string   `json:"title"`
	Confidence        float64  `json:"confidence"`
	Evidence          []string `json:"evidence"`
}

type optimisticOutput struct {
	OptimisticLevel int      `json:"optimistic_level"`
	Title           string   `json:"title"`
	Confidence      float64  `json:"confidence"`
	Evidence        []string `json:"evidence"`
}

// aggregateConsensus reads the three upstream assessments out of the state
// and combines them deterministically.
func (c *Catalog) aggregateConsensus(ctx context.Context, input string, state map[string]string) (string, error) {
	var classified classifierOutput
	if err := decodeUnitJSON(state[KeyInitialLevel], &classified); err != nil {
		return "", fmt.Errorf("level classifier output unusable: %w", err)
	}
	var cons conservativeOutput
	if err := decodeUnitJSON(state[KeyConservative], &cons); err != nil {
		return "", fmt.Errorf("conservative assessment unusable: %w", err)
	}
	var opt optimisticOutput
	if err := decodeUnitJSON(state[KeyOptimistic], &opt); err != nil {
		return "", fmt.Errorf("optimistic assessment unusable: %w", err)
	}

	result := consensus.Aggregate(consensus.Input{
		MostLikely: consensus.Assessment{
			Level:      classified.NormalizedLevel,
			Title:      classified.LevelTitle,
			Confidence: classified.Confidence,
			Evidence:   classified.Evidence,
		},
		Conservative: consensus.Assessment{
			Level:      cons.ConservativeLevel,
			Title:      cons.Title,
			Confidence: cons.Confidence,
			Evidence:   cons.Evidence,
		},
		Optimistic: consensus.Assessment{
			Level:      opt.OptimisticLevel,
			Title:      opt.Title,
			Confidence: opt.Confidence,
			Evidence:   opt.Evidence,
		},
		Profession:       classified.Profession,
		EquivalentTitles: classified.EquivalentTitles,
	})

	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode consensus result: %w", err)
	}
	return string(out), nil
}

// validatedJob is one tier's entry in the validator output.
type validatedJob struct {
	Tier             string `json:"tier"`
	Job              string `json:"job"`
	ValidationStatus string `json:"validation_status"`
	Attempts         int    `json:"attempts,omitempty"`
}

var tierOrder = []struct {
	key  string
	tier string
}{
	{KeyExactMatch, "exact_match"},
	{KeyLevelUp, "level_up"},
	{KeyStretch, "stretch"},
	{KeyTrajectory, "trajectory"},
}

// validateJobs probes every scout's URLs and heals broken ones by re-running
// the owning scout with the validator's feedback. A job whose links never
// converge is marked needs_verification rather than failing the run.
func (c *Catalog) validateJobs(ctx context.Context, state map[string]string, scouts map[string]*pipeline.UnitSpec) (string, error) {
	jobs := make([]validatedJob, 0, len(tierOrder))
	for _, entry := range tierOrder {
		text, ok := state[entry.key]
		if !ok || strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("scout output %s missing from state", entry.key)
		}

		var regen links.RegenerateFunc
		if c.regen != nil {
			scout := scouts[entry.key]
			regen = func(ctx context.Context, feedback string) (string, error) {
				return c.regen(ctx, scout, feedback, state)
			}
		}

		outcome, err := c.healer.Heal(ctx, text, regen)
		if err != nil {
			return "", fmt.Errorf("healing %s: %w", entry.tier, err)
		}

		status := "valid"
		if outcome.NeedsVerification {
			status = "needs_verification"
			logger.Logger.Warn().
				Str("tier", entry.tier).
				Strs("invalid_urls", outcome.InvalidURLs).
				Msg("job links did not validate, marked needs_verification")
		}
		jobs = append(jobs, validatedJob{
			Tier:             entry.tier,
			Job:              outcome.Text,
			ValidationStatus: status,
			Attempts:         outcome.Attempts,
		})
	}

	out, err := json.Marshal(map[string]any{"jobs": jobs})
	if err != nil {
		return "", fmt.Errorf("failed to encode validated jobs: %w", err)
	}
	return string(out), nil
}

// decodeUnitJSON tolerates runtime output wrapped in markdown fences or
// surrounded by prose: it decodes the first top-level JSON object found.
func decodeUnitJSON(text string, v any) error {
	obj, err := extractJSONObject(text)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(obj), v)
}

func extractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in output")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON object in output")
}
