// Package analysis orchestrates graph runs over sessions: blocking analyze
// and refine calls plus their streaming variants.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Career-Scout/careerscout/internal/experience"
	"github.com/Career-Scout/careerscout/internal/links"
	"github.com/Career-Scout/careerscout/internal/logger"
	"github.com/Career-Scout/careerscout/internal/pipeline"
	"github.com/Career-Scout/careerscout/internal/session"
	"github.com/Career-Scout/careerscout/internal/units"
	"github.com/Career-Scout/careerscout/pkg/types"
)

// ModelMatrix maps a requested mode to the concrete model id per tier.
type ModelMatrix map[pipeline.Mode]map[pipeline.Tier]string

// Config assembles a Service.
type Config struct {
	Store    session.Store
	Executor pipeline.Executor
	Models   ModelMatrix
	Healer   *links.Healer
	Stagger  time.Duration
	Now      func() time.Time
}

// Service runs the analysis and refinement graphs.
type Service struct {
	store     session.Store
	exec      pipeline.Executor
	models    ModelMatrix
	extractor *experience.Extractor
	healer    *links.Healer
	stagger   time.Duration
	now       func() time.Time
}

func NewService(cfg Config) *Service {
	s := &Service{
		store:     cfg.Store,
		exec:      cfg.Executor,
		models:    cfg.Models,
		extractor: experience.NewExtractor(),
		healer:    cfg.Healer,
		stagger:   cfg.Stagger,
		now:       cfg.Now,
	}
	if s.healer == nil {
		s.healer = links.NewHealer(links.NewValidator(links.DefaultProbeTimeout))
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// catalogFor binds a catalog to one mode's models so the link healer can
// re-run a scout through the executor with the validator's feedback.
func (s *Service) catalogFor(mode pipeline.Mode) (*units.Catalog, map[pipeline.Tier]string, error) {
	modelSet, ok := s.models[mode]
	if !ok {
		return nil, nil, fmt.Errorf("no models configured for mode %q", mode)
	}
	cat := units.NewCatalog(units.Config{
		Extractor: s.extractor,
		Healer:    s.healer,
		Now:       s.now,
		Stagger:   s.stagger,
		Regen: func(ctx context.Context, scout *pipeline.UnitSpec, feedback string, state map[string]string) (string, error) {
			return s.exec.Execute(ctx, pipeline.ExecRequest{
				Unit:  scout,
				Model: modelSet[scout.Tier],
				Input: feedback,
				State: state,
			})
		},
	})
	return cat, modelSet, nil
}

func (s *Service) analysisRunner(mode pipeline.Mode) (*pipeline.Runner, error) {
	cat, modelSet, err := s.catalogFor(mode)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cat.FullGraph(), s.exec, modelSet)
}

func (s *Service) refinementRunner(mode pipeline.Mode) (*pipeline.Runner, error) {
	cat, modelSet, err := s.catalogFor(mode)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cat.RefinementGraph(), s.exec, modelSet)
}

// factBlock renders the pre-computed career analytics the formatter must use
// verbatim instead of recalculating.
func factBlock(summary experience.Summary) string {
	var b strings.Builder
	b.WriteString("[SYSTEM NOTE - USE THESE EXACT VALUES:]\n")
	fmt.Fprintf(&b, "- Total Years of Experience: %.1f years (calculated from dates, de-duped for overlapping roles)\n", summary.TotalYears)
	fmt.Fprintf(&b, "- Career Span: %s\n", summary.CareerSpan)
	fmt.Fprintf(&b, "- Number of Roles: %d\n", summary.NumRoles)
	fmt.Fprintf(&b, "- Average Tenure: %.1f years per role\n", summary.AvgTenureYears)
	if summary.StatedYears != nil {
		fmt.Fprintf(&b, "- Resume states: %d+ years (for reference)\n", *summary.StatedYears)
	}
	return b.String()
}

func analysisInput(resumeText string, summary experience.Summary) string {
	return "Analyze this resume and find job recommendations:\n\n" + factBlock(summary) + "\n" + resumeText
}

func refinementInput(feedback string) string {
	return "Refine job search with this feedback: " + feedback
}

func refinementSeed(sess *session.Session) map[string]string {
	return map[string]string{
		units.KeySourceDocument: sess.Input,
		units.KeyPreviousReport: sess.LastResult,
	}
}

// Analyze runs the full graph to completion and persists the session for
// later refinement.
func (s *Service) Analyze(ctx context.Context, resumeText string, mode pipeline.Mode) (*types.AnalyzeResponse, error) {
	runner, err := s.analysisRunner(mode)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.Create(ctx, resumeText)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	start := s.now()
	summary := s.extractor.Summarize(resumeText)
	result, _, err := runner.Run(ctx, analysisInput(resumeText, summary), nil, nil)
	if err != nil {
		if delErr := s.store.Delete(ctx, sess.ID); delErr != nil {
			logger.Logger.Warn().Err(delErr).Str("session_id", sess.ID).Msg("failed to discard session after pipeline error")
		}
		return nil, &ExecutionError{Graph: "analysis", Err: err}
	}

	if err := s.store.Update(ctx, sess.ID, result); err != nil {
		return nil, fmt.Errorf("persist analysis result: %w", err)
	}

	return &types.AnalyzeResponse{
		Status:           "success",
		SessionID:        sess.ID,
		Result:           result,
		ProcessingTimeMS: s.now().Sub(start).Milliseconds(),
	}, nil
}

// Refine re-runs the scout stages against a stored session.
func (s *Service) Refine(ctx context.Context, sessionID, feedback string, mode pipeline.Mode) (*types.RefineResponse, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	runner, err := s.refinementRunner(mode)
	if err != nil {
		return nil, err
	}

	start := s.now()
	result, _, err := runner.Run(ctx, refinementInput(feedback), refinementSeed(sess), nil)
	if err != nil {
		return nil, &ExecutionError{Graph: "refinement", Err: err}
	}

	if err := s.store.Update(ctx, sess.ID, result); err != nil {
		return nil, fmt.Errorf("persist refinement result: %w", err)
	}

	return &types.RefineResponse{
		Status:           "success",
		SessionID:        sess.ID,
		Result:           result,
		ProcessingTimeMS: s.now().Sub(start).Milliseconds(),
	}, nil
}
