package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/Career-Scout/careerscout/internal/experience"
	"github.com/Career-Scout/careerscout/internal/logger"
	"github.com/Career-Scout/careerscout/internal/pipeline"
	"github.com/Career-Scout/careerscout/pkg/types"
)

// pollInterval is how long the stream loop waits for the next progress event
// before re-checking whether the run has finished.
const pollInterval = 100 * time.Millisecond

var modeLabels = map[pipeline.Mode]string{
	pipeline.ModeFast:     "Fast",
	pipeline.ModeStandard: "Standard",
	pipeline.ModeDeep:     "Deep",
}

type runOutcome struct {
	result string
	err    error
}

// AnalyzeStream runs the full graph and emits progress events as units
// complete, ending with exactly one terminal event (result or error). The
// channel closes after the terminal event.
func (s *Service) AnalyzeStream(ctx context.Context, resumeText string, mode pipeline.Mode) <-chan types.StreamEvent {
	out := make(chan types.StreamEvent)
	go func() {
		defer close(out)

		runner, err := s.analysisRunner(mode)
		if err != nil {
			emit(ctx, out, errorEvent(err.Error()))
			return
		}

		sess, err := s.store.Create(ctx, resumeText)
		if err != nil {
			emit(ctx, out, errorEvent("create session: "+err.Error()))
			return
		}

		label := modeLabels[mode]
		if !emit(ctx, out, types.StreamEvent{
			Type:      types.StreamEventProgress,
			Agent:     "system",
			Message:   fmt.Sprintf("Starting agentic job search pipeline (%s mode)...", label),
			SessionID: sess.ID,
		}) {
			return
		}

		start := s.now()
		summary := s.extractor.Summarize(resumeText)
		s.emitAnalytics(ctx, out, summary)

		queue := pipeline.NewProgressQueue()
		done := make(chan runOutcome, 1)
		go func() {
			result, _, runErr := runner.Run(ctx, analysisInput(resumeText, summary), nil, queue)
			done <- runOutcome{result: result, err: runErr}
		}()

		outcome, ok := s.pump(ctx, out, queue, done)
		if !ok {
			return
		}

		if outcome.err != nil {
			if delErr := s.store.Delete(ctx, sess.ID); delErr != nil {
				logger.Logger.Warn().Err(delErr).Str("session_id", sess.ID).Msg("failed to discard session after pipeline error")
			}
			emit(ctx, out, errorEvent("Pipeline execution failed: "+outcome.err.Error()))
			return
		}

		if err := s.store.Update(ctx, sess.ID, outcome.result); err != nil {
			emit(ctx, out, errorEvent("persist analysis result: "+err.Error()))
			return
		}

		emit(ctx, out, types.StreamEvent{
			Type:             types.StreamEventResult,
			Result:           outcome.result,
			SessionID:        sess.ID,
			ProcessingTimeMS: s.now().Sub(start).Milliseconds(),
		})
	}()
	return out
}

// RefineStream is the streaming variant of Refine. A missing session yields
// a single terminal error event.
func (s *Service) RefineStream(ctx context.Context, sessionID, feedback string, mode pipeline.Mode) <-chan types.StreamEvent {
	out := make(chan types.StreamEvent)
	go func() {
		defer close(out)

		sess, err := s.store.Get(ctx, sessionID)
		if err != nil {
			emit(ctx, out, errorEvent("load session: "+err.Error()))
			return
		}
		if sess == nil {
			emit(ctx, out, errorEvent(ErrSessionNotFound.Error()))
			return
		}

		runner, err := s.refinementRunner(mode)
		if err != nil {
			emit(ctx, out, errorEvent(err.Error()))
			return
		}

		if !emit(ctx, out, types.StreamEvent{
			Type:    types.StreamEventProgress,
			Agent:   "system",
			Message: "Refining results with feedback: " + pipeline.Preview(feedback),
		}) {
			return
		}

		start := s.now()
		queue := pipeline.NewProgressQueue()
		done := make(chan runOutcome, 1)
		go func() {
			result, _, runErr := runner.Run(ctx, refinementInput(feedback), refinementSeed(sess), queue)
			done <- runOutcome{result: result, err: runErr}
		}()

		outcome, ok := s.pump(ctx, out, queue, done)
		if !ok {
			return
		}

		if outcome.err != nil {
			emit(ctx, out, errorEvent("Refinement failed: "+outcome.err.Error()))
			return
		}

		if err := s.store.Update(ctx, sess.ID, outcome.result); err != nil {
			emit(ctx, out, errorEvent("persist refinement result: "+err.Error()))
			return
		}

		emit(ctx, out, types.StreamEvent{
			Type:             types.StreamEventResult,
			Result:           outcome.result,
			SessionID:        sess.ID,
			ProcessingTimeMS: s.now().Sub(start).Milliseconds(),
		})
	}()
	return out
}

// pump forwards progress events until the run finishes, then drains whatever
// the queue still holds so no progress is lost ahead of the terminal event.
// ok is false when the consumer went away.
func (s *Service) pump(ctx context.Context, out chan<- types.StreamEvent, queue *pipeline.ProgressQueue, done <-chan runOutcome) (runOutcome, bool) {
	for {
		select {
		case outcome := <-done:
			for _, ev := range queue.Drain() {
				if !emit(ctx, out, ev) {
					return runOutcome{}, false
				}
			}
			return outcome, true
		default:
			if ev, ok := queue.Poll(pollInterval); ok {
				if !emit(ctx, out, ev) {
					return runOutcome{}, false
				}
			}
		}
	}
}

// emitAnalytics surfaces the deterministic career numbers before any unit
// produces output.
func (s *Service) emitAnalytics(ctx context.Context, out chan<- types.StreamEvent, summary experience.Summary) {
	if summary.NumRoles == 0 {
		return
	}
	emit(ctx, out, types.StreamEvent{
		Type:    types.StreamEventProgress,
		Agent:   "career_analytics",
		Message: fmt.Sprintf("Total YOE: %.1f years | Roles: %d | Avg tenure: %.1f years", summary.TotalYears, summary.NumRoles, summary.AvgTenureYears),
	})
	roles := summary.Roles
	if len(roles) > 5 {
		roles = roles[:5]
	}
	for _, role := range roles {
		emit(ctx, out, types.StreamEvent{
			Type:    types.StreamEventProgress,
			Agent:   "role_breakdown",
			Message: fmt.Sprintf("%s - %s: %.1f years", role.Start, role.End, role.DurationYears),
		})
	}
}

func errorEvent(message string) types.StreamEvent {
	return types.StreamEvent{Type: types.StreamEventError, Message: message}
}

// emit delivers an event unless the consumer's context is gone.
func emit(ctx context.Context, out chan<- types.StreamEvent, ev types.StreamEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
