package links

import (
	"context"

	"github.com/Career-Scout/careerscout/internal/logger"
)

// DefaultMaxRetries caps the self-healing loop. The producing unit gets this
// many chances to regenerate broken links before the outcome fails closed.
const DefaultMaxRetries = 2

// NeedsVerificationMarker tags output whose links could not be confirmed
// within the retry budget.
const NeedsVerificationMarker = "validation_status: needs_verification"

// RegenerateFunc asks the producing unit for a fresh rendition of its output
// given validation feedback.
type RegenerateFunc func(ctx context.Context, feedback string) (string, error)

// Outcome is the terminal state of a healing round.
type Outcome struct {
	Text              string
	Attempts          int
	AllValid          bool
	NeedsVerification bool
	InvalidURLs       []string
}

// Healer wraps a Validator with an explicit, bounded retry contract: validate,
// feed failures back to the producer, and after MaxRetries mark the output as
// needing verification instead of looping further.
type Healer struct {
	Validator  *Validator
	MaxRetries int
}

// NewHealer builds a Healer with the default retry budget.
func NewHealer(v *Validator) *Healer {
	return &Healer{Validator: v, MaxRetries: DefaultMaxRetries}
}

// Heal validates text, regenerating it through regen while links stay broken.
// Only regeneration errors are returned; exhausting the budget is not an
// error, it degrades to a needs-verification marking on the last rendition.
func (h *Healer) Heal(ctx context.Context, text string, regen RegenerateFunc) (Outcome, error) {
	current := text
	attempts := 0

	for {
		ok, feedback, result := h.Validator.CheckText(ctx, current)
		if ok {
			return Outcome{Text: current, Attempts: attempts, AllValid: true, InvalidURLs: []string{}}, nil
		}

		if attempts >= h.MaxRetries || regen == nil {
			logger.Logger.Warn().
				Int("attempts", attempts).
				Strs("invalid_urls", result.InvalidURLs).
				Msg("link validation did not converge; marking needs_verification")
			return Outcome{
				Text:              current + "\n\n" + NeedsVerificationMarker,
				Attempts:          attempts,
				NeedsVerification: true,
				InvalidURLs:       result.InvalidURLs,
			}, nil
		}

		attempts++
		logger.Logger.Debug().Int("attempt", attempts).Msg("regenerating output after failed link validation")
		next, err := regen(ctx, feedback)
		if err != nil {
			return Outcome{}, err
		}
		current = next
	}
}
