// Package consensus reconciles three independent level estimates into one
// calibrated result using weighted ensemble voting.
package consensus

import (
	"fmt"
	"math"
)

// Voting weights. The most-likely assessment counts double.
const (
	WeightMostLikely   = 0.50
	WeightConservative = 0.25
	WeightOptimistic   = 0.25
)

const (
	minLevel = 1
	maxLevel = 10
)

// ConfidenceLabel buckets the calibrated confidence.
type ConfidenceLabel string

const (
	ConfidenceHigh   ConfidenceLabel = "High"
	ConfidenceMedium ConfidenceLabel = "Medium"
	ConfidenceLow    ConfidenceLabel = "Low"
)

// Assessment is one estimator's view of the candidate level.
type Assessment struct {
	Level      int      `json:"level"`
	Title      string   `json:"title,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Evidence   []string `json:"evidence,omitempty"`
}

// Input carries the three estimates plus the profession metadata attached to
// the most-likely assessment, which passes through unchanged.
type Input struct {
	MostLikely       Assessment
	Conservative     Assessment
	Optimistic       Assessment
	Profession       string
	EquivalentTitles []string
}

// Result is the calibrated outcome.
type Result struct {
	Profession       string          `json:"profession,omitempty"`
	MostLikely       Assessment      `json:"most_likely_assessment"`
	Conservative     Assessment      `json:"conservative_assessment"`
	Optimistic       Assessment      `json:"optimistic_assessment"`
	FinalLevel       int             `json:"final_level"`
	FinalTitle       string          `json:"final_title,omitempty"`
	EquivalentTitles []string        `json:"equivalent_titles,omitempty"`
	FinalConfidence  float64         `json:"final_confidence"`
	ConfidenceLabel  ConfidenceLabel `json:"confidence_label"`
	Votes            map[string]int  `json:"votes"`
	Agreement        string          `json:"agreement"`
	AgreementCount   int             `json:"agreement_count"`
	Reasoning        string          `json:"reasoning"`
}

// Aggregate computes the weighted-vote consensus. The weighted sum rounds
// half-up: 6.5 becomes 7, never 6, so boundary inputs stay stable across
// platforms that default to banker's rounding.
func Aggregate(in Input) Result {
	weighted := float64(in.MostLikely.Level)*WeightMostLikely +
		float64(in.Conservative.Level)*WeightConservative +
		float64(in.Optimistic.Level)*WeightOptimistic

	level := clampLevel(roundHalfUp(weighted))
	agreement := largestCluster(in.MostLikely.Level, in.Conservative.Level, in.Optimistic.Level)

	var label ConfidenceLabel
	var confidence float64
	switch agreement {
	case 3:
		label, confidence = ConfidenceHigh, 0.9
	case 2:
		label, confidence = ConfidenceMedium, 0.75
	default:
		label, confidence = ConfidenceLow, 0.6
	}

	return Result{
		Profession:       in.Profession,
		MostLikely:       in.MostLikely,
		Conservative:     in.Conservative,
		Optimistic:       in.Optimistic,
		FinalLevel:       level,
		FinalTitle:       in.MostLikely.Title,
		EquivalentTitles: in.EquivalentTitles,
		FinalConfidence:  confidence,
		ConfidenceLabel:  label,
		Votes: map[string]int{
			"most_likely":  50,
			"conservative": 25,
			"optimistic":   25,
		},
		Agreement:      fmt.Sprintf("%d/3 agents", agreement),
		AgreementCount: agreement,
		Reasoning: fmt.Sprintf(
			"Weighted vote (M=%d at 50%%, C=%d at 25%%, O=%d at 25%%) yields level %d with %d/3 agents in agreement.",
			in.MostLikely.Level, in.Conservative.Level, in.Optimistic.Level, level, agreement),
	}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clampLevel(level int) int {
	if level < minLevel {
		return minLevel
	}
	if level > maxLevel {
		return maxLevel
	}
	return level
}

// largestCluster returns the size of the biggest group of equal values
// among the three inputs: 3 when all agree, 2 when exactly two do, else 1.
func largestCluster(a, b, c int) int {
	switch {
	case a == b && b == c:
		return 3
	case a == b || b == c || a == c:
		return 2
	default:
		return 1
	}
}
