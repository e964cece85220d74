package consensus

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func input(m, c, o int) Input {
	return Input{
		MostLikely:   Assessment{Level: m, Title: "Senior Engineer"},
		Conservative: Assessment{Level: c},
		Optimistic:   Assessment{Level: o},
		Profession:   "Software Engineering",
	}
}

func TestAggregate_AllAgree(t *testing.T) {
	for m := 1; m <= 10; m++ {
		result := Aggregate(input(m, m, m))
		assert.Equal(t, m, result.FinalLevel)
		assert.Equal(t, ConfidenceHigh, result.ConfidenceLabel)
		assert.Equal(t, 0.9, result.FinalConfidence)
		assert.Equal(t, "3/3 agents", result.Agreement)
	}
}

func TestAggregate_TwoAgree(t *testing.T) {
	cases := []Input{input(5, 5, 7), input(5, 7, 5), input(7, 5, 5)}
	for _, in := range cases {
		result := Aggregate(in)
		assert.Equal(t, ConfidenceMedium, result.ConfidenceLabel)
		assert.Equal(t, 0.75, result.FinalConfidence)
		assert.Equal(t, 2, result.AgreementCount)
	}
}

func TestAggregate_AllDiffer(t *testing.T) {
	result := Aggregate(input(4, 6, 8))
	assert.Equal(t, ConfidenceLow, result.ConfidenceLabel)
	assert.Equal(t, 0.6, result.FinalConfidence)
	assert.Equal(t, "1/3 agents", result.Agreement)
}

func TestAggregate_WeightedExactCase(t *testing.T) {
	// M=8, C=6, O=6 -> 8*0.5 + 6*0.25 + 6*0.25 = 7.0
	result := Aggregate(input(8, 6, 6))
	assert.Equal(t, 7, result.FinalLevel)
	assert.Equal(t, ConfidenceMedium, result.ConfidenceLabel)
	assert.Equal(t, 2, result.AgreementCount)
}

func TestAggregate_HalfRoundsUp(t *testing.T) {
	// 6*0.5 + 7*0.25 + 7*0.25 = 6.5; half-up gives 7 where banker's
	// rounding would give 6.
	result := Aggregate(input(6, 7, 7))
	assert.Equal(t, 7, result.FinalLevel)
}

func TestAggregate_LevelAlwaysInBounds(t *testing.T) {
	for m := -5; m <= 15; m++ {
		for c := -5; c <= 15; c += 5 {
			for o := -5; o <= 15; o += 5 {
				result := Aggregate(input(m, c, o))
				name := fmt.Sprintf("m=%d c=%d o=%d", m, c, o)
				assert.GreaterOrEqual(t, result.FinalLevel, 1, name)
				assert.LessOrEqual(t, result.FinalLevel, 10, name)
			}
		}
	}
}

func TestAggregate_PassThroughMetadata(t *testing.T) {
	in := input(6, 5, 7)
	in.EquivalentTitles = []string{"Staff Engineer", "Lead Engineer"}
	result := Aggregate(in)

	assert.Equal(t, "Software Engineering", result.Profession)
	assert.Equal(t, "Senior Engineer", result.FinalTitle)
	assert.Equal(t, []string{"Staff Engineer", "Lead Engineer"}, result.EquivalentTitles)
	assert.Equal(t, 50, result.Votes["most_likely"])
}
