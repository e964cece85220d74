package experience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frozenExtractor(year int, month time.Month) *Extractor {
	return &Extractor{Now: func() time.Time {
		return time.Date(year, month, 15, 0, 0, 0, 0, time.UTC)
	}}
}

func TestSummarize_TextDates(t *testing.T) {
	e := frozenExtractor(2025, time.June)
	summary := e.Summarize("Acme Corp, Senior Engineer, January 2020 – December 2022")

	require.Len(t, summary.Roles, 1)
	assert.Equal(t, "January 2020", summary.Roles[0].Start)
	assert.Equal(t, "December 2022", summary.Roles[0].End)
	assert.Equal(t, 35, summary.Roles[0].DurationMonths)
	// Inclusive month set: Jan 2020 through Dec 2022 is 36 calendar months.
	assert.InDelta(t, 3.0, summary.TotalYears, 0.001)
	assert.Equal(t, "2020 to 2022", summary.CareerSpan)
}

func TestSummarize_NumericDates(t *testing.T) {
	e := frozenExtractor(2025, time.June)
	summary := e.Summarize("Widgets Inc 03/19 – 02/21, shipped things")

	require.Len(t, summary.Roles, 1)
	assert.Equal(t, "03/2019", summary.Roles[0].Start)
	assert.Equal(t, 23, summary.Roles[0].DurationMonths)
}

func TestSummarize_OverlapDeduped(t *testing.T) {
	e := frozenExtractor(2025, time.June)
	text := "Role A: Jan 2018 – Dec 2020\nRole B: Jun 2019 – Dec 2020"
	summary := e.Summarize(text)

	require.Equal(t, 2, summary.NumRoles)
	sum := 0
	for _, r := range summary.Roles {
		sum += r.DurationMonths
	}
	// Overlapping months are counted once, so the deduplicated total is
	// strictly less than the naive per-role sum.
	deduped := int(summary.TotalYears * 12)
	assert.Less(t, deduped, sum)
	// Jan 2018..Dec 2020 inclusive is exactly 36 months of coverage.
	assert.InDelta(t, 3.0, summary.TotalYears, 0.001)
}

func TestSummarize_PresentUsesFrozenClock(t *testing.T) {
	e := frozenExtractor(2025, time.June)
	summary := e.Summarize("Jan 2018 – Dec 2020 and also Jun 2019 – Present")

	// Coverage runs Jan 2018 through Jun 2025 inclusive: 90 months.
	assert.InDelta(t, 7.5, summary.TotalYears, 0.001)
	assert.Equal(t, "2018 to 2025", summary.CareerSpan)
	require.Len(t, summary.Roles, 2)
	assert.Equal(t, "Present", summary.Roles[1].End)
}

func TestSummarize_ReversedRangeDiscarded(t *testing.T) {
	e := frozenExtractor(2025, time.June)
	summary := e.Summarize("Dec 2022 – Jan 2020 at Backwards LLC")

	assert.Zero(t, summary.NumRoles)
	assert.Zero(t, summary.TotalYears)
	assert.Equal(t, "Unknown", summary.CareerSpan)
}

func TestSummarize_StatedYearsKeepsMaximum(t *testing.T) {
	e := frozenExtractor(2025, time.June)
	summary := e.Summarize("5 years of experience building APIs. 12+ years in fintech.")

	require.NotNil(t, summary.StatedYears)
	assert.Equal(t, 12, *summary.StatedYears)
	assert.Contains(t, summary.Note, "12+ years")
}

func TestSummarize_Idempotent(t *testing.T) {
	e := frozenExtractor(2025, time.June)
	text := "Jan 2018 – Dec 2020\n06/19 – Present\n8 years of experience"

	first := e.Summarize(text)
	second := e.Summarize(text)
	assert.Equal(t, first, second)
}

func TestSummarize_RoleBreakdownCapped(t *testing.T) {
	e := frozenExtractor(2025, time.June)
	text := ""
	for y := 2000; y < 2014; y++ {
		text += time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006") +
			" – " + time.Date(y, time.November, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006") + "\n"
	}
	summary := e.Summarize(text)

	assert.Equal(t, 14, summary.NumRoles)
	assert.Len(t, summary.Roles, 10)
}

func TestSummarize_AverageTenure(t *testing.T) {
	e := frozenExtractor(2025, time.June)
	summary := e.Summarize("Jan 2020 – Jan 2021\nJan 2022 – Jan 2023")

	require.Equal(t, 2, summary.NumRoles)
	assert.InDelta(t, 1.0, summary.AvgTenureYears, 0.001)
}
