// Package experience computes total years of experience from free-form
// employment history text. It is deterministic and makes no external calls;
// its output is injected into the analysis pipeline as ground truth so
// downstream units never re-estimate it.
package experience

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Role is one parsed employment interval.
type Role struct {
	Start          string  `json:"start"`
	End            string  `json:"end"`
	DurationMonths int     `json:"duration_months"`
	DurationYears  float64 `json:"duration_years"`
}

// Summary aggregates every parsed interval. TotalYears is deduplicated by
// calendar month: two overlapping roles covering the same month count that
// month once. StatedYears is the self-reported figure found in the text,
// kept only as a cross-check, never as the primary number.
type Summary struct {
	TotalYears        float64 `json:"total_yoe"`
	StatedYears       *int    `json:"stated_yoe,omitempty"`
	CalculationMethod string  `json:"calculation_method"`
	CareerSpan        string  `json:"career_span"`
	NumRoles          int     `json:"num_roles"`
	AvgTenureYears    float64 `json:"avg_tenure_years"`
	Roles             []Role  `json:"role_breakdown"`
	Note              string  `json:"note"`
}

// maxRoleBreakdown caps the traceability list carried on the summary.
const maxRoleBreakdown = 10

const monthNames = `January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sept|Sep|Oct|Nov|Dec`

var (
	textDatePattern    = regexp.MustCompile(`(?i)(` + monthNames + `)\s+(\d{4})\s*[-–]\s*(Present|(` + monthNames + `)\s+(\d{4}))`)
	numericDatePattern = regexp.MustCompile(`(?i)(\d{1,2})/(\d{2,4})\s*[-–]\s*(Present|(\d{1,2})/(\d{2,4}))`)
	statedYearsPattern = regexp.MustCompile(`(?i)(\d+)\+?\s*years?\s*(?:of\s+)?(?:experience|at|in|building|leading)`)
)

var monthsByName = map[string]int{
	"january": 1, "jan": 1,
	"february": 2, "feb": 2,
	"march": 3, "mar": 3,
	"april": 4, "apr": 4,
	"may":  5,
	"june": 6, "jun": 6,
	"july": 7, "jul": 7,
	"august": 8, "aug": 8,
	"september": 9, "sept": 9, "sep": 9,
	"october": 10, "oct": 10,
	"november": 11, "nov": 11,
	"december": 12, "dec": 12,
}

// Extractor parses employment intervals. Now is injectable so open-ended
// "Present" ranges are testable against a frozen clock.
type Extractor struct {
	Now func() time.Time
}

// NewExtractor returns an Extractor on the real clock.
func NewExtractor() *Extractor {
	return &Extractor{Now: time.Now}
}

type yearMonth struct {
	year  int
	month int
}

// Summarize scans text with both interval grammars and returns the
// deduplicated experience summary.
func (e *Extractor) Summarize(text string) Summary {
	now := e.Now()
	currentYear, currentMonth := now.Year(), int(now.Month())

	var roles []Role
	worked := make(map[yearMonth]struct{})

	for _, m := range textDatePattern.FindAllStringSubmatch(text, -1) {
		startMonth, ok := monthsByName[strings.ToLower(m[1])]
		if !ok {
			continue
		}
		startYear, _ := strconv.Atoi(m[2])

		var endMonth, endYear int
		var endDisplay string
		if strings.EqualFold(m[3], "present") {
			endMonth, endYear = currentMonth, currentYear
			endDisplay = "Present"
		} else if m[5] != "" {
			endMonth = monthsByName[strings.ToLower(m[4])]
			endYear, _ = strconv.Atoi(m[5])
			endDisplay = fmt.Sprintf("%s %s", m[4], m[5])
		} else {
			continue
		}

		role, ok := buildRole(fmt.Sprintf("%s %d", m[1], startYear), endDisplay, startYear, startMonth, endYear, endMonth)
		if !ok {
			continue
		}
		markWorked(worked, startYear, startMonth, endYear, endMonth)
		roles = append(roles, role)
	}

	for _, m := range numericDatePattern.FindAllStringSubmatch(text, -1) {
		startMonth, _ := strconv.Atoi(m[1])
		if startMonth < 1 || startMonth > 12 {
			continue
		}
		startYear := expandYear(m[2])

		var endMonth, endYear int
		var endDisplay string
		if strings.EqualFold(m[3], "present") {
			endMonth, endYear = currentMonth, currentYear
			endDisplay = "Present"
		} else if m[4] != "" && m[5] != "" {
			endMonth, _ = strconv.Atoi(m[4])
			if endMonth < 1 || endMonth > 12 {
				continue
			}
			endYear = expandYear(m[5])
			endDisplay = fmt.Sprintf("%02d/%s", endMonth, m[5])
		} else {
			continue
		}

		role, ok := buildRole(fmt.Sprintf("%02d/%d", startMonth, startYear), endDisplay, startYear, startMonth, endYear, endMonth)
		if !ok {
			continue
		}
		markWorked(worked, startYear, startMonth, endYear, endMonth)
		roles = append(roles, role)
	}

	totalMonths := len(worked)
	summary := Summary{
		TotalYears:        round1(float64(totalMonths) / 12),
		CalculationMethod: "date_parsing_deduped",
		CareerSpan:        careerSpan(worked),
		NumRoles:          len(roles),
		StatedYears:       statedYears(text),
	}

	if len(roles) > 0 {
		sum := 0
		for _, r := range roles {
			sum += r.DurationMonths
		}
		summary.AvgTenureYears = round1(float64(sum) / float64(len(roles)) / 12)
	}

	if len(roles) > maxRoleBreakdown {
		summary.Roles = roles[:maxRoleBreakdown]
	} else {
		summary.Roles = roles
	}

	summary.Note = fmt.Sprintf("Calculated %.1f years from %d roles.", summary.TotalYears, summary.NumRoles)
	if summary.StatedYears != nil {
		summary.Note += fmt.Sprintf(" Document states %d+ years.", *summary.StatedYears)
	}

	return summary
}

func buildRole(startDisplay, endDisplay string, startYear, startMonth, endYear, endMonth int) (Role, bool) {
	durationMonths := (endYear-startYear)*12 + (endMonth - startMonth)
	if durationMonths <= 0 {
		return Role{}, false
	}
	return Role{
		Start:          startDisplay,
		End:            endDisplay,
		DurationMonths: durationMonths,
		DurationYears:  round1(float64(durationMonths) / 12),
	}, true
}

// markWorked adds every calendar month of the inclusive interval to the set.
func markWorked(worked map[yearMonth]struct{}, startYear, startMonth, endYear, endMonth int) {
	for y := startYear; y <= endYear; y++ {
		for m := 1; m <= 12; m++ {
			if y == startYear && m < startMonth {
				continue
			}
			if y == endYear && m > endMonth {
				continue
			}
			worked[yearMonth{y, m}] = struct{}{}
		}
	}
}

func careerSpan(worked map[yearMonth]struct{}) string {
	if len(worked) == 0 {
		return "Unknown"
	}
	earliest := yearMonth{1 << 30, 13}
	latest := yearMonth{-1, 0}
	for ym := range worked {
		if ym.year < earliest.year || (ym.year == earliest.year && ym.month < earliest.month) {
			earliest = ym
		}
		if ym.year > latest.year || (ym.year == latest.year && ym.month > latest.month) {
			latest = ym
		}
	}
	return fmt.Sprintf("%d to %d", earliest.year, latest.year)
}

func statedYears(text string) *int {
	var best *int
	for _, m := range statedYearsPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if best == nil || n > *best {
			v := n
			best = &v
		}
	}
	return best
}

func expandYear(raw string) int {
	n, _ := strconv.Atoi(raw)
	if len(raw) == 2 {
		return 2000 + n
	}
	return n
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
