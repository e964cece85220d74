// Package links probes outbound URLs found in unit output and drives the
// bounded self-healing retry used by the job-scout validation stage.
package links

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultProbeTimeout bounds each reachability probe.
const DefaultProbeTimeout = 10 * time.Second

// searchDirectiveMarker prefixes internal search directives that look like
// URLs but must never be probed.
const searchDirectiveMarker = "[SEARCH:"

var urlPattern = regexp.MustCompile("https?://[^\\s)\\]\"'<>`]+")

var linkProbes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "careerscout_link_probes_total",
	Help: "Link reachability probes by outcome.",
}, []string{"outcome"})

// ProbeResult records one URL probe.
type ProbeResult struct {
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
	Valid  bool   `json:"valid"`
	Error  string `json:"error,omitempty"`
}

// Result aggregates a validation round.
type Result struct {
	TotalURLs    int           `json:"total_urls"`
	ValidCount   int           `json:"valid_count"`
	InvalidCount int           `json:"invalid_count"`
	AllValid     bool          `json:"all_valid"`
	InvalidURLs  []string      `json:"invalid_urls"`
	Results      []ProbeResult `json:"results"`
}

// Validator issues concurrent HEAD probes. The zero timeout falls back to
// DefaultProbeTimeout.
type Validator struct {
	client *http.Client
}

// NewValidator builds a Validator with the given per-probe timeout.
func NewValidator(timeout time.Duration) *Validator {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Validator{client: &http.Client{Timeout: timeout}}
}

// NewValidatorWithClient is used by tests to substitute the transport.
func NewValidatorWithClient(client *http.Client) *Validator {
	return &Validator{client: client}
}

// ExtractURLs scans text for URL-shaped tokens, dropping internal search
// directives and trailing backticks picked up from fenced markdown.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllStringIndex(text, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		start := m[0]
		markerStart := start - len(searchDirectiveMarker)
		if markerStart >= 0 && text[markerStart:start] == searchDirectiveMarker {
			continue
		}
		urls = append(urls, strings.TrimRight(text[start:m[1]], "`"))
	}
	return urls
}

// Validate probes every URL concurrently and reports the aggregate. A URL is
// valid only on an exact 200; timeouts, redirects that never resolve,
// non-200 statuses, and transport errors are all invalid.
func (v *Validator) Validate(ctx context.Context, urls []string) Result {
	results := make([]ProbeResult, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i] = v.probe(ctx, u)
		}(i, u)
	}
	wg.Wait()

	agg := Result{TotalURLs: len(urls), Results: results, InvalidURLs: []string{}}
	for _, r := range results {
		if r.Valid {
			agg.ValidCount++
			linkProbes.WithLabelValues("valid").Inc()
		} else {
			agg.InvalidURLs = append(agg.InvalidURLs, r.URL)
			linkProbes.WithLabelValues("invalid").Inc()
		}
	}
	agg.InvalidCount = agg.TotalURLs - agg.ValidCount
	agg.AllValid = agg.ValidCount == agg.TotalURLs
	return agg
}

func (v *Validator) probe(ctx context.Context, url string) ProbeResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return ProbeResult{URL: url, Error: err.Error()}
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return ProbeResult{URL: url, Error: err.Error()}
	}
	defer resp.Body.Close()

	return ProbeResult{
		URL:    url,
		Status: resp.StatusCode,
		Valid:  resp.StatusCode == http.StatusOK,
	}
}

// CheckText extracts and validates every link in text. It returns whether
// the text passed, feedback for the producing unit when it did not, and the
// underlying aggregate.
func (v *Validator) CheckText(ctx context.Context, text string) (bool, string, Result) {
	urls := ExtractURLs(text)
	if len(urls) == 0 {
		return false, "No URLs found. Include one search URL per job tier.", Result{InvalidURLs: []string{}}
	}

	result := v.Validate(ctx, urls)
	if result.AllValid {
		return true, "", result
	}

	feedback := fmt.Sprintf(
		"URL VALIDATION FAILED: %d of %d URLs are unreachable (%s). Retry with company careers-page search URLs.",
		result.InvalidCount, result.TotalURLs, strings.Join(result.InvalidURLs, ", "))
	return false, feedback, result
}
