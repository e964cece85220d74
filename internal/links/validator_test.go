package links

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractURLs(t *testing.T) {
	text := "Apply at https://example.com/jobs and see [SEARCH:https://internal.example/q] " +
		"plus `https://example.org/careers` in a fence."
	urls := ExtractURLs(text)

	require.Len(t, urls, 2)
	assert.Equal(t, "https://example.com/jobs", urls[0])
	assert.Equal(t, "https://example.org/careers", urls[1])
}

func TestExtractURLs_NoMatches(t *testing.T) {
	assert.Empty(t, ExtractURLs("no links here, just prose"))
}

func TestValidate_MixedOutcomes(t *testing.T) {
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer okSrv.Close()
	notFoundSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer notFoundSrv.Close()
	slowSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slowSrv.Close()

	v := NewValidator(50 * time.Millisecond)
	result := v.Validate(context.Background(), []string{okSrv.URL, notFoundSrv.URL, slowSrv.URL})

	assert.False(t, result.AllValid)
	assert.Equal(t, 3, result.TotalURLs)
	assert.Equal(t, 1, result.ValidCount)
	assert.Equal(t, 2, result.InvalidCount)
	assert.NotContains(t, result.InvalidURLs, okSrv.URL)
	assert.Contains(t, result.InvalidURLs, notFoundSrv.URL)
	assert.Contains(t, result.InvalidURLs, slowSrv.URL)
}

func TestValidate_AllValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := NewValidator(time.Second)
	result := v.Validate(context.Background(), []string{srv.URL + "/a", srv.URL + "/b"})

	assert.True(t, result.AllValid)
	assert.Empty(t, result.InvalidURLs)
}

func TestCheckText_NoURLs(t *testing.T) {
	v := NewValidator(time.Second)
	ok, feedback, _ := v.CheckText(context.Background(), "plain text, nothing to probe")

	assert.False(t, ok)
	assert.Contains(t, feedback, "No URLs found")
}

func TestHealer_SucceedsAfterRegeneration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/good" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	h := NewHealer(NewValidator(time.Second))
	calls := 0
	outcome, err := h.Heal(context.Background(), "see "+srv.URL+"/broken", func(ctx context.Context, feedback string) (string, error) {
		calls++
		assert.Contains(t, feedback, "URL VALIDATION FAILED")
		return "see " + srv.URL + "/good", nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, outcome.AllValid)
	assert.False(t, outcome.NeedsVerification)
}

func TestHealer_FailsClosedAfterRetryBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	h := NewHealer(NewValidator(time.Second))
	calls := 0
	outcome, err := h.Heal(context.Background(), "see "+srv.URL+"/a", func(ctx context.Context, feedback string) (string, error) {
		calls++
		return fmt.Sprintf("see %s/retry-%d", srv.URL, calls), nil
	})

	require.NoError(t, err)
	assert.Equal(t, DefaultMaxRetries, calls)
	assert.True(t, outcome.NeedsVerification)
	assert.Contains(t, outcome.Text, NeedsVerificationMarker)
	assert.NotEmpty(t, outcome.InvalidURLs)
}

func TestHealer_RegenerationErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	h := NewHealer(NewValidator(time.Second))
	boom := errors.New("runtime unavailable")
	_, err := h.Heal(context.Background(), "see "+srv.URL, func(ctx context.Context, feedback string) (string, error) {
		return "", boom
	})

	assert.ErrorIs(t, err, boom)
}
