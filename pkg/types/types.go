package types

import (
	"encoding/json"
	"time"
)

// StreamEventType enumerates the wire-level event kinds emitted on a
// streaming analysis or refinement call.
type StreamEventType string

const (
	StreamEventProgress StreamEventType = "progress"
	StreamEventResult   StreamEventType = "result"
	StreamEventError    StreamEventType = "error"
)

// StreamEvent is one record on the progress stream. Absent fields are
// omitted from the wire payload.
type StreamEvent struct {
	Type             StreamEventType `json:"type"`
	Agent            string          `json:"agent,omitempty"`
	Message          string          `json:"message,omitempty"`
	Result           string          `json:"result,omitempty"`
	SessionID        string          `json:"session_id,omitempty"`
	ProcessingTimeMS int64           `json:"processing_time_ms,omitempty"`
}

// IsTerminal reports whether the event ends the stream.
func (e StreamEvent) IsTerminal() bool {
	return e.Type == StreamEventResult || e.Type == StreamEventError
}

// ToSSE renders the event as a Server-Sent Events data frame.
func (e StreamEvent) ToSSE() string {
	payload, err := json.Marshal(e)
	if err != nil {
		return ""
	}
	return "data: " + string(payload) + "\n\n"
}

// AnalyzeResponse is the non-streaming analysis payload.
type AnalyzeResponse struct {
	Status           string `json:"status"`
	SessionID        string `json:"session_id"`
	Result           string `json:"result"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
}

// RefineRequest asks for a refinement of a prior analysis.
type RefineRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Feedback  string `json:"feedback" binding:"required,min=3"`
}

// RefineResponse is the non-streaming refinement payload.
type RefineResponse struct {
	Status           string `json:"status"`
	SessionID        string `json:"session_id"`
	Result           string `json:"result"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}
