package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Career-Scout/careerscout/internal/logger"
)

// HTTPExecutor dispatches units to a model runtime over HTTP. The runtime
// exposes a single generate endpoint accepting the unit instruction, the
// model id, the input text and the accumulated state.
type HTTPExecutor struct {
	baseURL string
	client  *http.Client
}

func NewHTTPExecutor(baseURL string, timeout time.Duration) *HTTPExecutor {
	return &HTTPExecutor{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Agent       string            `json:"agent"`
	Model       string            `json:"model"`
	Instruction string            `json:"instruction"`
	Input       string            `json:"input"`
	State       map[string]string `json:"state,omitempty"`
	Tools       []string          `json:"tools,omitempty"`
}

type generateResponse struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

func (e *HTTPExecutor) Execute(ctx context.Context, req ExecRequest) (string, error) {
	toolNames := make([]string, 0, len(req.Unit.Tools))
	for _, tool := range req.Unit.Tools {
		toolNames = append(toolNames, tool.Name)
	}

	payload, err := json.Marshal(generateRequest{
		Agent:       req.Unit.Name,
		Model:       req.Model,
		Instruction: req.Unit.Instruction,
		Input:       req.Input,
		State:       req.State,
		Tools:       toolNames,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("runtime call for %s failed: %w", req.Unit.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read runtime response for %s: %w", req.Unit.Name, err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Logger.Warn().
			Int("status", resp.StatusCode).
			Str("unit", req.Unit.Name).
			Msg("runtime returned non-OK status")
		return "", fmt.Errorf("runtime returned status %d for %s", resp.StatusCode, req.Unit.Name)
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode runtime response for %s: %w", req.Unit.Name, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("runtime error for %s: %s", req.Unit.Name, out.Error)
	}
	return out.Output, nil
}
