package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Career-Scout/careerscout/internal/analysis"
	"github.com/Career-Scout/careerscout/internal/pipeline"
	"github.com/Career-Scout/careerscout/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var validResume = strings.Repeat("Senior Engineer at Acme since 2019. ", 5)

// stubService satisfies Analyzer with canned outcomes.
type stubService struct {
	analyzeErr error
	refineErr  error
	gotText    string
	gotMode    pipeline.Mode
}

func (s *stubService) Analyze(ctx context.Context, resumeText string, mode pipeline.Mode) (*types.AnalyzeResponse, error) {
	s.gotText, s.gotMode = resumeText, mode
	if s.analyzeErr != nil {
		return nil, s.analyzeErr
	}
	return &types.AnalyzeResponse{Status: "success", SessionID: "session_abcd1234", Result: "report", ProcessingTimeMS: 42}, nil
}

func (s *stubService) Refine(ctx context.Context, sessionID, feedback string, mode pipeline.Mode) (*types.RefineResponse, error) {
	if s.refineErr != nil {
		return nil, s.refineErr
	}
	return &types.RefineResponse{Status: "success", SessionID: sessionID, Result: "refined report", ProcessingTimeMS: 21}, nil
}

func (s *stubService) AnalyzeStream(ctx context.Context, resumeText string, mode pipeline.Mode) <-chan types.StreamEvent {
	out := make(chan types.StreamEvent, 4)
	out <- types.StreamEvent{Type: types.StreamEventProgress, Agent: "system", Message: "starting", SessionID: "session_abcd1234"}
	if s.analyzeErr != nil {
		out <- types.StreamEvent{Type: types.StreamEventError, Message: s.analyzeErr.Error()}
	} else {
		out <- types.StreamEvent{Type: types.StreamEventResult, Result: "report", SessionID: "session_abcd1234", ProcessingTimeMS: 42}
	}
	close(out)
	return out
}

func (s *stubService) RefineStream(ctx context.Context, sessionID, feedback string, mode pipeline.Mode) <-chan types.StreamEvent {
	out := make(chan types.StreamEvent, 2)
	if s.refineErr != nil {
		out <- types.StreamEvent{Type: types.StreamEventError, Message: s.refineErr.Error()}
	} else {
		out <- types.StreamEvent{Type: types.StreamEventResult, Result: "refined report", SessionID: sessionID}
	}
	close(out)
	return out
}

func testRouter(svc Analyzer) *gin.Engine {
	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/health", HealthHandler("test"))
	api.POST("/analyze", AnalyzeHandler(svc))
	api.POST("/analyze/stream", AnalyzeStreamHandler(svc))
	api.POST("/refine", RefineHandler(svc))
	api.POST("/refine/stream", RefineStreamHandler(svc))
	return r
}

func formRequest(t *testing.T, target string, fields map[string]string, fileName, fileBody string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(fileBody))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(&stubService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp types.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestAnalyzeHandler_TextForm(t *testing.T) {
	svc := &stubService{}
	w := httptest.NewRecorder()
	req := formRequest(t, "/api/v1/analyze", map[string]string{"resume_text": validResume, "model_mode": "deep"}, "", "")
	testRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pipeline.ModeDeep, svc.gotMode)
	assert.Equal(t, strings.TrimSpace(validResume), svc.gotText)

	var resp types.AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "session_abcd1234", resp.SessionID)
}

func TestAnalyzeHandler_FileUpload(t *testing.T) {
	svc := &stubService{}
	w := httptest.NewRecorder()
	req := formRequest(t, "/api/v1/analyze", nil, "resume.txt", validResume)
	testRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pipeline.ModeStandard, svc.gotMode)
}

func TestAnalyzeHandler_BinaryUploadRejected(t *testing.T) {
	w := httptest.NewRecorder()
	req := formRequest(t, "/api/v1/analyze", nil, "resume.pdf", "%PDF-1.4 binary")
	testRouter(&stubService{}).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), ".pdf")
}

func TestAnalyzeHandler_MissingInput(t *testing.T) {
	w := httptest.NewRecorder()
	req := formRequest(t, "/api/v1/analyze", map[string]string{}, "", "")
	testRouter(&stubService{}).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file upload or resume text")
}

func TestAnalyzeHandler_ShortText(t *testing.T) {
	w := httptest.NewRecorder()
	req := formRequest(t, "/api/v1/analyze", map[string]string{"resume_text": "too short"}, "", "")
	testRouter(&stubService{}).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "too short")
}

func TestAnalyzeHandler_UnknownMode(t *testing.T) {
	w := httptest.NewRecorder()
	req := formRequest(t, "/api/v1/analyze", map[string]string{"resume_text": validResume, "model_mode": "turbo"}, "", "")
	testRouter(&stubService{}).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "turbo")
}

func TestAnalyzeHandler_PipelineError(t *testing.T) {
	svc := &stubService{analyzeErr: &analysis.ExecutionError{Graph: "analysis", Err: assert.AnError}}
	w := httptest.NewRecorder()
	req := formRequest(t, "/api/v1/analyze", map[string]string{"resume_text": validResume}, "", "")
	testRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRefineHandler_Success(t *testing.T) {
	body := `{"session_id":"session_abcd1234","feedback":"remote only"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/refine", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	testRouter(&stubService{}).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp types.RefineResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "refined report", resp.Result)
}

func TestRefineHandler_SessionNotFound(t *testing.T) {
	svc := &stubService{refineErr: analysis.ErrSessionNotFound}
	body := `{"session_id":"session_gone1234","feedback":"remote only"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/refine", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	testRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefineHandler_InvalidBody(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/refine", strings.NewReader(`{"feedback":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	testRouter(&stubService{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeStreamHandler_SSE(t *testing.T) {
	w := httptest.NewRecorder()
	req := formRequest(t, "/api/v1/analyze/stream", map[string]string{"resume_text": validResume}, "", "")
	testRouter(&stubService{}).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	body := w.Body.String()
	assert.Contains(t, body, `"type":"progress"`)
	assert.Contains(t, body, `"type":"result"`)
	assert.Contains(t, body, "session_abcd1234")
}

func TestAnalyzeStreamHandler_BadInputIsHTTPError(t *testing.T) {
	w := httptest.NewRecorder()
	req := formRequest(t, "/api/v1/analyze/stream", map[string]string{"resume_text": "nope"}, "", "")
	testRouter(&stubService{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefineStreamHandler_MissingSessionIsStreamError(t *testing.T) {
	svc := &stubService{refineErr: analysis.ErrSessionNotFound}
	body := `{"session_id":"session_gone1234","feedback":"remote only"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/refine/stream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	testRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"error"`)
	assert.Contains(t, w.Body.String(), "not found")
}
