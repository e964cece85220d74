package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Career-Scout/careerscout/internal/extract"
	"github.com/Career-Scout/careerscout/internal/logger"
	"github.com/Career-Scout/careerscout/internal/pipeline"
	"github.com/Career-Scout/careerscout/pkg/types"
)

func setSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

func streamSSE(c *gin.Context, events <-chan types.StreamEvent) {
	setSSEHeaders(c)
	for ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		c.SSEvent("message", string(payload))
		c.Writer.Flush()
	}
}

// AnalyzeStreamHandler streams analysis progress over Server-Sent Events,
// ending with a single result or error event.
func AnalyzeStreamHandler(svc Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		text, ok := resumeTextFromRequest(c)
		if !ok {
			return
		}
		mode, ok := modeFromRequest(c)
		if !ok {
			return
		}
		streamSSE(c, svc.AnalyzeStream(c.Request.Context(), text, mode))
	}
}

// RefineStreamHandler streams refinement progress over Server-Sent Events.
// A missing session surfaces as a terminal error event, not an HTTP error.
func RefineStreamHandler(svc Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.RefineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request: "+err.Error())
			return
		}
		streamSSE(c, svc.RefineStream(c.Request.Context(), req.SessionID, req.Feedback, pipeline.ModeStandard))
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// analyzeSocketRequest is the first frame a WebSocket client sends.
type analyzeSocketRequest struct {
	ResumeText string `json:"resume_text"`
	ModelMode  string `json:"model_mode"`
}

// AnalyzeSocketHandler is the WebSocket variant of the analysis stream for
// clients that cannot consume SSE.
func AnalyzeSocketHandler(svc Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the error response.
			return
		}
		defer conn.Close()

		var req analyzeSocketRequest
		if err := conn.ReadJSON(&req); err != nil {
			writeSocketError(conn, "invalid request frame: "+err.Error())
			return
		}
		text, err := extract.ValidateText(req.ResumeText)
		if err != nil {
			writeSocketError(conn, err.Error())
			return
		}
		mode, err := pipeline.ParseMode(req.ModelMode)
		if err != nil {
			writeSocketError(conn, err.Error())
			return
		}

		for ev := range svc.AnalyzeStream(c.Request.Context(), text, mode) {
			if err := conn.WriteJSON(ev); err != nil {
				logger.Logger.Debug().Err(err).Msg("websocket client went away mid-stream")
				return
			}
		}
	}
}

func writeSocketError(conn *websocket.Conn, message string) {
	if err := conn.WriteJSON(types.StreamEvent{Type: types.StreamEventError, Message: message}); err != nil {
		logger.Logger.Debug().Err(err).Msg("failed to write websocket error frame")
	}
}
