// Package handlers exposes the analysis service over HTTP.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Career-Scout/careerscout/internal/analysis"
	"github.com/Career-Scout/careerscout/internal/extract"
	"github.com/Career-Scout/careerscout/internal/logger"
	"github.com/Career-Scout/careerscout/internal/pipeline"
	"github.com/Career-Scout/careerscout/pkg/types"
)

// Analyzer is the narrow service surface the handlers depend on.
type Analyzer interface {
	Analyze(ctx context.Context, resumeText string, mode pipeline.Mode) (*types.AnalyzeResponse, error)
	Refine(ctx context.Context, sessionID, feedback string, mode pipeline.Mode) (*types.RefineResponse, error)
	AnalyzeStream(ctx context.Context, resumeText string, mode pipeline.Mode) <-chan types.StreamEvent
	RefineStream(ctx context.Context, sessionID, feedback string, mode pipeline.Mode) <-chan types.StreamEvent
}

func errorJSON(c *gin.Context, status int, detail string) {
	c.JSON(status, types.ErrorResponse{Status: "error", Detail: detail})
}

// resumeTextFromRequest pulls resume text from either a multipart file
// upload or the resume_text form field, validated and bounded. It writes the
// error response itself and reports ok=false when the request is unusable.
func resumeTextFromRequest(c *gin.Context) (string, bool) {
	var raw string

	fileHeader, err := c.FormFile("file")
	switch {
	case err == nil && fileHeader.Filename != "":
		if fileHeader.Size > extract.MaxUploadBytes {
			errorJSON(c, http.StatusBadRequest, "file too large; maximum size is 10MB")
			return "", false
		}
		f, err := fileHeader.Open()
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "could not open uploaded file: "+err.Error())
			return "", false
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, extract.MaxUploadBytes+1))
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "could not read uploaded file: "+err.Error())
			return "", false
		}
		if len(data) > extract.MaxUploadBytes {
			errorJSON(c, http.StatusBadRequest, "file too large; maximum size is 10MB")
			return "", false
		}
		raw, err = extract.FromUpload(data, fileHeader.Filename)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, err.Error())
			return "", false
		}
	case c.PostForm("resume_text") != "":
		raw = c.PostForm("resume_text")
	default:
		errorJSON(c, http.StatusBadRequest, "provide either a file upload or resume text")
		return "", false
	}

	text, err := extract.ValidateText(raw)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return "", false
	}
	return text, true
}

func modeFromRequest(c *gin.Context) (pipeline.Mode, bool) {
	mode, err := pipeline.ParseMode(c.PostForm("model_mode"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return "", false
	}
	return mode, true
}

// AnalyzeHandler runs a blocking analysis and returns the full report.
func AnalyzeHandler(svc Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		text, ok := resumeTextFromRequest(c)
		if !ok {
			return
		}
		mode, ok := modeFromRequest(c)
		if !ok {
			return
		}

		resp, err := svc.Analyze(c.Request.Context(), text, mode)
		if err != nil {
			var execErr *analysis.ExecutionError
			if errors.As(err, &execErr) {
				logger.Logger.Error().Err(err).Msg("analysis pipeline failed")
				errorJSON(c, http.StatusInternalServerError, execErr.Error())
				return
			}
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
