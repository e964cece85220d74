package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Career-Scout/careerscout/internal/analysis"
	"github.com/Career-Scout/careerscout/internal/logger"
	"github.com/Career-Scout/careerscout/internal/pipeline"
	"github.com/Career-Scout/careerscout/pkg/types"
)

// RefineHandler re-runs the scouting stages for an existing session with the
// caller's feedback.
func RefineHandler(svc Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.RefineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request: "+err.Error())
			return
		}

		resp, err := svc.Refine(c.Request.Context(), req.SessionID, req.Feedback, pipeline.ModeStandard)
		if err != nil {
			if errors.Is(err, analysis.ErrSessionNotFound) {
				errorJSON(c, http.StatusNotFound, err.Error())
				return
			}
			logger.Logger.Error().Err(err).Str("session_id", req.SessionID).Msg("refinement failed")
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
