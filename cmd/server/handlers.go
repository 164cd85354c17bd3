package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/neuropredict/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/neuropredict/internal/errors"
	"github.com/ZanzyTHEbar/neuropredict/internal/types"
)

// handleHealth godoc
// @Summary Service health
// @Tags system
// @Produce json
// @Success 200 {object} types.HealthResponse
// @Router /health [get]
func (s *server) handleHealth(c *gin.Context) {
	sessions, clips := s.recorder.Counts()

	redisStatus := "disabled"
	if s.redis.IsEnabled() {
		redisStatus = "ok"
		if err := s.redis.HealthCheck(c.Request.Context()); err != nil {
			redisStatus = "unreachable"
		}
	}

	c.JSON(http.StatusOK, types.HealthResponse{
		Status:         "ok",
		Version:        version,
		Timestamp:      time.Now().UTC(),
		ActiveSessions: sessions,
		ActiveClips:    clips,
		Redis:          redisStatus,
	})
}

func (s *server) handleStats(c *gin.Context) {
	stats := s.metrics.GetStats()
	stats["rate_limiting"] = s.limiter.GetStats()
	stats["compression"] = s.compression.GetStats()
	c.JSON(http.StatusOK, stats)
}

func (s *server) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"responses": s.cache.Stats(),
		"captures":  s.recorder.Stats(),
	})
}

// handleModalities godoc
// @Summary List assessment modalities
// @Tags assessment
// @Produce json
// @Success 200 {object} types.ModalitiesResponse
// @Router /api/modalities [get]
func (s *server) handleModalities(c *gin.Context) {
	c.JSON(http.StatusOK, types.ModalitiesResponse{Modalities: s.analyzer.Modalities()})
}

// handleQuestionnaire godoc
// @Summary List questionnaire items
// @Tags assessment
// @Produce json
// @Success 200 {object} types.QuestionnaireResponse
// @Router /api/questionnaire [get]
func (s *server) handleQuestionnaire(c *gin.Context) {
	c.JSON(http.StatusOK, types.QuestionnaireResponse{Questions: analysis.Questionnaire()})
}

// handlePrivacy godoc
// @Summary Data handling statement
// @Tags system
// @Produce json
// @Success 200 {object} privacy.RetentionInfo
// @Router /api/privacy [get]
func (s *server) handlePrivacy(c *gin.Context) {
	c.JSON(http.StatusOK, s.privacy.RetentionInfo())
}

// handleAssessQuestionnaire godoc
// @Summary Estimate risk from symptom ratings
// @Tags assessment
// @Accept json
// @Produce json
// @Param answers body types.QuestionnaireAnswers true "Ratings 0-10 keyed by symptom id"
// @Success 200 {object} analysis.Report
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/assess/questionnaire [post]
func (s *server) handleAssessQuestionnaire(c *gin.Context) {
	start := time.Now()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apperrors.Abort(c, bodyError(err))
		return
	}

	var answers types.QuestionnaireAnswers
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&answers); err != nil || answers == nil {
		apperrors.Abort(c, apperrors.NewValidationError("Answers must be a JSON object of whole numbers between 0 and 10", err))
		return
	}

	res, err := s.analyzer.AnalyzeQuestionnaire(answers)
	if err != nil {
		apperrors.Abort(c, assessmentError(err))
		return
	}

	s.recordAssessment(res, time.Since(start), false)
	c.JSON(http.StatusOK, res.Report())
}

// handleAssessMedia godoc
// @Summary Simulated analysis of a captured clip
// @Description The clip is consumed: it is released once the result is produced.
// @Tags assessment
// @Accept json
// @Produce json
// @Param request body types.MediaAssessRequest true "Clip to analyze"
// @Success 200 {object} analysis.Report
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/assess/audio [post]
// @Router /api/assess/drawing [post]
func (s *server) handleAssessMedia(m analysis.Modality) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req types.MediaAssessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.Abort(c, apperrors.NewValidationError("Please record or upload first", err))
			return
		}

		clip, err := s.recorder.Clip(req.ClipID)
		if err != nil {
			apperrors.Abort(c, captureError(err, req.ClipID))
			return
		}
		if clip.Modality != m {
			apperrors.Abort(c, apperrors.NewValidationErrorWithMap("Clip belongs to another assessment",
				map[string]string{"clip_id": string(clip.Modality)}))
			return
		}

		clip, err = s.recorder.Consume(req.ClipID)
		if err != nil {
			apperrors.Abort(c, captureError(err, req.ClipID))
			return
		}
		defer func() {
			clip.Release()
			s.recordCapture("release", string(clip.Modality), clip.ID, clip.Size(), nil)
		}()

		res, err := s.analyzer.AnalyzeMedia(m, int64(len(clip.Bytes())))
		if err != nil {
			apperrors.Abort(c, assessmentError(err))
			return
		}

		s.recordAssessment(res, time.Since(start), false)
		c.JSON(http.StatusOK, res.Report())
	}
}

func (s *server) recordAssessment(res analysis.RiskResult, d time.Duration, cacheHit bool) {
	s.observeAssessment(string(res.Modality), string(res.RiskTier), res.Simulated, d, cacheHit)
}

// recordCachedAssessment counts a questionnaire answered from the response cache.
func (s *server) recordCachedAssessment(_ *gin.Context, body []byte, d time.Duration) {
	var rep analysis.Report
	if err := json.Unmarshal(body, &rep); err != nil {
		s.logger.Warn("Cached assessment could not be decoded", "error", err)
		return
	}
	s.observeAssessment(string(rep.Modality), string(rep.RiskTier), rep.Simulated, d, true)
}

func (s *server) observeAssessment(modality, tier string, simulated bool, d time.Duration, cacheHit bool) {
	s.metrics.RecordAssessment(modality, tier)
	s.prom.ObserveAssessment(modality, tier)
	s.logger.AssessmentLogger(modality, tier, simulated, d, cacheHit)
}

func (s *server) recordCapture(event, modality, id string, size int64, err error) {
	if err != nil {
		event += "_failed"
	}
	s.metrics.RecordCaptureEvent(event)
	s.prom.ObserveCapture(event)
	s.logger.CaptureLogger(event, modality, id, size, err)
}
