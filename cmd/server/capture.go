package main

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/neuropredict/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/neuropredict/internal/errors"
	"github.com/ZanzyTHEbar/neuropredict/internal/media"
	"github.com/ZanzyTHEbar/neuropredict/internal/types"
)

// handleStartSession godoc
// @Summary Start a recording session
// @Tags media
// @Accept json
// @Produce json
// @Param request body types.StartSessionRequest true "Modality to record"
// @Success 201 {object} types.SessionResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/media/sessions [post]
func (s *server) handleStartSession(c *gin.Context) {
	var req types.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Abort(c, apperrors.NewValidationError("modality is required", err))
		return
	}

	m, err := analysis.ParseModality(req.Modality)
	if err != nil {
		apperrors.Abort(c, assessmentError(err))
		return
	}

	session, err := s.recorder.Start(m)
	if err != nil {
		s.recordCapture("start", req.Modality, "", 0, err)
		apperrors.Abort(c, captureError(err, ""))
		return
	}

	s.recordCapture("start", string(m), session.ID, 0, nil)
	c.JSON(http.StatusCreated, types.SessionResponse{
		ID:           session.ID,
		Modality:     session.Modality,
		StartedAt:    session.StartedAt,
		MaxClipBytes: s.recorder.MaxClipBytes(),
	})
}

// handleAppendChunk godoc
// @Summary Append a recorded chunk
// @Tags media
// @Accept octet-stream
// @Produce json
// @Param id path string true "Session id"
// @Param seq query int false "Position of the chunk in the recording, from 0"
// @Success 200 {object} types.ChunkResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Failure 413 {object} apperrors.ErrorResponse
// @Router /api/media/sessions/{id}/chunks [put]
func (s *server) handleAppendChunk(c *gin.Context) {
	id := c.Param("id")

	chunk, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apperrors.Abort(c, bodyError(err))
		return
	}

	seq := -1
	if raw := c.Query("seq"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			apperrors.Abort(c, apperrors.NewValidationErrorWithMap("Invalid chunk sequence number",
				map[string]string{"seq": "must be a whole number starting at 0"}))
			return
		}
		seq = n
	}

	if err := s.recorder.AppendAt(id, seq, chunk); err != nil {
		s.recordCapture("append", "", id, int64(len(chunk)), err)
		apperrors.Abort(c, captureError(err, id))
		return
	}

	size := int64(0)
	if session, ok := s.recorder.Session(id); ok {
		size = session.Size()
	}
	c.JSON(http.StatusOK, types.ChunkResponse{SessionID: id, Size: size})
}

// handleStopSession godoc
// @Summary Stop recording and register the clip
// @Tags media
// @Produce json
// @Param id path string true "Session id"
// @Success 201 {object} media.ClipInfo
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 422 {object} apperrors.ErrorResponse
// @Router /api/media/sessions/{id}/stop [post]
func (s *server) handleStopSession(c *gin.Context) {
	id := c.Param("id")

	clip, err := s.recorder.Stop(id)
	if err != nil {
		s.recordCapture("stop", "", id, 0, err)
		apperrors.Abort(c, captureError(err, id))
		return
	}

	s.recordCapture("stop", string(clip.Modality), clip.ID, clip.Size(), nil)
	c.JSON(http.StatusCreated, clip.Info())
}

// handleResetSession godoc
// @Summary Reset a recording session
// @Tags media
// @Param id path string true "Session id"
// @Success 204
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/media/sessions/{id} [delete]
func (s *server) handleResetSession(c *gin.Context) {
	s.handleRelease(c, "session")
}

// handleReleaseClip godoc
// @Summary Revoke a clip
// @Tags media
// @Param id path string true "Clip id"
// @Success 204
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/media/clips/{id} [delete]
func (s *server) handleReleaseClip(c *gin.Context) {
	s.handleRelease(c, "clip")
}

func (s *server) handleRelease(c *gin.Context, resource string) {
	id := c.Param("id")
	if !s.recorder.Release(id) {
		apperrors.Abort(c, apperrors.NewNotFoundError(resource, id))
		return
	}
	s.recordCapture("release", "", id, 0, nil)
	c.Status(http.StatusNoContent)
}

// handleUpload godoc
// @Summary Upload a recording or drawing
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param modality path string true "audio or drawing"
// @Param file formData file true "Media file"
// @Success 201 {object} media.ClipInfo
// @Failure 415 {object} apperrors.ErrorResponse
// @Router /api/media/uploads/{modality} [post]
func (s *server) handleUpload(c *gin.Context) {
	m, err := analysis.ParseModality(c.Param("modality"))
	if err != nil {
		apperrors.Abort(c, assessmentError(err))
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		apperrors.Abort(c, bodyError(err))
		return
	}
	if header.Size > s.recorder.MaxClipBytes() {
		apperrors.Abort(c, captureError(media.ErrClipTooLarge, ""))
		return
	}

	f, err := header.Open()
	if err != nil {
		apperrors.Abort(c, apperrors.NewInternalError("failed to open upload", err))
		return
	}
	defer apperrors.SafeClose(f, "upload")

	data, err := io.ReadAll(io.LimitReader(f, s.recorder.MaxClipBytes()+1))
	if err != nil {
		apperrors.Abort(c, bodyError(err))
		return
	}

	clip, err := s.recorder.Upload(m, data)
	if err != nil {
		s.recordCapture("upload", string(m), "", int64(len(data)), err)
		apperrors.Abort(c, captureError(err, ""))
		return
	}

	s.recordCapture("upload", string(m), clip.ID, clip.Size(), nil)
	c.JSON(http.StatusCreated, clip.Info())
}

// handleGetClip godoc
// @Summary Play back a clip
// @Tags media
// @Param id path string true "Clip id"
// @Success 200
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/media/clips/{id} [get]
func (s *server) handleGetClip(c *gin.Context) {
	id := c.Param("id")

	clip, err := s.recorder.Clip(id)
	if err != nil {
		apperrors.Abort(c, captureError(err, id))
		return
	}

	data := clip.Bytes()
	if data == nil {
		apperrors.Abort(c, captureError(media.ErrClipNotFound, id))
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, clip.MIME, data)
}
