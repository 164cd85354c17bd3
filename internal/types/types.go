package types

import (
	"time"

	"github.com/ZanzyTHEbar/neuropredict/internal/analysis"
)

// QuestionnaireAnswers is the body of a questionnaire assessment. Keys are
// symptom ids; a null or absent value means the question was not answered.
type QuestionnaireAnswers map[string]*int

// MediaAssessRequest asks for the simulated analysis of a captured clip.
type MediaAssessRequest struct {
	ClipID string `json:"clip_id" binding:"required"`
}

// StartSessionRequest opens a recording session.
type StartSessionRequest struct {
	Modality string `json:"modality" binding:"required"`
}

// SessionResponse describes an open recording session.
type SessionResponse struct {
	ID           string            `json:"id"`
	Modality     analysis.Modality `json:"modality"`
	StartedAt    time.Time         `json:"started_at"`
	MaxClipBytes int64             `json:"max_clip_bytes"`
}

// ChunkResponse acknowledges an appended chunk.
type ChunkResponse struct {
	SessionID string `json:"session_id"`
	Size      int64  `json:"size"`
}

// QuestionnaireResponse lists the questions in order.
type QuestionnaireResponse struct {
	Questions []analysis.Question `json:"questions"`
}

// ModalitiesResponse lists the assessments on offer.
type ModalitiesResponse struct {
	Modalities []analysis.ModalityInfo `json:"modalities"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status         string    `json:"status"`
	Version        string    `json:"version"`
	Timestamp      time.Time `json:"timestamp"`
	ActiveSessions int       `json:"active_sessions"`
	ActiveClips    int       `json:"active_clips"`
	Redis          string    `json:"redis"`
}
