package media

import (
	"strings"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/neuropredict/internal/analysis"
	"github.com/gabriel-vasile/mimetype"
)

// Clip is a finished recording or uploaded image, held in memory until it is
// analyzed, revoked or expires.
type Clip struct {
	ID        string
	Modality  analysis.Modality
	MIME      string
	CreatedAt time.Time

	mu   sync.RWMutex
	data []byte
	size int64
}

func newClip(id string, m analysis.Modality, mime string, data []byte) *Clip {
	return &Clip{
		ID:        id,
		Modality:  m,
		MIME:      mime,
		CreatedAt: time.Now(),
		data:      data,
		size:      int64(len(data)),
	}
}

// Bytes returns the clip payload, or nil once the clip has been released.
// Callers must not modify the returned slice.
func (c *Clip) Bytes() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}

// Size is the payload size; it stays valid after release.
func (c *Clip) Size() int64 {
	return c.size
}

// Released reports whether the payload has been dropped.
func (c *Clip) Released() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data == nil
}

// Release drops the payload. It is idempotent.
func (c *Clip) Release() {
	c.mu.Lock()
	c.data = nil
	c.mu.Unlock()
}

// ClipInfo describes a clip to clients.
type ClipInfo struct {
	ID        string            `json:"id"`
	Modality  analysis.Modality `json:"modality"`
	MIME      string            `json:"mime"`
	Size      int64             `json:"size"`
	URL       string            `json:"url"`
	CreatedAt time.Time         `json:"created_at"`
}

// Info summarizes the clip. The URL is the playback route.
func (c *Clip) Info() ClipInfo {
	return ClipInfo{
		ID:        c.ID,
		Modality:  c.Modality,
		MIME:      c.MIME,
		Size:      c.size,
		URL:       "/api/media/clips/" + c.ID,
		CreatedAt: c.CreatedAt,
	}
}

// DetectMIME sniffs a payload and checks it belongs to the modality's media
// family: audio (MediaRecorder emits webm) or images for drawings.
func DetectMIME(m analysis.Modality, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyCapture
	}

	detected := mimetype.Detect(data)
	mime, _, _ := strings.Cut(detected.String(), ";")

	switch m {
	case analysis.ModalityAudio:
		if strings.HasPrefix(mime, "audio/") || detected.Is("video/webm") {
			return mime, nil
		}
	case analysis.ModalityDrawing:
		if strings.HasPrefix(mime, "image/") {
			return mime, nil
		}
	default:
		return "", ErrUnsupportedModality
	}

	return "", &MediaTypeError{Modality: m, Detected: mime}
}
