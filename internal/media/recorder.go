package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ZanzyTHEbar/neuropredict/internal/analysis"
	"github.com/ZanzyTHEbar/neuropredict/internal/cache"
	"github.com/google/uuid"
)

const (
	DefaultTTL          = 10 * time.Minute
	DefaultMaxClipBytes = 10 << 20
)

// Config controls capture limits.
type Config struct {
	TTL           time.Duration
	MaxClipBytes  int64
	SweepInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.MaxClipBytes <= 0 {
		c.MaxClipBytes = DefaultMaxClipBytes
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = time.Minute
	}
	return c
}

// Recorder owns every capture session and clip. Sessions and clips are
// released on stop, reset, analysis, expiry and Close.
type Recorder struct {
	cfg      Config
	sessions *cache.Store[string, *Session]
	clips    *cache.Store[string, *Clip]
	closed   atomic.Bool
}

// NewRecorder creates a recorder and starts its expiry sweepers.
func NewRecorder(cfg Config) *Recorder {
	cfg = cfg.withDefaults()

	return &Recorder{
		cfg: cfg,
		sessions: cache.NewStore(cfg.TTL, cfg.SweepInterval, func(id string, s *Session) {
			s.release()
			slog.Debug("Capture session released", "session_id", id, "modality", s.Modality)
		}),
		clips: cache.NewStore(cfg.TTL, cfg.SweepInterval, func(id string, c *Clip) {
			c.Release()
			slog.Debug("Clip released", "clip_id", id, "modality", c.Modality)
		}),
	}
}

// MaxClipBytes is the configured per-clip size limit.
func (r *Recorder) MaxClipBytes() int64 {
	return r.cfg.MaxClipBytes
}

// Start opens a new capture session for a media modality.
func (r *Recorder) Start(m analysis.Modality) (*Session, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	if !m.Simulated() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModality, m)
	}

	s := newSession(uuid.NewString(), m)
	r.sessions.Set(s.ID, s)
	return s, nil
}

// Append adds a chunk after the last one received. Exceeding the size limit
// ends the attempt.
func (r *Recorder) Append(sessionID string, chunk []byte) error {
	return r.AppendAt(sessionID, -1, chunk)
}

// AppendAt stores a chunk at position seq, so chunks uploaded concurrently are
// still assembled in recording order.
func (r *Recorder) AppendAt(sessionID string, seq int, chunk []byte) error {
	s, ok := r.sessions.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	if err := s.append(seq, chunk, r.cfg.MaxClipBytes); err != nil {
		if errors.Is(err, ErrClipTooLarge) {
			r.sessions.Delete(sessionID)
		}
		return err
	}
	r.sessions.Touch(sessionID)
	return nil
}

// Session looks up an open session.
func (r *Recorder) Session(id string) (*Session, bool) {
	return r.sessions.Get(id)
}

// Stop ends a session and turns its chunks into a clip. The session is gone
// afterwards whether or not the clip was accepted.
func (r *Recorder) Stop(sessionID string) (*Clip, error) {
	s, ok := r.sessions.Take(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	data, err := s.assemble()
	if err != nil {
		return nil, err
	}
	return r.register(s.Modality, data)
}

// Upload registers a complete payload, such as an image file, as a clip.
func (r *Recorder) Upload(m analysis.Modality, data []byte) (*Clip, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	if !m.Simulated() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModality, m)
	}
	if int64(len(data)) > r.cfg.MaxClipBytes {
		return nil, ErrClipTooLarge
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return r.register(m, buf)
}

func (r *Recorder) register(m analysis.Modality, data []byte) (*Clip, error) {
	mime, err := DetectMIME(m, data)
	if err != nil {
		return nil, err
	}

	c := newClip(uuid.NewString(), m, mime, data)
	r.clips.Set(c.ID, c)
	return c, nil
}

// Clip returns a live clip for playback.
func (r *Recorder) Clip(id string) (*Clip, error) {
	c, ok := r.clips.Get(id)
	if !ok {
		return nil, ErrClipNotFound
	}
	return c, nil
}

// Consume removes a clip so it can be analyzed. The caller releases it when done.
func (r *Recorder) Consume(id string) (*Clip, error) {
	c, ok := r.clips.Take(id)
	if !ok {
		return nil, ErrClipNotFound
	}
	return c, nil
}

// Release revokes a session or clip by id. Unknown ids are ignored.
func (r *Recorder) Release(id string) bool {
	if r.sessions.Delete(id) {
		return true
	}
	return r.clips.Delete(id)
}

// Counts reports how many sessions and clips are held.
func (r *Recorder) Counts() (sessions, clips int) {
	return r.sessions.Len(), r.clips.Len()
}

// Stats reports both stores.
func (r *Recorder) Stats() map[string]interface{} {
	return map[string]interface{}{
		"sessions":       r.sessions.Stats(),
		"clips":          r.clips.Stats(),
		"max_clip_bytes": r.cfg.MaxClipBytes,
	}
}

// Close releases every session and clip and stops the sweepers.
func (r *Recorder) Close(ctx context.Context) error {
	r.closed.Store(true)
	return errors.Join(r.sessions.Close(ctx), r.clips.Close(ctx))
}
