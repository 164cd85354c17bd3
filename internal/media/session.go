package media

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/neuropredict/internal/analysis"
)

// Session accumulates the chunks of one in-progress recording. Each session
// owns its buffers.
type Session struct {
	ID        string            `json:"id"`
	Modality  analysis.Modality `json:"modality"`
	StartedAt time.Time         `json:"started_at"`

	mu      sync.Mutex
	chunks  map[int][]byte
	next    int
	size    int64
	stopped bool
}

func newSession(id string, m analysis.Modality) *Session {
	return &Session{ID: id, Modality: m, StartedAt: time.Now(), chunks: make(map[int][]byte)}
}

// append stores chunk at position seq. A negative seq means the position after
// the highest one seen so far.
func (s *Session) append(seq int, chunk []byte, limit int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSessionNotFound
	}
	if seq < 0 {
		seq = s.next
	}
	if _, dup := s.chunks[seq]; dup {
		return fmt.Errorf("%w: chunk %d sent twice", ErrChunkSequence, seq)
	}
	if limit > 0 && s.size+int64(len(chunk)) > limit {
		return ErrClipTooLarge
	}

	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	s.chunks[seq] = buf
	s.size += int64(len(buf))
	if seq >= s.next {
		s.next = seq + 1
	}
	return nil
}

// assemble joins the chunks in sequence order and stops the session. A missing
// position fails the whole recording.
func (s *Session) assemble() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	defer func() { s.chunks = nil }()

	parts := make([][]byte, s.next)
	for i := range parts {
		chunk, ok := s.chunks[i]
		if !ok {
			return nil, fmt.Errorf("%w: chunk %d never arrived", ErrChunkSequence, i)
		}
		parts[i] = chunk
	}
	return bytes.Join(parts, nil), nil
}

func (s *Session) release() {
	s.mu.Lock()
	s.stopped = true
	s.chunks = nil
	s.mu.Unlock()
}

// Size is the number of bytes captured so far.
func (s *Session) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}
