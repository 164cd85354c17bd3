package analysis

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

var (
	// ErrNoMedia is returned when a simulated analysis is requested without a recording or image.
	ErrNoMedia = errors.New("no media supplied: record or upload first")
	// ErrUnknownModality is returned for modalities the service does not offer.
	ErrUnknownModality = errors.New("unknown modality")
)

// SimulatedDisclaimer accompanies every RandomStub result.
const SimulatedDisclaimer = "Simulated result: no model inspects the recording or drawing. " +
	"The score is a random placeholder and carries no diagnostic meaning."

// RandomStub is the placeholder analysis for the voice and drawing modalities.
// It never looks at the media: the probability is a uniform draw inside the
// modality's range and the three feature scores are independent uniform draws
// in [0,10]. Replace it when real inference exists.
type RandomStub struct {
	mu     sync.Mutex
	rng    *rand.Rand
	ranges map[Modality]ProbabilityRange
}

// NewRandomStub builds a stub over src. A nil src seeds from the clock; nil
// ranges selects DefaultRanges.
func NewRandomStub(src rand.Source, ranges map[Modality]ProbabilityRange) *RandomStub {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
	if ranges == nil {
		ranges = DefaultRanges()
	}
	return &RandomStub{rng: rand.New(src), ranges: ranges}
}

// Analyze produces a simulated result. payloadSize is the size of the captured
// media and only gates that something was captured.
func (s *RandomStub) Analyze(m Modality, payloadSize int64) (RiskResult, error) {
	r, ok := s.ranges[m]
	if !ok {
		return RiskResult{}, fmt.Errorf("%w: %s", ErrUnknownModality, m)
	}
	if payloadSize <= 0 {
		return RiskResult{}, ErrNoMedia
	}

	names := m.FeatureNames()

	s.mu.Lock()
	p := r.Min + s.rng.Float64()*(r.Max-r.Min)
	features := make([]Feature, len(names))
	for i, name := range names {
		features[i] = Feature{Name: name, Score: s.rng.Float64() * 10}
	}
	s.mu.Unlock()

	res := Classify(p)
	res.Modality = m
	res.Features = features
	res.Simulated = true
	return res, nil
}

// Range returns the configured range for a modality.
func (s *RandomStub) Range(m Modality) (ProbabilityRange, bool) {
	r, ok := s.ranges[m]
	return r, ok
}
