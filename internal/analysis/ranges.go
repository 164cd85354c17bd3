package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ProbabilityRange bounds the disease probability drawn for a simulated modality.
type ProbabilityRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Validate checks that the range is a non-empty interval inside [0,100].
func (r ProbabilityRange) Validate() error {
	if r.Min < 0 || r.Max > 100 || r.Min >= r.Max {
		return fmt.Errorf("invalid probability range [%g, %g]", r.Min, r.Max)
	}
	return nil
}

// DefaultRanges returns the built-in ranges for the simulated modalities.
func DefaultRanges() map[Modality]ProbabilityRange {
	return map[Modality]ProbabilityRange{
		ModalityAudio:   {Min: 15, Max: 85},
		ModalityDrawing: {Min: 20, Max: 85},
	}
}

// RangeStore loads per-modality range overrides from <dataDir>/ranges/<modality>.json.
type RangeStore struct {
	dataDir string
}

// NewRangeStore creates a range store rooted at dataDir.
func NewRangeStore(dataDir string) *RangeStore {
	return &RangeStore{dataDir: dataDir}
}

func (s *RangeStore) path(m Modality) string {
	return filepath.Join(s.dataDir, "ranges", fmt.Sprintf("%s.json", m))
}

// Load returns the range for a simulated modality, falling back to the default
// when no override file exists.
func (s *RangeStore) Load(m Modality) (ProbabilityRange, error) {
	def, ok := DefaultRanges()[m]
	if !ok {
		return ProbabilityRange{}, fmt.Errorf("%w: %s has no probability range", ErrUnknownModality, m)
	}

	file, err := os.Open(s.path(m))
	if errors.Is(err, os.ErrNotExist) {
		return def, nil
	}
	if err != nil {
		return ProbabilityRange{}, fmt.Errorf("failed to open range file: %w", err)
	}
	defer file.Close()

	var r ProbabilityRange
	if err := json.NewDecoder(file).Decode(&r); err != nil {
		return ProbabilityRange{}, fmt.Errorf("failed to decode range for %s: %w", m, err)
	}
	if err := r.Validate(); err != nil {
		return ProbabilityRange{}, fmt.Errorf("range for %s: %w", m, err)
	}
	return r, nil
}

// LoadAll loads the ranges of every simulated modality.
func (s *RangeStore) LoadAll() (map[Modality]ProbabilityRange, error) {
	out := make(map[Modality]ProbabilityRange, 2)
	for m := range DefaultRanges() {
		r, err := s.Load(m)
		if err != nil {
			return nil, err
		}
		out[m] = r
	}
	return out, nil
}

// Save writes an override for a simulated modality.
func (s *RangeStore) Save(m Modality, r ProbabilityRange) error {
	if _, ok := DefaultRanges()[m]; !ok {
		return fmt.Errorf("%w: %s has no probability range", ErrUnknownModality, m)
	}
	if err := r.Validate(); err != nil {
		return err
	}

	filePath := s.path(m)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create range directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create range file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("failed to encode range: %w", err)
	}
	return nil
}
