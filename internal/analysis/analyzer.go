package analysis

import "fmt"

// Analyzer is the entry point used by the service. The questionnaire path is
// deterministic; the media paths go through the RandomStub.
type Analyzer struct {
	stub *RandomStub
}

// NewAnalyzer loads modality ranges from dataDir and seeds the stub from the clock.
func NewAnalyzer(dataDir string) (*Analyzer, error) {
	ranges, err := NewRangeStore(dataDir).LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load probability ranges: %w", err)
	}
	return NewAnalyzerWithStub(NewRandomStub(nil, ranges)), nil
}

// NewAnalyzerWithStub wires an Analyzer around an existing stub.
func NewAnalyzerWithStub(stub *RandomStub) *Analyzer {
	return &Analyzer{stub: stub}
}

// AnalyzeQuestionnaire validates answers and estimates risk. Invalid or
// incomplete answers never produce a result.
func (a *Analyzer) AnalyzeQuestionnaire(answers map[string]*int) (RiskResult, error) {
	ratings, err := NewSymptomRatings(answers)
	if err != nil {
		return RiskResult{}, err
	}
	return Estimate(ratings), nil
}

// AnalyzeMedia runs the simulated analysis for the audio and drawing modalities.
func (a *Analyzer) AnalyzeMedia(m Modality, payloadSize int64) (RiskResult, error) {
	if !m.Simulated() {
		return RiskResult{}, fmt.Errorf("%w: %s is not a media modality", ErrUnknownModality, m)
	}
	return a.stub.Analyze(m, payloadSize)
}

// Modalities lists the assessments in the order the home page offers them.
func (a *Analyzer) Modalities() []ModalityInfo {
	return []ModalityInfo{
		{
			ID:          ModalityDrawing,
			Name:        "Drawing Test",
			Description: "Symptom-based drawing assessment",
			Simulated:   true,
			Features:    ModalityDrawing.FeatureNames(),
		},
		{
			ID:          ModalityAudio,
			Name:        "Voice Analysis",
			Description: "Symptom-based voice assessment",
			Simulated:   true,
			Features:    ModalityAudio.FeatureNames(),
		},
		{
			ID:          ModalitySymptoms,
			Name:        "Symptom Assessment",
			Description: "Comprehensive symptom questionnaire",
		},
	}
}
