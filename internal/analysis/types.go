package analysis

// Symptom identifies one questionnaire item. The order is fixed and matches
// the order of SymptomRatings.
type Symptom int

const (
	Rigidity Symptom = iota
	Bradykinesia
	Tremor
	Handwriting
	Posture
	Walking
)

// SymptomCount is the number of questionnaire items.
const SymptomCount = 6

var symptomNames = [SymptomCount]string{
	"rigidity",
	"bradykinesia",
	"tremor",
	"handwriting",
	"posture",
	"walking",
}

func (s Symptom) String() string {
	if s < 0 || int(s) >= SymptomCount {
		return "unknown"
	}
	return symptomNames[s]
}

// Symptoms returns every symptom in questionnaire order.
func Symptoms() []Symptom {
	out := make([]Symptom, SymptomCount)
	for i := range out {
		out[i] = Symptom(i)
	}
	return out
}

// ParseSymptom maps a symptom name back to its Symptom.
func ParseSymptom(name string) (Symptom, bool) {
	for i, n := range symptomNames {
		if n == name {
			return Symptom(i), true
		}
	}
	return 0, false
}

// Question is a single questionnaire prompt as shown to the user.
type Question struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Min         int    `json:"min"`
	Max         int    `json:"max"`
}

var questions = [SymptomCount]Question{
	{ID: "rigidity", Label: "How would you rate your muscle stiffness/rigidity?", Description: "0 = None, 10 = Severe"},
	{ID: "bradykinesia", Label: "How would you rate slowness of movement?", Description: "0 = None, 10 = Severe"},
	{ID: "tremor", Label: "How would you rate your hand tremor?", Description: "0 = None, 10 = Severe"},
	{ID: "handwriting", Label: "Has your handwriting changed (smaller/messy)?", Description: "0 = No change, 10 = Severe change"},
	{ID: "posture", Label: "Do you have balance/posture problems?", Description: "0 = None, 10 = Severe"},
	{ID: "walking", Label: "Do you have difficulty walking?", Description: "0 = None, 10 = Severe"},
}

// Questionnaire returns the six prompts in order.
func Questionnaire() []Question {
	out := make([]Question, SymptomCount)
	for i, q := range questions {
		q.Min = MinRating
		q.Max = MaxRating
		out[i] = q
	}
	return out
}

// RiskTier is a discrete risk level derived from the disease probability.
type RiskTier string

const (
	TierLow      RiskTier = "LOW RISK"
	TierModerate RiskTier = "MODERATE RISK"
	TierHigh     RiskTier = "HIGH RISK"
	TierVeryHigh RiskTier = "VERY HIGH RISK"
)

// Modality is the kind of input an assessment was made from.
type Modality string

const (
	ModalitySymptoms Modality = "symptoms"
	ModalityAudio    Modality = "audio"
	ModalityDrawing  Modality = "drawing"
)

// ParseModality validates a modality name.
func ParseModality(s string) (Modality, error) {
	switch m := Modality(s); m {
	case ModalitySymptoms, ModalityAudio, ModalityDrawing:
		return m, nil
	default:
		return "", ErrUnknownModality
	}
}

// Simulated reports whether results for this modality come from the random stub.
func (m Modality) Simulated() bool {
	return m == ModalityAudio || m == ModalityDrawing
}

// FeatureNames lists the display-only feature scores for a simulated modality.
func (m Modality) FeatureNames() []string {
	switch m {
	case ModalityAudio:
		return []string{"tremor", "pitch", "volume"}
	case ModalityDrawing:
		return []string{"tremor", "smoothness", "accuracy"}
	default:
		return nil
	}
}

// ModalityInfo describes an assessment the frontend can offer.
type ModalityInfo struct {
	ID          Modality `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Simulated   bool     `json:"simulated"`
	Features    []string `json:"features,omitempty"`
}

// Feature is a display-only score in [0,10].
type Feature struct {
	Name  string
	Score float64
}

// RiskResult is the unrounded outcome of one assessment.
type RiskResult struct {
	Modality          Modality
	IsPositive        bool
	ConfidencePercent float64
	HealthyPercent    float64
	DiseasePercent    float64
	RiskTier          RiskTier
	Features          []Feature
	Simulated         bool
}
