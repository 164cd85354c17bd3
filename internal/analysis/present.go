package analysis

import "github.com/shopspring/decimal"

const (
	percentPlaces = 2
	featurePlaces = 1
)

// FeatureScore is a display-ready feature value.
type FeatureScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Report is a RiskResult rounded for display.
type Report struct {
	Modality          Modality       `json:"modality"`
	Prediction        string         `json:"prediction"`
	IsPositive        bool           `json:"is_positive"`
	ConfidencePercent float64        `json:"confidence_percent"`
	HealthyPercent    float64        `json:"healthy_percent"`
	DiseasePercent    float64        `json:"disease_percent"`
	RiskTier          RiskTier       `json:"risk_tier"`
	Features          []FeatureScore `json:"features,omitempty"`
	Simulated         bool           `json:"simulated"`
	Disclaimer        string         `json:"disclaimer,omitempty"`
}

// Report rounds percentages to two places and features to one. Rounding only
// happens here; classification always uses the unrounded values.
func (r RiskResult) Report() Report {
	rep := Report{
		Modality:          r.Modality,
		Prediction:        "HEALTHY",
		IsPositive:        r.IsPositive,
		ConfidencePercent: round(r.ConfidencePercent, percentPlaces),
		HealthyPercent:    round(r.HealthyPercent, percentPlaces),
		DiseasePercent:    round(r.DiseasePercent, percentPlaces),
		RiskTier:          r.RiskTier,
		Simulated:         r.Simulated,
	}
	if r.IsPositive {
		rep.Prediction = "PARKINSON'S DETECTED"
	}
	if r.Simulated {
		rep.Disclaimer = SimulatedDisclaimer
	}
	if len(r.Features) > 0 {
		rep.Features = make([]FeatureScore, len(r.Features))
		for i, f := range r.Features {
			rep.Features[i] = FeatureScore{Name: f.Name, Score: round(f.Score, featurePlaces)}
		}
	}
	return rep
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
