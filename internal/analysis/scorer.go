package analysis

const (
	minProbability = 2.0
	maxProbability = 98.0

	// positiveThreshold is exclusive: p == 50 is classified healthy.
	positiveThreshold = 50.0

	lowTierCeiling      = 20.0
	moderateTierCeiling = 50.0
	highTierCeiling     = 75.0
)

// DiseaseProbability maps an average rating in [0,10] onto a percentage using
// three joined linear segments, clamped to [2,98]. The segments meet at
// avg=2 (p=8) and avg=5 (p=38).
func DiseaseProbability(avg float64) float64 {
	var p float64
	switch {
	case avg < 2:
		p = 2 + avg*3
	case avg < 5:
		p = 8 + (avg-2)*10
	default:
		p = 38 + (avg-5)*12
	}
	return clip(p, minProbability, maxProbability)
}

// TierFor selects the risk tier for a disease probability.
func TierFor(p float64) RiskTier {
	switch {
	case p < lowTierCeiling:
		return TierLow
	case p < moderateTierCeiling:
		return TierModerate
	case p < highTierCeiling:
		return TierHigh
	default:
		return TierVeryHigh
	}
}

// Classify derives the full result from a disease probability.
func Classify(p float64) RiskResult {
	healthy := 100 - p
	positive := p > positiveThreshold

	confidence := healthy
	if positive {
		confidence = p
	}

	return RiskResult{
		IsPositive:        positive,
		ConfidencePercent: confidence,
		HealthyPercent:    healthy,
		DiseasePercent:    p,
		RiskTier:          TierFor(p),
	}
}

// Estimate scores a validated questionnaire. It is pure and deterministic.
func Estimate(r SymptomRatings) RiskResult {
	res := Classify(DiseaseProbability(r.Average()))
	res.Modality = ModalitySymptoms
	return res
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
