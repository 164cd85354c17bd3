package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	MinRating = 0
	MaxRating = 10
)

var (
	// ErrIncompleteInput is returned when one or more ratings were not supplied.
	ErrIncompleteInput = errors.New("incomplete input: all ratings are required")
	// ErrRatingOutOfRange is returned for ratings outside [0,10] or unknown items.
	ErrRatingOutOfRange = errors.New("rating out of range")
)

// ValidationError lists everything wrong with a set of answers.
// It matches ErrIncompleteInput and/or ErrRatingOutOfRange via errors.Is.
type ValidationError struct {
	Missing []string
	Invalid map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing ratings: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Invalid) > 0 {
		keys := make([]string, 0, len(e.Invalid))
		for k := range e.Invalid {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, e.Invalid[k]))
		}
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	var errs []error
	if len(e.Missing) > 0 {
		errs = append(errs, ErrIncompleteInput)
	}
	if len(e.Invalid) > 0 {
		errs = append(errs, ErrRatingOutOfRange)
	}
	return errs
}

// SymptomRatings holds one rating per symptom, in questionnaire order.
// Values are only constructed through validation and are always in [0,10].
type SymptomRatings [SymptomCount]int

// NewSymptomRatings validates user answers keyed by symptom name. A nil value
// means the question was left unanswered.
func NewSymptomRatings(answers map[string]*int) (SymptomRatings, error) {
	var r SymptomRatings
	verr := &ValidationError{}

	for _, s := range Symptoms() {
		v, ok := answers[s.String()]
		if !ok || v == nil {
			verr.Missing = append(verr.Missing, s.String())
			continue
		}
		if *v < MinRating || *v > MaxRating {
			if verr.Invalid == nil {
				verr.Invalid = make(map[string]string)
			}
			verr.Invalid[s.String()] = fmt.Sprintf("must be between %d and %d, got %d", MinRating, MaxRating, *v)
			continue
		}
		r[s] = *v
	}

	for name := range answers {
		if _, ok := ParseSymptom(name); !ok {
			if verr.Invalid == nil {
				verr.Invalid = make(map[string]string)
			}
			verr.Invalid[name] = "unknown symptom"
		}
	}

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return SymptomRatings{}, verr
	}
	return r, nil
}

// Sum adds all ratings.
func (r SymptomRatings) Sum() int {
	total := 0
	for _, v := range r {
		total += v
	}
	return total
}

// Average is the unrounded mean rating.
func (r SymptomRatings) Average() float64 {
	return float64(r.Sum()) / SymptomCount
}
