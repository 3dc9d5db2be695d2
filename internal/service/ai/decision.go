package ai

import (
	"errors"
	"fmt"
	"math"
)

// SigmoidThreshold is the decision boundary for single-output models.
// A score equal to the threshold falls to class 0.
const SigmoidThreshold = 0.5

var ErrEmptyOutput = errors.New("classifier returned no outputs")

// Decision is the chosen class and the probability mass assigned to it.
type Decision struct {
	Class      int
	Confidence float64
}

// Decide turns a raw classifier output into a decision. One value is read
// as P(class=1); two or more values are read as a distribution and the
// arg-max wins, the lowest index on ties. NaN values never win; an
// output with no usable value yields class 0 with zero confidence.
func Decide(output []float32) (Decision, error) {
	switch len(output) {
	case 0:
		return Decision{}, ErrEmptyOutput

	case 1:
		// NaN carries no evidence for either class.
		if math.IsNaN(float64(output[0])) {
			return Decision{Class: 0, Confidence: 0}, nil
		}
		score := clamp01(float64(output[0]))
		if score > SigmoidThreshold {
			return Decision{Class: 1, Confidence: score}, nil
		}
		return Decision{Class: 0, Confidence: 1 - score}, nil
	}

	best := -1
	for i, v := range output {
		if math.IsNaN(float64(v)) {
			continue
		}
		if best < 0 || v > output[best] {
			best = i
		}
	}
	if best < 0 {
		return Decision{Class: 0, Confidence: 0}, nil
	}
	return Decision{Class: best, Confidence: clamp01(float64(output[best]))}, nil
}

// LabelFor maps a class index to its display name.
func LabelFor(labels []string, class int) string {
	if class >= 0 && class < len(labels) {
		return labels[class]
	}
	return fmt.Sprintf("class_%d", class)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
