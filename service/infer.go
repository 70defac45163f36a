package service

import (
	"errors"
	"fmt"
	"sort"
)

// Classifier runs the inference pipeline: preprocess, score, rank,
// gate. It holds the one scorer loaded at startup; a nil scorer means
// the process is in the unavailable state and every Classify call
// reports ErrModelUnavailable.
type Classifier struct {
	scorer Scorer
}

func NewClassifier(scorer Scorer) *Classifier {
	return &Classifier{scorer: scorer}
}

func (c *Classifier) Ready() bool {
	return c != nil && c.scorer != nil
}

func (c *Classifier) Close() error {
	if c == nil || c.scorer == nil {
		return nil
	}
	return c.scorer.Close()
}

// Classify turns raw image bytes into a gated prediction. The
// confidence gate replaces only the label: Confidence and Top3 always
// report what the model actually ranked, even for an unknown result.
func (c *Classifier) Classify(raw []byte) (*Prediction, error) {
	if !c.Ready() {
		return nil, ErrModelUnavailable
	}

	input, err := Preprocess(raw)
	if err != nil {
		return nil, err
	}

	probs, err := c.scorer.Score(input)
	if err != nil {
		if errors.Is(err, ErrScoring) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrScoring, err)
	}
	if len(probs) < NumClasses {
		return nil, fmt.Errorf("%w: scorer returned %d probabilities, want %d", ErrScoring, len(probs), NumClasses)
	}

	// Rank descending by probability; stable sort keeps equal
	// probabilities in catalog index order.
	idx := make([]int, NumClasses)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return probs[idx[i]] > probs[idx[j]]
	})

	top3 := make([]ClassScore, 0, 3)
	for _, k := range idx[:3] {
		top3 = append(top3, ClassScore{Class: ClassNames[k], Confidence: probs[k]})
	}

	best := top3[0].Confidence
	label := ClassNames[idx[0]]
	if best < LowConfidenceThreshold {
		label = UnknownLabel
	}

	return &Prediction{
		PredictedClass: label,
		Confidence:     best,
		Top3:           top3,
	}, nil
}
