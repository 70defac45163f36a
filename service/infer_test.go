package service

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeScorer struct {
	probs []float32
	err   error
	calls int
}

func (f *fakeScorer) Score(input []float32) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.probs, nil
}

func (f *fakeScorer) Close() error { return nil }

func validImage(t *testing.T) []byte {
	t.Helper()
	return encodePNG(t, solidNRGBA(8, 8, color.NRGBA{120, 180, 60, 255}))
}

func uniformProbs() []float32 {
	probs := make([]float32, NumClasses)
	for i := range probs {
		probs[i] = 0.05
	}
	return probs
}

func TestClassifyRanking(t *testing.T) {
	probs := uniformProbs()
	probs[12] = 0.6
	probs[13] = 0.2
	probs[14] = 0.15
	c := NewClassifier(&fakeScorer{probs: probs})

	pred, err := c.Classify(validImage(t))
	require.NoError(t, err)

	require.Equal(t, ClassNames[12], pred.PredictedClass)
	require.Equal(t, float32(0.6), pred.Confidence)
	require.Equal(t, []ClassScore{
		{Class: ClassNames[12], Confidence: 0.6},
		{Class: ClassNames[13], Confidence: 0.2},
		{Class: ClassNames[14], Confidence: 0.15},
	}, pred.Top3)
}

func TestClassifyTieBreakByCatalogIndex(t *testing.T) {
	probs := make([]float32, NumClasses)
	probs[1] = 0.4
	probs[3] = 0.3
	probs[7] = 0.3
	c := NewClassifier(&fakeScorer{probs: probs})

	pred, err := c.Classify(validImage(t))
	require.NoError(t, err)

	// Equal probabilities keep catalog index order.
	require.Equal(t, []ClassScore{
		{Class: ClassNames[1], Confidence: 0.4},
		{Class: ClassNames[3], Confidence: 0.3},
		{Class: ClassNames[7], Confidence: 0.3},
	}, pred.Top3)
}

func TestClassifyConfidenceGate(t *testing.T) {
	cases := []struct {
		name      string
		best      float32
		wantLabel string
	}{
		{"exactly at threshold is known", 0.5, ClassNames[4]},
		{"just below threshold is unknown", 0.4999, UnknownLabel},
		{"well above threshold", 0.93, ClassNames[4]},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			probs := make([]float32, NumClasses)
			probs[4] = tc.best
			c := NewClassifier(&fakeScorer{probs: probs})

			pred, err := c.Classify(validImage(t))
			require.NoError(t, err)
			require.Equal(t, tc.wantLabel, pred.PredictedClass)

			// The gate only touches the label. Confidence and top_3
			// still report the real ranking.
			require.Equal(t, tc.best, pred.Confidence)
			require.Len(t, pred.Top3, 3)
			require.Equal(t, ClassNames[4], pred.Top3[0].Class)
			require.Equal(t, tc.best, pred.Top3[0].Confidence)
		})
	}
}

func TestClassifyResultCompleteness(t *testing.T) {
	probs := uniformProbs()
	probs[0] = 0.7
	c := NewClassifier(&fakeScorer{probs: probs})

	pred, err := c.Classify(validImage(t))
	require.NoError(t, err)

	require.NotEmpty(t, pred.PredictedClass)
	require.GreaterOrEqual(t, pred.Confidence, float32(0.0))
	require.LessOrEqual(t, pred.Confidence, float32(1.0))
	require.Len(t, pred.Top3, 3)
	for _, entry := range pred.Top3 {
		require.NotEmpty(t, entry.Class)
		require.GreaterOrEqual(t, entry.Confidence, float32(0.0))
		require.LessOrEqual(t, entry.Confidence, float32(1.0))
	}
	for i := 1; i < len(pred.Top3); i++ {
		require.GreaterOrEqual(t, pred.Top3[i-1].Confidence, pred.Top3[i].Confidence)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	probs := uniformProbs()
	probs[9] = 0.55
	c := NewClassifier(&fakeScorer{probs: probs})
	raw := validImage(t)

	a, err := c.Classify(raw)
	require.NoError(t, err)
	b, err := c.Classify(raw)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestClassifyModelUnavailable(t *testing.T) {
	c := NewClassifier(nil)

	// Undecodable bytes: if preprocessing ran first this would be
	// ErrInvalidImage instead.
	_, err := c.Classify([]byte("garbage"))
	require.ErrorIs(t, err, ErrModelUnavailable)
}

func TestClassifyInvalidImage(t *testing.T) {
	sc := &fakeScorer{probs: uniformProbs()}
	c := NewClassifier(sc)

	_, err := c.Classify([]byte("garbage"))
	require.ErrorIs(t, err, ErrInvalidImage)
	require.Zero(t, sc.calls)
}

func TestClassifyScoringFault(t *testing.T) {
	c := NewClassifier(&fakeScorer{err: ErrScoring})
	_, err := c.Classify(validImage(t))
	require.ErrorIs(t, err, ErrScoring)
}

func TestClassifyShortScorerOutput(t *testing.T) {
	c := NewClassifier(&fakeScorer{probs: []float32{0.9, 0.1}})
	_, err := c.Classify(validImage(t))
	require.ErrorIs(t, err, ErrScoring)
}

func TestClassCatalogFixed(t *testing.T) {
	require.Len(t, ClassNames, NumClasses)
	seen := make(map[string]bool, NumClasses)
	for _, name := range ClassNames {
		require.NotEmpty(t, name)
		require.False(t, seen[name])
		seen[name] = true
	}
}
