package service

import "errors"

const (
	// ImageSize is the side length the model was trained on.
	ImageSize = 224

	// NumClasses is the size of the class catalog and of every scorer
	// output vector.
	NumClasses = 15

	// LowConfidenceThreshold gates the predicted label: a top-1
	// probability below this reports UnknownLabel instead of a class
	// name. Exactly 0.5 still counts as known.
	LowConfidenceThreshold = 0.5

	UnknownLabel = "Unknown vegetable"
)

// ClassNames maps scorer output indices to vegetable names. Index
// position is the contract with the model; order never changes.
var ClassNames = [NumClasses]string{
	"Bean", "Bitter_Gourd", "Bottle_Gourd", "Brinjal", "Broccoli",
	"Cabbage", "Capsicum", "Carrot", "Cauliflower", "Cucumber",
	"Papaya", "Potato", "Pumpkin", "Radish", "Tomato",
}

var (
	// ErrModelUnavailable means no scorer was loaded at startup.
	ErrModelUnavailable = errors.New("model not loaded")

	// ErrInvalidImage means the uploaded bytes could not be decoded
	// or normalized.
	ErrInvalidImage = errors.New("invalid image")

	// ErrScoring means the scorer invocation itself failed.
	ErrScoring = errors.New("scoring failed")
)

type ClassScore struct {
	Class      string  `json:"class"`
	Confidence float32 `json:"confidence"`
}

// Prediction is the result of one classification. Confidence is always
// the true top-1 probability, even when the label was gated to
// UnknownLabel, and Top3 always reports the real ranking.
type Prediction struct {
	PredictedClass string       `json:"predicted_class"`
	Confidence     float32      `json:"confidence"`
	Top3           []ClassScore `json:"top_3"`
}
