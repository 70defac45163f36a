package service

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Scorer maps a normalized image tensor to one probability per class,
// aligned to ClassNames index order.
type Scorer interface {
	Score(input []float32) ([]float32, error)
	Close() error
}

// onnxScorer adapts an ONNX Runtime session to the Scorer contract.
// The session reuses persistent input/output tensors, so invocations
// are serialized with a mutex.
type onnxScorer struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	mu      sync.Mutex
}

// newSessionScorer builds a scorer around the model at modelPath using
// the given tensor names and session options. Bundle artifacts pass
// names discovered from the model itself, file artifacts pass the
// conventional fixed names.
func newSessionScorer(modelPath, inputName, outputName string, opts *ort.SessionOptions) (*onnxScorer, error) {
	inputTensor, err := ort.NewTensor(ort.NewShape(1, ImageSize, ImageSize, 3), make([]float32, ImageSize*ImageSize*3))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, NumClasses))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{inputName},
		[]string{outputName},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		opts,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX Runtime session: %w", err)
	}

	return &onnxScorer{
		session: session,
		input:   inputTensor,
		output:  outputTensor,
	}, nil
}

func (s *onnxScorer) Score(input []float32) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.input.GetData()
	if len(input) != len(dst) {
		return nil, fmt.Errorf("%w: input has %d values, want %d", ErrScoring, len(input), len(dst))
	}
	copy(dst, input)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScoring, err)
	}

	probs := make([]float32, NumClasses)
	copy(probs, s.output.GetData())
	return probs, nil
}

func (s *onnxScorer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	return nil
}
