package ml

import (
	"context"
	"math"

	"github.com/pkg/errors"
)

const (
	defaultC            = 1.0
	defaultEpochs       = 300
	defaultLearningRate = 1.0
)

// LogisticRegression is a binary L2-regularized logistic regression trained
// with full-batch gradient descent. C is the inverse regularization strength.
type LogisticRegression struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`

	C            float64 `json:"-"`
	Epochs       int     `json:"-"`
	LearningRate float64 `json:"-"`
}

func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		C:            defaultC,
		Epochs:       defaultEpochs,
		LearningRate: defaultLearningRate,
	}
}

// Fit learns weights for vectors of the given dimension; y holds 0/1 targets.
func (m *LogisticRegression) Fit(ctx context.Context, X []SparseVector, y []float64, dim int) error {
	if len(X) == 0 {
		return errors.New("no training samples")
	}
	if len(X) != len(y) {
		return errors.Errorf("sample/target mismatch: %d vs %d", len(X), len(y))
	}
	if m.C <= 0 {
		return errors.Errorf("C must be positive, got %v", m.C)
	}

	n := float64(len(X))
	m.Weights = make([]float64, dim)
	m.Bias = 0
	grad := make([]float64, dim)

	for epoch := 0; epoch < m.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "training stopped at epoch %d", epoch)
		}

		for j := range grad {
			grad[j] = 0
		}
		var gradBias float64

		for i, x := range X {
			diff := m.PredictProba(x) - y[i]
			for _, e := range x {
				grad[e.Index] += diff * e.Value
			}
			gradBias += diff
		}

		reg := 1 / (m.C * n)
		for j := range m.Weights {
			m.Weights[j] -= m.LearningRate * (grad[j]/n + reg*m.Weights[j])
		}
		m.Bias -= m.LearningRate * gradBias / n
	}
	return nil
}

// PredictProba returns the probability of the positive class.
func (m *LogisticRegression) PredictProba(x SparseVector) float64 {
	z := m.Bias
	for _, e := range x {
		if e.Index < len(m.Weights) {
			z += m.Weights[e.Index] * e.Value
		}
	}
	return 1 / (1 + math.Exp(-z))
}
