package ml

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/pkg/errors"
)

const fileMode = 0600

// Options control a training run.
type Options struct {
	MaxFeatures int
	TestSize    float64
	Seed        int64
	Epochs      int
	C           float64
}

func DefaultOptions() Options {
	return Options{
		MaxFeatures: 5000,
		TestSize:    0.2,
		Seed:        42,
		Epochs:      defaultEpochs,
		C:           defaultC,
	}
}

// Model is a trained bag-of-words classifier. Labels[1] is the class whose
// probability the regression predicts.
type Model struct {
	Labels     []string            `json:"labels"`
	Vectorizer *Vectorizer         `json:"vectorizer"`
	Classifier *LogisticRegression `json:"classifier"`
	TrainedAt  time.Time           `json:"trained_at"`
}

// Train cleans, vectorizes and fits the examples, evaluating on a held-out split.
func Train(ctx context.Context, examples []Example, opts Options) (*Model, *Report, error) {
	labels := uniqueLabels(examples)
	if len(labels) != 2 {
		return nil, nil, errors.Errorf("need exactly two labels, got %v", labels)
	}

	texts := make([]string, len(examples))
	y := make([]int, len(examples))
	for i, ex := range examples {
		texts[i] = ex.Text
		if ex.Label == labels[1] {
			y[i] = 1
		}
	}

	slog.Debug("[TRAIN] cleaning documents", "count", len(texts))
	cleaned, err := CleanAll(ctx, texts, runtime.NumCPU())
	if err != nil {
		return nil, nil, errors.Wrap(err, "cleaning documents")
	}

	vec := NewVectorizer(opts.MaxFeatures)
	X, err := vec.FitTransform(cleaned)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("[TRAIN] vectorized", "features", len(vec.IDF))

	trainIdx, testIdx := TrainTestSplit(len(X), opts.TestSize, opts.Seed)
	if len(trainIdx) == 0 {
		return nil, nil, errors.New("test split leaves no training samples")
	}

	trainX := make([]SparseVector, len(trainIdx))
	trainY := make([]float64, len(trainIdx))
	for i, idx := range trainIdx {
		trainX[i] = X[idx]
		trainY[i] = float64(y[idx])
	}

	clf := NewLogisticRegression()
	if opts.Epochs > 0 {
		clf.Epochs = opts.Epochs
	}
	if opts.C > 0 {
		clf.C = opts.C
	}
	slog.Debug("[TRAIN] fitting", "samples", len(trainX), "epochs", clf.Epochs)
	if err := clf.Fit(ctx, trainX, trainY, len(vec.IDF)); err != nil {
		return nil, nil, errors.Wrap(err, "fitting classifier")
	}

	m := &Model{
		Labels:     labels,
		Vectorizer: vec,
		Classifier: clf,
		TrainedAt:  time.Now().UTC(),
	}

	yTrue := make([]int, len(testIdx))
	yPred := make([]int, len(testIdx))
	for i, idx := range testIdx {
		yTrue[i] = y[idx]
		if clf.PredictProba(X[idx]) >= 0.5 {
			yPred[i] = 1
		}
	}
	report := Evaluate(labels, yTrue, yPred)
	report.Samples = len(examples)
	report.Features = len(vec.IDF)

	return m, report, nil
}

func uniqueLabels(examples []Example) []string {
	set := map[string]struct{}{}
	for _, ex := range examples {
		set[ex.Label] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Predict returns the most likely label for raw text and its probability.
func (m *Model) Predict(text string) (string, float64) {
	p := m.Classifier.PredictProba(m.Vectorizer.Transform(Clean(text)))
	if p >= 0.5 {
		return m.Labels[1], p
	}
	return m.Labels[0], 1 - p
}

func (m *Model) Save(path string) error {
	b, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "failed to marshal model")
	}
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write model file: %s", path)
	}
	return nil
}

func Load(path string) (*Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading model file: %s", path)
	}
	var m Model
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling model file: %s", path)
	}
	if len(m.Labels) != 2 || m.Vectorizer == nil || m.Classifier == nil {
		return nil, errors.Errorf("model file %s is incomplete", path)
	}
	if len(m.Classifier.Weights) != len(m.Vectorizer.IDF) {
		return nil, errors.Errorf("model file %s: %d weights for %d features",
			path, len(m.Classifier.Weights), len(m.Vectorizer.IDF))
	}
	return &m, nil
}
