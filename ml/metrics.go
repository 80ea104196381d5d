package ml

import (
	"math/rand"
)

type ClassMetrics struct {
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1" yaml:"f1"`
	Support   int     `json:"support" yaml:"support"`
}

// Report summarizes held-out performance. ConfusionMatrix rows are true
// labels and columns predicted labels, both in Labels order.
type Report struct {
	Samples         int                     `json:"samples" yaml:"samples"`
	TestSamples     int                     `json:"test_samples" yaml:"test_samples"`
	Features        int                     `json:"features" yaml:"features"`
	Accuracy        float64                 `json:"accuracy" yaml:"accuracy"`
	Labels          []string                `json:"labels" yaml:"labels"`
	Classes         map[string]ClassMetrics `json:"classes" yaml:"classes"`
	ConfusionMatrix [][]int                 `json:"confusion_matrix" yaml:"confusion_matrix"`
}

// Evaluate compares class indices into labels.
func Evaluate(labels []string, yTrue, yPred []int) *Report {
	k := len(labels)
	cm := make([][]int, k)
	for i := range cm {
		cm[i] = make([]int, k)
	}

	correct := 0
	for i := range yTrue {
		cm[yTrue[i]][yPred[i]]++
		if yTrue[i] == yPred[i] {
			correct++
		}
	}

	r := &Report{
		TestSamples:     len(yTrue),
		Labels:          labels,
		Classes:         make(map[string]ClassMetrics, k),
		ConfusionMatrix: cm,
	}
	if len(yTrue) > 0 {
		r.Accuracy = float64(correct) / float64(len(yTrue))
	}

	for c, label := range labels {
		tp := cm[c][c]
		var predicted, actual int
		for o := 0; o < k; o++ {
			predicted += cm[o][c]
			actual += cm[c][o]
		}
		m := ClassMetrics{
			Precision: ratio(tp, predicted),
			Recall:    ratio(tp, actual),
			Support:   actual,
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes[label] = m
	}
	return r
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// TrainTestSplit shuffles indices 0..n-1 with the seed and holds out
// ceil(testSize*n) of them.
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(float64(n)*testSize + 0.999999)
	if nTest > n {
		nTest = n
	}
	return perm[nTest:], perm[:nTest]
}
