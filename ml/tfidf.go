package ml

import (
	"math"
	"regexp"
	"sort"

	"github.com/pkg/errors"
)

var tokenRe = regexp.MustCompile(`\b\w\w+\b`)

// Entry is one non-zero component of a sparse vector.
type Entry struct {
	Index int     `json:"i"`
	Value float64 `json:"v"`
}

// SparseVector entries are ordered by index.
type SparseVector []Entry

// Vectorizer is a TF-IDF vectorizer with smoothed idf and l2-normalized rows.
// The vocabulary keeps the MaxFeatures most frequent terms of the corpus.
type Vectorizer struct {
	MaxFeatures int            `json:"max_features"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
}

func NewVectorizer(maxFeatures int) *Vectorizer {
	return &Vectorizer{MaxFeatures: maxFeatures}
}

func tokenize(doc string) []string {
	return tokenRe.FindAllString(doc, -1)
}

func (v *Vectorizer) Fit(docs []string) error {
	if len(docs) == 0 {
		return errors.New("no documents to fit")
	}

	counts := map[string]int{}
	docFreq := map[string]int{}
	for _, d := range docs {
		seen := map[string]struct{}{}
		for _, tok := range tokenize(d) {
			counts[tok]++
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				docFreq[tok]++
			}
		}
	}
	if len(counts) == 0 {
		return errors.New("empty vocabulary; documents contain only stop words")
	}

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}
	// feature indices follow alphabetical order
	sort.Strings(terms)

	n := float64(len(docs))
	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, t := range terms {
		v.Vocabulary[t] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}
	return nil
}

func (v *Vectorizer) Transform(doc string) SparseVector {
	tf := map[int]float64{}
	for _, tok := range tokenize(doc) {
		if idx, ok := v.Vocabulary[tok]; ok {
			tf[idx]++
		}
	}

	vec := make(SparseVector, 0, len(tf))
	var norm float64
	for idx, c := range tf {
		w := c * v.IDF[idx]
		vec = append(vec, Entry{Index: idx, Value: w})
		norm += w * w
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].Index < vec[j].Index })

	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i].Value /= norm
		}
	}
	return vec
}

func (v *Vectorizer) FitTransform(docs []string) ([]SparseVector, error) {
	if err := v.Fit(docs); err != nil {
		return nil, errors.Wrap(err, "fitting vectorizer")
	}
	out := make([]SparseVector, len(docs))
	for i, d := range docs {
		out[i] = v.Transform(d)
	}
	return out, nil
}
