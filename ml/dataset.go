package ml

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Example is one labeled article.
type Example struct {
	Text  string
	Label string
}

// LoadCSV reads a dataset with "text" and "label" header columns. Extra
// columns are ignored; rows with an empty text or label are skipped.
func LoadCSV(path string) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening dataset %s", path)
	}
	defer f.Close()
	return ReadCSV(f)
}

func ReadCSV(r io.Reader) ([]Example, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}

	textCol, labelCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "text":
			textCol = i
		case "label":
			labelCol = i
		}
	}
	if textCol < 0 || labelCol < 0 {
		return nil, errors.Errorf("dataset needs 'text' and 'label' columns, got %v", header)
	}

	var out []Example
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading row")
		}
		if textCol >= len(rec) || labelCol >= len(rec) {
			continue
		}
		text := strings.TrimSpace(rec[textCol])
		label := strings.TrimSpace(rec[labelCol])
		if text == "" || label == "" {
			continue
		}
		out = append(out, Example{Text: text, Label: label})
	}
	return out, nil
}
