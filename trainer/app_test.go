package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"news-verifier/ml"
)

func writeDataset(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("title,text,label\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "t%d,\"Shocking miracle cure exposed, aliens banned it %d\",FAKE\n", i, i)
		fmt.Fprintf(&b, "t%d,University study reports economic research findings %d,REAL\n", i, i)
	}
	path := filepath.Join(t.TempDir(), "news.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"trainer"}, args...))
	return out.String(), err
}

func TestTrainJSONReport(t *testing.T) {
	data := writeDataset(t)
	modelPath := filepath.Join(t.TempDir(), "model.json")

	out, err := run(t, "--data", data, "--out", modelPath)
	require.NoError(t, err)

	var report ml.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 40, report.Samples)
	assert.Equal(t, []string{"FAKE", "REAL"}, report.Labels)

	m, err := ml.Load(modelPath)
	require.NoError(t, err)
	label, _ := m.Predict("shocking miracle cure")
	assert.Equal(t, "FAKE", label)
}

func TestTrainYAMLReport(t *testing.T) {
	data := writeDataset(t)
	modelPath := filepath.Join(t.TempDir(), "model.json")

	out, err := run(t, "--data", data, "--out", modelPath, "--format", "yaml", "--test-size", "0.25")
	require.NoError(t, err)

	var report ml.Report
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, 40, report.Samples)
	assert.Equal(t, 10, report.TestSamples)
}

func TestTrainErrors(t *testing.T) {
	_, err := run(t, "--data", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = run(t, "--data", writeDataset(t), "--format", "xml")
	assert.Error(t, err)

	_, err = run(t)
	assert.Error(t, err)
}
