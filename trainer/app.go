package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"news-verifier/ml"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	dataFlag = &urfave.StringFlag{
		Name:     "data",
		Usage:    "Path to the CSV dataset with text and label columns",
		Required: true,
	}

	outFlag = &urfave.StringFlag{
		Name:  "out",
		Usage: "Where to write the trained model",
		Value: "model.json",
	}

	maxFeaturesFlag = &urfave.IntFlag{
		Name:  "max-features",
		Usage: "Vocabulary size kept by the TF-IDF vectorizer",
		Value: ml.DefaultOptions().MaxFeatures,
	}

	testSizeFlag = &urfave.Float64Flag{
		Name:  "test-size",
		Usage: "Share of samples held out for evaluation",
		Value: ml.DefaultOptions().TestSize,
	}

	seedFlag = &urfave.Int64Flag{
		Name:  "seed",
		Usage: "Seed of the train/test shuffle",
		Value: ml.DefaultOptions().Seed,
	}

	epochsFlag = &urfave.IntFlag{
		Name:  "epochs",
		Usage: "Gradient descent passes over the training set",
		Value: ml.DefaultOptions().Epochs,
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Report format [json, yaml]",
		Value: formatJSON,
	}
)

func newApp() *urfave.App {
	return &urfave.App{
		Name:            "trainer",
		Version:         version,
		Compiled:        time.Now(),
		HideHelpCommand: true,
		Usage:           "Train the local fake news classifier",
		Flags: []urfave.Flag{
			dataFlag,
			outFlag,
			maxFeaturesFlag,
			testSizeFlag,
			seedFlag,
			epochsFlag,
			formatFlag,
			debugFlag,
		},
		Before: func(c *urfave.Context) error {
			if c.Bool(debugFlag.Name) {
				initLogging(true)
			}
			return nil
		},
		Action: cmdTrain,
	}
}

func cmdTrain(c *urfave.Context) error {
	format := c.String(formatFlag.Name)
	if format == "yml" {
		format = formatYAML
	}
	if format != formatJSON && format != formatYAML {
		return errors.Errorf("unsupported format: %s", format)
	}

	examples, err := ml.LoadCSV(c.String(dataFlag.Name))
	if err != nil {
		return errors.Wrap(err, "loading dataset")
	}
	slog.Info("[TRAIN] dataset loaded", "samples", len(examples))

	opts := ml.DefaultOptions()
	opts.MaxFeatures = c.Int(maxFeaturesFlag.Name)
	opts.TestSize = c.Float64(testSizeFlag.Name)
	opts.Seed = c.Int64(seedFlag.Name)
	opts.Epochs = c.Int(epochsFlag.Name)

	start := time.Now()
	model, report, err := ml.Train(c.Context, examples, opts)
	if err != nil {
		return errors.Wrap(err, "training")
	}
	slog.Info("[TRAIN] ✓ model trained",
		"accuracy", fmt.Sprintf("%.4f", report.Accuracy), "elapsed", time.Since(start))

	out := c.String(outFlag.Name)
	if err := model.Save(out); err != nil {
		return err
	}
	slog.Info("[TRAIN] 💾 model saved", "path", out)

	return encode(c.App.Writer, format, report)
}

func initLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML {
		return yaml.NewEncoder(w).Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
