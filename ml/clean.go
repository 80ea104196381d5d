package ml

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"
)

const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var (
	bracketRe   = regexp.MustCompile(`\[.*?\]`)
	urlRe       = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagRe       = regexp.MustCompile(`<.*?>+`)
	punctRe     = regexp.MustCompile(`[` + regexp.QuoteMeta(punctuation) + `]`)
	digitWordRe = regexp.MustCompile(`\w*\d\w*`)
)

// Clean normalizes an article for vectorizing: lower case, no bracketed
// asides, links, markup, punctuation, digit-bearing words or stop words.
func Clean(text string) string {
	text = strings.ToLower(text)
	text = bracketRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "")
	text = tagRe.ReplaceAllString(text, "")
	text = punctRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\n", " ")
	text = digitWordRe.ReplaceAllString(text, "")

	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopWords[w]; !stop {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// CleanAll cleans docs concurrently, preserving order.
func CleanAll(ctx context.Context, docs []string, workers int) ([]string, error) {
	out := make([]string, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = Clean(docs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
