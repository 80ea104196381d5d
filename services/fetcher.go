package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	fetchTimeout    = 30 * time.Second
	maxArticleRunes = 20000
	maxPageBytes    = 5 << 20
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var ErrThinContent = errors.New("page has too little text")

// ContentFetcher downloads a page and extracts its readable article text.
type ContentFetcher struct {
	// MinRunes is the shortest extracted text accepted as an article.
	MinRunes int

	httpClient *http.Client
}

func NewContentFetcher() *ContentFetcher {
	return &ContentFetcher{
		MinRunes:   200,
		httpClient: &http.Client{Timeout: fetchTimeout},
	}
}

func (f *ContentFetcher) FetchURL(ctx context.Context, url string) (string, error) {
	slog.Info("[FETCHER] 🌐 fetching", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	slog.Debug("[FETCHER] response", "status", resp.StatusCode, "content_type", resp.Header.Get("Content-Type"))

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	content := extractText(string(body))
	n := len([]rune(content))
	slog.Info("[FETCHER] ✓ extracted", "bytes", len(body), "runes", n, "preview", truncate(content, 100))

	if n < f.MinRunes {
		return "", fmt.Errorf("%w (%d characters)", ErrThinContent, n)
	}
	return content, nil
}

// Subtrees skipped entirely.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"svg":      true,
	"canvas":   true,
	"audio":    true,
	"video":    true,
	"nav":      true,
	"footer":   true,
}

var blockTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"div": true, "section": true, "article": true, "main": true,
	"blockquote": true, "li": true, "dt": true, "dd": true,
	"tr": true, "td": true, "th": true, "br": true,
	"figcaption": true,
}

// paragraph tags end with a blank line
var paraTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "figcaption": true,
}

var junkMarkers = []string{"advertisement", "ad-banner", "popup", "modal", "cookie-banner", "newsletter"}

var contentMarkers = []string{"content", "article", "post", "entry", "main-content", "post-content"}

var (
	spaceRe     = regexp.MustCompile(`[ \t]+`)
	blankLineRe = regexp.MustCompile(`\n{3,}`)
)

func isJunkNode(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "class", "id":
			if containsAny(strings.ToLower(attr.Val), junkMarkers) {
				return true
			}
		case "aria-hidden":
			if attr.Val == "true" {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// extractText prefers <article>, then <main>, then a content-like class or
// id, and falls back to the whole document.
func extractText(page string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		slog.Warn("[FETCHER] ⚠ parse failed", "error", err)
		return ""
	}

	root := findElement(doc, func(n *html.Node) bool { return n.Data == "article" })
	if root == nil {
		root = findElement(doc, func(n *html.Node) bool { return n.Data == "main" })
	}
	if root == nil {
		root = findElement(doc, func(n *html.Node) bool {
			for _, attr := range n.Attr {
				if (attr.Key == "class" || attr.Key == "id") && containsAny(strings.ToLower(attr.Val), contentMarkers) {
					return true
				}
			}
			return false
		})
	}
	if root == nil {
		slog.Debug("[FETCHER] no main content element, using whole page")
		root = doc
	}

	return normalizeText(renderText(root))
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func renderText(root *html.Node) string {
	var sb strings.Builder
	lastByte := func() byte {
		if sb.Len() == 0 {
			return 0
		}
		s := sb.String()
		return s[len(s)-1]
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			tag := n.Data
			if skipTags[tag] || isJunkNode(n) {
				return
			}
			if blockTags[tag] && sb.Len() > 0 && lastByte() != '\n' {
				sb.WriteByte('\n')
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			switch {
			case paraTags[tag]:
				sb.WriteString("\n\n")
			case blockTags[tag] && lastByte() != '\n':
				sb.WriteByte('\n')
			}
		case html.TextNode:
			text := strings.Join(strings.Fields(n.Data), " ")
			if text == "" {
				return
			}
			if b := lastByte(); b != 0 && b != '\n' && b != ' ' {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
		default:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
	}
	walk(root)
	return sb.String()
}

func normalizeText(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = spaceRe.ReplaceAllString(strings.TrimSpace(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	text := strings.TrimSpace(blankLineRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))

	if runes := []rune(text); len(runes) > maxArticleRunes {
		slog.Debug("[FETCHER] truncating article", "runes", len(runes))
		text = string(runes[:maxArticleRunes])
	}
	return text
}
