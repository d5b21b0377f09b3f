package serp

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jonathan/talent-scout/internal/types"
)

// MaxCandidates is the number of candidates kept per company.
const MaxCandidates = 6

// ProfilePattern identifies a profile page link.
const ProfilePattern = "linkedin.com/in/"

// Selectors used by the result-card strategy.
const (
	cardSelector         = ".g"
	clampSnippetSelector = `div[style*="-webkit-line-clamp"]`
	excerptSelector      = ".VwiC3b"
)

// Strategy turns a parsed result page into candidates.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document, base *url.URL) []types.Candidate
}

// CardStrategy reads result cards that carry a heading and a profile link.
type CardStrategy struct{}

// Name implements Strategy.
func (CardStrategy) Name() string { return "card" }

// Extract implements Strategy.
func (CardStrategy) Extract(doc *goquery.Document, base *url.URL) []types.Candidate {
	var out []types.Candidate
	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		heading := card.Find("h3").First()
		if heading.Length() == 0 {
			return
		}

		var link string
		card.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if resolved, ok := resolveHref(base, href); ok && IsProfileURL(resolved) {
				link = resolved
				return false
			}
			return true
		})
		if link == "" {
			return
		}

		snippet := card.Find(clampSnippetSelector).First()
		if snippet.Length() == 0 {
			snippet = card.Find(excerptSelector).First()
		}

		out = append(out, types.Candidate{
			Title:      collapse(heading.Text()),
			ProfileURL: link,
			Snippet:    collapse(snippet.Text()),
		})
	})
	return out
}

// LinkStrategy scans every profile link that wraps a heading. It only matters when
// the card markup has changed.
type LinkStrategy struct{}

// Name implements Strategy.
func (LinkStrategy) Name() string { return "link" }

// Extract implements Strategy.
func (LinkStrategy) Extract(doc *goquery.Document, base *url.URL) []types.Candidate {
	var out []types.Candidate
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		resolved, ok := resolveHref(base, href)
		if !ok || !IsProfileURL(resolved) {
			return
		}
		heading := a.Find("h3").First()
		if heading.Length() == 0 {
			return
		}
		out = append(out, types.Candidate{
			Title:      collapse(heading.Text()),
			ProfileURL: resolved,
			Snippet:    collapse(a.Closest("div").Text()),
		})
	})
	return out
}

// DefaultStrategies returns the strategy chain in preference order.
func DefaultStrategies() []Strategy {
	return []Strategy{CardStrategy{}, LinkStrategy{}}
}

// Extractor runs an ordered strategy chain; the first strategy producing any
// candidates wins.
type Extractor struct {
	strategies []Strategy
	limit      int
}

// NewExtractor creates an Extractor. With no strategies it uses DefaultStrategies.
func NewExtractor(strategies ...Strategy) *Extractor {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Extractor{strategies: strategies, limit: MaxCandidates}
}

// Extract parses html rendered at pageURL and returns up to MaxCandidates unique
// candidates in first-seen order.
func (e *Extractor) Extract(html string, pageURL string) ([]types.Candidate, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &ExtractionError{Message: "failed to parse page URL", Cause: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ExtractionError{Message: "failed to parse HTML", Cause: err}
	}

	for _, strategy := range e.strategies {
		found := strategy.Extract(doc, base)
		if len(found) == 0 {
			continue
		}
		candidates := Dedupe(found, e.limit)
		zap.L().Debug("candidates extracted",
			zap.String("strategy", strategy.Name()),
			zap.Int("raw", len(found)),
			zap.Int("kept", len(candidates)),
		)
		return candidates, nil
	}
	return nil, nil
}

// Dedupe drops repeated profile URLs, keeping the first occurrence, and truncates
// to limit. A non-positive limit keeps everything.
func Dedupe(candidates []types.Candidate, limit int) []types.Candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]types.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.ProfileURL] {
			continue
		}
		seen[c.ProfileURL] = true
		out = append(out, c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// IsProfileURL reports whether link points at a profile page.
func IsProfileURL(link string) bool {
	return strings.Contains(strings.ToLower(link), ProfilePattern)
}

// resolveHref makes href absolute against base and unwraps search-engine redirect
// links of the form /url?q=<target>.
func resolveHref(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}

	if u.Path == "/url" {
		target := u.Query().Get("q")
		if target == "" {
			target = u.Query().Get("url")
		}
		if target != "" {
			inner, err := url.Parse(target)
			if err == nil && inner.IsAbs() {
				u = inner
			}
		}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
