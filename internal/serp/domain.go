package serp

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jonathan/talent-scout/internal/types"
)

// FirstOrganicLink returns the target of the first organic result on a result page.
// Result cards are preferred; a heading link anywhere on the page is the fallback.
func FirstOrganicLink(html string, pageURL string) (string, bool) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	if link, ok := firstLink(doc.Find(cardSelector+" a[href]"), base); ok {
		return link, true
	}
	return firstLink(doc.Find("a[href]:has(h3)"), base)
}

func firstLink(sel *goquery.Selection, base *url.URL) (string, bool) {
	var link string
	sel.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if resolved, ok := resolveHref(base, href); ok {
			link = resolved
			return false
		}
		return true
	})
	return link, link != ""
}

// NormalizeDomain reduces a URL to its bare lower-case hostname without a leading "www.".
func NormalizeDomain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &DomainError{Message: "empty link"}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", &DomainError{Message: "failed to parse link", Cause: err}
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", &DomainError{Message: "link has no host: " + raw}
	}
	return strings.TrimPrefix(host, "www."), nil
}

// DomainFrom returns the normalized domain of the first organic result, or
// types.DomainUnknown when there is none.
func DomainFrom(html string, pageURL string) string {
	link, ok := FirstOrganicLink(html, pageURL)
	if !ok {
		return types.DomainUnknown
	}
	domain, err := NormalizeDomain(link)
	if err != nil {
		zap.L().Debug("domain normalization failed", zap.String("link", link), zap.Error(err))
		return types.DomainUnknown
	}
	return domain
}
