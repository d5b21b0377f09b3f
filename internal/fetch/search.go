package fetch

import (
	"fmt"
	"net/url"
)

// SearchBase is the search endpoint; the query is appended URL-encoded.
const SearchBase = "https://www.google.com/search?q="

// HRKeywords is the role disjunction used to find HR profiles.
const HRKeywords = `("HR" OR "Human Resources" OR "People" OR "Talent" OR "CHRO")`

// SearchURL returns the search page URL for query.
func SearchURL(query string) string {
	return SearchBase + url.QueryEscape(query)
}

// DomainQuery is the query used to find a company's own website.
func DomainQuery(company string) string {
	return company + " official site"
}

// CandidateQuery is the query used to find HR profiles at a company.
func CandidateQuery(company string) string {
	return fmt.Sprintf(`site:linkedin.com/in/ "%s" %s`, company, HRKeywords)
}

// DomainSearchURL is SearchURL(DomainQuery(company)).
func DomainSearchURL(company string) string {
	return SearchURL(DomainQuery(company))
}

// CandidateSearchURL is SearchURL(CandidateQuery(company)).
func CandidateSearchURL(company string) string {
	return SearchURL(CandidateQuery(company))
}
