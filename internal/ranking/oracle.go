// Package ranking asks an LLM to pick the most senior HR contact among scraped candidates.
package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/talent-scout/internal/llm"
	"github.com/jonathan/talent-scout/internal/prompts"
	"github.com/jonathan/talent-scout/internal/schemas"
	"github.com/jonathan/talent-scout/internal/types"
	"github.com/jonathan/talent-scout/internal/validation"
)

// UnverifiedPrefix marks reasoning for a match whose link was not among the candidates.
const UnverifiedPrefix = "Unverified profile link: "

// Ranker picks the best HR contact for a company.
type Ranker struct {
	client   llm.Client
	tier     llm.ModelTier
	system   string
	template string
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithTier selects the model tier used for ranking.
func WithTier(tier llm.ModelTier) Option {
	return func(r *Ranker) { r.tier = tier }
}

// NewRanker creates a Ranker backed by client, using the embedded ranking prompts.
func NewRanker(client llm.Client, opts ...Option) *Ranker {
	r := &Ranker{
		client:   client,
		tier:     llm.TierStandard,
		system:   prompts.MustGet(prompts.RankingFile, prompts.KeySystem),
		template: prompts.MustGet(prompts.RankingFile, prompts.KeySelectHRLead),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank returns the best match among candidates, or nil when there are no candidates
// or the model's answer is unusable. Failures are logged, never returned.
func (r *Ranker) Rank(ctx context.Context, company string, candidates []types.Candidate) *types.RankedMatch {
	if len(candidates) == 0 {
		return nil
	}

	logger := zap.L().With(zap.String("company", company), zap.Int("candidates", len(candidates)))

	prompt, err := BuildPrompt(r.template, company, validation.SanitizeCandidates(company, candidates))
	if err != nil {
		logger.Error("failed to build ranking prompt", zap.Error(err))
		return nil
	}

	raw, err := r.client.GenerateJSON(ctx, r.system, prompt, r.tier)
	if err != nil {
		logger.Error("ranking request failed",
			zap.String("model", r.client.GetModel(r.tier)),
			zap.Error(err),
		)
		return nil
	}

	match, err := DecodeMatch(raw, candidates)
	if err != nil {
		logger.Warn("unusable ranking answer", zap.Error(err), zap.String("content", raw))
		return nil
	}

	logger.Debug("ranking answer",
		zap.String("name", match.Name),
		zap.String("confidence", string(match.Confidence)),
	)
	return match
}

// BuildPrompt renders the ranking template for company with the candidate set as
// indented JSON.
func BuildPrompt(template, company string, candidates []types.Candidate) (string, error) {
	data, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode candidates: %w", err)
	}
	return prompts.Format(template, map[string]string{
		"Company":    company,
		"Candidates": string(data),
	}), nil
}

// DecodeMatch turns a raw model answer into a validated match. A link that is not
// one of the supplied candidates keeps the match but downgrades it to Low.
func DecodeMatch(raw string, candidates []types.Candidate) (*types.RankedMatch, error) {
	cleaned := llm.CleanJSONBlock(raw)

	if err := schemas.ValidateRankedMatch(cleaned); err != nil {
		return nil, err
	}

	var match types.RankedMatch
	if err := json.Unmarshal([]byte(cleaned), &match); err != nil {
		return nil, fmt.Errorf("failed to parse ranking answer: %w", err)
	}

	match.Name = strings.TrimSpace(match.Name)
	match.JobTitle = strings.TrimSpace(match.JobTitle)
	match.ProfileURL = strings.TrimSpace(match.ProfileURL)
	match.Reasoning = strings.TrimSpace(match.Reasoning)

	confidence, ok := types.ParseConfidence(string(match.Confidence))
	if !ok {
		return nil, fmt.Errorf("unknown confidence %q", match.Confidence)
	}
	match.Confidence = confidence

	if err := match.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking answer: %w", err)
	}

	if match.ProfileURL != "" && !containsLink(candidates, match.ProfileURL) {
		match.Confidence = types.ConfidenceLow
		match.Reasoning = UnverifiedPrefix + match.Reasoning
	}

	return &match, nil
}

func containsLink(candidates []types.Candidate, link string) bool {
	want := canonicalLink(link)
	for _, c := range candidates {
		if canonicalLink(c.ProfileURL) == want {
			return true
		}
	}
	return false
}

// canonicalLink compares profile links by host and path only.
func canonicalLink(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSuffix(link, "/"))
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	return host + strings.TrimSuffix(u.Path, "/")
}
