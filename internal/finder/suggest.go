package finder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Sources are the suggested places to search: tutorial site domains and
// YouTube channel URLs.
type Sources struct {
	Domains  []string
	Channels []string
}

const suggestPromptTemplate = `What are the TOP 3 best free tutorial websites and TOP 2 YouTube channels to learn %s?
I specifically need to learn these topics/features: %s

IMPORTANT: Return only the BEST 3 websites and BEST 2 YouTube channels.
Exclude course-based platforms like Coursera, edX, or Khan Academy.
Return EXACTLY 3 websites and 2 YouTube channels in JSON format:
{"websites": ["developer.mozilla.org", "javascript.info", "freecodecamp.org"], "youtube_channels": ["youtube.com/@TraversyMedia", "youtube.com/@CodeWithMosh"]}`

// suggestSources asks the model for the best sources for a topic. Any
// failure, including a missing client, falls back to the curated domain
// list so discovery still works offline.
func (f *Finder) suggestSources(ctx context.Context, topic string, terms []string) Sources {
	fallback := Sources{Domains: f.cfg.fallbackDomains()}

	if f.genai == nil {
		return fallback
	}

	model := f.cfg.GenAIModel
	if model == "" {
		model = DefaultConfig().GenAIModel
	}
	prompt := fmt.Sprintf(suggestPromptTemplate, topic, strings.Join(terms, ", "))

	resp, err := f.genai.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		f.log.Warn("source suggestion failed, using fallback domains", zap.Error(err))
		return fallback
	}

	parsed, err := parseSourcesResponse(resp.Text())
	if err != nil {
		f.log.Warn("source suggestion unparseable, using fallback domains", zap.Error(err))
		return fallback
	}

	sources := Sources{
		Domains:  normalizeDomains(parsed.Websites, 3),
		Channels: normalizeChannels(parsed.YouTubeChannels, 2),
	}
	// Top up with curated domains so a thin answer still has somewhere to
	// search.
	for _, d := range f.cfg.fallbackDomains() {
		if len(sources.Domains) >= 3 {
			break
		}
		if !contains(sources.Domains, d) {
			sources.Domains = append(sources.Domains, d)
		}
	}
	return sources
}

type sourcesResponse struct {
	Websites        []string `json:"websites"`
	YouTubeChannels []string `json:"youtube_channels"`
}

// parseSourcesResponse extracts the JSON object from a model reply that may
// wrap it in prose or a code fence.
func parseSourcesResponse(text string) (*sourcesResponse, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}
	var parsed sourcesResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	if len(parsed.Websites) == 0 && len(parsed.YouTubeChannels) == 0 {
		return nil, fmt.Errorf("response named no sources")
	}
	return &parsed, nil
}

// normalizeDomains strips schemes and paths, keeping bare domains.
func normalizeDomains(websites []string, max int) []string {
	var out []string
	for _, w := range websites {
		if len(out) >= max {
			break
		}
		d := strings.TrimPrefix(strings.TrimPrefix(w, "https://"), "http://")
		if i := strings.Index(d, "/"); i >= 0 {
			d = d[:i]
		}
		d = strings.TrimSpace(d)
		if d != "" && !contains(out, d) {
			out = append(out, d)
		}
	}
	return out
}

// normalizeChannels keeps only youtube.com channel references.
func normalizeChannels(channels []string, max int) []string {
	var out []string
	for _, c := range channels {
		if len(out) >= max {
			break
		}
		c = strings.TrimSpace(c)
		if strings.Contains(c, "youtube.com") && !contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
