package finder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// cseItem is one Custom Search hit.
type cseItem struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type cseResponse struct {
	Items []cseItem `json:"items"`
}

// cseSearch runs one Custom Search query and returns its hits.
func (f *Finder) cseSearch(ctx context.Context, query string, num int) ([]cseItem, error) {
	v := url.Values{}
	v.Set("key", f.cfg.GoogleAPIKey)
	v.Set("cx", f.cfg.CSEID)
	v.Set("q", query)
	v.Set("num", fmt.Sprintf("%d", num))

	req, err := http.NewRequestWithContext(ctx, "GET", f.searchBaseURL+"?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result cseResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return result.Items, nil
}

// searchDedicatedTutorial looks for a tutorial page dedicated to one term,
// trying each suggested domain in order.
func (f *Finder) searchDedicatedTutorial(ctx context.Context, topic, term string, domains []string) (Resource, bool) {
	for _, domain := range domains {
		query := fmt.Sprintf("%q %s tutorial guide site:%s", term, topic, domain)
		items, err := f.cseSearch(ctx, query, 3)
		if err != nil {
			f.log.Warn("tutorial search failed",
				zap.String("term", term),
				zap.String("domain", domain),
				zap.Error(err))
			continue
		}
		for _, item := range items {
			if isDedicatedTutorial(item, term) {
				f.log.Debug("found dedicated tutorial",
					zap.String("term", term),
					zap.String("url", item.Link))
				return Resource{URL: item.Link, Title: item.Title, Kind: KindSite}, true
			}
		}
	}
	return Resource{}, false
}

// searchYouTubeVideo looks for a watch link dedicated to one term, trying
// the suggested channels before all of YouTube.
func (f *Finder) searchYouTubeVideo(ctx context.Context, topic, term string, channels []string) (Resource, bool) {
	domains := append(append([]string(nil), channels...), "youtube.com")
	if len(domains) > 3 {
		domains = domains[:3]
	}
	for _, domain := range domains {
		query := fmt.Sprintf("%q %s tutorial example site:%s", term, topic, domain)
		items, err := f.cseSearch(ctx, query, 3)
		if err != nil {
			f.log.Warn("video search failed",
				zap.String("term", term),
				zap.String("domain", domain),
				zap.Error(err))
			continue
		}
		for _, item := range items {
			if isDedicatedVideo(item, term) {
				f.log.Debug("found video",
					zap.String("term", term),
					zap.String("url", item.Link))
				return Resource{URL: item.Link, Title: item.Title, Kind: KindVideo}, true
			}
		}
	}
	return Resource{}, false
}

var (
	tutorialTerms = []string{"tutorial", "guide", "learn", "how to"}
	videoTerms    = []string{"tutorial", "example", "demo", "guide", "how to"}
	excludedTerms = []string{"login", "signup", "pay", "subscribe"}
)

// isDedicatedTutorial accepts hits whose title or snippet mentions the term
// and reads like a tutorial, excluding account pages and YouTube links.
func isDedicatedTutorial(item cseItem, term string) bool {
	title := strings.ToLower(item.Title)
	snippet := strings.ToLower(item.Snippet)
	link := strings.ToLower(item.Link)

	if item.Link == "" || strings.Contains(link, "youtube.com") {
		return false
	}
	for _, t := range excludedTerms {
		if strings.Contains(link, t) {
			return false
		}
	}
	if !mentionsTerm(title, snippet, term) {
		return false
	}
	return anyIn(title, snippet, tutorialTerms)
}

// isDedicatedVideo accepts YouTube watch links that mention the term and
// read like a demonstration.
func isDedicatedVideo(item cseItem, term string) bool {
	title := strings.ToLower(item.Title)
	snippet := strings.ToLower(item.Snippet)
	link := strings.ToLower(item.Link)

	if !strings.Contains(link, "youtube.com") || !strings.Contains(link, "/watch") {
		return false
	}
	for _, t := range excludedTerms {
		if strings.Contains(link, t) {
			return false
		}
	}
	if !mentionsTerm(title, snippet, term) {
		return false
	}
	return anyIn(title, snippet, videoTerms)
}

func mentionsTerm(title, snippet, term string) bool {
	for _, kw := range strings.Fields(strings.ToLower(term)) {
		if strings.Contains(title, kw) || strings.Contains(snippet, kw) {
			return true
		}
	}
	return false
}

func anyIn(title, snippet string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(title, t) || strings.Contains(snippet, t) {
			return true
		}
	}
	return false
}
