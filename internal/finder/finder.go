// Package finder discovers learning resources for a topic: it asks a model
// for the best tutorial sites and YouTube channels, searches them for
// concrete pages via the Google Custom Search API, and enriches the hits
// with page titles. Without credentials it degrades to deterministic
// site-scoped search URLs rather than fabricating results.
package finder

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Kind classifies a found resource.
type Kind string

const (
	// KindSite is a dedicated tutorial page.
	KindSite Kind = "site"
	// KindVideo is a YouTube watch link.
	KindVideo Kind = "video"
	// KindSearch is a site-scoped search URL, used when no search
	// credentials are configured.
	KindSearch Kind = "search"
)

// Resource is one discovered learning resource.
type Resource struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Kind  Kind   `json:"kind"`
}

// Config configures the finder.
type Config struct {
	GenAIAPIKey          string   `yaml:"genai_api_key"`
	GenAIModel           string   `yaml:"genai_model"`
	GoogleAPIKey         string   `yaml:"google_api_key"`
	CSEID                string   `yaml:"cse_id"`
	FallbackDomains      []string `yaml:"fallback_domains"`
	FetchTimeout         string   `yaml:"fetch_timeout"`
	MaxConcurrentFetches int      `yaml:"max_concurrent_fetches"`
}

// DefaultConfig returns sensible defaults. The fallback domains are the
// curated list used when source suggestion is unavailable.
func DefaultConfig() Config {
	return Config{
		GenAIModel: "gemini-2.0-flash",
		FallbackDomains: []string{
			"developer.mozilla.org",
			"freecodecamp.org",
			"www.w3schools.com",
		},
		FetchTimeout:         "15s",
		MaxConcurrentFetches: 4,
	}
}

func (c Config) fetchTimeout() time.Duration {
	if d, err := time.ParseDuration(c.FetchTimeout); err == nil && d > 0 {
		return d
	}
	return 15 * time.Second
}

func (c Config) maxFetches() int {
	if c.MaxConcurrentFetches > 0 {
		return c.MaxConcurrentFetches
	}
	return 4
}

func (c Config) fallbackDomains() []string {
	if len(c.FallbackDomains) > 0 {
		return c.FallbackDomains
	}
	return DefaultConfig().FallbackDomains
}

// Finder discovers learning resources.
type Finder struct {
	cfg    Config
	log    *zap.Logger
	client *http.Client
	genai  *genai.Client

	// searchBaseURL overrides the Custom Search endpoint in tests.
	searchBaseURL string
}

// New creates a finder. The genai client is only constructed when an API
// key is configured; without one, suggestion falls straight back to the
// curated domain list.
func New(cfg Config, logger *zap.Logger) (*Finder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Finder{
		cfg:           cfg,
		log:           logger,
		client:        &http.Client{Timeout: cfg.fetchTimeout()},
		searchBaseURL: "https://customsearch.googleapis.com/customsearch/v1",
	}
	if cfg.GenAIAPIKey != "" {
		client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: cfg.GenAIAPIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create GenAI client: %w", err)
		}
		f.genai = client
	}
	return f, nil
}

// FindResources returns resources for a topic, one per search term, in
// deterministic order: dedicated tutorials first preference per term, then
// a YouTube video, then a site-scoped search URL as the floor.
func (f *Finder) FindResources(ctx context.Context, topic string, terms []string) ([]Resource, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is empty")
	}
	if len(terms) == 0 {
		terms = []string{topic}
	}

	sources := f.suggestSources(ctx, topic, terms)
	f.log.Debug("sources suggested",
		zap.Strings("domains", sources.Domains),
		zap.Strings("channels", sources.Channels))

	var resources []Resource
	searchable := f.cfg.GoogleAPIKey != "" && f.cfg.CSEID != ""

	for _, term := range terms {
		if searchable {
			if r, ok := f.searchDedicatedTutorial(ctx, topic, term, sources.Domains); ok {
				resources = append(resources, r)
				continue
			}
			if r, ok := f.searchYouTubeVideo(ctx, topic, term, sources.Channels); ok {
				resources = append(resources, r)
				continue
			}
		}
		resources = append(resources, f.searchURLFallback(topic, term, sources.Domains))
	}

	f.enrichTitles(ctx, resources)
	return resources, nil
}

// searchURLFallback builds a deterministic site-scoped search URL for a
// term. No network call, no fabricated result data.
func (f *Finder) searchURLFallback(topic, term string, domains []string) Resource {
	domain := ""
	if len(domains) > 0 {
		domain = domains[0]
	}
	q := fmt.Sprintf("%s %s tutorial", term, topic)
	if domain != "" {
		q = fmt.Sprintf("site:%s %s", domain, q)
	}
	v := url.Values{}
	v.Set("q", q)
	return Resource{
		URL:   "https://www.google.com/search?" + v.Encode(),
		Title: fmt.Sprintf("Search: %s", q),
		Kind:  KindSearch,
	}
}
