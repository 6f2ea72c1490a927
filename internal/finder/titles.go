package finder

import (
	"context"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// enrichTitles fetches each resource's page and fills in the <title> where
// one is missing or came from a search snippet. Fetches run concurrently
// with a bounded goroutine count; a failed fetch leaves the resource as is.
func (f *Finder) enrichTitles(ctx context.Context, resources []Resource) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.maxFetches())

	for i := range resources {
		if resources[i].Kind == KindSearch {
			continue
		}
		i := i
		g.Go(func() error {
			title, err := f.fetchTitle(ctx, resources[i].URL)
			if err != nil {
				f.log.Debug("title fetch failed",
					zap.String("url", resources[i].URL),
					zap.Error(err))
				return nil
			}
			if title != "" {
				resources[i].Title = title
			}
			return nil
		})
	}
	_ = g.Wait()
}

// fetchTitle downloads at most 1MB of a page and extracts its title.
func (f *Finder) fetchTitle(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "learnerator/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	return extractTitle(doc), nil
}

// extractTitle walks the parsed document for the first <title> element.
func extractTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := extractTitle(c); title != "" {
			return title
		}
	}
	return ""
}
