package knowledge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	gocache "github.com/patrickmn/go-cache"
)

// Snippet is one retrieved piece of supporting context with its citation.
type Snippet struct {
	SourceID string `json:"source_id"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	URL      string `json:"url"`
}

// Retriever fetches supporting context about places and plans from the
// knowledge base.
type Retriever interface {
	Retrieve(ctx context.Context, city, topic string) ([]Snippet, error)
}

const (
	retrieveTimeout  = 15 * time.Second
	maxSnippetChars  = 1200
	snippetCacheTTL  = 30 * time.Minute
	snippetCacheTidy = 10 * time.Minute
)

// HTMLRetriever queries a knowledge-base endpoint that serves article pages
// and cleans them down to citable text snippets. Lookups are cached: explain
// turns tend to revisit the same city pages.
type HTMLRetriever struct {
	baseURL string
	client  *http.Client
	cache   *gocache.Cache
}

// NewHTMLRetriever creates a retriever against the knowledge-base URL.
func NewHTMLRetriever(baseURL string) *HTMLRetriever {
	return &HTMLRetriever{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: retrieveTimeout},
		cache:   gocache.New(snippetCacheTTL, snippetCacheTidy),
	}
}

// Retrieve fetches the article for a city/topic pair and returns cleaned
// snippets. No article is not an error: the explainer must then say no
// source exists instead of asserting facts.
func (r *HTMLRetriever) Retrieve(ctx context.Context, city, topic string) ([]Snippet, error) {
	key := strings.ToLower(city) + "|" + strings.ToLower(topic)
	if cached, ok := r.cache.Get(key); ok {
		return cached.([]Snippet), nil
	}

	u := fmt.Sprintf("%s/articles?city=%s&topic=%s",
		r.baseURL, url.QueryEscape(city), url.QueryEscape(topic))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("knowledge base fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		r.cache.SetDefault(key, []Snippet(nil))
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("knowledge base fetch failed: status %d", resp.StatusCode)
	}

	snippets, err := cleanArticles(resp)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, snippets)
	return snippets, nil
}

// cleanArticles strips the page down to citable text. Each article element
// becomes one snippet keyed by its data-source-id attribute; articles without
// one are dropped since they cannot be cited.
func cleanArticles(resp *http.Response) ([]Snippet, error) {
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	var snippets []Snippet
	doc.Find("article").Each(func(i int, s *goquery.Selection) {
		sourceID, ok := s.Attr("data-source-id")
		if !ok || sourceID == "" {
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		if len(text) > maxSnippetChars {
			text = text[:maxSnippetChars]
		}
		snippets = append(snippets, Snippet{
			SourceID: sourceID,
			Title:    strings.TrimSpace(s.Find("h1, h2, h3").First().Text()),
			Text:     text,
			URL:      s.AttrOr("data-url", ""),
		})
	})

	return snippets, nil
}
