package collector

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang-market-intel/internal/pipeline/dto"
	"golang-market-intel/pkg/logger"
	"golang-market-intel/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
)

const rssPlatform = "rss"

// minInlineContentLen is the description length below which the full article
// is fetched and extracted.
const minInlineContentLen = 280

// RSSCollector is the built-in reference implementation of the collector
// contract: it reads configured feeds and emits items in the shared wire
// schema. Platform-specific collectors live outside this repository and are
// only obligated to produce the same schema.
type RSSCollector struct {
	feeds              []string
	blacklistedDomains []string
	client             *http.Client
	parser             *gofeed.Parser
	logger             *logger.Logger
}

// NewRSSCollector creates a collector over the given feed URLs.
func NewRSSCollector(feeds, blacklistedDomains []string, log *logger.Logger) *RSSCollector {
	return &RSSCollector{
		feeds:              feeds,
		blacklistedDomains: blacklistedDomains,
		client:             &http.Client{Timeout: 30 * time.Second},
		parser:             gofeed.NewParser(),
		logger:             log,
	}
}

// Platform returns the stable platform identifier.
func (c *RSSCollector) Platform() string {
	return rssPlatform
}

// Scrape reads every configured feed. A failing feed is logged and skipped;
// the remaining feeds still produce posts.
func (c *RSSCollector) Scrape(ctx context.Context) ([]dto.QueuedPost, error) {
	var posts []dto.QueuedPost
	for _, feedURL := range c.feeds {
		if !utils.ShouldContinue(ctx, c.logger) {
			break
		}

		feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			c.logger.Error("Failed to parse RSS feed", logger.ErrorField(err), logger.StringField("feed", feedURL))
			continue
		}

		for _, item := range feed.Items {
			post, ok := c.buildPost(ctx, feedURL, item)
			if !ok {
				continue
			}
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (c *RSSCollector) buildPost(ctx context.Context, feedURL string, item *gofeed.Item) (dto.QueuedPost, bool) {
	link := item.Link
	parsedURL, err := url.Parse(link)
	if err != nil {
		c.logger.Error("Could not parse item link", logger.StringField("link", link), logger.ErrorField(err))
		return dto.QueuedPost{}, false
	}
	if utils.ContainsString(c.blacklistedDomains, parsedURL.Hostname()) {
		return dto.QueuedPost{}, false
	}

	sourceID := item.GUID
	if sourceID == "" {
		hash := md5.Sum([]byte(item.Link + "|" + item.Published))
		sourceID = hex.EncodeToString(hash[:])
	}

	content := utils.SafeText(item.Title + ". " + item.Description)
	if len(content) < minInlineContentLen {
		if article, err := c.fetchArticle(ctx, link); err == nil && len(article) > len(content) {
			content = article
		}
	}

	author := parsedURL.Hostname()
	if item.Author != nil && item.Author.Name != "" {
		author = item.Author.Name
	}

	metadata, _ := json.Marshal(map[string]string{
		"feed":   feedURL,
		"source": parsedURL.Hostname(),
	})

	return dto.QueuedPost{
		ID:                dto.PostID(rssPlatform, sourceID),
		Platform:          rssPlatform,
		Author:            author,
		Content:           content,
		URL:               link,
		RawMetadata:       metadata,
		ScrapedAt:         time.Now().UTC(),
		SourcePublishedAt: item.PublishedParsed,
	}, true
}

// fetchArticle downloads the linked page and extracts readable text.
func (c *RSSCollector) fetchArticle(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch article, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse article: %w", err)
	}

	docHTML, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(doc.Content())))
	if err != nil {
		return "", fmt.Errorf("failed to parse extracted content: %w", err)
	}

	return utils.SafeText(strings.TrimSpace(docHTML.Text())), nil
}
