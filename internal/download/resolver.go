package download

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/phrazzld/audigest-api/internal/urlcanon"
)

// maxPageBytes bounds how much of a resolved page/feed we read.
const maxPageBytes = 4 << 20

var ogAudioPattern = regexp.MustCompile(
	`<meta[^>]+property="og:audio"[^>]+content="([^"]+)"`)

// Resolver turns indirect sources (podcast RSS feeds, xiaoyuzhou
// episode pages) into direct audio URLs yt-dlp can fetch. Direct
// platform URLs pass through unchanged.
type Resolver struct {
	client *http.Client
}

// NewResolver creates a Resolver with a bounded-timeout HTTP client.
func NewResolver() *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// rssFeed is the subset of an RSS document we consume: the first
// entry's enclosures.
type rssFeed struct {
	Channel struct {
		Items []struct {
			Enclosures []struct {
				URL  string `xml:"url,attr"`
				Type string `xml:"type,attr"`
			} `xml:"enclosure"`
		} `xml:"item"`
	} `xml:"channel"`
}

// Resolve maps a canonical URL to the direct audio URL to download.
// Unresolvable sources are returned unchanged; only transport errors
// are reported.
func (r *Resolver) Resolve(ctx context.Context, canonicalURL, platformHint string) (string, error) {
	switch platformHint {
	case urlcanon.PlatformPodcast:
		return r.resolveFeed(ctx, canonicalURL)
	case urlcanon.PlatformXiaoyuzhou:
		return r.resolvePage(ctx, canonicalURL)
	}
	return canonicalURL, nil
}

// resolveFeed fetches an RSS feed and returns the audio enclosure of
// its newest entry.
func (r *Resolver) resolveFeed(ctx context.Context, feedURL string) (string, error) {
	body, err := r.fetch(ctx, feedURL)
	if err != nil {
		return feedURL, err
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return feedURL, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	if len(feed.Channel.Items) == 0 {
		return feedURL, nil
	}
	for _, enc := range feed.Channel.Items[0].Enclosures {
		if strings.HasPrefix(enc.Type, "audio") && enc.URL != "" {
			return enc.URL, nil
		}
	}
	return feedURL, nil
}

// resolvePage scrapes an episode page for its og:audio meta tag.
func (r *Resolver) resolvePage(ctx context.Context, pageURL string) (string, error) {
	body, err := r.fetch(ctx, pageURL)
	if err != nil {
		return pageURL, err
	}

	if match := ogAudioPattern.FindSubmatch(body); match != nil {
		return string(match[1]), nil
	}
	return pageURL, nil
}

func (r *Resolver) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
