// Package urlcanon normalizes submitted media URLs into canonical form
// and classifies their source platform. The canonical form is the
// deduplication key for submissions: two share pastes of the same video
// must canonicalize identically.
package urlcanon

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	httpURLPattern    = regexp.MustCompile(`https?://[^\s]+`)
	bilibiliIDPattern = regexp.MustCompile(`^BV[a-zA-Z0-9]+$`)
	bilibiliBVPattern = regexp.MustCompile(`(BV[a-zA-Z0-9]+)`)
)

// Platform identifiers stored on media records.
const (
	PlatformYouTube    = "youtube"
	PlatformBilibili   = "bilibili"
	PlatformXiaoyuzhou = "xiaoyuzhou"
	PlatformTwitter    = "twitter"
	PlatformPodcast    = "podcast"
	PlatformDirectFile = "direct_file"
	PlatformUnknown    = "unknown"
)

// Clean normalizes a raw submission into the canonical URL used as the
// deduplication key. Share links, shorts, tracking parameters and bare
// bilibili video ids all collapse to one canonical form per source.
func Clean(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	// Pasted share text often wraps the link in other words; pull the
	// first http(s) URL out of it.
	if !strings.HasPrefix(raw, "http") && strings.Contains(raw, "http") {
		if match := httpURLPattern.FindString(raw); match != "" {
			raw = match
		}
	}

	// Bare bilibili video id.
	if bilibiliIDPattern.MatchString(raw) {
		return "https://www.bilibili.com/video/" + raw
	}

	switch {
	case strings.Contains(raw, "bilibili.com"):
		if match := bilibiliBVPattern.FindString(raw); match != "" {
			return "https://www.bilibili.com/video/" + match
		}
		// Short links without a BV id: best effort, strip params.
		return strings.TrimRight(stripQuery(raw), "/")

	case strings.Contains(raw, "youtube.com") || strings.Contains(raw, "youtu.be"):
		if id := youtubeVideoID(raw); id != "" {
			return "https://www.youtube.com/watch?v=" + id
		}
		return raw

	case strings.Contains(raw, "x.com") || strings.Contains(raw, "twitter.com"):
		return strings.Replace(stripQuery(raw), "twitter.com", "x.com", 1)

	case strings.Contains(raw, "xiaoyuzhoufm.com"):
		return stripQuery(raw)
	}

	return raw
}

// DetectPlatform classifies a canonical URL by its source platform.
func DetectPlatform(canonicalURL string) string {
	canonicalURL = strings.TrimSpace(canonicalURL)
	if bilibiliIDPattern.MatchString(canonicalURL) {
		return PlatformBilibili
	}

	parsed, err := url.Parse(canonicalURL)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(parsed.Host)
	path := strings.ToLower(parsed.Path)

	switch {
	case strings.Contains(host, "youtube") || strings.Contains(host, "youtu.be"):
		return PlatformYouTube
	case strings.Contains(host, "bilibili"):
		return PlatformBilibili
	case strings.Contains(host, "xiaoyuzhoufm"):
		return PlatformXiaoyuzhou
	case host == "x.com" || strings.HasSuffix(host, ".x.com") ||
		strings.Contains(host, "twitter.com"):
		return PlatformTwitter
	}

	if strings.HasSuffix(path, ".xml") || strings.HasSuffix(path, ".rss") ||
		strings.Contains(path, "/feed/") ||
		strings.Contains(host, "rss") || strings.Contains(host, "feeds") {
		return PlatformPodcast
	}

	if strings.HasSuffix(path, ".mp3") || strings.HasSuffix(path, ".m4a") ||
		strings.HasSuffix(path, ".wav") {
		return PlatformDirectFile
	}

	return PlatformUnknown
}

// youtubeVideoID extracts the video id from the common youtube URL
// shapes: youtu.be short links, shorts, and watch?v= long links.
func youtubeVideoID(raw string) string {
	if idx := strings.Index(raw, "youtu.be/"); idx >= 0 {
		return stripQuery(raw[idx+len("youtu.be/"):])
	}
	if idx := strings.Index(raw, "/shorts/"); idx >= 0 {
		return stripQuery(raw[idx+len("/shorts/"):])
	}
	if parsed, err := url.Parse(raw); err == nil {
		if id := parsed.Query().Get("v"); id != "" {
			return id
		}
	}
	return ""
}

func stripQuery(raw string) string {
	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		return raw[:idx]
	}
	return raw
}
