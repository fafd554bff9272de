package summarize

import (
	"regexp"
	"strings"
)

const maxTags = 10

var (
	tagPattern = regexp.MustCompile(`#([\p{L}\p{N}_-]+)`)
	digitsOnly = regexp.MustCompile(`^[0-9]+$`)
)

// splitTags separates hashtag topics from the summary body. The prompt
// asks the model to finish with a line of #tags; that trailing line is
// stripped from the content when it holds nothing but tags. Tags are
// deduplicated in order of first appearance and capped at maxTags;
// single-character and purely numeric matches are noise and dropped.
func splitTags(text string) (content string, tags []string) {
	content = strings.TrimSpace(text)

	seen := make(map[string]struct{})
	for _, match := range tagPattern.FindAllStringSubmatch(content, -1) {
		tag := match[1]
		if len([]rune(tag)) < 2 || digitsOnly.MatchString(tag) {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}

	lines := strings.Split(content, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last != "" && isTagLine(last) {
		content = strings.TrimSpace(strings.Join(lines[:len(lines)-1], "\n"))
	}
	return content, tags
}

// isTagLine reports whether the line consists solely of #tag tokens.
func isTagLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !strings.HasPrefix(f, "#") {
			return false
		}
	}
	return true
}
