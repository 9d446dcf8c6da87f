package transcript

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sehyun/yt-translator-go/internal/domain"
)

// minimumMergeLength is the target length of a merged caption block.
// A block ends at the first sentence boundary past this length, or at
// twice this length regardless of punctuation.
const minimumMergeLength = 400

var (
	bracketedRe  = regexp.MustCompile(`\[.*?\]|\(.*?\)`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	sentenceEnd  = regexp.MustCompile(`[.?!]$`)
)

// cleanText strips bracketed annotations like [음악] and (박수) and
// collapses all whitespace runs to single spaces.
func cleanText(text string) string {
	text = bracketedRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// formatTimestamp renders seconds as [MM:SS], or [HH:MM:SS] past an hour.
func formatTimestamp(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("[%02d:%02d:%02d]", h, m, s)
	}
	return fmt.Sprintf("[%02d:%02d]", m, s)
}

// mergeSnippets joins cleaned caption snippets into readable blocks.
// With timestamps enabled, each block is prefixed with the start time of
// its first snippet.
func mergeSnippets(snippets []domain.TranscriptSnippet, withTimestamps bool) string {
	var blocks []string
	var current strings.Builder
	var blockStart float64
	started := false

	flush := func() {
		if current.Len() == 0 {
			return
		}
		text := current.String()
		if withTimestamps {
			text = formatTimestamp(blockStart) + " " + text
		}
		blocks = append(blocks, text)
		current.Reset()
		started = false
	}

	for _, snippet := range snippets {
		text := cleanText(snippet.Text)
		if text == "" {
			continue
		}
		if !started {
			blockStart = snippet.Start
			started = true
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(text)

		if current.Len() >= minimumMergeLength && sentenceEnd.MatchString(text) {
			flush()
		} else if current.Len() > minimumMergeLength*2 {
			flush()
		}
	}
	flush()

	return strings.Join(blocks, "\n")
}
