package segment

import (
	"regexp"
	"strings"
)

var (
	pageOfRe   = regexp.MustCompile(`(?i)\bPage\s+\d+\s+of\s+\d+\b`)
	pageRe     = regexp.MustCompile(`(?i)\bPage\s+\d+\b`)
	nOfMRe     = regexp.MustCompile(`\b\d+\s+of\s+\d+\b`)
	tocEntryRe = regexp.MustCompile(`(?m)^\s*\d+\.\s+.*?\.{3,}\s+\d+\s*$`)
	tocHeadRe  = regexp.MustCompile(`(?i)^\s*table\s+of\s+contents\s*$`)
	dottedRe   = regexp.MustCompile(`\.{3,}\s*\d+\s*$`)
	spacesRe   = regexp.MustCompile(` +`)
	blanksRe   = regexp.MustCompile(`\n{3,}`)
)

// Header/footer detection thresholds: a line must be short and recur often
// before it is treated as page furniture rather than content.
const (
	headerMinLen      = 6
	headerMaxLen      = 50
	headerMinRepeats  = 5
	tocScanWindowSize = 40
)

// Clean removes page numbers, repeated headers/footers and a leading table
// of contents block from extracted document text, then normalizes
// whitespace. It is idempotent and never fails: unusable input yields "".
func Clean(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text := pageOfRe.ReplaceAllString(raw, "")
	text = pageRe.ReplaceAllString(text, "")
	text = nOfMRe.ReplaceAllString(text, "")

	// Collapse runs of spaces before header detection, so a recurring
	// header is measured the same on every pass and removal stays
	// idempotent.
	text = spacesRe.ReplaceAllString(text, " ")

	text = stripRepeatedLines(text)
	text = tocEntryRe.ReplaceAllString(text, "")
	text = stripTOCBlock(text)

	text = blanksRe.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	text = strings.Join(lines, "\n")
	text = blanksRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// stripRepeatedLines drops short lines that recur headerMinRepeats or more
// times in the document. Long lines are never dropped, so legitimate content
// paragraphs survive even when duplicated.
func stripRepeatedLines(text string) string {
	lines := strings.Split(text, "\n")
	counts := make(map[string]int)
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if len(stripped) > headerMinLen-1 && len(stripped) < headerMaxLen {
			counts[stripped]++
		}
	}
	kept := lines[:0]
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if counts[stripped] >= headerMinRepeats && len(stripped) < headerMaxLen {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// stripTOCBlock removes a leading "Table of Contents" section when the lines
// following the heading carry dotted-leader page numbers. It gives up rather
// than guessing when the block has no recognizable end.
func stripTOCBlock(text string) string {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if tocHeadRe.MatchString(line) {
			start = i
			break
		}
		if strings.TrimSpace(line) != "" {
			// Heading must lead the document.
			break
		}
	}
	if start < 0 {
		return text
	}

	end := start
	sawDotted := false
	limit := start + tocScanWindowSize
	if limit > len(lines) {
		limit = len(lines)
	}
	for i := start + 1; i < limit; i++ {
		stripped := strings.TrimSpace(lines[i])
		if stripped == "" {
			end = i
			continue
		}
		if dottedRe.MatchString(stripped) {
			sawDotted = true
			end = i
			continue
		}
		break
	}
	if !sawDotted {
		return text
	}
	return strings.Join(append(lines[:start:start], lines[end+1:]...), "\n")
}
