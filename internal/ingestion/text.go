package ingestion

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	multiSpaceRegex     = regexp.MustCompile(`\s+`)
	excessiveBlankRegex = regexp.MustCompile(`\n\n\n+`)
	relaxedSpaceRegex   = regexp.MustCompile(`[ \t\f\v\x{00A0}\x{2000}-\x{200B}\x{3000}]+`)
)

// CleanText normalizes line endings, collapses runs of spaces inside lines and
// limits blank runs to a single blank line, preserving bullets and indentation.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = normalizeLineEndings(content)

	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	result := strings.Join(cleanedLines, "\n")
	result = excessiveBlankRegex.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine cleans a single line while preserving structure
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return ""
	}

	trimmed := strings.TrimLeft(line, " \t")
	if isBulletLine(trimmed) {
		indent := len(line) - len(trimmed)
		return strings.Repeat(" ", indent) + trimmed
	}

	leadingSpace := len(line) - len(trimmed)
	content := multiSpaceRegex.ReplaceAllString(strings.TrimSpace(line), " ")
	return strings.Repeat(" ", leadingSpace) + content
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	for _, prefix := range []string{"- ", "* ", "• ", "· ", "▪ "} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// relaxWhitespace is the lenient cleanup used by fallback extractors. Non-breaking,
// ideographic and zero-width spaces become plain spaces before CleanText runs.
func relaxWhitespace(content string) string {
	content = normalizeLineEndings(content)
	content = relaxedSpaceRegex.ReplaceAllString(content, " ")
	return CleanText(content)
}

// decodeText decodes bytes as UTF-8, dropping a BOM and replacing invalid sequences
func decodeText(data []byte) string {
	s := strings.TrimPrefix(string(data), "\uFEFF")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	return normalizeLineEndings(s)
}

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
