package scoring

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "with": true, "by": true, "about": true,
	"as": true, "of": true, "is": true, "are": true, "was": true, "were": true,
	"this": true, "that": true, "these": true, "those": true, "have": true, "will": true,
	"from": true, "your": true, "they": true, "their": true, "what": true, "when": true,
}

// tokenize lowercases text and splits it into words
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// ExtractKeywords ranks words longer than three characters by frequency,
// ignoring stop words. Ties are broken alphabetically.
func ExtractKeywords(text string, limit int) []string {
	freq := make(map[string]int)
	for _, w := range tokenize(text) {
		w = strings.Trim(w, "'")
		if utf8.RuneCountInString(w) <= 3 || stopWords[w] {
			continue
		}
		freq[w]++
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})

	if limit > 0 && len(words) > limit {
		words = words[:limit]
	}
	return words
}

// Summarize keeps the first three sentences, capped at 100 words
func Summarize(text string) string {
	var sentences []string
	for _, s := range strings.Split(text, ".") {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
		if len(sentences) == 3 {
			break
		}
	}
	if len(sentences) == 0 {
		return ""
	}

	summary := strings.Join(sentences, ". ") + "."
	words := strings.Fields(summary)
	if len(words) > 100 {
		summary = strings.Join(words[:100], " ") + "..."
	}
	return summary
}
