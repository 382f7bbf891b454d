package tts

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// CleanOptions управляет этапами очистки текста
type CleanOptions struct {
	NormalizeUnicode    bool // NFC, чтобы составные символы не резались при делении
	RemoveHTMLTags      bool
	RemoveMarkdown      bool
	RemoveURLs          bool
	RemoveEmojis        bool
	NormalizeWhitespace bool
}

// DefaultCleanOptions включает все этапы
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		NormalizeUnicode:    true,
		RemoveHTMLTags:      true,
		RemoveMarkdown:      true,
		RemoveURLs:          true,
		RemoveEmojis:        true,
		NormalizeWhitespace: true,
	}
}

type replacement struct {
	re   *regexp.Regexp
	repl string
}

var (
	htmlTagRe = regexp.MustCompile(`<[^>]*>`)
	urlRe     = regexp.MustCompile(`https?://\S+`)

	// Блоки кода и картинки раньше инлайн-разметки и ссылок
	markdownRules = []replacement{
		{regexp.MustCompile("(?s)```.*?```"), ""},
		{regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`), ""},
		{regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`), "${1}"},
		{regexp.MustCompile(`(?m)^\s*#{1,6}\s+`), ""},
		{regexp.MustCompile(`\*\*(.+?)\*\*`), "${1}"},
		{regexp.MustCompile(`__(.+?)__`), "${1}"},
		{regexp.MustCompile(`\*(.+?)\*`), "${1}"},
		{regexp.MustCompile(`_(.+?)_`), "${1}"},
		{regexp.MustCompile(`~~(.+?)~~`), "${1}"},
		{regexp.MustCompile("`(.+?)`"), "${1}"},
	}

	emojiRe      = regexp.MustCompile(`[\x{1F300}-\x{1F9FF}\x{2600}-\x{27BF}\x{2300}-\x{23FF}\x{2000}-\x{206F}]`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	sentenceEndRe = regexp.MustCompile(`[。！？\n]|[.!?]\s+`)
)

// CleanText убирает разметку, ссылки и эмодзи, которые вендор озвучивает плохо
func CleanText(text string, opts CleanOptions) string {
	cleaned := text

	if opts.NormalizeUnicode {
		cleaned = norm.NFC.String(cleaned)
	}

	if opts.RemoveHTMLTags {
		cleaned = htmlTagRe.ReplaceAllString(cleaned, "")
	}

	if opts.RemoveMarkdown {
		for _, rule := range markdownRules {
			cleaned = rule.re.ReplaceAllString(cleaned, rule.repl)
		}
	}

	if opts.RemoveURLs {
		cleaned = urlRe.ReplaceAllString(cleaned, "")
	}

	if opts.RemoveEmojis {
		cleaned = emojiRe.ReplaceAllString(cleaned, "")
	}

	if opts.NormalizeWhitespace {
		cleaned = strings.TrimSpace(whitespaceRe.ReplaceAllString(cleaned, " "))
	}

	return cleaned
}

// SmartChunk делит текст на куски не длиннее maxRunes по границам предложений.
// Слишком длинные предложения делятся по словам, слишком длинные слова режутся.
func SmartChunk(text string, maxRunes int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxRunes <= 0 {
		return []string{strings.TrimSpace(text)}
	}

	var chunks []string
	current := ""

	flush := func() {
		if s := strings.TrimSpace(current); s != "" {
			chunks = append(chunks, s)
		}
		current = ""
	}

	for _, sentence := range splitSentences(text) {
		if utf8.RuneCountInString(strings.TrimSpace(current+sentence)) <= maxRunes {
			current += sentence
			continue
		}

		flush()

		if utf8.RuneCountInString(strings.TrimSpace(sentence)) <= maxRunes {
			current = sentence
			continue
		}

		words := splitWords(sentence, maxRunes)
		chunks = append(chunks, words[:len(words)-1]...)
		current = words[len(words)-1]
	}
	flush()

	return chunks
}

// splitSentences режет текст после каждого разделителя, сохраняя его
func splitSentences(text string) []string {
	var out []string
	prev := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		out = append(out, text[prev:loc[1]])
		prev = loc[1]
	}
	if prev < len(text) {
		out = append(out, text[prev:])
	}
	return out
}

// splitWords упаковывает слова в куски не длиннее maxRunes
func splitWords(sentence string, maxRunes int) []string {
	var out []string
	current := ""

	for _, word := range strings.Fields(sentence) {
		for _, piece := range splitRunes(word, maxRunes) {
			candidate := piece
			if current != "" {
				candidate = current + " " + piece
			}
			if utf8.RuneCountInString(candidate) <= maxRunes {
				current = candidate
				continue
			}
			out = append(out, current)
			current = piece
		}
	}
	return append(out, current)
}

func splitRunes(word string, maxRunes int) []string {
	runes := []rune(word)
	if len(runes) <= maxRunes {
		return []string{word}
	}
	var out []string
	for len(runes) > maxRunes {
		out = append(out, string(runes[:maxRunes]))
		runes = runes[maxRunes:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
