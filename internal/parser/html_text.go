package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// описания провайдеры отдают с HTML разметкой, в записи храним обычный текст
const maxDescriptionLen = 4000

// htmlToText вытаскивает текст из HTML фрагмента. Блоки разделяются переводом строки
func htmlToText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return truncateRunes(fragment, maxDescriptionLen)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return truncateRunes(fragment, maxDescriptionLen)
	}

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, li, div, h1, h2, h3, h4, ul, ol").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return truncateRunes(strings.Join(lines, "\n"), maxDescriptionLen)
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
