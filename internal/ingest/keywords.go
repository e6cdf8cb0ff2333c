package ingest

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	keywordTopN     = 8
	keywordMinLen   = 3
	maxKeywordsKept = 50
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "a": {}, "to": {}, "of": {}, "in": {}, "is": {}, "for": {}, "on": {}, "that": {},
	"và": {}, "của": {}, "là": {}, "một": {}, "những": {}, "các": {},
}

// Blocklist 屏蔽词，Validate 返回 false 表示命中
type Blocklist interface {
	Validate(content string) (bool, string)
}

// FrequencyKeywords 按词频取前 8 个关键词，同频按首次出现顺序
type FrequencyKeywords struct {
	Blocked Blocklist
}

func (k FrequencyKeywords) Extract(text string) []string {
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return r
		}
		return ' '
	}, strings.ToLower(text))

	type entry struct {
		word  string
		count int
	}
	index := map[string]*entry{}
	var entries []*entry
	for _, w := range strings.Fields(normalized) {
		w = strings.Trim(w, "-")
		if _, stop := stopWords[w]; stop || utf8.RuneCountInString(w) < keywordMinLen {
			continue
		}
		if e, ok := index[w]; ok {
			e.count++
			continue
		}
		if k.Blocked != nil {
			if pass, _ := k.Blocked.Validate(w); !pass {
				continue
			}
		}
		e := &entry{word: w, count: 1}
		index[w] = e
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].count > entries[j].count
	})
	if len(entries) > keywordTopN {
		entries = entries[:keywordTopN]
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.word)
	}
	return out
}

// capKeywords 丢弃空值并限制数量
func capKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
		if len(out) == maxKeywordsKept {
			break
		}
	}
	return out
}
