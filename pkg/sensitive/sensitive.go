package sensitive

import (
	"strings"

	"github.com/importcjj/sensitive"
)

// Word 屏蔽词过滤器，词表来自配置或词库文件
type Word struct {
	Filter *sensitive.Filter
}

// NewWord dictFile 为空时只使用 words
func NewWord(words []string, dictFile string) (*Word, error) {
	filter := sensitive.New()
	if dictFile != "" {
		if err := filter.LoadWordDict(dictFile); err != nil {
			return nil, err
		}
	}
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			filter.AddWord(w)
		}
	}
	return &Word{Filter: filter}, nil
}

// Validate 不含屏蔽词时返回 true，否则返回命中的第一个词
func (w *Word) Validate(content string) (bool, string) {
	return w.Filter.Validate(strings.ToLower(content))
}
