package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var plainDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate YYYY-MM-DD 视为 UTC 零点，其余格式交给 dateparse，无法解析返回 nil
func ParseDate(s string) (t *time.Time) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if plainDate.MatchString(s) {
		d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
		if err != nil {
			return nil
		}
		return &d
	}

	// dateparse 对个别畸形输入会 panic
	defer func() {
		if recover() != nil {
			t = nil
		}
	}()
	d, err := dateparse.ParseIn(s, time.UTC)
	if err != nil || d.IsZero() {
		return nil
	}
	d = d.UTC()
	return &d
}
