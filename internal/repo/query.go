package repo

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iceymoss/mdrdr/pkg/db/objects"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultRelated  = 5

	// relatedCandidates 相似度在内存中计算，候选集只取最近的一批
	relatedCandidates = 500
)

// sortColumns 允许排序的列
var sortColumns = map[string]struct{}{
	"id":           {},
	"created_at":   {},
	"updated_at":   {},
	"published_at": {},
	"title":        {},
	"likes":        {},
}

// ListQuery 文章列表查询条件
type ListQuery struct {
	Page     int
	Limit    int
	Q        string
	Sort     string
	ClientID string
}

type ListResult struct {
	Items []*objects.Article `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// LikeState 点赞/取消点赞后的状态
type LikeState struct {
	ID    uint64 `json:"id"`
	Liked bool   `json:"liked"`
	Likes int64  `json:"likes"`
}

// Normalize page >= 1，1 <= limit <= 100，排序列不在白名单时退回 -created_at
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	q.Q = strings.TrimSpace(q.Q)
	col, _ := q.SortColumn()
	if _, ok := sortColumns[col]; !ok {
		q.Sort = "-created_at"
	}
	return q
}

// SortColumn 解析 "-created_at" / "+title" / "likes"
func (q ListQuery) SortColumn() (column string, desc bool) {
	s := strings.TrimSpace(q.Sort)
	if s == "" {
		return "created_at", true
	}
	desc = strings.HasPrefix(s, "-")
	return strings.TrimLeft(s, "+-"), desc
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ParseInt 解析查询参数，失败时返回默认值
func ParseInt(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}

// cosine 余弦相似度，维度不一致或零向量返回 0
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type scored struct {
	article *objects.Article
	score   float64
	created time.Time
}

func topK(list []scored, k int) []*objects.Article {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].score != list[j].score {
			return list[i].score > list[j].score
		}
		return list[i].created.After(list[j].created)
	})
	if len(list) > k {
		list = list[:k]
	}
	out := make([]*objects.Article, 0, len(list))
	for _, s := range list {
		out = append(out, s.article)
	}
	return out
}

// RankRelated 有向量时按余弦相似度排序，否则按关键词重合数排序，重合为 0 的不返回
func RankRelated(target *objects.Article, candidates []*objects.Article, k int) []*objects.Article {
	if k <= 0 {
		k = DefaultRelated
	}

	var list []scored
	if len(target.Embedding) > 0 {
		for _, c := range candidates {
			if c.ID == target.ID || len(c.Embedding) == 0 {
				continue
			}
			list = append(list, scored{article: c, score: cosine(target.Embedding, c.Embedding), created: c.CreatedAt})
		}
		if len(list) > 0 {
			return topK(list, k)
		}
	}

	if len(target.Keywords) == 0 {
		return []*objects.Article{}
	}
	want := make(map[string]struct{}, len(target.Keywords))
	for _, kw := range target.Keywords {
		want[kw] = struct{}{}
	}
	for _, c := range candidates {
		if c.ID == target.ID {
			continue
		}
		overlap := 0
		for _, kw := range c.Keywords {
			if _, ok := want[kw]; ok {
				overlap++
			}
		}
		if overlap > 0 {
			list = append(list, scored{article: c, score: float64(overlap), created: c.CreatedAt})
		}
	}
	return topK(list, k)
}
