package objects

import (
	"time"
)

const (
	KindArticle = "article"
	KindMedia   = "media"
)

// Article 对应数据库表 articles
// 文章与媒体共用一张表：文章以 url 唯一，媒体优先以 (provider, provider_id) 唯一
type Article struct {
	// ID 主键
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id" bson:"_id"`

	Kind string `gorm:"type:varchar(16);not null;default:article;index" json:"kind" bson:"kind"`

	// 规范化后的地址，唯一
	URL         string `gorm:"type:varchar(768);not null;uniqueIndex:idx_url" json:"url" bson:"url"`
	OriginalURL string `gorm:"type:varchar(768);index" json:"original_url,omitempty" bson:"original_url,omitempty"`

	Title       string     `gorm:"type:varchar(512)" json:"title" bson:"title"`
	Author      string     `gorm:"type:varchar(255)" json:"author" bson:"author"`
	PublishedAt *time.Time `gorm:"index" json:"published_at" bson:"published_at"`
	Excerpt     string     `gorm:"type:text" json:"excerpt" bson:"excerpt"`
	ContentHTML string     `gorm:"column:content_html;type:text" json:"content_html" bson:"content_html"`
	SummaryHTML string     `gorm:"column:summary_html;type:text" json:"summary_html" bson:"summary_html"`

	// 内容哈希 sha256(content_html + title + author)，用于判断是否需要重新总结
	ContentHash string `gorm:"type:varchar(64);index:idx_hash" json:"content_hash" bson:"content_hash"`
	SourceUsed  string `gorm:"type:varchar(32)" json:"source_used" bson:"source_used"`

	// 媒体字段，文章为空
	// (provider, provider_id) 共 768 字符，utf8mb4 下刚好落在 mysql 3072 字节的索引上限内
	Provider     *string        `gorm:"type:varchar(32);uniqueIndex:idx_provider_identity" json:"provider,omitempty" bson:"provider,omitempty"`
	ProviderID   *string        `gorm:"column:provider_id;type:varchar(736);uniqueIndex:idx_provider_identity" json:"provider_id,omitempty" bson:"provider_id,omitempty"`
	ContentType  *string        `gorm:"type:varchar(16)" json:"content_type,omitempty" bson:"content_type,omitempty"`
	EmbedHTML    *string        `gorm:"column:embed_html;type:text" json:"embed_html,omitempty" bson:"embed_html,omitempty"`
	ThumbnailURL *string        `gorm:"column:thumbnail_url;type:varchar(1024)" json:"thumbnail_url,omitempty" bson:"thumbnail_url,omitempty"`
	MediaWidth   *int           `json:"media_width,omitempty" bson:"media_width,omitempty"`
	MediaHeight  *int           `json:"media_height,omitempty" bson:"media_height,omitempty"`
	Extra        map[string]any `gorm:"serializer:json;type:text" json:"extra,omitempty" bson:"extra,omitempty"`

	Likes int64 `gorm:"not null;default:0" json:"likes" bson:"likes"`

	// 使用 GORM 的序列化功能，自动转为 JSON 字符串存入数据库
	Keywords  []string  `gorm:"serializer:json;type:text" json:"keywords" bson:"keywords"`
	Embedding []float32 `gorm:"serializer:json;type:text" json:"-" bson:"embedding,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index" json:"updated_at" bson:"updated_at"`

	// Liked 仅用于接口输出，表示当前客户端是否点过赞
	Liked bool `gorm:"-" json:"liked" bson:"-"`
}

// TableName 指定表名
func (Article) TableName() string {
	return "articles"
}

func (a *Article) IsMedia() bool {
	return a.Kind == KindMedia
}
