package objects

import "time"

// ArticleLike 每个客户端对一篇文章最多一条点赞记录
type ArticleLike struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	ArticleID uint64    `gorm:"not null;uniqueIndex:idx_article_client"`
	ClientID  string    `gorm:"type:varchar(200);not null;uniqueIndex:idx_article_client"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ArticleLike) TableName() string {
	return "article_likes"
}
