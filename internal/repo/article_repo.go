package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iceymoss/mdrdr/pkg/db/objects"
	pkgerr "github.com/iceymoss/mdrdr/pkg/errors"
	"github.com/iceymoss/mdrdr/pkg/transaction"
	"github.com/iceymoss/mdrdr/pkg/xerr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArticleRepo 基于 gorm 的文章存储，postgres 与 mysql 通用
type ArticleRepo struct {
	db *gorm.DB
	tx *transaction.Manager
}

func NewArticleRepo(db *gorm.DB) *ArticleRepo {
	return &ArticleRepo{db: db, tx: transaction.NewManager(db)}
}

// Transactor 供入库流程在同一事务内查找与合并
func (r *ArticleRepo) Transactor() *transaction.Manager {
	return r.tx
}

func (r *ArticleRepo) conn(ctx context.Context) *gorm.DB {
	return transaction.GetTransactionOrDB(ctx, r.db)
}

func (r *ArticleRepo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&objects.Article{}, &objects.ArticleLike{})
}

// first 查询单条，不存在时返回 nil, nil
func first(tx *gorm.DB) (*objects.Article, error) {
	var a objects.Article
	err := tx.Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ArticleRepo) FindByURL(ctx context.Context, url string) (*objects.Article, error) {
	return first(r.conn(ctx).Where("url = ?", url))
}

func (r *ArticleRepo) FindByProviderIdentity(ctx context.Context, provider, providerID string) (*objects.Article, error) {
	return first(r.conn(ctx).Where("provider = ? AND provider_id = ?", provider, providerID))
}

func (r *ArticleRepo) FindByAnyURL(ctx context.Context, urls ...string) (*objects.Article, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	return first(r.conn(ctx).Where("url IN ? OR original_url IN ?", urls, urls).Order("id"))
}

func (r *ArticleRepo) Insert(ctx context.Context, a *objects.Article) error {
	return r.conn(ctx).Create(a).Error
}

// Update 整行保存，updated_at 由 gorm 自动刷新
func (r *ArticleRepo) Update(ctx context.Context, a *objects.Article) error {
	return r.conn(ctx).Save(a).Error
}

// listScope 列表与计数共用的过滤条件
func listScope(q ListQuery) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if q.Q == "" {
			return tx
		}
		pattern := "%" + strings.ToLower(q.Q) + "%"
		return tx.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ?", pattern, pattern)
	}
}

func listOrder(q ListQuery) []clause.OrderByColumn {
	col, desc := q.SortColumn()
	return []clause.OrderByColumn{
		{Column: clause.Column{Name: col}, Desc: desc},
		{Column: clause.Column{Name: "id"}, Desc: true},
	}
}

func (r *ArticleRepo) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	q = q.Normalize()
	res := &ListResult{Items: []*objects.Article{}, Page: q.Page, Limit: q.Limit}

	if err := r.conn(ctx).Model(&objects.Article{}).Scopes(listScope(q)).Count(&res.Total).Error; err != nil {
		return nil, err
	}

	tx := r.conn(ctx).Scopes(listScope(q)).Limit(q.Limit).Offset(q.Offset())
	for _, o := range listOrder(q) {
		tx = tx.Order(o)
	}
	if err := tx.Find(&res.Items).Error; err != nil {
		return nil, err
	}
	if err := r.MarkLiked(ctx, q.ClientID, res.Items...); err != nil {
		return nil, err
	}
	return res, nil
}

// MarkLiked 回填当前客户端的点赞标记，缓存命中时也会调用
func (r *ArticleRepo) MarkLiked(ctx context.Context, clientID string, items ...*objects.Article) error {
	if clientID == "" || len(items) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(items))
	for _, a := range items {
		ids = append(ids, a.ID)
	}
	var liked []uint64
	err := r.conn(ctx).Model(&objects.ArticleLike{}).
		Where("client_id = ? AND article_id IN ?", clientID, ids).
		Pluck("article_id", &liked).Error
	if err != nil {
		return err
	}
	set := make(map[uint64]struct{}, len(liked))
	for _, id := range liked {
		set[id] = struct{}{}
	}
	for _, a := range items {
		_, a.Liked = set[a.ID]
	}
	return nil
}

func (r *ArticleRepo) Get(ctx context.Context, id uint64, clientID string) (*objects.Article, error) {
	a, err := first(r.conn(ctx).Where("id = ?", id))
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, pkgerr.New(xerr.ErrNotFound, "article not found")
	}
	if err := r.MarkLiked(ctx, clientID, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *ArticleRepo) Delete(ctx context.Context, id uint64) error {
	return r.tx.Execute(ctx, nil, func(ctx context.Context) error {
		res := r.conn(ctx).Delete(&objects.Article{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerr.New(xerr.ErrNotFound, "article not found")
		}
		return r.conn(ctx).Where("article_id = ?", id).Delete(&objects.ArticleLike{}).Error
	})
}

// Like 同一客户端重复点赞不计数，likes 总是等于点赞记录数
func (r *ArticleRepo) Like(ctx context.Context, id uint64, clientID string) (*LikeState, error) {
	return r.setLike(ctx, id, clientID, true)
}

func (r *ArticleRepo) Unlike(ctx context.Context, id uint64, clientID string) (*LikeState, error) {
	return r.setLike(ctx, id, clientID, false)
}

func (r *ArticleRepo) setLike(ctx context.Context, id uint64, clientID string, like bool) (*LikeState, error) {
	state := &LikeState{ID: id, Liked: like}
	err := r.tx.Execute(ctx, nil, func(ctx context.Context) error {
		var exists int64
		if err := r.conn(ctx).Model(&objects.Article{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return pkgerr.New(xerr.ErrNotFound, "article not found")
		}

		if like {
			row := &objects.ArticleLike{ArticleID: id, ClientID: clientID}
			if err := r.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
				return err
			}
		} else {
			if err := r.conn(ctx).Where("article_id = ? AND client_id = ?", id, clientID).
				Delete(&objects.ArticleLike{}).Error; err != nil {
				return err
			}
		}

		if err := r.conn(ctx).Model(&objects.ArticleLike{}).Where("article_id = ?", id).Count(&state.Likes).Error; err != nil {
			return err
		}
		return r.conn(ctx).Model(&objects.Article{}).Where("id = ?", id).
			UpdateColumn("likes", state.Likes).Error
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// ListStale 返回 updated_at 早于 before 的文章，媒体记录不参与
func (r *ArticleRepo) ListStale(ctx context.Context, before time.Time, limit int) ([]*objects.Article, error) {
	var list []*objects.Article
	err := r.conn(ctx).
		Where("kind = ? AND updated_at < ?", objects.KindArticle, before).
		Order("updated_at").Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *ArticleRepo) Related(ctx context.Context, id uint64, k int) ([]*objects.Article, error) {
	target, err := first(r.conn(ctx).Where("id = ?", id))
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, pkgerr.New(xerr.ErrNotFound, "article not found")
	}

	var candidates []*objects.Article
	err = r.conn(ctx).
		Select("id", "kind", "url", "title", "author", "excerpt", "thumbnail_url", "keywords", "embedding", "created_at").
		Where("id <> ?", id).Order("created_at DESC").Limit(relatedCandidates).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	return RankRelated(target, candidates, k), nil
}
