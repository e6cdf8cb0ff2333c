package repo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/iceymoss/mdrdr/pkg/db/objects"
	pkgerr "github.com/iceymoss/mdrdr/pkg/errors"
	"github.com/iceymoss/mdrdr/pkg/xerr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	articleCollection = "articles"
	likeCollection    = "article_likes"
	counterCollection = "counters"
)

// MongoArticleRepo 文章存储的 mongo 实现，自增 ID 由 counters 集合维护
type MongoArticleRepo struct {
	articles *mongo.Collection
	likes    *mongo.Collection
	counters *mongo.Collection
}

func NewMongoArticleRepo(db *mongo.Database) *MongoArticleRepo {
	return &MongoArticleRepo{
		articles: db.Collection(articleCollection),
		likes:    db.Collection(likeCollection),
		counters: db.Collection(counterCollection),
	}
}

func (r *MongoArticleRepo) Migrate(ctx context.Context) error {
	_, err := r.articles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "url", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "original_url", Value: 1}}},
		{
			Keys: bson.D{{Key: "provider", Value: 1}, {Key: "provider_id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"provider_id": bson.M{"$exists": true}}),
		},
		{Keys: bson.D{{Key: "updated_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create article indexes: %w", err)
	}
	_, err = r.likes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "article_id", Value: 1}, {Key: "client_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create like index: %w", err)
	}
	return nil
}

func (r *MongoArticleRepo) findOne(ctx context.Context, filter bson.M) (*objects.Article, error) {
	var a objects.Article
	err := r.articles.FindOne(ctx, filter).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *MongoArticleRepo) FindByURL(ctx context.Context, url string) (*objects.Article, error) {
	return r.findOne(ctx, bson.M{"url": url})
}

func (r *MongoArticleRepo) FindByProviderIdentity(ctx context.Context, provider, providerID string) (*objects.Article, error) {
	return r.findOne(ctx, bson.M{"provider": provider, "provider_id": providerID})
}

func (r *MongoArticleRepo) FindByAnyURL(ctx context.Context, urls ...string) (*objects.Article, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	return r.findOne(ctx, anyURLFilter(urls))
}

func anyURLFilter(urls []string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"url": bson.M{"$in": urls}},
		bson.M{"original_url": bson.M{"$in": urls}},
	}}
}

func (r *MongoArticleRepo) nextID(ctx context.Context) (uint64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": articleCollection},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next article id: %w", err)
	}
	return uint64(counter.Seq), nil
}

func (r *MongoArticleRepo) Insert(ctx context.Context, a *objects.Article) error {
	id, err := r.nextID(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	a.ID = id
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	_, err = r.articles.InsertOne(ctx, a)
	return err
}

func (r *MongoArticleRepo) Update(ctx context.Context, a *objects.Article) error {
	a.UpdatedAt = time.Now()
	_, err := r.articles.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	return err
}

// listFilter 标题或作者包含关键字，不区分大小写
func listFilter(q ListQuery) bson.M {
	if q.Q == "" {
		return bson.M{}
	}
	pattern := bson.M{"$regex": regexp.QuoteMeta(q.Q), "$options": "i"}
	return bson.M{"$or": bson.A{bson.M{"title": pattern}, bson.M{"author": pattern}}}
}

func listSort(q ListQuery) bson.D {
	col, desc := q.SortColumn()
	if col == "id" {
		col = "_id"
	}
	dir := 1
	if desc {
		dir = -1
	}
	if col == "_id" {
		return bson.D{{Key: col, Value: dir}}
	}
	return bson.D{{Key: col, Value: dir}, {Key: "_id", Value: -1}}
}

func (r *MongoArticleRepo) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	q = q.Normalize()
	filter := listFilter(q)

	total, err := r.articles.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(listSort(q)).SetSkip(int64(q.Offset())).SetLimit(int64(q.Limit))
	items, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	if err := r.MarkLiked(ctx, q.ClientID, items...); err != nil {
		return nil, err
	}
	return &ListResult{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

func (r *MongoArticleRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*objects.Article, error) {
	cursor, err := r.articles.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []*objects.Article{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoArticleRepo) MarkLiked(ctx context.Context, clientID string, items ...*objects.Article) error {
	if clientID == "" || len(items) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(items))
	for _, a := range items {
		ids = append(ids, a.ID)
	}
	liked, err := r.likes.Distinct(ctx, "article_id", bson.M{"client_id": clientID, "article_id": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	set := make(map[uint64]struct{}, len(liked))
	for _, v := range liked {
		if id, ok := toUint64(v); ok {
			set[id] = struct{}{}
		}
	}
	for _, a := range items {
		_, a.Liked = set[a.ID]
	}
	return nil
}

// toUint64 Distinct 返回的数字类型取决于存储时的编码
func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case int64:
		return uint64(n), true
	case int32:
		return uint64(n), true
	case float64:
		return uint64(n), true
	}
	return 0, false
}

func (r *MongoArticleRepo) Get(ctx context.Context, id uint64, clientID string) (*objects.Article, error) {
	a, err := r.findOne(ctx, bson.M{"_id": id})
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

func (r *MongoArticleRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.articles.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return pkgerr.New(xerr.ErrNotFound, "article not found")
	}
	_, err = r.likes.DeleteMany(ctx, bson.M{"article_id": id})
	return err
}

func (r *MongoArticleRepo) Like(ctx context.Context, id uint64, clientID string) (*LikeState, error) {
	return r.setLike(ctx, id, clientID, true)
}

func (r *MongoArticleRepo) Unlike(ctx context.Context, id uint64, clientID string) (*LikeState, error) {
	return r.setLike(ctx, id, clientID, false)
}

func (r *MongoArticleRepo) setLike(ctx context.Context, id uint64, clientID string, like bool) (*LikeState, error) {
	n, err := r.articles.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, pkgerr.New(xerr.ErrNotFound, "article not found")
	}

	filter := bson.M{"article_id": id, "client_id": clientID}
	if like {
		_, err = r.likes.UpdateOne(ctx, filter,
			bson.M{"$setOnInsert": bson.M{"created_at": time.Now()}},
			options.Update().SetUpsert(true))
	} else {
		_, err = r.likes.DeleteOne(ctx, filter)
	}
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, err
	}

	likes, err := r.likes.CountDocuments(ctx, bson.M{"article_id": id})
	if err != nil {
		return nil, err
	}
	if _, err := r.articles.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"likes": likes}}); err != nil {
		return nil, err
	}
	return &LikeState{ID: id, Liked: like, Likes: likes}, nil
}

func (r *MongoArticleRepo) ListStale(ctx context.Context, before time.Time, limit int) ([]*objects.Article, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}}).SetLimit(int64(limit))
	return r.find(ctx, bson.M{"kind": objects.KindArticle, "updated_at": bson.M{"$lt": before}}, opts)
}

func (r *MongoArticleRepo) Related(ctx context.Context, id uint64, k int) ([]*objects.Article, error) {
	target, err := r.findOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, pkgerr.New(xerr.ErrNotFound, "article not found")
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(relatedCandidates).
		SetProjection(bson.M{"content_html": 0, "summary_html": 0})
	candidates, err := r.find(ctx, bson.M{"_id": bson.M{"$ne": id}}, opts)
	if err != nil {
		return nil, err
	}
	return RankRelated(target, candidates, k), nil
}
