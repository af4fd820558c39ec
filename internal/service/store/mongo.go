package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ifuryst/scribe/internal/models"
)

const (
	articlesCollection = "articles"
	commentsCollection = "comments"
	configCollection   = "generation_configs"
	usersCollection    = "users"
	countersCollection = "counters"
)

// MongoStore persists articles in MongoDB. Numeric ids are allocated from a
// counters collection so records keep the same shape as the SQL store.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to uri and ensures the indexes the pipeline relies on.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		articlesCollection: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "published_at", Value: -1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "article_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, idx := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (s *MongoStore) nextID(ctx context.Context, name string) (uint, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", name, err)
	}
	return uint(counter.Seq), nil
}

func (s *MongoStore) CreateArticle(ctx context.Context, article *models.Article) error {
	id, err := s.nextID(ctx, articlesCollection)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	article.ID = id
	article.CreatedAt = now
	article.UpdatedAt = now

	if _, err := s.db.Collection(articlesCollection).InsertOne(ctx, article); err != nil {
		article.ID = 0
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrSlugCollision, article.Slug)
		}
		return fmt.Errorf("failed to create article: %w", err)
	}
	return nil
}

func (s *MongoStore) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	n, err := s.db.Collection(articlesCollection).CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return n > 0, nil
}

func (s *MongoStore) ReadConfig(ctx context.Context) (*models.GenerationConfig, error) {
	var cfg models.GenerationConfig
	err := s.db.Collection(configCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": models.GenerationConfigID},
		bson.M{"$setOnInsert": bson.M{
			"auto_generate_enabled": false,
			"total_generated":       0,
			"updated_at":            time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read generation config: %w", err)
	}
	return &cfg, nil
}

func (s *MongoStore) UpdateConfig(ctx context.Context, update ConfigUpdate) error {
	_, err := s.db.Collection(configCollection).UpdateOne(ctx,
		bson.M{"_id": models.GenerationConfigID},
		bson.M{
			"$inc":         bson.M{"total_generated": update.Increment},
			"$set":         bson.M{"last_run_at": update.LastRunAt, "updated_at": time.Now().UTC()},
			"$setOnInsert": bson.M{"auto_generate_enabled": false},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to update generation config: %w", err)
	}
	return nil
}

func (s *MongoStore) SetAutoGenerate(ctx context.Context, enabled bool) error {
	_, err := s.db.Collection(configCollection).UpdateOne(ctx,
		bson.M{"_id": models.GenerationConfigID},
		bson.M{
			"$set":         bson.M{"auto_generate_enabled": enabled, "updated_at": time.Now().UTC()},
			"$setOnInsert": bson.M{"total_generated": 0},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to update auto generation flag: %w", err)
	}
	return nil
}

func (s *MongoStore) InsertComment(ctx context.Context, comment *models.Comment) error {
	id, err := s.nextID(ctx, commentsCollection)
	if err != nil {
		return err
	}
	comment.ID = id
	if _, err := s.db.Collection(commentsCollection).InsertOne(ctx, comment); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (s *MongoStore) GetArticleBySlug(ctx context.Context, slug string) (*models.Article, error) {
	var article models.Article
	err := s.db.Collection(articlesCollection).FindOne(ctx, bson.M{"slug": slug, "published": true}).Decode(&article)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return &article, nil
}

func (s *MongoStore) ListComments(ctx context.Context, articleID uint) ([]models.Comment, error) {
	cursor, err := s.db.Collection(commentsCollection).Find(ctx,
		bson.M{"article_id": articleID, "approved": true},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	return comments, nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) UpsertUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	existing, err := s.GetUserByEmail(ctx, user.Email)
	switch {
	case err == nil:
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
	case errors.Is(err, ErrNotFound):
		id, err := s.nextID(ctx, usersCollection)
		if err != nil {
			return err
		}
		user.ID = id
		user.CreatedAt = time.Now().UTC()
	default:
		return err
	}

	_, err = s.db.Collection(usersCollection).ReplaceOne(ctx,
		bson.M{"_id": user.ID}, user, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
