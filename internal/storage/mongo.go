package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Ananth-NQI/market-analyst-backend/internal/models"
)

// ChatCollection holds one document per (user_id, id_session) with an
// embedded, append-only messages array.
const ChatCollection = "chat_memory"

type chatDocument struct {
	UserID    string               `bson:"user_id"`
	SessionID string               `bson:"id_session"`
	Messages  []models.ChatMessage `bson:"messages"`
	CreatedAt time.Time            `bson:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

// MongoStore keeps chat memory in MongoDB
type MongoStore struct {
	db   *mongo.Database
	coll *mongo.Collection
}

// NewMongoStore creates a chat store over the given database
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:   db,
		coll: db.Collection(ChatCollection),
	}
}

// EnsureIndexes creates the unique session key index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "id_session", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("chat_session_key"),
	})
	if err != nil {
		return fmt.Errorf("create chat index: %w", err)
	}
	return nil
}

func sessionFilter(key models.SessionKey) bson.D {
	return bson.D{{Key: "user_id", Value: key.UserID}, {Key: "id_session", Value: key.SessionID}}
}

// appendUpdate pushes msgs in order and maintains the session timestamps.
func appendUpdate(msgs []models.ChatMessage, now time.Time) bson.D {
	each := make(bson.A, 0, len(msgs))
	for _, m := range normalize(msgs) {
		each = append(each, m)
	}
	return bson.D{
		{Key: "$push", Value: bson.D{{Key: "messages", Value: bson.D{{Key: "$each", Value: each}}}}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "created_at", Value: now}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
	}
}

func (s *MongoStore) Append(ctx context.Context, key models.SessionKey, msgs ...models.ChatMessage) error {
	if err := validKey(key); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	_, err := s.coll.UpdateOne(ctx, sessionFilter(key), appendUpdate(msgs, time.Now().UTC()),
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("append chat messages: %w", err)
	}
	return nil
}

func (s *MongoStore) GetHistory(ctx context.Context, key models.SessionKey) ([]models.ChatMessage, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	var doc chatDocument
	err := s.coll.FindOne(ctx, sessionFilter(key),
		options.FindOne().SetProjection(bson.D{{Key: "messages", Value: 1}, {Key: "_id", Value: 0}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []models.ChatMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}

	return normalize(doc.Messages), nil
}

// sessionsPipeline lists a user's sessions with their message counts.
func sessionsPipeline(userID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "user_id", Value: userID}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "user_id", Value: 1},
			{Key: "id_session", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "updated_at", Value: 1},
			{Key: "message_count", Value: bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$messages", bson.A{}}}}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "updated_at", Value: -1}, {Key: "id_session", Value: 1}}}},
	}
}

func (s *MongoStore) ListSessions(ctx context.Context, userID string) ([]models.SessionSummary, error) {
	cur, err := s.coll.Aggregate(ctx, sessionsPipeline(userID))
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.SessionSummary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode chat sessions: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}
