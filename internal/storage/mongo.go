package storage

import (
	"context"
	"fmt"
	"slices"
	"time"

	"chatrelay/backend/internal/models"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// mongoMessage is the document layout of one persisted message.
type mongoMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	User      string             `bson:"user"`
	Text      string             `bson:"text"`
	Timestamp time.Time          `bson:"timestamp"`
}

// MongoStore keeps the log in a single MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore wraps an existing collection.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// ConnectMongo dials uri and checks the primary is reachable.
func ConnectMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

func (s *MongoStore) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	doc := mongoMessage{
		User:      msg.User,
		Text:      msg.Text,
		Timestamp: stampIfZero(msg),
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (s *MongoStore) RecentMessages(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	var docs []mongoMessage
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	messages := lo.Map(docs, func(doc mongoMessage, _ int) models.ChatMessage {
		return models.ChatMessage{User: doc.User, Text: doc.Text, Timestamp: doc.Timestamp.UTC()}
	})
	slices.Reverse(messages)
	return messages, nil
}

// Close disconnects the client when the store owns one.
func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
