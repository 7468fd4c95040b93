package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glamlens/stylist/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	sessionsCollection = "style_sessions"
	usersCollection    = "users"
)

// MongoStore keeps sessions and users as documents, mirroring the model
// field names in bson.
type MongoStore struct {
	client   *mongo.Client
	sessions *mongo.Collection
	users    *mongo.Collection
}

// NewMongoStore wraps a connected client and ensures the indexes exist.
func NewMongoStore(ctx context.Context, client *mongo.Client, database string) (*MongoStore, error) {
	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		sessions: db.Collection(sessionsCollection),
		users:    db.Collection(usersCollection),
	}

	_, err := s.sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "userInteraction.saved", Value: 1}, {Key: "userInteraction.viewed", Value: -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) CreateSession(ctx context.Context, session *models.StyleSession) error {
	if _, err := s.sessions.InsertOne(ctx, session); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *MongoStore) GetSession(ctx context.Context, sessionID, userID string) (*models.StyleSession, error) {
	filter := bson.M{"sessionId": sessionID}
	if userID != "" {
		filter["userId"] = userID
	}

	var session models.StyleSession
	if err := s.sessions.FindOne(ctx, filter).Decode(&session); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &session, nil
}

func (s *MongoStore) SaveSession(ctx context.Context, session *models.StyleSession) error {
	res, err := s.sessions.ReplaceOne(ctx, bson.M{"sessionId": session.SessionID}, session)
	if err != nil {
		return fmt.Errorf("failed to replace session: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListSessions(ctx context.Context, filter SessionFilter, skip, limit int) ([]models.StyleSession, int64, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["userId"] = filter.UserID
	}
	sort := bson.D{{Key: "createdAt", Value: -1}}
	if filter.SavedOnly {
		query["userInteraction.saved"] = true
		sort = bson.D{{Key: "userInteraction.viewed", Value: -1}}
	}
	if filter.Category != "" {
		query["recommendations."+string(filter.Category)] = bson.M{"$exists": true}
	}

	total, err := s.sessions.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	findOptions := options.Find().SetSort(sort).SetSkip(int64(skip))
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	cursor, err := s.sessions.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := []models.StyleSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, 0, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return sessions, total, nil
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

func (s *MongoStore) SaveUser(ctx context.Context, u *models.User) error {
	_, err := s.users.ReplaceOne(ctx, bson.M{"_id": u.ID}, u, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *MongoStore) IncrementUsage(ctx context.Context, id string, at time.Time) error {
	update := bson.M{
		"$inc": bson.M{"usage.analysesThisMonth": 1},
		"$set": bson.M{"updatedAt": at},
		"$setOnInsert": bson.M{
			"subscription":        models.Subscription{Plan: models.TierFree, Status: "active"},
			"profile":             models.Profile{},
			"usage.lastResetDate": at,
			"createdAt":           at,
		},
	}
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

func (s *MongoStore) ResetMonthlyUsage(ctx context.Context, at time.Time) (int64, error) {
	res, err := s.users.UpdateMany(ctx, bson.M{}, bson.M{"$set": bson.M{
		"usage.analysesThisMonth": 0,
		"usage.lastResetDate":     at,
		"updatedAt":               at,
	}})
	if err != nil {
		return 0, fmt.Errorf("failed to reset usage: %w", err)
	}
	return res.MatchedCount, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
