package sessionstore

import (
	"context"
	"errors"
	"time"

	"mediloon/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrConflict means another writer saved the session since it was
	// loaded. Callers must reload and re-apply, never overwrite.
	ErrConflict = errors.New("session version conflict")
)

// Store persists OrderSession documents, one per sessionId, with a version
// counter enforcing optimistic concurrency across process restarts.
type Store interface {
	Load(ctx context.Context, sessionID string) (*models.OrderSession, error)
	Save(ctx context.Context, session *models.OrderSession) error

	// StaleAwaiting lists sessions stuck in awaiting-clarification whose
	// last input is older than the cutoff. Used by the inactivity reaper.
	StaleAwaiting(ctx context.Context, cutoff time.Time) ([]string, error)
}

// Mongo is the production Store over a sessions collection.
type Mongo struct {
	coll *mongo.Collection
}

func NewMongo(coll *mongo.Collection) *Mongo {
	return &Mongo{coll: coll}
}

func (m *Mongo) Load(ctx context.Context, sessionID string) (*models.OrderSession, error) {
	var s models.OrderSession
	err := m.coll.FindOne(ctx, bson.M{"sessionid": sessionID}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the session guarded by its loaded version. New sessions
// (version 0) are inserted; a duplicate insert or a missed version match
// both surface as ErrConflict.
func (m *Mongo) Save(ctx context.Context, session *models.OrderSession) error {
	session.UpdatedAt = time.Now()

	if session.Version == 0 {
		session.Version = 1
		if _, err := m.coll.InsertOne(ctx, session); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				session.Version = 0
				return ErrConflict
			}
			session.Version = 0
			return err
		}
		return nil
	}

	prev := session.Version
	session.Version = prev + 1
	res, err := m.coll.ReplaceOne(ctx, bson.M{
		"sessionid": session.SessionID,
		"version":   prev,
	}, session)
	if err != nil {
		session.Version = prev
		return err
	}
	if res.MatchedCount == 0 {
		session.Version = prev
		return ErrConflict
	}
	return nil
}

func (m *Mongo) StaleAwaiting(ctx context.Context, cutoff time.Time) ([]string, error) {
	cur, err := m.coll.Find(ctx, bson.M{
		"status":      models.StatusAwaiting,
		"lastinputat": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var s models.OrderSession
		if err := cur.Decode(&s); err != nil {
			continue
		}
		ids = append(ids, s.SessionID)
	}
	return ids, cur.Err()
}

// EnsureIndexes creates the unique sessionid index the insert path relies on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionid", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
