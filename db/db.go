package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds the Mongo collection handles. It is built once in main and
// injected into every package that touches the database, so store
// connections can be swapped in tests instead of living as process-wide
// globals.
type Store struct {
	Client *mongo.Client

	Sessions      *mongo.Collection
	Medicines     *mongo.Collection
	Inventory     *mongo.Collection
	Orders        *mongo.Collection
	Users         *mongo.Collection
	Profiles      *mongo.Collection
	Prescriptions *mongo.Collection
}

// Connect dials Mongo and binds the collection handles.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	d := client.Database(dbName)
	return &Store{
		Client:        client,
		Sessions:      d.Collection("sessions"),
		Medicines:     d.Collection("medicines"),
		Inventory:     d.Collection("inventory"),
		Orders:        d.Collection("orders"),
		Users:         d.Collection("users"),
		Profiles:      d.Collection("profiles"),
		Prescriptions: d.Collection("prescriptions"),
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
