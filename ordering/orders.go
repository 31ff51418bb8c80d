package ordering

import (
	"context"

	"mediloon/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoOrders writes committed orders to the orders collection. It is the
// pipeline's OrderSink.
type MongoOrders struct {
	coll *mongo.Collection
}

func NewMongoOrders(coll *mongo.Collection) *MongoOrders {
	return &MongoOrders{coll: coll}
}

func (m *MongoOrders) Commit(ctx context.Context, order models.CommittedOrder) error {
	_, err := m.coll.InsertOne(ctx, order)
	return err
}
