package agents

import (
	"context"
	"errors"

	"mediloon/db"
	"mediloon/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrUnknownSKU is returned for lookups of products the catalog no longer
// carries.
var ErrUnknownSKU = errors.New("unknown sku")

// SafetyData is what the Safety stage needs to know about a customer and
// the products on the order.
type SafetyData interface {
	Profile(ctx context.Context, customerID string) (models.CustomerProfile, error)
	Medicine(ctx context.Context, sku string) (models.Medicine, error)
	HasPrescription(ctx context.Context, customerID, sku string) (bool, error)
}

// StockData is what the Forecast stage needs about inventory.
type StockData interface {
	Medicine(ctx context.Context, sku string) (models.Medicine, error)
	Stock(ctx context.Context, sku string) (models.StockRecord, error)
}

// MongoData backs the agent data interfaces with the shared db.Store.
type MongoData struct {
	store *db.Store
}

func NewMongoData(store *db.Store) *MongoData {
	return &MongoData{store: store}
}

func (d *MongoData) Profile(ctx context.Context, customerID string) (models.CustomerProfile, error) {
	var p models.CustomerProfile
	err := d.store.Profiles.FindOne(ctx, bson.M{"customerid": customerID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		// No profile on file means nothing to flag.
		return models.CustomerProfile{CustomerID: customerID}, nil
	}
	return p, err
}

func (d *MongoData) Medicine(ctx context.Context, sku string) (models.Medicine, error) {
	var m models.Medicine
	err := d.store.Medicines.FindOne(ctx, bson.M{"sku": sku}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return m, ErrUnknownSKU
	}
	return m, err
}

func (d *MongoData) HasPrescription(ctx context.Context, customerID, sku string) (bool, error) {
	n, err := d.store.Prescriptions.CountDocuments(ctx, bson.M{
		"customerid": customerID,
		"sku":        sku,
	})
	return n > 0, err
}

func (d *MongoData) Stock(ctx context.Context, sku string) (models.StockRecord, error) {
	var r models.StockRecord
	err := d.store.Inventory.FindOne(ctx, bson.M{"sku": sku}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		// Unknown inventory reads as empty shelf, not an error.
		return models.StockRecord{SKU: sku}, nil
	}
	return r, err
}
