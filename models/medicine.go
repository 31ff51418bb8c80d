package models

import "time"

// PrescriptionRequired levels, mirrored from the catalog data.
type PrescriptionRequired string

const (
	PrescriptionYes      PrescriptionRequired = "yes"
	PrescriptionNo       PrescriptionRequired = "no"
	PrescriptionOptional PrescriptionRequired = "optional"
)

type Medicine struct {
	SKU               string               `json:"sku" bson:"sku"`
	Name              string               `json:"name" bson:"name"`
	GenericName       string               `json:"genericName,omitempty" bson:"genericname,omitempty"`
	Aliases           []string             `json:"aliases,omitempty" bson:"aliases,omitempty"`
	Category          string               `json:"category" bson:"category"`
	Strength          string               `json:"strength" bson:"strength"` // e.g. "500mg"
	Form              string               `json:"form" bson:"form"`         // tablet, syrup, ...
	Price             float64              `json:"price" bson:"price"`
	Prescription      PrescriptionRequired `json:"prescriptionRequired" bson:"prescriptionrequired"`
	ActiveIngredients []string             `json:"activeIngredients,omitempty" bson:"activeingredients,omitempty"`
	Interactions      []string             `json:"interactions,omitempty" bson:"interactions,omitempty"`
	SupplierRef       string               `json:"supplierRef,omitempty" bson:"supplierref,omitempty"`
	Discontinued      bool                 `json:"discontinued" bson:"discontinued"`
	CreatedAt         time.Time            `json:"createdAt" bson:"createdat"`
	UpdatedAt         time.Time            `json:"updatedAt" bson:"updatedat"`
}

// StockRecord is the inventory document for one SKU.
type StockRecord struct {
	SKU       string    `json:"sku" bson:"sku"`
	Available int       `json:"available" bson:"available"`
	Reserved  int       `json:"reserved" bson:"reserved"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedat"`
}

// CommittedOrder is the durable order written when a session commits.
type CommittedOrder struct {
	OrderID    string     `json:"orderId" bson:"orderid"`
	SessionID  string     `json:"sessionId" bson:"sessionid"`
	CustomerID string     `json:"customerId" bson:"customerid"`
	Items      []LineItem `json:"items" bson:"items"`
	PickupCode string     `json:"pickupCode" bson:"pickupcode"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdat"`
}
