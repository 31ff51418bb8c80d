package models

import "time"

type User struct {
	UserID        string    `json:"userid" bson:"userid"`
	Username      string    `json:"username" bson:"username"`
	Email         string    `json:"email,omitempty" bson:"email,omitempty"`
	Password      string    `json:"-" bson:"password"`
	Role          []string  `json:"role" bson:"role"`
	RefreshToken  string    `json:"-" bson:"refresh_token,omitempty"`
	RefreshExpiry time.Time `json:"-" bson:"refresh_expiry,omitempty"`
	LastLogin     time.Time `json:"lastLogin,omitempty" bson:"last_login,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdat"`
}

// PrescriptionDoc is an uploaded prescription image on file for a customer.
type PrescriptionDoc struct {
	PrescriptionID string    `json:"prescriptionId" bson:"prescriptionid"`
	CustomerID     string    `json:"customerId" bson:"customerid"`
	SKU            string    `json:"sku,omitempty" bson:"sku,omitempty"`
	Path           string    `json:"path" bson:"path"`
	Thumbnail      string    `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	UploadedAt     time.Time `json:"uploadedAt" bson:"uploadedat"`
}

// CustomerProfile carries the medical context the Safety stage reads.
type CustomerProfile struct {
	CustomerID         string   `json:"customerId" bson:"customerid"`
	Allergies          []string `json:"allergies,omitempty" bson:"allergies,omitempty"`
	CurrentMedications []string `json:"currentMedications,omitempty" bson:"currentmedications,omitempty"`
}
