package models

import (
	"time"

	"modelhaus/api/internal/dimensions"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is the persisted catalog entry, one document in the caller's
// per-company collection. The service constructs it on save; the store
// owns its lifecycle afterwards.
type Product struct {
	ProductID   string                 `bson:"product_id" json:"product_id"`
	Name        string                 `bson:"name" json:"name"`
	Price       float64                `bson:"price" json:"price"`
	Category    string                 `bson:"category" json:"category"`
	Description string                 `bson:"description" json:"description"`
	URL         string                 `bson:"url" json:"url"`
	ModelURL    string                 `bson:"model_url" json:"model_url"`
	Brand       string                 `bson:"brand" json:"brand"`
	Images      []string               `bson:"images" json:"images"`
	SizeOptions *dimensions.Dimensions `bson:"size_options" json:"size_options"`
	FolderPath  string                 `bson:"folder_path" json:"folder_path"`
	CreatedBy   string                 `bson:"created_by" json:"created_by"`
	Status      ProductStatus          `bson:"status" json:"status"`
	CreatedAt   time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time              `bson:"updated_at" json:"updated_at"`
}
