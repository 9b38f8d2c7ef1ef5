package repository

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/mongo"

	"modelhaus/api/internal/models"
)

// ProductRepository appends product documents to per-company collections
// in the furniture database. Collections are named <company>_product.
type ProductRepository struct {
	client   *mongo.Client
	database string
}

func NewProductRepository(client *mongo.Client, database string) *ProductRepository {
	return &ProductRepository{client: client, database: database}
}

// collectionNameRe keeps ASCII word characters and CJK ideographs; every
// other rune in a company name becomes an underscore.
var collectionNameRe = regexp.MustCompile(`[^a-zA-Z0-9_\x{4e00}-\x{9fff}]`)

// CollectionFor derives the per-company collection name from a raw
// company string.
func CollectionFor(company string) string {
	if company == "" {
		company = "default"
	}
	return collectionNameRe.ReplaceAllString(company, "_") + "_product"
}

// Insert appends one product document to the company's collection and
// returns the collection it landed in.
func (r *ProductRepository) Insert(ctx context.Context, company string, product models.Product) (string, error) {
	name := CollectionFor(company)
	coll := r.client.Database(r.database).Collection(name)
	if _, err := coll.InsertOne(ctx, product); err != nil {
		return "", fmt.Errorf("insert product: %w", err)
	}
	return name, nil
}
