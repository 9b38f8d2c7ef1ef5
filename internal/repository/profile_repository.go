package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"modelhaus/api/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository reads user profiles from the profiles collection of
// the accounts database.
type ProfileRepository struct {
	collection *mongo.Collection
}

func NewProfileRepository(client *mongo.Client, database string) *ProfileRepository {
	return &ProfileRepository{collection: client.Database(database).Collection("profiles")}
}

func (r *ProfileRepository) FindByAccount(ctx context.Context, account string) (models.Profile, error) {
	var profile models.Profile
	err := r.collection.FindOne(ctx, bson.M{"account": account}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Profile{}, ErrProfileNotFound
		}
		return models.Profile{}, err
	}
	return profile, nil
}

// CompanyOf resolves the caller's company, falling back to "default" when
// the profile is missing or carries no company.
func (r *ProfileRepository) CompanyOf(ctx context.Context, account string) (string, error) {
	profile, err := r.FindByAccount(ctx, account)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return "default", nil
		}
		return "", err
	}
	if profile.Company == "" {
		return "default", nil
	}
	return profile.Company, nil
}
