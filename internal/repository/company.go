package repository

import (
	"context"
	"errors"
	"fleet-coordinator/internal/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CompanyRepository struct {
	collection *mongo.Collection
}

func NewCompanyRepository(db *mongo.Database) *CompanyRepository {
	return &CompanyRepository{
		collection: db.Collection("companies"),
	}
}

func (r *CompanyRepository) Create(company *models.Company) (*models.Company, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, company)
	if err != nil {
		return nil, err
	}

	company.ID = result.InsertedID.(primitive.ObjectID)
	return company, nil
}

func (r *CompanyRepository) FindByID(id string) (*models.Company, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid company ID")
	}

	var company models.Company
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&company)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("company not found")
		}
		return nil, err
	}

	return &company, nil
}

func (r *CompanyRepository) FindByName(name string) (*models.Company, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var company models.Company
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&company)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("company not found")
		}
		return nil, err
	}

	return &company, nil
}

func (r *CompanyRepository) FindAll() ([]*models.Company, error) {
	return r.findMany(bson.M{})
}

// FindActive filters server-side; deactivated companies stay out of the
// registration and trip-creation dropdowns.
func (r *CompanyRepository) FindActive() ([]*models.Company, error) {
	return r.findMany(bson.M{"is_active": true})
}

func (r *CompanyRepository) findMany(filter bson.M) ([]*models.Company, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var companies []*models.Company
	for cursor.Next(ctx) {
		var company models.Company
		if err := cursor.Decode(&company); err != nil {
			return nil, err
		}
		companies = append(companies, &company)
	}

	return companies, nil
}

func (r *CompanyRepository) Update(id string, company *models.Company) (*models.Company, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid company ID")
	}

	company.UpdatedAt = time.Now()

	update := bson.M{
		"$set": company,
	}

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updatedCompany models.Company
	if err := result.Decode(&updatedCompany); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("company not found")
		}
		return nil, err
	}

	return &updatedCompany, nil
}

// SetActive flips the activation flag. There is intentionally no Delete:
// companies are referenced by name from trips and users.
func (r *CompanyRepository) SetActive(id string, active bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid company ID")
	}

	update := bson.M{
		"$set": bson.M{
			"is_active":  active,
			"updated_at": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return errors.New("company not found")
	}

	return nil
}

func (r *CompanyRepository) Count() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{})
}

// CreateIndexes creates necessary indexes for the companies collection
func (r *CompanyRepository) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "is_active", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
