package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"survey-bot/internal/domain/entities"
	domainrepo "survey-bot/internal/domain/interfaces/repository"
)

const ContactsCollection = "contacts"

// MongoRepository stores documents keyed by their "id" field.
type MongoRepository[T any] struct {
	mongo *mongo.Database
}

func NewMongoRepository[T any](mongo *mongo.Database) *MongoRepository[T] {
	return &MongoRepository[T]{mongo: mongo}
}

// Upsert replaces the document with the given id, creating it when missing.
// A single replace keeps the write all-or-nothing.
func (r *MongoRepository[T]) Upsert(ctx context.Context, collectionName string, id string, entity T) (T, error) {
	collection := r.mongo.Collection(collectionName)
	filter := bson.M{"id": id}
	_, err := collection.ReplaceOne(ctx, filter, entity, options.Replace().SetUpsert(true))
	return entity, err
}

func (r *MongoRepository[T]) FindByID(ctx context.Context, collectionName string, id string) (T, error) {
	var entity T
	collection := r.mongo.Collection(collectionName)
	filter := bson.M{"id": id}
	err := collection.FindOne(ctx, filter).Decode(&entity)
	return entity, err
}

func (r *MongoRepository[T]) FindAll(ctx context.Context, collectionName string) ([]T, error) {
	collection := r.mongo.Collection(collectionName)
	cursor, err := collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []T
	for cursor.Next(ctx) {
		var entity T
		if err := cursor.Decode(&entity); err != nil {
			return nil, err
		}
		items = append(items, entity)
	}
	return items, cursor.Err()
}

// MongoContactRepository adapts the generic repository to the contact store.
type MongoContactRepository struct {
	db   *mongo.Database
	repo domainrepo.Repository[entities.Contact]
}

var _ domainrepo.ContactRepository = (*MongoContactRepository)(nil)

func NewMongoContactRepository(db *mongo.Database) *MongoContactRepository {
	return &MongoContactRepository{db: db, repo: NewMongoRepository[entities.Contact](db)}
}

// EnsureIndexes creates the unique index on the contact id.
func (r *MongoContactRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(ContactsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create contacts index: %w", err)
	}
	return nil
}

func (r *MongoContactRepository) Find(ctx context.Context, id string) (entities.Contact, error) {
	contact, err := r.repo.FindByID(ctx, ContactsCollection, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return entities.Contact{}, entities.ErrContactNotFound
	}
	if err != nil {
		return entities.Contact{}, fmt.Errorf("failed to find contact %s: %w", id, err)
	}
	if contact.Answers == nil {
		contact.Answers = []entities.Answer{}
	}
	return contact, nil
}

func (r *MongoContactRepository) Save(ctx context.Context, contact entities.Contact) error {
	if contact.ID == "" {
		return fmt.Errorf("contact id is required")
	}
	if _, err := r.repo.Upsert(ctx, ContactsCollection, contact.ID, contact); err != nil {
		return fmt.Errorf("failed to save contact %s: %w", contact.ID, err)
	}
	return nil
}

func (r *MongoContactRepository) FindAll(ctx context.Context) ([]entities.Contact, error) {
	contacts, err := r.repo.FindAll(ctx, ContactsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	for i := range contacts {
		if contacts[i].Answers == nil {
			contacts[i].Answers = []entities.Answer{}
		}
	}
	return contacts, nil
}

func (r *MongoContactRepository) ResetAll(ctx context.Context) (int, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"state": bson.M{"$ne": string(entities.StateInactive)}},
		bson.M{"step": bson.M{"$exists": true}},
		bson.M{"answers.0": bson.M{"$exists": true}},
	}}
	update := bson.M{
		"$set":   bson.M{"state": string(entities.StateInactive), "answers": bson.A{}},
		"$unset": bson.M{"step": ""},
	}
	result, err := r.db.Collection(ContactsCollection).UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to reset contacts: %w", err)
	}
	return int(result.ModifiedCount), nil
}
