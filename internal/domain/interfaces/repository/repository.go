package repository

import (
	"context"

	"survey-bot/internal/domain/entities"
)

// Repository is the generic document store used by the Mongo backend.
type Repository[T any] interface {
	Upsert(ctx context.Context, collectionName string, id string, entity T) (T, error)
	FindByID(ctx context.Context, collectionName string, id string) (T, error)
	FindAll(ctx context.Context, collectionName string) ([]T, error)
}

// ContactRepository is the durable conversation state store. Save must either
// persist the whole record or fail without a partial write.
type ContactRepository interface {
	Find(ctx context.Context, id string) (entities.Contact, error)
	Save(ctx context.Context, contact entities.Contact) error
	FindAll(ctx context.Context) ([]entities.Contact, error)
	ResetAll(ctx context.Context) (int, error)
}
