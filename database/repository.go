package database

import (
	"context"
)

type Repository[T IModel] interface {
	// GetConnector returns the connector used by this repository.
	GetConnector() Connector

	// Find retrieves all documents matching the filter. If no documents match,
	// it returns an empty slice.
	Find(ctx context.Context, filter *Filter) ([]T, error)

	// FindOne retrieves the first document matching the filter, or an error if
	// none match.
	FindOne(ctx context.Context, filter *Filter) (*T, error)

	// FindById retrieves a single document by its ID. The filter, if given,
	// only contributes its projection.
	FindById(ctx context.Context, id any, filter ...*Filter) (*T, error)

	// Insert inserts a new document and returns the inserted ID.
	Insert(ctx context.Context, doc T) (any, error)

	// Create inserts a new document and returns the stored document.
	Create(ctx context.Context, doc T) (*T, error)

	// UpdateOne updates the first document matching the filter.
	UpdateOne(ctx context.Context, filter *Filter, update any) error

	// UpdateById updates a single document by its ID.
	UpdateById(ctx context.Context, id any, update any) error

	// Count returns the number of documents matching the filter.
	Count(ctx context.Context, filter *Filter) (int64, error)

	// Exists checks if a document with the given ID exists.
	Exists(ctx context.Context, id any) (bool, error)

	// DeleteById deletes a single document by its ID.
	DeleteById(ctx context.Context, id any) error

	// DeleteMany deletes all documents matching the filter and returns the
	// number removed.
	DeleteMany(ctx context.Context, filter *Filter) (int64, error)
}
