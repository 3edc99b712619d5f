package database

import (
	"context"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-errors/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	fieldCreated  = "created"
	fieldModified = "modified"

	commandPrefix = "$"
	commandSet    = "$set"
)

// MongoRepositoryOptions controls the bookkeeping fields managed by the
// repository itself.
type MongoRepositoryOptions struct {
	// Created stamps a `created` date on insert.
	Created bool
	// Modified stamps a `modified` date on every update.
	Modified bool
}

type MongoRepository[T IModel] struct {
	connector  *MongoConnector
	collection *mongo.Collection
	Options    MongoRepositoryOptions
}

// NewMongoRepository builds a repository for the model's collection and
// registers it in the datasource.
func NewMongoRepository[T IModel](ds *Datasource, model T, opts ...MongoRepositoryOptions) (*MongoRepository[T], error) {
	connector, err := ds.GetModelConnector(model)
	if err != nil {
		return nil, err
	}

	mongoConnector, ok := connector.(*MongoConnector)
	if !ok {
		return nil, errors.Errorf("the connector for model %s is not a MongoConnector", model.GetModelName())
	}

	repositoryOptions := MongoRepositoryOptions{Created: true, Modified: true}
	if len(opts) > 0 {
		repositoryOptions = opts[0]
	}

	repository := &MongoRepository[T]{
		connector:  mongoConnector,
		collection: mongoConnector.GetCollection(model.GetTableName()),
		Options:    repositoryOptions,
	}

	if err := RegisterDatasourceRepository(ds, model, repository); err != nil {
		return nil, err
	}

	return repository, nil
}

func (repository *MongoRepository[T]) GetConnector() Connector {
	return repository.connector
}

func (repository *MongoRepository[T]) GetCollection() *mongo.Collection {
	return repository.collection
}

func (repository *MongoRepository[T]) Find(ctx context.Context, filter *Filter) ([]T, error) {
	if filter == nil {
		filter = NewFilter()
	}

	findOptions := options.Find()
	if projection := filter.Projection(); projection != nil {
		findOptions.SetProjection(projection)
	}
	if sort := filter.SortSpec(); len(sort) > 0 {
		findOptions.SetSort(sort)
	}
	if limit := filter.LimitValue(); limit > 0 {
		findOptions.SetLimit(limit)
	}
	if skip := filter.SkipValue(); skip > 0 {
		findOptions.SetSkip(skip)
	}

	cursor, err := repository.collection.Find(ctx, filter.WhereQuery(), findOptions)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, errors.Wrap(err, 0)
	}

	return results, nil
}

func (repository *MongoRepository[T]) FindOne(ctx context.Context, filter *Filter) (*T, error) {
	if filter == nil {
		filter = NewFilter()
	}

	findOptions := options.FindOne()
	if projection := filter.Projection(); projection != nil {
		findOptions.SetProjection(projection)
	}
	if sort := filter.SortSpec(); len(sort) > 0 {
		findOptions.SetSort(sort)
	}

	var result T
	err := repository.collection.FindOne(ctx, filter.WhereQuery(), findOptions).Decode(&result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (repository *MongoRepository[T]) FindById(ctx context.Context, id any, filter ...*Filter) (*T, error) {
	byID := NewFilter().Eq("_id", id)
	if len(filter) > 0 && filter[0] != nil {
		if projection := filter[0].Projection(); projection != nil {
			byID.fields = projection
		}
	}

	return repository.FindOne(ctx, byID)
}

func (repository *MongoRepository[T]) Insert(ctx context.Context, doc T) (any, error) {
	document, err := toBsonMap(doc)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if repository.Options.Created {
		document[fieldCreated] = now
	}
	if repository.Options.Modified {
		document[fieldModified] = now
	}

	switch id := document["_id"].(type) {
	case nil:
		delete(document, "_id")
	case string:
		if id == "" {
			delete(document, "_id")
		}
	case bson.ObjectID:
		if id.IsZero() {
			delete(document, "_id")
		}
	}

	result, err := repository.collection.InsertOne(ctx, document)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	return result.InsertedID, nil
}

func (repository *MongoRepository[T]) Create(ctx context.Context, doc T) (*T, error) {
	insertedID, err := repository.Insert(ctx, doc)
	if err != nil {
		return nil, err
	}

	return repository.FindById(ctx, insertedID)
}

func (repository *MongoRepository[T]) UpdateOne(ctx context.Context, filter *Filter, update any) error {
	if filter == nil {
		filter = NewFilter()
	}

	document, err := repository.prepareUpdateDocument(update)
	if err != nil {
		return err
	}

	result, err := repository.collection.UpdateOne(ctx, filter.WhereQuery(), document)
	if err != nil {
		return errors.Wrap(err, 0)
	}

	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

func (repository *MongoRepository[T]) UpdateById(ctx context.Context, id any, update any) error {
	return repository.UpdateOne(ctx, NewFilter().Eq("_id", id), update)
}

func (repository *MongoRepository[T]) Count(ctx context.Context, filter *Filter) (int64, error) {
	if filter == nil {
		filter = NewFilter()
	}

	count, err := repository.collection.CountDocuments(ctx, filter.WhereQuery())
	if err != nil {
		return 0, errors.Wrap(err, 0)
	}

	return count, nil
}

func (repository *MongoRepository[T]) Exists(ctx context.Context, id any) (bool, error) {
	count, err := repository.Count(ctx, NewFilter().Eq("_id", id))
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (repository *MongoRepository[T]) DeleteById(ctx context.Context, id any) error {
	result, err := repository.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, 0)
	}

	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

func (repository *MongoRepository[T]) DeleteMany(ctx context.Context, filter *Filter) (int64, error) {
	if filter == nil {
		filter = NewFilter()
	}

	result, err := repository.collection.DeleteMany(ctx, filter.WhereQuery())
	if err != nil {
		return 0, errors.Wrap(err, 0)
	}

	return result.DeletedCount, nil
}

// prepareUpdateDocument normalizes an update into a command document. A plain
// struct or map becomes a $set; documents that already carry commands pass
// through. Mixing bare fields with commands is an error. The repository's
// bookkeeping fields are managed here and stripped from caller input.
func (repository *MongoRepository[T]) prepareUpdateDocument(update any) (bson.M, error) {
	document, err := toBsonMap(update)
	if err != nil {
		return nil, err
	}

	hasFields := false
	hasCommands := false
	for key := range document {
		if strings.HasPrefix(key, commandPrefix) {
			hasCommands = true
		} else {
			hasFields = true
		}
	}

	if hasFields && hasCommands {
		return nil, errors.New("update cannot mix fields and update operators")
	}

	var command bson.M
	var set bson.M

	if hasCommands {
		command = document
		switch value := document[commandSet].(type) {
		case nil:
			set = bson.M{}
		case bson.M:
			set = value
		default:
			set = bson.M{}
			raw, err := sonic.Marshal(value)
			if err != nil {
				return nil, errors.Errorf("invalid $set value: %T", value)
			}
			if err := sonic.Unmarshal(raw, &set); err != nil {
				return nil, errors.Errorf("invalid $set value: %T", value)
			}
		}
	} else {
		command = bson.M{}
		set = document
	}

	if repository.Options.Created {
		delete(set, fieldCreated)
	}
	if repository.Options.Modified {
		delete(set, fieldModified)
		set[fieldModified] = time.Now()
	}

	if len(set) > 0 {
		command[commandSet] = set
	}

	return command, nil
}

// toBsonMap converts a struct or map into a bson.M through a bson
// marshal/unmarshal round trip so ObjectIDs and dates keep their BSON types.
func toBsonMap(value any) (bson.M, error) {
	if value == nil {
		return bson.M{}, nil
	}

	switch typed := value.(type) {
	case bson.M:
		return typed, nil
	case map[string]any:
		return bson.M(typed), nil
	}

	raw, err := bson.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	var document bson.M
	if err := bson.Unmarshal(raw, &document); err != nil {
		return nil, errors.Wrap(err, 0)
	}

	return document, nil
}
