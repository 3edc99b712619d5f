package database

import (
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// IModel is implemented by every persisted document type.
type IModel interface {
	// GetTableName returns the collection the model is stored in.
	GetTableName() string

	// GetModelName returns the logical model name used for registration.
	GetModelName() string

	// GetConnectorName returns the name of the connector the model belongs to.
	GetConnectorName() string

	GetId() any
}

// IndexedModel is implemented by models that declare collection indexes.
// Datasource.EnsureIndexes creates them at startup.
type IndexedModel interface {
	Indexes() []mongo.IndexModel
}

// Connector es una interfaz genérica para cualquier tipo de conector de base de datos
type Connector interface {
	Ping() error
	Disconnect() error
	GetName() string
	GetDatabaseName() string
	GetDriver() any
}
