package database

import (
	"github.com/go-errors/errors"
)

// Datasource holds the registered connectors, models and repositories of the
// application. Models are registered once at startup; repositories are looked
// up by model name afterwards.
type Datasource struct {
	connectors           map[string]Connector
	repositories         map[string]any
	models               map[string]IModel
	connectorByModelName map[string]Connector
}

func (receiver *Datasource) AddConnector(connector Connector) error {
	if receiver == nil {
		return errors.New("datasource is nil")
	}

	if receiver.connectors == nil {
		receiver.connectors = make(map[string]Connector)
	}

	receiver.connectors[connector.GetName()] = connector
	return nil
}

func (receiver *Datasource) Destroy() {
	for _, connector := range receiver.connectors {
		if connector != nil {
			_ = connector.Disconnect()
		}
	}
}

func (receiver *Datasource) RegisterModel(model IModel) error {
	if receiver == nil {
		return errors.New("datasource is nil")
	}

	connectorName := model.GetConnectorName()
	modelName := model.GetModelName()
	connector, err := receiver.GetConnector(connectorName)
	if err != nil {
		return err
	}

	if receiver.models == nil {
		receiver.models = make(map[string]IModel)
	}

	if receiver.connectorByModelName == nil {
		receiver.connectorByModelName = make(map[string]Connector)
	}

	if receiver.connectorByModelName[modelName] != nil {
		return errors.Errorf("the model %s is already registered with connector %s", modelName, receiver.connectorByModelName[modelName].GetName())
	}

	receiver.models[modelName] = model
	receiver.connectorByModelName[modelName] = connector
	return nil
}

func (receiver *Datasource) GetConnector(name string) (Connector, error) {
	if receiver == nil {
		return nil, errors.New("datasource is nil")
	}

	connector, ok := receiver.connectors[name]
	if !ok {
		return nil, errors.Errorf("the connector %s is not registered", name)
	}

	return connector, nil
}

func (receiver *Datasource) GetModelConnector(model IModel) (Connector, error) {
	if receiver == nil {
		return nil, errors.New("datasource is nil")
	}

	connector, ok := receiver.connectorByModelName[model.GetModelName()]
	if !ok {
		return nil, errors.Errorf("the model %s is not registered", model.GetModelName())
	}

	return connector, nil
}

// RegisterDatasourceRepository registers a repository for an already
// registered model. The repository's connector must belong to the datasource.
func RegisterDatasourceRepository[T IModel](ds *Datasource, model T, repository Repository[T]) error {
	if ds == nil || repository == nil {
		return errors.New("datasource or repository cannot be nil")
	}

	modelName := model.GetModelName()

	if ds.repositories == nil {
		ds.repositories = make(map[string]any)
	}

	repositoryConnector := repository.GetConnector()
	if repositoryConnector == nil {
		return errors.Errorf("repository for model %s does not have a connector", modelName)
	}

	connectorExists := false
	for _, existingConnector := range ds.connectors {
		if existingConnector == repositoryConnector {
			connectorExists = true
			break
		}
	}
	if !connectorExists {
		return errors.Errorf("the connector %s for model %s is not registered in the datasource", repositoryConnector.GetName(), modelName)
	}

	ds.repositories[modelName] = repository
	return nil
}

// GetDatasourceModelRepository returns the repository registered for the model.
func GetDatasourceModelRepository[T IModel](datasource *Datasource, model T) (Repository[T], error) {
	if datasource == nil {
		return nil, errors.New("datasource is nil")
	}

	repository, ok := datasource.repositories[model.GetModelName()]
	if !ok {
		return nil, errors.Errorf("the model %s is not registered", model.GetModelName())
	}

	if repo, ok := repository.(Repository[T]); ok {
		return repo, nil
	}

	return nil, errors.Errorf("the repository for model %s is not of the expected type", model.GetModelName())
}

// EnsureIndexes creates the indexes declared by every registered model that
// implements IndexedModel. Call after all models are registered.
func (receiver *Datasource) EnsureIndexes() error {
	if receiver == nil {
		return errors.New("datasource is nil")
	}

	for modelName, model := range receiver.models {
		indexed, ok := model.(IndexedModel)
		if !ok {
			continue
		}

		connector, err := receiver.GetModelConnector(model)
		if err != nil {
			return errors.Errorf("failed to get connector for model %s: %v", modelName, err)
		}

		mongoConnector, ok := connector.(*MongoConnector)
		if !ok {
			continue
		}

		if err := mongoConnector.EnsureIndexes(model.GetTableName(), indexed.Indexes()); err != nil {
			return errors.Errorf("failed to ensure indexes for model %s: %v", modelName, err)
		}
	}

	return nil
}
