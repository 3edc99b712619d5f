package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type Company struct {
	ID           bson.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string        `json:"name" bson:"name" validate:"required" normalize:"trim"`
	Website      string        `json:"website" bson:"website,omitempty" validate:"omitempty,url" normalize:"trim,lowercase"`
	Description  string        `json:"description" bson:"description,omitempty" sanitize:"html" normalize:"trim"`
	ContactName  string        `json:"contactName" bson:"contactName,omitempty" normalize:"trim"`
	ContactEmail string        `json:"contactEmail" bson:"contactEmail,omitempty" validate:"omitempty,email" normalize:"trim,lowercase"`
	Created      time.Time     `json:"created" bson:"created,omitempty"`
	Modified     time.Time     `json:"modified" bson:"modified,omitempty"`
}

func (Company) GetTableName() string     { return "companies" }
func (Company) GetModelName() string     { return "Company" }
func (Company) GetConnectorName() string { return ConnectorName }
func (c Company) GetId() any             { return c.ID }

func (Company) Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
}
