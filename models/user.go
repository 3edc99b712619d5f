package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// User is a non-student account: placement officers and admins.
type User struct {
	ID       bson.ObjectID `json:"id" bson:"_id,omitempty"`
	Name     string        `json:"name" bson:"name" validate:"required,min=2" normalize:"trim"`
	Email    string        `json:"email" bson:"email" validate:"required,email" normalize:"trim,lowercase"`
	Password string        `json:"-" bson:"password,omitempty"`
	Role     Role          `json:"role" bson:"role" validate:"required,oneof=placement_officer admin"`
	Phone    string        `json:"phone" bson:"phone,omitempty" sanitize:"numeric"`
	Created  time.Time     `json:"created" bson:"created,omitempty"`
	Modified time.Time     `json:"modified" bson:"modified,omitempty"`
}

func (User) GetTableName() string     { return "users" }
func (User) GetModelName() string     { return "User" }
func (User) GetConnectorName() string { return ConnectorName }
func (u User) GetId() any             { return u.ID }

func (User) Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
}
