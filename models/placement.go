package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Placement records a confirmed offer.
type Placement struct {
	ID        bson.ObjectID `json:"id" bson:"_id,omitempty"`
	StudentID bson.ObjectID `json:"studentId" bson:"studentId" validate:"required"`
	JobID     bson.ObjectID `json:"jobId" bson:"jobId" validate:"required"`
	CompanyID bson.ObjectID `json:"companyId" bson:"companyId" validate:"required"`
	CTC       float64       `json:"ctc" bson:"ctc" validate:"gte=0"`
	JoiningOn time.Time     `json:"joiningOn" bson:"joiningOn,omitempty"`
	Created   time.Time     `json:"created" bson:"created,omitempty"`
	Modified  time.Time     `json:"modified" bson:"modified,omitempty"`
}

func (Placement) GetTableName() string     { return "placements" }
func (Placement) GetModelName() string     { return "Placement" }
func (Placement) GetConnectorName() string { return ConnectorName }
func (p Placement) GetId() any             { return p.ID }

func (Placement) Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "studentId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
}
