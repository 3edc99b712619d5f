package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Application links a student to a job posting. ResumeScore is filled in
// asynchronously by the resume scoring service when one is configured.
type Application struct {
	ID          bson.ObjectID     `json:"id" bson:"_id,omitempty"`
	StudentID   bson.ObjectID     `json:"studentId" bson:"studentId" validate:"required"`
	JobID       bson.ObjectID     `json:"jobId" bson:"jobId" validate:"required"`
	Status      ApplicationStatus `json:"status" bson:"status"`
	ResumeScore *float64          `json:"resumeScore,omitempty" bson:"resumeScore,omitempty"`
	Note        string            `json:"note" bson:"note,omitempty" sanitize:"html" normalize:"trim"`
	Created     time.Time         `json:"created" bson:"created,omitempty"`
	Modified    time.Time         `json:"modified" bson:"modified,omitempty"`
}

func (Application) GetTableName() string     { return "applications" }
func (Application) GetModelName() string     { return "Application" }
func (Application) GetConnectorName() string { return ConnectorName }
func (a Application) GetId() any             { return a.ID }

func (Application) Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "jobId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "jobId", Value: 1}, {Key: "status", Value: 1}}},
	}
}
