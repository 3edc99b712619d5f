package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Student is a candidate registered on the portal. The password hash is never
// serialized to JSON and is projected out of identity lookups.
type Student struct {
	ID           bson.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string        `json:"name" bson:"name" validate:"required,min=2" normalize:"trim"`
	Email        string        `json:"email" bson:"email" validate:"required,email" normalize:"trim,lowercase"`
	Password     string        `json:"-" bson:"password,omitempty"`
	Role         Role          `json:"role" bson:"role"`
	EnrollmentNo string        `json:"enrollmentNo" bson:"enrollmentNo" validate:"required" sanitize:"alphanumeric" normalize:"trim,uppercase"`
	Course       string        `json:"course" bson:"course" normalize:"trim"`
	Branch       string        `json:"branch" bson:"branch" normalize:"trim,uppercase"`
	CGPA         float64       `json:"cgpa" bson:"cgpa" validate:"gte=0,lte=10"`
	Backlogs     int           `json:"backlogs" bson:"backlogs" validate:"gte=0"`
	Phone        string        `json:"phone" bson:"phone,omitempty" sanitize:"numeric"`
	About        string        `json:"about" bson:"about,omitempty" sanitize:"html" normalize:"trim"`
	ResumeURL    string        `json:"resumeUrl" bson:"resumeUrl,omitempty"`
	ResumeScore  *float64      `json:"resumeScore,omitempty" bson:"resumeScore,omitempty"`
	Placed       bool          `json:"placed" bson:"placed"`
	Created      time.Time     `json:"created" bson:"created,omitempty"`
	Modified     time.Time     `json:"modified" bson:"modified,omitempty"`
}

func (Student) GetTableName() string     { return "students" }
func (Student) GetModelName() string     { return "Student" }
func (Student) GetConnectorName() string { return ConnectorName }
func (s Student) GetId() any             { return s.ID }

func (Student) Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "enrollmentNo", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "branch", Value: 1}, {Key: "cgpa", Value: -1}},
		},
	}
}
