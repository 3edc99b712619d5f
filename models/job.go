package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Job is a posting published by a placement officer on behalf of a company.
// Eligibility is a plain predicate: minimum CGPA, maximum backlogs and an
// optional branch allow-list.
type Job struct {
	ID          bson.ObjectID `json:"id" bson:"_id,omitempty"`
	CompanyID   bson.ObjectID `json:"companyId" bson:"companyId" validate:"required"`
	Title       string        `json:"title" bson:"title" validate:"required" normalize:"trim"`
	Description string        `json:"description" bson:"description,omitempty" sanitize:"html" normalize:"trim"`
	Location    string        `json:"location" bson:"location,omitempty" normalize:"trim"`
	CTC         float64       `json:"ctc" bson:"ctc" validate:"gte=0"`
	MinCGPA     float64       `json:"minCgpa" bson:"minCgpa" validate:"gte=0,lte=10"`
	MaxBacklogs int           `json:"maxBacklogs" bson:"maxBacklogs" validate:"gte=0"`
	Branches    []string      `json:"branches" bson:"branches,omitempty" normalize:"dive,trim,uppercase"`
	Deadline    time.Time     `json:"deadline" bson:"deadline" validate:"required"`
	Status      JobStatus     `json:"status" bson:"status" validate:"omitempty,oneof=open closed"`
	Created     time.Time     `json:"created" bson:"created,omitempty"`
	Modified    time.Time     `json:"modified" bson:"modified,omitempty"`
}

func (Job) GetTableName() string     { return "jobs" }
func (Job) GetModelName() string     { return "Job" }
func (Job) GetConnectorName() string { return ConnectorName }
func (j Job) GetId() any             { return j.ID }

func (Job) Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "companyId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "deadline", Value: 1}}},
	}
}

// EligibleFor reports whether a student passes the posting's predicate
// filters. Deadline enforcement is the caller's concern.
func (j Job) EligibleFor(s Student) bool {
	if s.CGPA < j.MinCGPA {
		return false
	}
	if s.Backlogs > j.MaxBacklogs {
		return false
	}
	if len(j.Branches) == 0 {
		return true
	}
	for _, branch := range j.Branches {
		if branch == s.Branch {
			return true
		}
	}
	return false
}
