// Package models holds the persisted document types of the placement portal.
package models

// ConnectorName is the datasource connector every portal model is bound to.
const ConnectorName = "mongodb"

// Role tags carried by principals and enforced by endpoint role gates.
type Role string

const (
	RoleStudent          Role = "student"
	RolePlacementOfficer Role = "placement_officer"
	RoleAdmin            Role = "admin"
)

// RoleName implements the endpoint role contract of the rest package.
func (r Role) RoleName() string {
	return string(r)
}

// ApplicationStatus is the lifecycle of a job application.
type ApplicationStatus string

const (
	ApplicationApplied     ApplicationStatus = "applied"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationRejected    ApplicationStatus = "rejected"
	ApplicationPlaced      ApplicationStatus = "placed"
)

// JobStatus marks whether a posting still accepts applications.
type JobStatus string

const (
	JobOpen   JobStatus = "open"
	JobClosed JobStatus = "closed"
)
