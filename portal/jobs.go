package portal

import (
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	rest "github.com/talentbridge/placement-rest"
	"github.com/talentbridge/placement-rest/database"
	"github.com/talentbridge/placement-rest/http_errors"
	"github.com/talentbridge/placement-rest/models"
)

type JobRequest struct {
	CompanyID   string    `json:"companyId" validate:"required"`
	Title       string    `json:"title" validate:"required" normalize:"trim"`
	Description string    `json:"description" sanitize:"html" normalize:"trim"`
	Location    string    `json:"location" normalize:"trim"`
	CTC         float64   `json:"ctc" validate:"gte=0"`
	MinCGPA     float64   `json:"minCgpa" validate:"gte=0,lte=10"`
	MaxBacklogs int       `json:"maxBacklogs" validate:"gte=0"`
	Branches    []string  `json:"branches" normalize:"dive,trim,uppercase"`
	Deadline    time.Time `json:"deadline" validate:"required"`
}

func (r JobRequest) Validate(*rest.EndpointContext) error {
	if _, err := bson.ObjectIDFromHex(r.CompanyID); err != nil {
		return http_errors.BadRequestError("companyId must be a valid ObjectID")
	}
	if r.Deadline.Before(time.Now()) {
		return http_errors.BadRequestError("Deadline must be in the future")
	}
	return nil
}

// EligibilityResponse explains a student's standing against a posting.
type EligibilityResponse struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons,omitempty"`
}

func (p *Portal) jobEndpoints() []*rest.Endpoint {
	return []*rest.Endpoint{
		{
			Name:         "ListJobs",
			Method:       rest.MethodGET,
			Path:         "/jobs",
			CacheSeconds: 30,
			ActionType:   rest.ActionTypeRead,
			Model:        "Job",
			Accepts: []rest.Param{
				rest.NewQueryParam("filter", rest.QueryParamTypeFilter),
			},
			AuditDisabled: true,
			Handler:       p.listJobs,
		},
		{
			Name:       "GetJob",
			Method:     rest.MethodGET,
			Path:       "/jobs/:id",
			ActionType: rest.ActionTypeRead,
			Model:      "Job",
			Accepts: []rest.Param{
				rest.NewPathParam("id", rest.PathParamTypeObjectID, true),
			},
			AuditDisabled: true,
			Handler:       p.getJob,
		},
		{
			Name:       "CreateJob",
			Method:     rest.MethodPOST,
			Path:       "/jobs",
			Roles:      officerRoles,
			ActionType: rest.ActionTypeCreate,
			Model:      "Job",
			BodyParams: func() rest.Validable { return &JobRequest{} },
			Handler:    p.createJob,
		},
		{
			Name:       "CloseJob",
			Method:     rest.MethodPATCH,
			Path:       "/jobs/:id/close",
			Roles:      officerRoles,
			ActionType: rest.ActionTypeUpdate,
			Model:      "Job",
			Accepts: []rest.Param{
				rest.NewPathParam("id", rest.PathParamTypeObjectID, true),
			},
			Handler: p.closeJob,
		},
		{
			Name:       "DeleteJob",
			Method:     rest.MethodDELETE,
			Path:       "/jobs/:id",
			Roles:      []rest.EndpointRole{models.RoleAdmin},
			ActionType: rest.ActionTypeDelete,
			Model:      "Job",
			Accepts: []rest.Param{
				rest.NewPathParam("id", rest.PathParamTypeObjectID, true),
			},
			Handler: p.deleteJob,
		},
		{
			Name:       "JobEligibility",
			Method:     rest.MethodGET,
			Path:       "/jobs/:id/eligibility",
			Roles:      []rest.EndpointRole{models.RoleStudent},
			ActionType: rest.ActionTypeRead,
			Model:      "Job",
			Accepts: []rest.Param{
				rest.NewPathParam("id", rest.PathParamTypeObjectID, true),
			},
			AuditDisabled: true,
			Handler:       p.jobEligibility,
		},
		{
			Name:       "JobApplicants",
			Method:     rest.MethodGET,
			Path:       "/jobs/:id/applicants",
			Roles:      officerRoles,
			ActionType: rest.ActionTypeRead,
			Model:      "Application",
			Accepts: []rest.Param{
				rest.NewPathParam("id", rest.PathParamTypeObjectID, true),
			},
			AuditDisabled: true,
			Handler:       p.jobApplicants,
		},
	}
}

func (p *Portal) listJobs(ctx *rest.EndpointContext) error {
	filter, err := ctx.GetFilterParam()
	if err != nil {
		return err
	}
	if filter == nil {
		// Students browsing without a filter only care about open postings.
		filter = database.NewFilter().Eq("status", models.JobOpen).Sort("deadline", false)
	}

	jobs, err := p.Jobs.Find(ctx.Context(), filter)
	if err != nil {
		ctx.App.Errorf("job listing failed: %v", err)
		return http_errors.InternalServerError("Failed to list jobs")
	}

	return ctx.JSON(rest.OK(jobs))
}

func (p *Portal) getJob(ctx *rest.EndpointContext) error {
	id := ctx.ParsedPath["id"].(bson.ObjectID)

	job, err := p.Jobs.FindById(ctx.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return http_errors.NotFoundError("Job not found")
		}
		ctx.App.Errorf("job lookup failed: %v", err)
		return http_errors.InternalServerError("Failed to load job")
	}

	return ctx.JSON(rest.OK(job))
}

func (p *Portal) createJob(ctx *rest.EndpointContext) error {
	body := ctx.ParsedBody.(*JobRequest)

	companyID, _ := bson.ObjectIDFromHex(body.CompanyID)
	exists, err := p.Companies.Exists(ctx.Context(), companyID)
	if err != nil {
		ctx.App.Errorf("company existence check failed: %v", err)
		return http_errors.InternalServerError("Failed to create job")
	}
	if !exists {
		return http_errors.BadRequestError("Company does not exist")
	}

	job := models.Job{
		CompanyID:   companyID,
		Title:       body.Title,
		Description: body.Description,
		Location:    body.Location,
		CTC:         body.CTC,
		MinCGPA:     body.MinCGPA,
		MaxBacklogs: body.MaxBacklogs,
		Branches:    body.Branches,
		Deadline:    body.Deadline,
		Status:      models.JobOpen,
	}

	created, err := p.Jobs.Create(ctx.Context(), job)
	if err != nil {
		ctx.App.Errorf("job creation failed: %v", err)
		return http_errors.InternalServerError("Failed to create job")
	}

	return ctx.RespondAndLog(rest.OK(created), created.ID.Hex(), rest.ResponseTypeJSON, http.StatusCreated)
}

func (p *Portal) closeJob(ctx *rest.EndpointContext) error {
	id := ctx.ParsedPath["id"].(bson.ObjectID)

	if err := p.Jobs.UpdateById(ctx.Context(), id, bson.M{"status": models.JobClosed}); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return http_errors.NotFoundError("Job not found")
		}
		ctx.App.Errorf("job close failed: %v", err)
		return http_errors.InternalServerError("Failed to close job")
	}

	job, err := p.Jobs.FindById(ctx.Context(), id)
	if err != nil {
		ctx.App.Errorf("job reload failed: %v", err)
		return http_errors.InternalServerError("Failed to load job")
	}

	return ctx.RespondAndLog(rest.OK(job), id.Hex(), rest.ResponseTypeJSON)
}

func (p *Portal) deleteJob(ctx *rest.EndpointContext) error {
	id := ctx.ParsedPath["id"].(bson.ObjectID)

	if err := p.Jobs.DeleteById(ctx.Context(), id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return http_errors.NotFoundError("Job not found")
		}
		ctx.App.Errorf("job delete failed: %v", err)
		return http_errors.InternalServerError("Failed to delete job")
	}

	if _, err := p.Applications.DeleteMany(ctx.Context(), database.NewFilter().Eq("jobId", id)); err != nil {
		ctx.App.Warnf("failed to remove applications of deleted job %s: %v", id.Hex(), err)
	}

	return ctx.RespondAndLog(nil, id.Hex(), rest.ResponseTypeNoContent, 204)
}

// jobEligibility reports whether the calling student passes the posting's
// predicate, with the failing criteria spelled out.
func (p *Portal) jobEligibility(ctx *rest.EndpointContext) error {
	id := ctx.ParsedPath["id"].(bson.ObjectID)

	job, err := p.Jobs.FindById(ctx.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return http_errors.NotFoundError("Job not found")
		}
		ctx.App.Errorf("job lookup failed: %v", err)
		return http_errors.InternalServerError("Failed to load job")
	}

	studentID, err := bson.ObjectIDFromHex(ctx.Principal.ID)
	if err != nil {
		return http_errors.UnauthenticatedError()
	}

	student, err := p.Students.FindById(ctx.Context(), studentID, identityProjection())
	if err != nil {
		ctx.App.Errorf("student lookup failed: %v", err)
		return http_errors.InternalServerError("Failed to check eligibility")
	}

	response := EligibilityResponse{Eligible: true}
	if student.CGPA < job.MinCGPA {
		response.Eligible = false
		response.Reasons = append(response.Reasons, "CGPA below the minimum required")
	}
	if student.Backlogs > job.MaxBacklogs {
		response.Eligible = false
		response.Reasons = append(response.Reasons, "Too many active backlogs")
	}
	if len(job.Branches) > 0 {
		allowed := false
		for _, branch := range job.Branches {
			if branch == student.Branch {
				allowed = true
				break
			}
		}
		if !allowed {
			response.Eligible = false
			response.Reasons = append(response.Reasons, "Branch not in the allowed list")
		}
	}
	if job.Status != models.JobOpen || job.Deadline.Before(time.Now()) {
		response.Eligible = false
		response.Reasons = append(response.Reasons, "Applications are closed")
	}

	return ctx.JSON(rest.OK(response))
}

func (p *Portal) jobApplicants(ctx *rest.EndpointContext) error {
	id := ctx.ParsedPath["id"].(bson.ObjectID)

	applications, err := p.Applications.Find(ctx.Context(),
		database.NewFilter().Eq("jobId", id).Sort("created", false))
	if err != nil {
		ctx.App.Errorf("applicant listing failed: %v", err)
		return http_errors.InternalServerError("Failed to list applicants")
	}

	return ctx.JSON(rest.OK(applications))
}
