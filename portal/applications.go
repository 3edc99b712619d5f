package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	rest "github.com/talentbridge/placement-rest"
	"github.com/talentbridge/placement-rest/database"
	"github.com/talentbridge/placement-rest/http_errors"
	"github.com/talentbridge/placement-rest/models"
)

type ApplyRequest struct {
	Note string `json:"note" sanitize:"html" normalize:"trim"`
}

func (ApplyRequest) Validate(*rest.EndpointContext) error { return nil }

type ApplicationStatusRequest struct {
	Status models.ApplicationStatus `json:"status" validate:"required,oneof=applied shortlisted rejected placed"`
	Note   string                   `json:"note" sanitize:"html" normalize:"trim"`
}

func (ApplicationStatusRequest) Validate(*rest.EndpointContext) error { return nil }

func (p *Portal) applicationEndpoints() []*rest.Endpoint {
	return []*rest.Endpoint{
		{
			Name:       "ApplyToJob",
			Method:     rest.MethodPOST,
			Path:       "/jobs/:id/apply",
			Roles:      []rest.EndpointRole{models.RoleStudent},
			ActionType: rest.ActionTypeApply,
			Model:      "Application",
			Accepts: []rest.Param{
				rest.NewPathParam("id", rest.PathParamTypeObjectID, true),
			},
			BodyParams: func() rest.Validable { return &ApplyRequest{} },
			Handler:    p.applyToJob,
		},
		{
			Name:       "ListApplications",
			Method:     rest.MethodGET,
			Path:       "/applications",
			ActionType: rest.ActionTypeRead,
			Model:      "Application",
			Accepts: []rest.Param{
				rest.NewQueryParam("filter", rest.QueryParamTypeFilter),
			},
			AuditDisabled: true,
			Handler:       p.listApplications,
		},
		{
			Name:       "UpdateApplicationStatus",
			Method:     rest.MethodPATCH,
			Path:       "/applications/:id/status",
			Roles:      officerRoles,
			ActionType: rest.ActionTypeUpdate,
			Model:      "Application",
			Accepts: []rest.Param{
				rest.NewPathParam("id", rest.PathParamTypeObjectID, true),
			},
			BodyParams: func() rest.Validable { return &ApplicationStatusRequest{} },
			Handler:    p.updateApplicationStatus,
		},
		{
			Name:       "WithdrawApplication",
			Method:     rest.MethodDELETE,
			Path:       "/applications/:id",
			Roles:      []rest.EndpointRole{models.RoleStudent},
			ActionType: rest.ActionTypeDelete,
			Model:      "Application",
			Accepts: []rest.Param{
				rest.NewPathParam("id", rest.PathParamTypeObjectID, true),
			},
			Handler: p.withdrawApplication,
		},
	}
}

// applyToJob files an application after checking the posting is open, the
// deadline has not passed and the student passes the eligibility predicate.
// The unique studentId+jobId index is the final guard against duplicates.
func (p *Portal) applyToJob(ctx *rest.EndpointContext) error {
	jobID := ctx.ParsedPath["id"].(bson.ObjectID)
	body := ctx.ParsedBody.(*ApplyRequest)

	job, err := p.Jobs.FindById(ctx.Context(), jobID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return http_errors.NotFoundError("Job not found")
		}
		ctx.App.Errorf("job lookup failed: %v", err)
		return http_errors.InternalServerError("Failed to apply")
	}

	if job.Status != models.JobOpen {
		return http_errors.ConflictError("This job is no longer accepting applications")
	}
	if job.Deadline.Before(time.Now()) {
		return http_errors.ConflictError("The application deadline has passed")
	}

	studentID, err := bson.ObjectIDFromHex(ctx.Principal.ID)
	if err != nil {
		return http_errors.UnauthenticatedError()
	}

	student, err := p.Students.FindById(ctx.Context(), studentID, identityProjection())
	if err != nil {
		ctx.App.Errorf("student lookup failed: %v", err)
		return http_errors.InternalServerError("Failed to apply")
	}

	if student.Placed {
		return http_errors.ConflictError("Placed students cannot apply to new postings")
	}
	if student.ResumeURL == "" {
		return http_errors.BadRequestError("Upload a resume before applying")
	}
	if !job.EligibleFor(*student) {
		return http_errors.ForbiddenError("You do not meet the eligibility criteria for this job")
	}

	application := models.Application{
		StudentID: studentID,
		JobID:     jobID,
		Status:    models.ApplicationApplied,
		Note:      body.Note,
	}

	created, err := p.Applications.Create(ctx.Context(), application)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return http_errors.ConflictError("You have already applied to this job")
		}
		ctx.App.Errorf("application creation failed: %v", err)
		return http_errors.InternalServerError("Failed to apply")
	}

	p.scoreResumeAsync(created.ID, student.ResumeURL, job.Description)
	p.notifyAsync(student.Email, "Application received",
		fmt.Sprintf("Your application for %s has been received.", job.Title))

	return ctx.RespondAndLog(rest.OK(created), created.ID.Hex(), rest.ResponseTypeJSON, http.StatusCreated)
}

// listApplications scopes students to their own applications; officers and
// admins see everything the filter matches.
func (p *Portal) listApplications(ctx *rest.EndpointContext) error {
	filter, err := ctx.GetFilterParam()
	if err != nil {
		return err
	}
	if filter == nil {
		filter = database.NewFilter()
	}

	if ctx.Principal.Role == string(models.RoleStudent) {
		studentID, err := bson.ObjectIDFromHex(ctx.Principal.ID)
		if err != nil {
			return http_errors.UnauthenticatedError()
		}
		filter.Eq("studentId", studentID)
	}

	applications, err := p.Applications.Find(ctx.Context(), filter)
	if err != nil {
		ctx.App.Errorf("application listing failed: %v", err)
		return http_errors.InternalServerError("Failed to list applications")
	}

	return ctx.JSON(rest.OK(applications))
}

// updateApplicationStatus moves an application through its lifecycle. Marking
// it placed also records the placement and flags the student.
func (p *Portal) updateApplicationStatus(ctx *rest.EndpointContext) error {
	id := ctx.ParsedPath["id"].(bson.ObjectID)
	body := ctx.ParsedBody.(*ApplicationStatusRequest)

	application, err := p.Applications.FindById(ctx.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return http_errors.NotFoundError("Application not found")
		}
		ctx.App.Errorf("application lookup failed: %v", err)
		return http_errors.InternalServerError("Failed to update application")
	}

	set := bson.M{"status": body.Status}
	if body.Note != "" {
		set["note"] = body.Note
	}

	if err := p.Applications.UpdateById(ctx.Context(), id, set); err != nil {
		ctx.App.Errorf("application update failed: %v", err)
		return http_errors.InternalServerError("Failed to update application")
	}

	if body.Status == models.ApplicationPlaced {
		if err := p.recordPlacement(ctx, application); err != nil {
			return err
		}
	}

	if body.Status == models.ApplicationShortlisted || body.Status == models.ApplicationPlaced {
		if student, err := p.Students.FindById(ctx.Context(), application.StudentID, identityProjection()); err == nil {
			p.notifyAsync(student.Email, "Application update",
				fmt.Sprintf("Your application status changed to %s.", body.Status))
		}
	}

	updated, err := p.Applications.FindById(ctx.Context(), id)
	if err != nil {
		ctx.App.Errorf("application reload failed: %v", err)
		return http_errors.InternalServerError("Failed to load application")
	}

	return ctx.RespondAndLog(rest.OK(updated), id.Hex(), rest.ResponseTypeJSON)
}

// recordPlacement creates the placement record behind a placed application.
// The unique studentId index rejects a second placement for the same student.
func (p *Portal) recordPlacement(ctx *rest.EndpointContext, application *models.Application) error {
	job, err := p.Jobs.FindById(ctx.Context(), application.JobID)
	if err != nil {
		ctx.App.Errorf("job lookup for placement failed: %v", err)
		return http_errors.InternalServerError("Failed to record placement")
	}

	placement := models.Placement{
		StudentID: application.StudentID,
		JobID:     application.JobID,
		CompanyID: job.CompanyID,
		CTC:       job.CTC,
	}

	if _, err := p.Placements.Insert(ctx.Context(), placement); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return http_errors.ConflictError("Student already has a recorded placement")
		}
		ctx.App.Errorf("placement creation failed: %v", err)
		return http_errors.InternalServerError("Failed to record placement")
	}

	if err := p.Students.UpdateById(ctx.Context(), application.StudentID, bson.M{"placed": true}); err != nil {
		ctx.App.Warnf("failed to flag student %s as placed: %v", application.StudentID.Hex(), err)
	}

	return nil
}

// withdrawApplication lets a student pull back an application that has not
// moved past the applied stage.
func (p *Portal) withdrawApplication(ctx *rest.EndpointContext) error {
	id := ctx.ParsedPath["id"].(bson.ObjectID)

	application, err := p.Applications.FindById(ctx.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return http_errors.NotFoundError("Application not found")
		}
		ctx.App.Errorf("application lookup failed: %v", err)
		return http_errors.InternalServerError("Failed to withdraw application")
	}

	if application.StudentID.Hex() != ctx.Principal.ID {
		return http_errors.RoleForbiddenError(ctx.Principal.Role)
	}
	if application.Status != models.ApplicationApplied {
		return http_errors.ConflictError("Only applications in the applied state can be withdrawn")
	}

	if err := p.Applications.DeleteById(ctx.Context(), id); err != nil {
		ctx.App.Errorf("application delete failed: %v", err)
		return http_errors.InternalServerError("Failed to withdraw application")
	}

	return ctx.RespondAndLog(nil, id.Hex(), rest.ResponseTypeNoContent, 204)
}

// scoreResumeAsync asks the resume scorer for a match score off the request
// path; the application is updated when the score arrives.
func (p *Portal) scoreResumeAsync(applicationID bson.ObjectID, resumeURL string, jobDescription string) {
	if p.Scorer == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		score, err := p.Scorer.Score(ctx, resumeURL, jobDescription)
		if err != nil {
			return
		}

		_ = p.Applications.UpdateById(ctx, applicationID, bson.M{"resumeScore": score})
	}()
}

func (p *Portal) notifyAsync(to string, subject string, body string) {
	if p.Mailer == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = p.Mailer.Send(ctx, to, subject, body)
	}()
}
