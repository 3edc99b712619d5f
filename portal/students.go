package portal

import (
	"errors"
	"os"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	rest "github.com/talentbridge/placement-rest"
	"github.com/talentbridge/placement-rest/database"
	"github.com/talentbridge/placement-rest/http_errors"
	"github.com/talentbridge/placement-rest/models"
)

type UpdateStudentRequest struct {
	Name     *string  `json:"name" validate:"omitempty,min=2" normalize:"trim"`
	Course   *string  `json:"course" normalize:"trim"`
	Branch   *string  `json:"branch" normalize:"trim,uppercase"`
	CGPA     *float64 `json:"cgpa" validate:"omitempty,gte=0,lte=10"`
	Backlogs *int     `json:"backlogs" validate:"omitempty,gte=0"`
	Phone    *string  `json:"phone" sanitize:"numeric"`
	About    *string  `json:"about" sanitize:"html" normalize:"trim"`
}

func (UpdateStudentRequest) Validate(*rest.EndpointContext) error { return nil }

// StudentProfile is a student document extended with its profile completion
// percentage.
type StudentProfile struct {
	models.Student
	ProfileCompletion int `json:"profileCompletion"`
}

func (p *Portal) studentEndpoints() []*rest.Endpoint {
	return []*rest.Endpoint{
		{
			Name:         "ListStudents",
			Method:       rest.MethodGET,
			Path:         "/students",
			Roles:        []rest.EndpointRole{models.RolePlacementOfficer, models.RoleAdmin},
			CacheSeconds: 30,
			ActionType:   rest.ActionTypeRead,
			Model:        "Student",
			Accepts: []rest.Param{
				rest.NewQueryParam("filter", rest.QueryParamTypeFilter),
			},
			AuditDisabled: true,
			Handler:       p.listStudents,
		},
		{
			Name:       "GetStudent",
			Method:     rest.MethodGET,
			Path:       "/students/:id",
			ActionType: rest.ActionTypeRead,
			Model:      "Student",
			Accepts: []rest.Param{
				rest.NewPathParam("id", rest.PathParamTypeObjectID, true),
			},
			AuditDisabled: true,
			Handler:       p.getStudent,
		},
		{
			Name:       "UpdateStudent",
			Method:     rest.MethodPATCH,
			Path:       "/students/:id",
			ActionType: rest.ActionTypeUpdate,
			Model:      "Student",
			Accepts: []rest.Param{
				rest.NewPathParam("id", rest.PathParamTypeObjectID, true),
			},
			BodyParams: func() rest.Validable { return &UpdateStudentRequest{} },
			Handler:    p.updateStudent,
		},
		{
			Name:       "DeleteStudent",
			Method:     rest.MethodDELETE,
			Path:       "/students/:id",
			Roles:      []rest.EndpointRole{models.RoleAdmin},
			ActionType: rest.ActionTypeDelete,
			Model:      "Student",
			Accepts: []rest.Param{
				rest.NewPathParam("id", rest.PathParamTypeObjectID, true),
			},
			Handler: p.deleteStudent,
		},
		{
			Name:       "UploadResume",
			Method:     rest.MethodPOST,
			Path:       "/students/:id/resume",
			ActionType: rest.ActionTypeUpload,
			Model:      "Student",
			Accepts: []rest.Param{
				rest.NewPathParam("id", rest.PathParamTypeObjectID, true),
			},
			FileUploadConfig: &rest.FileUploadConfig{
				FileFields: map[string]*rest.FileFieldConfig{
					"resume": {
						Required:     true,
						MaxFiles:     1,
						AllowedTypes: []rest.FileExtension{".pdf"},
					},
				},
			},
			Handler: p.uploadResume,
		},
	}
}

// requireSelfOrRoles admits the principal when it owns the addressed record or
// carries one of the given roles.
func requireSelfOrRoles(ctx *rest.EndpointContext, id bson.ObjectID, roles ...models.Role) error {
	if ctx.Principal == nil {
		return http_errors.UnauthenticatedError()
	}
	if ctx.Principal.ID == id.Hex() {
		return nil
	}
	for _, role := range roles {
		if ctx.Principal.Role == string(role) {
			return nil
		}
	}
	return http_errors.RoleForbiddenError(ctx.Principal.Role)
}

func (p *Portal) listStudents(ctx *rest.EndpointContext) error {
	filter, err := ctx.GetFilterParam()
	if err != nil {
		return err
	}
	if filter == nil {
		filter = database.NewFilter()
	}
	filter.Exclude("password")

	students, err := p.Students.Find(ctx.Context(), filter)
	if err != nil {
		ctx.App.Errorf("student listing failed: %v", err)
		return http_errors.InternalServerError("Failed to list students")
	}

	return ctx.JSON(rest.OK(students))
}

func (p *Portal) getStudent(ctx *rest.EndpointContext) error {
	id := ctx.ParsedPath["id"].(bson.ObjectID)

	if err := requireSelfOrRoles(ctx, id, models.RolePlacementOfficer, models.RoleAdmin); err != nil {
		return err
	}

	student, err := p.Students.FindById(ctx.Context(), id, identityProjection())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return http_errors.NotFoundError("Student not found")
		}
		ctx.App.Errorf("student lookup failed: %v", err)
		return http_errors.InternalServerError("Failed to load student")
	}

	return ctx.JSON(rest.OK(StudentProfile{
		Student:           *student,
		ProfileCompletion: student.ProfileCompletion(),
	}))
}

func (p *Portal) updateStudent(ctx *rest.EndpointContext) error {
	id := ctx.ParsedPath["id"].(bson.ObjectID)

	if err := requireSelfOrRoles(ctx, id, models.RoleAdmin); err != nil {
		return err
	}

	body := ctx.ParsedBody.(*UpdateStudentRequest)

	set := bson.M{}
	if body.Name != nil {
		set["name"] = *body.Name
	}
	if body.Course != nil {
		set["course"] = models.NormalizeCourse(*body.Course)
	}
	if body.Branch != nil {
		set["branch"] = *body.Branch
	}
	if body.CGPA != nil {
		set["cgpa"] = *body.CGPA
	}
	if body.Backlogs != nil {
		set["backlogs"] = *body.Backlogs
	}
	if body.Phone != nil {
		set["phone"] = *body.Phone
	}
	if body.About != nil {
		set["about"] = *body.About
	}

	if len(set) == 0 {
		return http_errors.BadRequestError("Nothing to update")
	}

	if err := p.Students.UpdateById(ctx.Context(), id, set); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return http_errors.NotFoundError("Student not found")
		}
		ctx.App.Errorf("student update failed: %v", err)
		return http_errors.InternalServerError("Failed to update student")
	}

	student, err := p.Students.FindById(ctx.Context(), id, identityProjection())
	if err != nil {
		ctx.App.Errorf("student reload failed: %v", err)
		return http_errors.InternalServerError("Failed to load student")
	}

	return ctx.RespondAndLog(rest.OK(student), id.Hex(), rest.ResponseTypeJSON)
}

func (p *Portal) deleteStudent(ctx *rest.EndpointContext) error {
	id := ctx.ParsedPath["id"].(bson.ObjectID)

	if err := p.Students.DeleteById(ctx.Context(), id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return http_errors.NotFoundError("Student not found")
		}
		ctx.App.Errorf("student delete failed: %v", err)
		return http_errors.InternalServerError("Failed to delete student")
	}

	// Applications of a removed student are removed with it.
	if _, err := p.Applications.DeleteMany(ctx.Context(), database.NewFilter().Eq("studentId", id)); err != nil {
		ctx.App.Warnf("failed to remove applications of deleted student %s: %v", id.Hex(), err)
	}

	return ctx.RespondAndLog(nil, id.Hex(), rest.ResponseTypeNoContent, 204)
}

// uploadResume streams the uploaded PDF into the configured file storage and
// records its URL on the student.
func (p *Portal) uploadResume(ctx *rest.EndpointContext) error {
	id := ctx.ParsedPath["id"].(bson.ObjectID)

	if err := requireSelfOrRoles(ctx, id, models.RoleAdmin); err != nil {
		return err
	}

	uploaded := ctx.GetFirstUploadedFile("resume")
	if uploaded == nil {
		return http_errors.BadRequestError("Field 'resume' is required")
	}

	file, err := os.Open(uploaded.Path)
	if err != nil {
		ctx.App.Errorf("failed to open uploaded resume: %v", err)
		return http_errors.InternalServerError("Failed to store resume")
	}
	defer file.Close()

	url, err := p.Storage.Put(ctx.Context(), uploaded.Filename, file)
	if err != nil {
		ctx.App.Errorf("resume storage failed: %v", err)
		return http_errors.InternalServerError("Failed to store resume")
	}

	if err := p.Students.UpdateById(ctx.Context(), id, bson.M{"resumeUrl": url}); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return http_errors.NotFoundError("Student not found")
		}
		ctx.App.Errorf("resume url update failed: %v", err)
		return http_errors.InternalServerError("Failed to store resume")
	}

	return ctx.RespondAndLog(rest.OK(map[string]string{"resumeUrl": url}), id.Hex(), rest.ResponseTypeJSON)
}
