package portal

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	rest "github.com/talentbridge/placement-rest"
	"github.com/talentbridge/placement-rest/database"
	"github.com/talentbridge/placement-rest/http_errors"
	"github.com/talentbridge/placement-rest/models"
)

type CompanyRequest struct {
	Name         string `json:"name" validate:"required" normalize:"trim"`
	Website      string `json:"website" validate:"omitempty,url" normalize:"trim,lowercase"`
	Description  string `json:"description" sanitize:"html" normalize:"trim"`
	ContactName  string `json:"contactName" normalize:"trim"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email" normalize:"trim,lowercase"`
}

func (CompanyRequest) Validate(*rest.EndpointContext) error { return nil }

var officerRoles = []rest.EndpointRole{models.RolePlacementOfficer, models.RoleAdmin}

func (p *Portal) companyEndpoints() []*rest.Endpoint {
	return []*rest.Endpoint{
		{
			Name:         "ListCompanies",
			Method:       rest.MethodGET,
			Path:         "/companies",
			CacheSeconds: 60,
			ActionType:   rest.ActionTypeRead,
			Model:        "Company",
			Accepts: []rest.Param{
				rest.NewQueryParam("filter", rest.QueryParamTypeFilter),
			},
			AuditDisabled: true,
			Handler:       p.listCompanies,
		},
		{
			Name:       "GetCompany",
			Method:     rest.MethodGET,
			Path:       "/companies/:id",
			ActionType: rest.ActionTypeRead,
			Model:      "Company",
			Accepts: []rest.Param{
				rest.NewPathParam("id", rest.PathParamTypeObjectID, true),
			},
			AuditDisabled: true,
			Handler:       p.getCompany,
		},
		{
			Name:       "CreateCompany",
			Method:     rest.MethodPOST,
			Path:       "/companies",
			Roles:      officerRoles,
			ActionType: rest.ActionTypeCreate,
			Model:      "Company",
			BodyParams: func() rest.Validable { return &CompanyRequest{} },
			Handler:    p.createCompany,
		},
		{
			Name:       "UpdateCompany",
			Method:     rest.MethodPATCH,
			Path:       "/companies/:id",
			Roles:      officerRoles,
			ActionType: rest.ActionTypeUpdate,
			Model:      "Company",
			Accepts: []rest.Param{
				rest.NewPathParam("id", rest.PathParamTypeObjectID, true),
			},
			BodyParams: func() rest.Validable { return &CompanyRequest{} },
			Handler:    p.updateCompany,
		},
		{
			Name:       "DeleteCompany",
			Method:     rest.MethodDELETE,
			Path:       "/companies/:id",
			Roles:      []rest.EndpointRole{models.RoleAdmin},
			ActionType: rest.ActionTypeDelete,
			Model:      "Company",
			Accepts: []rest.Param{
				rest.NewPathParam("id", rest.PathParamTypeObjectID, true),
			},
			Handler: p.deleteCompany,
		},
	}
}

func (p *Portal) listCompanies(ctx *rest.EndpointContext) error {
	filter, err := ctx.GetFilterParam()
	if err != nil {
		return err
	}

	companies, err := p.Companies.Find(ctx.Context(), filter)
	if err != nil {
		ctx.App.Errorf("company listing failed: %v", err)
		return http_errors.InternalServerError("Failed to list companies")
	}

	return ctx.JSON(rest.OK(companies))
}

func (p *Portal) getCompany(ctx *rest.EndpointContext) error {
	id := ctx.ParsedPath["id"].(bson.ObjectID)

	company, err := p.Companies.FindById(ctx.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return http_errors.NotFoundError("Company not found")
		}
		ctx.App.Errorf("company lookup failed: %v", err)
		return http_errors.InternalServerError("Failed to load company")
	}

	return ctx.JSON(rest.OK(company))
}

func (p *Portal) createCompany(ctx *rest.EndpointContext) error {
	body := ctx.ParsedBody.(*CompanyRequest)

	company := models.Company{
		Name:         body.Name,
		Website:      body.Website,
		Description:  body.Description,
		ContactName:  body.ContactName,
		ContactEmail: body.ContactEmail,
	}

	created, err := p.Companies.Create(ctx.Context(), company)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return http_errors.ConflictError("A company with this name already exists")
		}
		ctx.App.Errorf("company creation failed: %v", err)
		return http_errors.InternalServerError("Failed to create company")
	}

	return ctx.RespondAndLog(rest.OK(created), created.ID.Hex(), rest.ResponseTypeJSON, http.StatusCreated)
}

func (p *Portal) updateCompany(ctx *rest.EndpointContext) error {
	id := ctx.ParsedPath["id"].(bson.ObjectID)
	body := ctx.ParsedBody.(*CompanyRequest)

	set := bson.M{
		"name":         body.Name,
		"website":      body.Website,
		"description":  body.Description,
		"contactName":  body.ContactName,
		"contactEmail": body.ContactEmail,
	}

	if err := p.Companies.UpdateById(ctx.Context(), id, set); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return http_errors.NotFoundError("Company not found")
		}
		ctx.App.Errorf("company update failed: %v", err)
		return http_errors.InternalServerError("Failed to update company")
	}

	company, err := p.Companies.FindById(ctx.Context(), id)
	if err != nil {
		ctx.App.Errorf("company reload failed: %v", err)
		return http_errors.InternalServerError("Failed to load company")
	}

	return ctx.RespondAndLog(rest.OK(company), id.Hex(), rest.ResponseTypeJSON)
}

func (p *Portal) deleteCompany(ctx *rest.EndpointContext) error {
	id := ctx.ParsedPath["id"].(bson.ObjectID)

	openJobs, err := p.Jobs.Count(ctx.Context(), database.NewFilter().Eq("companyId", id).Eq("status", models.JobOpen))
	if err != nil {
		ctx.App.Errorf("company job count failed: %v", err)
		return http_errors.InternalServerError("Failed to delete company")
	}
	if openJobs > 0 {
		return http_errors.ConflictError("Company still has open job postings")
	}

	if err := p.Companies.DeleteById(ctx.Context(), id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return http_errors.NotFoundError("Company not found")
		}
		ctx.App.Errorf("company delete failed: %v", err)
		return http_errors.InternalServerError("Failed to delete company")
	}

	return ctx.RespondAndLog(nil, id.Hex(), rest.ResponseTypeNoContent, 204)
}
