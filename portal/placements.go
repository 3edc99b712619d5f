package portal

import (
	rest "github.com/talentbridge/placement-rest"
	"github.com/talentbridge/placement-rest/database"
	"github.com/talentbridge/placement-rest/http_errors"
	"github.com/talentbridge/placement-rest/models"
)

// PlacementStats summarizes the season for the dashboard.
type PlacementStats struct {
	TotalStudents   int64   `json:"totalStudents"`
	PlacedStudents  int64   `json:"placedStudents"`
	TotalPlacements int64   `json:"totalPlacements"`
	OpenJobs        int64   `json:"openJobs"`
	AverageCTC      float64 `json:"averageCtc"`
	HighestCTC      float64 `json:"highestCtc"`
}

func (p *Portal) placementEndpoints() []*rest.Endpoint {
	return []*rest.Endpoint{
		{
			Name:         "ListPlacements",
			Method:       rest.MethodGET,
			Path:         "/placements",
			Roles:        officerRoles,
			CacheSeconds: 60,
			ActionType:   rest.ActionTypeRead,
			Model:        "Placement",
			Accepts: []rest.Param{
				rest.NewQueryParam("filter", rest.QueryParamTypeFilter),
			},
			AuditDisabled: true,
			Handler:       p.listPlacements,
		},
		{
			Name:          "PlacementStats",
			Method:        rest.MethodGET,
			Path:          "/placements/stats",
			CacheSeconds:  120,
			ActionType:    rest.ActionTypeRead,
			Model:         "Placement",
			AuditDisabled: true,
			Handler:       p.placementStats,
		},
	}
}

func (p *Portal) listPlacements(ctx *rest.EndpointContext) error {
	filter, err := ctx.GetFilterParam()
	if err != nil {
		return err
	}
	if filter == nil {
		filter = database.NewFilter().Sort("created", true)
	}

	placements, err := p.Placements.Find(ctx.Context(), filter)
	if err != nil {
		ctx.App.Errorf("placement listing failed: %v", err)
		return http_errors.InternalServerError("Failed to list placements")
	}

	return ctx.JSON(rest.OK(placements))
}

func (p *Portal) placementStats(ctx *rest.EndpointContext) error {
	totalStudents, err := p.Students.Count(ctx.Context(), nil)
	if err != nil {
		ctx.App.Errorf("stats query failed: %v", err)
		return http_errors.InternalServerError("Failed to compute stats")
	}

	placedStudents, err := p.Students.Count(ctx.Context(), database.NewFilter().Eq("placed", true))
	if err != nil {
		ctx.App.Errorf("stats query failed: %v", err)
		return http_errors.InternalServerError("Failed to compute stats")
	}

	openJobs, err := p.Jobs.Count(ctx.Context(), database.NewFilter().Eq("status", models.JobOpen))
	if err != nil {
		ctx.App.Errorf("stats query failed: %v", err)
		return http_errors.InternalServerError("Failed to compute stats")
	}

	placements, err := p.Placements.Find(ctx.Context(), database.NewFilter().Include("ctc"))
	if err != nil {
		ctx.App.Errorf("stats query failed: %v", err)
		return http_errors.InternalServerError("Failed to compute stats")
	}

	stats := PlacementStats{
		TotalStudents:   totalStudents,
		PlacedStudents:  placedStudents,
		TotalPlacements: int64(len(placements)),
		OpenJobs:        openJobs,
	}

	var totalCTC float64
	for _, placement := range placements {
		totalCTC += placement.CTC
		if placement.CTC > stats.HighestCTC {
			stats.HighestCTC = placement.CTC
		}
	}
	if len(placements) > 0 {
		stats.AverageCTC = totalCTC / float64(len(placements))
	}

	return ctx.JSON(rest.OK(stats))
}
