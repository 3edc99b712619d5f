// Package portal defines the placement portal's HTTP surface: the endpoints,
// their role gates and the handlers behind them. Everything here is wired onto
// the rest application at startup.
package portal

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	rest "github.com/talentbridge/placement-rest"
	"github.com/talentbridge/placement-rest/authtoken"
	"github.com/talentbridge/placement-rest/database"
	"github.com/talentbridge/placement-rest/models"
	"github.com/talentbridge/placement-rest/services"
)

// Portal aggregates the repositories and collaborators the handlers need.
type Portal struct {
	Codec        *authtoken.Codec
	Students     database.Repository[models.Student]
	Users        database.Repository[models.User]
	Companies    database.Repository[models.Company]
	Jobs         database.Repository[models.Job]
	Applications database.Repository[models.Application]
	Placements   database.Repository[models.Placement]

	Mailer  services.Mailer
	Storage services.FileStorage
	Scorer  services.ResumeScorer
}

// Endpoints returns every portal endpoint, ready to be registered on an API
// group.
func (p *Portal) Endpoints() []*rest.Endpoint {
	var endpoints []*rest.Endpoint
	endpoints = append(endpoints, p.authEndpoints()...)
	endpoints = append(endpoints, p.studentEndpoints()...)
	endpoints = append(endpoints, p.companyEndpoints()...)
	endpoints = append(endpoints, p.jobEndpoints()...)
	endpoints = append(endpoints, p.applicationEndpoints()...)
	endpoints = append(endpoints, p.placementEndpoints()...)
	return endpoints
}

// identityProjection strips credential fields from identity lookups.
func identityProjection() *database.Filter {
	return database.NewFilter().Exclude("password")
}

// StudentIdentitySource resolves token subjects against the students
// collection.
type StudentIdentitySource struct {
	Repository database.Repository[models.Student]
}

func (StudentIdentitySource) Kind() rest.PrincipalKind { return rest.PrincipalKindStudent }

func (s StudentIdentitySource) FindByID(ctx context.Context, id string) (*rest.ResolvedIdentity, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	student, err := s.Repository.FindById(ctx, oid, identityProjection())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	role := string(student.Role)
	if role == "" {
		role = string(models.RoleStudent)
	}

	return &rest.ResolvedIdentity{
		ID:    student.ID.Hex(),
		Email: student.Email,
		Name:  student.Name,
		Role:  role,
	}, nil
}

// UserIdentitySource resolves token subjects against the users collection
// (placement officers and admins).
type UserIdentitySource struct {
	Repository database.Repository[models.User]
}

func (UserIdentitySource) Kind() rest.PrincipalKind { return rest.PrincipalKindUser }

func (u UserIdentitySource) FindByID(ctx context.Context, id string) (*rest.ResolvedIdentity, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	user, err := u.Repository.FindById(ctx, oid, identityProjection())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &rest.ResolvedIdentity{
		ID:    user.ID.Hex(),
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
	}, nil
}
