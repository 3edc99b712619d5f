package main

import (
	"log"
	"os"

	rest "github.com/talentbridge/placement-rest"
	"github.com/talentbridge/placement-rest/authtoken"
	"github.com/talentbridge/placement-rest/database"
	"github.com/talentbridge/placement-rest/helpers"
	"github.com/talentbridge/placement-rest/models"
	"github.com/talentbridge/placement-rest/portal"
	"github.com/talentbridge/placement-rest/services"
)

func main() {
	connector, err := database.NewDefaultMongoConnector()
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}

	ds := &database.Datasource{}
	if err := ds.AddConnector(connector); err != nil {
		log.Fatalf("failed to register connector: %v", err)
	}

	registered := []database.IModel{
		models.Student{},
		models.User{},
		models.Company{},
		models.Job{},
		models.Application{},
		models.Placement{},
	}
	for _, model := range registered {
		if err := ds.RegisterModel(model); err != nil {
			log.Fatalf("failed to register model %s: %v", model.GetModelName(), err)
		}
	}

	students, err := database.NewMongoRepository(ds, models.Student{})
	if err != nil {
		log.Fatalf("failed to build student repository: %v", err)
	}
	users, err := database.NewMongoRepository(ds, models.User{})
	if err != nil {
		log.Fatalf("failed to build user repository: %v", err)
	}
	companies, err := database.NewMongoRepository(ds, models.Company{})
	if err != nil {
		log.Fatalf("failed to build company repository: %v", err)
	}
	jobs, err := database.NewMongoRepository(ds, models.Job{})
	if err != nil {
		log.Fatalf("failed to build job repository: %v", err)
	}
	applications, err := database.NewMongoRepository(ds, models.Application{})
	if err != nil {
		log.Fatalf("failed to build application repository: %v", err)
	}
	placements, err := database.NewMongoRepository(ds, models.Placement{})
	if err != nil {
		log.Fatalf("failed to build placement repository: %v", err)
	}

	if err := ds.EnsureIndexes(); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

	codec := authtoken.NewCodecFromEnv()

	authorizer := rest.NewAuthorizer(codec,
		portal.StudentIdentitySource{Repository: students},
		portal.UserIdentitySource{Repository: users},
	)

	// The in-memory governor is per instance. Set RATE_STORE=redis to share
	// counters across replicas.
	var rateStore rest.RateStore = rest.NewMemoryRateStore()
	if helpers.GetEnv("RATE_STORE", "memory") == "redis" {
		rateStore = rest.NewRedisRateStore(rest.NewDefaultRedisClient())
	}

	generalLimit, authLimit := rest.DefaultRateLimits()

	app := rest.NewPortalApp(rest.PortalAppOptions{
		Name:          "placement-portal",
		Port:          uint16(helpers.GetEnvInt("PORT", 8080)),
		Datasource:    ds,
		LogLevel:      rest.LogLevelInfo,
		Authorizer:    authorizer,
		RateStore:     rateStore,
		RateLimit:     generalLimit,
		AuthRateLimit: authLimit,
		CacheStore:    rest.NewMemoryCacheStore(),
	})
	defer app.Destroy()

	uploadsDir := helpers.GetEnv("UPLOADS_DIR", "./uploads")
	storage, err := services.NewLocalFileStorage(uploadsDir, "/files")
	if err != nil {
		log.Fatalf("failed to prepare upload storage: %v", err)
	}

	p := &portal.Portal{
		Codec:        codec,
		Students:     students,
		Users:        users,
		Companies:    companies,
		Jobs:         jobs,
		Applications: applications,
		Placements:   placements,
		Mailer:       services.LogMailer{},
		Storage:      storage,
	}

	api := app.Group("/api")
	app.RegisterEndpoints(p.Endpoints(), api)

	app.RegisterStatic(rest.StaticConfig{
		Prefix:    "/files",
		Directory: uploadsDir,
	})

	if frontend := helpers.GetEnv("FRONTEND_DIR", ""); frontend != "" {
		app.RegisterStatic(rest.StaticConfig{
			Prefix:          "/",
			Directory:       frontend,
			EnableSPA:       true,
			ExcludePrefixes: []string{"/api", "/files"},
		})
	}

	if err := app.Start(); err != nil {
		app.Errorf("server stopped: %v", err)
		os.Exit(1)
	}
}
