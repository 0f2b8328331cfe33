package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/stride/internal/config"
	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/handler"
	"github.com/mansoorceksport/stride/internal/middleware"
	"github.com/mansoorceksport/stride/internal/repository"
	"github.com/mansoorceksport/stride/internal/service"
	"github.com/mansoorceksport/stride/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const idempotencyTTL = 24 * time.Hour

// AppDependencies holds the dependencies required to start the application.
// FileStore, ExerciseSource, Metrics and RedisClient are optional.
type AppDependencies struct {
	Config         *config.Config
	MongoDB        *mongo.Database
	RedisClient    *redis.Client
	AuthClient     service.FirebaseAuthClient
	FileStore      domain.FileRepository
	ExerciseSource domain.ExerciseSource
	Clock          domain.Clock
	Metrics        *telemetry.Metrics
	// Repositories overrides the Mongo-backed stores.
	Repositories *Repositories
	// DisableAccessLog silences the per-request log line, e.g. in tests.
	DisableAccessLog bool
}

// Services are the wired application services, exposed for the CLI tools
// that share the server's wiring.
type Services struct {
	Auth       *service.AuthService
	Profiles   *service.ProfileService
	Catalog    *service.CatalogService
	Plans      *service.PlanService
	Scheduler  *service.Scheduler
	Resolver   *service.DailyResolver
	Sessions   *service.SessionTracker
	Challenges *service.ChallengeService
}

// Repositories are the stores behind the services.
type Repositories struct {
	Users       domain.UserRepository
	Profiles    domain.ProfileRepository
	Catalog     domain.CatalogRepository
	Plans       domain.PlanRepository
	Schedule    domain.ScheduleRepository
	Daily       domain.DailyResolutionRepository
	Sessions    domain.WorkoutSessionRepository
	Challenges  domain.ChallengeRepository
	Enrollments domain.EnrollmentRepository
}

// NewMongoRepositories builds the Mongo-backed stores. The daily resolution
// store gets a Redis read-through cache when redisClient is set. clock stamps
// writes that carry no timestamp of their own.
func NewMongoRepositories(db *mongo.Database, redisClient *redis.Client, cacheTTL time.Duration, clock domain.Clock) *Repositories {
	var dailyRepo domain.DailyResolutionRepository = repository.NewMongoDailyResolutionRepository(db, clock)
	if redisClient != nil {
		cache := repository.NewRedisCacheRepository(redisClient)
		dailyRepo = repository.NewCachedDailyResolutionRepository(dailyRepo, cache, cacheTTL)
	}

	return &Repositories{
		Users:       repository.NewMongoUserRepository(db),
		Profiles:    repository.NewMongoProfileRepository(db),
		Catalog:     repository.NewMongoCatalogRepository(db),
		Plans:       repository.NewMongoPlanRepository(db, clock),
		Schedule:    repository.NewMongoScheduleRepository(db, clock),
		Daily:       dailyRepo,
		Sessions:    repository.NewMongoWorkoutSessionRepository(db, clock),
		Challenges:  repository.NewMongoChallengeRepository(db),
		Enrollments: repository.NewMongoEnrollmentRepository(db),
	}
}

// NewServices wires the application services. deps.Repositories is built
// from deps.MongoDB when unset.
func NewServices(deps AppDependencies) *Services {
	clock := deps.Clock
	if clock == nil {
		clock = domain.NewSystemClock(deps.Config.Location())
	}
	repos := deps.Repositories
	if repos == nil {
		repos = NewMongoRepositories(deps.MongoDB, deps.RedisClient, deps.Config.Redis.CacheTTL, clock)
	}

	catalogService := service.NewCatalogService(repos.Catalog, deps.ExerciseSource, clock, deps.Metrics)
	scheduler := service.NewScheduler(repos.Schedule, repos.Daily, repos.Sessions, clock)
	planService := service.NewPlanService(repos.Profiles, repos.Plans, repos.Catalog, catalogService, scheduler, clock, deps.Metrics)

	return &Services{
		Auth:       service.NewAuthService(repos.Users, deps.AuthClient, deps.Config.JWT, clock),
		Profiles:   service.NewProfileService(repos.Profiles, planService, clock),
		Catalog:    catalogService,
		Plans:      planService,
		Scheduler:  scheduler,
		Resolver:   service.NewDailyResolver(repos.Daily, repos.Schedule, repos.Catalog, repos.Sessions, clock, deps.Metrics),
		Sessions:   service.NewSessionTracker(repos.Sessions, repos.Catalog, repos.Schedule, repos.Daily, deps.FileStore, clock, deps.Metrics),
		Challenges: service.NewChallengeService(repos.Challenges, repos.Enrollments, repos.Profiles, clock),
	}
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	if deps.Clock == nil {
		deps.Clock = domain.NewSystemClock(deps.Config.Location())
	}
	svc := NewServices(deps)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(svc.Auth)
	profileHandler := handler.NewProfileHandler(svc.Profiles)
	catalogHandler := handler.NewCatalogHandler(svc.Catalog)
	planHandler := handler.NewPlanHandler(svc.Plans, svc.Scheduler, svc.Resolver, deps.Clock)
	sessionHandler := handler.NewSessionHandler(svc.Sessions, deps.Clock)
	challengeHandler := handler.NewChallengeHandler(svc.Challenges)

	app := fiber.New(fiber.Config{
		AppName:      "Stride API",
		ErrorHandler: handler.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if !deps.DisableAccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	if deps.Config.OTEL.Enabled {
		app.Use(telemetry.FiberMiddleware())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID, X-Request-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "stride-api",
		})
	})

	authenticated := []fiber.Handler{
		middleware.VerifyToken(deps.Config.JWT.Secret, deps.Clock),
		tagUser,
	}
	var idempotent fiber.Handler = func(c *fiber.Ctx) error { return c.Next() }
	if deps.RedisClient != nil {
		idempotent = middleware.Idempotency(deps.RedisClient, idempotencyTTL)
	}

	v1 := app.Group("/v1")

	// Auth endpoints (public)
	v1.Post("/auth/login", authHandler.LoginOrRegister)

	// Challenge definitions (public)
	v1.Get("/challenges", challengeHandler.ListChallenges)

	// ===========================================
	// CATALOG - read for members, write for admins
	// ===========================================
	catalog := v1.Group("/catalog", authenticated...)
	catalog.Get("/", catalogHandler.ListWorkouts)
	catalog.Get("/:id", catalogHandler.GetWorkout)
	catalog.Post("/", middleware.AuthorizeRole(domain.RoleAdmin), catalogHandler.CreateWorkout)
	catalog.Put("/:id", middleware.AuthorizeRole(domain.RoleAdmin), catalogHandler.UpdateWorkout)

	// ===========================================
	// MEMBER API - /v1/me/*
	// ===========================================
	me := v1.Group("/me", authenticated...)
	me.Use(middleware.AuthorizeRole(domain.RoleMember, domain.RoleAdmin))

	me.Get("/profile", profileHandler.GetProfile)
	me.Put("/profile", profileHandler.UpsertProfile)
	me.Delete("/profile", profileHandler.DeleteProfile)

	me.Post("/plan", idempotent, planHandler.GeneratePlan)
	me.Get("/plan", planHandler.GetPlan)
	me.Get("/plan/workouts", planHandler.GetPlanWorkouts)
	me.Get("/schedule", planHandler.GetSchedule)
	me.Get("/today", planHandler.GetToday)
	me.Get("/daily", planHandler.GetDaily)

	meSessions := me.Group("/sessions")
	meSessions.Post("/", idempotent, sessionHandler.StartSession)
	meSessions.Get("/", sessionHandler.ListSessions)
	meSessions.Get("/:id", sessionHandler.GetSession)
	meSessions.Put("/:id", sessionHandler.UpdateSession)
	meSessions.Post("/:id/complete", idempotent, sessionHandler.CompleteSession)

	meChallenges := me.Group("/challenges")
	meChallenges.Get("/", challengeHandler.ListMyChallenges)
	meChallenges.Post("/auto-assign", challengeHandler.AutoAssign)
	meChallenges.Post("/:key/enroll", idempotent, challengeHandler.Enroll)
	meChallenges.Post("/:key/progress", challengeHandler.RecordProgress)
	meChallenges.Put("/:key/status", challengeHandler.SetStatus)

	return app
}

// tagUser records the authenticated user on the request span.
func tagUser(c *fiber.Ctx) error {
	telemetry.SetSpanAttribute(c, "enduser.id", middleware.GetUserID(c))
	return c.Next()
}
