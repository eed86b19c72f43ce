package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"careermap-backend/internal/llm"
	openai "careermap-backend/internal/llm/openai"
	"careermap-backend/internal/mindmap"
	"careermap-backend/internal/profiles"
	"careermap-backend/internal/resources"
	"careermap-backend/internal/roadmaps"
	"careermap-backend/internal/services/health"
	"careermap-backend/internal/shared/config"
	"careermap-backend/internal/shared/server"
	"careermap-backend/internal/shared/storage/db"
	"careermap-backend/internal/shared/storage/object"
	localstore "careermap-backend/internal/shared/storage/object/local"
	s3store "careermap-backend/internal/shared/storage/object/s3"
	"careermap-backend/internal/shared/telemetry"
	"careermap-backend/internal/viewer"
)

// App holds shared dependencies and the HTTP router.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	States           viewer.StateStore
	Runner           llm.Runner
	ProfilesService  *profiles.Service
	RoadmapsService  *roadmaps.Service
	ResourcesService *resources.Service
	ViewerService    *viewer.Service
	closers          []func() error
}

// Build prepares dependencies and wires routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	telemetry.Configure(os.Stdout, cfg.LogLevel)

	app := &App{Config: cfg}
	var err error
	if app.DB, err = buildDB(ctx, cfg); err != nil {
		return nil, err
	}
	if app.DB != nil {
		app.closers = append(app.closers, app.DB.Close)
	}
	if app.Store, err = buildStore(ctx, cfg); err != nil {
		return nil, err
	}
	if app.States, err = buildStates(ctx, cfg); err != nil {
		return nil, err
	}
	if closer, ok := app.States.(interface{ Close() error }); ok {
		app.closers = append(app.closers, closer.Close)
	}
	client, err := buildLLMClient(cfg)
	if err != nil {
		return nil, err
	}
	app.Runner = llm.Runner{
		Client:         client,
		Timeout:        cfg.LLMTimeout,
		RepairAttempts: cfg.LLMRepairAttempts,
		Provider:       cfg.LLMProvider,
		Model:          cfg.LLMModel,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:    cfg,
		Health:    health.NewService(pinger(app.DB)),
		Profiles:  profiles.NewHandler(app.ProfilesService),
		Roadmaps:  roadmaps.NewHandler(app.RoadmapsService),
		Resources: resources.NewHandler(app.ResourcesService),
		Viewer:    viewer.NewHandler(app.ViewerService),
	})
	return app, nil
}

// Close releases the database pool and Redis client.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	telemetry.Sync()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Info("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "database unavailable", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildStates(ctx context.Context, cfg config.Config) (viewer.StateStore, error) {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return viewer.NewMemoryStore(cfg.ViewStateTTL), nil
	}
	store, err := viewer.NewRedisStore(ctx, cfg.RedisAddr, cfg.ViewStateTTL)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_view_state", map[string]any{"error": err})
			return viewer.NewMemoryStore(cfg.ViewStateTTL), nil
		}
		return nil, err
	}
	return store, nil
}

func buildLLMClient(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider != "openai" {
		telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"provider": cfg.LLMProvider})
		return llm.PlaceholderClient{}, nil
	}
	client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.OpenAIBaseURL)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"provider": cfg.LLMProvider, "error": err})
			return llm.PlaceholderClient{}, nil
		}
		return nil, err
	}
	return llm.WithTransientRetries(client, cfg.LLMTransientRetries), nil
}

func buildServices(app *App) error {
	var (
		profileRepo profiles.Repo
		roadmapRepo roadmaps.Repo
	)
	if app.DB != nil {
		profileRepo = &profiles.PGRepo{DB: app.DB}
		roadmapRepo = &roadmaps.PGRepo{DB: app.DB}
	} else {
		profileRepo = profiles.NewMemoryRepo()
		roadmapRepo = roadmaps.NewMemoryRepo()
	}

	app.ProfilesService = profiles.NewService(app.Runner, profileRepo, app.Store)
	roadmapSvc, err := roadmaps.NewService(app.Runner, roadmapRepo, app.ProfilesService, app.Config.RoadmapSchemaVersion)
	if err != nil {
		return err
	}
	app.RoadmapsService = roadmapSvc
	app.ResourcesService = resources.NewService(app.Runner)
	app.ViewerService = viewer.NewService(roadmapSvc, app.States, app.Store)
	app.ViewerService.Render = mindmap.RenderOptions{FontPath: app.Config.MindmapFontPath}
	return nil
}

// pinger avoids handing a typed nil *sql.DB to the health service.
func pinger(sqlDB *sql.DB) health.Pinger {
	if sqlDB == nil {
		return nil
	}
	return sqlDB
}
