package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"careermap-backend/internal/profiles"
	"careermap-backend/internal/resources"
	"careermap-backend/internal/roadmaps"
	"careermap-backend/internal/services/health"
	"careermap-backend/internal/shared/config"
	"careermap-backend/internal/shared/metrics"
	"careermap-backend/internal/shared/server/middleware"
	"careermap-backend/internal/shared/server/respond"
	"careermap-backend/internal/viewer"
)

const apiPrefix = "/api/v1"

// RouterDeps carries the handlers mounted on the router. Nil handlers are skipped.
type RouterDeps struct {
	Config    config.Config
	Health    *health.Service
	Profiles  *profiles.Handler
	Roadmaps  *roadmaps.Handler
	Resources *resources.Handler
	Viewer    *viewer.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(apiPrefix+"/health", "/metrics"),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    rateRules(deps.Config),
			GroupFor: rateGroup,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil)
	}
	api := r.Group(apiPrefix)
	api.GET("/health", func(c *gin.Context) {
		ok, checks := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, gin.H{"ok": ok, "checks": checks})
	})
	registerMeRoutes(api)

	if deps.Profiles != nil {
		deps.Profiles.RegisterRoutes(api)
	}
	if deps.Roadmaps != nil {
		deps.Roadmaps.RegisterRoutes(api)
	}
	if deps.Resources != nil {
		deps.Resources.RegisterRoutes(api)
	}
	if deps.Viewer != nil {
		deps.Viewer.RegisterRoutes(api)
	}

	return r
}

func rateRules(cfg config.Config) map[string]middleware.RateLimitRule {
	rules := map[string]middleware.RateLimitRule{}
	if cfg.RateLimitLLM > 0 {
		rules[middleware.RateGroupLLM] = middleware.RateLimitRule{
			Rate:  float64(cfg.RateLimitLLM) / 60,
			Burst: cfg.RateLimitLLM,
		}
	}
	if cfg.RateLimitDefault > 0 {
		rules[middleware.RateGroupDefault] = middleware.RateLimitRule{
			Rate:  float64(cfg.RateLimitDefault) / 60,
			Burst: cfg.RateLimitDefault,
		}
	}
	return rules
}

// rateGroup puts every route that calls the model into the LLM group.
func rateGroup(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return middleware.RateGroupDefault
	}
	path := strings.TrimSuffix(c.Request.URL.Path, "/")
	switch {
	case path == apiPrefix+"/profile/turn",
		path == apiPrefix+"/profile/sessions",
		strings.HasPrefix(path, apiPrefix+"/profile/sessions/") && strings.HasSuffix(path, "/answers"),
		path == apiPrefix+"/roadmaps",
		strings.HasPrefix(path, apiPrefix+"/roadmaps/") && strings.HasSuffix(path, "/regenerate"),
		path == apiPrefix+"/resources/recommendations":
		return middleware.RateGroupLLM
	default:
		return middleware.RateGroupDefault
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
