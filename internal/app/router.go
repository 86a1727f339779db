package app

import (
	"context"
	"net/http"
	"time"

	"go-ems/internal/config"
	"go-ems/internal/middleware"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const apiVersion = "1.0.0"

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// NewRouter builds the engine with the global middleware chain and the
// routes that do not belong to a feature module.
func NewRouter(cfg config.Config, logger *zap.Logger, checks map[string]HealthCheck) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.ContextLogger(logger),
		middleware.Metrics(),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	r.GET("/", index)
	r.GET("/healthz", healthz(checks))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/uploads", cfg.UploadDir)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, apperror.CodeNotFound, apperror.ErrRouteNotFound.Message, nil)
	})

	return r
}

func index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Employee Management System API",
		"version": apiVersion,
		"endpoints": gin.H{
			"users": gin.H{
				"signup": "POST /api/v1/user/signup",
				"login":  "POST /api/v1/user/login",
				"me":     "GET /api/v1/user/me",
			},
			"employees": gin.H{
				"getAll":  "GET /api/v1/emp/employees",
				"getById": "GET /api/v1/emp/employees/:id",
				"create":  "POST /api/v1/emp/employees",
				"update":  "PUT /api/v1/emp/employees/:id",
				"delete":  "DELETE /api/v1/emp/employees/:id",
				"search":  "GET /api/v1/emp/employees/search?department=&position=",
			},
		},
	})
}

func healthz(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		c.JSON(status, gin.H{
			"success": status == http.StatusOK,
			"checks":  results,
		})
	}
}
