package app

import (
	"go-ems/internal/auth"
	"go-ems/internal/config"
	"go-ems/internal/employee"
	"go-ems/internal/shared/filestore"
	"go-ems/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type modules struct {
	db        *gorm.DB
	rdb       *redis.Client
	files     *filestore.FileStore
	publisher employee.EventPublisher
}

func registerModules(
	router *gin.Engine,
	cfg config.Config,
	deps modules,
	logger *zap.Logger,
) {
	// --- Repositories ---
	authRepo := auth.NewRepository(deps.db)
	employeeRepo := employee.NewRepository(deps.db)

	// --- Services ---
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	authService := auth.NewService(authRepo, tokens, logger)
	employeeService := employee.NewService(employeeRepo, deps.files, deps.publisher, logger)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, logger)
	employeeHandler := employee.NewHandler(employeeService, logger)

	pictureUpload := upload.SingleFile(
		deps.files,
		upload.FieldProfilePicture,
		upload.ImageLimits(cfg.UploadMaxBytes),
		logger,
	)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, tokens, rate.Limit(cfg.LoginRatePerSec), cfg.LoginRateBurst)
		employee.RegisterRoutes(api.Group("/emp"), employeeHandler, tokens, pictureUpload, deps.rdb)
	}
}
