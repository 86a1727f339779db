package employee

import (
	"time"

	"go-ems/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = 24 * time.Hour

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	verifier middleware.TokenVerifier,
	pictureUpload gin.HandlerFunc,
	rdb *redis.Client,
) {
	employees := r.Group("/employees")
	employees.Use(middleware.AuthMiddleware(verifier))
	{
		employees.GET("",
			middleware.RateLimitByUser(10, 20),
			handler.GetAll,
		)

		employees.GET("/search",
			middleware.RateLimitByUser(10, 20),
			handler.Search,
		)

		employees.GET("/:id",
			middleware.RateLimitByUser(10, 20),
			handler.GetByID,
		)

		employees.POST("",
			middleware.RateLimitByUser(2, 5),
			middleware.Idempotency(rdb, idempotencyTTL),
			pictureUpload,
			handler.Create,
		)

		employees.PUT("/:id",
			middleware.RateLimitByUser(2, 5),
			pictureUpload,
			handler.Update,
		)

		employees.DELETE("/:id",
			middleware.RateLimitByUser(1, 3),
			handler.Delete,
		)
	}
}
