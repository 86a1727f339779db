package auth

import (
	"go-ems/internal/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, verifier middleware.TokenVerifier, loginRate rate.Limit, loginBurst int) {
	user := r.Group("/user")
	{
		user.POST("/signup", middleware.RateLimitByIP(loginRate, loginBurst), handler.Signup)
		user.POST("/login", middleware.RateLimitByIP(loginRate, loginBurst), handler.Login)
		user.GET("/me", middleware.AuthMiddleware(verifier), middleware.RateLimitByUser(2, 5), handler.Me)
	}
}
