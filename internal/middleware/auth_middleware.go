package middleware

import (
	autherrors "go-ems/internal/auth/errors"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/contextutil"
	"go-ems/internal/shared/response"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ContextPrincipal = "principal"

// TokenVerifier is whatever can turn a bearer token into a principal.
type TokenVerifier interface {
	Verify(token string) (contextutil.Principal, error)
}

// AuthMiddleware rejects requests without a valid bearer token and attaches
// the principal to both the gin and the request context.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		tokenString = strings.TrimSpace(tokenString)
		if !found || tokenString == "" {
			abortWithError(c, autherrors.ErrTokenNotFound)
			return
		}

		principal, err := verifier.Verify(tokenString)
		if err != nil {
			if _, ok := err.(*apperror.AppError); !ok {
				err = autherrors.ErrInvalidToken
			}
			abortWithError(c, err)
			return
		}

		c.Set("user_id", principal.UserID)
		c.Set(ContextPrincipal, principal)

		ctx := contextutil.WithPrincipal(c.Request.Context(), principal)
		reqLogger := contextutil.GetLogger(ctx, zap.L()).With(zap.String("user_id", principal.UserID))
		ctx = contextutil.WithLogger(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func abortWithError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
	c.Abort()
}
