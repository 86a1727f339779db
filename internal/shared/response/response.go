package response

import (
	"github.com/gin-gonic/gin"
)

// Envelope is the uniform body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Success(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// List writes a collection together with its size.
func List[T any](c *gin.Context, status int, data []T) {
	count := len(data)
	if data == nil {
		data = []T{}
	}
	c.JSON(status, Envelope{
		Success: true,
		Count:   &count,
		Data:    data,
	})
}

// Error writes a failure envelope. String details surface as "error",
// anything else (field violations) as "errors".
func Error(c *gin.Context, status int, errorCode string, message string, details any) {
	env := Envelope{
		Success: false,
		Message: message,
		Code:    errorCode,
	}

	switch d := details.(type) {
	case nil:
	case string:
		env.Error = d
	case error:
		env.Error = d.Error()
	default:
		env.Errors = d
	}

	c.JSON(status, env)
}
