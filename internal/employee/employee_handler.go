package employee

import (
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/response"
	"go-ems/internal/upload"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("employee.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("employee request failed",
		zap.String("request_id", c.GetString("request_id")),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// bindEmployee binds and validates the request body. On failure the response
// is written and any uploaded picture is discarded.
func (h *Handler) bindEmployee(c *gin.Context, mode Mode) (EmployeeRequest, bool) {
	var req EmployeeRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("http employee bind failed", zap.Error(err))
		upload.Discard(c)
		h.writeServiceError(c, apperror.MapValidationError(err))
		return req, false
	}

	if violations := ValidateEmployee(&req, mode); len(violations) > 0 {
		upload.Discard(c)
		h.writeServiceError(c, apperror.ValidationFailed(violations))
		return req, false
	}
	return req, true
}

func (h *Handler) GetAll(c *gin.Context) {
	resp, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.List(c, http.StatusOK, resp)
}

func (h *Handler) GetByID(c *gin.Context) {
	id := c.Param("id")
	h.logger.Debug("http get employee by id", zap.String("employee_id", id))

	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", resp)
}

func (h *Handler) Search(c *gin.Context) {
	var filter SearchFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.List(c, http.StatusOK, resp)
}

func (h *Handler) Create(c *gin.Context) {
	req, ok := h.bindEmployee(c, ModeCreate)
	if !ok {
		return
	}

	resp, err := h.service.Create(c.Request.Context(), req, upload.FromContext(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Employee created successfully", resp)
}

func (h *Handler) Update(c *gin.Context) {
	id := c.Param("id")
	h.logger.Debug("http update employee", zap.String("employee_id", id))

	req, ok := h.bindEmployee(c, ModeUpdate)
	if !ok {
		return
	}

	resp, err := h.service.Update(c.Request.Context(), id, req, upload.FromContext(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Employee updated successfully", resp)
}

func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	h.logger.Debug("http delete employee", zap.String("employee_id", id))

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Employee deleted successfully", nil)
}
