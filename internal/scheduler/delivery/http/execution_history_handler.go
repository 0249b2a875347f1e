package http

import (
	"net/http"

	"golang-dividend-forecaster/internal/scheduler/service"
	"golang-dividend-forecaster/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ExecutionHistoryHandler handles HTTP requests for execution history.
type ExecutionHistoryHandler struct {
	historyService service.ExecutionHistoryService
	logger         *logger.Logger
}

// NewExecutionHistoryHandler creates a new ExecutionHistoryHandler.
func NewExecutionHistoryHandler(historyService service.ExecutionHistoryService, logger *logger.Logger) *ExecutionHistoryHandler {
	return &ExecutionHistoryHandler{historyService: historyService, logger: logger}
}

// RegisterRoutes registers the execution history routes to the Echo group.
func (h *ExecutionHistoryHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetRecentExecutionHistories)
	g.GET("/:id", h.GetExecutionHistoryByID)
}

// RegisterJobRoutes registers the job-specific execution history routes.
func (h *ExecutionHistoryHandler) RegisterJobRoutes(g *echo.Group) {
	g.GET("/:id/executions", h.GetExecutionHistoriesByJobID)
}

// GetRecentExecutionHistories godoc
// @Summary List recent executions
// @Description Most recent executions first, including each run summary
// @Tags executions
// @Produce  json
// @Param   limit  query    int false    "Maximum rows (default and cap 100)"
// @Success 200 {array} dto.ExecutionHistoryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /executions [get]
func (h *ExecutionHistoryHandler) GetRecentExecutionHistories(c echo.Context) error {
	limit, ok := parseLimit(c)
	if !ok {
		return badRequest(c, "Invalid limit")
	}

	histories, err := h.historyService.GetRecentExecutionHistories(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to get execution histories", logger.ErrorField(err))
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, histories)
}

// GetExecutionHistoryByID godoc
// @Summary Get an execution history by ID
// @Description Get a single execution history record by its ID
// @Tags executions
// @Produce  json
// @Param   id  path    int true    "Execution History ID"
// @Success 200 {object} dto.ExecutionHistoryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /executions/{id} [get]
func (h *ExecutionHistoryHandler) GetExecutionHistoryByID(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid history ID")
	}

	history, err := h.historyService.GetExecutionHistoryByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, history)
}

// GetExecutionHistoriesByJobID godoc
// @Summary Get execution histories for a job
// @Description Most recent executions of one job
// @Tags jobs
// @Produce  json
// @Param   id  path    int true    "Job ID"
// @Param   limit  query    int false    "Maximum rows (default and cap 100)"
// @Success 200 {array} dto.ExecutionHistoryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /jobs/{id}/executions [get]
func (h *ExecutionHistoryHandler) GetExecutionHistoriesByJobID(c echo.Context) error {
	jobID, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid job ID")
	}
	limit, ok := parseLimit(c)
	if !ok {
		return badRequest(c, "Invalid limit")
	}

	histories, err := h.historyService.GetExecutionHistoriesByJobID(c.Request().Context(), jobID, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, histories)
}
