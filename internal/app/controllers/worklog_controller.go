package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/app/models/dto"
	"github.com/enlassist/backend/internal/app/services"
	"github.com/enlassist/backend/internal/middleware"
	"github.com/enlassist/backend/internal/pkg/helpers"
)

// WorkLogController handles daily work-log operations
type WorkLogController struct {
	workLogService services.WorkLogService
}

// NewWorkLogController creates a new WorkLogController
func NewWorkLogController(workLogService services.WorkLogService) *WorkLogController {
	return &WorkLogController{
		workLogService: workLogService,
	}
}

// SubmitWorkLog records a day of work for the authenticated student
// @Summary Submit a daily work log
// @Description Records between 1 and 3 hours of work for a single day, subject to the monthly hour limit
// @Tags work-logs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubmitWorkLogRequest true "Work log entry"
// @Success 201 {object} dto.APIResponse{data=dto.WorkLogResponse} "Work log submitted"
// @Failure 400 {object} dto.ErrorResponse "Invalid work log data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 409 {object} dto.ErrorResponse "Duplicate log or missing assignment"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /work-logs [post]
func (c *WorkLogController) SubmitWorkLog(ctx *gin.Context) {
	studentID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.SubmitWorkLogRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid work log data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	workLog, err := c.workLogService.SubmitWorkLog(ctx, studentID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      dto.FromWorkLog(workLog),
		Timestamp: time.Now(),
	})
}

// GetMyWorkLogs lists the authenticated student's work logs
// @Summary List own work logs
// @Description Retrieves the authenticated student's work logs, most recent first
// @Tags work-logs
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.WorkLogListResponse} "Work logs retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /work-logs/me [get]
func (c *WorkLogController) GetMyWorkLogs(ctx *gin.Context) {
	studentID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	page, size := helpers.ParsePaginationParams(ctx)
	workLogs, total, err := c.workLogService.ListStudentWorkLogs(ctx, studentID, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      buildWorkLogList(workLogs, total, page, size),
		Timestamp: time.Now(),
	})
}

// GetMySummary aggregates the authenticated student's hours
// @Summary Get own work summary
// @Description Aggregates total, verified, pending and rejected hours plus the remaining monthly allowance
// @Tags work-logs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.WorkSummaryResponse} "Summary retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /work-logs/me/summary [get]
func (c *WorkLogController) GetMySummary(ctx *gin.Context) {
	studentID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	summary, err := c.workLogService.GetStudentSummary(ctx, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      summary,
		Timestamp: time.Now(),
	})
}

// GetWorkLogByID retrieves a work log by ID
// @Summary Get work log by ID
// @Description Retrieves a specific work log entry by its ID
// @Tags work-logs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Work log ID"
// @Success 200 {object} dto.APIResponse{data=dto.WorkLogResponse} "Work log retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid work log ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Work log not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /work-logs/{id} [get]
func (c *WorkLogController) GetWorkLogByID(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid work log ID")
		errorDetail = errorDetail.WithDetails("Work log ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	workLog, err := c.workLogService.GetWorkLog(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.FromWorkLog(workLog),
		Timestamp: time.Now(),
	})
}

// ListPending lists undecided work logs in the staff member's department
// @Summary List pending work logs
// @Description Retrieves the undecided work logs of the staff member's department, oldest first
// @Tags work-logs
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.WorkLogListResponse} "Pending work logs retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /work-logs/pending [get]
func (c *WorkLogController) ListPending(ctx *gin.Context) {
	staffID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	page, size := helpers.ParsePaginationParams(ctx)
	workLogs, total, err := c.workLogService.ListPendingForStaff(ctx, staffID, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      buildWorkLogList(workLogs, total, page, size),
		Timestamp: time.Now(),
	})
}

// VerifyWorkLog marks a pending work log as verified
// @Summary Verify a work log
// @Description Marks a pending work log as verified. Department staff can only decide logs from their own department.
// @Tags work-logs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Work log ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Work log verified"
// @Failure 400 {object} dto.ErrorResponse "Invalid work log ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Work log not found"
// @Failure 409 {object} dto.ErrorResponse "Work log already decided"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /work-logs/{id}/verify [post]
func (c *WorkLogController) VerifyWorkLog(ctx *gin.Context) {
	deciderID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid work log ID")
		errorDetail = errorDetail.WithDetails("Work log ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.workLogService.VerifyWorkLog(ctx, deciderID, middleware.CurrentRole(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Work log verified successfully"},
		Timestamp: time.Now(),
	})
}

// RejectWorkLog marks a pending work log as rejected
// @Summary Reject a work log
// @Description Marks a pending work log as rejected with a reason. Rejected hours do not count toward the monthly limit.
// @Tags work-logs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Work log ID"
// @Param request body dto.RejectWorkLogRequest true "Rejection reason"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Work log rejected"
// @Failure 400 {object} dto.ErrorResponse "Invalid rejection data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Work log not found"
// @Failure 409 {object} dto.ErrorResponse "Work log already decided"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /work-logs/{id}/reject [post]
func (c *WorkLogController) RejectWorkLog(ctx *gin.Context) {
	deciderID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid work log ID")
		errorDetail = errorDetail.WithDetails("Work log ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.RejectWorkLogRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid rejection data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.workLogService.RejectWorkLog(ctx, deciderID, middleware.CurrentRole(ctx), id, req.Reason); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Work log rejected"},
		Timestamp: time.Now(),
	})
}

// buildWorkLogList assembles the paginated work-log payload
func buildWorkLogList(workLogs []*models.WorkLog, total int64, page, size int) dto.WorkLogListResponse {
	resp := dto.WorkLogListResponse{
		WorkLogs:   make([]dto.WorkLogResponse, 0, len(workLogs)),
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}
	for _, workLog := range workLogs {
		resp.WorkLogs = append(resp.WorkLogs, dto.FromWorkLog(workLog))
	}
	return resp
}
