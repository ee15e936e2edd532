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
)

// PaymentController handles rate management, monthly payment calculation and
// CSV exports
type PaymentController struct {
	paymentService    services.PaymentService
	exportService     services.ExportService
	departmentService services.DepartmentService
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(paymentService services.PaymentService, exportService services.ExportService, departmentService services.DepartmentService) *PaymentController {
	return &PaymentController{
		paymentService:    paymentService,
		exportService:     exportService,
		departmentService: departmentService,
	}
}

// parseMonthQuery reads year and month query parameters
func parseMonthQuery(ctx *gin.Context) (int, time.Month, bool) {
	year, err := strconv.Atoi(ctx.Query("year"))
	if err != nil || year < 2000 || year > 2100 {
		return 0, 0, false
	}
	month, err := strconv.Atoi(ctx.Query("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, time.Month(month), true
}

func invalidMonthResponse(ctx *gin.Context) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid month selection")
	errorDetail = errorDetail.WithDetails("Provide year and month (1-12) query parameters")
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}

// SetRate sets a new current hourly payment rate
// @Summary Set the hourly rate
// @Description Publishes a new hourly payment rate. The previous rate is kept in history.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SetRateRequest true "New rate"
// @Success 201 {object} dto.APIResponse{data=dto.RateResponse} "Rate set successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid rate data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /payments/rate [post]
func (c *PaymentController) SetRate(ctx *gin.Context) {
	setByID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.SetRateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid rate data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	rate, err := c.paymentService.SetRate(ctx, setByID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      dto.FromPayRate(rate),
		Timestamp: time.Now(),
	})
}

// GetCurrentRate returns the current hourly rate
// @Summary Get the current hourly rate
// @Description Retrieves the hourly payment rate currently in force
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.RateResponse} "Rate retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 409 {object} dto.ErrorResponse "No rate configured"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /payments/rate [get]
func (c *PaymentController) GetCurrentRate(ctx *gin.Context) {
	rate, err := c.paymentService.GetCurrentRate(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.FromPayRate(rate),
		Timestamp: time.Now(),
	})
}

// GetRateHistory lists all rate versions
// @Summary Get rate history
// @Description Retrieves all hourly rate versions, newest first
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.RateResponse} "History retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /payments/rate/history [get]
func (c *PaymentController) GetRateHistory(ctx *gin.Context) {
	rates, err := c.paymentService.ListRateHistory(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := make([]dto.RateResponse, 0, len(rates))
	for _, rate := range rates {
		resp = append(resp, dto.FromPayRate(rate))
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// CalculateStudent calculates one student's payment for a month
// @Summary Calculate a student's monthly payment
// @Description Calculates payment from the student's verified hours and the current rate, replacing any previous calculation for the month
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path int true "Student ID"
// @Param request body dto.CalculateRequest true "Month selection"
// @Success 200 {object} dto.APIResponse{data=dto.CalculationResponse} "Calculation stored"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "No rate configured, student unassigned or no verified hours"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /payments/calculations/students/{studentId} [post]
func (c *PaymentController) CalculateStudent(ctx *gin.Context) {
	calculatedByID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	studentID, err := strconv.ParseInt(ctx.Param("studentId"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid student ID")
		errorDetail = errorDetail.WithDetails("Student ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.CalculateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid calculation request")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	calc, err := c.paymentService.CalculateStudentMonth(ctx, calculatedByID, studentID, req.Year, time.Month(req.Month))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	// A student with zero verified hours gets no calculation row.
	if calc == nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeConflict, services.ErrNoVerifiedHours.Error())
		ctx.JSON(http.StatusConflict, dto.NewErrorResponse(errorDetail))
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.FromCalculation(calc),
		Timestamp: time.Now(),
	})
}

// CalculateMonth runs the monthly calculation for every assigned student
// @Summary Calculate all payments for a month
// @Description Calculates payments for every approved student with verified hours, then refreshes the in-scope department summaries
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CalculateRequest true "Month selection"
// @Success 200 {object} dto.APIResponse{data=dto.BulkCalculationResult} "Calculation run finished"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "No rate configured"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /payments/calculations [post]
func (c *PaymentController) CalculateMonth(ctx *gin.Context) {
	calculatedByID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.CalculateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid calculation request")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	result, err := c.paymentService.CalculateMonth(ctx, calculatedByID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      result,
		Timestamp: time.Now(),
	})
}

// GetMonthCalculations lists a month's calculations. Department staff only
// see their own department; coordinators may filter by department.
// @Summary List a month's calculations
// @Description Retrieves the stored payment calculations for the given month
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Param departmentId query int false "Department filter (coordinator only)"
// @Success 200 {object} dto.APIResponse{data=[]dto.CalculationResponse} "Calculations retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid month selection"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /payments/calculations [get]
func (c *PaymentController) GetMonthCalculations(ctx *gin.Context) {
	year, month, ok := parseMonthQuery(ctx)
	if !ok {
		invalidMonthResponse(ctx)
		return
	}

	var calculations []*models.PaymentCalculation
	var err error

	if middleware.CurrentRole(ctx) == models.RoleDepartmentStaff {
		userID, ok := middleware.CurrentUserID(ctx)
		if !ok {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}
		department, deptErr := c.departmentService.GetStaffDepartment(ctx, userID)
		if deptErr != nil {
			middleware.HandleAPIError(ctx, deptErr)
			return
		}
		calculations, err = c.paymentService.GetDepartmentMonthCalculations(ctx, department.ID, year, month)
	} else if deptParam := ctx.Query("departmentId"); deptParam != "" {
		departmentID, parseErr := strconv.ParseInt(deptParam, 10, 64)
		if parseErr != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid department ID")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		calculations, err = c.paymentService.GetDepartmentMonthCalculations(ctx, departmentID, year, month)
	} else {
		calculations, err = c.paymentService.GetMonthCalculations(ctx, year, month)
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := make([]dto.CalculationResponse, 0, len(calculations))
	for _, calc := range calculations {
		resp = append(resp, dto.FromCalculation(calc))
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// GetMyCalculations lists the authenticated student's calculations
// @Summary List own calculations
// @Description Retrieves the authenticated student's payment calculations, newest month first
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.CalculationResponse} "Calculations retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /payments/calculations/me [get]
func (c *PaymentController) GetMyCalculations(ctx *gin.Context) {
	studentID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	calculations, err := c.paymentService.GetStudentCalculations(ctx, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := make([]dto.CalculationResponse, 0, len(calculations))
	for _, calc := range calculations {
		resp = append(resp, dto.FromCalculation(calc))
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// GetMonthSummaries lists a month's department summaries
// @Summary List a month's department summaries
// @Description Retrieves the per-department payment summaries for the given month
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {object} dto.APIResponse{data=[]dto.DepartmentSummaryResponse} "Summaries retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid month selection"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /payments/summaries [get]
func (c *PaymentController) GetMonthSummaries(ctx *gin.Context) {
	year, month, ok := parseMonthQuery(ctx)
	if !ok {
		invalidMonthResponse(ctx)
		return
	}

	summaries, err := c.paymentService.GetMonthSummaries(ctx, year, month)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := make([]dto.DepartmentSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		resp = append(resp, dto.FromDepartmentSummary(summary))
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// GetDepartmentSummary returns one department's summary for a month. Staff
// get their own department; coordinators name one via the departmentId
// parameter.
// @Summary Get one department's summary
// @Description Retrieves a single department's payment summary for the given month
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Param departmentId query int false "Department ID (coordinator only)"
// @Success 200 {object} dto.APIResponse{data=dto.DepartmentSummaryResponse} "Summary retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid month selection or department ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "No summary for this department and month"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /payments/summaries/department [get]
func (c *PaymentController) GetDepartmentSummary(ctx *gin.Context) {
	year, month, ok := parseMonthQuery(ctx)
	if !ok {
		invalidMonthResponse(ctx)
		return
	}

	var departmentID int64
	if middleware.CurrentRole(ctx) == models.RoleDepartmentStaff {
		userID, ok := middleware.CurrentUserID(ctx)
		if !ok {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}
		department, err := c.departmentService.GetStaffDepartment(ctx, userID)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		departmentID = department.ID
	} else {
		parsed, err := strconv.ParseInt(ctx.Query("departmentId"), 10, 64)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid department ID")
			errorDetail = errorDetail.WithDetails("Provide a departmentId query parameter")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		departmentID = parsed
	}

	summary, err := c.paymentService.GetDepartmentSummary(ctx, departmentID, year, month)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.FromDepartmentSummary(summary),
		Timestamp: time.Now(),
	})
}

// ExportCalculations downloads a month's calculations as CSV
// @Summary Export a month's calculations
// @Description Downloads every stored payment calculation for the given month as a CSV file
// @Tags payments
// @Produce text/csv
// @Security BearerAuth
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {file} file "CSV download"
// @Failure 400 {object} dto.ErrorResponse "Invalid month selection"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /payments/calculations/export [get]
func (c *PaymentController) ExportCalculations(ctx *gin.Context) {
	year, month, ok := parseMonthQuery(ctx)
	if !ok {
		invalidMonthResponse(ctx)
		return
	}

	data, filename, err := c.exportService.ExportMonthCalculations(ctx, year, month)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.Data(http.StatusOK, "text/csv", data)
}

// ExportSummaries downloads a month's department summaries as CSV
// @Summary Export a month's department summaries
// @Description Downloads the per-department payment summaries for the given month as a CSV file
// @Tags payments
// @Produce text/csv
// @Security BearerAuth
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {file} file "CSV download"
// @Failure 400 {object} dto.ErrorResponse "Invalid month selection"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /payments/summaries/export [get]
func (c *PaymentController) ExportSummaries(ctx *gin.Context) {
	year, month, ok := parseMonthQuery(ctx)
	if !ok {
		invalidMonthResponse(ctx)
		return
	}

	data, filename, err := c.exportService.ExportMonthSummaries(ctx, year, month)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.Data(http.StatusOK, "text/csv", data)
}
