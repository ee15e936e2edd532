package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/app/models/dto"
	"github.com/enlassist/backend/internal/app/services"
	"github.com/enlassist/backend/internal/middleware"
	"github.com/enlassist/backend/internal/pkg/filestorage"
	"github.com/enlassist/backend/internal/pkg/helpers"
	"github.com/enlassist/backend/internal/pkg/logger"
)

// ApplicationController handles scheme application operations
type ApplicationController struct {
	applicationService services.ApplicationService
	fileStorage        filestorage.FileStorage
}

// NewApplicationController creates a new ApplicationController
func NewApplicationController(applicationService services.ApplicationService, fileStorage filestorage.FileStorage) *ApplicationController {
	return &ApplicationController{
		applicationService: applicationService,
		fileStorage:        fileStorage,
	}
}

// SubmitApplication handles a student's application submission
// @Summary Submit a scheme application
// @Description Submits the application form together with the required documents. Each document arrives as a multipart file part keyed by its document type.
// @Tags applications
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param firstName formData string true "First name"
// @Param lastName formData string true "Last name"
// @Param address formData string true "Address"
// @Param state formData string true "State"
// @Param dateOfBirth formData string true "Date of birth (YYYY-MM-DD)"
// @Param annualIncome formData string true "Family annual income"
// @Param fathersOccupation formData string true "Father's occupation"
// @Param casteCategory formData string true "Caste category"
// @Param departmentName formData string true "Department name"
// @Param prnNumber formData string true "PRN number"
// @Success 201 {object} dto.APIResponse{data=dto.ApplicationResponse} "Application submitted"
// @Failure 400 {object} dto.ErrorResponse "Invalid application data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 409 {object} dto.ErrorResponse "Application or PRN already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /applications [post]
func (c *ApplicationController) SubmitApplication(ctx *gin.Context) {
	studentID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.SubmitApplicationRequest
	if err := ctx.ShouldBind(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid application data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid multipart form")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	// Each file part is keyed by its document type. The files are written to
	// storage first so the service validates the complete document set.
	var documents []*models.ApplicationDocument
	var savedPaths []string
	for documentType, headers := range form.File {
		for _, header := range headers {
			path, err := c.fileStorage.SaveFileWithPath(header, "applications")
			if err != nil {
				c.cleanupFiles(savedPaths)
				errorDetail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Failed to store document")
				errorDetail = errorDetail.WithDetails(err.Error())
				ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(errorDetail))
				return
			}
			savedPaths = append(savedPaths, path)
			documents = append(documents, &models.ApplicationDocument{
				DocumentType: strings.ToUpper(strings.TrimSpace(documentType)),
				FilePath:     path,
				FileName:     header.Filename,
				FileSize:     header.Size,
			})
		}
	}

	application, err := c.applicationService.SubmitApplication(ctx, studentID, &req, documents)
	if err != nil {
		c.cleanupFiles(savedPaths)
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.FromApplication(application)
	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// cleanupFiles removes stored documents after a failed submission
func (c *ApplicationController) cleanupFiles(paths []string) {
	for _, path := range paths {
		if err := c.fileStorage.DeleteFile(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to remove orphaned document")
		}
	}
}

// GetMyApplication returns the authenticated student's application
// @Summary Get own application
// @Description Retrieves the authenticated student's application with its documents
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse} "Application retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /applications/me [get]
func (c *ApplicationController) GetMyApplication(ctx *gin.Context) {
	studentID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	application, err := c.applicationService.GetStudentApplication(ctx, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.FromApplication(application),
		Timestamp: time.Now(),
	})
}

// GetApplicationByID retrieves an application by ID
// @Summary Get application by ID
// @Description Retrieves a specific application by its ID
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse} "Application retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid application ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /applications/{id} [get]
func (c *ApplicationController) GetApplicationByID(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid application ID")
		errorDetail = errorDetail.WithDetails("Application ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	application, err := c.applicationService.GetApplication(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.FromApplication(application),
		Timestamp: time.Now(),
	})
}

// ListApplications lists applications with optional status filtering
// @Summary List applications
// @Description Retrieves a paginated application listing, optionally filtered by review status
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (PENDING, APPROVED, REJECTED, CORRECTION_REQUIRED, COMPLETED)"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationListResponse} "Applications retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /applications [get]
func (c *ApplicationController) ListApplications(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	status := models.ApplicationStatus(strings.ToUpper(ctx.Query("status")))

	applications, total, err := c.applicationService.ListApplications(ctx, status, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.ApplicationListResponse{
		Applications: make([]dto.ApplicationResponse, 0, len(applications)),
		Pagination:   helpers.NewPaginationInfo(total, page, size),
	}
	for _, application := range applications {
		resp.Applications = append(resp.Applications, dto.FromApplication(application))
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// ReviewApplication records a coordinator decision on an application
// @Summary Review an application
// @Description Applies a review action (approve, reject, request_correction, complete) to an application
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param request body dto.ReviewApplicationRequest true "Review decision"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse} "Application reviewed"
// @Failure 400 {object} dto.ErrorResponse "Invalid review data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /applications/{id}/review [post]
func (c *ApplicationController) ReviewApplication(ctx *gin.Context) {
	reviewerID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid application ID")
		errorDetail = errorDetail.WithDetails("Application ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.ReviewApplicationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid review data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	application, err := c.applicationService.ReviewApplication(ctx, reviewerID, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.FromApplication(application),
		Timestamp: time.Now(),
	})
}
