package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/enlassist/backend/internal/app/models/dto"
	"github.com/enlassist/backend/internal/pkg/apperrors"
)

// HandleAPIError translates service errors into HTTP responses. Controllers
// funnel every non-binding error through here so status codes and payload
// shapes stay uniform across the API.
func HandleAPIError(c *gin.Context, err error) {
	// Field-level validation failures carry their own detail list.
	var ve *dto.ValidationErrors
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: &dto.ErrorDetail{
				Code:     dto.ErrorCodeValidationFailed,
				Message:  "Validation failed",
				Severity: dto.ErrorSeverityError,
				Details:  ve.Errors,
			},
		})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials")))

	case errors.Is(err, apperrors.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeForbidden, "Account is disabled")))

	case errors.Is(err, apperrors.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")))

	case errors.Is(err, apperrors.ErrTokenInvalid):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")))

	case errors.Is(err, apperrors.ErrTokenNotFound):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeTokenNotFound, "Token not found")))

	case errors.Is(err, apperrors.ErrTokenRevoked):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Token revoked")))

	case errors.Is(err, apperrors.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied")))

	case errors.Is(err, apperrors.ErrRateNotConfigured):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeRateNotConfigured,
				"No hourly payment rate has been configured")))

	case errors.Is(err, apperrors.ErrStudentNotAssigned):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeStudentUnassigned,
				"Student has no active department assignment")))

	case errors.Is(err, apperrors.ErrAmountMismatch):
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeAmountMismatch,
				"Payment amount failed consistency check")))

	case errors.Is(err, apperrors.ErrApplicationNotApproved):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeConflict, "Application is not approved")))

	case errors.Is(err, apperrors.ErrDepartmentInactive):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeConflict, "Department is not active")))

	case errors.Is(err, apperrors.ErrWorkLogAlreadyDecided):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeConflict,
				"Work log has already been verified or rejected")))

	case notFoundError(err):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, err.Error())))

	case conflictError(err):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, err.Error())))

	default:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
	}
}

func notFoundError(err error) bool {
	return apperrors.Is(err, apperrors.ErrResourceNotFound,
		apperrors.ErrUserNotFound,
		apperrors.ErrApplicationNotFound,
		apperrors.ErrDepartmentNotFound,
		apperrors.ErrWorkLogNotFound,
		apperrors.ErrCalculationNotFound,
		apperrors.ErrSummaryNotFound,
	)
}

func conflictError(err error) bool {
	return apperrors.Is(err, apperrors.ErrResourceAlreadyExists,
		apperrors.ErrConflict,
		apperrors.ErrEmailAlreadyExists,
		apperrors.ErrApplicationAlreadyExists,
		apperrors.ErrPRNAlreadyExists,
		apperrors.ErrDepartmentAlreadyExists,
		apperrors.ErrStaffAlreadyAssigned,
		apperrors.ErrStudentAlreadyAssigned,
		apperrors.ErrDuplicateWorkLog,
	)
}
