package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/app/models/dto"
	"github.com/enlassist/backend/internal/pkg/apperrors"
	"github.com/enlassist/backend/internal/pkg/logger"
	"github.com/enlassist/backend/internal/pkg/validation"
)

// MaxAnnualIncome bounds the declared family income on an application.
const MaxAnnualIncome = 10_000_000

// ApplicationService defines the interface for scheme application operations
type ApplicationService interface {
	SubmitApplication(ctx context.Context, studentID int64, req *dto.SubmitApplicationRequest, documents []*models.ApplicationDocument) (*models.Application, error)
	GetApplication(ctx context.Context, id int64) (*models.Application, error)
	GetStudentApplication(ctx context.Context, studentID int64) (*models.Application, error)
	ListApplications(ctx context.Context, status models.ApplicationStatus, page, size int) ([]*models.Application, int64, error)
	ReviewApplication(ctx context.Context, reviewerID, applicationID int64, req *dto.ReviewApplicationRequest) (*models.Application, error)
}

// applicationStore is the repository surface the service depends on
type applicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	GetByStudentID(ctx context.Context, studentID int64) (*models.Application, error)
	ExistsByStudentID(ctx context.Context, studentID int64) (bool, error)
	ExistsByPRN(ctx context.Context, prn string) (bool, error)
	List(ctx context.Context, status models.ApplicationStatus, page, size int) ([]*models.Application, int64, error)
	UpdateStatus(ctx context.Context, id int64, status models.ApplicationStatus, comments *string) error
}

type departmentReader interface {
	GetByName(ctx context.Context, name string) (*models.Department, error)
}

// applicationServiceImpl implements the ApplicationService interface
type applicationServiceImpl struct {
	appRepo        applicationStore
	departmentRepo departmentReader
	notifier       Notifier
	now            func() time.Time
}

// NewApplicationService creates a new application service instance
func NewApplicationService(appRepo applicationStore, departmentRepo departmentReader, notifier Notifier) ApplicationService {
	return &applicationServiceImpl{
		appRepo:        appRepo,
		departmentRepo: departmentRepo,
		notifier:       notifier,
		now:            time.Now,
	}
}

// SubmitApplication validates and records a student's scheme application with
// its uploaded documents. A student submits at most once; resubmission after
// a correction request goes through the review flow instead.
func (s *applicationServiceImpl) SubmitApplication(ctx context.Context, studentID int64, req *dto.SubmitApplicationRequest, documents []*models.ApplicationDocument) (*models.Application, error) {
	exists, err := s.appRepo.ExistsByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error checking application existence: %w", err)
	}
	if exists {
		return nil, apperrors.ErrApplicationAlreadyExists
	}

	ve := dto.NewValidationErrors()

	if strings.TrimSpace(req.FirstName) == "" {
		ve.AddError("firstName", "First name is required.")
	}
	if strings.TrimSpace(req.LastName) == "" {
		ve.AddError("lastName", "Last name is required.")
	}
	if strings.TrimSpace(req.Address) == "" {
		ve.AddError("address", "Address is required.")
	}
	if strings.TrimSpace(req.State) == "" {
		ve.AddError("state", "State is required.")
	}
	if strings.TrimSpace(req.FathersOccupation) == "" {
		ve.AddError("fathersOccupation", "Father's occupation is required.")
	}

	var dateOfBirth time.Time
	if parsed, err := time.Parse("2006-01-02", strings.TrimSpace(req.DateOfBirth)); err != nil {
		ve.AddError("dateOfBirth", "Invalid date of birth. Use YYYY-MM-DD.")
	} else if !parsed.Before(s.now()) {
		ve.AddError("dateOfBirth", "Date of birth must be in the past.")
	} else {
		dateOfBirth = parsed
	}

	var annualIncome decimal.Decimal
	if parsed, err := decimal.NewFromString(strings.TrimSpace(req.AnnualIncome)); err != nil {
		ve.AddError("annualIncome", "Annual income must be a valid number.")
	} else if parsed.IsNegative() || parsed.GreaterThan(decimal.NewFromInt(MaxAnnualIncome)) {
		ve.AddError("annualIncome", "Annual income must be between 0 and 10,000,000.")
	} else {
		annualIncome = parsed.Round(2)
	}

	if !models.ValidCasteCategory(req.CasteCategory) {
		ve.AddError("casteCategory", "Invalid caste category.")
	}

	prn := validation.NormalizePRN(req.PRNNumber)
	if !validation.ValidPRN(prn) {
		ve.AddError("prnNumber", "Invalid PRN number format.")
	} else {
		prnTaken, err := s.appRepo.ExistsByPRN(ctx, prn)
		if err != nil {
			return nil, fmt.Errorf("error checking PRN existence: %w", err)
		}
		if prnTaken {
			ve.AddError("prnNumber", "This PRN number is already registered.")
		}
	}

	var department *models.Department
	departmentName := strings.TrimSpace(req.DepartmentName)
	if departmentName == "" {
		ve.AddError("departmentName", "Department name is required.")
	} else {
		department, err = s.departmentRepo.GetByName(ctx, departmentName)
		if err != nil {
			if errors.Is(err, apperrors.ErrDepartmentNotFound) {
				ve.AddError("departmentName", "Unknown department.")
			} else {
				return nil, fmt.Errorf("error checking department: %w", err)
			}
		} else if !department.IsActive {
			ve.AddError("departmentName", "Department is not accepting applications.")
		}
	}

	s.validateDocuments(ve, documents)

	if ve.HasErrors() {
		return nil, ve
	}

	collegeName := strings.TrimSpace(req.CollegeName)
	if collegeName == "" {
		collegeName = models.DefaultCollegeName
	}

	app := &models.Application{
		StudentID:         studentID,
		FirstName:         strings.TrimSpace(req.FirstName),
		MiddleName:        req.MiddleName,
		LastName:          strings.TrimSpace(req.LastName),
		Address:           strings.TrimSpace(req.Address),
		State:             strings.TrimSpace(req.State),
		DateOfBirth:       dateOfBirth,
		AnnualIncome:      annualIncome,
		FathersOccupation: strings.TrimSpace(req.FathersOccupation),
		CasteCategory:     req.CasteCategory,
		CollegeName:       collegeName,
		DepartmentName:    departmentName,
		PRNNumber:         prn,
		Status:            models.ApplicationPending,
		Documents:         documents,
	}

	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	return app, nil
}

// validateDocuments checks that every required document type arrived exactly once
func (s *applicationServiceImpl) validateDocuments(ve *dto.ValidationErrors, documents []*models.ApplicationDocument) {
	seen := make(map[string]bool, len(documents))
	for _, doc := range documents {
		if seen[doc.DocumentType] {
			ve.AddError("documents", fmt.Sprintf("Duplicate document of type %s.", doc.DocumentType))
		}
		seen[doc.DocumentType] = true
	}
	for _, required := range models.RequiredDocumentTypes {
		if !seen[required] {
			ve.AddError("documents", fmt.Sprintf("Missing required document: %s.", required))
		}
	}
}

// GetApplication retrieves an application by ID
func (s *applicationServiceImpl) GetApplication(ctx context.Context, id int64) (*models.Application, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid application ID", apperrors.ErrValidationFailed)
	}
	return s.appRepo.GetByID(ctx, id)
}

// GetStudentApplication retrieves a student's own application
func (s *applicationServiceImpl) GetStudentApplication(ctx context.Context, studentID int64) (*models.Application, error) {
	return s.appRepo.GetByStudentID(ctx, studentID)
}

// ListApplications retrieves applications filtered by status
func (s *applicationServiceImpl) ListApplications(ctx context.Context, status models.ApplicationStatus, page, size int) ([]*models.Application, int64, error) {
	return s.appRepo.List(ctx, status, page, size)
}

// reviewActions maps a review action to the resulting application status
var reviewActions = map[string]models.ApplicationStatus{
	"approve":            models.ApplicationApproved,
	"reject":             models.ApplicationRejected,
	"request_correction": models.ApplicationCorrectionRequired,
	"complete":           models.ApplicationCompleted,
}

// ReviewApplication applies a coordinator decision to a pending application
// and notifies the student
func (s *applicationServiceImpl) ReviewApplication(ctx context.Context, reviewerID, applicationID int64, req *dto.ReviewApplicationRequest) (*models.Application, error) {
	status, ok := reviewActions[req.Action]
	if !ok {
		return nil, dto.NewValidationErrors().AddError("action",
			"Action must be one of approve, reject, request_correction or complete.")
	}

	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	var comments *string
	if trimmed := strings.TrimSpace(req.Comments); trimmed != "" {
		comments = &trimmed
	} else if status == models.ApplicationRejected || status == models.ApplicationCorrectionRequired {
		return nil, dto.NewValidationErrors().AddError("comments",
			"Comments are required when rejecting or requesting a correction.")
	}

	if err := s.appRepo.UpdateStatus(ctx, applicationID, status, comments); err != nil {
		return nil, err
	}

	app.Status = status
	app.Comments = comments

	s.notifyReview(ctx, app)
	return app, nil
}

// notifyReview tells the student the outcome of the review
func (s *applicationServiceImpl) notifyReview(ctx context.Context, app *models.Application) {
	if s.notifier == nil {
		return
	}

	var message string
	switch app.Status {
	case models.ApplicationApproved:
		message = "Your scholarship application has been approved. You may now log your work hours."
	case models.ApplicationRejected:
		message = "Your scholarship application has been rejected."
	case models.ApplicationCorrectionRequired:
		message = "Your scholarship application needs corrections. Please check the reviewer comments."
	case models.ApplicationCompleted:
		message = "Your scholarship application has been marked as completed."
	default:
		return
	}
	if app.Comments != nil {
		message = fmt.Sprintf("%s Comments: %s", message, *app.Comments)
	}

	if err := s.notifier.NotifyUser(ctx, app.StudentID, message); err != nil {
		logger.Warn().Err(err).Int64("studentID", app.StudentID).Msg("Failed to create review notification")
	}
}
