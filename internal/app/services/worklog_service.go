package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/app/models/dto"
	"github.com/enlassist/backend/internal/app/repositories"
	"github.com/enlassist/backend/internal/pkg/apperrors"
	"github.com/enlassist/backend/internal/pkg/helpers"
	"github.com/enlassist/backend/internal/pkg/logger"
)

// WorkLogService defines the interface for work log operations
type WorkLogService interface {
	SubmitWorkLog(ctx context.Context, studentID int64, req *dto.SubmitWorkLogRequest) (*models.WorkLog, error)
	GetWorkLog(ctx context.Context, id int64) (*models.WorkLog, error)
	ListStudentWorkLogs(ctx context.Context, studentID int64, page, size int) ([]*models.WorkLog, int64, error)
	ListPendingForStaff(ctx context.Context, staffUserID int64, page, size int) ([]*models.WorkLog, int64, error)
	VerifyWorkLog(ctx context.Context, deciderID int64, deciderRole models.RoleType, logID int64) error
	RejectWorkLog(ctx context.Context, deciderID int64, deciderRole models.RoleType, logID int64, reason string) error
	GetStudentSummary(ctx context.Context, studentID int64) (*dto.WorkSummaryResponse, error)
}

// workLogStore is the repository surface the service depends on
type workLogStore interface {
	Create(ctx context.Context, log *models.WorkLog) error
	GetByID(ctx context.Context, id int64) (*models.WorkLog, error)
	ListByStudent(ctx context.Context, studentID int64, page, size int) ([]*models.WorkLog, int64, error)
	ListPendingByDepartment(ctx context.Context, departmentID int64, page, size int) ([]*models.WorkLog, int64, error)
	Verify(ctx context.Context, id, decidedBy int64) error
	Reject(ctx context.Context, id, decidedBy int64, reason string) error
	SumMonthHours(ctx context.Context, studentID int64, from, to time.Time) (int, error)
	ExistsForDate(ctx context.Context, studentID int64, date time.Time) (bool, error)
	SummaryByStudent(ctx context.Context, studentID int64) (*repositories.WorkSummary, error)
}

type assignmentReader interface {
	GetActiveByStudent(ctx context.Context, studentID int64) (*models.StudentAssignment, error)
	GetStaffDepartment(ctx context.Context, userID int64) (*models.Department, error)
}

type applicationReader interface {
	GetByStudentID(ctx context.Context, studentID int64) (*models.Application, error)
}

// workLogServiceImpl implements the WorkLogService interface
type workLogServiceImpl struct {
	workLogRepo    workLogStore
	assignmentRepo assignmentReader
	appRepo        applicationReader
	notifier       Notifier
	now            func() time.Time
}

// NewWorkLogService creates a new work log service instance
func NewWorkLogService(workLogRepo workLogStore, assignmentRepo assignmentReader, appRepo applicationReader, notifier Notifier) WorkLogService {
	return &workLogServiceImpl{
		workLogRepo:    workLogRepo,
		assignmentRepo: assignmentRepo,
		appRepo:        appRepo,
		notifier:       notifier,
		now:            time.Now,
	}
}

// SubmitWorkLog validates and records one day of work for a student.
// Validation errors are collected per field so the client sees every problem
// at once; the repository re-checks the duplicate-day and cap rules inside
// its transaction to close the gap between check and insert.
func (s *workLogServiceImpl) SubmitWorkLog(ctx context.Context, studentID int64, req *dto.SubmitWorkLogRequest) (*models.WorkLog, error) {
	app, err := s.appRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrApplicationNotFound) {
			return nil, apperrors.ErrApplicationNotApproved
		}
		return nil, fmt.Errorf("error checking application: %w", err)
	}
	if app.Status != models.ApplicationApproved {
		return nil, apperrors.ErrApplicationNotApproved
	}

	if _, err := s.assignmentRepo.GetActiveByStudent(ctx, studentID); err != nil {
		return nil, err
	}

	workDate := helpers.DateOnly(s.now())
	ve := dto.NewValidationErrors()
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
		if err != nil {
			ve.AddError("date", "Invalid date format. Use YYYY-MM-DD.")
		} else {
			workDate = helpers.DateOnly(parsed)
		}
	}

	if req.Hours < models.MinHoursPerDay || req.Hours > models.MaxHoursPerDay {
		ve.AddError("hours", "Hours worked must be between 1 and 3 hours per day.")
	}

	if !ve.HasField("date") && helpers.IsSunday(workDate) {
		ve.AddError("date", "Work logs cannot be added on Sundays.")
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		ve.AddError("description", "Work description is required.")
	} else if len(description) < models.MinDescriptionLen {
		ve.AddError("description", "Please provide a more detailed description (at least 10 characters).")
	}

	if ve.HasErrors() {
		return nil, ve
	}

	exists, err := s.workLogRepo.ExistsForDate(ctx, studentID, workDate)
	if err != nil {
		return nil, fmt.Errorf("error checking existing work log: %w", err)
	}
	if exists {
		ve.AddError("date", "You can only submit one work log per day.")
		return nil, ve
	}

	if capErr, err := s.checkMonthlyCap(ctx, studentID, workDate, req.Hours); err != nil {
		return nil, err
	} else if capErr != nil {
		return nil, capErr
	}

	log := &models.WorkLog{
		StudentID:   studentID,
		WorkDate:    workDate,
		Hours:       req.Hours,
		Description: description,
	}

	if err := s.workLogRepo.Create(ctx, log); err != nil {
		// A concurrent submission may invalidate the checks above; translate
		// the repository's verdict into the same field messages.
		if errors.Is(err, apperrors.ErrDuplicateWorkLog) {
			return nil, dto.NewValidationErrors().AddError("date", "You can only submit one work log per day.")
		}
		if errors.Is(err, apperrors.ErrMonthlyCapExceeded) {
			if capErr, capCheckErr := s.checkMonthlyCap(ctx, studentID, workDate, req.Hours); capCheckErr == nil && capErr != nil {
				return nil, capErr
			}
			return nil, dto.NewValidationErrors().AddError("hours",
				"Monthly limit of 30 hours has been reached for this month.")
		}
		return nil, fmt.Errorf("error creating work log: %w", err)
	}

	return log, nil
}

// checkMonthlyCap returns a validation error when adding hours would push the
// student's non-rejected total past the monthly limit
func (s *workLogServiceImpl) checkMonthlyCap(ctx context.Context, studentID int64, workDate time.Time, hours int) (*dto.ValidationErrors, error) {
	from, to := helpers.MonthBounds(workDate.Year(), workDate.Month())
	monthHours, err := s.workLogRepo.SumMonthHours(ctx, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("error summing month hours: %w", err)
	}

	if monthHours >= models.MaxHoursPerMonth {
		return dto.NewValidationErrors().AddError("hours",
			"Monthly limit of 30 hours has been reached for this month."), nil
	}
	if monthHours+hours > models.MaxHoursPerMonth {
		remaining := models.MaxHoursPerMonth - monthHours
		return dto.NewValidationErrors().AddError("hours",
			fmt.Sprintf("Adding %d hours would exceed monthly limit. You can only add %d more hours this month.",
				hours, remaining)), nil
	}
	return nil, nil
}

// GetWorkLog retrieves a work log by ID
func (s *workLogServiceImpl) GetWorkLog(ctx context.Context, id int64) (*models.WorkLog, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid work log ID", apperrors.ErrValidationFailed)
	}
	return s.workLogRepo.GetByID(ctx, id)
}

// ListStudentWorkLogs retrieves a student's work logs, newest day first
func (s *workLogServiceImpl) ListStudentWorkLogs(ctx context.Context, studentID int64, page, size int) ([]*models.WorkLog, int64, error) {
	return s.workLogRepo.ListByStudent(ctx, studentID, page, size)
}

// ListPendingForStaff retrieves the undecided logs in the staff member's department
func (s *workLogServiceImpl) ListPendingForStaff(ctx context.Context, staffUserID int64, page, size int) ([]*models.WorkLog, int64, error) {
	department, err := s.assignmentRepo.GetStaffDepartment(ctx, staffUserID)
	if err != nil {
		return nil, 0, err
	}
	return s.workLogRepo.ListPendingByDepartment(ctx, department.ID, page, size)
}

// VerifyWorkLog marks a pending log as verified. Department staff may only
// decide logs of students assigned to their own department; coordinators and
// admins may decide any log.
func (s *workLogServiceImpl) VerifyWorkLog(ctx context.Context, deciderID int64, deciderRole models.RoleType, logID int64) error {
	log, err := s.authorizeDecision(ctx, deciderID, deciderRole, logID)
	if err != nil {
		return err
	}

	if err := s.workLogRepo.Verify(ctx, logID, deciderID); err != nil {
		return err
	}

	s.notify(ctx, log.StudentID,
		fmt.Sprintf("Your work log for %s has been verified.", log.WorkDate.Format("2006-01-02")))
	return nil
}

// RejectWorkLog marks a pending log as rejected with a reason
func (s *workLogServiceImpl) RejectWorkLog(ctx context.Context, deciderID int64, deciderRole models.RoleType, logID int64, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return dto.NewValidationErrors().AddError("reason", "Rejection reason is required.")
	}

	log, err := s.authorizeDecision(ctx, deciderID, deciderRole, logID)
	if err != nil {
		return err
	}

	if err := s.workLogRepo.Reject(ctx, logID, deciderID, reason); err != nil {
		return err
	}

	s.notify(ctx, log.StudentID,
		fmt.Sprintf("Your work log for %s was rejected: %s", log.WorkDate.Format("2006-01-02"), reason))
	return nil
}

// authorizeDecision loads the log and enforces the staff-own-department rule
func (s *workLogServiceImpl) authorizeDecision(ctx context.Context, deciderID int64, deciderRole models.RoleType, logID int64) (*models.WorkLog, error) {
	log, err := s.workLogRepo.GetByID(ctx, logID)
	if err != nil {
		return nil, err
	}

	if deciderRole == models.RoleDepartmentStaff {
		staffDept, err := s.assignmentRepo.GetStaffDepartment(ctx, deciderID)
		if err != nil {
			return nil, apperrors.ErrPermissionDenied
		}
		assignment, err := s.assignmentRepo.GetActiveByStudent(ctx, log.StudentID)
		if err != nil {
			return nil, err
		}
		if assignment.DepartmentID != staffDept.ID {
			return nil, apperrors.ErrPermissionDenied
		}
	}

	return log, nil
}

// GetStudentSummary aggregates a student's logged hours
func (s *workLogServiceImpl) GetStudentSummary(ctx context.Context, studentID int64) (*dto.WorkSummaryResponse, error) {
	summary, err := s.workLogRepo.SummaryByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	from, to := helpers.MonthBounds(now.Year(), now.Month())
	monthHours, err := s.workLogRepo.SumMonthHours(ctx, studentID, from, to)
	if err != nil {
		return nil, err
	}

	remaining := models.MaxHoursPerMonth - monthHours
	if remaining < 0 {
		remaining = 0
	}

	return &dto.WorkSummaryResponse{
		TotalHours:     summary.TotalHours,
		VerifiedHours:  summary.VerifiedHours,
		PendingHours:   summary.PendingHours,
		RejectedHours:  summary.RejectedHours,
		MonthHours:     monthHours,
		MonthRemaining: remaining,
	}, nil
}

// notify sends an in-app notification without letting a failure surface
func (s *workLogServiceImpl) notify(ctx context.Context, userID int64, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyUser(ctx, userID, message); err != nil {
		logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to create notification")
	}
}
