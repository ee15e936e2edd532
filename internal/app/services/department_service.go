package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/app/models/dto"
	"github.com/enlassist/backend/internal/pkg/apperrors"
	"github.com/enlassist/backend/internal/pkg/logger"
	"github.com/enlassist/backend/internal/pkg/validation"
)

// DepartmentService defines the interface for department and assignment operations
type DepartmentService interface {
	CreateDepartment(ctx context.Context, req *dto.CreateDepartmentRequest) (*models.Department, error)
	UpdateDepartment(ctx context.Context, id int64, req *dto.UpdateDepartmentRequest) (*models.Department, error)
	GetDepartment(ctx context.Context, id int64) (*models.Department, error)
	ListDepartments(ctx context.Context) ([]*models.Department, error)

	AssignStudent(ctx context.Context, assignedByID, studentID, departmentID int64) (*models.StudentAssignment, error)
	BulkAssignStudents(ctx context.Context, assignedByID int64, studentIDs []int64, departmentID int64) (*dto.BulkAssignResult, error)
	UnassignStudent(ctx context.Context, studentID int64) error
	GetStudentAssignment(ctx context.Context, studentID int64) (*models.StudentAssignment, error)
	ListDepartmentStudents(ctx context.Context, departmentID int64) ([]*models.StudentAssignment, error)

	AssignStaff(ctx context.Context, userID, departmentID int64) (*models.DepartmentStaff, error)
	GetStaffDepartment(ctx context.Context, userID int64) (*models.Department, error)
}

// departmentStore is the repository surface the service depends on
type departmentStore interface {
	Create(ctx context.Context, department *models.Department) error
	GetByID(ctx context.Context, id int64) (*models.Department, error)
	GetByName(ctx context.Context, name string) (*models.Department, error)
	GetAll(ctx context.Context) ([]*models.Department, error)
	Update(ctx context.Context, department *models.Department) error
}

type assignmentStore interface {
	AssignStudent(ctx context.Context, assignment *models.StudentAssignment) error
	GetActiveByStudent(ctx context.Context, studentID int64) (*models.StudentAssignment, error)
	ListActiveByDepartment(ctx context.Context, departmentID int64) ([]*models.StudentAssignment, error)
	Deactivate(ctx context.Context, studentID int64) error
	AssignStaff(ctx context.Context, staff *models.DepartmentStaff) error
	GetStaffDepartment(ctx context.Context, userID int64) (*models.Department, error)
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// departmentServiceImpl implements the DepartmentService interface
type departmentServiceImpl struct {
	departmentRepo departmentStore
	assignmentRepo assignmentStore
	userRepo       userReader
	appRepo        applicationReader
	notifier       Notifier
}

// NewDepartmentService creates a new department service instance
func NewDepartmentService(departmentRepo departmentStore, assignmentRepo assignmentStore, userRepo userReader, appRepo applicationReader, notifier Notifier) DepartmentService {
	return &departmentServiceImpl{
		departmentRepo: departmentRepo,
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
		appRepo:        appRepo,
		notifier:       notifier,
	}
}

// validateDepartment validates department fields before database operations
func (s *departmentServiceImpl) validateDepartment(name, code string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}

	code = validation.NormalizeDepartmentCode(code)
	if !validation.ValidDepartmentCode(code) {
		return "", "", fmt.Errorf("%w: code must be uppercase alphanumeric, at most 10 characters", apperrors.ErrValidationFailed)
	}

	return name, code, nil
}

// CreateDepartment creates a new department
func (s *departmentServiceImpl) CreateDepartment(ctx context.Context, req *dto.CreateDepartmentRequest) (*models.Department, error) {
	name, code, err := s.validateDepartment(req.Name, req.Code)
	if err != nil {
		return nil, err
	}

	department := &models.Department{
		Name:        name,
		Code:        code,
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
	}

	if err := s.departmentRepo.Create(ctx, department); err != nil {
		return nil, err
	}

	return department, nil
}

// UpdateDepartment updates an existing department
func (s *departmentServiceImpl) UpdateDepartment(ctx context.Context, id int64, req *dto.UpdateDepartmentRequest) (*models.Department, error) {
	name, code, err := s.validateDepartment(req.Name, req.Code)
	if err != nil {
		return nil, err
	}

	department, err := s.departmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	department.Name = name
	department.Code = code
	department.Description = strings.TrimSpace(req.Description)
	if req.IsActive != nil {
		department.IsActive = *req.IsActive
	}

	if err := s.departmentRepo.Update(ctx, department); err != nil {
		return nil, err
	}

	return department, nil
}

// GetDepartment retrieves a department by ID
func (s *departmentServiceImpl) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid department ID", apperrors.ErrValidationFailed)
	}
	return s.departmentRepo.GetByID(ctx, id)
}

// ListDepartments retrieves all departments
func (s *departmentServiceImpl) ListDepartments(ctx context.Context) ([]*models.Department, error) {
	return s.departmentRepo.GetAll(ctx)
}

// AssignStudent places a student in a department for work-study duty. The
// student must hold an approved application and the department must be active.
func (s *departmentServiceImpl) AssignStudent(ctx context.Context, assignedByID, studentID, departmentID int64) (*models.StudentAssignment, error) {
	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.Role != models.RoleStudent {
		return nil, fmt.Errorf("%w: user is not a student", apperrors.ErrValidationFailed)
	}

	app, err := s.appRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrApplicationNotFound) {
			return nil, apperrors.ErrApplicationNotApproved
		}
		return nil, err
	}
	if app.Status != models.ApplicationApproved {
		return nil, apperrors.ErrApplicationNotApproved
	}

	department, err := s.departmentRepo.GetByID(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	if !department.IsActive {
		return nil, apperrors.ErrDepartmentInactive
	}

	assignment := &models.StudentAssignment{
		StudentID:    studentID,
		DepartmentID: departmentID,
		AssignedByID: &assignedByID,
	}

	if err := s.assignmentRepo.AssignStudent(ctx, assignment); err != nil {
		return nil, err
	}

	assignment.Student = student
	assignment.Department = department

	s.notify(ctx, studentID,
		fmt.Sprintf("You have been assigned to the %s department for work-study duty.", department.Name))
	return assignment, nil
}

// BulkAssignStudents assigns several students to one department, collecting
// per-student failures instead of aborting the batch
func (s *departmentServiceImpl) BulkAssignStudents(ctx context.Context, assignedByID int64, studentIDs []int64, departmentID int64) (*dto.BulkAssignResult, error) {
	if len(studentIDs) == 0 {
		return nil, fmt.Errorf("%w: no students given", apperrors.ErrValidationFailed)
	}

	result := &dto.BulkAssignResult{}
	for _, studentID := range studentIDs {
		if _, err := s.AssignStudent(ctx, assignedByID, studentID, departmentID); err != nil {
			if result.Failed == nil {
				result.Failed = make(map[int64]string)
			}
			result.Failed[studentID] = err.Error()
			continue
		}
		result.Assigned = append(result.Assigned, studentID)
	}

	return result, nil
}

// UnassignStudent ends a student's active assignment
func (s *departmentServiceImpl) UnassignStudent(ctx context.Context, studentID int64) error {
	return s.assignmentRepo.Deactivate(ctx, studentID)
}

// GetStudentAssignment retrieves a student's active assignment
func (s *departmentServiceImpl) GetStudentAssignment(ctx context.Context, studentID int64) (*models.StudentAssignment, error) {
	return s.assignmentRepo.GetActiveByStudent(ctx, studentID)
}

// ListDepartmentStudents retrieves the students actively assigned to a department
func (s *departmentServiceImpl) ListDepartmentStudents(ctx context.Context, departmentID int64) ([]*models.StudentAssignment, error) {
	if _, err := s.departmentRepo.GetByID(ctx, departmentID); err != nil {
		return nil, err
	}
	return s.assignmentRepo.ListActiveByDepartment(ctx, departmentID)
}

// AssignStaff binds a staff user to the department whose logs they verify
func (s *departmentServiceImpl) AssignStaff(ctx context.Context, userID, departmentID int64) (*models.DepartmentStaff, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleDepartmentStaff {
		return nil, fmt.Errorf("%w: user is not department staff", apperrors.ErrValidationFailed)
	}

	department, err := s.departmentRepo.GetByID(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	if !department.IsActive {
		return nil, apperrors.ErrDepartmentInactive
	}

	staff := &models.DepartmentStaff{
		UserID:       userID,
		DepartmentID: departmentID,
	}

	if err := s.assignmentRepo.AssignStaff(ctx, staff); err != nil {
		return nil, err
	}

	staff.User = user
	staff.Department = department
	return staff, nil
}

// GetStaffDepartment retrieves the department a staff user is bound to
func (s *departmentServiceImpl) GetStaffDepartment(ctx context.Context, userID int64) (*models.Department, error) {
	return s.assignmentRepo.GetStaffDepartment(ctx, userID)
}

// notify sends an in-app notification without letting a failure surface
func (s *departmentServiceImpl) notify(ctx context.Context, userID int64, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyUser(ctx, userID, message); err != nil {
		logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to create notification")
	}
}
