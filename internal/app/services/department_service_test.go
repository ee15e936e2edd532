package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/app/models/dto"
	"github.com/enlassist/backend/internal/pkg/apperrors"
)

// fakeDepartmentStore is an in-memory departmentStore
type fakeDepartmentStore struct {
	departments map[int64]*models.Department
	nextID      int64
}

func (f *fakeDepartmentStore) Create(ctx context.Context, department *models.Department) error {
	if f.departments == nil {
		f.departments = make(map[int64]*models.Department)
	}
	for _, existing := range f.departments {
		if existing.Name == department.Name || existing.Code == department.Code {
			return apperrors.ErrDepartmentAlreadyExists
		}
	}
	f.nextID++
	department.ID = f.nextID
	department.CreatedAt = time.Now()
	f.departments[department.ID] = department
	return nil
}

func (f *fakeDepartmentStore) GetByID(ctx context.Context, id int64) (*models.Department, error) {
	if d, ok := f.departments[id]; ok {
		return d, nil
	}
	return nil, apperrors.ErrDepartmentNotFound
}

func (f *fakeDepartmentStore) GetByName(ctx context.Context, name string) (*models.Department, error) {
	for _, d := range f.departments {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, apperrors.ErrDepartmentNotFound
}

func (f *fakeDepartmentStore) GetAll(ctx context.Context) ([]*models.Department, error) {
	var out []*models.Department
	for _, d := range f.departments {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDepartmentStore) Update(ctx context.Context, department *models.Department) error {
	if _, ok := f.departments[department.ID]; !ok {
		return apperrors.ErrDepartmentNotFound
	}
	f.departments[department.ID] = department
	return nil
}

// fakeAssignmentStore is an in-memory assignmentStore
type fakeAssignmentStore struct {
	fakeStaffAssigner
	nextID int64
}

func (f *fakeAssignmentStore) AssignStudent(ctx context.Context, assignment *models.StudentAssignment) error {
	if f.studentDepartments == nil {
		f.studentDepartments = make(map[int64]int64)
	}
	f.studentDepartments[assignment.StudentID] = assignment.DepartmentID
	f.nextID++
	assignment.ID = f.nextID
	assignment.IsActive = true
	assignment.AssignedAt = time.Now()
	return nil
}

func (f *fakeAssignmentStore) ListActiveByDepartment(ctx context.Context, departmentID int64) ([]*models.StudentAssignment, error) {
	var out []*models.StudentAssignment
	for studentID, deptID := range f.studentDepartments {
		if deptID == departmentID {
			out = append(out, &models.StudentAssignment{
				StudentID: studentID, DepartmentID: deptID, IsActive: true,
			})
		}
	}
	return out, nil
}

func (f *fakeAssignmentStore) Deactivate(ctx context.Context, studentID int64) error {
	if _, ok := f.studentDepartments[studentID]; !ok {
		return apperrors.ErrStudentNotAssigned
	}
	delete(f.studentDepartments, studentID)
	return nil
}

type departmentFixture struct {
	svc         DepartmentService
	departments *fakeDepartmentStore
	assignments *fakeAssignmentStore
	users       *fakeUserStore
	apps        *fakeApplications
	notifier    *fakeNotifier
}

func newDepartmentFixture(t *testing.T) *departmentFixture {
	t.Helper()
	departments := &fakeDepartmentStore{}
	assignments := &fakeAssignmentStore{}
	users := &fakeUserStore{users: map[int64]*models.User{
		testStudentID: {ID: testStudentID, Role: models.RoleStudent, FirstName: "Aarav", LastName: "Deshmukh", IsActive: true},
		testStaffID:   {ID: testStaffID, Role: models.RoleDepartmentStaff, FirstName: "Meera", LastName: "Kulkarni", IsActive: true},
	}}
	apps := &fakeApplications{statuses: map[int64]models.ApplicationStatus{
		testStudentID: models.ApplicationApproved,
	}}
	notifier := &fakeNotifier{}
	svc := NewDepartmentService(departments, assignments, users, apps, notifier)
	return &departmentFixture{
		svc: svc, departments: departments, assignments: assignments,
		users: users, apps: apps, notifier: notifier,
	}
}

func (f *departmentFixture) createDepartment(t *testing.T, name, code string) *models.Department {
	t.Helper()
	d, err := f.svc.CreateDepartment(context.Background(), &dto.CreateDepartmentRequest{Name: name, Code: code})
	require.NoError(t, err)
	return d
}

func TestCreateDepartment(t *testing.T) {
	f := newDepartmentFixture(t)

	d := f.createDepartment(t, "Computer Engineering", "cse")
	assert.Equal(t, "CSE", d.Code)
	assert.True(t, d.IsActive)

	_, err := f.svc.CreateDepartment(context.Background(), &dto.CreateDepartmentRequest{
		Name: "Computer Engineering", Code: "CSE2",
	})
	assert.ErrorIs(t, err, apperrors.ErrDepartmentAlreadyExists)
}

func TestCreateDepartment_CodeValidation(t *testing.T) {
	f := newDepartmentFixture(t)

	_, err := f.svc.CreateDepartment(context.Background(), &dto.CreateDepartmentRequest{
		Name: "Mechanical Engineering", Code: "MECHANICAL-X",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.CreateDepartment(context.Background(), &dto.CreateDepartmentRequest{
		Name: "", Code: "MECH",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestAssignStudent(t *testing.T) {
	f := newDepartmentFixture(t)
	d := f.createDepartment(t, "Computer Engineering", "CSE")

	assignment, err := f.svc.AssignStudent(context.Background(), 1, testStudentID, d.ID)
	require.NoError(t, err)

	assert.Equal(t, d.ID, assignment.DepartmentID)
	assert.True(t, assignment.IsActive)
	require.Len(t, f.notifier.messages[testStudentID], 1)
	assert.Contains(t, f.notifier.messages[testStudentID][0], "Computer Engineering")
}

func TestAssignStudent_RequiresApprovedApplication(t *testing.T) {
	f := newDepartmentFixture(t)
	d := f.createDepartment(t, "Computer Engineering", "CSE")
	f.apps.statuses[testStudentID] = models.ApplicationPending

	_, err := f.svc.AssignStudent(context.Background(), 1, testStudentID, d.ID)
	assert.ErrorIs(t, err, apperrors.ErrApplicationNotApproved)
}

func TestAssignStudent_RejectsNonStudents(t *testing.T) {
	f := newDepartmentFixture(t)
	d := f.createDepartment(t, "Computer Engineering", "CSE")

	_, err := f.svc.AssignStudent(context.Background(), 1, testStaffID, d.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestAssignStudent_InactiveDepartment(t *testing.T) {
	f := newDepartmentFixture(t)
	d := f.createDepartment(t, "Computer Engineering", "CSE")
	d.IsActive = false

	_, err := f.svc.AssignStudent(context.Background(), 1, testStudentID, d.ID)
	assert.ErrorIs(t, err, apperrors.ErrDepartmentInactive)
}

func TestBulkAssignStudents_PartialFailure(t *testing.T) {
	f := newDepartmentFixture(t)
	d := f.createDepartment(t, "Computer Engineering", "CSE")

	second := int64(6)
	f.users.users[second] = &models.User{ID: second, Role: models.RoleStudent, IsActive: true}
	// No application for the second student.

	result, err := f.svc.BulkAssignStudents(context.Background(), 1, []int64{testStudentID, second}, d.ID)
	require.NoError(t, err)

	assert.Equal(t, []int64{testStudentID}, result.Assigned)
	require.Contains(t, result.Failed, second)
}

func TestAssignStaff(t *testing.T) {
	f := newDepartmentFixture(t)
	d := f.createDepartment(t, "Computer Engineering", "CSE")

	staff, err := f.svc.AssignStaff(context.Background(), testStaffID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, staff.DepartmentID)

	// A second binding for the same user is refused.
	_, err = f.svc.AssignStaff(context.Background(), testStaffID, d.ID)
	assert.ErrorIs(t, err, apperrors.ErrStaffAlreadyAssigned)
}

func TestUnassignStudent(t *testing.T) {
	f := newDepartmentFixture(t)
	d := f.createDepartment(t, "Computer Engineering", "CSE")

	_, err := f.svc.AssignStudent(context.Background(), 1, testStudentID, d.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.UnassignStudent(context.Background(), testStudentID))

	_, err = f.svc.GetStudentAssignment(context.Background(), testStudentID)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotAssigned)

	err = f.svc.UnassignStudent(context.Background(), testStudentID)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotAssigned)
}
