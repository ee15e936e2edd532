package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/app/models/dto"
	"github.com/enlassist/backend/internal/app/repositories"
	"github.com/enlassist/backend/internal/pkg/apperrors"
	"github.com/enlassist/backend/internal/pkg/helpers"
)

// fakeWorkLogStore is an in-memory workLogStore
type fakeWorkLogStore struct {
	logs   []*models.WorkLog
	nextID int64
}

func (f *fakeWorkLogStore) Create(ctx context.Context, log *models.WorkLog) error {
	for _, existing := range f.logs {
		if existing.StudentID == log.StudentID && existing.WorkDate.Equal(log.WorkDate) {
			return apperrors.ErrDuplicateWorkLog
		}
	}
	from, to := helpers.MonthBounds(log.WorkDate.Year(), log.WorkDate.Month())
	sum, _ := f.SumMonthHours(ctx, log.StudentID, from, to)
	if sum+log.Hours > models.MaxHoursPerMonth {
		return apperrors.ErrMonthlyCapExceeded
	}
	f.nextID++
	log.ID = f.nextID
	log.CreatedAt = time.Now()
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeWorkLogStore) GetByID(ctx context.Context, id int64) (*models.WorkLog, error) {
	for _, log := range f.logs {
		if log.ID == id {
			return log, nil
		}
	}
	return nil, apperrors.ErrWorkLogNotFound
}

func (f *fakeWorkLogStore) ListByStudent(ctx context.Context, studentID int64, page, size int) ([]*models.WorkLog, int64, error) {
	var out []*models.WorkLog
	for _, log := range f.logs {
		if log.StudentID == studentID {
			out = append(out, log)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeWorkLogStore) ListPendingByDepartment(ctx context.Context, departmentID int64, page, size int) ([]*models.WorkLog, int64, error) {
	var out []*models.WorkLog
	for _, log := range f.logs {
		if log.IsPending() {
			out = append(out, log)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeWorkLogStore) Verify(ctx context.Context, id, decidedBy int64) error {
	log, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !log.IsPending() {
		return apperrors.ErrWorkLogAlreadyDecided
	}
	now := time.Now()
	log.IsVerified = true
	log.DecidedByID = &decidedBy
	log.DecidedAt = &now
	return nil
}

func (f *fakeWorkLogStore) Reject(ctx context.Context, id, decidedBy int64, reason string) error {
	log, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !log.IsPending() {
		return apperrors.ErrWorkLogAlreadyDecided
	}
	now := time.Now()
	log.IsRejected = true
	log.RejectionReason = &reason
	log.DecidedByID = &decidedBy
	log.DecidedAt = &now
	return nil
}

func (f *fakeWorkLogStore) SumMonthHours(ctx context.Context, studentID int64, from, to time.Time) (int, error) {
	sum := 0
	for _, log := range f.logs {
		if log.StudentID == studentID && !log.IsRejected &&
			!log.WorkDate.Before(from) && log.WorkDate.Before(to) {
			sum += log.Hours
		}
	}
	return sum, nil
}

func (f *fakeWorkLogStore) ExistsForDate(ctx context.Context, studentID int64, date time.Time) (bool, error) {
	for _, log := range f.logs {
		if log.StudentID == studentID && log.WorkDate.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWorkLogStore) SummaryByStudent(ctx context.Context, studentID int64) (*repositories.WorkSummary, error) {
	summary := &repositories.WorkSummary{}
	for _, log := range f.logs {
		if log.StudentID != studentID {
			continue
		}
		summary.TotalHours += log.Hours
		switch {
		case log.IsVerified:
			summary.VerifiedHours += log.Hours
		case log.IsRejected:
			summary.RejectedHours += log.Hours
		default:
			summary.PendingHours += log.Hours
		}
	}
	return summary, nil
}

// fakeAssignments maps students and staff to departments
type fakeAssignments struct {
	studentDepartments map[int64]int64
	staffDepartments   map[int64]int64
}

func (f *fakeAssignments) GetActiveByStudent(ctx context.Context, studentID int64) (*models.StudentAssignment, error) {
	departmentID, ok := f.studentDepartments[studentID]
	if !ok {
		return nil, apperrors.ErrStudentNotAssigned
	}
	return &models.StudentAssignment{
		StudentID:    studentID,
		DepartmentID: departmentID,
		IsActive:     true,
	}, nil
}

func (f *fakeAssignments) GetStaffDepartment(ctx context.Context, userID int64) (*models.Department, error) {
	departmentID, ok := f.staffDepartments[userID]
	if !ok {
		return nil, apperrors.ErrDepartmentNotFound
	}
	return &models.Department{ID: departmentID, Name: "Dept", IsActive: true}, nil
}

// fakeApplications maps students to application statuses
type fakeApplications struct {
	statuses map[int64]models.ApplicationStatus
}

func (f *fakeApplications) GetByStudentID(ctx context.Context, studentID int64) (*models.Application, error) {
	status, ok := f.statuses[studentID]
	if !ok {
		return nil, apperrors.ErrApplicationNotFound
	}
	return &models.Application{StudentID: studentID, Status: status}, nil
}

// fakeNotifier records delivered messages
type fakeNotifier struct {
	messages map[int64][]string
	fail     bool
}

func (f *fakeNotifier) NotifyUser(ctx context.Context, userID int64, message string) error {
	if f.fail {
		return errors.New("notification store down")
	}
	if f.messages == nil {
		f.messages = make(map[int64][]string)
	}
	f.messages[userID] = append(f.messages[userID], message)
	return nil
}

const (
	testStudentID = int64(5)
	testStaffID   = int64(9)
	testDeptID    = int64(2)
)

func newWorkLogFixture(t *testing.T) (*workLogServiceImpl, *fakeWorkLogStore, *fakeNotifier) {
	t.Helper()
	store := &fakeWorkLogStore{}
	assignments := &fakeAssignments{
		studentDepartments: map[int64]int64{testStudentID: testDeptID},
		staffDepartments:   map[int64]int64{testStaffID: testDeptID},
	}
	apps := &fakeApplications{
		statuses: map[int64]models.ApplicationStatus{testStudentID: models.ApplicationApproved},
	}
	notifier := &fakeNotifier{}
	svc := NewWorkLogService(store, assignments, apps, notifier).(*workLogServiceImpl)
	// Fixed clock: Monday 2025-08-04.
	svc.now = func() time.Time { return time.Date(2025, 8, 4, 10, 0, 0, 0, time.UTC) }
	return svc, store, notifier
}

func fieldMessage(t *testing.T, err error, field string) string {
	t.Helper()
	var ve *dto.ValidationErrors
	require.ErrorAs(t, err, &ve)
	require.True(t, ve.HasField(field), "expected error on field %q, got %v", field, ve.Errors)
	return ve.FieldMessage(field)
}

func TestSubmitWorkLog_Valid(t *testing.T) {
	svc, store, _ := newWorkLogFixture(t)

	log, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Hours:       3,
		Description: "Organized the departmental library records.",
	})

	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, 3, log.Hours)
	assert.Equal(t, time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC), log.WorkDate)
	assert.True(t, log.IsPending())
	assert.Len(t, store.logs, 1)
}

func TestSubmitWorkLog_HoursBounds(t *testing.T) {
	tests := []struct {
		name  string
		hours int
		valid bool
	}{
		{"zero hours", 0, false},
		{"one hour", 1, true},
		{"three hours", 3, true},
		{"four hours", 4, false},
		{"negative hours", -2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newWorkLogFixture(t)
			_, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
				Hours:       tt.hours,
				Description: "Catalogued new arrivals in the library.",
			})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				msg := fieldMessage(t, err, "hours")
				assert.Equal(t, "Hours worked must be between 1 and 3 hours per day.", msg)
			}
		})
	}
}

func TestSubmitWorkLog_SundayBlocked(t *testing.T) {
	svc, _, _ := newWorkLogFixture(t)

	_, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Date:        "2025-08-03",
		Hours:       2,
		Description: "Helped with the admission help desk.",
	})

	msg := fieldMessage(t, err, "date")
	assert.Equal(t, "Work logs cannot be added on Sundays.", msg)
}

func TestSubmitWorkLog_Description(t *testing.T) {
	svc, _, _ := newWorkLogFixture(t)

	_, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Hours:       2,
		Description: "   ",
	})
	assert.Equal(t, "Work description is required.", fieldMessage(t, err, "description"))

	_, err = svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Hours:       2,
		Description: "short",
	})
	assert.Equal(t, "Please provide a more detailed description (at least 10 characters).",
		fieldMessage(t, err, "description"))
}

func TestSubmitWorkLog_OnePerDay(t *testing.T) {
	svc, _, _ := newWorkLogFixture(t)

	_, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Hours:       2,
		Description: "Scanned answer sheets for the records office.",
	})
	require.NoError(t, err)

	_, err = svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Hours:       1,
		Description: "Scanned more answer sheets after lunch.",
	})
	assert.Equal(t, "You can only submit one work log per day.", fieldMessage(t, err, "date"))
}

// seedMonthHours fills August 2025 weekdays with logs totalling the given hours
func seedMonthHours(t *testing.T, store *fakeWorkLogStore, hours int) {
	t.Helper()
	day := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	remaining := hours
	for remaining > 0 {
		if day.Weekday() != time.Sunday {
			h := 3
			if remaining < 3 {
				h = remaining
			}
			store.nextID++
			store.logs = append(store.logs, &models.WorkLog{
				ID:          store.nextID,
				StudentID:   testStudentID,
				WorkDate:    day,
				Hours:       h,
				Description: "seeded work entry for cap tests",
			})
			remaining -= h
		}
		day = day.AddDate(0, 0, 1)
		require.True(t, day.Month() == time.August, "seed overflowed the month")
	}
}

func TestSubmitWorkLog_MonthlyCapPartial(t *testing.T) {
	svc, store, _ := newWorkLogFixture(t)
	seedMonthHours(t, store, 28)
	svc.now = func() time.Time { return time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC) }

	_, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Hours:       3,
		Description: "Filed department circulars and notices.",
	})

	msg := fieldMessage(t, err, "hours")
	assert.Equal(t, "Adding 3 hours would exceed monthly limit. You can only add 2 more hours this month.", msg)
}

func TestSubmitWorkLog_MonthlyCapReached(t *testing.T) {
	svc, store, _ := newWorkLogFixture(t)
	seedMonthHours(t, store, 30)
	svc.now = func() time.Time { return time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC) }

	_, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Hours:       1,
		Description: "Updated the student notice board.",
	})

	msg := fieldMessage(t, err, "hours")
	assert.Equal(t, "Monthly limit of 30 hours has been reached for this month.", msg)
}

func TestSubmitWorkLog_RejectedHoursFreeCap(t *testing.T) {
	svc, store, _ := newWorkLogFixture(t)
	seedMonthHours(t, store, 30)
	// Rejecting a 3 hour log frees room under the cap.
	store.logs[0].IsRejected = true
	svc.now = func() time.Time { return time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC) }

	log, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Hours:       3,
		Description: "Re-entered the corrected attendance data.",
	})

	require.NoError(t, err)
	assert.Equal(t, 3, log.Hours)
}

func TestSubmitWorkLog_RequiresApprovedApplication(t *testing.T) {
	svc, _, _ := newWorkLogFixture(t)
	svc.appRepo = &fakeApplications{
		statuses: map[int64]models.ApplicationStatus{testStudentID: models.ApplicationPending},
	}

	_, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Hours:       2,
		Description: "Sorted incoming postal mail for the office.",
	})

	assert.ErrorIs(t, err, apperrors.ErrApplicationNotApproved)
}

func TestSubmitWorkLog_RequiresAssignment(t *testing.T) {
	svc, _, _ := newWorkLogFixture(t)
	svc.assignmentRepo = &fakeAssignments{
		studentDepartments: map[int64]int64{},
		staffDepartments:   map[int64]int64{testStaffID: testDeptID},
	}

	_, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Hours:       2,
		Description: "Sorted incoming postal mail for the office.",
	})

	assert.ErrorIs(t, err, apperrors.ErrStudentNotAssigned)
}

func TestVerifyWorkLog(t *testing.T) {
	svc, store, notifier := newWorkLogFixture(t)

	log, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Hours:       3,
		Description: "Prepared lab equipment for practicals.",
	})
	require.NoError(t, err)

	err = svc.VerifyWorkLog(context.Background(), testStaffID, models.RoleDepartmentStaff, log.ID)
	require.NoError(t, err)

	stored, _ := store.GetByID(context.Background(), log.ID)
	assert.True(t, stored.IsVerified)
	assert.False(t, stored.IsRejected)
	require.Len(t, notifier.messages[testStudentID], 1)
	assert.Contains(t, notifier.messages[testStudentID][0], "verified")

	// A second decision on the same log is refused.
	err = svc.RejectWorkLog(context.Background(), testStaffID, models.RoleDepartmentStaff, log.ID, "late entry")
	assert.ErrorIs(t, err, apperrors.ErrWorkLogAlreadyDecided)
}

func TestRejectWorkLog(t *testing.T) {
	svc, store, notifier := newWorkLogFixture(t)

	log, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Hours:       2,
		Description: "Assisted during the fee collection window.",
	})
	require.NoError(t, err)

	err = svc.RejectWorkLog(context.Background(), testStaffID, models.RoleDepartmentStaff, log.ID, "No such duty was scheduled that day")
	require.NoError(t, err)

	stored, _ := store.GetByID(context.Background(), log.ID)
	assert.True(t, stored.IsRejected)
	require.NotNil(t, stored.RejectionReason)
	assert.Equal(t, "No such duty was scheduled that day", *stored.RejectionReason)
	require.Len(t, notifier.messages[testStudentID], 1)
	assert.Contains(t, notifier.messages[testStudentID][0], "rejected")
}

func TestRejectWorkLog_RequiresReason(t *testing.T) {
	svc, _, _ := newWorkLogFixture(t)

	err := svc.RejectWorkLog(context.Background(), testStaffID, models.RoleDepartmentStaff, 1, "  ")
	assert.Equal(t, "Rejection reason is required.", fieldMessage(t, err, "reason"))
}

func TestDecide_StaffOtherDepartmentForbidden(t *testing.T) {
	svc, _, _ := newWorkLogFixture(t)

	log, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Hours:       2,
		Description: "Maintained the seminar hall booking register.",
	})
	require.NoError(t, err)

	otherStaff := int64(77)
	svc.assignmentRepo = &fakeAssignments{
		studentDepartments: map[int64]int64{testStudentID: testDeptID},
		staffDepartments:   map[int64]int64{otherStaff: testDeptID + 1},
	}

	err = svc.VerifyWorkLog(context.Background(), otherStaff, models.RoleDepartmentStaff, log.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestDecide_CoordinatorAnyDepartment(t *testing.T) {
	svc, store, _ := newWorkLogFixture(t)

	log, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Hours:       2,
		Description: "Maintained the seminar hall booking register.",
	})
	require.NoError(t, err)

	err = svc.VerifyWorkLog(context.Background(), 100, models.RoleCoordinator, log.ID)
	require.NoError(t, err)

	stored, _ := store.GetByID(context.Background(), log.ID)
	assert.True(t, stored.IsVerified)
}

func TestVerifyWorkLog_NotifierFailureIgnored(t *testing.T) {
	svc, store, notifier := newWorkLogFixture(t)
	notifier.fail = true

	log, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Hours:       1,
		Description: "Shelved returned library books by call number.",
	})
	require.NoError(t, err)

	err = svc.VerifyWorkLog(context.Background(), testStaffID, models.RoleDepartmentStaff, log.ID)
	require.NoError(t, err)

	stored, _ := store.GetByID(context.Background(), log.ID)
	assert.True(t, stored.IsVerified)
}

func TestGetStudentSummary(t *testing.T) {
	svc, store, _ := newWorkLogFixture(t)
	seedMonthHours(t, store, 12)
	store.logs[0].IsVerified = true
	store.logs[1].IsRejected = true

	summary, err := svc.GetStudentSummary(context.Background(), testStudentID)
	require.NoError(t, err)

	assert.Equal(t, 12, summary.TotalHours)
	assert.Equal(t, 3, summary.VerifiedHours)
	assert.Equal(t, 3, summary.RejectedHours)
	assert.Equal(t, 6, summary.PendingHours)
	assert.Equal(t, 9, summary.MonthHours)
	assert.Equal(t, models.MaxHoursPerMonth-9, summary.MonthRemaining)
}

func TestSubmitWorkLog_EndToEndMonday(t *testing.T) {
	svc, store, notifier := newWorkLogFixture(t)

	// Monday 2025-08-04: a student logs 3 hours, staff verifies it.
	log, err := svc.SubmitWorkLog(context.Background(), testStudentID, &dto.SubmitWorkLogRequest{
		Date:        "2025-08-04",
		Hours:       3,
		Description: "Digitized old examination records for the archive.",
	})
	require.NoError(t, err)

	require.NoError(t, svc.VerifyWorkLog(context.Background(), testStaffID, models.RoleDepartmentStaff, log.ID))

	stored, _ := store.GetByID(context.Background(), log.ID)
	assert.True(t, stored.IsVerified)

	from, to := helpers.MonthBounds(2025, time.August)
	sum, _ := store.SumMonthHours(context.Background(), testStudentID, from, to)
	assert.Equal(t, 3, sum)

	require.Len(t, notifier.messages[testStudentID], 1)
	assert.Equal(t, fmt.Sprintf("Your work log for %s has been verified.", "2025-08-04"),
		notifier.messages[testStudentID][0])
}
