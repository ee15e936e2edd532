package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/app/models/dto"
	"github.com/enlassist/backend/internal/pkg/apperrors"
	"github.com/enlassist/backend/internal/pkg/helpers"
)

// fakeRateStore is an in-memory rateStore
type fakeRateStore struct {
	rates  []*models.PayRate
	nextID int64
}

func (f *fakeRateStore) GetCurrent(ctx context.Context) (*models.PayRate, error) {
	for _, rate := range f.rates {
		if rate.IsCurrent {
			return rate, nil
		}
	}
	return nil, apperrors.ErrRateNotConfigured
}

func (f *fakeRateStore) SetCurrent(ctx context.Context, rate *models.PayRate) error {
	for _, existing := range f.rates {
		existing.IsCurrent = false
	}
	f.nextID++
	rate.ID = f.nextID
	rate.IsCurrent = true
	rate.CreatedAt = time.Now()
	f.rates = append(f.rates, rate)
	return nil
}

func (f *fakeRateStore) ListHistory(ctx context.Context) ([]*models.PayRate, error) {
	out := make([]*models.PayRate, len(f.rates))
	copy(out, f.rates)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// fakePaymentStore keys calculations by (student, month) and summaries by
// (department, month), mirroring the database upsert semantics
type fakePaymentStore struct {
	calcs       map[string]*models.PaymentCalculation
	summaries   map[string]*models.DepartmentPaymentSummary
	nextID      int64
	upsertCalls int
}

func calcKey(studentID int64, month time.Time) string {
	return fmt.Sprintf("%d|%s", studentID, month.Format("2006-01"))
}

func summaryKey(departmentID int64, month time.Time) string {
	return fmt.Sprintf("%d|%s", departmentID, month.Format("2006-01"))
}

func (f *fakePaymentStore) UpsertCalculation(ctx context.Context, calc *models.PaymentCalculation) error {
	if f.calcs == nil {
		f.calcs = make(map[string]*models.PaymentCalculation)
	}
	f.upsertCalls++
	key := calcKey(calc.StudentID, calc.CalculationMonth)
	if existing, ok := f.calcs[key]; ok {
		calc.ID = existing.ID
		calc.CreatedAt = existing.CreatedAt
	} else {
		f.nextID++
		calc.ID = f.nextID
		calc.CreatedAt = time.Now()
	}
	calc.UpdatedAt = time.Now()
	stored := *calc
	f.calcs[key] = &stored
	return nil
}

func (f *fakePaymentStore) GetCalculation(ctx context.Context, studentID int64, month time.Time) (*models.PaymentCalculation, error) {
	if calc, ok := f.calcs[calcKey(studentID, month)]; ok {
		return calc, nil
	}
	return nil, apperrors.ErrCalculationNotFound
}

func (f *fakePaymentStore) ListCalculationsByMonth(ctx context.Context, month time.Time) ([]*models.PaymentCalculation, error) {
	var out []*models.PaymentCalculation
	for _, calc := range f.calcs {
		if calc.CalculationMonth.Equal(month) {
			out = append(out, calc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (f *fakePaymentStore) ListCalculationsByStudent(ctx context.Context, studentID int64) ([]*models.PaymentCalculation, error) {
	var out []*models.PaymentCalculation
	for _, calc := range f.calcs {
		if calc.StudentID == studentID {
			out = append(out, calc)
		}
	}
	return out, nil
}

func (f *fakePaymentStore) UpsertSummary(ctx context.Context, summary *models.DepartmentPaymentSummary) error {
	if f.summaries == nil {
		f.summaries = make(map[string]*models.DepartmentPaymentSummary)
	}
	key := summaryKey(summary.DepartmentID, summary.CalculationMonth)
	if existing, ok := f.summaries[key]; ok {
		summary.ID = existing.ID
	} else {
		f.nextID++
		summary.ID = f.nextID
	}
	stored := *summary
	f.summaries[key] = &stored
	return nil
}

func (f *fakePaymentStore) GetSummary(ctx context.Context, departmentID int64, month time.Time) (*models.DepartmentPaymentSummary, error) {
	if summary, ok := f.summaries[summaryKey(departmentID, month)]; ok {
		return summary, nil
	}
	return nil, apperrors.ErrSummaryNotFound
}

func (f *fakePaymentStore) DeleteSummariesByMonth(ctx context.Context, month time.Time) error {
	for key, summary := range f.summaries {
		if summary.CalculationMonth.Equal(month) {
			delete(f.summaries, key)
		}
	}
	return nil
}

func (f *fakePaymentStore) ListSummariesByMonth(ctx context.Context, month time.Time) ([]*models.DepartmentPaymentSummary, error) {
	var out []*models.DepartmentPaymentSummary
	for _, summary := range f.summaries {
		if summary.CalculationMonth.Equal(month) {
			out = append(out, summary)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartmentID < out[j].DepartmentID })
	return out, nil
}

// fakeVerifiedHours maps student -> verified hours for one month
type fakeVerifiedHours struct {
	hours map[int64]int
}

func (f *fakeVerifiedHours) SumVerifiedHours(ctx context.Context, studentID int64, from, to time.Time) (int, error) {
	return f.hours[studentID], nil
}

func (f *fakeVerifiedHours) StudentsWithVerifiedHours(ctx context.Context, from, to time.Time) ([]int64, error) {
	var out []int64
	for id, h := range f.hours {
		if h > 0 {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

type paymentFixture struct {
	svc        *paymentServiceImpl
	rates      *fakeRateStore
	payments   *fakePaymentStore
	hours      *fakeVerifiedHours
	assignment *fakeAssignments
	apps       *fakeApplications
	notifier   *fakeNotifier
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	rates := &fakeRateStore{}
	payments := &fakePaymentStore{}
	hours := &fakeVerifiedHours{hours: map[int64]int{}}
	assignment := &fakeAssignments{
		studentDepartments: map[int64]int64{testStudentID: testDeptID},
		staffDepartments:   map[int64]int64{},
	}
	apps := &fakeApplications{statuses: map[int64]models.ApplicationStatus{testStudentID: models.ApplicationApproved}}
	notifier := &fakeNotifier{}
	svc := NewPaymentService(rates, payments, hours, assignment, apps, notifier).(*paymentServiceImpl)
	return &paymentFixture{svc: svc, rates: rates, payments: payments, hours: hours, assignment: assignment, apps: apps, notifier: notifier}
}

func (f *paymentFixture) setRate(t *testing.T, rate string) {
	t.Helper()
	_, err := f.svc.SetRate(context.Background(), 1, &dto.SetRateRequest{RatePerHour: rate})
	require.NoError(t, err)
}

func TestSetRate(t *testing.T) {
	f := newPaymentFixture(t)

	rate, err := f.svc.SetRate(context.Background(), 1, &dto.SetRateRequest{RatePerHour: "50.00", Notes: "initial rate"})
	require.NoError(t, err)
	assert.True(t, rate.IsCurrent)
	assert.Equal(t, "50.00", rate.RatePerHour.StringFixed(2))

	_, err = f.svc.SetRate(context.Background(), 1, &dto.SetRateRequest{RatePerHour: "not-a-number"})
	assert.Equal(t, "Rate must be a valid decimal number.", fieldMessage(t, err, "ratePerHour"))

	_, err = f.svc.SetRate(context.Background(), 1, &dto.SetRateRequest{RatePerHour: "-5"})
	assert.Equal(t, "Rate must be greater than zero.", fieldMessage(t, err, "ratePerHour"))
}

func TestSetRate_SupersedesPrevious(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "50.00")
	f.setRate(t, "60.00")

	current, err := f.svc.GetCurrentRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "60.00", current.RatePerHour.StringFixed(2))

	history, err := f.svc.ListRateHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].IsCurrent)
	assert.False(t, history[1].IsCurrent)
	assert.Equal(t, "50.00", history[1].RatePerHour.StringFixed(2))
}

func TestCalculateStudentMonth(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")
	f.hours.hours[testStudentID] = 24

	calc, err := f.svc.CalculateStudentMonth(context.Background(), 1, testStudentID, 2025, time.August)
	require.NoError(t, err)
	require.NotNil(t, calc)

	assert.Equal(t, 24, calc.TotalHours)
	assert.Equal(t, "60.00", calc.RatePerHour.StringFixed(2))
	assert.Equal(t, "1440.00", calc.TotalAmount.StringFixed(2))
	assert.Equal(t, testDeptID, calc.DepartmentID)
	assert.Equal(t, helpers.MonthStart(2025, time.August), calc.CalculationMonth)
}

func TestCalculateStudentMonth_NoHoursYieldsNil(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")

	calc, err := f.svc.CalculateStudentMonth(context.Background(), 1, testStudentID, 2025, time.August)
	require.NoError(t, err)
	assert.Nil(t, calc)
	assert.Zero(t, f.payments.upsertCalls)
}

func TestCalculateStudentMonth_RateNotConfigured(t *testing.T) {
	f := newPaymentFixture(t)
	f.hours.hours[testStudentID] = 10

	_, err := f.svc.CalculateStudentMonth(context.Background(), 1, testStudentID, 2025, time.August)
	assert.ErrorIs(t, err, apperrors.ErrRateNotConfigured)
}

func TestCalculateStudentMonth_Unassigned(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")
	unassigned := int64(42)
	f.hours.hours[unassigned] = 10

	_, err := f.svc.CalculateStudentMonth(context.Background(), 1, unassigned, 2025, time.August)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotAssigned)
}

func TestCalculateStudentMonth_RecomputeReplaces(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "50.00")
	f.hours.hours[testStudentID] = 20

	first, err := f.svc.CalculateStudentMonth(context.Background(), 1, testStudentID, 2025, time.August)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", first.TotalAmount.StringFixed(2))

	// The rate changes and more hours get verified; recomputing replaces the
	// stored row instead of adding a second one.
	f.setRate(t, "60.00")
	f.hours.hours[testStudentID] = 24

	second, err := f.svc.CalculateStudentMonth(context.Background(), 1, testStudentID, 2025, time.August)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "1440.00", second.TotalAmount.StringFixed(2))
	assert.Len(t, f.payments.calcs, 1)
}

func TestCalculateMonth_Bulk(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")

	other := int64(6)
	unassigned := int64(7)
	f.assignment.studentDepartments[other] = testDeptID + 1
	f.apps.statuses[other] = models.ApplicationApproved
	f.apps.statuses[unassigned] = models.ApplicationApproved
	f.hours.hours[testStudentID] = 24
	f.hours.hours[other] = 10
	f.hours.hours[unassigned] = 8

	result, err := f.svc.CalculateMonth(context.Background(), 1, &dto.CalculateRequest{Year: 2025, Month: 8})
	require.NoError(t, err)

	assert.Len(t, result.Calculated, 2)
	require.Contains(t, result.Failed, unassigned)
	assert.Contains(t, result.Failed[unassigned], "no active department assignment")

	// One summary per department with a successful calculation.
	assert.Len(t, result.Summaries, 2)
	require.Len(t, f.notifier.messages[testStudentID], 1)
	assert.Contains(t, f.notifier.messages[testStudentID][0], "1440.00")
}

func TestCalculateMonth_DepartmentFilter(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")

	other := int64(6)
	unassigned := int64(7)
	f.assignment.studentDepartments[other] = testDeptID + 1
	f.hours.hours[testStudentID] = 24
	f.hours.hours[other] = 10
	f.hours.hours[unassigned] = 8

	deptID := testDeptID
	result, err := f.svc.CalculateMonth(context.Background(), 1, &dto.CalculateRequest{Year: 2025, Month: 8, DepartmentID: &deptID})
	require.NoError(t, err)

	// Only the filtered department's student is calculated; students outside
	// the department, assigned elsewhere or not at all, are out of scope.
	require.Len(t, result.Calculated, 1)
	assert.Equal(t, testStudentID, result.Calculated[0].StudentID)
	assert.Empty(t, result.Failed)
}

func TestCalculateMonth_SkipsExistingUnlessRecalculate(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "50.00")
	f.hours.hours[testStudentID] = 20

	first, err := f.svc.CalculateMonth(context.Background(), 1, &dto.CalculateRequest{Year: 2025, Month: 8})
	require.NoError(t, err)
	require.Len(t, first.Calculated, 1)

	f.setRate(t, "60.00")

	second, err := f.svc.CalculateMonth(context.Background(), 1, &dto.CalculateRequest{Year: 2025, Month: 8})
	require.NoError(t, err)
	assert.Empty(t, second.Calculated)
	assert.Equal(t, []int64{testStudentID}, second.SkippedExisting)
	assert.Equal(t, "1000.00", f.payments.calcs[calcKey(testStudentID, helpers.MonthStart(2025, time.August))].TotalAmount.StringFixed(2))

	third, err := f.svc.CalculateMonth(context.Background(), 1, &dto.CalculateRequest{Year: 2025, Month: 8, Recalculate: true})
	require.NoError(t, err)
	require.Len(t, third.Calculated, 1)
	assert.Equal(t, "1200.00", third.Calculated[0].TotalAmount)
}

func TestCalculateMonth_SkipsUnapprovedApplications(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")

	// Both students still hold verified hours and an active assignment, but
	// one application was rejected since and the other has no record at all.
	rejected := int64(6)
	missing := int64(7)
	f.assignment.studentDepartments[rejected] = testDeptID
	f.assignment.studentDepartments[missing] = testDeptID
	f.apps.statuses[rejected] = models.ApplicationRejected
	f.hours.hours[testStudentID] = 24
	f.hours.hours[rejected] = 10
	f.hours.hours[missing] = 8

	result, err := f.svc.CalculateMonth(context.Background(), 1, &dto.CalculateRequest{Year: 2025, Month: 8})
	require.NoError(t, err)

	require.Len(t, result.Calculated, 1)
	assert.Equal(t, testStudentID, result.Calculated[0].StudentID)
	assert.Equal(t, []int64{rejected, missing}, result.SkippedNotApproved)
	assert.Empty(t, result.Failed)
	assert.Empty(t, f.notifier.messages[rejected])
	assert.Empty(t, f.notifier.messages[missing])
}

func TestCalculateMonth_CompletedApplicationNotPaid(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")
	f.apps.statuses[testStudentID] = models.ApplicationCompleted
	f.hours.hours[testStudentID] = 24

	result, err := f.svc.CalculateMonth(context.Background(), 1, &dto.CalculateRequest{Year: 2025, Month: 8})
	require.NoError(t, err)

	assert.Empty(t, result.Calculated)
	assert.Equal(t, []int64{testStudentID}, result.SkippedNotApproved)
	assert.Empty(t, f.payments.calcs)
}

func TestCalculateMonth_DepartmentFilterScopesSummaries(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")

	other := int64(6)
	f.assignment.studentDepartments[other] = testDeptID + 1
	f.apps.statuses[other] = models.ApplicationApproved
	f.hours.hours[testStudentID] = 24
	f.hours.hours[other] = 10

	// The other department's summary exists before the filtered run.
	_, err := f.svc.CalculateStudentMonth(context.Background(), 1, other, 2025, time.August)
	require.NoError(t, err)
	_, err = f.svc.SummarizeMonth(context.Background(), 2025, time.August, nil)
	require.NoError(t, err)

	deptID := testDeptID
	result, err := f.svc.CalculateMonth(context.Background(), 1, &dto.CalculateRequest{Year: 2025, Month: 8, DepartmentID: &deptID, Recalculate: true})
	require.NoError(t, err)

	// Only the in-scope department's summary is refreshed and returned.
	require.Len(t, result.Summaries, 1)
	assert.Equal(t, testDeptID, result.Summaries[0].DepartmentID)

	monthStart := helpers.MonthStart(2025, time.August)
	outside, err := f.payments.GetSummary(context.Background(), testDeptID+1, monthStart)
	require.NoError(t, err)
	assert.Equal(t, 10, outside.TotalHours)
}

func TestCalculateMonth_AllFailedSkipsSummaries(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")
	unassigned := int64(7)
	f.apps.statuses[unassigned] = models.ApplicationApproved
	f.hours.hours[unassigned] = 8

	result, err := f.svc.CalculateMonth(context.Background(), 1, &dto.CalculateRequest{Year: 2025, Month: 8})
	require.NoError(t, err)

	assert.Empty(t, result.Calculated)
	assert.Len(t, result.Failed, 1)
	assert.Empty(t, result.Summaries)
	assert.Empty(t, f.payments.summaries)
}

func TestSummarizeMonth(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")

	students := map[int64]int{5: 24, 6: 18, 7: 30}
	for id, h := range students {
		f.assignment.studentDepartments[id] = testDeptID
		f.hours.hours[id] = h
		_, err := f.svc.CalculateStudentMonth(context.Background(), 1, id, 2025, time.August)
		require.NoError(t, err)
	}

	summaries, err := f.svc.SummarizeMonth(context.Background(), 2025, time.August, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	summary := summaries[0]
	assert.Equal(t, 3, summary.TotalStudents)
	assert.Equal(t, 72, summary.TotalHours)
	assert.Equal(t, "4320.00", summary.TotalAmount.StringFixed(2))
	assert.Equal(t, "24.00", summary.AverageHoursPerStudent.StringFixed(2))
}

func TestSummarizeMonth_AverageRounds(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")

	students := map[int64]int{5: 24, 6: 23}
	for id, h := range students {
		f.assignment.studentDepartments[id] = testDeptID
		f.hours.hours[id] = h
		_, err := f.svc.CalculateStudentMonth(context.Background(), 1, id, 2025, time.August)
		require.NoError(t, err)
	}

	summaries, err := f.svc.SummarizeMonth(context.Background(), 2025, time.August, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "23.50", summaries[0].AverageHoursPerStudent.StringFixed(2))
}

func TestSummarizeMonth_RecomputeReplaces(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")
	f.hours.hours[testStudentID] = 20

	_, err := f.svc.CalculateStudentMonth(context.Background(), 1, testStudentID, 2025, time.August)
	require.NoError(t, err)
	_, err = f.svc.SummarizeMonth(context.Background(), 2025, time.August, nil)
	require.NoError(t, err)

	f.hours.hours[testStudentID] = 26
	_, err = f.svc.CalculateStudentMonth(context.Background(), 1, testStudentID, 2025, time.August)
	require.NoError(t, err)
	summaries, err := f.svc.SummarizeMonth(context.Background(), 2025, time.August, nil)
	require.NoError(t, err)

	require.Len(t, summaries, 1)
	assert.Equal(t, 26, summaries[0].TotalHours)
	assert.Len(t, f.payments.summaries, 1)
}

func TestSummarizeMonth_FullRebuildDropsStale(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")

	other := int64(6)
	f.assignment.studentDepartments[other] = testDeptID + 1
	f.apps.statuses[other] = models.ApplicationApproved
	f.hours.hours[testStudentID] = 24
	f.hours.hours[other] = 10
	for _, id := range []int64{testStudentID, other} {
		_, err := f.svc.CalculateStudentMonth(context.Background(), 1, id, 2025, time.August)
		require.NoError(t, err)
	}

	summaries, err := f.svc.SummarizeMonth(context.Background(), 2025, time.August, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// The other department's only calculation disappears; a full rebuild
	// drops its summary instead of leaving the stale row behind.
	delete(f.payments.calcs, calcKey(other, helpers.MonthStart(2025, time.August)))

	summaries, err = f.svc.SummarizeMonth(context.Background(), 2025, time.August, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, testDeptID, summaries[0].DepartmentID)
	assert.Len(t, f.payments.summaries, 1)
}

func TestGetDepartmentSummary(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")
	f.hours.hours[testStudentID] = 24

	_, err := f.svc.CalculateStudentMonth(context.Background(), 1, testStudentID, 2025, time.August)
	require.NoError(t, err)
	_, err = f.svc.SummarizeMonth(context.Background(), 2025, time.August, nil)
	require.NoError(t, err)

	summary, err := f.svc.GetDepartmentSummary(context.Background(), testDeptID, 2025, time.August)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalStudents)
	assert.Equal(t, 24, summary.TotalHours)
	assert.Equal(t, "1440.00", summary.TotalAmount.StringFixed(2))

	_, err = f.svc.GetDepartmentSummary(context.Background(), testDeptID+1, 2025, time.August)
	assert.ErrorIs(t, err, apperrors.ErrSummaryNotFound)
}

func TestGetDepartmentMonthCalculations(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")

	other := int64(6)
	f.assignment.studentDepartments[other] = testDeptID + 1
	f.hours.hours[testStudentID] = 24
	f.hours.hours[other] = 10
	for _, id := range []int64{testStudentID, other} {
		_, err := f.svc.CalculateStudentMonth(context.Background(), 1, id, 2025, time.August)
		require.NoError(t, err)
	}

	calcs, err := f.svc.GetDepartmentMonthCalculations(context.Background(), testDeptID, 2025, time.August)
	require.NoError(t, err)
	require.Len(t, calcs, 1)
	assert.Equal(t, testStudentID, calcs[0].StudentID)
}

func TestDecimalAmountExact(t *testing.T) {
	// 0.1-style rates stay exact under decimal arithmetic.
	rate := decimal.RequireFromString("33.33")
	amount := decimal.NewFromInt(3).Mul(rate).Round(2)
	assert.Equal(t, "99.99", amount.StringFixed(2))
}
