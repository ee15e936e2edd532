package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/app/models/dto"
	"github.com/enlassist/backend/internal/pkg/apperrors"
	"github.com/enlassist/backend/internal/pkg/helpers"
	"github.com/enlassist/backend/internal/pkg/logger"
)

// PaymentService defines the interface for rate management, monthly payment
// calculation and department summaries
type PaymentService interface {
	SetRate(ctx context.Context, setByID int64, req *dto.SetRateRequest) (*models.PayRate, error)
	GetCurrentRate(ctx context.Context) (*models.PayRate, error)
	ListRateHistory(ctx context.Context) ([]*models.PayRate, error)

	CalculateStudentMonth(ctx context.Context, calculatedByID, studentID int64, year int, month time.Month) (*models.PaymentCalculation, error)
	CalculateMonth(ctx context.Context, calculatedByID int64, req *dto.CalculateRequest) (*dto.BulkCalculationResult, error)
	SummarizeMonth(ctx context.Context, year int, month time.Month, departmentID *int64) ([]*models.DepartmentPaymentSummary, error)

	GetStudentCalculations(ctx context.Context, studentID int64) ([]*models.PaymentCalculation, error)
	GetMonthCalculations(ctx context.Context, year int, month time.Month) ([]*models.PaymentCalculation, error)
	GetDepartmentMonthCalculations(ctx context.Context, departmentID int64, year int, month time.Month) ([]*models.PaymentCalculation, error)
	GetMonthSummaries(ctx context.Context, year int, month time.Month) ([]*models.DepartmentPaymentSummary, error)
	GetDepartmentSummary(ctx context.Context, departmentID int64, year int, month time.Month) (*models.DepartmentPaymentSummary, error)
}

// rateStore is the rate repository surface the service depends on
type rateStore interface {
	GetCurrent(ctx context.Context) (*models.PayRate, error)
	SetCurrent(ctx context.Context, rate *models.PayRate) error
	ListHistory(ctx context.Context) ([]*models.PayRate, error)
}

// paymentStore is the calculation repository surface the service depends on
type paymentStore interface {
	UpsertCalculation(ctx context.Context, calc *models.PaymentCalculation) error
	GetCalculation(ctx context.Context, studentID int64, month time.Time) (*models.PaymentCalculation, error)
	ListCalculationsByMonth(ctx context.Context, month time.Time) ([]*models.PaymentCalculation, error)
	ListCalculationsByStudent(ctx context.Context, studentID int64) ([]*models.PaymentCalculation, error)
	UpsertSummary(ctx context.Context, summary *models.DepartmentPaymentSummary) error
	GetSummary(ctx context.Context, departmentID int64, month time.Time) (*models.DepartmentPaymentSummary, error)
	ListSummariesByMonth(ctx context.Context, month time.Time) ([]*models.DepartmentPaymentSummary, error)
	DeleteSummariesByMonth(ctx context.Context, month time.Time) error
}

// verifiedHoursReader is the work log surface the calculator depends on
type verifiedHoursReader interface {
	SumVerifiedHours(ctx context.Context, studentID int64, from, to time.Time) (int, error)
	StudentsWithVerifiedHours(ctx context.Context, from, to time.Time) ([]int64, error)
}

// paymentServiceImpl implements the PaymentService interface
type paymentServiceImpl struct {
	rateRepo       rateStore
	paymentRepo    paymentStore
	workLogRepo    verifiedHoursReader
	assignmentRepo assignmentReader
	appRepo        applicationReader
	notifier       Notifier
}

// NewPaymentService creates a new payment service instance
func NewPaymentService(rateRepo rateStore, paymentRepo paymentStore, workLogRepo verifiedHoursReader, assignmentRepo assignmentReader, appRepo applicationReader, notifier Notifier) PaymentService {
	return &paymentServiceImpl{
		rateRepo:       rateRepo,
		paymentRepo:    paymentRepo,
		workLogRepo:    workLogRepo,
		assignmentRepo: assignmentRepo,
		appRepo:        appRepo,
		notifier:       notifier,
	}
}

// SetRate supersedes the current hourly rate with a new version
func (s *paymentServiceImpl) SetRate(ctx context.Context, setByID int64, req *dto.SetRateRequest) (*models.PayRate, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(req.RatePerHour))
	if err != nil {
		return nil, dto.NewValidationErrors().AddError("ratePerHour", "Rate must be a valid decimal number.")
	}
	if !value.IsPositive() {
		return nil, dto.NewValidationErrors().AddError("ratePerHour", "Rate must be greater than zero.")
	}

	rate := &models.PayRate{
		RatePerHour: value.Round(2),
		SetByID:     &setByID,
		Notes:       strings.TrimSpace(req.Notes),
	}

	if err := s.rateRepo.SetCurrent(ctx, rate); err != nil {
		return nil, err
	}

	return rate, nil
}

// GetCurrentRate retrieves the current hourly rate
func (s *paymentServiceImpl) GetCurrentRate(ctx context.Context) (*models.PayRate, error) {
	return s.rateRepo.GetCurrent(ctx)
}

// ListRateHistory retrieves all rate versions, newest first
func (s *paymentServiceImpl) ListRateHistory(ctx context.Context) ([]*models.PayRate, error) {
	return s.rateRepo.ListHistory(ctx)
}

// CalculateStudentMonth derives one student's payment for a month from their
// verified hours and the current rate, and stores it keyed by
// (student, month). Recalculating replaces the stored row in full, so the
// operation is idempotent. A student with no verified hours yields no
// calculation and (nil, nil).
func (s *paymentServiceImpl) CalculateStudentMonth(ctx context.Context, calculatedByID, studentID int64, year int, month time.Month) (*models.PaymentCalculation, error) {
	from, to := helpers.MonthBounds(year, month)

	totalHours, err := s.workLogRepo.SumVerifiedHours(ctx, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("error summing verified hours: %w", err)
	}
	if totalHours == 0 {
		return nil, nil
	}

	rate, err := s.rateRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}

	assignment, err := s.assignmentRepo.GetActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	amount := decimal.NewFromInt(int64(totalHours)).Mul(rate.RatePerHour).Round(2)

	calc := &models.PaymentCalculation{
		StudentID:        studentID,
		DepartmentID:     assignment.DepartmentID,
		CalculationMonth: helpers.MonthStart(year, month),
		TotalHours:       totalHours,
		RatePerHour:      rate.RatePerHour,
		TotalAmount:      amount,
		CalculatedByID:   &calculatedByID,
	}

	// Recheck the invariant from the struct fields before storing; a mismatch
	// means the row would be corrupt, not that the input was bad.
	if !calc.TotalAmount.Equal(decimal.NewFromInt(int64(calc.TotalHours)).Mul(calc.RatePerHour).Round(2)) {
		return nil, apperrors.ErrAmountMismatch
	}

	if err := s.paymentRepo.UpsertCalculation(ctx, calc); err != nil {
		return nil, err
	}

	return calc, nil
}

// CalculateMonth runs the calculator for every student holding verified hours
// in the month, optionally narrowed to one department. Only students whose
// application is currently approved are paid; the rest are reported as
// skipped. Per-student failures are collected rather than aborting the run;
// department summaries are refreshed when at least one calculation succeeded.
func (s *paymentServiceImpl) CalculateMonth(ctx context.Context, calculatedByID int64, req *dto.CalculateRequest) (*dto.BulkCalculationResult, error) {
	year, month := req.Year, time.Month(req.Month)
	from, to := helpers.MonthBounds(year, month)

	studentIDs, err := s.workLogRepo.StudentsWithVerifiedHours(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("error listing students with verified hours: %w", err)
	}

	result := &dto.BulkCalculationResult{
		Month: helpers.MonthStart(year, month).Format("2006-01-02"),
	}

	succeeded := 0
	for _, studentID := range studentIDs {
		if req.DepartmentID != nil {
			assignment, err := s.assignmentRepo.GetActiveByStudent(ctx, studentID)
			if err != nil || assignment.DepartmentID != *req.DepartmentID {
				// Unassigned students are simply out of scope for a
				// department-filtered run
				continue
			}
		}

		app, err := s.appRepo.GetByStudentID(ctx, studentID)
		switch {
		case errors.Is(err, apperrors.ErrApplicationNotFound):
			result.SkippedNotApproved = append(result.SkippedNotApproved, studentID)
			continue
		case err != nil:
			if result.Failed == nil {
				result.Failed = make(map[int64]string)
			}
			result.Failed[studentID] = err.Error()
			continue
		case app.Status != models.ApplicationApproved:
			// Verified hours can outlive an application that was since
			// rejected or completed; those students are no longer payable.
			result.SkippedNotApproved = append(result.SkippedNotApproved, studentID)
			continue
		}

		if !req.Recalculate {
			existing, err := s.paymentRepo.GetCalculation(ctx, studentID, helpers.MonthStart(year, month))
			if err == nil && existing != nil {
				result.SkippedExisting = append(result.SkippedExisting, studentID)
				continue
			}
		}

		calc, err := s.CalculateStudentMonth(ctx, calculatedByID, studentID, year, month)
		if err != nil {
			if result.Failed == nil {
				result.Failed = make(map[int64]string)
			}
			result.Failed[studentID] = err.Error()
			logger.Warn().Err(err).Int64("studentID", studentID).Msg("Payment calculation failed")
			continue
		}
		if calc == nil {
			result.SkippedNoLogs = append(result.SkippedNoLogs, studentID)
			continue
		}
		succeeded++
		result.Calculated = append(result.Calculated, dto.FromCalculation(calc))
		s.notifyPayment(ctx, calc)
	}

	if succeeded > 0 {
		summaries, err := s.SummarizeMonth(ctx, year, month, req.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("error summarizing month: %w", err)
		}
		for _, summary := range summaries {
			result.Summaries = append(result.Summaries, dto.FromDepartmentSummary(summary))
		}
	}

	return result, nil
}

// SummarizeMonth rebuilds the per-department summaries for a month from the
// stored calculations. With a department filter only that department's
// summary is recomputed; without one the month is replaced wholesale, so
// departments that lost all their calculations lose their summary row too.
func (s *paymentServiceImpl) SummarizeMonth(ctx context.Context, year int, month time.Month, departmentID *int64) ([]*models.DepartmentPaymentSummary, error) {
	monthStart := helpers.MonthStart(year, month)

	calcs, err := s.paymentRepo.ListCalculationsByMonth(ctx, monthStart)
	if err != nil {
		return nil, fmt.Errorf("error listing calculations: %w", err)
	}

	if departmentID != nil {
		scoped := make([]*models.PaymentCalculation, 0, len(calcs))
		for _, calc := range calcs {
			if calc.DepartmentID == *departmentID {
				scoped = append(scoped, calc)
			}
		}
		calcs = scoped
	} else if err := s.paymentRepo.DeleteSummariesByMonth(ctx, monthStart); err != nil {
		return nil, err
	}

	byDepartment := make(map[int64]*models.DepartmentPaymentSummary)
	for _, calc := range calcs {
		summary, ok := byDepartment[calc.DepartmentID]
		if !ok {
			summary = &models.DepartmentPaymentSummary{
				DepartmentID:     calc.DepartmentID,
				CalculationMonth: monthStart,
				TotalAmount:      decimal.Zero,
			}
			byDepartment[calc.DepartmentID] = summary
		}
		summary.TotalStudents++
		summary.TotalHours += calc.TotalHours
		summary.TotalAmount = summary.TotalAmount.Add(calc.TotalAmount)
	}

	departmentIDs := make([]int64, 0, len(byDepartment))
	for id := range byDepartment {
		departmentIDs = append(departmentIDs, id)
	}
	sort.Slice(departmentIDs, func(i, j int) bool { return departmentIDs[i] < departmentIDs[j] })

	summaries := make([]*models.DepartmentPaymentSummary, 0, len(byDepartment))
	for _, id := range departmentIDs {
		summary := byDepartment[id]
		summary.AverageHoursPerStudent = decimal.NewFromInt(int64(summary.TotalHours)).
			Div(decimal.NewFromInt(int64(summary.TotalStudents))).Round(2)

		if err := s.paymentRepo.UpsertSummary(ctx, summary); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// GetStudentCalculations retrieves a student's calculation history
func (s *paymentServiceImpl) GetStudentCalculations(ctx context.Context, studentID int64) ([]*models.PaymentCalculation, error) {
	return s.paymentRepo.ListCalculationsByStudent(ctx, studentID)
}

// GetMonthCalculations retrieves all calculations for a month
func (s *paymentServiceImpl) GetMonthCalculations(ctx context.Context, year int, month time.Month) ([]*models.PaymentCalculation, error) {
	return s.paymentRepo.ListCalculationsByMonth(ctx, helpers.MonthStart(year, month))
}

// GetDepartmentMonthCalculations retrieves one department's calculations for a month
func (s *paymentServiceImpl) GetDepartmentMonthCalculations(ctx context.Context, departmentID int64, year int, month time.Month) ([]*models.PaymentCalculation, error) {
	calcs, err := s.paymentRepo.ListCalculationsByMonth(ctx, helpers.MonthStart(year, month))
	if err != nil {
		return nil, err
	}
	out := make([]*models.PaymentCalculation, 0, len(calcs))
	for _, calc := range calcs {
		if calc.DepartmentID == departmentID {
			out = append(out, calc)
		}
	}
	return out, nil
}

// GetMonthSummaries retrieves all department summaries for a month
func (s *paymentServiceImpl) GetMonthSummaries(ctx context.Context, year int, month time.Month) ([]*models.DepartmentPaymentSummary, error) {
	return s.paymentRepo.ListSummariesByMonth(ctx, helpers.MonthStart(year, month))
}

// GetDepartmentSummary retrieves one department's summary for a month
func (s *paymentServiceImpl) GetDepartmentSummary(ctx context.Context, departmentID int64, year int, month time.Month) (*models.DepartmentPaymentSummary, error) {
	return s.paymentRepo.GetSummary(ctx, departmentID, helpers.MonthStart(year, month))
}

// notifyPayment tells the student their monthly payment has been calculated
func (s *paymentServiceImpl) notifyPayment(ctx context.Context, calc *models.PaymentCalculation) {
	if s.notifier == nil {
		return
	}
	message := fmt.Sprintf("Your payment for %s has been calculated: %d hours at %s per hour, total %s.",
		calc.CalculationMonth.Format("January 2006"),
		calc.TotalHours,
		calc.RatePerHour.StringFixed(2),
		calc.TotalAmount.StringFixed(2))
	if err := s.notifier.NotifyUser(ctx, calc.StudentID, message); err != nil {
		logger.Warn().Err(err).Int64("studentID", calc.StudentID).Msg("Failed to create payment notification")
	}
}

// ErrNoVerifiedHours reports a single-student calculation request for a month
// with nothing payable. Exposed for controllers that must distinguish an
// empty result from a failure.
var ErrNoVerifiedHours = errors.New("no verified hours for this month")
