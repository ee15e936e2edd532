package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/pkg/apperrors"
)

// PaymentRepository handles database operations for payment calculations and
// department payment summaries
type PaymentRepository struct {
	db *pgxpool.Pool
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{
		db: db,
	}
}

// UpsertCalculation writes a student's monthly calculation, replacing any
// existing row for the same (student, month) key in full
func (r *PaymentRepository) UpsertCalculation(ctx context.Context, calc *models.PaymentCalculation) error {
	query := `
		INSERT INTO payment_calculations (
			student_id, department_id, calculation_month,
			total_hours, rate_per_hour, total_amount, calculated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, calculation_month) DO UPDATE SET
			department_id = EXCLUDED.department_id,
			total_hours   = EXCLUDED.total_hours,
			rate_per_hour = EXCLUDED.rate_per_hour,
			total_amount  = EXCLUDED.total_amount,
			calculated_by = EXCLUDED.calculated_by,
			updated_at    = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		calc.StudentID,
		calc.DepartmentID,
		calc.CalculationMonth,
		calc.TotalHours,
		calc.RatePerHour,
		calc.TotalAmount,
		calc.CalculatedByID,
	).Scan(&calc.ID, &calc.CreatedAt, &calc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("error upserting payment calculation: %w", err)
	}

	return nil
}

const calculationColumns = `
	id, student_id, department_id, calculation_month,
	total_hours, rate_per_hour, total_amount, calculated_by, created_at, updated_at`

func scanCalculation(row pgx.Row) (*models.PaymentCalculation, error) {
	var calc models.PaymentCalculation
	err := row.Scan(
		&calc.ID,
		&calc.StudentID,
		&calc.DepartmentID,
		&calc.CalculationMonth,
		&calc.TotalHours,
		&calc.RatePerHour,
		&calc.TotalAmount,
		&calc.CalculatedByID,
		&calc.CreatedAt,
		&calc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

// GetCalculation retrieves one student's calculation for a month
func (r *PaymentRepository) GetCalculation(ctx context.Context, studentID int64, month time.Time) (*models.PaymentCalculation, error) {
	query := `SELECT ` + calculationColumns + `
		FROM payment_calculations
		WHERE student_id = $1 AND calculation_month = $2`

	calc, err := scanCalculation(r.db.QueryRow(ctx, query, studentID, month))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCalculationNotFound
		}
		return nil, fmt.Errorf("error retrieving payment calculation: %w", err)
	}

	return calc, nil
}

// ListCalculationsByMonth retrieves all calculations for a month with the
// student users and departments attached
func (r *PaymentRepository) ListCalculationsByMonth(ctx context.Context, month time.Time) ([]*models.PaymentCalculation, error) {
	query := `
		SELECT c.id, c.student_id, c.department_id, c.calculation_month,
		       c.total_hours, c.rate_per_hour, c.total_amount, c.calculated_by, c.created_at, c.updated_at,
		       u.id, u.email, u.first_name, u.last_name, u.role, u.is_active,
		       d.id, d.name, d.code, d.description, d.is_active, d.created_at
		FROM payment_calculations c
		JOIN users u ON u.id = c.student_id
		JOIN departments d ON d.id = c.department_id
		WHERE c.calculation_month = $1
		ORDER BY d.name, u.last_name, u.first_name
	`

	rows, err := r.db.Query(ctx, query, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calcs []*models.PaymentCalculation
	for rows.Next() {
		var calc models.PaymentCalculation
		var student models.User
		var department models.Department
		if err := rows.Scan(
			&calc.ID,
			&calc.StudentID,
			&calc.DepartmentID,
			&calc.CalculationMonth,
			&calc.TotalHours,
			&calc.RatePerHour,
			&calc.TotalAmount,
			&calc.CalculatedByID,
			&calc.CreatedAt,
			&calc.UpdatedAt,
			&student.ID,
			&student.Email,
			&student.FirstName,
			&student.LastName,
			&student.Role,
			&student.IsActive,
			&department.ID,
			&department.Name,
			&department.Code,
			&department.Description,
			&department.IsActive,
			&department.CreatedAt,
		); err != nil {
			return nil, err
		}
		calc.Student = &student
		calc.Department = &department
		calcs = append(calcs, &calc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return calcs, nil
}

// ListCalculationsByStudent retrieves a student's calculation history,
// newest month first
func (r *PaymentRepository) ListCalculationsByStudent(ctx context.Context, studentID int64) ([]*models.PaymentCalculation, error) {
	query := `SELECT ` + calculationColumns + `
		FROM payment_calculations
		WHERE student_id = $1
		ORDER BY calculation_month DESC`

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calcs []*models.PaymentCalculation
	for rows.Next() {
		calc, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		calcs = append(calcs, calc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return calcs, nil
}

// UpsertSummary writes a department's monthly summary, replacing any existing
// row for the same (department, month) key in full
func (r *PaymentRepository) UpsertSummary(ctx context.Context, summary *models.DepartmentPaymentSummary) error {
	query := `
		INSERT INTO department_payment_summaries (
			department_id, calculation_month,
			total_students, total_hours, total_amount, average_hours_per_student
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (department_id, calculation_month) DO UPDATE SET
			total_students            = EXCLUDED.total_students,
			total_hours               = EXCLUDED.total_hours,
			total_amount              = EXCLUDED.total_amount,
			average_hours_per_student = EXCLUDED.average_hours_per_student,
			updated_at                = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		summary.DepartmentID,
		summary.CalculationMonth,
		summary.TotalStudents,
		summary.TotalHours,
		summary.TotalAmount,
		summary.AverageHoursPerStudent,
	).Scan(&summary.ID, &summary.CreatedAt, &summary.UpdatedAt)

	if err != nil {
		return fmt.Errorf("error upserting department summary: %w", err)
	}

	return nil
}

// GetSummary retrieves one department's summary for a month
func (r *PaymentRepository) GetSummary(ctx context.Context, departmentID int64, month time.Time) (*models.DepartmentPaymentSummary, error) {
	query := `
		SELECT id, department_id, calculation_month,
		       total_students, total_hours, total_amount, average_hours_per_student,
		       created_at, updated_at
		FROM department_payment_summaries
		WHERE department_id = $1 AND calculation_month = $2
	`

	var summary models.DepartmentPaymentSummary
	err := r.db.QueryRow(ctx, query, departmentID, month).Scan(
		&summary.ID,
		&summary.DepartmentID,
		&summary.CalculationMonth,
		&summary.TotalStudents,
		&summary.TotalHours,
		&summary.TotalAmount,
		&summary.AverageHoursPerStudent,
		&summary.CreatedAt,
		&summary.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSummaryNotFound
		}
		return nil, fmt.Errorf("error retrieving department summary: %w", err)
	}

	return &summary, nil
}

// ListSummariesByMonth retrieves all department summaries for a month with
// the departments attached
func (r *PaymentRepository) ListSummariesByMonth(ctx context.Context, month time.Time) ([]*models.DepartmentPaymentSummary, error) {
	query := `
		SELECT s.id, s.department_id, s.calculation_month,
		       s.total_students, s.total_hours, s.total_amount, s.average_hours_per_student,
		       s.created_at, s.updated_at,
		       d.id, d.name, d.code, d.description, d.is_active, d.created_at
		FROM department_payment_summaries s
		JOIN departments d ON d.id = s.department_id
		WHERE s.calculation_month = $1
		ORDER BY d.name
	`

	rows, err := r.db.Query(ctx, query, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*models.DepartmentPaymentSummary
	for rows.Next() {
		var summary models.DepartmentPaymentSummary
		var department models.Department
		if err := rows.Scan(
			&summary.ID,
			&summary.DepartmentID,
			&summary.CalculationMonth,
			&summary.TotalStudents,
			&summary.TotalHours,
			&summary.TotalAmount,
			&summary.AverageHoursPerStudent,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&department.ID,
			&department.Name,
			&department.Code,
			&department.Description,
			&department.IsActive,
			&department.CreatedAt,
		); err != nil {
			return nil, err
		}
		summary.Department = &department
		summaries = append(summaries, &summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// DeleteSummariesByMonth clears a month's summaries ahead of a full rebuild
func (r *PaymentRepository) DeleteSummariesByMonth(ctx context.Context, month time.Time) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM department_payment_summaries WHERE calculation_month = $1`, month)
	if err != nil {
		return fmt.Errorf("error deleting department summaries: %w", err)
	}
	return nil
}
