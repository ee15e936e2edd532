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
	"github.com/enlassist/backend/internal/pkg/dberrors"
	"github.com/enlassist/backend/internal/pkg/helpers"
)

// WorkLogRepository handles database operations for work logs
type WorkLogRepository struct {
	db *pgxpool.Pool
}

// NewWorkLogRepository creates a new work log repository
func NewWorkLogRepository(db *pgxpool.Pool) *WorkLogRepository {
	return &WorkLogRepository{
		db: db,
	}
}

// WorkSummary aggregates a student's logged hours by decision state
type WorkSummary struct {
	TotalHours    int
	VerifiedHours int
	PendingHours  int
	RejectedHours int
}

// Create inserts a work log after re-checking the one-per-day rule and the
// monthly hour cap inside a single transaction. The student's user row is
// locked first so concurrent submissions for the same student serialize; the
// (student_id, work_date) unique constraint backstops the duplicate check.
func (r *WorkLogRepository) Create(ctx context.Context, log *models.WorkLog) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var lockedID int64
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, log.StudentID).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("error locking student row: %w", err)
	}

	var dayExists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM work_logs WHERE student_id = $1 AND work_date = $2)`,
		log.StudentID, log.WorkDate).Scan(&dayExists)
	if err != nil {
		return fmt.Errorf("error checking duplicate work log: %w", err)
	}
	if dayExists {
		return apperrors.ErrDuplicateWorkLog
	}

	from, to := helpers.MonthBounds(log.WorkDate.Year(), log.WorkDate.Month())
	var monthHours int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(hours), 0)
		FROM work_logs
		WHERE student_id = $1 AND is_rejected = false AND work_date >= $2 AND work_date < $3`,
		log.StudentID, from, to).Scan(&monthHours)
	if err != nil {
		return fmt.Errorf("error summing month hours: %w", err)
	}
	if monthHours+log.Hours > models.MaxHoursPerMonth {
		return apperrors.ErrMonthlyCapExceeded
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO work_logs (student_id, work_date, hours, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		log.StudentID, log.WorkDate, log.Hours, log.Description,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "work_logs_student_id_work_date_key") {
			return apperrors.ErrDuplicateWorkLog
		}
		return fmt.Errorf("error creating work log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing work log: %w", err)
	}

	return nil
}

const workLogColumns = `
	id, student_id, work_date, hours, description,
	is_verified, is_rejected, rejection_reason, decided_by, decided_at, created_at`

func scanWorkLog(row pgx.Row) (*models.WorkLog, error) {
	var log models.WorkLog
	err := row.Scan(
		&log.ID,
		&log.StudentID,
		&log.WorkDate,
		&log.Hours,
		&log.Description,
		&log.IsVerified,
		&log.IsRejected,
		&log.RejectionReason,
		&log.DecidedByID,
		&log.DecidedAt,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// GetByID retrieves a work log by ID
func (r *WorkLogRepository) GetByID(ctx context.Context, id int64) (*models.WorkLog, error) {
	query := `SELECT ` + workLogColumns + ` FROM work_logs WHERE id = $1`

	log, err := scanWorkLog(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrWorkLogNotFound
		}
		return nil, fmt.Errorf("error retrieving work log: %w", err)
	}

	return log, nil
}

// ListByStudent retrieves a student's work logs, newest day first
func (r *WorkLogRepository) ListByStudent(ctx context.Context, studentID int64, page, size int) ([]*models.WorkLog, int64, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM work_logs WHERE student_id = $1`, studentID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting work logs: %w", err)
	}

	query := `SELECT ` + workLogColumns + `
		FROM work_logs
		WHERE student_id = $1
		ORDER BY work_date DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, studentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var logs []*models.WorkLog
	for rows.Next() {
		log, err := scanWorkLog(rows)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// ListPendingByDepartment retrieves undecided logs of students actively
// assigned to the department, oldest day first, with students attached
func (r *WorkLogRepository) ListPendingByDepartment(ctx context.Context, departmentID int64, page, size int) ([]*models.WorkLog, int64, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	var total int64
	countQuery := `
		SELECT COUNT(*)
		FROM work_logs w
		JOIN student_assignments sa ON sa.student_id = w.student_id AND sa.is_active = true
		WHERE sa.department_id = $1 AND w.is_verified = false AND w.is_rejected = false`
	if err := r.db.QueryRow(ctx, countQuery, departmentID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting pending work logs: %w", err)
	}

	query := `
		SELECT w.id, w.student_id, w.work_date, w.hours, w.description,
		       w.is_verified, w.is_rejected, w.rejection_reason, w.decided_by, w.decided_at, w.created_at,
		       u.id, u.email, u.first_name, u.last_name, u.role, u.is_active
		FROM work_logs w
		JOIN student_assignments sa ON sa.student_id = w.student_id AND sa.is_active = true
		JOIN users u ON u.id = w.student_id
		WHERE sa.department_id = $1 AND w.is_verified = false AND w.is_rejected = false
		ORDER BY w.work_date, w.id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, departmentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var logs []*models.WorkLog
	for rows.Next() {
		var log models.WorkLog
		var student models.User
		if err := rows.Scan(
			&log.ID,
			&log.StudentID,
			&log.WorkDate,
			&log.Hours,
			&log.Description,
			&log.IsVerified,
			&log.IsRejected,
			&log.RejectionReason,
			&log.DecidedByID,
			&log.DecidedAt,
			&log.CreatedAt,
			&student.ID,
			&student.Email,
			&student.FirstName,
			&student.LastName,
			&student.Role,
			&student.IsActive,
		); err != nil {
			return nil, 0, err
		}
		log.Student = &student
		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// Verify marks a pending work log as verified. Deciding an already decided
// log returns ErrWorkLogAlreadyDecided.
func (r *WorkLogRepository) Verify(ctx context.Context, id, decidedBy int64) error {
	return r.decide(ctx, id, `
		UPDATE work_logs
		SET is_verified = true, decided_by = $1, decided_at = NOW()
		WHERE id = $2 AND is_verified = false AND is_rejected = false`,
		decidedBy)
}

// Reject marks a pending work log as rejected with a reason
func (r *WorkLogRepository) Reject(ctx context.Context, id, decidedBy int64, reason string) error {
	query := `
		UPDATE work_logs
		SET is_rejected = true, rejection_reason = $3, decided_by = $1, decided_at = NOW()
		WHERE id = $2 AND is_verified = false AND is_rejected = false`

	cmdTag, err := r.db.Exec(ctx, query, decidedBy, id, reason)
	if err != nil {
		return fmt.Errorf("error rejecting work log: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return r.decisionConflict(ctx, id)
	}

	return nil
}

func (r *WorkLogRepository) decide(ctx context.Context, id int64, query string, decidedBy int64) error {
	cmdTag, err := r.db.Exec(ctx, query, decidedBy, id)
	if err != nil {
		return fmt.Errorf("error deciding work log: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return r.decisionConflict(ctx, id)
	}

	return nil
}

// decisionConflict distinguishes a missing log from one already decided
func (r *WorkLogRepository) decisionConflict(ctx context.Context, id int64) error {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM work_logs WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("error checking work log existence: %w", err)
	}
	if !exists {
		return apperrors.ErrWorkLogNotFound
	}
	return apperrors.ErrWorkLogAlreadyDecided
}

// SumMonthHours sums a student's non-rejected hours within [from, to)
func (r *WorkLogRepository) SumMonthHours(ctx context.Context, studentID int64, from, to time.Time) (int, error) {
	var sum int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(hours), 0)
		FROM work_logs
		WHERE student_id = $1 AND is_rejected = false AND work_date >= $2 AND work_date < $3`,
		studentID, from, to).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("error summing month hours: %w", err)
	}
	return sum, nil
}

// SumVerifiedHours sums a student's verified hours within [from, to)
func (r *WorkLogRepository) SumVerifiedHours(ctx context.Context, studentID int64, from, to time.Time) (int, error) {
	var sum int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(hours), 0)
		FROM work_logs
		WHERE student_id = $1 AND is_verified = true AND is_rejected = false
		  AND work_date >= $2 AND work_date < $3`,
		studentID, from, to).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("error summing verified hours: %w", err)
	}
	return sum, nil
}

// ExistsForDate checks if the student already logged the given day
func (r *WorkLogRepository) ExistsForDate(ctx context.Context, studentID int64, date time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM work_logs WHERE student_id = $1 AND work_date = $2)`,
		studentID, date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking work log existence: %w", err)
	}
	return exists, nil
}

// SummaryByStudent aggregates a student's hours by decision state
func (r *WorkLogRepository) SummaryByStudent(ctx context.Context, studentID int64) (*WorkSummary, error) {
	var summary WorkSummary
	err := r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(hours), 0),
			COALESCE(SUM(hours) FILTER (WHERE is_verified), 0),
			COALESCE(SUM(hours) FILTER (WHERE NOT is_verified AND NOT is_rejected), 0),
			COALESCE(SUM(hours) FILTER (WHERE is_rejected), 0)
		FROM work_logs
		WHERE student_id = $1`,
		studentID).Scan(
		&summary.TotalHours,
		&summary.VerifiedHours,
		&summary.PendingHours,
		&summary.RejectedHours,
	)
	if err != nil {
		return nil, fmt.Errorf("error summarizing work logs: %w", err)
	}
	return &summary, nil
}

// StudentsWithVerifiedHours lists the distinct students holding verified
// hours within [from, to)
func (r *WorkLogRepository) StudentsWithVerifiedHours(ctx context.Context, from, to time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT student_id
		FROM work_logs
		WHERE is_verified = true AND is_rejected = false
		  AND work_date >= $1 AND work_date < $2
		ORDER BY student_id`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var studentIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		studentIDs = append(studentIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return studentIDs, nil
}
