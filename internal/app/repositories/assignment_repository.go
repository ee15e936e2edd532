package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/pkg/apperrors"
)

// AssignmentRepository handles student-department assignments and staff bindings
type AssignmentRepository struct {
	db *pgxpool.Pool
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{
		db: db,
	}
}

// AssignStudent places a student in a department. Any prior active assignment
// is deactivated in the same transaction so at most one stays active.
func (r *AssignmentRepository) AssignStudent(ctx context.Context, assignment *models.StudentAssignment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE student_assignments SET is_active = false
		WHERE student_id = $1 AND is_active = true`,
		assignment.StudentID)
	if err != nil {
		return fmt.Errorf("error deactivating prior assignments: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO student_assignments (student_id, department_id, assigned_by, is_active)
		VALUES ($1, $2, $3, true)
		RETURNING id, assigned_at`,
		assignment.StudentID, assignment.DepartmentID, assignment.AssignedByID,
	).Scan(&assignment.ID, &assignment.AssignedAt)
	if err != nil {
		return fmt.Errorf("error creating assignment: %w", err)
	}

	assignment.IsActive = true

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing assignment: %w", err)
	}

	return nil
}

// GetActiveByStudent retrieves a student's active assignment. When data drift
// leaves more than one active row, the earliest by (assigned_at, id) wins.
func (r *AssignmentRepository) GetActiveByStudent(ctx context.Context, studentID int64) (*models.StudentAssignment, error) {
	query := `
		SELECT sa.id, sa.student_id, sa.department_id, sa.assigned_by, sa.is_active, sa.assigned_at,
		       d.id, d.name, d.code, d.description, d.is_active, d.created_at
		FROM student_assignments sa
		JOIN departments d ON d.id = sa.department_id
		WHERE sa.student_id = $1 AND sa.is_active = true
		ORDER BY sa.assigned_at, sa.id
		LIMIT 1
	`

	var assignment models.StudentAssignment
	var department models.Department
	err := r.db.QueryRow(ctx, query, studentID).Scan(
		&assignment.ID,
		&assignment.StudentID,
		&assignment.DepartmentID,
		&assignment.AssignedByID,
		&assignment.IsActive,
		&assignment.AssignedAt,
		&department.ID,
		&department.Name,
		&department.Code,
		&department.Description,
		&department.IsActive,
		&department.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotAssigned
		}
		return nil, fmt.Errorf("error retrieving assignment: %w", err)
	}

	assignment.Department = &department
	return &assignment, nil
}

// ListActiveByDepartment retrieves the active assignments of one department,
// with the student users attached
func (r *AssignmentRepository) ListActiveByDepartment(ctx context.Context, departmentID int64) ([]*models.StudentAssignment, error) {
	query := `
		SELECT sa.id, sa.student_id, sa.department_id, sa.assigned_by, sa.is_active, sa.assigned_at,
		       u.id, u.email, u.first_name, u.last_name, u.role, u.is_active
		FROM student_assignments sa
		JOIN users u ON u.id = sa.student_id
		WHERE sa.department_id = $1 AND sa.is_active = true
		ORDER BY u.last_name, u.first_name
	`

	rows, err := r.db.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []*models.StudentAssignment
	for rows.Next() {
		var assignment models.StudentAssignment
		var student models.User
		if err := rows.Scan(
			&assignment.ID,
			&assignment.StudentID,
			&assignment.DepartmentID,
			&assignment.AssignedByID,
			&assignment.IsActive,
			&assignment.AssignedAt,
			&student.ID,
			&student.Email,
			&student.FirstName,
			&student.LastName,
			&student.Role,
			&student.IsActive,
		); err != nil {
			return nil, err
		}
		assignment.Student = &student
		assignments = append(assignments, &assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

// ListAllActive retrieves every active student assignment
func (r *AssignmentRepository) ListAllActive(ctx context.Context) ([]*models.StudentAssignment, error) {
	query := `
		SELECT id, student_id, department_id, assigned_by, is_active, assigned_at
		FROM student_assignments
		WHERE is_active = true
		ORDER BY assigned_at, id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []*models.StudentAssignment
	for rows.Next() {
		var assignment models.StudentAssignment
		if err := rows.Scan(
			&assignment.ID,
			&assignment.StudentID,
			&assignment.DepartmentID,
			&assignment.AssignedByID,
			&assignment.IsActive,
			&assignment.AssignedAt,
		); err != nil {
			return nil, err
		}
		assignments = append(assignments, &assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

// Deactivate ends a student's active assignment
func (r *AssignmentRepository) Deactivate(ctx context.Context, studentID int64) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE student_assignments SET is_active = false
		WHERE student_id = $1 AND is_active = true`,
		studentID)
	if err != nil {
		return fmt.Errorf("error deactivating assignment: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotAssigned
	}

	return nil
}

// AssignStaff binds a staff user to a department. A staff user has at most
// one active binding; an existing one is an error, not a silent replace.
func (r *AssignmentRepository) AssignStaff(ctx context.Context, staff *models.DepartmentStaff) error {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM department_staff WHERE user_id = $1 AND is_active = true)`,
		staff.UserID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("error checking staff binding: %w", err)
	}
	if exists {
		return apperrors.ErrStaffAlreadyAssigned
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO department_staff (user_id, department_id, is_active)
		VALUES ($1, $2, true)
		RETURNING id, assigned_at`,
		staff.UserID, staff.DepartmentID,
	).Scan(&staff.ID, &staff.AssignedAt)
	if err != nil {
		return fmt.Errorf("error creating staff binding: %w", err)
	}

	staff.IsActive = true
	return nil
}

// GetStaffDepartment retrieves the department a staff user is bound to
func (r *AssignmentRepository) GetStaffDepartment(ctx context.Context, userID int64) (*models.Department, error) {
	query := `
		SELECT d.id, d.name, d.code, d.description, d.is_active, d.created_at
		FROM department_staff ds
		JOIN departments d ON d.id = ds.department_id
		WHERE ds.user_id = $1 AND ds.is_active = true
		LIMIT 1
	`

	var department models.Department
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&department.ID,
		&department.Name,
		&department.Code,
		&department.Description,
		&department.IsActive,
		&department.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("error retrieving staff department: %w", err)
	}

	return &department, nil
}
