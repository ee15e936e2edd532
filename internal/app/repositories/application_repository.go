package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/pkg/apperrors"
	"github.com/enlassist/backend/internal/pkg/dberrors"
	"github.com/enlassist/backend/internal/pkg/helpers"
)

// ApplicationRepository handles database operations for scheme applications
type ApplicationRepository struct {
	db *pgxpool.Pool
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{
		db: db,
	}
}

// Create inserts an application together with its documents in one transaction.
// The one-application-per-student and unique-PRN rules are enforced here via
// the table's unique constraints.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO applications (
			student_id, first_name, middle_name, last_name, address, state,
			date_of_birth, annual_income, fathers_occupation, caste_category,
			college_name, department_name, prn_number, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		app.StudentID,
		app.FirstName,
		app.MiddleName,
		app.LastName,
		app.Address,
		app.State,
		app.DateOfBirth,
		app.AnnualIncome,
		app.FathersOccupation,
		app.CasteCategory,
		app.CollegeName,
		app.DepartmentName,
		app.PRNNumber,
		app.Status,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)

	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "applications_student_id_key") {
			return apperrors.ErrApplicationAlreadyExists
		}
		if dberrors.IsDuplicateConstraintError(err, "applications_prn_number_key") {
			return apperrors.ErrPRNAlreadyExists
		}
		return fmt.Errorf("error creating application: %w", err)
	}

	for _, doc := range app.Documents {
		doc.ApplicationID = app.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO application_documents (application_id, document_type, file_path, file_name, file_size)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, uploaded_at`,
			doc.ApplicationID, doc.DocumentType, doc.FilePath, doc.FileName, doc.FileSize,
		).Scan(&doc.ID, &doc.UploadedAt)
		if err != nil {
			return fmt.Errorf("error creating application document: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing application: %w", err)
	}

	return nil
}

const applicationColumns = `
	id, student_id, first_name, middle_name, last_name, address, state,
	date_of_birth, annual_income, fathers_occupation, caste_category,
	college_name, department_name, prn_number, status, comments,
	created_at, updated_at`

func scanApplication(row pgx.Row) (*models.Application, error) {
	var app models.Application
	err := row.Scan(
		&app.ID,
		&app.StudentID,
		&app.FirstName,
		&app.MiddleName,
		&app.LastName,
		&app.Address,
		&app.State,
		&app.DateOfBirth,
		&app.AnnualIncome,
		&app.FathersOccupation,
		&app.CasteCategory,
		&app.CollegeName,
		&app.DepartmentName,
		&app.PRNNumber,
		&app.Status,
		&app.Comments,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// GetByID retrieves an application by ID, including its documents
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`

	app, err := scanApplication(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("error retrieving application: %w", err)
	}

	if err := r.loadDocuments(ctx, app); err != nil {
		return nil, err
	}

	return app, nil
}

// GetByStudentID retrieves a student's application, including its documents
func (r *ApplicationRepository) GetByStudentID(ctx context.Context, studentID int64) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE student_id = $1`

	app, err := scanApplication(r.db.QueryRow(ctx, query, studentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("error retrieving application: %w", err)
	}

	if err := r.loadDocuments(ctx, app); err != nil {
		return nil, err
	}

	return app, nil
}

func (r *ApplicationRepository) loadDocuments(ctx context.Context, app *models.Application) error {
	rows, err := r.db.Query(ctx, `
		SELECT id, application_id, document_type, file_path, file_name, file_size, uploaded_at
		FROM application_documents
		WHERE application_id = $1
		ORDER BY id`,
		app.ID)
	if err != nil {
		return fmt.Errorf("error retrieving application documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var doc models.ApplicationDocument
		if err := rows.Scan(
			&doc.ID,
			&doc.ApplicationID,
			&doc.DocumentType,
			&doc.FilePath,
			&doc.FileName,
			&doc.FileSize,
			&doc.UploadedAt,
		); err != nil {
			return err
		}
		app.Documents = append(app.Documents, &doc)
	}

	return rows.Err()
}

// ExistsByStudentID checks if a student has already submitted an application
func (r *ApplicationRepository) ExistsByStudentID(ctx context.Context, studentID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM applications WHERE student_id = $1)`,
		studentID).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("error checking application existence: %w", err)
	}

	return exists, nil
}

// ExistsByPRN checks if a PRN number is already registered
func (r *ApplicationRepository) ExistsByPRN(ctx context.Context, prn string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM applications WHERE prn_number = $1)`,
		prn).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("error checking PRN existence: %w", err)
	}

	return exists, nil
}

// List retrieves applications filtered by status, newest first. An empty
// status returns all applications.
func (r *ApplicationRepository) List(ctx context.Context, status models.ApplicationStatus, page, size int) ([]*models.Application, int64, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	var total int64
	countQuery := `SELECT COUNT(*) FROM applications WHERE ($1 = '' OR status = $1)`
	if err := r.db.QueryRow(ctx, countQuery, string(status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting applications: %w", err)
	}

	query := `SELECT ` + applicationColumns + `
		FROM applications
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var apps []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

// UpdateStatus sets the review outcome on an application
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id int64, status models.ApplicationStatus, comments *string) error {
	query := `
		UPDATE applications
		SET status = $1, comments = $2, updated_at = NOW()
		WHERE id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, status, comments, id)
	if err != nil {
		return fmt.Errorf("error updating application status: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrApplicationNotFound
	}

	return nil
}
