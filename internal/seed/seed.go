package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	appModels "github.com/enlassist/backend/internal/app/models"
	appRepos "github.com/enlassist/backend/internal/app/repositories"
	"github.com/enlassist/backend/internal/config"
	"github.com/enlassist/backend/internal/pkg/apperrors"
)

// defaultDepartments are created on first startup so assignments can begin
// before anyone has touched the department admin endpoints.
var defaultDepartments = []appModels.Department{
	{Name: "Computer Engineering", Code: "CSE", IsActive: true},
	{Name: "Mechanical Engineering", Code: "MECH", IsActive: true},
	{Name: "Civil Engineering", Code: "CIVIL", IsActive: true},
	{Name: "Electronics and Telecommunication", Code: "ENTC", IsActive: true},
	{Name: "Library", Code: "LIB", IsActive: true},
}

// CreateDefaultData creates the default departments and the coordinator
// account if they don't exist.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, cfg *config.Config, lgr zerolog.Logger) error {
	departmentRepo := appRepos.NewDepartmentRepository(dbPool)
	userRepo := appRepos.NewUserRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default data (departments/coordinator)...")
	var finalErr error

	for i := range defaultDepartments {
		department := defaultDepartments[i]
		err := departmentRepo.Create(ctx, &department)
		if err != nil && !errors.Is(err, apperrors.ErrDepartmentAlreadyExists) {
			lgr.Error().Err(err).Str("department", department.Name).Msg("Error creating default department")
			finalErr = errors.Join(finalErr, err)
		}
	}

	// --- Default coordinator account --- //
	if cfg.Seed.CoordinatorPassword == "" {
		lgr.Info().Msg("No coordinator seed password configured, skipping coordinator creation")
		return finalErr
	}

	exists, err := userRepo.EmailExists(ctx, cfg.Seed.CoordinatorEmail)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking if coordinator exists")
		return errors.Join(finalErr, err)
	}
	if exists {
		lgr.Info().Msg("Coordinator account already exists, skipping creation")
		return finalErr
	}

	lgr.Info().Msg("Creating default coordinator account...")

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.CoordinatorPassword), bcrypt.DefaultCost)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing coordinator password")
		return errors.Join(finalErr, err)
	}

	coordinator := &appModels.User{
		Email:     cfg.Seed.CoordinatorEmail,
		Password:  string(hashedPassword),
		FirstName: "Scheme",
		LastName:  "Coordinator",
		Role:      appModels.RoleCoordinator,
		IsActive:  true,
	}

	if err := userRepo.Create(ctx, coordinator); err != nil {
		lgr.Error().Err(err).Msg("Error creating coordinator account")
		return errors.Join(finalErr, err)
	}

	lgr.Info().Int64("coordinatorID", coordinator.ID).Msg("Default coordinator account created")
	return finalErr
}
