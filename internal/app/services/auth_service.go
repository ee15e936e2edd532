package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/app/models/dto"
	"github.com/enlassist/backend/internal/pkg/apperrors"
	"github.com/enlassist/backend/internal/pkg/auth"
	"github.com/enlassist/backend/internal/pkg/logger"
	"github.com/enlassist/backend/internal/pkg/validation"
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error)
	CreateStaff(ctx context.Context, req *dto.CreateStaffRequest) (*models.User, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*models.User, *dto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetProfile(ctx context.Context, userID int64) (*dto.ProfileResponse, error)
}

// userStore is the user repository surface the service depends on
type userStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
}

// refreshTokenStore is the token repository surface the service depends on
type refreshTokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetTokenByValue(ctx context.Context, token string) (int64, time.Time, bool, error)
	RevokeToken(ctx context.Context, token string) error
}

type staffAssigner interface {
	AssignStaff(ctx context.Context, staff *models.DepartmentStaff) error
	GetStaffDepartment(ctx context.Context, userID int64) (*models.Department, error)
	GetActiveByStudent(ctx context.Context, studentID int64) (*models.StudentAssignment, error)
}

// authServiceImpl implements the AuthService interface
type authServiceImpl struct {
	userRepo       userStore
	tokenRepo      refreshTokenStore
	assignmentRepo staffAssigner
	jwtService     *auth.JWTService
}

// NewAuthService creates a new auth service instance
func NewAuthService(userRepo userStore, tokenRepo refreshTokenStore, assignmentRepo staffAssigner, jwtService *auth.JWTService) AuthService {
	return &authServiceImpl{
		userRepo:       userRepo,
		tokenRepo:      tokenRepo,
		assignmentRepo: assignmentRepo,
		jwtService:     jwtService,
	}
}

// validateCredentials checks email format and password strength
func validateCredentials(email, password string) error {
	ve := dto.NewValidationErrors()
	if !validation.CompiledPatterns.Email.MatchString(strings.ToLower(strings.TrimSpace(email))) {
		ve.AddError("email", "Invalid email address.")
	}
	if len(password) < validation.PasswordMinLength {
		ve.AddError("password", fmt.Sprintf("Password must be at least %d characters.", validation.PasswordMinLength))
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// Register creates a student account
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	if err := validateCredentials(req.Email, req.Password); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      models.RoleStudent,
		IsActive:  true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info().Int64("userID", user.ID).Str("email", user.Email).Msg("Student registered")
	return user, nil
}

// CreateStaff creates a department staff or coordinator account. Staff
// accounts are bound to their department in the same call.
func (s *authServiceImpl) CreateStaff(ctx context.Context, req *dto.CreateStaffRequest) (*models.User, error) {
	if err := validateCredentials(req.Email, req.Password); err != nil {
		return nil, err
	}

	role := models.RoleType(req.Role)
	if role != models.RoleDepartmentStaff && role != models.RoleCoordinator {
		return nil, dto.NewValidationErrors().AddError("role",
			"Role must be DEPARTMENT_STAFF or COORDINATOR.")
	}
	if role == models.RoleDepartmentStaff && req.DepartmentID <= 0 {
		return nil, dto.NewValidationErrors().AddError("departmentId",
			"A department is required for department staff.")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      role,
		IsActive:  true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if role == models.RoleDepartmentStaff {
		staff := &models.DepartmentStaff{
			UserID:       user.ID,
			DepartmentID: req.DepartmentID,
		}
		if err := s.assignmentRepo.AssignStaff(ctx, staff); err != nil {
			return nil, fmt.Errorf("error binding staff to department: %w", err)
		}
	}

	logger.Info().Int64("userID", user.ID).Str("role", string(role)).Msg("Staff account created")
	return user, nil
}

// Login authenticates a user and issues a token pair. The refresh token is
// persisted so it can be revoked later.
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*models.User, *dto.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, nil, apperrors.ErrAccountDisabled
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to update last login")
	}

	return user, tokens, nil
}

// RefreshToken rotates a refresh token into a fresh token pair
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	userID, _, _, err := s.tokenRepo.GetTokenByValue(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	// Rotation: the old token stops working as soon as the new pair exists.
	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes the presented refresh token
func (s *authServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	return s.tokenRepo.RevokeToken(ctx, refreshToken)
}

// issueTokens generates and persists a token pair for the user
func (s *authServiceImpl) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	accessToken, refreshToken, expiresIn, refreshExpiresIn, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("error generating tokens: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, refreshToken, user.ID, s.jwtService.GetRefreshTokenExpiry()); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresIn:        expiresIn,
		RefreshExpiresIn: refreshExpiresIn,
		TokenType:        "Bearer",
	}, nil
}

// GetProfile retrieves the authenticated user's profile with their
// department context attached
func (s *authServiceImpl) GetProfile(ctx context.Context, userID int64) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &dto.ProfileResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
	}

	switch user.Role {
	case models.RoleStudent:
		if assignment, err := s.assignmentRepo.GetActiveByStudent(ctx, userID); err == nil {
			profile.DepartmentID = &assignment.DepartmentID
		}
	case models.RoleDepartmentStaff:
		if department, err := s.assignmentRepo.GetStaffDepartment(ctx, userID); err == nil {
			profile.DepartmentID = &department.ID
		}
	}

	return profile, nil
}
