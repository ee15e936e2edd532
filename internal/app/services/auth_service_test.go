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
	"github.com/enlassist/backend/internal/pkg/auth"
)

// fakeUserStore is an in-memory userStore
type fakeUserStore struct {
	users  map[int64]*models.User
	nextID int64
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	if f.users == nil {
		f.users = make(map[int64]*models.User)
	}
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUserStore) UpdateLastLogin(ctx context.Context, userID int64) error {
	user, ok := f.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	now := time.Now()
	user.LastLoginAt = &now
	return nil
}

// fakeTokenStore is an in-memory refreshTokenStore
type fakeTokenStore struct {
	tokens map[string]struct {
		userID  int64
		expiry  time.Time
		revoked bool
	}
}

func (f *fakeTokenStore) CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error {
	if f.tokens == nil {
		f.tokens = make(map[string]struct {
			userID  int64
			expiry  time.Time
			revoked bool
		})
	}
	f.tokens[token] = struct {
		userID  int64
		expiry  time.Time
		revoked bool
	}{userID: userID, expiry: expiryDate}
	return nil
}

func (f *fakeTokenStore) GetTokenByValue(ctx context.Context, token string) (int64, time.Time, bool, error) {
	entry, ok := f.tokens[token]
	if !ok {
		return 0, time.Time{}, false, apperrors.ErrTokenNotFound
	}
	if entry.revoked {
		return 0, time.Time{}, false, apperrors.ErrTokenRevoked
	}
	if entry.expiry.Before(time.Now()) {
		return 0, time.Time{}, false, apperrors.ErrTokenExpired
	}
	return entry.userID, entry.expiry, false, nil
}

func (f *fakeTokenStore) RevokeToken(ctx context.Context, token string) error {
	entry, ok := f.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	entry.revoked = true
	f.tokens[token] = entry
	return nil
}

// fakeStaffAssigner is an in-memory staffAssigner
type fakeStaffAssigner struct {
	fakeAssignments
	bindings []*models.DepartmentStaff
}

func (f *fakeStaffAssigner) AssignStaff(ctx context.Context, staff *models.DepartmentStaff) error {
	if f.staffDepartments == nil {
		f.staffDepartments = make(map[int64]int64)
	}
	if _, ok := f.staffDepartments[staff.UserID]; ok {
		return apperrors.ErrStaffAlreadyAssigned
	}
	f.staffDepartments[staff.UserID] = staff.DepartmentID
	staff.ID = int64(len(f.bindings) + 1)
	staff.IsActive = true
	f.bindings = append(f.bindings, staff)
	return nil
}

func newAuthFixture(t *testing.T) (AuthService, *fakeUserStore, *fakeTokenStore) {
	t.Helper()
	users := &fakeUserStore{}
	tokens := &fakeTokenStore{}
	assigner := &fakeStaffAssigner{}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret-key-not-for-production",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 30 * 24 * time.Hour,
		TokenIssuer:     "enlassist-test",
	})
	return NewAuthService(users, tokens, assigner, jwtService), users, tokens
}

func TestRegister(t *testing.T) {
	svc, users, _ := newAuthFixture(t)

	user, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:     "Student@College.edu",
		Password:  "s3cretpass",
		FirstName: "Aarav",
		LastName:  "Deshmukh",
	})
	require.NoError(t, err)

	assert.Equal(t, "student@college.edu", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "s3cretpass", user.Password)
	assert.Len(t, users.users, 1)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	req := &dto.RegisterRequest{
		Email: "student@college.edu", Password: "s3cretpass",
		FirstName: "Aarav", LastName: "Deshmukh",
	}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email: "student@college.edu", Password: "short",
		FirstName: "Aarav", LastName: "Deshmukh",
	})
	var ve *dto.ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.HasField("password"))
}

func TestLogin(t *testing.T) {
	svc, _, tokens := newAuthFixture(t)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email: "student@college.edu", Password: "s3cretpass",
		FirstName: "Aarav", LastName: "Deshmukh",
	})
	require.NoError(t, err)

	user, pair, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "student@college.edu", Password: "s3cretpass",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotNil(t, user.LastLoginAt)
	assert.Len(t, tokens.tokens, 1)

	_, _, err = svc.Login(context.Background(), &dto.LoginRequest{
		Email: "student@college.edu", Password: "wrongpass",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLogin_DisabledAccount(t *testing.T) {
	svc, users, _ := newAuthFixture(t)

	user, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email: "student@college.edu", Password: "s3cretpass",
		FirstName: "Aarav", LastName: "Deshmukh",
	})
	require.NoError(t, err)
	users.users[user.ID].IsActive = false

	_, _, err = svc.Login(context.Background(), &dto.LoginRequest{
		Email: "student@college.edu", Password: "s3cretpass",
	})
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
}

func TestRefreshToken_Rotates(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email: "student@college.edu", Password: "s3cretpass",
		FirstName: "Aarav", LastName: "Deshmukh",
	})
	require.NoError(t, err)

	_, pair, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "student@college.edu", Password: "s3cretpass",
	})
	require.NoError(t, err)

	fresh, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// The old refresh token is revoked by the rotation.
	_, err = svc.RefreshToken(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestLogout(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email: "student@college.edu", Password: "s3cretpass",
		FirstName: "Aarav", LastName: "Deshmukh",
	})
	require.NoError(t, err)

	_, pair, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "student@college.edu", Password: "s3cretpass",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))

	_, err = svc.RefreshToken(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestCreateStaff(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	staff, err := svc.CreateStaff(context.Background(), &dto.CreateStaffRequest{
		Email: "staff@college.edu", Password: "s3cretpass",
		FirstName: "Meera", LastName: "Kulkarni",
		Role: "DEPARTMENT_STAFF", DepartmentID: testDeptID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleDepartmentStaff, staff.Role)

	// Staff creation without a department is refused.
	_, err = svc.CreateStaff(context.Background(), &dto.CreateStaffRequest{
		Email: "staff2@college.edu", Password: "s3cretpass",
		FirstName: "Rohan", LastName: "Patil",
		Role: "DEPARTMENT_STAFF",
	})
	var ve *dto.ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.HasField("departmentId"))

	// Students cannot be created through the staff path.
	_, err = svc.CreateStaff(context.Background(), &dto.CreateStaffRequest{
		Email: "student@college.edu", Password: "s3cretpass",
		FirstName: "Aarav", LastName: "Deshmukh",
		Role: "STUDENT",
	})
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.HasField("role"))
}

func TestGetProfile_StaffDepartment(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	staff, err := svc.CreateStaff(context.Background(), &dto.CreateStaffRequest{
		Email: "staff@college.edu", Password: "s3cretpass",
		FirstName: "Meera", LastName: "Kulkarni",
		Role: "DEPARTMENT_STAFF", DepartmentID: testDeptID,
	})
	require.NoError(t, err)

	profile, err := svc.GetProfile(context.Background(), staff.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.DepartmentID)
	assert.Equal(t, testDeptID, *profile.DepartmentID)
}
