package dto

// RegisterRequest represents a student self-registration request
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email" example:"student@college.edu"`
	Password  string `json:"password" binding:"required,min=8" example:"s3cretpass"`
	FirstName string `json:"firstName" binding:"required" example:"Aarav"`
	LastName  string `json:"lastName" binding:"required" example:"Deshmukh"`
}

// CreateStaffRequest represents a coordinator/admin request to create a
// department staff or coordinator account
type CreateStaffRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	FirstName    string `json:"firstName" binding:"required"`
	LastName     string `json:"lastName" binding:"required"`
	Role         string `json:"role" binding:"required" example:"DEPARTMENT_STAFF"`
	DepartmentID int64  `json:"departmentId,omitempty" example:"2"` // required for DEPARTMENT_STAFF
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents the token pair returned on login/refresh
type TokenResponse struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresIn        int    `json:"expiresIn" example:"3600"`
	RefreshExpiresIn int    `json:"refreshExpiresIn" example:"2592000"`
	TokenType        string `json:"tokenType" example:"Bearer"`
}

// RefreshTokenRequest represents a token refresh request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ProfileResponse represents the authenticated user's profile
type ProfileResponse struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Role         string `json:"role" example:"STUDENT"`
	DepartmentID *int64 `json:"departmentId,omitempty"` // active assignment or staff binding
}
