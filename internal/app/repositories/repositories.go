package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	ApplicationRepository  *ApplicationRepository
	DepartmentRepository   *DepartmentRepository
	AssignmentRepository   *AssignmentRepository
	WorkLogRepository      *WorkLogRepository
	PayRateRepository      *PayRateRepository
	PaymentRepository      *PaymentRepository
	NotificationRepository *NotificationRepository
	TokenRepository        *TokenRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(db),
		ApplicationRepository:  NewApplicationRepository(db),
		DepartmentRepository:   NewDepartmentRepository(db),
		AssignmentRepository:   NewAssignmentRepository(db),
		WorkLogRepository:      NewWorkLogRepository(db),
		PayRateRepository:      NewPayRateRepository(db),
		PaymentRepository:      NewPaymentRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		TokenRepository:        NewTokenRepository(db),
	}
}
