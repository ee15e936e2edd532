package models

import "time"

// WorkLog defines one day of logged work based on the 'work_logs' table.
// At most one row may exist per (student, work date); the database enforces
// this with a unique constraint.
//
// A log starts pending (neither verified nor rejected). Department staff move
// it to exactly one of the terminal states; the two flags are never both set.
type WorkLog struct {
	ID              int64      `json:"id" db:"id" example:"1"`
	StudentID       int64      `json:"studentId" db:"student_id" example:"5"`
	WorkDate        time.Time  `json:"workDate" db:"work_date"`
	Hours           int        `json:"hours" db:"hours" example:"3"`
	Description     string     `json:"description" db:"description"`
	IsVerified      bool       `json:"isVerified" db:"is_verified" example:"false"`
	IsRejected      bool       `json:"isRejected" db:"is_rejected" example:"false"`
	RejectionReason *string    `json:"rejectionReason,omitempty" db:"rejection_reason"`
	DecidedByID     *int64     `json:"decidedById,omitempty" db:"decided_by"`
	DecidedAt       *time.Time `json:"decidedAt,omitempty" db:"decided_at"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`

	// Relations (populated when needed)
	Student *User `json:"student,omitempty"`
}

// IsPending reports whether the log is still awaiting a staff decision.
func (w *WorkLog) IsPending() bool {
	return !w.IsVerified && !w.IsRejected
}

// Work-log business limits. New submissions are bounded to MaxHoursPerDay;
// legacy rows may hold up to LegacyMaxHoursPerDay and stay valid downstream.
const (
	MinHoursPerDay       = 1
	MaxHoursPerDay       = 3
	LegacyMaxHoursPerDay = 8
	MaxHoursPerMonth     = 30
	MinDescriptionLen    = 10
)
