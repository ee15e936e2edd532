package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayRate defines one row of the versioned 'payment_rates' table. Setting a
// new rate flips the previous current row's is_current flag instead of
// deleting it, so rate history survives as an audit trail while the current
// rate remains a single-row lookup.
type PayRate struct {
	ID          int64           `json:"id" db:"id" example:"1"`
	RatePerHour decimal.Decimal `json:"ratePerHour" db:"rate_per_hour" example:"60.00"`
	IsCurrent   bool            `json:"isCurrent" db:"is_current" example:"true"`
	SetByID     *int64          `json:"setById,omitempty" db:"set_by"`
	Notes       string          `json:"notes" db:"notes"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`

	// Relations (populated when needed)
	SetBy *User `json:"setBy,omitempty"`
}

// PaymentCalculation holds the derived monthly payment for one student,
// keyed by (student, calculation month). Recalculation replaces the row's
// totals in full; there is never more than one row per key.
//
// Invariant: TotalAmount == TotalHours x RatePerHour to two decimal places.
type PaymentCalculation struct {
	ID               int64           `json:"id" db:"id" example:"1"`
	StudentID        int64           `json:"studentId" db:"student_id" example:"5"`
	DepartmentID     int64           `json:"departmentId" db:"department_id" example:"2"`
	CalculationMonth time.Time       `json:"calculationMonth" db:"calculation_month"` // first day of the month
	TotalHours       int             `json:"totalHours" db:"total_hours" example:"24"`
	RatePerHour      decimal.Decimal `json:"ratePerHour" db:"rate_per_hour" example:"60.00"`
	TotalAmount      decimal.Decimal `json:"totalAmount" db:"total_amount" example:"1440.00"`
	CalculatedByID   *int64          `json:"calculatedById,omitempty" db:"calculated_by"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	Student    *User       `json:"student,omitempty"`
	Department *Department `json:"department,omitempty"`
}

// DepartmentPaymentSummary rolls up the payment calculations of one
// department for one month, keyed by (department, calculation month) with the
// same full-replace upsert semantics as PaymentCalculation.
type DepartmentPaymentSummary struct {
	ID                     int64           `json:"id" db:"id"`
	DepartmentID           int64           `json:"departmentId" db:"department_id"`
	CalculationMonth       time.Time       `json:"calculationMonth" db:"calculation_month"`
	TotalStudents          int             `json:"totalStudents" db:"total_students" example:"12"`
	TotalHours             int             `json:"totalHours" db:"total_hours" example:"280"`
	TotalAmount            decimal.Decimal `json:"totalAmount" db:"total_amount" example:"16800.00"`
	AverageHoursPerStudent decimal.Decimal `json:"averageHoursPerStudent" db:"average_hours_per_student" example:"23.33"`
	CreatedAt              time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt              time.Time       `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	Department *Department `json:"department,omitempty"`
}
