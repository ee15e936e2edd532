package dto

import (
	"time"

	"github.com/enlassist/backend/internal/app/models"
)

// SetRateRequest sets a new current hourly payment rate
type SetRateRequest struct {
	RatePerHour string `json:"ratePerHour" binding:"required" example:"60.00"`
	Notes       string `json:"notes" example:"Revised per 2025-26 circular"`
}

// RateResponse represents an hourly rate version in API responses
type RateResponse struct {
	ID          int64     `json:"id"`
	RatePerHour string    `json:"ratePerHour"`
	IsCurrent   bool      `json:"isCurrent"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FromPayRate converts a models.PayRate to a RateResponse
func FromPayRate(r *models.PayRate) RateResponse {
	if r == nil {
		return RateResponse{}
	}
	return RateResponse{
		ID:          r.ID,
		RatePerHour: r.RatePerHour.StringFixed(2),
		IsCurrent:   r.IsCurrent,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
	}
}

// CalculateRequest selects the month to calculate payments for. A department
// ID narrows the run to that department's students; recalculate replaces
// records that already exist for the month.
type CalculateRequest struct {
	Year         int    `json:"year" binding:"required" example:"2025"`
	Month        int    `json:"month" binding:"required,min=1,max=12" example:"8"`
	DepartmentID *int64 `json:"departmentId,omitempty" example:"1"`
	Recalculate  bool   `json:"recalculate" example:"false"`
}

// CalculationResponse represents one student's monthly payment calculation
type CalculationResponse struct {
	ID               int64     `json:"id"`
	StudentID        int64     `json:"studentId"`
	StudentName      string    `json:"studentName,omitempty"`
	DepartmentID     int64     `json:"departmentId"`
	DepartmentName   string    `json:"departmentName,omitempty"`
	CalculationMonth string    `json:"calculationMonth" example:"2025-08-01"`
	TotalHours       int       `json:"totalHours"`
	RatePerHour      string    `json:"ratePerHour"`
	TotalAmount      string    `json:"totalAmount"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// FromCalculation converts a models.PaymentCalculation to a CalculationResponse
func FromCalculation(c *models.PaymentCalculation) CalculationResponse {
	if c == nil {
		return CalculationResponse{}
	}
	resp := CalculationResponse{
		ID:               c.ID,
		StudentID:        c.StudentID,
		DepartmentID:     c.DepartmentID,
		CalculationMonth: c.CalculationMonth.Format("2006-01-02"),
		TotalHours:       c.TotalHours,
		RatePerHour:      c.RatePerHour.StringFixed(2),
		TotalAmount:      c.TotalAmount.StringFixed(2),
		UpdatedAt:        c.UpdatedAt,
	}
	if c.Student != nil {
		resp.StudentName = c.Student.FullName()
	}
	if c.Department != nil {
		resp.DepartmentName = c.Department.Name
	}
	return resp
}

// DepartmentSummaryResponse represents a department's monthly payment summary
type DepartmentSummaryResponse struct {
	ID                     int64  `json:"id"`
	DepartmentID           int64  `json:"departmentId"`
	DepartmentName         string `json:"departmentName,omitempty"`
	CalculationMonth       string `json:"calculationMonth" example:"2025-08-01"`
	TotalStudents          int    `json:"totalStudents"`
	TotalHours             int    `json:"totalHours"`
	TotalAmount            string `json:"totalAmount"`
	AverageHoursPerStudent string `json:"averageHoursPerStudent"`
}

// FromDepartmentSummary converts a models.DepartmentPaymentSummary to a response
func FromDepartmentSummary(s *models.DepartmentPaymentSummary) DepartmentSummaryResponse {
	if s == nil {
		return DepartmentSummaryResponse{}
	}
	resp := DepartmentSummaryResponse{
		ID:                     s.ID,
		DepartmentID:           s.DepartmentID,
		CalculationMonth:       s.CalculationMonth.Format("2006-01-02"),
		TotalStudents:          s.TotalStudents,
		TotalHours:             s.TotalHours,
		TotalAmount:            s.TotalAmount.StringFixed(2),
		AverageHoursPerStudent: s.AverageHoursPerStudent.StringFixed(2),
	}
	if s.Department != nil {
		resp.DepartmentName = s.Department.Name
	}
	return resp
}

// BulkCalculationResult reports the outcome of a monthly calculation run
type BulkCalculationResult struct {
	Month              string                      `json:"month" example:"2025-08-01"`
	Calculated         []CalculationResponse       `json:"calculated"`
	SkippedNoLogs      []int64                     `json:"skippedNoLogs,omitempty"`      // students with no payable hours
	SkippedExisting    []int64                     `json:"skippedExisting,omitempty"`    // already calculated, recalculate not set
	SkippedNotApproved []int64                     `json:"skippedNotApproved,omitempty"` // application missing or no longer approved
	Failed             map[int64]string            `json:"failed,omitempty"`             // student id -> reason
	Summaries          []DepartmentSummaryResponse `json:"summaries,omitempty"`
}
