package dto

import (
	"time"

	"github.com/enlassist/backend/internal/app/models"
)

// SubmitWorkLogRequest represents a student's daily work-log submission.
// Date is optional; when omitted the log is recorded for today.
type SubmitWorkLogRequest struct {
	Date        string `json:"date" example:"2025-08-04"` // YYYY-MM-DD, defaults to today
	Hours       int    `json:"hours" binding:"required" example:"3"`
	Description string `json:"description" binding:"required"`
}

// RejectWorkLogRequest carries the staff rejection reason
type RejectWorkLogRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// WorkLogResponse represents a work log in API responses
type WorkLogResponse struct {
	ID              int64      `json:"id"`
	StudentID       int64      `json:"studentId"`
	StudentName     string     `json:"studentName,omitempty"`
	WorkDate        string     `json:"workDate" example:"2025-08-04"`
	Hours           int        `json:"hours"`
	Description     string     `json:"description"`
	IsVerified      bool       `json:"isVerified"`
	IsRejected      bool       `json:"isRejected"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	DecidedAt       *time.Time `json:"decidedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// FromWorkLog converts a models.WorkLog to a WorkLogResponse
func FromWorkLog(w *models.WorkLog) WorkLogResponse {
	if w == nil {
		return WorkLogResponse{}
	}
	resp := WorkLogResponse{
		ID:              w.ID,
		StudentID:       w.StudentID,
		WorkDate:        w.WorkDate.Format("2006-01-02"),
		Hours:           w.Hours,
		Description:     w.Description,
		IsVerified:      w.IsVerified,
		IsRejected:      w.IsRejected,
		RejectionReason: w.RejectionReason,
		DecidedAt:       w.DecidedAt,
		CreatedAt:       w.CreatedAt,
	}
	if w.Student != nil {
		resp.StudentName = w.Student.FullName()
	}
	return resp
}

// WorkLogListResponse represents a paginated work-log listing
type WorkLogListResponse struct {
	WorkLogs   []WorkLogResponse `json:"workLogs"`
	Pagination PaginationInfo    `json:"pagination"`
}

// WorkSummaryResponse aggregates a student's logged hours
type WorkSummaryResponse struct {
	TotalHours    int `json:"totalHours"`
	VerifiedHours int `json:"verifiedHours"`
	PendingHours  int `json:"pendingHours"`
	RejectedHours int `json:"rejectedHours"`
	MonthHours    int `json:"monthHours"`     // non-rejected hours this calendar month
	MonthRemaining int `json:"monthRemaining"` // hours still submittable this month
}
