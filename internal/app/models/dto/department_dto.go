package dto

import (
	"time"

	"github.com/enlassist/backend/internal/app/models"
)

// CreateDepartmentRequest represents a department creation request
type CreateDepartmentRequest struct {
	Name        string `json:"name" binding:"required" example:"Computer Engineering"`
	Code        string `json:"code" binding:"required" example:"CSE"`
	Description string `json:"description"`
}

// UpdateDepartmentRequest represents a department update request
type UpdateDepartmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

// DepartmentResponse represents a department in API responses
type DepartmentResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

// FromDepartment converts a models.Department to a DepartmentResponse
func FromDepartment(d *models.Department) DepartmentResponse {
	if d == nil {
		return DepartmentResponse{}
	}
	return DepartmentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Code:        d.Code,
		Description: d.Description,
		IsActive:    d.IsActive,
	}
}

// AssignStudentRequest assigns one student to a department
type AssignStudentRequest struct {
	StudentID    int64 `json:"studentId" binding:"required"`
	DepartmentID int64 `json:"departmentId" binding:"required"`
}

// BulkAssignStudentsRequest assigns several students to one department
type BulkAssignStudentsRequest struct {
	StudentIDs   []int64 `json:"studentIds" binding:"required,min=1"`
	DepartmentID int64   `json:"departmentId" binding:"required"`
}

// AssignStaffRequest binds a staff user to a department
type AssignStaffRequest struct {
	UserID       int64 `json:"userId" binding:"required"`
	DepartmentID int64 `json:"departmentId" binding:"required"`
}

// AssignmentResponse represents a student-department assignment
type AssignmentResponse struct {
	ID             int64     `json:"id"`
	StudentID      int64     `json:"studentId"`
	StudentName    string    `json:"studentName,omitempty"`
	DepartmentID   int64     `json:"departmentId"`
	DepartmentName string    `json:"departmentName,omitempty"`
	IsActive       bool      `json:"isActive"`
	AssignedAt     time.Time `json:"assignedAt"`
}

// FromAssignment converts a models.StudentAssignment to an AssignmentResponse
func FromAssignment(a *models.StudentAssignment) AssignmentResponse {
	if a == nil {
		return AssignmentResponse{}
	}
	resp := AssignmentResponse{
		ID:           a.ID,
		StudentID:    a.StudentID,
		DepartmentID: a.DepartmentID,
		IsActive:     a.IsActive,
		AssignedAt:   a.AssignedAt,
	}
	if a.Student != nil {
		resp.StudentName = a.Student.FullName()
	}
	if a.Department != nil {
		resp.DepartmentName = a.Department.Name
	}
	return resp
}

// BulkAssignResult reports per-student outcomes of a bulk assignment
type BulkAssignResult struct {
	Assigned []int64           `json:"assigned"`
	Failed   map[int64]string  `json:"failed,omitempty"` // student id -> reason
}
