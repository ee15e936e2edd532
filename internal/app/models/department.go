package models

import "time"

// Department defines the department model based on the 'departments' table
type Department struct {
	ID          int64     `json:"id" db:"id" example:"1"`
	Name        string    `json:"name" db:"name" example:"Computer Engineering"`
	Code        string    `json:"code" db:"code" example:"CSE"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"isActive" db:"is_active" example:"true"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// DepartmentStaff binds a staff user to the department whose work logs they verify.
// A staff user has at most one active binding.
type DepartmentStaff struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"userId" db:"user_id"`
	DepartmentID int64     `json:"departmentId" db:"department_id"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	AssignedAt   time.Time `json:"assignedAt" db:"assigned_at"`

	// Relations (populated when needed)
	User       *User       `json:"user,omitempty"`
	Department *Department `json:"department,omitempty"`
}

// StudentAssignment places a student in a department for work-study duty.
// A student has at most one active assignment; reassignment deactivates the
// prior row instead of deleting it.
type StudentAssignment struct {
	ID           int64     `json:"id" db:"id"`
	StudentID    int64     `json:"studentId" db:"student_id"`
	DepartmentID int64     `json:"departmentId" db:"department_id"`
	AssignedByID *int64    `json:"assignedById,omitempty" db:"assigned_by"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	AssignedAt   time.Time `json:"assignedAt" db:"assigned_at"`

	// Relations (populated when needed)
	Student    *User       `json:"student,omitempty"`
	Department *Department `json:"department,omitempty"`
}
