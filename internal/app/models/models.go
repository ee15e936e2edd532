package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent         RoleType = "STUDENT"
	RoleDepartmentStaff RoleType = "DEPARTMENT_STAFF"
	RoleCoordinator     RoleType = "COORDINATOR"
	RoleAdmin           RoleType = "ADMIN"
)

// ValidRole reports whether r is one of the known role variants.
func ValidRole(r RoleType) bool {
	switch r {
	case RoleStudent, RoleDepartmentStaff, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}

// ApplicationStatus represents the review state of a scheme application
type ApplicationStatus string

const (
	ApplicationPending            ApplicationStatus = "PENDING"
	ApplicationApproved           ApplicationStatus = "APPROVED"
	ApplicationRejected           ApplicationStatus = "REJECTED"
	ApplicationCorrectionRequired ApplicationStatus = "CORRECTION_REQUIRED"
	ApplicationCompleted          ApplicationStatus = "COMPLETED"
)

// CasteCategories lists the admissible caste category codes on an application.
var CasteCategories = []string{"General", "OBC", "SC", "ST", "NT", "VJNT", "EWS", "SBC"}

// ValidCasteCategory reports whether the given code is an admissible category.
func ValidCasteCategory(code string) bool {
	for _, c := range CasteCategories {
		if c == code {
			return true
		}
	}
	return false
}

// DefaultCollegeName is used when an application omits the college name.
const DefaultCollegeName = "Pimpri Chinchwad College of Engineering Nigdi, Pune"
