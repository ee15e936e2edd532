package dto

import (
	"time"

	"github.com/enlassist/backend/internal/app/models"
)

// SubmitApplicationRequest represents the application form fields.
// Documents arrive alongside as multipart file parts keyed by document type.
type SubmitApplicationRequest struct {
	FirstName         string  `form:"firstName" binding:"required"`
	MiddleName        *string `form:"middleName"`
	LastName          string  `form:"lastName" binding:"required"`
	Address           string  `form:"address" binding:"required"`
	State             string  `form:"state" binding:"required"`
	DateOfBirth       string  `form:"dateOfBirth" binding:"required" example:"2004-06-15"` // YYYY-MM-DD
	AnnualIncome      string  `form:"annualIncome" binding:"required" example:"180000.00"`
	FathersOccupation string  `form:"fathersOccupation" binding:"required"`
	CasteCategory     string  `form:"casteCategory" binding:"required" example:"OBC"`
	CollegeName       string  `form:"collegeName"`
	DepartmentName    string  `form:"departmentName" binding:"required"`
	PRNNumber         string  `form:"prnNumber" binding:"required" example:"124M1H029"`
}

// ReviewApplicationRequest represents a coordinator review decision
type ReviewApplicationRequest struct {
	Action   string `json:"action" binding:"required" example:"approve"` // approve | reject | request_correction | complete
	Comments string `json:"comments"`
}

// ApplicationResponse represents an application in API responses
type ApplicationResponse struct {
	ID             int64                 `json:"id"`
	StudentID      int64                 `json:"studentId"`
	StudentName    string                `json:"studentName,omitempty"`
	FirstName      string                `json:"firstName"`
	MiddleName     *string               `json:"middleName,omitempty"`
	LastName       string                `json:"lastName"`
	State          string                `json:"state"`
	AnnualIncome   string                `json:"annualIncome"`
	CasteCategory  string                `json:"casteCategory"`
	CollegeName    string                `json:"collegeName"`
	DepartmentName string                `json:"departmentName"`
	PRNNumber      string                `json:"prnNumber"`
	Status         string                `json:"status"`
	Comments       *string               `json:"comments,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	Documents      []ApplicationDocument `json:"documents,omitempty"`
}

// ApplicationDocument represents an uploaded document in API responses
type ApplicationDocument struct {
	ID           int64  `json:"id"`
	DocumentType string `json:"documentType"`
	FileName     string `json:"fileName"`
	FileURL      string `json:"fileUrl"`
	FileSize     int64  `json:"fileSize"`
}

// FromApplication converts a models.Application to an ApplicationResponse
func FromApplication(app *models.Application) ApplicationResponse {
	if app == nil {
		return ApplicationResponse{}
	}

	resp := ApplicationResponse{
		ID:             app.ID,
		StudentID:      app.StudentID,
		FirstName:      app.FirstName,
		MiddleName:     app.MiddleName,
		LastName:       app.LastName,
		State:          app.State,
		AnnualIncome:   app.AnnualIncome.StringFixed(2),
		CasteCategory:  app.CasteCategory,
		CollegeName:    app.CollegeName,
		DepartmentName: app.DepartmentName,
		PRNNumber:      app.PRNNumber,
		Status:         string(app.Status),
		Comments:       app.Comments,
		CreatedAt:      app.CreatedAt,
	}
	if app.Student != nil {
		resp.StudentName = app.Student.FullName()
	}
	for _, doc := range app.Documents {
		resp.Documents = append(resp.Documents, ApplicationDocument{
			ID:           doc.ID,
			DocumentType: doc.DocumentType,
			FileName:     doc.FileName,
			FileURL:      doc.FilePath,
			FileSize:     doc.FileSize,
		})
	}
	return resp
}

// ApplicationListResponse represents a paginated application listing
type ApplicationListResponse struct {
	Applications []ApplicationResponse `json:"applications"`
	Pagination   PaginationInfo        `json:"pagination"`
}
