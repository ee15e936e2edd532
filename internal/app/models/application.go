package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Application defines the scheme application model based on the 'applications' table.
// Each student submits at most one application; work logging is gated on the
// application being approved.
type Application struct {
	ID                int64             `json:"id" db:"id" example:"1"`
	StudentID         int64             `json:"studentId" db:"student_id" example:"5"`
	FirstName         string            `json:"firstName" db:"first_name" example:"Aarav"`
	MiddleName        *string           `json:"middleName,omitempty" db:"middle_name"`
	LastName          string            `json:"lastName" db:"last_name" example:"Deshmukh"`
	Address           string            `json:"address" db:"address"`
	State             string            `json:"state" db:"state" example:"Maharashtra"`
	DateOfBirth       time.Time         `json:"dateOfBirth" db:"date_of_birth"`
	AnnualIncome      decimal.Decimal   `json:"annualIncome" db:"annual_income" example:"180000.00"`
	FathersOccupation string            `json:"fathersOccupation" db:"fathers_occupation" example:"Farmer"`
	CasteCategory     string            `json:"casteCategory" db:"caste_category" example:"OBC"`
	CollegeName       string            `json:"collegeName" db:"college_name"`
	DepartmentName    string            `json:"departmentName" db:"department_name" example:"Computer Engineering"`
	PRNNumber         string            `json:"prnNumber" db:"prn_number" example:"124M1H029"`
	Status            ApplicationStatus `json:"status" db:"status" example:"PENDING"`
	Comments          *string           `json:"comments,omitempty" db:"comments"`
	CreatedAt         time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time         `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	Student   *User                  `json:"student,omitempty"`
	Documents []*ApplicationDocument `json:"documents,omitempty"`
}

// Document types accepted with an application.
const (
	DocPhoto                    = "PHOTO"
	DocApplicationForm          = "APPLICATION_FORM"
	DocIncomeCertificate        = "INCOME_CERTIFICATE"
	DocCasteCertificate         = "CASTE_CERTIFICATE"
	DocLastYearMarksheet        = "LAST_YEAR_MARKSHEET"
	DocDomicileCertificate      = "DOMICILE_CERTIFICATE"
	DocAdmissionReceipt         = "ADMISSION_RECEIPT"
	DocAadharCard               = "AADHAR_CARD"
	DocBankPassbook             = "BANK_PASSBOOK"
	DocCasteValidityCertificate = "CASTE_VALIDITY_CERTIFICATE"
)

// RequiredDocumentTypes are the uploads every application must carry.
// Caste certificate and caste validity certificate are optional.
var RequiredDocumentTypes = []string{
	DocPhoto,
	DocApplicationForm,
	DocIncomeCertificate,
	DocLastYearMarksheet,
	DocDomicileCertificate,
	DocAdmissionReceipt,
	DocAadharCard,
	DocBankPassbook,
}

// ApplicationDocument defines one uploaded document attached to an application.
type ApplicationDocument struct {
	ID            int64     `json:"id" db:"id"`
	ApplicationID int64     `json:"applicationId" db:"application_id"`
	DocumentType  string    `json:"documentType" db:"document_type" example:"INCOME_CERTIFICATE"`
	FilePath      string    `json:"filePath" db:"file_path"`
	FileName      string    `json:"fileName" db:"file_name" example:"income_cert.pdf"`
	FileSize      int64     `json:"fileSize" db:"file_size"`
	UploadedAt    time.Time `json:"uploadedAt" db:"uploaded_at"`
}
