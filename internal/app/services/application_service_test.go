package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/app/models/dto"
	"github.com/enlassist/backend/internal/pkg/apperrors"
)

// fakeApplicationStore is an in-memory applicationStore
type fakeApplicationStore struct {
	apps   map[int64]*models.Application
	nextID int64
}

func (f *fakeApplicationStore) Create(ctx context.Context, app *models.Application) error {
	if f.apps == nil {
		f.apps = make(map[int64]*models.Application)
	}
	for _, existing := range f.apps {
		if existing.StudentID == app.StudentID {
			return apperrors.ErrApplicationAlreadyExists
		}
		if existing.PRNNumber == app.PRNNumber {
			return apperrors.ErrPRNAlreadyExists
		}
	}
	f.nextID++
	app.ID = f.nextID
	app.CreatedAt = time.Now()
	f.apps[app.ID] = app
	return nil
}

func (f *fakeApplicationStore) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	if app, ok := f.apps[id]; ok {
		return app, nil
	}
	return nil, apperrors.ErrApplicationNotFound
}

func (f *fakeApplicationStore) GetByStudentID(ctx context.Context, studentID int64) (*models.Application, error) {
	for _, app := range f.apps {
		if app.StudentID == studentID {
			return app, nil
		}
	}
	return nil, apperrors.ErrApplicationNotFound
}

func (f *fakeApplicationStore) ExistsByStudentID(ctx context.Context, studentID int64) (bool, error) {
	_, err := f.GetByStudentID(ctx, studentID)
	return err == nil, nil
}

func (f *fakeApplicationStore) ExistsByPRN(ctx context.Context, prn string) (bool, error) {
	for _, app := range f.apps {
		if app.PRNNumber == prn {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeApplicationStore) List(ctx context.Context, status models.ApplicationStatus, page, size int) ([]*models.Application, int64, error) {
	var out []*models.Application
	for _, app := range f.apps {
		if status == "" || app.Status == status {
			out = append(out, app)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeApplicationStore) UpdateStatus(ctx context.Context, id int64, status models.ApplicationStatus, comments *string) error {
	app, ok := f.apps[id]
	if !ok {
		return apperrors.ErrApplicationNotFound
	}
	app.Status = status
	app.Comments = comments
	return nil
}

// fakeDepartmentReader resolves departments by name
type fakeDepartmentReader struct {
	departments map[string]*models.Department
}

func (f *fakeDepartmentReader) GetByName(ctx context.Context, name string) (*models.Department, error) {
	if d, ok := f.departments[name]; ok {
		return d, nil
	}
	return nil, apperrors.ErrDepartmentNotFound
}

func requiredDocuments() []*models.ApplicationDocument {
	docs := make([]*models.ApplicationDocument, 0, len(models.RequiredDocumentTypes))
	for i, docType := range models.RequiredDocumentTypes {
		docs = append(docs, &models.ApplicationDocument{
			DocumentType: docType,
			FilePath:     fmt.Sprintf("/uploads/doc_%d.pdf", i),
			FileName:     fmt.Sprintf("doc_%d.pdf", i),
			FileSize:     2048,
		})
	}
	return docs
}

func validSubmitRequest() *dto.SubmitApplicationRequest {
	return &dto.SubmitApplicationRequest{
		FirstName:         "Aarav",
		LastName:          "Deshmukh",
		Address:           "14 Shivaji Nagar, Pune",
		State:             "Maharashtra",
		DateOfBirth:       "2004-06-15",
		AnnualIncome:      "180000.00",
		FathersOccupation: "Farmer",
		CasteCategory:     "OBC",
		DepartmentName:    "Computer Engineering",
		PRNNumber:         "124M1H029",
	}
}

func newApplicationFixture(t *testing.T) (*applicationServiceImpl, *fakeApplicationStore, *fakeNotifier) {
	t.Helper()
	store := &fakeApplicationStore{}
	departments := &fakeDepartmentReader{
		departments: map[string]*models.Department{
			"Computer Engineering": {ID: testDeptID, Name: "Computer Engineering", Code: "CSE", IsActive: true},
			"Civil Engineering":    {ID: testDeptID + 1, Name: "Civil Engineering", Code: "CIVIL", IsActive: false},
		},
	}
	notifier := &fakeNotifier{}
	svc := NewApplicationService(store, departments, notifier).(*applicationServiceImpl)
	svc.now = func() time.Time { return time.Date(2025, 8, 4, 10, 0, 0, 0, time.UTC) }
	return svc, store, notifier
}

func TestSubmitApplication_Valid(t *testing.T) {
	svc, store, _ := newApplicationFixture(t)

	app, err := svc.SubmitApplication(context.Background(), testStudentID, validSubmitRequest(), requiredDocuments())
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationPending, app.Status)
	assert.Equal(t, "124M1H029", app.PRNNumber)
	assert.Equal(t, models.DefaultCollegeName, app.CollegeName)
	assert.Equal(t, "180000.00", app.AnnualIncome.StringFixed(2))
	assert.Len(t, app.Documents, len(models.RequiredDocumentTypes))
	assert.Len(t, store.apps, 1)
}

func TestSubmitApplication_OnePerStudent(t *testing.T) {
	svc, _, _ := newApplicationFixture(t)

	_, err := svc.SubmitApplication(context.Background(), testStudentID, validSubmitRequest(), requiredDocuments())
	require.NoError(t, err)

	_, err = svc.SubmitApplication(context.Background(), testStudentID, validSubmitRequest(), requiredDocuments())
	assert.ErrorIs(t, err, apperrors.ErrApplicationAlreadyExists)
}

func TestSubmitApplication_PRNValidation(t *testing.T) {
	tests := []struct {
		name string
		prn  string
		ok   bool
	}{
		{"standard", "124M1H029", true},
		{"three leading digits", "124M1H0291", false},
		{"lowercase normalized", "124m1h029", true},
		{"wrong shape", "ABC123", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newApplicationFixture(t)
			req := validSubmitRequest()
			req.PRNNumber = tt.prn
			_, err := svc.SubmitApplication(context.Background(), testStudentID, req, requiredDocuments())
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, "Invalid PRN number format.", fieldMessage(t, err, "prnNumber"))
			}
		})
	}
}

func TestSubmitApplication_PRNUnique(t *testing.T) {
	svc, _, _ := newApplicationFixture(t)

	_, err := svc.SubmitApplication(context.Background(), testStudentID, validSubmitRequest(), requiredDocuments())
	require.NoError(t, err)

	req := validSubmitRequest()
	_, err = svc.SubmitApplication(context.Background(), testStudentID+1, req, requiredDocuments())
	assert.Equal(t, "This PRN number is already registered.", fieldMessage(t, err, "prnNumber"))
}

func TestSubmitApplication_IncomeBounds(t *testing.T) {
	tests := []struct {
		name   string
		income string
		ok     bool
	}{
		{"zero", "0", true},
		{"typical", "180000.00", true},
		{"at limit", "10000000", true},
		{"above limit", "10000000.01", false},
		{"negative", "-1", false},
		{"not a number", "lots", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newApplicationFixture(t)
			req := validSubmitRequest()
			req.AnnualIncome = tt.income
			_, err := svc.SubmitApplication(context.Background(), testStudentID, req, requiredDocuments())
			if tt.ok {
				assert.NoError(t, err)
			} else {
				var ve *dto.ValidationErrors
				require.ErrorAs(t, err, &ve)
				assert.True(t, ve.HasField("annualIncome"))
			}
		})
	}
}

func TestSubmitApplication_CasteCategory(t *testing.T) {
	svc, _, _ := newApplicationFixture(t)
	req := validSubmitRequest()
	req.CasteCategory = "UNKNOWN"

	_, err := svc.SubmitApplication(context.Background(), testStudentID, req, requiredDocuments())
	assert.Equal(t, "Invalid caste category.", fieldMessage(t, err, "casteCategory"))
}

func TestSubmitApplication_MissingDocuments(t *testing.T) {
	svc, _, _ := newApplicationFixture(t)
	docs := requiredDocuments()[1:] // drop the photo

	_, err := svc.SubmitApplication(context.Background(), testStudentID, validSubmitRequest(), docs)
	msg := fieldMessage(t, err, "documents")
	assert.Contains(t, msg, "PHOTO")
}

func TestSubmitApplication_InactiveDepartment(t *testing.T) {
	svc, _, _ := newApplicationFixture(t)
	req := validSubmitRequest()
	req.DepartmentName = "Civil Engineering"

	_, err := svc.SubmitApplication(context.Background(), testStudentID, req, requiredDocuments())
	assert.Equal(t, "Department is not accepting applications.", fieldMessage(t, err, "departmentName"))
}

func TestReviewApplication_Approve(t *testing.T) {
	svc, _, notifier := newApplicationFixture(t)

	app, err := svc.SubmitApplication(context.Background(), testStudentID, validSubmitRequest(), requiredDocuments())
	require.NoError(t, err)

	reviewed, err := svc.ReviewApplication(context.Background(), 1, app.ID, &dto.ReviewApplicationRequest{
		Action: "approve",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationApproved, reviewed.Status)
	require.Len(t, notifier.messages[testStudentID], 1)
	assert.Contains(t, notifier.messages[testStudentID][0], "approved")
}

func TestReviewApplication_RejectNeedsComments(t *testing.T) {
	svc, _, _ := newApplicationFixture(t)

	app, err := svc.SubmitApplication(context.Background(), testStudentID, validSubmitRequest(), requiredDocuments())
	require.NoError(t, err)

	_, err = svc.ReviewApplication(context.Background(), 1, app.ID, &dto.ReviewApplicationRequest{
		Action: "reject",
	})
	assert.Equal(t, "Comments are required when rejecting or requesting a correction.",
		fieldMessage(t, err, "comments"))

	reviewed, err := svc.ReviewApplication(context.Background(), 1, app.ID, &dto.ReviewApplicationRequest{
		Action:   "reject",
		Comments: "Income certificate is older than one year.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, reviewed.Status)
	require.NotNil(t, reviewed.Comments)
}

func TestReviewApplication_UnknownAction(t *testing.T) {
	svc, _, _ := newApplicationFixture(t)

	_, err := svc.ReviewApplication(context.Background(), 1, 1, &dto.ReviewApplicationRequest{
		Action: "escalate",
	})
	var ve *dto.ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.HasField("action"))
}
