package services

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enlassist/backend/internal/app/models"
)

func TestExportMonthCalculations(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")
	f.hours.hours[testStudentID] = 24
	_, err := f.svc.CalculateStudentMonth(context.Background(), 1, testStudentID, 2025, time.August)
	require.NoError(t, err)

	// Attach the relations the repository join would provide.
	for _, calc := range f.payments.calcs {
		calc.Student = &models.User{FirstName: "Aarav", LastName: "Deshmukh", Email: "aarav@college.edu"}
		calc.Department = &models.Department{Name: "Computer Engineering"}
	}

	exporter := NewExportService(f.svc)
	data, filename, err := exporter.ExportMonthCalculations(context.Background(), 2025, time.August)
	require.NoError(t, err)
	assert.Equal(t, "payments_2025-08.csv", filename)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Student", "Email", "Department", "Month", "Total Hours", "Rate Per Hour", "Total Amount"}, records[0])
	assert.Equal(t, []string{"Aarav Deshmukh", "aarav@college.edu", "Computer Engineering", "2025-08", "24", "60.00", "1440.00"}, records[1])
}

func TestExportMonthSummaries(t *testing.T) {
	f := newPaymentFixture(t)
	f.setRate(t, "60.00")
	f.hours.hours[testStudentID] = 24
	_, err := f.svc.CalculateStudentMonth(context.Background(), 1, testStudentID, 2025, time.August)
	require.NoError(t, err)
	_, err = f.svc.SummarizeMonth(context.Background(), 2025, time.August, nil)
	require.NoError(t, err)

	for _, summary := range f.payments.summaries {
		summary.Department = &models.Department{Name: "Computer Engineering"}
	}

	exporter := NewExportService(f.svc)
	data, filename, err := exporter.ExportMonthSummaries(context.Background(), 2025, time.August)
	require.NoError(t, err)
	assert.Equal(t, "department_summaries_2025-08.csv", filename)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Computer Engineering", "2025-08", "1", "24", "1440.00", "24.00"}, records[1])
}
