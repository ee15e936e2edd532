package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

// ExportService renders monthly payment data as CSV for download
type ExportService interface {
	ExportMonthCalculations(ctx context.Context, year int, month time.Month) ([]byte, string, error)
	ExportMonthSummaries(ctx context.Context, year int, month time.Month) ([]byte, string, error)
}

// exportServiceImpl implements the ExportService interface
type exportServiceImpl struct {
	paymentService PaymentService
}

// NewExportService creates a new export service instance
func NewExportService(paymentService PaymentService) ExportService {
	return &exportServiceImpl{
		paymentService: paymentService,
	}
}

// ExportMonthCalculations renders a month's per-student calculations as CSV.
// Returns the file contents and a suggested filename.
func (s *exportServiceImpl) ExportMonthCalculations(ctx context.Context, year int, month time.Month) ([]byte, string, error) {
	calcs, err := s.paymentService.GetMonthCalculations(ctx, year, month)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Student", "Email", "Department", "Month", "Total Hours", "Rate Per Hour", "Total Amount"}
	if err := w.Write(header); err != nil {
		return nil, "", fmt.Errorf("error writing CSV header: %w", err)
	}

	for _, calc := range calcs {
		record := []string{
			"", "", "",
			calc.CalculationMonth.Format("2006-01"),
			strconv.Itoa(calc.TotalHours),
			calc.RatePerHour.StringFixed(2),
			calc.TotalAmount.StringFixed(2),
		}
		if calc.Student != nil {
			record[0] = calc.Student.FullName()
			record[1] = calc.Student.Email
		}
		if calc.Department != nil {
			record[2] = calc.Department.Name
		}
		if err := w.Write(record); err != nil {
			return nil, "", fmt.Errorf("error writing CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("error flushing CSV: %w", err)
	}

	filename := fmt.Sprintf("payments_%d-%02d.csv", year, int(month))
	return buf.Bytes(), filename, nil
}

// ExportMonthSummaries renders a month's department summaries as CSV
func (s *exportServiceImpl) ExportMonthSummaries(ctx context.Context, year int, month time.Month) ([]byte, string, error) {
	summaries, err := s.paymentService.GetMonthSummaries(ctx, year, month)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Department", "Month", "Total Students", "Total Hours", "Total Amount", "Average Hours Per Student"}
	if err := w.Write(header); err != nil {
		return nil, "", fmt.Errorf("error writing CSV header: %w", err)
	}

	for _, summary := range summaries {
		record := []string{
			"",
			summary.CalculationMonth.Format("2006-01"),
			strconv.Itoa(summary.TotalStudents),
			strconv.Itoa(summary.TotalHours),
			summary.TotalAmount.StringFixed(2),
			summary.AverageHoursPerStudent.StringFixed(2),
		}
		if summary.Department != nil {
			record[0] = summary.Department.Name
		}
		if err := w.Write(record); err != nil {
			return nil, "", fmt.Errorf("error writing CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("error flushing CSV: %w", err)
	}

	filename := fmt.Sprintf("department_summaries_%d-%02d.csv", year, int(month))
	return buf.Bytes(), filename, nil
}
