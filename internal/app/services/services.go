package services

// Services defined in this package:
// - AuthService: authentication, registration and staff account creation
// - ApplicationService: scheme application submission and review
// - DepartmentService: departments, student assignments and staff bindings
// - WorkLogService: daily work log submission, verification and rejection
// - PaymentService: hourly rates, monthly calculations and department summaries
// - NotificationService: in-app notifications
// - ExportService: CSV exports of monthly payment data
