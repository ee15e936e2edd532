package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/enlassist/backend/internal/app/controllers"
	"github.com/enlassist/backend/internal/app/models"
	"github.com/enlassist/backend/internal/app/models/dto"
	"github.com/enlassist/backend/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	applicationController *controllers.ApplicationController,
	departmentController *controllers.DepartmentController,
	workLogController *controllers.WorkLogController,
	paymentController *controllers.PaymentController,
	notificationController *controllers.NotificationController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
	}

	// Department listing is public so the application form can offer choices
	v1.GET("/departments", departmentController.GetAllDepartments)
	v1.GET("/departments/:id", departmentController.GetDepartmentByID)

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout", authController.Logout)
		authenticated.GET("/auth/profile", authController.GetProfile)

		// Notifications belong to whoever is logged in
		notifications := authenticated.Group("/notifications")
		{
			notifications.GET("", notificationController.ListNotifications)
			notifications.GET("/unread-count", notificationController.CountUnread)
			notifications.POST("/read-all", notificationController.MarkAllRead)
			notifications.POST("/:id/read", notificationController.MarkRead)
		}

		// Student routes
		student := authenticated.Group("")
		student.Use(authMiddleware.RoleRequired(models.RoleStudent))
		{
			student.POST("/applications", applicationController.SubmitApplication)
			student.GET("/applications/me", applicationController.GetMyApplication)

			student.POST("/work-logs", workLogController.SubmitWorkLog)
			student.GET("/work-logs/me", workLogController.GetMyWorkLogs)
			student.GET("/work-logs/me/summary", workLogController.GetMySummary)

			student.GET("/assignments/me", departmentController.GetMyAssignment)
			student.GET("/payments/calculations/me", paymentController.GetMyCalculations)
		}

		// Department staff routes (coordinators can act here too)
		staff := authenticated.Group("")
		staff.Use(authMiddleware.RoleRequired(models.RoleDepartmentStaff, models.RoleCoordinator))
		{
			staff.GET("/work-logs/pending", workLogController.ListPending)
			staff.GET("/work-logs/:id", workLogController.GetWorkLogByID)
			staff.POST("/work-logs/:id/verify", workLogController.VerifyWorkLog)
			staff.POST("/work-logs/:id/reject", workLogController.RejectWorkLog)

			// Staff see the payment report scoped to their own department
			staff.GET("/payments/calculations", paymentController.GetMonthCalculations)
			staff.GET("/payments/summaries/department", paymentController.GetDepartmentSummary)
		}

		// Coordinator routes
		coordinator := authenticated.Group("")
		coordinator.Use(authMiddleware.RoleRequired(models.RoleCoordinator))
		{
			coordinator.POST("/auth/staff", authController.CreateStaff)

			coordinator.GET("/applications", applicationController.ListApplications)
			coordinator.GET("/applications/:id", applicationController.GetApplicationByID)
			coordinator.POST("/applications/:id/review", applicationController.ReviewApplication)

			coordinator.POST("/departments", departmentController.CreateDepartment)
			coordinator.PUT("/departments/:id", departmentController.UpdateDepartment)
			coordinator.GET("/departments/:id/students", departmentController.ListDepartmentStudents)

			coordinator.POST("/assignments", departmentController.AssignStudent)
			coordinator.POST("/assignments/bulk", departmentController.BulkAssignStudents)
			coordinator.DELETE("/assignments/:studentId", departmentController.UnassignStudent)
			coordinator.POST("/assignments/staff", departmentController.AssignStaff)

			coordinator.POST("/payments/rate", paymentController.SetRate)
			coordinator.GET("/payments/rate", paymentController.GetCurrentRate)
			coordinator.GET("/payments/rate/history", paymentController.GetRateHistory)
			coordinator.POST("/payments/calculations", paymentController.CalculateMonth)
			coordinator.POST("/payments/calculations/students/:studentId", paymentController.CalculateStudent)
			coordinator.GET("/payments/calculations/export", paymentController.ExportCalculations)
			coordinator.GET("/payments/summaries", paymentController.GetMonthSummaries)
			coordinator.GET("/payments/summaries/export", paymentController.ExportSummaries)
		}
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.APIResponse{
			Data: gin.H{"status": "ok"},
		})
	})
}
