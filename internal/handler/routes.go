package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fitdesk/coach-api/internal/middleware"
	"github.com/fitdesk/coach-api/internal/models"
	"github.com/fitdesk/coach-api/internal/repository"
	"github.com/fitdesk/coach-api/internal/service"
)

// Router bundles every handler plus the cross-cutting dependencies
// needed to register the HTTP surface.
type Router struct {
	Auth          *AuthHandler
	Students      *StudentHandler
	Programs      *ProgramHandler
	DietPlans     *DietPlanHandler
	Messages      *MessageHandler
	Notifications *NotificationHandler
	Calendar      *CalendarHandler
	Settings      *SettingsHandler
	Dashboard     *DashboardHandler
	Exports       *ExportHandler
	Metrics       *MetricsHandler

	AuthService      *service.AuthService
	MetricsService   *service.MetricsService
	UserRepo         *repository.UserRepository
	DashboardEnabled bool
}

// Register mounts all routes under the given API prefix.
func (rt *Router) Register(r *gin.Engine, prefix string) {
	r.GET("/health", rt.Metrics.Health)
	r.GET("/ready", rt.Metrics.Health)
	r.GET("/metrics", rt.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.Metrics(rt.MetricsService))
	api.Use(middleware.WithResponseMeta())

	auth := api.Group("/auth")
	{
		auth.POST("/register", rt.Auth.Register)
		auth.POST("/login", rt.Auth.Login)
		auth.POST("/refresh", rt.Auth.Refresh)
		auth.POST("/logout", middleware.JWT(rt.AuthService), rt.Auth.Logout)
		auth.POST("/change-password", middleware.JWT(rt.AuthService), rt.Auth.ChangePassword)
		auth.GET("/me", middleware.JWT(rt.AuthService), rt.Auth.Me)
	}

	// Signed tokens carry their own authorization. Claims are still
	// attached when a bearer token is sent so access logs carry identity.
	api.GET("/exports/download", middleware.OptionalJWT(rt.AuthService), rt.Exports.Download)

	coach := api.Group("")
	coach.Use(middleware.JWT(rt.AuthService))
	coach.Use(middleware.RequireRoles(models.RoleCoach, models.RoleAdmin))

	students := coach.Group("/students")
	{
		students.GET("", rt.Students.List)
		students.POST("", rt.Students.Create)
		students.GET("/:id", rt.Students.Get)
		students.PUT("/:id", rt.Students.Update)
		students.DELETE("/:id", rt.Students.Delete)
		students.PUT("/:id/program", rt.audit(models.AuditActionAssign, "student_program"), rt.Students.AssignProgram)
		students.PUT("/:id/diet-plan", rt.audit(models.AuditActionAssign, "student_diet_plan"), rt.Students.AssignDiet)
	}

	programs := coach.Group("/programs")
	{
		programs.GET("", rt.Programs.List)
		programs.POST("", rt.Programs.Create)
		programs.GET("/:id", rt.Programs.Get)
		programs.PUT("/:id", rt.Programs.Update)
		programs.DELETE("/:id", rt.Programs.Delete)
		programs.POST("/:id/assign", rt.audit(models.AuditActionAssign, "program"), rt.Programs.Assign)
		programs.POST("/:id/unassign", rt.audit(models.AuditActionUnassign, "program"), rt.Programs.Unassign)
		programs.POST("/:id/export", rt.Programs.Export)
	}

	dietPlans := coach.Group("/diet-plans")
	{
		dietPlans.GET("", rt.DietPlans.List)
		dietPlans.POST("", rt.DietPlans.Create)
		dietPlans.GET("/:id", rt.DietPlans.Get)
		dietPlans.PUT("/:id", rt.DietPlans.Update)
		dietPlans.DELETE("/:id", rt.DietPlans.Delete)
		dietPlans.POST("/:id/assign", rt.audit(models.AuditActionAssign, "diet_plan"), rt.DietPlans.Assign)
		dietPlans.POST("/:id/unassign", rt.audit(models.AuditActionUnassign, "diet_plan"), rt.DietPlans.Unassign)
		dietPlans.POST("/:id/export", rt.DietPlans.Export)
	}

	messages := coach.Group("/messages")
	{
		messages.GET("", rt.Messages.Conversations)
		messages.POST("", rt.Messages.Send)
		messages.GET("/unread-count", rt.Messages.UnreadCount)
		messages.GET("/:studentID", rt.Messages.Conversation)
		messages.POST("/:studentID/read", rt.Messages.MarkRead)
	}

	notifications := coach.Group("/notifications")
	{
		notifications.GET("", rt.Notifications.List)
		notifications.GET("/unread-count", rt.Notifications.UnreadCount)
		notifications.POST("/read-all", rt.Notifications.MarkAllRead)
		notifications.POST("/:id/read", rt.Notifications.MarkRead)
	}

	calendar := coach.Group("/calendar")
	{
		calendar.GET("", rt.Calendar.List)
		calendar.POST("", rt.Calendar.Create)
		calendar.GET("/:id", rt.Calendar.Get)
		calendar.PUT("/:id", rt.Calendar.Update)
		calendar.DELETE("/:id", rt.Calendar.Delete)
	}

	settings := coach.Group("/settings")
	{
		settings.GET("", rt.Settings.Get)
		settings.PUT("", rt.Settings.Update)
	}

	if rt.DashboardEnabled {
		dashboard := coach.Group("/dashboard")
		dashboard.GET("/stats", rt.Dashboard.Stats)
		dashboard.GET("/metrics", rt.Dashboard.Metrics)
	}
}

func (rt *Router) audit(action, resource string) gin.HandlerFunc {
	return middleware.Audit(rt.UserRepo, action, resource)
}
