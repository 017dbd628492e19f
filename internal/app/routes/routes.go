package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/teacherportfolio/internal/app/controllers"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/middleware"
)

// Controllers groups every HTTP handler the router mounts
type Controllers struct {
	Registration *controllers.RegistrationController
	Auth         *controllers.AuthController
	Teacher      *controllers.TeacherController
	Admin        *controllers.AdminController
	Notification *controllers.NotificationController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	// Registration form webhook, flat error bodies
	router.POST("/api/register", c.Registration.Register)

	// Welcome e-mail function the dispatcher posts to
	router.POST("/functions/v1/send-welcome-email", c.Notification.SendWelcomeEmail)

	v1 := router.Group("/api/v1")

	v1.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}, ""))
	})
	v1.GET("/reference", c.Teacher.ReferenceData)

	// --- Public auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
		auth.POST("/claim", c.Auth.Claim)
		auth.GET("/session", c.Auth.Session)
		auth.POST("/change-password", authMiddleware.Guard(models.RoleTeacher), c.Auth.ChangePassword)
	}

	// --- Teacher routes (admins pass too) ---
	teacher := v1.Group("/teacher")
	teacher.Use(authMiddleware.Guard(models.RoleTeacher))
	{
		teacher.GET("/dashboard", c.Teacher.Dashboard)
		teacher.PUT("/profile", c.Teacher.UpdateProfile)
		teacher.PUT("/certifications", c.Teacher.UpdateCertification)
		teacher.POST("/results", c.Teacher.AddStudentResult)
		teacher.DELETE("/results/:id", c.Teacher.DeleteStudentResult)
		teacher.POST("/skills", c.Teacher.StartSkill)
		teacher.PATCH("/skills/:id", c.Teacher.UpdateSkillStatus)
		teacher.POST("/goals", c.Teacher.AddGoal)
		teacher.PATCH("/goals/:id", c.Teacher.UpdateGoal)
		teacher.POST("/photo", c.Teacher.UploadPhoto)
	}

	// --- Admin routes ---
	admin := v1.Group("/admin")
	admin.Use(authMiddleware.Guard(models.RoleAdmin))
	{
		admin.GET("/dashboard", c.Admin.Dashboard)
		admin.GET("/teachers", c.Admin.ListTeachers)
		admin.GET("/teachers/:id", c.Admin.TeacherProfile)

		admin.GET("/skills", c.Admin.ListSkills)
		admin.POST("/skills", c.Admin.CreateSkill)
		admin.PUT("/skills/:id", c.Admin.UpdateSkill)

		admin.GET("/goals", c.Admin.ListGoals)
		admin.POST("/goals", c.Admin.CreateGoal)
		admin.PUT("/goals/:id", c.Admin.UpdateGoal)

		admin.GET("/approvals", c.Admin.Approvals)
		admin.POST("/approvals/skills/:id", c.Admin.DecideSkill)
		admin.POST("/approvals/goals/:id", c.Admin.DecideGoal)
	}
}
