package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/collegeerp/internal/app/controllers"
	"github.com/yigit/collegeerp/internal/middleware"
)

// Controllers groups every HTTP controller the router mounts.
type Controllers struct {
	Auth       *controllers.AuthController
	Navigation *controllers.NavigationController
	User       *controllers.UserController
	Department *controllers.DepartmentController
	Course     *controllers.CourseController
	Attendance *controllers.AttendanceController
	Mark       *controllers.MarkController
	Fee        *controllers.FeeController
	OD         *controllers.ODController
	Chat       *controllers.ChatController
	Dashboard  *controllers.DashboardController
	Health     *controllers.HealthController
	Storage    *controllers.StorageController
}

// SetupRouter configures all application routes. oauthSession is the cookie
// session middleware used by the Google sign-in flow.
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware, oauthSession gin.HandlerFunc) {
	router.GET("/health", c.Health.Health)
	router.GET("/health/ready", c.Health.Ready)
	router.GET("/storage/:bucket/*path", c.Storage.Serve)

	// API version group. Every request is resolved; anonymous ones pass
	// through and are stopped by the view gates below.
	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware.Authenticate())

	// --- Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", authMiddleware.RequireAuthenticated(), c.Auth.Logout)

		google := auth.Group("/google", oauthSession)
		{
			google.GET("/login", c.Auth.GoogleLogin)
			google.GET("/callback", c.Auth.GoogleCallback)
		}
	}
	v1.GET("/session", c.Auth.Session)

	navigation := v1.Group("/navigation")
	{
		navigation.GET("/menu", c.Navigation.Menu)
		navigation.GET("/guard", c.Navigation.Guard)
	}

	// --- User administration ---
	users := v1.Group("/users")
	{
		users.POST("/teachers", authMiddleware.RequireView("/erp/add-teacher"), c.User.CreateTeacher)
		users.POST("/students", authMiddleware.RequireView("/erp/add-student"), c.User.CreateStudent)
		users.GET("", authMiddleware.RequireView("/erp/manage-users"), c.User.ListUsers)
		users.DELETE("/:id", authMiddleware.RequireView("/erp/manage-users"), c.User.DeleteUser)

		editUser := users.Group("/:id", authMiddleware.RequireView("/erp/edit-user/:userId"))
		{
			editUser.GET("", c.User.GetUser)
			editUser.PUT("", c.User.UpdateUser)
		}
	}
	v1.GET("/profile", authMiddleware.RequireView("/profile/student"), c.User.GetProfile)
	v1.GET("/students", authMiddleware.RequireView("/erp/teacher/student-profiles"), c.User.ListStudents)

	// --- Catalogue ---
	departments := v1.Group("/departments")
	{
		departments.GET("", authMiddleware.RequireSession(), c.Department.GetAllDepartments)

		manage := departments.Group("", authMiddleware.RequireView("/erp/manage-departments"))
		{
			manage.POST("", c.Department.CreateDepartment)
			manage.DELETE("/:id", c.Department.DeleteDepartment)
		}
	}

	courses := v1.Group("/courses")
	{
		courses.GET("", authMiddleware.RequireSession(), c.Course.ListCourses)
		courses.GET("/mine", authMiddleware.RequireView("/erp/teacher/classes"), c.Course.MyCourses)

		manage := courses.Group("", authMiddleware.RequireView("/erp/manage-courses"))
		{
			manage.POST("", c.Course.CreateCourse)
			manage.DELETE("/:id", c.Course.DeleteCourse)
		}

		chats := courses.Group("/:id/chats", authMiddleware.RequireView("/erp/chat/student"))
		{
			chats.GET("", c.Chat.GetChatMessages)
			chats.POST("", c.Chat.SendChatMessage)
			chats.GET("/ws", c.Chat.StreamChat)
		}
	}

	// --- Academic records ---
	attendance := v1.Group("/attendance")
	{
		attendance.POST("", authMiddleware.RequireView("/erp/attendance/mark"), c.Attendance.MarkAttendance)
		attendance.GET("/me", authMiddleware.RequireView("/erp/attendance/student"), c.Attendance.MyAttendance)
		attendance.GET("", authMiddleware.RequireView("/erp/attendance/all"), c.Attendance.ListAttendance)
	}

	marks := v1.Group("/marks")
	{
		marks.POST("", authMiddleware.RequireView("/erp/marks/upload"), c.Mark.UploadMarks)
		marks.GET("/me", authMiddleware.RequireView("/erp/marks/student"), c.Mark.MyMarks)
		marks.GET("", authMiddleware.RequireView("/erp/marks/all"), c.Mark.ListMarks)
	}

	fees := v1.Group("/fees")
	{
		fees.GET("/me", authMiddleware.RequireView("/erp/fees/student"), c.Fee.MyFees)

		admin := fees.Group("", authMiddleware.RequireView("/erp/fees/admin"))
		{
			admin.GET("", c.Fee.ListFees)
			admin.POST("", c.Fee.CreateFee)
			admin.POST("/:id/payments", c.Fee.RecordPayment)
		}
	}

	od := v1.Group("/od-requests")
	{
		od.POST("", authMiddleware.RequireView("/erp/od/request"), c.OD.SubmitRequest)
		od.GET("/me", authMiddleware.RequireView("/erp/od/request"), c.OD.MyRequests)

		approve := od.Group("", authMiddleware.RequireView("/erp/od/approve"))
		{
			approve.GET("", c.OD.ListRequests)
			approve.PATCH("/:id", c.OD.UpdateStatus)
		}
	}

	// --- Dashboard ---
	dashboard := v1.Group("/dashboard", authMiddleware.RequireView("/dashboard/student"))
	{
		dashboard.GET("/stats", c.Dashboard.Stats)
		dashboard.GET("/ws", c.Dashboard.Stream)
	}
}
