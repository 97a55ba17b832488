package app

import (
	"elearn_backend/docs"
	"elearn_backend/internal/config"
	"elearn_backend/internal/middleware"
	"elearn_backend/internal/model"
	"elearn_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c, cfg)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerLearnerRoutes(authGroup, c)
		a.registerInstructorRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, repos, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/badges", c.achievement.ListBadges)

		// 课程目录：游客可浏览已发布课程，登录用户按角色放宽
		public.GET("/courses", middleware.TryAuthMiddleware(cfg), c.course.ListCourses)
		public.GET("/courses/:courseId", middleware.TryAuthMiddleware(cfg), c.course.GetCourse)
		public.GET("/courses/:courseId/lessons", middleware.TryAuthMiddleware(cfg), c.course.ListLessons)
	}
}

func (a *App) registerLearnerRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/profile", c.auth.UpdateProfile)
	rg.POST("/profile/avatar", c.auth.UploadAvatar)

	// 报名
	rg.POST("/courses/:courseId/enroll", c.course.Enroll)
	rg.DELETE("/courses/:courseId/enroll", c.course.Drop)
	rg.GET("/enrollments", c.course.MyEnrollments)

	// 测验
	rg.GET("/courses/:courseId/quizzes", c.quiz.ListCourseQuizzes)
	rg.GET("/lessons/:lessonId/quizzes", c.quiz.ListLessonQuizzes)
	rg.GET("/quizzes/:quizId", c.quiz.GetQuiz)
	rg.POST("/quizzes/:quizId/attempt", c.quiz.SubmitAttempt)
	rg.GET("/quizzes/:quizId/attempts", c.quiz.MyAttempts)
	rg.GET("/attempts", c.quiz.AttemptHistory)

	// 成就
	rg.GET("/achievements", c.achievement.GetUserAchievements)
	rg.GET("/achievements/leaderboard", c.achievement.GetLeaderboard)
}

func (a *App) registerInstructorRoutes(rg *gin.RouterGroup, c *controllers) {
	instructor := rg.Group("/")
	instructor.Use(middleware.RoleMiddleware(model.Instructor))
	{
		// 课程管理
		instructor.POST("/courses", c.course.CreateCourse)
		instructor.PUT("/courses/:courseId", c.course.UpdateCourse)
		instructor.PATCH("/courses/:courseId/publish", c.course.PublishCourse)
		instructor.DELETE("/courses/:courseId", c.course.DeleteCourse)
		instructor.POST("/courses/:courseId/cover", c.course.UploadCover)
		instructor.GET("/courses/:courseId/enrollments", c.course.CourseRoster)

		// 课时管理
		instructor.POST("/courses/:courseId/lessons", c.course.AddLesson)
		instructor.PUT("/lessons/:lessonId", c.course.UpdateLesson)
		instructor.DELETE("/lessons/:lessonId", c.course.DeleteLesson)
		instructor.POST("/lessons/:lessonId/video", c.course.UploadLessonVideo)

		// 测验管理
		instructor.POST("/quizzes", c.quiz.CreateQuiz)
		instructor.PUT("/quizzes/:quizId", c.quiz.UpdateQuiz)
		instructor.DELETE("/quizzes/:quizId", c.quiz.DeleteQuiz)
		instructor.POST("/quizzes/:quizId/questions", c.quiz.AddQuestion)
		instructor.PUT("/questions/:questionId", c.quiz.UpdateQuestion)
		instructor.DELETE("/questions/:questionId", c.quiz.DeleteQuestion)
		instructor.PUT("/quizzes/:quizId/rewards", c.quiz.SetReward)
		instructor.GET("/quizzes/:quizId/rewards", c.quiz.ListRewards)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		// 用户管理
		admin.GET("/users", c.user.ListUsers)
		admin.GET("/users/:userId", c.user.GetUser)
		admin.PUT("/users/:userId", c.user.UpdateUser)
		admin.PATCH("/users/:userId/disabled", c.user.SetDisabled)
		admin.PATCH("/users/:userId/password", c.user.ResetPassword)
		admin.DELETE("/users/:userId", c.user.DeleteUser)

		// 徽章目录管理
		admin.POST("/badges", c.achievement.CreateBadge)
		admin.PUT("/badges/:badgeId", c.achievement.UpdateBadge)
		admin.DELETE("/badges/:badgeId", c.achievement.DeleteBadge)

		// 统计
		admin.GET("/analytics/overview", c.analytics.GetOverview)
		admin.GET("/analytics/quizzes/:quizId", c.analytics.GetQuizStats)
		admin.GET("/analytics/courses/:courseId", c.analytics.GetCourseQuizStats)
	}
}
