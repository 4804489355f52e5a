package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"exam-control/config"
	"exam-control/internal/api/handler"
	"exam-control/internal/api/middleware"
	"exam-control/internal/model"
	"exam-control/pkg/jwt"
	"exam-control/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 角色组合
	staff := middleware.RoleAuth(model.RoleManager, model.RoleControl)
	proctors := middleware.RoleAuth(model.RoleTeacher, model.RoleManager, model.RoleControl)
	absenceReaders := middleware.RoleAuth(model.RoleCounselor, model.RoleManager, model.RoleControl)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/auth/login",
			middleware.RateLimit(rdb, cfg.RateLimit.LoginLimit, cfg.RateLimit.Window),
			h.Auth.Login)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 变更推送（SSE）
			authorized.GET("/events", h.Event.Stream)

			// 表格导入
			imports := authorized.Group("/imports", staff)
			{
				imports.POST("/preview", h.Import.Preview)
				imports.POST("/:kind", h.Import.Import)
			}

			// 学生名册
			students := authorized.Group("/students")
			{
				students.GET("", staff, h.Student.ListStudents)
				students.DELETE("", staff, h.Student.ClearStudents)
			}

			// 监考教师
			teachers := authorized.Group("/teachers")
			{
				teachers.GET("", staff, h.Teacher.ListTeachers)
				teachers.DELETE("", staff, h.Teacher.ClearTeachers)
				teachers.GET("/:id/envelopes", proctors, h.Teacher.ListTeacherEnvelopes) // 教师本人或考务
				teachers.GET("/:id/qrcode", staff, h.Export.TeacherQRCode)
			}

			// 考场分配
			authorized.POST("/distribution", staff, h.Distribution.Distribute)

			// 考试日程
			schedule := authorized.Group("/schedule")
			{
				schedule.GET("", h.Schedule.GetSchedule)
				schedule.PUT("/start-date", staff, h.Schedule.SetStartDate)
				schedule.POST("/reset", staff, h.Schedule.ResetSessions)
				schedule.PUT("/sessions/:id", staff, h.Schedule.UpdateSession)
				schedule.POST("/apply", staff, h.Schedule.ApplySession)
				schedule.POST("/expand", staff, h.Schedule.Expand)
			}

			// 试卷袋与考勤
			envelopes := authorized.Group("/envelopes")
			{
				envelopes.GET("", h.Envelope.ListEnvelopes)
				envelopes.GET("/:id", h.Envelope.GetEnvelope)
				envelopes.GET("/:id/qrcode", staff, h.Export.EnvelopeQRCode)
				envelopes.POST("/open", proctors, h.Envelope.OpenCommittee)
				envelopes.POST("/:id/submit", proctors, h.Envelope.Submit)
				envelopes.PUT("/:id/students/:studentId/attendance", proctors, h.Envelope.SetAttendance)
				envelopes.POST("/:id/students/:studentId/toggle", proctors, h.Envelope.ToggleAttendance)
			}

			// 通知
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.ListNotifications)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
			}

			// 统计与报告
			reports := authorized.Group("/reports")
			{
				reports.GET("/stats", h.Report.Stats)
				reports.GET("/absences", absenceReaders, h.Report.Absences)
				reports.POST("/smart", staff,
					middleware.RateLimit(rdb, cfg.RateLimit.ReportLimit, cfg.RateLimit.Window),
					h.Report.SmartReport)
			}

			// 导出
			export := authorized.Group("/export")
			{
				export.GET("/roster", staff, h.Export.ExportRoster)
				export.GET("/calendar", proctors, h.Export.ExportCalendar) // 教师只导出本人日程
			}
		}
	}

	return r
}
