package router

import (
	"classroom/backend/foundation/web"
	"classroom/backend/internal/auth"
	"classroom/backend/internal/middleware"
	"classroom/backend/internal/pkg/repository/postgresql"

	"classroom/backend/internal/repository/postgres/attendance"
	"classroom/backend/internal/repository/postgres/schedule"
	"classroom/backend/internal/repository/postgres/session"
	"classroom/backend/internal/repository/postgres/task"
	"classroom/backend/internal/repository/postgres/user"

	"classroom/backend/internal/service/report"
	sync_service "classroom/backend/internal/service/sync"

	auth_controller "classroom/backend/internal/controller/http/v1/auth"
	schedule_controller "classroom/backend/internal/controller/http/v1/schedule"
	session_controller "classroom/backend/internal/controller/http/v1/session"
	sync_controller "classroom/backend/internal/controller/http/v1/sync"
	task_controller "classroom/backend/internal/controller/http/v1/task"

	"github.com/redis/go-redis/v9"

	"time"
)

type Router struct {
	*web.App
	postgresDB *postgresql.Database
	redisDB    *redis.Client
	port       string
	auth       *auth.Auth
	baseUrl    string
	checkinTTL time.Duration
}

func NewRouter(
	app *web.App,
	postgresDB *postgresql.Database,
	redisDB *redis.Client,
	port string,
	authenticator *auth.Auth,
	baseUrl string,
	checkinTTL time.Duration,
) *Router {
	return &Router{
		App:        app,
		postgresDB: postgresDB,
		redisDB:    redisDB,
		port:       port,
		auth:       authenticator,
		baseUrl:    baseUrl,
		checkinTTL: checkinTTL,
	}
}

func (r Router) Init() error {
	r.HandleMethodNotAllowed = true
	r.Use(middleware.CorsMiddleware())

	// - postgresql
	userPostgres := user.NewRepository(r.postgresDB)
	schedulePostgres := schedule.NewRepository(r.postgresDB)
	sessionPostgres := session.NewRepository(r.postgresDB)
	attendancePostgres := attendance.NewRepository(r.postgresDB, r.redisDB, r.checkinTTL)
	taskPostgres := task.NewRepository(r.postgresDB)

	// - service
	reportService := report.NewService(sessionPostgres, attendancePostgres, r.baseUrl)
	syncService := sync_service.NewService(schedulePostgres, sessionPostgres, attendancePostgres, taskPostgres)

	// controller
	authController := auth_controller.NewController(userPostgres, r.auth)
	scheduleController := schedule_controller.NewController(schedulePostgres)
	sessionController := session_controller.NewController(sessionPostgres, attendancePostgres, reportService)
	taskController := task_controller.NewController(taskPostgres)
	syncController := sync_controller.NewController(syncService)

	// #auth
	r.Post("/api/v1/sign-in", authController.SignIn)
	r.Post("/api/v1/refresh-token", authController.RefreshToken)

	// #schedule
	r.Get("/api/v1/schedule/list", scheduleController.GetList, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleDashboard))
	r.Get("/api/v1/schedule/:id", scheduleController.GetById, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Post("/api/v1/schedule/create", scheduleController.Create, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Patch("/api/v1/schedule/:id", scheduleController.UpdateColumns, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Delete("/api/v1/schedule/:id", scheduleController.Delete, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Post("/api/v1/schedule/resync", scheduleController.Resync, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Delete("/api/v1/schedule/term", scheduleController.ClearTerm, middleware.Authenticate(r.auth, auth.RoleAdmin))

	// #sync
	r.Post("/api/v1/sync/full", syncController.RunFull, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Post("/api/v1/sync/incremental", syncController.RunIncremental, middleware.Authenticate(r.auth, auth.RoleAdmin))

	// #session
	r.Get("/api/v1/session/list", sessionController.GetList, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleTeacher, auth.RoleStudent, auth.RoleDashboard))
	r.Get("/api/v1/session/:id", sessionController.GetDetailById, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleTeacher, auth.RoleStudent, auth.RoleDashboard))
	r.Get("/api/v1/session/:id/stats", sessionController.GetStats, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleTeacher, auth.RoleDashboard))
	r.Get("/api/v1/session/:id/record", sessionController.GetRecord, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleTeacher, auth.RoleDashboard))
	r.Get("/api/v1/session/:id/students", sessionController.GetStudentList, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleTeacher))
	r.Get("/api/v1/session/:id/qrcode", sessionController.GetQrCode, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleTeacher))
	r.Get("/api/v1/session/:id/export", sessionController.ExportExcel, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleTeacher))
	r.Get("/api/v1/session/:id/sheet", sessionController.ExportSheet, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleTeacher))
	r.Post("/api/v1/session/checkin", sessionController.CheckIn, middleware.Authenticate(r.auth, auth.RoleStudent))
	r.Post("/api/v1/session/leave", sessionController.RequestLeave, middleware.Authenticate(r.auth, auth.RoleStudent))
	r.Patch("/api/v1/session/leave/:id/approve", sessionController.ApproveLeave, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleTeacher))
	r.Patch("/api/v1/session/leave/:id/reject", sessionController.RejectLeave, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleTeacher))
	r.Patch("/api/v1/session/:id/close", sessionController.CloseRecord, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleTeacher))

	// #task
	r.Get("/api/v1/task/list", taskController.GetList, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleDashboard))
	r.Get("/api/v1/task/statistics", taskController.GetStatistics, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleDashboard))
	r.Get("/api/v1/task/:id", taskController.GetById, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleDashboard))
	r.Get("/api/v1/task/:id/children", taskController.GetChildren, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleDashboard))
	r.Get("/api/v1/task/:id/tree", taskController.GetTree, middleware.Authenticate(r.auth, auth.RoleAdmin, auth.RoleDashboard))
	r.Post("/api/v1/task/create", taskController.Create, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Patch("/api/v1/task/:id/pause", taskController.Pause, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Patch("/api/v1/task/:id/resume", taskController.Resume, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Patch("/api/v1/task/:id/cancel", taskController.Cancel, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Patch("/api/v1/task/:id/retry", taskController.Retry, middleware.Authenticate(r.auth, auth.RoleAdmin))
	r.Delete("/api/v1/task/:id", taskController.Delete, middleware.Authenticate(r.auth, auth.RoleAdmin))

	return r.Run(r.port)
}
