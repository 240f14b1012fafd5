package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes(sessionManager *middleware.SessionManager) {
	studentsHandler := handlers.NewStudentsHandler(s.service)
	attendanceHandler := handlers.NewAttendanceHandler(s.service)
	facultyHandler := handlers.NewFacultyHandler(s.faculty, sessionManager)
	loginLimiter := middleware.NewRateLimiter(constants.LoginRatePerSecond, constants.LoginBurst)

	// Public endpoints
	s.router.Get("/api/health", handlers.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.With(loginLimiter.Middleware).Post("/faculty/login", facultyHandler.Login)
		r.Post("/faculty/logout", facultyHandler.Logout)
		r.Get("/faculty/status", facultyHandler.Status)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessionManager))

			// Students
			r.Post("/students/enroll", studentsHandler.Enroll)
			r.Get("/students", studentsHandler.List)
			r.Get("/students/list", studentsHandler.ListAll)

			// Attendance
			r.Post("/attendance/mark", attendanceHandler.Mark)
			r.Get("/attendance", attendanceHandler.List)

			r.Get("/faculty/{id}/subjects", facultyHandler.Subjects)

			// Faculty administration
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Post("/faculty/add", facultyHandler.Add)
				r.Put("/faculty/{id}/update", facultyHandler.Update)
				r.Get("/faculty/list", facultyHandler.List)
				r.Delete("/faculty/{id}/delete", facultyHandler.Delete)
			})
		})
	})
}
