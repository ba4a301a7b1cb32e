package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campustrack/internal/attendance"
	"campustrack/internal/auth"
	"campustrack/internal/config"
	"campustrack/internal/handler"
	"campustrack/internal/httpmiddleware"
	"campustrack/internal/notify"
	"campustrack/internal/otp"
	"campustrack/internal/queue"
	"campustrack/internal/roster"
	"campustrack/internal/semester"
	"campustrack/internal/settings"
	"campustrack/internal/store"
	"campustrack/internal/timetable"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.EnsureSchema(db.Client); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	// With the in-memory queue there is no separate worker process, so
	// notifications deliver inline through the concrete channel. With redis
	// they are queued and the worker drains them.
	var notifier notify.Notifier
	if cfg.QueueBackend == "memory" {
		notifier = buildChannel(cfg)
	} else {
		q := queue.NewRedisQueue(redisClient.Client, "campustrack:notifications")
		notifier = notify.NewDispatcher(q)
	}

	rosterRepo := roster.NewRepository(db.Client)
	ledger := attendance.NewRepository(db.Client)
	settingsRepo := settings.NewRepository(db.Client)
	termRepo := semester.NewRepository(db.Client)

	submission := attendance.NewService(ledger, rosterRepo, settingsRepo, notifier, cfg.Location())
	lifecycle := semester.NewLifecycle(termRepo, cfg.TerminalSemester)
	otpSvc := otp.NewService(rosterRepo, notifier, cfg.OTPTTL)
	timetables := timetable.NewStore(cfg.TimetableDir)

	h := handler.New(cfg, rosterRepo, ledger, submission, termRepo, lifecycle, settingsRepo, otpSvc, timetables)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		redisHealthy := redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "db": dbHealthy, "redis": redisHealthy})
	})

	authRoutes := r.Group("/v1/auth")
	{
		authRoutes.POST("/register-admin", h.RegisterAdmin)
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/forgot-password", h.ForgotPassword)
		authRoutes.POST("/verify-otp", h.VerifyOTP)
		authRoutes.POST("/reset-password", h.ResetPassword)
	}

	admin := r.Group("/v1/admin", auth.RequireRole(cfg.JWTSigningKey, cfg.JWTIssuer, roster.RoleAdmin))
	{
		admin.POST("/students", h.CreateStudent)
		admin.GET("/students", h.ListStudents)
		admin.GET("/students/:id", h.StudentDetails)
		admin.PUT("/students/:id", h.UpdateStudent)
		admin.DELETE("/students/:id", h.DeleteStudent)

		admin.POST("/staff", h.CreateStaff)
		admin.GET("/staff", h.ListStaff)
		admin.PUT("/staff/:id", h.UpdateStaff)
		admin.DELETE("/staff/:id", h.DeleteStaff)

		admin.POST("/hods", h.CreateHOD)
		admin.GET("/hods", h.ListHODs)
		admin.GET("/hods/:id", h.HODDetails)
		admin.PUT("/hods/:id", h.UpdateHOD)
		admin.DELETE("/hods/:id", h.DeleteHOD)

		admin.GET("/semesters", h.ListTerms)
		admin.POST("/semesters", h.CreateTerm)
		admin.POST("/semesters/:id/end", h.EndTerm)

		admin.GET("/settings", h.GetSettings)
		admin.PUT("/settings", h.UpdateSettings)
	}

	staff := r.Group("/v1/staff-portal", auth.RequireRole(cfg.JWTSigningKey, cfg.JWTIssuer, roster.RoleStaff))
	{
		staff.GET("/cohorts", h.CohortOptions)
		staff.POST("/roster", h.CohortRoster)
		staff.POST("/attendance", h.SubmitAttendance)
		staff.GET("/attendance", h.AttendanceHistory)
	}

	hod := r.Group("/v1/hod", auth.RequireRole(cfg.JWTSigningKey, cfg.JWTIssuer, roster.RoleHOD))
	{
		hod.GET("/overview", h.HODOverview)
		hod.GET("/students", h.HODStudents)
		hod.GET("/students/:id", h.HODStudentDetails)
		hod.GET("/staff", h.HODStaff)
		hod.GET("/staff/:id", h.HODStaffDetails)
		hod.POST("/staff/:id/timetable", h.UploadTimetable)
		hod.DELETE("/staff/:id/timetable", h.DeleteTimetable)
	}

	public := r.Group("/v1/public")
	{
		public.GET("/students/:roll_no/attendance", h.PublicStudentAttendance)
		public.GET("/parents/:phone/attendance", h.PublicParentAttendance)
	}

	r.Static("/uploads/timetables", cfg.TimetableDir)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// buildChannel picks the concrete SMS channel from config.
func buildChannel(cfg config.App) notify.Notifier {
	if cfg.SMSBackend == "carrier" {
		log.Println("SMS channel: carrier gateway", cfg.SMSGatewayURL)
		return notify.NewCarrier(cfg.SMSGatewayURL, cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSFromNumber, false)
	}
	log.Println("SMS channel: console simulator")
	return notify.NewConsole()
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
