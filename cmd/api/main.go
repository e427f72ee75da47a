package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sameerbhagtani/rfid-school-system/internal/attendance"
	"github.com/sameerbhagtani/rfid-school-system/internal/auth"
	"github.com/sameerbhagtani/rfid-school-system/internal/calendar"
	"github.com/sameerbhagtani/rfid-school-system/internal/config"
	"github.com/sameerbhagtani/rfid-school-system/internal/httpmiddleware"
	"github.com/sameerbhagtani/rfid-school-system/internal/metrics"
	"github.com/sameerbhagtani/rfid-school-system/internal/queue"
	"github.com/sameerbhagtani/rfid-school-system/internal/store"
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
	ctx := context.Background()

	// DB connectivity is fail-fast: every operation needs the ledger.
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := attendance.NewRepository(db.Client)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:marks")
	}

	svc := attendance.NewService(repo)

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
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/devices/register", func(c *gin.Context) {
		var req struct {
			DeviceID string `json:"device_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tokens, err := auth.Issue(req.DeviceID, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	scanner := r.Group("/v1", auth.DeviceAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	scanner.POST("/attendance/mark", func(c *gin.Context) {
		var req struct {
			RecorderID string   `json:"recorder_id" binding:"required"`
			StudentIDs []string `json:"student_ids" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		res, err := svc.Mark(c.Request.Context(), req.RecorderID, req.StudentIDs)
		if err != nil {
			var he *attendance.HolidayError
			if errors.As(err, &he) {
				metrics.HolidayBlocked.Inc()
			}
			c.JSON(errStatus(err), gin.H{"error": err.Error()})
			return
		}
		metrics.MarksAttempted.Add(float64(res.MarkedCount))

		// One message per student so the worker can refresh each cached
		// report; publish failures only cost cache freshness.
		for _, id := range res.StudentIDs {
			if err := q.Publish(ctx, queue.Message{Type: queue.TypeMark, Body: []byte(id)}); err != nil {
				log.Printf("queue publish failed: %v", err)
				break
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"marked_count": res.MarkedCount,
			"day":          calendar.FormatDay(res.Day),
		})
	})

	scanner.GET("/roles/:id", func(c *gin.Context) {
		p, err := svc.Role(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(errStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"role": p.Role, "name": p.Name})
	})

	scanner.GET("/analytics/:id", func(c *gin.Context) {
		asOfRaw := c.Query("as_of")
		var asOf time.Time
		if asOfRaw != "" {
			parsed, err := parseAsOf(asOfRaw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be RFC3339 or YYYY-MM-DD"})
				return
			}
			asOf = parsed
		}

		// Cached reports are only valid for "now" queries.
		normalized, normErr := attendance.NormalizeID(c.Param("id"))
		if asOfRaw == "" && normErr == nil {
			if cached, err := redisClient.GetReport(c.Request.Context(), normalized); err == nil && cached != nil {
				metrics.AnalyticsRequests.WithLabelValues("cache").Inc()
				c.Data(http.StatusOK, "application/json", cached)
				return
			}
		}

		report, err := svc.Analytics(c.Request.Context(), c.Param("id"), asOf)
		if err != nil {
			c.JSON(errStatus(err), gin.H{"error": err.Error()})
			return
		}
		metrics.AnalyticsRequests.WithLabelValues("computed").Inc()

		if asOfRaw == "" {
			if data, err := json.Marshal(report); err == nil {
				if err := redisClient.SetReport(c.Request.Context(), normalized, data, cfg.AnalyticsCacheTTL); err != nil {
					log.Printf("report cache write failed: %v", err)
				}
			}
		}
		c.JSON(http.StatusOK, report)
	})

	scanner.POST("/attendance/reset", func(c *gin.Context) {
		var req struct {
			Day string `json:"day"`
		}
		// Empty body means "today"; the scanner's reset card sends {}.
		_ = c.ShouldBindJSON(&req)

		var day time.Time
		if req.Day != "" {
			parsed, err := calendar.ParseDay(req.Day)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "day must be YYYY-MM-DD"})
				return
			}
			day = parsed
		}

		removed, err := svc.ResetDay(c.Request.Context(), day)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		metrics.DayResets.Inc()

		if err := q.Publish(ctx, queue.Message{Type: queue.TypeReset}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}

		c.JSON(http.StatusOK, gin.H{"removed_count": removed})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}

// errStatus maps the service error taxonomy to HTTP status codes.
func errStatus(err error) int {
	var he *attendance.HolidayError
	switch {
	case errors.As(err, &he),
		errors.Is(err, attendance.ErrNoValidTargets),
		errors.Is(err, attendance.ErrInvalidIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, attendance.ErrRecorderNotFound),
		errors.Is(err, attendance.ErrStudentNotFound),
		errors.Is(err, attendance.ErrPersonNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func parseAsOf(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return calendar.ParseDay(s)
}

// CORS middleware for the dashboard.
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
