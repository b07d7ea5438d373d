package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/newit5s/tablebook/internal/http/handlers"
	httpmw "github.com/newit5s/tablebook/internal/http/middleware"
	"github.com/newit5s/tablebook/internal/repository"
	"github.com/newit5s/tablebook/internal/schedule"
	"github.com/newit5s/tablebook/internal/service"
	"github.com/newit5s/tablebook/internal/tasks"
	"github.com/newit5s/tablebook/pkg/config"
	"github.com/newit5s/tablebook/pkg/database"
	"github.com/newit5s/tablebook/pkg/events"
	"github.com/newit5s/tablebook/pkg/logger"
	"github.com/newit5s/tablebook/pkg/metrics"
	mw "github.com/newit5s/tablebook/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	metrics.Register()

	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		logger.Error("Invalid booking timezone", "timezone", cfg.Booking.Timezone, "error", err)
		os.Exit(1)
	}
	calc := schedule.NewCalculator(loc)

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database.URL, database.Options{
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxLifetime: cfg.Database.MaxLifetime,
	})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// Initialize repositories
	bookingRepo := repository.NewBookingRepository(pool)
	tableRepo := repository.NewTableRepository(pool)
	locationRepo := repository.NewLocationRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)

	// Initialize services. The cleanup scheduler and the table status
	// service refer to each other, so the service is bound after the
	// timers are created.
	var tableStatus *service.TableStatus
	var sched *tasks.RedisScheduler
	timers := tasks.NewTimerScheduler(func(ctx context.Context, taskID string) {
		tableStatus.HandleCleanup(ctx, taskID)
		sched.Complete(ctx, taskID)
	})
	defer timers.Stop()
	sched = tasks.NewRedisScheduler(timers, rdb)

	availability := service.NewAvailability(bookingRepo, tableRepo, locationRepo, calc)
	tableStatus = service.NewTableStatus(tableRepo, bookingRepo, sched, eventBus)
	bookingService := service.NewBookingService(bookingRepo, tableRepo, availability, tableStatus, eventBus, calc, cfg.Booking.DefaultSource)

	// Re-arm cleanup transitions that were pending before a restart.
	if err := sched.Restore(ctx); err != nil {
		logger.Warn("Failed to restore pending cleanup schedules", "error", err)
	}

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(bookingService)
	availabilityHandler := handlers.NewAvailabilityHandler(availability, calc)
	tableHandler := handlers.NewTableHandler(tableRepo, tableStatus)
	authHandler := handlers.NewAuthHandler(staffRepo, cfg.Auth.JWTSecret, cfg.Auth.StaffTokenTTL)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/auth", authHandler.Routes())
	r.Mount("/bookings", bookingHandler.PublicRoutes())
	r.Mount("/availability", availabilityHandler.PublicRoutes())

	r.Route("/staff", func(r chi.Router) {
		r.Use(httpmw.RequireStaff(cfg.Auth.JWTSecret))
		r.Mount("/bookings", bookingHandler.StaffRoutes())
		r.Mount("/availability", availabilityHandler.StaffRoutes())
		r.Mount("/tables", tableHandler.Routes())
	})

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down api service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Api service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting api service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Api service error", "error", err)
		os.Exit(1)
	}
}
