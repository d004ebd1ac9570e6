package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	createBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_booking"
	getAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_appointment"
	getAvailableSlotsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_available_slots"
	getBookableDatesHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_bookable_dates"
	healthzHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/healthz"
	triggerRemindersHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/trigger_reminders"
	updateAppointmentStatusHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_appointment_status"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/cache/claim"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/cache/window"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	scheduleRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notification"
	appointmentsService "github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	scheduleService "github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
	createBookingUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	getBookableDatesUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_bookable_dates"
	sendRemindersUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/send_reminders"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

func main() {
	configPath := "config.toml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-AppointmentService...")
	log.Info("Configuration loaded from %s", configPath)

	// Инициализируем метрики (если включены). nil коллектор везде означает "без метрик"
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Redis: защита от параллельной отправки напоминаний и лимит частоты записи
	var (
		rdb     *redis.Client
		claimer sendRemindersUC.Claimer = claim.NoopClaimer{}
	)
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// Redis не обязателен для корректности: работаем дальше, claim и лимит деградируют
			log.Warn("Redis ping failed (addr=%s): %v", cfg.Redis.Addr, err)
		}
		cancel()

		claimer = claim.NewRedisClaimer(rdb, time.Duration(cfg.Reminders.ClaimTTL)*time.Second)
		log.Info("Redis enabled (addr=%s, db=%d)", cfg.Redis.Addr, cfg.Redis.DB)
	}

	// Инициализируем репозитории
	appointmentRepository := appointmentRepo.NewRepository(wrappedDB)
	scheduleRepository := scheduleRepo.NewRepository(wrappedDB)

	// Инициализируем шлюз уведомлений
	gateway := newNotificationGateway(cfg, log)

	// Инициализируем сервисы
	scheduleSvc := scheduleService.NewService(scheduleRepository, log)
	appointmentsSvc := appointmentsService.NewService(appointmentRepository, txMgr, log)

	// Инициализируем use cases
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(scheduleSvc, appointmentRepository, log)
	getBookableDatesUseCase := getBookableDatesUC.NewUseCase(scheduleSvc, log)
	createBookingUseCase := createBookingUC.NewUseCase(
		appointmentRepository,
		scheduleSvc,
		txMgr,
		metricsCollector,
		log,
	)
	sendRemindersUseCase := sendRemindersUC.NewUseCase(
		appointmentRepository,
		scheduleRepository,
		gateway,
		claimer,
		metricsCollector,
		remindersConfig(cfg.Reminders),
		log,
	)

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getBookableDates := getBookableDatesHandler.NewHandler(getBookableDatesUseCase, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentsSvc, log)
	updateAppointmentStatus := updateAppointmentStatusHandler.NewHandler(appointmentsSvc, log)
	triggerReminders := triggerRemindersHandler.NewHandler(sendRemindersUseCase, log)

	healthChecks := map[string]healthzHandler.Pinger{"postgres": wrappedDB}
	if rdb != nil {
		healthChecks["redis"] = redisPinger{rdb}
	}
	healthz := healthzHandler.NewHandler(healthChecks, 2*time.Second, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/healthz", healthz.Handle).Methods(http.MethodGet)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES
	// ============================================================

	// Слоты на дату и календарь доступных дат
	api.HandleFunc("/resources/{resourceId}/appointment-types/{typeId}/available-slots",
		getAvailableSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/resources/{resourceId}/appointment-types/{typeId}/bookable-dates",
		getBookableDates.Handle).Methods(http.MethodGet)

	// Создание записи (с лимитом частоты по IP, если включен)
	var createBookingRoute http.Handler = http.HandlerFunc(createBooking.Handle)
	if cfg.RateLimit.Enabled && rdb != nil {
		limiter := middleware.RateLimit(
			window.NewRedisCounter(rdb),
			cfg.RateLimit.Requests,
			time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
			"rl:bookings",
			log,
		)
		createBookingRoute = limiter(createBookingRoute)
		log.Info("Rate limit enabled for POST /bookings: %d requests per %ds",
			cfg.RateLimit.Requests, cfg.RateLimit.WindowSeconds)
	}
	api.Handle("/bookings", createBookingRoute).Methods(http.MethodPost)

	// Запись и смена её статуса внешними системами
	api.HandleFunc("/appointments/{appointmentId}", getAppointment.Handle).Methods(http.MethodGet)
	api.HandleFunc("/appointments/{appointmentId}/status", updateAppointmentStatus.Handle).Methods(http.MethodPatch)

	// ============================================================
	// PROTECTED ROUTES (общий секрет внешнего планировщика)
	// ============================================================

	trigger := api.PathPrefix("/reminders").Subrouter()
	trigger.Use(middleware.TriggerAuth(cfg.Reminders.TriggerSecret, log))
	trigger.HandleFunc("/trigger", triggerReminders.Handle).Methods(http.MethodPost)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}

// notificationGateway общий интерфейс шлюзов уведомлений
type notificationGateway interface {
	sendRemindersUC.NotificationGateway
	Name() string
}

func newNotificationGateway(cfg *config.Config, log *logger.Logger) notificationGateway {
	var gw notificationGateway
	switch cfg.Notifications.Provider {
	case "smtp":
		smtp := cfg.Notifications.SMTP
		gw = notification.NewEmailGateway(smtp.Host, smtp.Port, smtp.Username, smtp.Password, smtp.From,
			time.Duration(smtp.Timeout)*time.Second, log)
	case "webhook":
		sms := cfg.Notifications.SMS
		gw = notification.NewSMSGateway(sms.WebhookURL, sms.Token, time.Duration(sms.Timeout)*time.Second, log)
	default:
		gw = notification.NewNoopGateway(log)
	}
	log.Info("Notification gateway: %s, reminder channel: %s", gw.Name(), cfg.Reminders.Channel)
	return gw
}

func remindersConfig(rc config.RemindersConfig) sendRemindersUC.Config {
	offsets := make([]domain.ReminderOffset, 0, len(rc.Offsets))
	for _, o := range rc.Offsets {
		offsets = append(offsets, domain.ReminderOffset{Type: domain.ReminderType(o.Type), Minutes: o.Minutes})
	}

	return sendRemindersUC.Config{
		Period:      rc.Period(),
		Offsets:     offsets,
		Concurrency: rc.Concurrency,
		Budget:      rc.Budget(),
		Channel:     sendRemindersUC.Channel(rc.Channel),
	}
}

// redisPinger приводит redis.Client к интерфейсу healthz.Pinger
type redisPinger struct {
	rdb *redis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}
