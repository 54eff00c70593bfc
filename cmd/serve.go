package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	cancelBookingHandler "github.com/m04kA/SMC-PaymentService/internal/api/handlers/cancel_booking"
	getBookingHandler "github.com/m04kA/SMC-PaymentService/internal/api/handlers/get_booking"
	getPaymentConflictsHandler "github.com/m04kA/SMC-PaymentService/internal/api/handlers/get_payment_conflicts"
	redsysNotificationHandler "github.com/m04kA/SMC-PaymentService/internal/api/handlers/redsys_notification"
	verifyPaymentHandler "github.com/m04kA/SMC-PaymentService/internal/api/handlers/verify_payment"
	"github.com/m04kA/SMC-PaymentService/internal/api/middleware"
	"github.com/m04kA/SMC-PaymentService/internal/config"
	"github.com/m04kA/SMC-PaymentService/internal/infra/migrations"
	blockedDateRepo "github.com/m04kA/SMC-PaymentService/internal/infra/storage/blockeddate"
	bookingRepo "github.com/m04kA/SMC-PaymentService/internal/infra/storage/booking"
	paymentRepo "github.com/m04kA/SMC-PaymentService/internal/infra/storage/payment"
	mailerClient "github.com/m04kA/SMC-PaymentService/internal/integrations/mailer"
	"github.com/m04kA/SMC-PaymentService/internal/integrations/mailqueue"
	"github.com/m04kA/SMC-PaymentService/internal/integrations/redsys"
	bookingsService "github.com/m04kA/SMC-PaymentService/internal/service/bookings"
	notificationsService "github.com/m04kA/SMC-PaymentService/internal/service/notifications"
	paymentsService "github.com/m04kA/SMC-PaymentService/internal/service/payments"
	processPaymentNotificationUC "github.com/m04kA/SMC-PaymentService/internal/usecase/process_payment_notification"
	"github.com/m04kA/SMC-PaymentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-PaymentService/pkg/logger"
	"github.com/m04kA/SMC-PaymentService/pkg/metrics"
	"github.com/m04kA/SMC-PaymentService/pkg/mq"
	"github.com/m04kA/SMC-PaymentService/pkg/txmanager"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP server (gateway webhook, return-url verification, admin API)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply migrations before starting")
	return cmd
}

func runServe(ctx context.Context, migrate bool) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Close()

	log.Info("Starting SMC-PaymentService...")

	// Метрики (если включены). nil-коллектор безопасен для всех потребителей
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	db, err := openDB(cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		migrator, err := migrations.NewMigrator(db, log)
		if err != nil {
			return err
		}
		if err := migrator.Up(ctx); err != nil {
			return err
		}
	}

	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Репозитории
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	paymentRepository := paymentRepo.NewRepository(wrappedDB)
	blockedDateRepository := blockedDateRepo.NewRepository(wrappedDB)

	// Проверка подписи шлюза
	verifier, err := redsys.NewVerifier(cfg.Redsys.SecretKey)
	if err != nil {
		return fmt.Errorf("invalid redsys secret key: %w", err)
	}

	// Отправка писем
	sender, closeSender, err := newEmailSender(cfg.Notifier, log)
	if err != nil {
		return err
	}
	defer closeSender()

	notifier := notificationsService.NewService(
		sender,
		metricsCollector,
		log,
		time.Duration(cfg.Notifier.Timeout)*time.Second,
	)
	// письма уходят в фоне, подтверждение шлюзу их не ждёт
	notifyDispatcher := notificationsService.NewDispatcher(notifier, log, cfg.Notifier.MaxInFlight)

	// Сервисы и use cases
	bookingSvc := bookingsService.NewService(bookingRepository, txMgr, log)
	paymentSvc := paymentsService.NewService(paymentRepository, log)

	processNotificationUseCase := processPaymentNotificationUC.NewUseCase(
		paymentRepository,
		bookingRepository,
		blockedDateRepository,
		txMgr,
		verifier,
		notifyDispatcher,
		metricsCollector,
		log,
	)

	// Handlers
	redsysNotification := redsysNotificationHandler.NewHandler(processNotificationUseCase, log)
	verifyPayment := verifyPaymentHandler.NewHandler(processNotificationUseCase, log)
	getPaymentConflicts := getPaymentConflictsHandler.NewHandler(paymentSvc, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)

	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PAYMENT GATEWAY ROUTES (подлинность проверяется подписью)
	// ============================================================

	// Серверное уведомление шлюза
	api.HandleFunc("/payments/redsys/notification", redsysNotification.Handle).Methods(http.MethodPost)

	// Проверка оплаты со страницы успеха
	api.HandleFunc("/payments/redsys/verify", verifyPayment.Handle).Methods(http.MethodPost)

	// ============================================================
	// ADMIN ROUTES (требуют X-Admin-Token)
	// ============================================================

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminAuth(cfg.Admin.Token))
	if cfg.Admin.Token == "" {
		log.Warn("Admin token is not configured, admin API is disabled")
	}

	// Очередь ручной сверки
	admin.HandleFunc("/payments/conflicts", getPaymentConflicts.Handle).Methods(http.MethodGet)

	admin.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)

	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		close(stopMetricsCh)
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("Shutting down server...")
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if err := notifyDispatcher.Wait(shutdownCtx); err != nil {
		log.Error("Pending payment emails were not sent before shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
	return nil
}

// newEmailSender выбирает транспорт писем по notifier.transport
func newEmailSender(cfg config.NotifierConfig, log *logger.Logger) (notificationsService.Sender, func(), error) {
	switch cfg.Transport {
	case config.TransportHTTP:
		log.Info("Email transport: http (%s, timeout=%ds)", cfg.BaseURL, cfg.Timeout)
		return mailerClient.NewClient(cfg.BaseURL, time.Duration(cfg.Timeout)*time.Second, log), func() {}, nil

	case config.TransportAMQP:
		publisher, err := mq.NewPublisher(cfg.RabbitURL, cfg.Exchange)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		log.Info("Email transport: amqp (exchange=%s, key=%s)", cfg.Exchange, mailqueue.RoutingKey)
		return mailqueue.NewSender(publisher), func() {
			if err := publisher.Close(); err != nil {
				log.Error("Failed to close rabbitmq publisher: %v", err)
			}
		}, nil

	default:
		log.Info("Email transport: log")
		return notificationsService.NewLogSender(log), func() {}, nil
	}
}
