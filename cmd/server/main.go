package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinova/praxis/internal/config"
	v1 "github.com/clinova/praxis/internal/handler/v1"
	"github.com/clinova/praxis/internal/notify"
	"github.com/clinova/praxis/internal/repository"
	"github.com/clinova/praxis/internal/sequence"
	"github.com/clinova/praxis/internal/service"
	"github.com/clinova/praxis/pkg/auth"
	"github.com/clinova/praxis/pkg/database"
	"github.com/clinova/praxis/pkg/logger"
	"github.com/clinova/praxis/pkg/metrics"
	"github.com/clinova/praxis/pkg/tracer"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Missing .env is fine; prod runs on real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("loading config: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("building logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("starting praxis",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}()

	collector := metrics.NewCollector("praxis")
	jwtManager := auth.NewJWTManager(cfg.JWT)

	instrumentDone := make(chan struct{})
	defer close(instrumentDone)
	if err := database.Instrument(db, collector, instrumentDone); err != nil {
		return err
	}

	patientRepo := repository.NewPatientRepository(db)
	consultationRepo := repository.NewConsultationRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	recordRepo := repository.NewMedicalRecordRepository(db)
	prescriptionRepo := repository.NewPrescriptionRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	seq := sequence.NewGenerator(repository.NewSequenceStore(db))

	auditSvc := service.NewAuditService(auditRepo, collector, log)
	defer auditSvc.Shutdown()

	authSvc := service.NewAuthService(userRepo, jwtManager, auditSvc, log)
	patientSvc := service.NewPatientService(patientRepo, consultationRepo, seq, auditSvc, collector, log)
	consultationSvc := service.NewConsultationService(consultationRepo, patientRepo, auditSvc, collector, log)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, patientRepo, seq, auditSvc, collector, log)
	recordSvc := service.NewMedicalRecordService(recordRepo, patientRepo, auditSvc, log)
	prescriptionSvc := service.NewPrescriptionService(prescriptionRepo, patientRepo, seq, auditSvc, collector, log)

	dispatcher := notify.NewDispatcher(
		appointmentRepo, patientRepo,
		notify.NewLogSender(log),
		cfg.Reminder, collector, log,
	)
	dispatcher.Start()
	defer dispatcher.Stop()

	sweepDone := make(chan struct{})
	go expirySweep(prescriptionSvc, cfg.Reminder.ExpirySweepInterval, log, sweepDone)
	defer close(sweepDone)

	router := v1.NewRouter(v1.RouterDeps{
		Config:          cfg,
		Log:             log,
		Collector:       collector,
		JWTManager:      jwtManager,
		AuthSvc:         authSvc,
		PatientSvc:      patientSvc,
		ConsultationSvc: consultationSvc,
		AppointmentSvc:  appointmentSvc,
		RecordSvc:       recordSvc,
		PrescriptionSvc: prescriptionSvc,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Info("shutdown complete")
	return nil
}

// expirySweep periodically flips active prescriptions past their
// validity window to expired.
func expirySweep(prescriptionSvc *service.PrescriptionService, interval time.Duration, log *zap.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := prescriptionSvc.ExpireDue(ctx); err != nil {
				log.Error("prescription expiry sweep failed", zap.Error(err))
			}
			cancel()
		case <-done:
			return
		}
	}
}
