package v1

import (
	"net/http"

	"github.com/clinova/praxis/internal/config"
	"github.com/clinova/praxis/internal/service"
	"github.com/clinova/praxis/pkg/auth"
	"github.com/clinova/praxis/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Config          *config.Config
	Log             *zap.Logger
	Collector       *metrics.Collector
	JWTManager      *auth.JWTManager
	AuthSvc         *service.AuthService
	PatientSvc      *service.PatientService
	ConsultationSvc *service.ConsultationService
	AppointmentSvc  *service.AppointmentService
	RecordSvc       *service.MedicalRecordService
	PrescriptionSvc *service.PrescriptionService
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(deps.Log), Observe(deps.Collector))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": deps.Config.App.Version})
	})
	r.GET("/metrics", gin.WrapH(deps.Collector.Handler()))

	authHandler := NewAuthHandler(deps.AuthSvc)
	patientHandler := NewPatientHandler(deps.PatientSvc)
	consultationHandler := NewConsultationHandler(deps.ConsultationSvc)
	appointmentHandler := NewAppointmentHandler(deps.AppointmentSvc)
	recordHandler := NewMedicalRecordHandler(deps.RecordSvc)
	prescriptionHandler := NewPrescriptionHandler(deps.PrescriptionSvc)

	api := r.Group("/api/v1")

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	protected := api.Group("", Authenticate(deps.JWTManager))
	{
		users := protected.Group("/users")
		{
			users.POST("", authHandler.CreateUser)
			users.PUT("/:id/permissions", authHandler.UpdatePermissions)
		}

		patients := protected.Group("/patients")
		{
			patients.POST("", patientHandler.Create)
			patients.GET("", patientHandler.List)
			patients.GET("/by-number/:mrn", patientHandler.GetByRecordNumber)
			patients.GET("/:id", patientHandler.Get)
			patients.PUT("/:id", patientHandler.Update)
			patients.DELETE("/:id", patientHandler.Delete)

			patients.PUT("/:id/teeth/:tooth", patientHandler.SetToothStatus)
			patients.POST("/:id/photos", patientHandler.AddPhoto)
			patients.PUT("/:id/profile-photo", patientHandler.SetProfilePhoto)

			patients.POST("/:id/practitioners", patientHandler.Share)
			patients.GET("/:id/practitioners", patientHandler.Practitioners)
			patients.DELETE("/:id/practitioners/:practitionerId", patientHandler.Unshare)

			patients.POST("/:id/consultations", consultationHandler.Append)
			patients.GET("/:id/consultations", consultationHandler.ListTimeline)
			patients.GET("/:id/consultations/:consultationId", consultationHandler.Get)
			patients.PUT("/:id/consultations/:consultationId", consultationHandler.Update)
			patients.DELETE("/:id/consultations/:consultationId", consultationHandler.Delete)

			patients.GET("/:id/prescriptions/active", prescriptionHandler.ListActiveByPatient)
		}

		appointments := protected.Group("/appointments")
		{
			appointments.POST("", appointmentHandler.Schedule)
			appointments.GET("", appointmentHandler.List)
			appointments.GET("/:id", appointmentHandler.Get)
			appointments.PUT("/:id", appointmentHandler.Update)
			appointments.DELETE("/:id", appointmentHandler.Delete)

			appointments.POST("/:id/confirm", appointmentHandler.Confirm)
			appointments.POST("/:id/cancel", appointmentHandler.Cancel)
			appointments.POST("/:id/start", appointmentHandler.Start)
			appointments.POST("/:id/complete", appointmentHandler.Complete)
			appointments.POST("/:id/no-show", appointmentHandler.NoShow)

			appointments.GET("/:id/medical-record", recordHandler.GetByAppointment)
		}

		records := protected.Group("/medical-records")
		{
			records.POST("", recordHandler.Create)
			records.GET("", recordHandler.List)
			records.GET("/:id", recordHandler.Get)
			records.PUT("/:id", recordHandler.Update)
			records.DELETE("/:id", recordHandler.Delete)
			records.POST("/:id/attachments", recordHandler.AddAttachment)
		}

		prescriptions := protected.Group("/prescriptions")
		{
			prescriptions.POST("", prescriptionHandler.Create)
			prescriptions.GET("", prescriptionHandler.List)
			prescriptions.GET("/:id", prescriptionHandler.Get)
			prescriptions.PUT("/:id/status", prescriptionHandler.UpdateStatus)
			prescriptions.DELETE("/:id", prescriptionHandler.Delete)
		}
	}

	return r
}
