package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/haircut-booking/internal/audit"
	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/haircut-booking/internal/domain/identity"
	"github.com/BruksfildServices01/haircut-booking/internal/handlers"
	"github.com/BruksfildServices01/haircut-booking/internal/httperr"
	"github.com/BruksfildServices01/haircut-booking/internal/middleware"
	"github.com/BruksfildServices01/haircut-booking/internal/usecase/ledger"
	ucUser "github.com/BruksfildServices01/haircut-booking/internal/usecase/user"
)

// Dependencies are built by the caller; optional ones may be nil.
type Dependencies struct {
	Appointments domain.Repository
	Identity     identity.Provider
	Audit        *audit.Dispatcher
	Clock        ledger.Clock
	Logger       logrus.FieldLogger

	Archiver    ledger.Archiver            // optional
	DB          *gorm.DB                   // optional, enables audit log listing
	Idempotency middleware.ResponseStore   // optional
	RateLimiter *middleware.RateLimiter    // optional
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) {

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) { httperr.MethodNotAllowed(c) })
	r.Use(middleware.CORSMiddleware())

	// ======================================================
	// USE CASES — LEDGER
	// ======================================================
	repo := deps.Appointments

	listAvailableUC := ledger.NewListAvailable(repo, deps.Clock)
	setAvailableUC := ledger.NewSetAvailable(repo, deps.Audit)
	reserveUC := ledger.NewReserve(repo, deps.Audit, deps.Clock)
	getAppointmentUC := ledger.NewGetAppointment(repo, deps.Audit, deps.Clock, deps.Archiver, deps.Logger)
	cancelUC := ledger.NewCancel(repo, deps.Audit)
	rescheduleUC := ledger.NewReschedule(repo, deps.Audit)
	listAppointmentsUC := ledger.NewListAppointments(repo, deps.Identity, deps.Logger)

	// ======================================================
	// USE CASES — USERS
	// ======================================================
	getProfileUC := ucUser.NewGetProfile(deps.Identity)
	updateProfileUC := ucUser.NewUpdateProfile(deps.Identity, deps.Audit)
	createProfileUC := ucUser.NewCreateProfile(deps.Identity, deps.Audit)
	listUsersUC := ucUser.NewListUsers(deps.Identity)
	adminUpdateUC := ucUser.NewAdminUpdateUser(deps.Identity, deps.Audit)

	// ======================================================
	// HANDLERS
	// ======================================================
	availableTimesHandler := handlers.NewAvailableTimesHandler(listAvailableUC, setAvailableUC)
	appointmentHandler := handlers.NewAppointmentHandler(
		reserveUC,
		getAppointmentUC,
		cancelUC,
		rescheduleUC,
		listAppointmentsUC,
	)
	userHandler := handlers.NewUserHandler(
		getProfileUC,
		updateProfileUC,
		createProfileUC,
		listUsersUC,
		adminUpdateUC,
	)
	meHandler := handlers.NewMeHandler(getProfileUC, getAppointmentUC)

	auth := middleware.AuthMiddleware(deps.Identity)

	limited := []gin.HandlerFunc{}
	if deps.RateLimiter != nil {
		limited = append(limited, middleware.RateLimit(deps.RateLimiter))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC
		// ------------------------------
		api.GET("/available-times", availableTimesHandler.List)
		api.GET("/available-times/:date", availableTimesHandler.List)

		// ------------------------------
		// AUTH (local identity only)
		// ------------------------------
		if pa, ok := deps.Identity.(identity.PasswordAuthenticator); ok {
			authHandler := handlers.NewAuthHandler(pa)
			authGroup := api.Group("/auth", limited...)
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// ------------------------------
		// SIGNED IN
		// ------------------------------
		secured := api.Group("", auth)
		{
			secured.GET("/me", meHandler.GetMe)

			secured.POST("/available-times", availableTimesHandler.SetLegacy)

			reserve := append(append([]gin.HandlerFunc{}, limited...),
				middleware.Idempotency(deps.Idempotency, deps.Logger),
				appointmentHandler.Post,
			)
			secured.POST("/appointments", reserve...)
			secured.GET("/appointments", appointmentHandler.Get)
			secured.DELETE("/appointments", appointmentHandler.Delete)
			secured.GET("/appointments/:userId", appointmentHandler.Get)
			secured.DELETE("/appointments/:userId", appointmentHandler.Delete)

			secured.GET("/users", userHandler.Get)
			secured.POST("/users", userHandler.Post)
			secured.GET("/profile/:uid", userHandler.GetProfile)
			secured.POST("/profile/:uid", userHandler.UpdateProfile)
		}

		// ------------------------------
		// ADMIN
		// ------------------------------
		admin := api.Group("", auth, middleware.RequireAdmin())
		{
			admin.POST("/admin/available-times", availableTimesHandler.Set)
			admin.POST("/appointments/:userId/change-date", appointmentHandler.ChangeDate)
			admin.POST("/users/:uid/update", userHandler.AdminUpdate)

			if deps.DB != nil {
				auditLogsHandler := handlers.NewAuditLogsHandler(deps.DB)
				admin.GET("/admin/audit-logs", auditLogsHandler.List)
			}
		}
	}
}
