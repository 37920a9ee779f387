package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/haircut-booking/internal/audit"
	"github.com/BruksfildServices01/haircut-booking/internal/config"
	dbpkg "github.com/BruksfildServices01/haircut-booking/internal/db"
	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/haircut-booking/internal/domain/identity"
	fbpkg "github.com/BruksfildServices01/haircut-booking/internal/firebase"
	"github.com/BruksfildServices01/haircut-booking/internal/infra/archive"
	"github.com/BruksfildServices01/haircut-booking/internal/infra/cache"
	infraIdentity "github.com/BruksfildServices01/haircut-booking/internal/infra/identity"
	infraRepo "github.com/BruksfildServices01/haircut-booking/internal/infra/repository"
	"github.com/BruksfildServices01/haircut-booking/internal/logging"
	"github.com/BruksfildServices01/haircut-booking/internal/middleware"
	"github.com/BruksfildServices01/haircut-booking/internal/routes"
	"github.com/BruksfildServices01/haircut-booking/internal/scheduler"
	"github.com/BruksfildServices01/haircut-booking/internal/timezone"
	"github.com/BruksfildServices01/haircut-booking/internal/usecase/ledger"
	"github.com/BruksfildServices01/haircut-booking/internal/validators"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	if err := validators.RegisterBindings(); err != nil {
		return err
	}

	// ======================================================
	// CLIENTS
	// ======================================================
	var (
		db        *gorm.DB
		fsClient  *firestore.Client
		redisConn *redis.Client
	)

	// local identity keeps its users next to the ledger unless everything
	// is in memory
	needsDB := cfg.StoreBackend == config.StorePostgres ||
		(cfg.IdentityBackend == config.IdentityLocal && cfg.StoreBackend == config.StoreFirestore)

	if needsDB {
		var err error
		db, err = dbpkg.NewDB(cfg.DBUrl)
		if err != nil {
			return err
		}
		defer func() { _ = dbpkg.Close(db) }()
	}

	var provider identity.Provider
	if cfg.UsesFirebase() {
		app, err := fbpkg.NewApp(ctx, cfg)
		if err != nil {
			return err
		}

		if cfg.StoreBackend == config.StoreFirestore {
			fsClient, err = fbpkg.NewFirestore(ctx, app)
			if err != nil {
				return err
			}
			defer fsClient.Close()
		}

		if cfg.IdentityBackend == config.IdentityFirebase {
			authClient, err := fbpkg.NewAuth(ctx, app)
			if err != nil {
				return err
			}
			provider = infraIdentity.NewFirebaseProvider(authClient)
		}
	}

	if provider == nil {
		var store infraIdentity.UserStore = infraIdentity.NewMemoryUserStore()
		if db != nil {
			store = infraIdentity.NewGormUserStore(db)
		}
		provider = infraIdentity.NewLocalProvider(store, infraIdentity.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL))
	}

	// ======================================================
	// LEDGER STORE
	// ======================================================
	var repo domain.Repository
	switch cfg.StoreBackend {
	case config.StorePostgres:
		repo = infraRepo.NewAppointmentGormRepository(db)
	case config.StoreFirestore:
		repo = infraRepo.NewAppointmentFirestoreRepository(fsClient)
	default:
		logger.Warn("using in-memory store; data is lost on restart")
		repo = infraRepo.NewAppointmentMemoryRepository()
	}

	// ======================================================
	// AUDIT
	// ======================================================
	var sink audit.Sink = audit.NewLogSink(logger)
	if db != nil {
		sink = audit.New(db)
	}
	auditDispatcher := audit.NewDispatcher(sink, logger)
	defer auditDispatcher.Close()

	// ======================================================
	// OPTIONAL SERVICES
	// ======================================================
	loc := timezone.Location(cfg.ShopTimezone)
	clock := ledger.NewClock(loc)

	deps := routes.Dependencies{
		Appointments: repo,
		Identity:     provider,
		Audit:        auditDispatcher,
		Clock:        clock,
		Logger:       logger,
		DB:           db,
		RateLimiter:  middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst),
	}

	if cfg.RedisURL != "" {
		var err error
		redisConn, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisConn.Close()
		deps.Idempotency = cache.NewIdempotencyStore(redisConn, cfg.IdempotencyTTL)
	}

	if cfg.ArchiveBucket != "" {
		s3Client, err := archive.NewS3Client(ctx, cfg)
		if err != nil {
			return err
		}
		archiveQueue := archive.NewQueue(archive.NewS3Archiver(s3Client, cfg.ArchiveBucket), logger)
		defer archiveQueue.Close()
		deps.Archiver = archiveQueue
	}

	if cfg.ExpirySweepCron != "" {
		sweep := ledger.NewExpireAppointments(repo, auditDispatcher, clock, deps.Archiver, logger)
		sched, err := scheduler.New(cfg.ExpirySweepCron, loc, sweep, logger)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	// ======================================================
	// HTTP
	// ======================================================
	if !logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger(logger))
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":     cfg.Addr(),
			"store":    cfg.StoreBackend,
			"identity": cfg.IdentityBackend,
			"timezone": loc.String(),
		}).Info("server running")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
