package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pingpair/handlers"
	"pingpair/middleware"
	"pingpair/models"
	"pingpair/services"
	"pingpair/utils"
	"pingpair/workers"
)

func main() {
	found, envErr := utils.LoadDotEnv()

	cfg, err := utils.LoadConfig()
	if err != nil {
		// logger mode comes from config, so fall back to development output
		if l, lerr := utils.NewLogger("development"); lerr == nil {
			l.Fatal("invalid configuration", "error", err)
		}
		os.Exit(1)
	}

	log, err := utils.NewLogger(cfg.LogMode)
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	switch {
	case envErr != nil:
		log.Warn("⚠️  could not read .env file", "error", envErr)
	case !found:
		log.Warn("⚠️  No .env file found, reading environment variables directly")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", "driver", cfg.DatabaseDriver, "error", err)
	}
	if err := db.AutoMigrate(
		&models.StateSnapshot{},
		&models.ScoreEventRecord{},
	); err != nil {
		log.Fatal("failed to migrate database", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	audit := services.NewGormScoreAudit(db)
	mm := services.NewMatchmaker(services.Options{
		Config: services.Config{
			SpotlightCount:      cfg.SpotlightCount,
			StartingScore:       cfg.StartingScore,
			InterestBonus:       cfg.InterestBonus,
			CompletionBonus:     cfg.CompletionBonus,
			CancelStalePairings: cfg.CancelStalePairings,
			MeetingBaseURL:      cfg.MeetingBaseURL,
			StreakWindow:        cfg.StreakWindow,
		},
		Random: rand.New(rand.NewSource(seed)),
		Audit:  audit,
		Logger: log.With("component", "matchmaker"),
	})

	store, err := snapshotStore(ctx, cfg, db)
	if err != nil {
		log.Fatal("failed to initialize snapshot store", "backend", cfg.SnapshotBackend, "error", err)
	}
	if store != nil {
		restored, err := workers.RestoreLatest(ctx, store, mm)
		if err != nil {
			log.Fatal("failed to restore state", "error", err)
		}
		if restored {
			log.Info("♻️  state restored from snapshot", "backend", cfg.SnapshotBackend, "version", mm.Version())
		}
	}

	var wg sync.WaitGroup

	if cfg.RedisAddr != "" {
		rdb, err := utils.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
		defer rdb.Close()

		announcer := workers.NewRedisAnnouncer(rdb, cfg.RedisChannel, log)
		mm.OnSession(announcer.HandleSession)

		board := workers.NewLeaderboardSync(mm, rdb, cfg.LeaderboardKey, cfg.LeaderboardSyncInterval, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			board.Run(ctx)
		}()
	}

	if store != nil {
		snapshots := workers.NewSnapshotWorker(mm, store, cfg.SnapshotInterval, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshots.Run(ctx)
		}()
	}

	cycle, err := workers.NewSessionCycle(mm, cfg.SessionInterval, log)
	if err != nil {
		log.Fatal("failed to create session cycle", "error", err)
	}
	if err := cycle.Start(); err != nil {
		log.Fatal("failed to start session cycle", "error", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	// 🔐❗ GLOBAL: only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken, log))

	allowedOrigins := strings.Join(cfg.AllowedOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID, X-User-Name, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.SetupRoutes(app, handlers.NewHandler(mm, audit, log))

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	log.Info("✅ Server running", "port", cfg.Port)
	log.Info("✅ GatewayAuthMiddleware enforced globally")
	log.Info("✅ CORS configured", "origins", allowedOrigins)

	<-ctx.Done()
	log.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	if err := cycle.Shutdown(); err != nil {
		log.Error("session cycle shutdown failed", "error", err)
	}
	wg.Wait()
	log.Info("⏹️  shutdown complete")
}

func openDatabase(cfg *utils.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
	if cfg.DatabaseDriver == "sqlite" {
		return gorm.Open(sqlite.Open(cfg.DatabaseURL), gcfg)
	}
	return gorm.Open(postgres.Open(cfg.DatabaseURL), gcfg)
}

// snapshotStore returns nil when persistence is disabled.
func snapshotStore(ctx context.Context, cfg *utils.Config, db *gorm.DB) (services.SnapshotStore, error) {
	switch cfg.SnapshotBackend {
	case "db":
		return services.NewGormSnapshotStore(db, cfg.SnapshotKey), nil
	case "r2":
		r2, err := utils.NewR2Client(ctx, cfg.R2)
		if err != nil {
			return nil, err
		}
		return services.NewObjectSnapshotStore(r2, cfg.SnapshotKey), nil
	default:
		return nil, nil
	}
}
