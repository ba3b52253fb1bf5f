// utils/config.go
package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port           string   `env:"PORT" envDefault:"5200"`
	LogMode        string   `env:"LOG_MODE" envDefault:"development"`
	ServiceToken   string   `env:"PINGPAIR_SERVICE_TOKEN,required,notEmpty"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"` // postgres | sqlite
	DatabaseURL    string `env:"DATABASE_URL"`

	// Matching cycle
	SessionInterval     time.Duration `env:"SESSION_INTERVAL" envDefault:"84h"`
	SpotlightCount      int           `env:"SPOTLIGHT_COUNT" envDefault:"3"`
	StartingScore       uint64        `env:"STARTING_SCORE" envDefault:"5"`
	InterestBonus       int64         `env:"INTEREST_BONUS" envDefault:"1"`
	CompletionBonus     int64         `env:"COMPLETION_BONUS" envDefault:"3"`
	RandomSeed          int64         `env:"RANDOM_SEED" envDefault:"0"`
	CancelStalePairings bool          `env:"CANCEL_STALE_PAIRINGS" envDefault:"true"`
	MeetingBaseURL      string        `env:"MEETING_BASE_URL" envDefault:"https://meet.jit.si"`
	StreakWindow        time.Duration `env:"STREAK_WINDOW" envDefault:"168h"`

	// Persistence
	SnapshotBackend  string        `env:"SNAPSHOT_BACKEND" envDefault:"db"` // db | r2 | none
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"`
	SnapshotKey      string        `env:"SNAPSHOT_KEY" envDefault:"pingpair/state.json"`
	R2               R2Config

	// Redis (optional)
	RedisAddr               string        `env:"REDIS_ADDR"`
	RedisChannel            string        `env:"REDIS_CHANNEL" envDefault:"pingpair:sessions"`
	LeaderboardKey          string        `env:"LEADERBOARD_KEY" envDefault:"pingpair:leaderboard"`
	LeaderboardSyncInterval time.Duration `env:"LEADERBOARD_SYNC_INTERVAL" envDefault:"1m"`
}

// R2Config holds Cloudflare R2 (S3-compatible) credentials.
type R2Config struct {
	AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	Bucket          string `env:"R2_BUCKET_NAME"`
}

// LoadDotEnv loads .env files into the process environment.
// It reports false when no file was found; other errors are returned.
func LoadDotEnv(files ...string) (bool, error) {
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("load .env: %w", err)
	}
	return true, nil
}

// LoadConfig parses the environment into Config and checks cross-field rules.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable not set")
	}
	switch c.SnapshotBackend {
	case "db", "none":
	case "r2":
		if c.R2.AccountID == "" || c.R2.Bucket == "" {
			return errors.New("SNAPSHOT_BACKEND=r2 requires CLOUDFLARE_ACCOUNT_ID and R2_BUCKET_NAME")
		}
	default:
		return fmt.Errorf("SNAPSHOT_BACKEND must be db, r2 or none, got %q", c.SnapshotBackend)
	}
	if c.SpotlightCount < 1 {
		return fmt.Errorf("SPOTLIGHT_COUNT must be at least 1, got %d", c.SpotlightCount)
	}
	if c.SessionInterval <= 0 {
		return fmt.Errorf("SESSION_INTERVAL must be positive, got %s", c.SessionInterval)
	}
	return nil
}
