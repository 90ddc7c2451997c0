package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT" env-default:"5432"`
		Host    string `env:"POSTGRES_HOST" env-default:"localhost"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
	Archive struct {
		Endpoint      string `env:"ARCHIVE_ENDPOINT"`
		AccessKey     string `env:"ARCHIVE_ACCESS_KEY"`
		SecretKey     string `env:"ARCHIVE_SECRET_KEY"`
		Bucket        string `env:"ARCHIVE_BUCKET" env-default:"media"`
		Region        string `env:"ARCHIVE_REGION"`
		UseSSL        bool   `env:"ARCHIVE_USE_SSL" env-default:"true"`
		PublicURL     string `env:"ARCHIVE_PUBLIC_URL"`
		LocalDir      string `env:"ARCHIVE_LOCAL_DIR" env-default:"./archive"`
		MaxBytes      int64  `env:"ARCHIVE_MAX_BYTES" env-default:"524288000"`
		Retries       uint64 `env:"ARCHIVE_RETRIES" env-default:"5"`
		RetryTooLarge bool   `env:"ARCHIVE_RETRY_TOO_LARGE" env-default:"false"`
	}
	HTTP struct {
		UserAgent         string        `env:"HTTP_USER_AGENT" env-default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"`
		Timeout           time.Duration `env:"HTTP_TIMEOUT" env-default:"60s"`
		RequestsPerSecond float64       `env:"HTTP_REQUESTS_PER_SECOND" env-default:"2"`
		Burst             int           `env:"HTTP_BURST" env-default:"4"`
	}
	Sync struct {
		SweepBatch        uint64 `env:"SYNC_SWEEP_BATCH" env-default:"100"`
		SweepWorkers      int    `env:"SYNC_SWEEP_WORKERS" env-default:"1"`
		SweepMaxRounds    int    `env:"SYNC_SWEEP_MAX_ROUNDS" env-default:"1000"`
		BackfillMaxRounds int    `env:"SYNC_BACKFILL_MAX_ROUNDS" env-default:"50"`
		Cron              string `env:"SYNC_CRON" env-default:"0 */6 * * *"`
		SweepCron         string `env:"SWEEP_CRON" env-default:"30 * * * *"`
	}
	Transform struct {
		Batch     uint64 `env:"TRANSFORM_BATCH" env-default:"1000"`
		FlushSize int    `env:"TRANSFORM_FLUSH_SIZE" env-default:"100"`
		CacheSize int    `env:"TRANSFORM_CACHE_SIZE" env-default:"10000"`
		Cron      string `env:"TRANSFORM_CRON" env-default:"15 */2 * * *"`
	}
	Telegram struct {
		Token      string `env:"TELEGRAM_TOKEN"`
		ReportChat int64  `env:"TELEGRAM_REPORT_CHAT"`
		WebURL     string `env:"TELEGRAM_WEB_URL" env-default:"https://t.me"`
		MaxPages   int    `env:"TELEGRAM_MAX_PAGES" env-default:"20"`
	}
}

// GetDSN renders the libpq connection URL shared by goose and pgx.
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Pass,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.Name,
		c.Postgres.SslMode,
	)
}

var (
	once sync.Once
	cfg  *Config
	path string
)

// SetPath makes New read the given file before the environment. Must be called before New.
func SetPath(p string) {
	path = p
}

func New() (*Config, error) {
	var err error
	once.Do(func() {
		cfg = &Config{}
		if path != "" {
			err = cleanenv.ReadConfig(path, cfg)
		} else {
			err = cleanenv.ReadEnv(cfg)
		}
		if err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Printf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return cfg, nil
}
