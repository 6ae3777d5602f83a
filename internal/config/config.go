package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Configはアプリ全体の設定
type Config struct {
	Port string `env:"PORT" envDefault:"8080"` // サーバーポート

	DatabaseURL string `env:"DATABASE_URL"` // あれば最優先

	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"app"`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	EventTopic  string `env:"EVENT_TOPIC" envDefault:"order_shipping"` // 出荷イベントのtopic
	EventLogDir string `env:"EVENT_LOG_DIR" envDefault:"data"`         // ブローカーがないときの追記ログ置き場

	JWTSecret string `env:"JWT_SECRET"` // 空なら書き込みAPIの認可なし

	GoEnv string `env:"GO_ENV" envDefault:"dev"` // dev/prod
}

// .envがあれば読み込んでから環境変数をパース
func Load(envFiles ...string) (Config, error) {
	//1ファイルずつ読む。ないファイルは飛ばして次へ
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.EventTopic == "" {
		return errors.New("EVENT_TOPIC is required")
	}
	if c.GoEnv == "prod" && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in prod")
	}
	return nil
}

// gorm/postgres用のDSN
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// ":8080"形式に揃える
func (c Config) Addr() string {
	if c.Port != "" && c.Port[0] == ':' {
		return c.Port
	}
	return ":" + c.Port
}
