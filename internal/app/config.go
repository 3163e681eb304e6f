package app

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/lagiovanas/estoque/internal/estoque"
)

// Config holds runtime configuration for the counting station.
type Config struct {
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// StorageDriver selects the key-value backend: "sqlite" (local
	// single-file database, the default) or "redis".
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"sqlite"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"./data/estoque.db"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	MaxValueBytes int    `envconfig:"STORAGE_MAX_VALUE_BYTES" default:"4194304"`

	CriticalThreshold float64 `envconfig:"ESTOQUE_CRITICO" default:"1"`
	LowThreshold      float64 `envconfig:"ESTOQUE_BAIXO" default:"20"`
	MaxQuantity       float64 `envconfig:"QUANTIDADE_MAXIMA" default:"10000"`
	MaxItems          int     `envconfig:"MAX_INSUMOS" default:"300"`
	MaxCountHistory   int     `envconfig:"MAX_HISTORICO_CONTAGENS" default:"100"`
	MaxEntryHistory   int     `envconfig:"MAX_HISTORICO_ENTRADAS" default:"500"`
	SchemaVersion     string  `envconfig:"VERSAO_SISTEMA" default:"2.0"`

	// SnapshotPolicy: "skip" leaves the current count untouched when an
	// entry arrives for an item it does not track; "create" fabricates a
	// minimal snapshot on behalf of the system.
	SnapshotPolicy string `envconfig:"POLITICA_CONTAGEM_AUSENTE" default:"skip"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.StorageDriver != "sqlite" && cfg.StorageDriver != "redis" {
		return nil, fmt.Errorf("app: unknown storage driver %q", cfg.StorageDriver)
	}
	switch estoque.SnapshotPolicy(cfg.SnapshotPolicy) {
	case estoque.SnapshotSkip, estoque.SnapshotCreate:
	default:
		return nil, fmt.Errorf("app: unknown snapshot policy %q", cfg.SnapshotPolicy)
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Domain maps the runtime settings onto the immutable engine
// configuration.
func (c *Config) Domain() estoque.Config {
	cfg := estoque.DefaultConfig()
	cfg.CriticalThreshold = c.CriticalThreshold
	cfg.LowThreshold = c.LowThreshold
	cfg.MaxQuantity = c.MaxQuantity
	cfg.MaxItems = c.MaxItems
	cfg.MaxCountHistory = c.MaxCountHistory
	cfg.MaxEntryHistory = c.MaxEntryHistory
	cfg.SchemaVersion = c.SchemaVersion
	cfg.SnapshotPolicy = estoque.SnapshotPolicy(c.SnapshotPolicy)
	return cfg
}
