package config

import "time"

type AppConfig struct {
	DBPath     string          `yaml:"db_path" env:"STOCWATCH_DB_PATH" env-default:"data/stocwatch.db"`
	ListenAddr string          `yaml:"listen_addr" env:"STOCWATCH_LISTEN_ADDR" env-default:"0.0.0.0:5001"`
	AppEnv     string          `yaml:"app_env" env:"STOCWATCH_APP_ENV"`
	Retention  RetentionConfig `yaml:"retention"`
	Notify     NotifyConfig    `yaml:"notify"`
}

// RetentionConfig controls the tombstone sweeper. Deleted-record snapshots
// are kept for Window and purged on the sweep Interval.
type RetentionConfig struct {
	Enabled  bool          `yaml:"enabled" env:"STOCWATCH_RETENTION_ENABLED" env-default:"true"`
	Window   time.Duration `yaml:"window" env:"STOCWATCH_RETENTION_WINDOW" env-default:"72h"`
	Interval time.Duration `yaml:"interval" env:"STOCWATCH_RETENTION_INTERVAL" env-default:"24h"`
}

type NotifyConfig struct {
	Enabled bool `yaml:"enabled" env:"STOCWATCH_NOTIFY_ENABLED" env-default:"true"`
}

const minRetentionWindow = time.Hour

func (c *AppConfig) EffectiveRetentionWindow() time.Duration {
	if c == nil || c.Retention.Window < minRetentionWindow {
		return 72 * time.Hour
	}
	return c.Retention.Window
}

func (c *AppConfig) EffectiveSweepInterval() time.Duration {
	if c == nil || c.Retention.Interval <= 0 {
		return 24 * time.Hour
	}
	return c.Retention.Interval
}
