package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Cron   CronConfig   `mapstructure:"cron"`
	WB     WBConfig     `mapstructure:"wb"`
	Report ReportConfig `mapstructure:"report"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	ArtifactCleanup string `mapstructure:"artifact_cleanup"`
}

// WBConfig holds the base URLs of the four Wildberries seller API hosts.
// Each report source lives on its own host with its own rate limits.
type WBConfig struct {
	StatisticsBaseURL string        `mapstructure:"statistics_base_url"`
	ContentBaseURL    string        `mapstructure:"content_base_url"`
	AnalyticsBaseURL  string        `mapstructure:"analytics_base_url"`
	AdvertBaseURL     string        `mapstructure:"advert_base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type ReportConfig struct {
	OutputDir          string        `mapstructure:"output_dir"`
	SalesPageLimit     int           `mapstructure:"sales_page_limit"`
	SalesPageDelay     time.Duration `mapstructure:"sales_page_delay"`
	CardsPageLimit     int           `mapstructure:"cards_page_limit"`
	TaskPollInterval   time.Duration `mapstructure:"task_poll_interval"`
	TaskMaxPolls       int           `mapstructure:"task_max_polls"`
	AdvertLookbackDays int           `mapstructure:"advert_lookback_days"`
	ProgressInterval   time.Duration `mapstructure:"progress_interval"`
	ProgressMaxTicks   int           `mapstructure:"progress_max_ticks"`
	Retention          time.Duration `mapstructure:"retention"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WBR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.artifact_cleanup", "@every 1h")
	v.SetDefault("wb.statistics_base_url", "https://statistics-api.wildberries.ru")
	v.SetDefault("wb.content_base_url", "https://content-api.wildberries.ru")
	v.SetDefault("wb.analytics_base_url", "https://seller-analytics-api.wildberries.ru")
	v.SetDefault("wb.advert_base_url", "https://advert-api.wildberries.ru")
	v.SetDefault("wb.timeout", "30s")
	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.sales_page_limit", 100000)
	v.SetDefault("report.sales_page_delay", "1s")
	v.SetDefault("report.cards_page_limit", 100)
	v.SetDefault("report.task_poll_interval", "5s")
	v.SetDefault("report.task_max_polls", 12)
	v.SetDefault("report.advert_lookback_days", 30)
	v.SetDefault("report.progress_interval", "1s")
	v.SetDefault("report.progress_max_ticks", 480)
	v.SetDefault("report.retention", "72h")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
