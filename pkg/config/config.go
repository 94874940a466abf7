package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Sheets    SheetsConfig
	Analytics AnalyticsConfig
	Export    ExportConfig
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SheetsConfig wires the Google Sheets ingestion source. Tabs are declared
// as comma separated "TabName=source" pairs, e.g.
// "Form Responses=primary_form,Renewals=primary_renewal".
type SheetsConfig struct {
	Enabled         bool
	SpreadsheetID   string
	APIKey          string
	CredentialsFile string
	Tabs            []TabPair
	MaxRetries      int
	RetryDelay      time.Duration
	RefreshOnStart  bool
}

// TabPair binds a spreadsheet tab name to a logical source label.
type TabPair struct {
	Tab    string
	Source string
}

// AnalyticsConfig governs lifecycle computation and cache behaviour.
type AnalyticsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	GraceDays    int
	DefaultTopN  int
}

// ExportConfig toggles the report export endpoints.
type ExportConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sheets = SheetsConfig{
		Enabled:         v.GetBool("SHEETS_ENABLED"),
		SpreadsheetID:   v.GetString("SHEETS_SPREADSHEET_ID"),
		APIKey:          v.GetString("SHEETS_API_KEY"),
		CredentialsFile: v.GetString("SHEETS_CREDENTIALS_FILE"),
		Tabs:            parseTabPairs(v.GetString("SHEETS_TABS")),
		MaxRetries:      v.GetInt("SHEETS_MAX_RETRIES"),
		RetryDelay:      parseDuration(v.GetString("SHEETS_RETRY_DELAY"), time.Second),
		RefreshOnStart:  v.GetBool("SHEETS_REFRESH_ON_START"),
	}

	cfg.Analytics = AnalyticsConfig{
		CacheEnabled: v.GetBool("ANALYTICS_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("ANALYTICS_CACHE_TTL"), 10*time.Minute),
		GraceDays:    v.GetInt("ANALYTICS_GRACE_DAYS"),
		DefaultTopN:  v.GetInt("ANALYTICS_DEFAULT_TOP_N"),
	}

	cfg.Export = ExportConfig{
		Enabled: v.GetBool("ENABLE_EXPORT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SHEETS_ENABLED", false)
	v.SetDefault("SHEETS_SPREADSHEET_ID", "")
	v.SetDefault("SHEETS_API_KEY", "")
	v.SetDefault("SHEETS_CREDENTIALS_FILE", "")
	v.SetDefault("SHEETS_TABS", "")
	v.SetDefault("SHEETS_MAX_RETRIES", 3)
	v.SetDefault("SHEETS_RETRY_DELAY", "1s")
	v.SetDefault("SHEETS_REFRESH_ON_START", true)

	v.SetDefault("ANALYTICS_CACHE_ENABLED", false)
	v.SetDefault("ANALYTICS_CACHE_TTL", "10m")
	v.SetDefault("ANALYTICS_GRACE_DAYS", 45)
	v.SetDefault("ANALYTICS_DEFAULT_TOP_N", 10)

	v.SetDefault("ENABLE_EXPORT", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func parseTabPairs(raw string) []TabPair {
	entries := splitAndTrim(raw)
	if len(entries) == 0 {
		return nil
	}

	pairs := make([]TabPair, 0, len(entries))
	for _, entry := range entries {
		tab, source, found := strings.Cut(entry, "=")
		if !found {
			continue
		}
		tab = strings.TrimSpace(tab)
		source = strings.TrimSpace(source)
		if tab == "" || source == "" {
			continue
		}
		pairs = append(pairs, TabPair{Tab: tab, Source: source})
	}

	return pairs
}
