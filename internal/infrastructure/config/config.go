package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Store     StoreConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Trendyol  TrendyolConfig
	Ikas      IkasConfig
	Supabase  SupabaseConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Sync      SyncConfig
	Scheduler SchedulerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// StoreConfig locates the order store document
type StoreConfig struct {
	Path string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
}

// TrendyolConfig holds Trendyol seller API credentials
type TrendyolConfig struct {
	SupplierID string
	APIKey     string
	APISecret  string
	APIURL     string
	PageSize   int
}

// IkasConfig holds Ikas admin API credentials
type IkasConfig struct {
	ClientID     string
	ClientSecret string
	APIBaseURL   string
	PageLimit    int
}

// SupabaseConfig holds the Supabase project settings the photo bucket lives in
type SupabaseConfig struct {
	URL    string
	Key    string
	Bucket string
	// S3 access keys; when empty the project key is used as a session token
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	SessionToken  string
	UsePathStyle  bool
	PublicBaseURL string
}

// IsConfigured reports whether the bucket can be listed
func (s StorageConfig) IsConfigured() bool {
	return s.Endpoint != "" && s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
	// Required disables the in-memory fallback for webhook idempotency
	Required bool
}

// SyncConfig holds order sync settings
type SyncConfig struct {
	TrendyolInterval     time.Duration
	TrendyolInitialDelay time.Duration
	IkasInterval         time.Duration
	IkasInitialDelay     time.Duration
	WebhookTimeout       time.Duration
	DeliveryTTL          time.Duration
	PhotoBatchInterval   time.Duration
}

// SchedulerConfig holds background job settings
type SchedulerConfig struct {
	Enabled    bool
	JobTimeout time.Duration
	// RetentionDays enables the periodic purge when positive
	RetentionDays     int
	RetentionInterval time.Duration
}

// legacyEnv maps config keys to the environment names used by existing
// deployments. The ORDERTRACK_ prefixed name still takes precedence.
var legacyEnv = map[string]string{
	"app.port":                 "PORT",
	"app.env":                  "NODE_ENV",
	"store.path":               "DATABASE_PATH",
	"trendyol.supplier_id":     "TRENDYOL_SUPPLIER_ID",
	"trendyol.api_key":         "TRENDYOL_API_KEY",
	"trendyol.api_secret":      "TRENDYOL_API_SECRET",
	"trendyol.api_url":         "TRENDYOL_API_URL",
	"ikas.client_id":           "IKAS_CLIENT_ID",
	"ikas.client_secret":       "IKAS_CLIENT_SECRET",
	"ikas.api_base_url":        "IKAS_API_BASE_URL",
	"supabase.url":             "SUPABASE_URL",
	"supabase.key":             "SUPABASE_KEY",
	"supabase.bucket":          "SUPABASE_STORAGE_BUCKET",
	"supabase.s3_access_key":   "SUPABASE_S3_ACCESS_KEY_ID",
	"supabase.s3_secret_key":   "SUPABASE_S3_SECRET_ACCESS_KEY",
	"supabase.s3_region":       "SUPABASE_S3_REGION",
	"redis.url":                "REDIS_URL",
	"scheduler.retention_days": "RETENTION_DAYS",
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with ORDERTRACK_ prefix (e.g., ORDERTRACK_APP_PORT)
// 2. Legacy environment variables (e.g., PORT, TRENDYOL_API_KEY)
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("ORDERTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := "ORDERTRACK_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	v.SetDefault("scheduler.enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Store: StoreConfig{
			Path: v.GetString("store.path"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
		},
		Trendyol: TrendyolConfig{
			SupplierID: v.GetString("trendyol.supplier_id"),
			APIKey:     v.GetString("trendyol.api_key"),
			APISecret:  v.GetString("trendyol.api_secret"),
			APIURL:     v.GetString("trendyol.api_url"),
			PageSize:   v.GetInt("trendyol.page_size"),
		},
		Ikas: IkasConfig{
			ClientID:     v.GetString("ikas.client_id"),
			ClientSecret: v.GetString("ikas.client_secret"),
			APIBaseURL:   v.GetString("ikas.api_base_url"),
			PageLimit:    v.GetInt("ikas.page_limit"),
		},
		Supabase: SupabaseConfig{
			URL:               v.GetString("supabase.url"),
			Key:               v.GetString("supabase.key"),
			Bucket:            v.GetString("supabase.bucket"),
			S3AccessKeyID:     v.GetString("supabase.s3_access_key"),
			S3SecretAccessKey: v.GetString("supabase.s3_secret_key"),
			S3Region:          v.GetString("supabase.s3_region"),
		},
		Storage: StorageConfig{
			Endpoint:      v.GetString("storage.endpoint"),
			Region:        v.GetString("storage.region"),
			Bucket:        v.GetString("storage.bucket"),
			AccessKey:     v.GetString("storage.access_key"),
			SecretKey:     v.GetString("storage.secret_key"),
			SessionToken:  v.GetString("storage.session_token"),
			UsePathStyle:  v.GetBool("storage.use_path_style"),
			PublicBaseURL: v.GetString("storage.public_base_url"),
		},
		Redis: RedisConfig{
			URL:      v.GetString("redis.url"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Required: v.GetBool("redis.required"),
		},
		Sync: SyncConfig{
			TrendyolInterval:     v.GetDuration("sync.trendyol_interval"),
			TrendyolInitialDelay: v.GetDuration("sync.trendyol_initial_delay"),
			IkasInterval:         v.GetDuration("sync.ikas_interval"),
			IkasInitialDelay:     v.GetDuration("sync.ikas_initial_delay"),
			WebhookTimeout:       v.GetDuration("sync.webhook_timeout"),
			DeliveryTTL:          v.GetDuration("sync.delivery_ttl"),
			PhotoBatchInterval:   v.GetDuration("sync.photo_batch_interval"),
		},
		Scheduler: SchedulerConfig{
			Enabled:           v.GetBool("scheduler.enabled"),
			JobTimeout:        v.GetDuration("scheduler.job_timeout"),
			RetentionDays:     v.GetInt("scheduler.retention_days"),
			RetentionInterval: v.GetDuration("scheduler.retention_interval"),
		},
	}

	// Initial delays may legitimately be zero, so only unset keys get defaults
	if !v.IsSet("sync.trendyol_initial_delay") {
		cfg.Sync.TrendyolInitialDelay = 2 * time.Second
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "ordertrack-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "3001"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./database.json"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"*"}
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Trendyol.APIURL == "" {
		cfg.Trendyol.APIURL = "https://api.trendyol.com/sapigw/suppliers"
	}
	if cfg.Trendyol.PageSize == 0 {
		cfg.Trendyol.PageSize = 200
	}
	if cfg.Ikas.APIBaseURL == "" {
		cfg.Ikas.APIBaseURL = "https://api.myikas.com"
	}
	if cfg.Ikas.PageLimit == 0 {
		cfg.Ikas.PageLimit = 100
	}
	if cfg.Supabase.Bucket == "" {
		cfg.Supabase.Bucket = "siparis-takip-foto"
	}
	if cfg.Sync.TrendyolInterval == 0 {
		cfg.Sync.TrendyolInterval = 6 * time.Hour
	}
	if cfg.Sync.IkasInterval == 0 {
		cfg.Sync.IkasInterval = 30 * time.Minute
	}
	if cfg.Sync.WebhookTimeout == 0 {
		cfg.Sync.WebhookTimeout = 2 * time.Minute
	}
	if cfg.Sync.DeliveryTTL == 0 {
		cfg.Sync.DeliveryTTL = 24 * time.Hour
	}
	if cfg.Sync.PhotoBatchInterval == 0 {
		cfg.Sync.PhotoBatchInterval = 400 * time.Millisecond
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 15 * time.Minute
	}
	if cfg.Scheduler.RetentionInterval == 0 {
		cfg.Scheduler.RetentionInterval = 24 * time.Hour
	}

	deriveStorage(cfg)
}

// deriveStorage fills the object storage settings from the Supabase project
// unless an explicit storage endpoint is configured.
func deriveStorage(cfg *Config) {
	s := &cfg.Storage
	sb := cfg.Supabase
	if s.Endpoint != "" || sb.URL == "" {
		return
	}

	base := strings.TrimRight(sb.URL, "/")
	s.Endpoint = base + "/storage/v1/s3"
	s.UsePathStyle = true
	if s.Bucket == "" {
		s.Bucket = sb.Bucket
	}
	if s.Region == "" {
		s.Region = sb.S3Region
	}
	if s.PublicBaseURL == "" {
		s.PublicBaseURL = base + "/storage/v1/object/public/" + s.Bucket
	}

	switch {
	case sb.S3AccessKeyID != "" && sb.S3SecretAccessKey != "":
		s.AccessKey = sb.S3AccessKeyID
		s.SecretKey = sb.S3SecretAccessKey
	case sb.Key != "":
		// Session token mode: access key is the project ref, the project key
		// serves as both secret and session token.
		s.AccessKey = projectRef(base)
		s.SecretKey = sb.Key
		s.SessionToken = sb.Key
	}
}

// projectRef returns the first host label of a Supabase project URL
func projectRef(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	ref, _, _ := strings.Cut(u.Hostname(), ".")
	return ref
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Sync.TrendyolInterval < 0 || c.Sync.IkasInterval < 0 {
		return fmt.Errorf("sync intervals must be positive")
	}
	if c.Sync.TrendyolInitialDelay < 0 || c.Sync.IkasInitialDelay < 0 {
		return fmt.Errorf("sync initial delays cannot be negative")
	}
	if c.Scheduler.RetentionDays < 0 {
		return fmt.Errorf("scheduler.retention_days cannot be negative")
	}
	if c.HTTP.MaxBodySize < 0 {
		return fmt.Errorf("http.max_body_size cannot be negative")
	}
	if c.Redis.Required && c.Redis.URL == "" && c.Redis.Host == "" {
		return fmt.Errorf("redis.required is set but no redis address is configured")
	}
	if c.Supabase.URL != "" {
		if _, err := url.ParseRequestURI(c.Supabase.URL); err != nil {
			return fmt.Errorf("supabase.url is invalid: %w", err)
		}
	}
	return nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
