package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"finlit-quiz"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`
	BankFile                string        `env:"ITEM_BANK_FILE"`

	Postgres Postgres
	Redis    Redis
	Security Security
	Auth     Auth
	OAuth    OAuth
	Game     Game
	AI       AI
	SMTP     SMTP
	Report   Report
	CORS     CORS
	Stats    Stats
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// DSN renders the key/value connection string understood by pgx.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Redis holds game state, OTP and stats storage configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing tokens.
type Security struct {
	JWTSecret        string        `env:"JWT_SECRET,notEmpty"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	AccessTTL        time.Duration `env:"JWT_ACCESS_TTL" envDefault:"1h"`
	RefreshTTL       time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`
}

// Auth groups student sign-in rules.
type Auth struct {
	AllowedEmailDomain string        `env:"AUTH_ALLOWED_EMAIL_DOMAIN" envDefault:"@micamail.in"`
	OTPTTL             time.Duration `env:"AUTH_OTP_TTL" envDefault:"10m"`
	OTPMaxAttempts     int           `env:"AUTH_OTP_MAX_ATTEMPTS" envDefault:"5"`
	LoginRatePerMinute int           `env:"AUTH_LOGIN_RATE_PER_MINUTE" envDefault:"20"`
	LoginBurst         int           `env:"AUTH_LOGIN_BURST" envDefault:"5"`
	// Forwarded headers are honoured only from these addresses or CIDRs.
	TrustedProxies []string `env:"AUTH_TRUSTED_PROXIES" envSeparator:","`
	AdminUsername  string   `env:"ADMIN_USERNAME"`
	AdminPassword  string   `env:"ADMIN_PASSWORD"`
}

// OAuth holds Microsoft Entra ID configuration. Sign-in is disabled without a client id.
type OAuth struct {
	MicrosoftTenantID     string `env:"MICROSOFT_OAUTH_TENANT_ID" envDefault:"common"`
	MicrosoftClientID     string `env:"MICROSOFT_OAUTH_CLIENT_ID"`
	MicrosoftClientSecret string `env:"MICROSOFT_OAUTH_CLIENT_SECRET"`
	MicrosoftRedirectURL  string `env:"MICROSOFT_OAUTH_REDIRECT_URL"`
}

// Game groups quiz engine settings.
type Game struct {
	ItemsPerSession int           `env:"GAME_ITEMS_PER_SESSION" envDefault:"10"`
	AllowReplay     bool          `env:"GAME_ALLOW_REPLAY" envDefault:"false"`
	SavePolicy      string        `env:"GAME_SAVE_POLICY" envDefault:"best_effort"`
	StateTTL        time.Duration `env:"GAME_STATE_TTL" envDefault:"24h"`
}

// AI configures the Gemini analysis call.
type AI struct {
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	GeminiModel     string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiBaseURL   string        `env:"GEMINI_BASE_URL"`
	AnalysisTimeout time.Duration `env:"AI_ANALYSIS_TIMEOUT" envDefault:"45s"`
}

// SMTP holds email server configuration.
type SMTP struct {
	Host        string        `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	Port        int           `env:"SMTP_PORT" envDefault:"587"`
	Username    string        `env:"SMTP_USERNAME"`
	Password    string        `env:"SMTP_PASSWORD"`
	FromEmail   string        `env:"SMTP_FROM_EMAIL"`
	ImplicitTLS bool          `env:"SMTP_IMPLICIT_TLS" envDefault:"false"`
	DialTimeout time.Duration `env:"SMTP_DIAL_TIMEOUT" envDefault:"15s"`
}

// Report holds where analysis workbooks are sent.
type Report struct {
	Recipient string `env:"REPORT_RECIPIENT"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Stats governs level standings and the admin feed.
type Stats struct {
	TopN            int           `env:"STATS_TOP_N" envDefault:"50"`
	PubSubChannel   string        `env:"STATS_PUBSUB_CHANNEL" envDefault:"finlit:sessions"`
	RebuildInterval time.Duration `env:"STATS_REBUILD_INTERVAL" envDefault:"1h"`
}

// Load parses environment variables into App config. Mandatory settings are
// tagged notEmpty; everything else is optional.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
