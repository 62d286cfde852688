package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Stats    StatsConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	CORSAllowedOrigins []string
}

type DatabaseConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	AutoMigrate  bool
}

// RedisConfig is optional; an empty Addr disables the token cache.
type RedisConfig struct {
	Addr string
}

type AuthConfig struct {
	OIDCIssuer      string
	JWTSecret       string
	EventServiceURL string
	KeycloakURL     string
	KeycloakRealm   string
	ClientID        string
	ClientSecret    string
}

type StatsConfig struct {
	Timezone        string
	DefaultPageSize int
	MaxPageSize     int
}

type LogConfig struct {
	Dir   string
	Level string
}

// Flags are the command line overrides applied on top of the environment.
type Flags struct {
	EnvFile     string
	Port        string
	AutoMigrate bool
	set         *pflag.FlagSet
}

// ParseFlags parses args (without the program name).
func ParseFlags(args []string) (*Flags, error) {
	fs := pflag.NewFlagSet("stats-service", pflag.ContinueOnError)
	f := &Flags{set: fs}
	fs.StringVar(&f.EnvFile, "env-file", ".env", "path of the .env file to load if present")
	fs.StringVarP(&f.Port, "port", "p", "", "listen address, overrides PORT")
	fs.BoolVar(&f.AutoMigrate, "migrate", false, "apply schema migrations on start-up, overrides AUTO_MIGRATE")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// LoadEnvFile loads key=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", ":8080"),
			ReadTimeout:        getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:       getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:        getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			DSN:          getEnv("POSTGRES_DSN", ""),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			AutoMigrate:  getEnvBool("AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", ""),
		},
		Auth: AuthConfig{
			OIDCIssuer:      getEnv("OIDC_ISSUER", ""),
			JWTSecret:       getEnv("JWT_SECRET", ""),
			EventServiceURL: getEnv("EVENT_SERVICE_URL", ""),
			KeycloakURL:     getEnv("KEYCLOAK_URL", ""),
			KeycloakRealm:   getEnv("KEYCLOAK_REALM", ""),
			ClientID:        getEnv("STATS_CLIENT_ID", ""),
			ClientSecret:    getEnv("STATS_CLIENT_SECRET", ""),
		},
		Stats: StatsConfig{
			Timezone:        getEnv("STATS_TIMEZONE", "Europe/Madrid"),
			DefaultPageSize: getEnvInt("STATS_DEFAULT_PAGE_SIZE", 10),
			MaxPageSize:     getEnvInt("STATS_MAX_PAGE_SIZE", 100),
		},
		Log: LogConfig{
			Dir:   getEnv("LOG_DIR", "logs"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// Apply overrides cfg with the flags given explicitly on the command line.
func (f *Flags) Apply(cfg *Config) {
	if f.Port != "" {
		cfg.Server.Port = f.Port
	}
	if f.set != nil && f.set.Changed("migrate") {
		cfg.Database.AutoMigrate = f.AutoMigrate
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
