package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
	"github.com/rentalhub/marketplace-gate/internal/core/service"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET" validate:"required"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Gate      GateConfig
	Session   SessionConfig
	Audit     AuditConfig
	Telemetry TelemetryConfig
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,      default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,       default=rentalhub"`
	AppName  string        `env:"MONGO_APP_NAME, default=marketplace-gate"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT,  default=10s"`
	Traced   bool          `env:"MONGO_TRACED,   default=true"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,      default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,        default=0"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT,   default=500ms"`
	PoolSize int           `env:"REDIS_POOL_SIZE, default=0"`
}

// GateConfig holds the route table and the gate's execution boundary. List
// values are comma separated; empty lists fall back to the marketplace
// defaults.
type GateConfig struct {
	// Zones is "ROLE:prefix[:home]" entries, e.g. "OWNER:/owner:/owner/cars".
	Zones              ZoneList `env:"GATE_ZONES"                validate:"dive"`
	PublicPaths        []string `env:"GATE_PUBLIC_PATHS"         validate:"dive,startswith=/"`
	CommonPaths        []string `env:"GATE_COMMON_PATHS"         validate:"dive,startswith=/"`
	ExcludedPrefixes   []string `env:"GATE_EXCLUDED_PREFIXES"    validate:"dive,startswith=/"`
	ExcludedExtensions []string `env:"GATE_EXCLUDED_EXTENSIONS"`
	DefaultDeny        bool     `env:"GATE_DEFAULT_DENY,         default=false"`
	LoginPath          string   `env:"GATE_LOGIN_PATH,           default=/login" validate:"required,startswith=/"`
}

type SessionConfig struct {
	CookieName      string        `env:"SESSION_COOKIE_NAME,       default=token"`
	CookieDomain    string        `env:"SESSION_COOKIE_DOMAIN"`
	CookieSecure    bool          `env:"SESSION_COOKIE_SECURE,     default=false"`
	CookieHTTPOnly  bool          `env:"SESSION_COOKIE_HTTP_ONLY,  default=false"`
	CookieMaxAge    time.Duration `env:"SESSION_COOKIE_MAX_AGE,    default=24h"`
	ProfileCacheTTL time.Duration `env:"SESSION_PROFILE_CACHE_TTL, default=30s"`
	Wait            time.Duration `env:"SESSION_WAIT,              default=2s"`
	FetchTimeout    time.Duration `env:"SESSION_FETCH_TIMEOUT,     default=5s"`
	Leeway          time.Duration `env:"SESSION_EXPIRY_LEEWAY,     default=0s"`
}

type AuditConfig struct {
	Workers          int           `env:"AUDIT_WORKERS,           default=4"   validate:"min=1"`
	Buffer           int           `env:"AUDIT_BUFFER,            default=256" validate:"min=1"`
	AttemptWindow    time.Duration `env:"AUDIT_ATTEMPT_WINDOW,    default=10m"`
	AttemptThreshold int64         `env:"AUDIT_ATTEMPT_THRESHOLD, default=5"   validate:"min=0"`
}

type TelemetryConfig struct {
	Enabled     bool              `env:"OTEL_ENABLED,       default=false"`
	ServiceName string            `env:"OTEL_SERVICE_NAME,  default=marketplace-gate"`
	Endpoint    string            `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool              `env:"OTEL_EXPORTER_OTLP_INSECURE, default=false"`
	Headers     map[string]string `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	SampleRatio float64           `env:"OTEL_SAMPLE_RATIO,  default=1" validate:"min=0,max=1"`
}

// ZoneSpec is one role zone as read from the environment.
type ZoneSpec struct {
	Role   string `validate:"required,oneof=ADMIN OWNER CUSTOMER"`
	Prefix string `validate:"required,startswith=/"`
	Home   string `validate:"omitempty,startswith=/"`
}

// ZoneList decodes GATE_ZONES.
type ZoneList []ZoneSpec

// EnvDecode implements envconfig.Decoder.
func (z *ZoneList) EnvDecode(val string) error {
	var out ZoneList
	for _, entry := range strings.Split(val, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return fmt.Errorf("zone %q: want ROLE:prefix[:home]", entry)
		}
		spec := ZoneSpec{
			Role:   strings.ToUpper(strings.TrimSpace(parts[0])),
			Prefix: strings.TrimSpace(parts[1]),
		}
		if len(parts) == 3 {
			spec.Home = strings.TrimSpace(parts[2])
		}
		out = append(out, spec)
	}
	*z = out
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// RouteTable converts the gate section into a route table configuration.
func (g GateConfig) RouteTable() service.RouteTableConfig {
	cfg := service.DefaultRouteTableConfig()
	if len(g.Zones) > 0 {
		cfg.Zones = make([]domain.Zone, 0, len(g.Zones))
		for _, z := range g.Zones {
			cfg.Zones = append(cfg.Zones, domain.Zone{
				Role:   domain.Role(z.Role),
				Prefix: z.Prefix,
				Home:   z.Home,
			})
		}
	}
	if len(g.PublicPaths) > 0 {
		cfg.PublicPaths = g.PublicPaths
	}
	if len(g.CommonPaths) > 0 {
		cfg.CommonPaths = g.CommonPaths
	}
	if g.LoginPath != "" {
		cfg.LoginPath = g.LoginPath
	}
	cfg.DefaultDeny = g.DefaultDeny
	return cfg
}

// Exclusions returns the prefixes and extensions the gate never evaluates.
func (g GateConfig) Exclusions() (prefixes, extensions []string) {
	prefixes = g.ExcludedPrefixes
	if len(prefixes) == 0 {
		prefixes = []string{"/api", "/health", "/metrics", "/swagger", "/static", "/assets", "/_next"}
	}
	extensions = g.ExcludedExtensions
	if len(extensions) == 0 {
		extensions = []string{".ico", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".css", ".js", ".map", ".woff", ".woff2", ".txt"}
	}
	return prefixes, extensions
}

// Load reads an optional .env file, then the environment, and validates the
// result.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: process environment: %w", err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad() *Config {
	cfg, err := Load(context.Background())
	if err != nil {
		panic(err.Error())
	}
	return cfg
}
