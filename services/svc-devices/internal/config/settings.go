package config

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Set at build time with -ldflags.
var (
	ServiceVersion string
	CommitSHA      string
	APIVersion     string
)

const (
	Development = 1 << iota
	Sandbox
	Staging
	Production
)

type (
	ServiceConfig struct {
		App        App        `json:"app"`
		HTTPServer HTTPServer `json:"http_server"`
		Database   Database   `json:"database"`
		Compiler   Compiler   `json:"compiler"`
		Logging    Logging    `json:"logging"`
		Telemetry  Telemetry  `json:"telemetry"`
	}

	App struct {
		ServiceName    string      `envconfig:"APP_SERVICE_NAME" default:"svc-devices" json:"service_name"`
		ServiceVersion string      `envconfig:"APP_SERVICE_VERSION" default:"dev" json:"service_version"`
		CommitSHA      string      `envconfig:"APP_COMMIT_SHA" default:"" json:"commit_sha,omitempty"`
		APIVersion     string      `envconfig:"APP_API_VERSION" default:"v1" json:"api_version"`
		SeedDemoData   bool        `envconfig:"APP_SEED_DEMO_DATA" default:"true" json:"seed_demo_data"`
		Env            Environment `json:"environment"`
	}

	Environment struct {
		Name string `envconfig:"APP_ENVIRONMENT" default:"development" json:"env"`
	}

	HTTPServer struct {
		Host            string        `envconfig:"HTTP_SERVER_HOST" default:"0.0.0.0" json:"host"`
		Port            uint          `envconfig:"HTTP_SERVER_PORT" default:"8080" json:"port"`
		ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s" json:"read_timeout"`
		WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"10s" json:"write_timeout"`
		ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"30s" json:"shutdown_timeout"`
		MaxBodyBytes    int64         `envconfig:"HTTP_MAX_BODY_BYTES" default:"1048576" json:"max_body_bytes"`
	}

	Database struct {
		Enabled         bool          `envconfig:"POSTGRES_ENABLED" default:"false" json:"enabled"`
		Host            string        `envconfig:"POSTGRES_HOST" default:"postgres" json:"host"`
		Port            uint          `envconfig:"POSTGRES_PORT" default:"5432" json:"port"`
		Database        string        `envconfig:"POSTGRES_DATABASE" default:"devices" json:"database"`
		Username        string        `envconfig:"POSTGRES_USERNAME" default:"postgres" json:"username"`
		Password        string        `envconfig:"POSTGRES_PASSWORD" default:"" json:"-"`
		SSLMode         string        `envconfig:"POSTGRES_SSL_MODE" default:"disable" json:"ssl_mode"`
		MaxConnections  int           `envconfig:"POSTGRES_MAX_CONNECTIONS" default:"25" json:"max_connections"`
		MinConnections  int           `envconfig:"POSTGRES_MIN_CONNECTIONS" default:"5" json:"min_connections"`
		ConnectTimeout  time.Duration `envconfig:"POSTGRES_CONNECT_TIMEOUT" default:"10s" json:"connect_timeout"`
		MaxConnLifetime time.Duration `envconfig:"POSTGRES_MAX_CONN_LIFETIME" default:"1h" json:"max_conn_lifetime"`
		MaxConnIdleTime time.Duration `envconfig:"POSTGRES_MAX_CONN_IDLE_TIME" default:"30m" json:"max_conn_idle_time"`
		Breaker         Breaker       `json:"breaker"`
	}

	// Breaker guards database calls. Lookup misses and rejected filters do
	// not count as failures.
	Breaker struct {
		Enabled          bool          `envconfig:"POSTGRES_BREAKER_ENABLED" default:"true" json:"enabled"`
		FailureThreshold uint          `envconfig:"POSTGRES_BREAKER_FAILURE_THRESHOLD" default:"5" json:"failure_threshold"`
		HalfOpenProbes   uint          `envconfig:"POSTGRES_BREAKER_HALF_OPEN_PROBES" default:"1" json:"half_open_probes"`
		ResetInterval    time.Duration `envconfig:"POSTGRES_BREAKER_RESET_INTERVAL" default:"60s" json:"reset_interval"`
		Timeout          time.Duration `envconfig:"POSTGRES_BREAKER_TIMEOUT" default:"30s" json:"timeout"`
	}

	// Compiler tunes filter compilation. With the cache disabled every
	// search compiles its filter anew.
	Compiler struct {
		CacheEnabled bool `envconfig:"PREDICATE_CACHE_ENABLED" default:"true" json:"cache_enabled"`
		CacheSize    int  `envconfig:"PREDICATE_CACHE_SIZE" default:"512" json:"cache_size"`
	}

	Logging struct {
		Level     string    `envconfig:"LOG_LEVEL" default:"info" json:"level"`
		Format    string    `envconfig:"LOG_FORMAT" default:"json" json:"format"`
		AccessLog AccessLog `json:"access_log"`
	}

	AccessLog struct {
		Enabled         bool `envconfig:"ACCESS_LOG_ENABLED" default:"true" json:"enabled"`
		LogHealthChecks bool `envconfig:"ACCESS_LOG_HEALTH_CHECKS" default:"false" json:"log_health_checks"`
	}

	Telemetry struct {
		Enabled        bool    `envconfig:"OTEL_ENABLED" default:"false" json:"enabled"`
		OTLPEndpoint   string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"" json:"otlp_endpoint"`
		ServiceName    string  `envconfig:"OTEL_SERVICE_NAME" default:"svc-devices" json:"service_name"`
		ServiceVersion string  `envconfig:"OTEL_SERVICE_VERSION" default:"1.0.0" json:"service_version"`
		Metrics        Metrics `json:"metrics"`
		Traces         Traces  `json:"traces"`
	}

	Metrics struct {
		Enabled bool `envconfig:"METRICS_ENABLED" default:"false" json:"enabled"`
	}

	Traces struct {
		Enabled      bool    `envconfig:"TRACES_ENABLED" default:"false" json:"enabled"`
		SamplerRatio float64 `envconfig:"TRACES_SAMPLER_RATIO" default:"1.0" json:"sampler_ratio"`
	}
)

func (c *ServiceConfig) GetEnvironment() int {
	switch c.App.Env.Name {
	case "production", "prod":
		return Production
	case "staging", "stg":
		return Staging
	case "sandbox", "sbx":
		return Sandbox
	default:
		return Development
	}
}

func (c *ServiceConfig) IsProduction() bool {
	return c.GetEnvironment() == Production
}

// Address is the listen address of the HTTP server.
func (s HTTPServer) Address() string {
	return net.JoinHostPort(s.Host, strconv.FormatUint(uint64(s.Port), 10))
}

// DSN renders the connection string understood by pgxpool.
func (d Database) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.Username, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.FormatUint(uint64(d.Port), 10)),
		Path:   d.Database,
	}

	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	q.Set("connect_timeout", strconv.Itoa(int(d.ConnectTimeout.Seconds())))
	u.RawQuery = q.Encode()

	return u.String()
}
