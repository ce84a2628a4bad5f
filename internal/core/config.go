package core

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the full server configuration, loadable from a YAML file or
// from environment variables alone.
type Config struct {
	Env  string     `yaml:"env" env:"FACEGATE_ENV" env-default:"production"`
	HTTP HTTPConfig `yaml:"http"`

	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Blob    BlobConfig    `yaml:"blob"`
	Face    FaceConfig    `yaml:"face"`
	Tokens  TokenConfig   `yaml:"tokens"`

	// Clients seeded at startup alongside dynamically registered ones.
	Clients []SeedClient `yaml:"clients"`
}

type HTTPConfig struct {
	Address        string        `yaml:"address" env:"FACEGATE_HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"FACEGATE_HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"FACEGATE_HTTP_WRITE_TIMEOUT" env-default:"30s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"FACEGATE_HTTP_REQUEST_TIMEOUT" env-default:"60s"`
	RateLimit      int           `yaml:"rate_limit" env:"FACEGATE_HTTP_RATE_LIMIT" env-default:"120"`
	SecureCookies  bool          `yaml:"secure_cookies" env:"FACEGATE_HTTP_SECURE_COOKIES" env-default:"false"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"FACEGATE_HTTP_ALLOWED_ORIGINS" env-default:"*"`
}

type StorageConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string `yaml:"backend" env:"FACEGATE_STORAGE_BACKEND" env-default:"sqlite"`
	DataDir string `yaml:"data_dir" env:"FACEGATE_STORAGE_DATA_DIR" env-default:"./data"`
	// SweepInterval is how often expired codes and tokens are purged.
	SweepInterval time.Duration `yaml:"sweep_interval" env:"FACEGATE_STORAGE_SWEEP_INTERVAL" env-default:"5m"`
}

type SessionConfig struct {
	// Backend is "memory" or "redis".
	Backend       string        `yaml:"backend" env:"FACEGATE_SESSION_BACKEND" env-default:"memory"`
	TTL           time.Duration `yaml:"ttl" env:"FACEGATE_SESSION_TTL" env-default:"15m"`
	RedisAddr     string        `yaml:"redis_addr" env:"FACEGATE_SESSION_REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string        `yaml:"redis_password" env:"FACEGATE_SESSION_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"FACEGATE_SESSION_REDIS_DB" env-default:"0"`
}

type BlobConfig struct {
	// Backend is "fs", "s3", or "none".
	Backend  string `yaml:"backend" env:"FACEGATE_BLOB_BACKEND" env-default:"fs"`
	Dir      string `yaml:"dir" env:"FACEGATE_BLOB_DIR" env-default:"./data/blobs"`
	BaseURL  string `yaml:"base_url" env:"FACEGATE_BLOB_BASE_URL" env-default:"http://localhost:8080/blobs"`
	S3Bucket string `yaml:"s3_bucket" env:"FACEGATE_BLOB_S3_BUCKET"`
	S3Region string `yaml:"s3_region" env:"FACEGATE_BLOB_S3_REGION" env-default:"us-east-1"`
}

type FaceConfig struct {
	ExtractorURL     string        `yaml:"extractor_url" env:"FACEGATE_FACE_EXTRACTOR_URL" env-default:"http://localhost:5000/extract"`
	ExtractorTimeout time.Duration `yaml:"extractor_timeout" env:"FACEGATE_FACE_EXTRACTOR_TIMEOUT" env-default:"15s"`
	// Threshold is the maximum descriptor distance treated as the same person.
	Threshold float64 `yaml:"threshold" env:"FACEGATE_FACE_THRESHOLD" env-default:"0.6"`
}

type TokenConfig struct {
	CodeTTL    time.Duration `yaml:"code_ttl" env:"FACEGATE_TOKEN_CODE_TTL" env-default:"10m"`
	AccessTTL  time.Duration `yaml:"access_ttl" env:"FACEGATE_TOKEN_ACCESS_TTL" env-default:"1h"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env:"FACEGATE_TOKEN_REFRESH_TTL" env-default:"720h"`
}

// SeedClient is a statically configured OAuth client.
type SeedClient struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Name         string   `yaml:"name"`
	RedirectURIs []string `yaml:"redirect_uris"`
	Scopes       []string `yaml:"scopes"`
}

// MustLoad reads configuration from the path given by --config or
// CONFIG_PATH, falling back to environment variables when no file is set.
// It panics on invalid configuration.
func MustLoad() *Config {
	path := fetchConfigPath()

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			panic("config file does not exist: " + path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			panic("failed to read config: " + err.Error())
		}
		return &cfg
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("failed to read config from environment: " + err.Error())
	}
	return &cfg
}

func fetchConfigPath() string {
	var path string
	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}
