package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string      `yaml:"env" env:"ENV" env-default:"production"`
	Log         Log         `yaml:"log"`
	HTTPServer  HTTPServer  `yaml:"http_server"`
	JWTSecret   string      `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"super_secret_key" validate:"required"`
	Metadata    Metadata    `yaml:"metadata"`
	PGSQL       PQSQL       `yaml:"pgsql"`
	Thumbnails  Thumbnails  `yaml:"thumbnails"`
	Videos      Videos      `yaml:"videos"`
	Spool       Spool       `yaml:"spool"`
	ObjectStore ObjectStore `yaml:"object_store"`
	MinIO       MinIO       `yaml:"minio"`
	Redis       Redis       `yaml:"redis"`
	RateLimit   RateLimit   `yaml:"rate_limit"`
	AMQP        AMQP        `yaml:"amqp"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text" validate:"oneof=text json"`
}

// HTTPServer holds the listen address and the public host/port used to
// build thumbnail access URLs.
type HTTPServer struct {
	Address    string `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8091" validate:"required"`
	Scheme     string `yaml:"scheme" env:"HTTP_PUBLIC_SCHEME" env-default:"http" validate:"oneof=http https"`
	PublicHost string `yaml:"public_host" env:"HTTP_PUBLIC_HOST" env-default:"localhost" validate:"required"`
	PublicPort string `yaml:"public_port" env:"HTTP_PUBLIC_PORT" env-default:"8091" validate:"required,numeric"`
}

type Metadata struct {
	Driver     string `yaml:"driver" env:"METADATA_DRIVER" env-default:"postgres" validate:"oneof=postgres sqlite"`
	SQLitePath string `yaml:"sqlite_path" env:"METADATA_SQLITE_PATH" env-default:"assets.db"`
}

type PQSQL struct {
	Host     string `yaml:"host" env:"PG_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PG_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"PG_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"PG_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"PG_DBNAME" env-default:"assets_db"`
	SSLMode  string `yaml:"sslmode" env:"PG_SSLMODE" env-default:"disable"`
}

type Thumbnails struct {
	Backend       string `yaml:"backend" env:"THUMBNAILS_BACKEND" env-default:"memory" validate:"oneof=memory redis"`
	MaxUploadSize int64  `yaml:"max_upload_size" env:"THUMBNAILS_MAX_UPLOAD_SIZE" env-default:"10485760" validate:"gt=0"`
}

type Videos struct {
	MaxUploadSize    int64    `yaml:"max_upload_size" env:"VIDEOS_MAX_UPLOAD_SIZE" env-default:"1073741824" validate:"gt=0"`
	AllowedMimeTypes []string `yaml:"allowed_mime_types" env:"VIDEOS_ALLOWED_MIME_TYPES" env-default:"video/mp4,video/webm" validate:"min=1,dive,required"`
}

// Spool controls cleanup of temp files left by interrupted uploads.
type Spool struct {
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SPOOL_SWEEP_INTERVAL" env-default:"15m" validate:"gt=0"`
	MaxAge        time.Duration `yaml:"max_age" env:"SPOOL_MAX_AGE" env-default:"6h" validate:"gt=0"`
}

type ObjectStore struct {
	Backend string `yaml:"backend" env:"OBJECT_STORE_BACKEND" env-default:"s3" validate:"oneof=s3 minio"`
	Bucket  string `yaml:"bucket" env:"OBJECT_STORE_BUCKET" env-default:"assets-videos" validate:"required"`
	Region  string `yaml:"region" env:"OBJECT_STORE_REGION" env-default:"us-east-1" validate:"required"`
}

type MinIO struct {
	Endpoint        string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	UseSSL          bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

// Redis is optional; an empty address disables the Redis thumbnail backend,
// the video record cache and upload rate limiting.
type Redis struct {
	Addr          string        `yaml:"addr" env:"REDIS_ADDR"`
	Password      string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB            int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	VideoCacheTTL time.Duration `yaml:"video_cache_ttl" env:"REDIS_VIDEO_CACHE_TTL" env-default:"10m"`
}

type RateLimit struct {
	Enabled         bool  `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Capacity        int64 `yaml:"capacity" env:"RATE_LIMIT_CAPACITY" env-default:"20" validate:"gt=0"`
	RefillPerMinute int64 `yaml:"refill_per_minute" env:"RATE_LIMIT_REFILL_PER_MINUTE" env-default:"20" validate:"gt=0"`
}

// AMQP is optional; an empty URL disables queue notifications.
type AMQP struct {
	URL   string `yaml:"url" env:"AMQP_URL"`
	Queue string `yaml:"queue" env:"AMQP_QUEUE" env-default:"video_uploaded"`
}

// ThumbnailBaseURL is the prefix every thumbnail access URL starts with.
func (s HTTPServer) ThumbnailBaseURL() string {
	return fmt.Sprintf("%s://%s:%s/assets/thumbnails", s.Scheme, s.PublicHost, s.PublicPort)
}

// Validate checks the loaded values and the cross-field rules the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Thumbnails.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("thumbnails backend redis requires redis.addr")
	}
	return nil
}

// Load reads the YAML file at path, applies env overrides and defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env config: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Fatalf("config file does not exist at path: %s", configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %s", err)
	}

	return cfg
}
