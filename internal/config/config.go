package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	defaultAddress       = ":4000"
	defaultStorageDriver = "file"
	defaultStoragePath   = "data.json"
	defaultSessionTTL    = 24 * time.Hour
	defaultSweepInterval = 10 * time.Minute
	defaultLogLevel      = "info"
)

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Key       string `yaml:"key"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
	Storage struct {
		// Driver is one of file, s3, mysql, postgres, sqlite.
		Driver string   `yaml:"driver"`
		Path   string   `yaml:"path"`
		DSN    string   `yaml:"dsn"`
		S3     S3Config `yaml:"s3"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Session struct {
		TTL           time.Duration `yaml:"ttl"`
		SweepInterval time.Duration `yaml:"sweep_interval"`
	} `yaml:"session"`
	Firebase struct {
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firebase"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// SQL reports whether the storage driver is a database/sql backend.
func (c Config) SQL() bool {
	switch c.Storage.Driver {
	case "mysql", "postgres", "sqlite":
		return true
	}
	return false
}

func defaults() Config {
	var cfg Config
	cfg.Server.Address = defaultAddress
	cfg.Storage.Driver = defaultStorageDriver
	cfg.Storage.Path = defaultStoragePath
	cfg.Storage.S3.Key = defaultStoragePath
	cfg.Session.TTL = defaultSessionTTL
	cfg.Session.SweepInterval = defaultSweepInterval
	cfg.Log.Level = defaultLogLevel
	return cfg
}

// Load reads the optional YAML file at path, then applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Address = ":" + v
	}
	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.Path, "STORAGE_PATH")
	setString(&cfg.Storage.DSN, "DATABASE_URL")
	setString(&cfg.Storage.S3.Bucket, "S3_BUCKET")
	setString(&cfg.Storage.S3.Key, "S3_KEY")
	setString(&cfg.Storage.S3.Region, "S3_REGION")
	setString(&cfg.Storage.S3.Endpoint, "S3_ENDPOINT")
	setString(&cfg.Storage.S3.AccessKey, "S3_ACCESS_KEY")
	setString(&cfg.Storage.S3.SecretKey, "S3_SECRET_KEY")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Firebase.CredentialsFile, "FIREBASE_CREDENTIALS_FILE")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	if v, err := readIntEnv("REDIS_DB"); err != nil {
		return fmt.Errorf("parse REDIS_DB: %w", err)
	} else if v != nil {
		cfg.Redis.DB = *v
	}

	if v, err := readIntEnv("SESSION_TTL_SECONDS"); err != nil {
		return fmt.Errorf("parse SESSION_TTL_SECONDS: %w", err)
	} else if v != nil {
		cfg.Session.TTL = time.Duration(*v) * time.Second
	}

	if v, err := readIntEnv("SESSION_SWEEP_SECONDS"); err != nil {
		return fmt.Errorf("parse SESSION_SWEEP_SECONDS: %w", err)
	} else if v != nil {
		cfg.Session.SweepInterval = time.Duration(*v) * time.Second
	}
	return nil
}

func (c Config) validate() error {
	switch c.Storage.Driver {
	case "file":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the file driver")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" || c.Storage.S3.Key == "" {
			return fmt.Errorf("storage.s3.bucket and storage.s3.key are required for the s3 driver")
		}
	case "mysql", "postgres", "sqlite":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the %s driver", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must not be negative")
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session.sweep_interval must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func readIntEnv(key string) (*int, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
