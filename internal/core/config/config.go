package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultPath = "./configs/config.local.yaml"

type HTTP struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeoutSec  int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec int    `mapstructure:"write_timeout_sec"`
	IdleTimeoutSec  int    `mapstructure:"idle_timeout_sec"`
}

func (h HTTP) ReadTimeout() time.Duration  { return time.Duration(h.ReadTimeoutSec) * time.Second }
func (h HTTP) WriteTimeout() time.Duration { return time.Duration(h.WriteTimeoutSec) * time.Second }
func (h HTTP) IdleTimeout() time.Duration  { return time.Duration(h.IdleTimeoutSec) * time.Second }

type App struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"`
	HTTP  HTTP   `mapstructure:"http"`
	Admin HTTP   `mapstructure:"admin"`
}

type LogFile struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type Log struct {
	Level string  `mapstructure:"level"`
	JSON  bool    `mapstructure:"json"`
	File  LogFile `mapstructure:"file"`
}

type JWT struct {
	Secret            string `mapstructure:"secret"`
	Issuer            string `mapstructure:"issuer"`
	AccessTokenTTLMin int    `mapstructure:"access_token_ttl_min"`
	LeewaySec         int    `mapstructure:"leeway_sec"`
}

func (j JWT) TTL() time.Duration    { return time.Duration(j.AccessTokenTTLMin) * time.Minute }
func (j JWT) Leeway() time.Duration { return time.Duration(j.LeewaySec) * time.Second }

type Auth struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// Storage 集合持久化：file | redis | gorm
type Storage struct {
	Driver      string `mapstructure:"driver"`
	Dir         string `mapstructure:"dir"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string `mapstructure:"driver"`
	DSN                string `mapstructure:"dsn"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int    `mapstructure:"conn_max_lifetime_min"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
	LogLevel           string `mapstructure:"log_level"`
}

type S3 struct {
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	Bucket       string `mapstructure:"bucket"`
	Prefix       string `mapstructure:"prefix"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

// Media 上传文件：local | s3
type Media struct {
	Driver        string `mapstructure:"driver"`
	Dir           string `mapstructure:"dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	S3            S3     `mapstructure:"s3"`
}

// Cache 渲染结果缓存，使用 Redis 配置的连接
type Cache struct {
	Enable bool   `mapstructure:"enable"`
	TTLSec int    `mapstructure:"ttl_sec"`
	Prefix string `mapstructure:"prefix"`
}

func (c Cache) TTL() time.Duration { return time.Duration(c.TTLSec) * time.Second }

type CORS struct {
	Origins []string `mapstructure:"origins"`
}

type Limits struct {
	RPS         float64 `mapstructure:"rps"`
	Burst       int     `mapstructure:"burst"`
	Concurrency int64   `mapstructure:"concurrency"`
	MaxBodyMB   int64   `mapstructure:"max_body_mb"`
	TimeoutSec  int     `mapstructure:"timeout_sec"`
}

type Config struct {
	App     App     `mapstructure:"app"`
	Log     Log     `mapstructure:"log"`
	JWT     JWT     `mapstructure:"jwt"`
	Auth    Auth    `mapstructure:"auth"`
	Storage Storage `mapstructure:"storage"`
	Redis   Redis   `mapstructure:"redis"`
	DB      DB      `mapstructure:"db"`
	Media   Media   `mapstructure:"media"`
	Cache   Cache   `mapstructure:"cache"`
	CORS    CORS    `mapstructure:"cors"`
	Limits  Limits  `mapstructure:"limits"`
}

var ErrInvalid = errors.New("invalid config")

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tech-news-api")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 5000)
	v.SetDefault("app.http.read_timeout_sec", 15)
	v.SetDefault("app.http.write_timeout_sec", 30)
	v.SetDefault("app.http.idle_timeout_sec", 60)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 5001)
	v.SetDefault("app.admin.read_timeout_sec", 5)
	v.SetDefault("app.admin.write_timeout_sec", 10)
	v.SetDefault("app.admin.idle_timeout_sec", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.enable", false)
	v.SetDefault("log.file.filename", "logs/app.log")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.max_age_days", 30)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "tech-news-api")
	v.SetDefault("jwt.access_token_ttl_min", 60)
	v.SetDefault("jwt.leeway_sec", 0)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.dir", "./data")
	v.SetDefault("storage.redis_prefix", "technews:")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime_min", 30)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("db.log_level", "warn")

	v.SetDefault("media.driver", "local")
	v.SetDefault("media.dir", "./uploads")
	v.SetDefault("media.public_base_url", "http://localhost:5000")
	v.SetDefault("media.s3.region", "us-east-1")
	v.SetDefault("media.s3.endpoint", "")
	v.SetDefault("media.s3.access_key", "")
	v.SetDefault("media.s3.secret_key", "")
	v.SetDefault("media.s3.bucket", "")
	v.SetDefault("media.s3.prefix", "")
	v.SetDefault("media.s3.use_path_style", false)

	v.SetDefault("cache.enable", false)
	v.SetDefault("cache.ttl_sec", 600)
	v.SetDefault("cache.prefix", "technews:render:")

	v.SetDefault("cors.origins", []string{"http://localhost:3000", "https://kaspatou07.github.io"})

	v.SetDefault("limits.rps", 20)
	v.SetDefault("limits.burst", 40)
	v.SetDefault("limits.concurrency", 300)
	v.SetDefault("limits.max_body_mb", 16)
	v.SetDefault("limits.timeout_sec", 10)
}

// Load path 为空时依次取 CONFIG_PATH、DefaultPath；默认路径的文件可以不存在
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("%w: jwt.secret is required", ErrInvalid)
	}
	switch c.Storage.Driver {
	case "file", "redis", "gorm":
	default:
		return fmt.Errorf("%w: storage.driver %q", ErrInvalid, c.Storage.Driver)
	}
	switch c.Media.Driver {
	case "local":
	case "s3":
		if c.Media.S3.Bucket == "" {
			return fmt.Errorf("%w: media.s3.bucket is required", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: media.driver %q", ErrInvalid, c.Media.Driver)
	}
	if c.App.HTTP.Port <= 0 {
		return fmt.Errorf("%w: app.http.port", ErrInvalid)
	}
	return nil
}
